package user

import (
	"github.com/gin-gonic/gin"
)

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/users")
	{
		v1.GET("", HandlerListUsers) // GET /api/v1/users
	}
}
