package history

import (
	"github.com/gin-gonic/gin"
)

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/lsf/history")
	{
		v1.GET("", HandlerListSubmissions)      // GET /api/v1/lsf/history
		v1.GET("/detail", HandlerGetSubmission) // GET /api/v1/lsf/history/detail?jobid=xxx
	}
}
