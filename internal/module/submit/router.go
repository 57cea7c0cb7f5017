package submit

import (
	"github.com/gin-gonic/gin"
)

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/lsf/jobs")
	{
		v1.POST("", HandlerSubmitJob)            // POST /api/v1/lsf/jobs
		v1.POST("/validate", HandlerValidateJob) // POST /api/v1/lsf/jobs/validate
		v1.POST("/render", HandlerRenderJob)     // POST /api/v1/lsf/jobs/render
	}
}
