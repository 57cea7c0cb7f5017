package lsbatch

import (
	"github.com/gin-gonic/gin"
)

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/lsf/scheduling")
	{
		v1.GET("/job/all", HandlerGetAllJobs)  // GET /api/v1/lsf/scheduling/job/all
		v1.GET("/job", HandlerGetJob)          // GET /api/v1/lsf/scheduling/job?jobid=xxx
		v1.DELETE("/job", HandlerKillJob)      // DELETE /api/v1/lsf/scheduling/job?jobid=xxx
		v1.GET("/queue/all", HandlerGetQueues) // GET /api/v1/lsf/scheduling/queue/all
	}
}
