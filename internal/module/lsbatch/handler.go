package lsbatch

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	lsbatchc "lsfd/internal/pkg/client/lsbatch"
	"lsfd/internal/pkg/common/response"
	"lsfd/internal/pkg/model"
)

// HandlerGetAllJobs lists jobs currently known to the scheduler (paged).
//
// @Summary List scheduler jobs
// @Description List all jobs via bjobs; supports paging
// @Tags lsf, scheduling
// @Produce json
// @Param paging query bool false "enable paging" default(true)
// @Param page query int false "page number (from 1)" default(1) minimum(1)
// @Param page_size query int false "page size" default(20) minimum(1)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/scheduling/job/all [get]
func HandlerGetAllJobs(c *gin.Context) {
	client := lsbatchc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "lsbatch client not initialized"})
		return
	}

	jobs, err := client.GetJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	total := len(jobs)

	// Paging switch, default true
	var pagingFlag struct {
		Paging *bool `form:"paging"`
	}
	_ = c.ShouldBindQuery(&pagingFlag)
	paging := true
	if pagingFlag.Paging != nil {
		paging = *pagingFlag.Paging
	}

	if paging {
		var pq model.PagingQuery
		_ = c.ShouldBindQuery(&pq)
		pq.SetDefaults(1, 20, 100)
		if err := pq.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
			return
		}
		start := pq.Offset()
		if start > total {
			start = total
		}
		end := start + pq.Limit()
		if end > total {
			end = total
		}
		pageSlice := jobs[start:end]
		prevURL, nextURL := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, total)
		c.JSON(http.StatusOK, response.Response{Count: &total, Previous: prevURL, Next: nextURL, Results: pageSlice})
		return
	}

	c.JSON(http.StatusOK, response.Response{Count: &total, Results: jobs})
}

// HandlerGetJob returns one scheduler job by ID.
//
// @Summary Get job detail
// @Description Query a single job via bjobs
// @Tags lsf, scheduling
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/scheduling/job [get]
func HandlerGetJob(c *gin.Context) {
	client := lsbatchc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "lsbatch client not initialized"})
		return
	}

	jobid := strings.TrimSpace(c.Query("jobid"))
	if jobid == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing jobid parameter"})
		return
	}

	job, err := client.GetJob(c.Request.Context(), jobid)
	if err != nil {
		if errors.Is(err, lsbatchc.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Results: job})
}

// HandlerKillJob terminates a scheduler job.
//
// @Summary Kill a job
// @Description Terminate a job via bkill
// @Tags lsf, scheduling
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/scheduling/job [delete]
func HandlerKillJob(c *gin.Context) {
	client := lsbatchc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "lsbatch client not initialized"})
		return
	}

	jobid := strings.TrimSpace(c.Query("jobid"))
	if jobid == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing jobid parameter"})
		return
	}

	if err := client.Kill(c.Request.Context(), jobid); err != nil {
		if errors.Is(err, lsbatchc.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Detail: "job terminated"})
}

// HandlerGetQueues lists the batch queues.
//
// @Summary List queues
// @Description List batch queues via bqueues
// @Tags lsf, scheduling
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/scheduling/queue/all [get]
func HandlerGetQueues(c *gin.Context) {
	client := lsbatchc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "lsbatch client not initialized"})
		return
	}

	queues, err := client.GetQueues(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	total := len(queues)
	c.JSON(http.StatusOK, response.Response{Count: &total, Results: queues})
}
