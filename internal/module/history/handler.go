package history

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lsfd/internal/pkg/client/jobstore"
	"lsfd/internal/pkg/common/response"
	"lsfd/internal/pkg/model"
)

// HandlerListSubmissions lists recorded submissions (paged), newest
// first, with optional user and state filters.
//
// @Summary List submission history
// @Description Paged submission records from the ledger; filter by user and state
// @Tags lsf, history
// @Produce json
// @Param user query string false "filter by submitting user"
// @Param state query string false "filter by job state (PEND, RUN, DONE, EXIT, ...)"
// @Param page query int false "page number (from 1)"
// @Param page_size query int false "page size, 1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/history [get]
func HandlerListSubmissions(c *gin.Context) {
	store := jobstore.Default()
	if store == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "jobstore client not initialized"})
		return
	}

	var pq model.PagingQuery
	_ = c.ShouldBindQuery(&pq)
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}

	var user, state *string
	if u := strings.TrimSpace(c.Query("user")); u != "" {
		user = &u
	}
	if s := strings.TrimSpace(c.Query("state")); s != "" {
		state = &s
	}

	subs, total, err := store.GetSubmissionsPaged(c.Request.Context(), user, state, pq.Offset(), pq.Limit())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	prevURL, nextURL := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, int(total))
	totalInt := int(total)
	c.JSON(http.StatusOK, response.Response{
		Count:    &totalInt,
		Previous: prevURL,
		Next:     nextURL,
		Results:  subs,
	})
}

// HandlerGetSubmission returns a single recorded submission by job ID,
// including the rendered script that was submitted.
//
// @Summary Get a submission record
// @Description Single submission record by scheduler job ID
// @Tags lsf, history
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/history/detail [get]
func HandlerGetSubmission(c *gin.Context) {
	store := jobstore.Default()
	if store == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "jobstore client not initialized"})
		return
	}

	jobid := strings.TrimSpace(c.Query("jobid"))
	if jobid == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing jobid parameter"})
		return
	}

	sub, err := store.GetSubmissionByJobID(c.Request.Context(), jobid)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Results: sub})
}
