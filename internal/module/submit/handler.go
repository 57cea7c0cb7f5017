package submit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lsfd/config"
	condac "lsfd/internal/pkg/client/conda"
	"lsfd/internal/pkg/client/jobstore"
	ldapc "lsfd/internal/pkg/client/ldap"
	"lsfd/internal/pkg/client/lsbatch"
	"lsfd/internal/pkg/client/lsbatch/models"
	"lsfd/internal/pkg/common/response"
	"lsfd/internal/pkg/descriptor"
	"lsfd/internal/pkg/model"
)

// Request is the submission payload. Fields left empty fall back to the
// configured submission defaults.
type Request struct {
	Name       string   `json:"name"`
	Project    string   `json:"project"`
	Queue      string   `json:"queue"`
	OutputPath string   `json:"output_path"`
	WallClock  string   `json:"wall_clock"`
	MemoryMB   int      `json:"memory_mb"`
	WorkDir    string   `json:"work_dir"`
	CondaEnv   string   `json:"conda_env"`
	Command    []string `json:"command"`
	User       string   `json:"user"`
}

var (
	mu       sync.RWMutex
	defaults config.Submit
	limiter  = rate.NewLimiter(rate.Inf, 1)
)

// Configure installs the submission defaults and the rate limit. Called
// at startup and again on config hot reload.
func Configure(cfg config.Submit) {
	mu.Lock()
	defer mu.Unlock()
	defaults = cfg
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
}

// descriptorFromRequest merges the request with the configured defaults
// into a descriptor ready for validation.
func descriptorFromRequest(req Request) *descriptor.JobDescriptor {
	mu.RLock()
	def := defaults
	mu.RUnlock()

	d := &descriptor.JobDescriptor{
		Name:       req.Name,
		Project:    req.Project,
		Queue:      req.Queue,
		OutputPath: req.OutputPath,
		WallClock:  req.WallClock,
		MemoryMB:   req.MemoryMB,
		WorkDir:    req.WorkDir,
		CondaEnv:   req.CondaEnv,
		Command:    req.Command,
	}
	if d.Project == "" {
		d.Project = def.Project
	}
	if d.OutputPath == "" {
		d.OutputPath = def.OutputPath
	}
	if d.WallClock == "" {
		d.WallClock = def.WallClock
	}
	if d.MemoryMB == 0 {
		d.MemoryMB = def.MemoryMB
	}
	if d.WorkDir == "" {
		d.WorkDir = def.WorkDir
	}
	if d.CondaEnv == "" {
		d.CondaEnv = def.CondaEnv
	}
	if len(d.Command) == 0 {
		d.Command = descriptor.DefaultCommand
	}
	return d
}

// checkDescriptor runs full validation including environment resolution.
func checkDescriptor(c *gin.Context, d *descriptor.JobDescriptor) bool {
	if err := d.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return false
	}
	cc := condac.Default()
	if cc == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "conda client not initialized"})
		return false
	}
	if err := cc.Resolve(c.Request.Context(), d.CondaEnv); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return false
	}
	return true
}

// HandlerSubmitJob validates a descriptor, renders the bsub script,
// submits it and records the submission in the ledger.
//
// @Summary Submit a batch job
// @Description Validate the job descriptor, render a bsub script and submit it to LSF
// @Tags lsf, submit
// @Accept json
// @Produce json
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lsf/jobs [post]
func HandlerSubmitJob(c *gin.Context) {
	mu.RLock()
	lim := limiter
	mu.RUnlock()
	if !lim.Allow() {
		c.JSON(http.StatusTooManyRequests, response.Response{Detail: "submission rate limit exceeded"})
		return
	}

	client := lsbatch.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "lsbatch client not initialized"})
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid request body"})
		return
	}
	d := descriptorFromRequest(req)
	if !checkDescriptor(c, d) {
		return
	}

	script := d.Render()
	jobID, queue, err := client.Submit(c.Request.Context(), script)
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
		return
	}

	// Mail lookup is best effort: a directory outage must not lose the
	// submission record.
	mail := ""
	if lc := ldapc.Default(); lc != nil && req.User != "" {
		if m, err := lc.GetUserMail(c.Request.Context(), req.User); err == nil {
			mail = m
		}
	}

	sub := &model.Submission{
		JobID:      jobID,
		Name:       d.Name,
		Project:    d.Project,
		Queue:      queue,
		OutputPath: d.OutputPath,
		WallClock:  d.WallClock,
		MemoryMB:   d.MemoryMB,
		WorkDir:    d.WorkDir,
		CondaEnv:   d.CondaEnv,
		Command:    strings.Join(d.Command, " "),
		User:       req.User,
		Mail:       mail,
		State:      models.StatePend,
		Script:     script,
		SubmitTime: time.Now(),
		UpdateTime: time.Now(),
	}
	if store := jobstore.Default(); store != nil {
		if err := store.Record(c.Request.Context(), sub); err != nil {
			// The job is already in the scheduler's hands; report the
			// submission and flag the bookkeeping failure.
			c.JSON(http.StatusCreated, response.Response{
				Results: sub,
				Detail:  "job submitted but recording failed: " + err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusCreated, response.Response{Results: sub})
}

// HandlerValidateJob runs descriptor validation without submitting.
//
// @Summary Validate a job descriptor
// @Description Check descriptor well-formedness, working directory and environment resolvability
// @Tags lsf, submit
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/lsf/jobs/validate [post]
func HandlerValidateJob(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid request body"})
		return
	}
	d := descriptorFromRequest(req)
	if !checkDescriptor(c, d) {
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: d})
}

// HandlerRenderJob returns the bsub script a descriptor would submit.
//
// @Summary Render a job descriptor
// @Description Dry run: validate and return the generated bsub script without submitting
// @Tags lsf, submit
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/lsf/jobs/render [post]
func HandlerRenderJob(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid request body"})
		return
	}
	d := descriptorFromRequest(req)
	if !checkDescriptor(c, d) {
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: gin.H{"script": d.Render()}})
}
