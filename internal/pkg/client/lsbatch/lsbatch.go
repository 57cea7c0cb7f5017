package lsbatch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"lsfd/config"
	"lsfd/internal/pkg/client/lsbatch/models"
)

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default LSF batch Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default LSF batch Client.
func Default() *Client { return defaultClient }

// ErrJobNotFound is returned when bjobs does not know the job ID.
var ErrJobNotFound = errors.New("job not found")

// ExecCommandFunc mirrors exec.CommandContext so tests can inject fakes.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client drives the LSF batch system through its command-line tools
// (bsub, bjobs, bkill, bqueues).
type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
	binDir      string
}

func New(cfg config.LSF, logger *slog.Logger) *Client {
	return &Client{
		execCommand: exec.CommandContext,
		logger:      logger,
		binDir:      cfg.BinDir,
	}
}

// WithExecCommand replaces the command constructor, for tests.
func (c *Client) WithExecCommand(exec ExecCommandFunc) *Client {
	c.execCommand = exec
	return c
}

func (c *Client) bin(name string) string {
	if c.binDir == "" {
		return name
	}
	return filepath.Join(c.binDir, name)
}

// bjobsFormat selects pipe-delimited fields so names with spaces survive.
const bjobsFormat = "jobid stat user queue job_name submit_time exec_host delimiter='|'"

var submitRe = regexp.MustCompile(`Job <(\d+)> is submitted to (?:default )?queue <([^>]+)>`)

// Submit pipes a rendered job script to bsub and returns the job ID and
// queue the scheduler assigned. The script carries all directives; no
// flags are passed on the bsub command line.
func (c *Client) Submit(ctx context.Context, script string) (jobID, queue string, err error) {
	cmd := c.execCommand(ctx, c.bin("bsub"))
	cmd.Stdin = strings.NewReader(script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("bsub failed", "output", string(out), "err", err)
		return "", "", fmt.Errorf("bsub: %s", strings.TrimSpace(string(out)))
	}
	m := submitRe.FindStringSubmatch(string(out))
	if m == nil {
		c.logger.Error("unrecognized bsub output", "output", string(out))
		return "", "", fmt.Errorf("unrecognized bsub output: %s", strings.TrimSpace(string(out)))
	}
	return m[1], m[2], nil
}

// GetJobs lists jobs of all users currently known to the scheduler,
// including recently finished ones (-a).
func (c *Client) GetJobs(ctx context.Context) (models.Jobs, error) {
	cmd := c.execCommand(ctx, c.bin("bjobs"), "-u", "all", "-a", "-noheader", "-o", bjobsFormat)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "No job found") {
			return models.Jobs{}, nil
		}
		c.logger.Error("unable to list jobs", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec bjobs command")
	}
	return parseJobs(out, c.logger), nil
}

// GetJob returns a single job by ID.
func (c *Client) GetJob(ctx context.Context, jobid string) (*models.Job, error) {
	cmd := c.execCommand(ctx, c.bin("bjobs"), "-noheader", "-o", bjobsFormat, jobid)
	out, err := cmd.CombinedOutput()
	if err != nil || strings.Contains(string(out), "is not found") {
		if strings.Contains(string(out), "is not found") {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobid)
		}
		c.logger.Error("unable to get job", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec bjobs command")
	}
	jobs := parseJobs(out, c.logger)
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobid)
	}
	return &jobs[0], nil
}

// GetJobsByIDs queries a specific set of job IDs in one bjobs call.
// Unknown IDs are silently absent from the result.
func (c *Client) GetJobsByIDs(ctx context.Context, ids []string) (models.Jobs, error) {
	if len(ids) == 0 {
		return models.Jobs{}, nil
	}
	args := []string{"-a", "-noheader", "-o", bjobsFormat}
	args = append(args, ids...)
	cmd := c.execCommand(ctx, c.bin("bjobs"), args...)
	out, err := cmd.CombinedOutput()
	if err != nil && !strings.Contains(string(out), "is not found") {
		c.logger.Error("unable to query jobs", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec bjobs command")
	}
	return parseJobs(out, c.logger), nil
}

// Kill terminates a job via bkill.
func (c *Client) Kill(ctx context.Context, jobid string) error {
	cmd := c.execCommand(ctx, c.bin("bkill"), jobid)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "No matching job found") {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobid)
		}
		c.logger.Error("bkill failed", "output", string(out), "cmd", cmd.String(), "err", err)
		return fmt.Errorf("bkill: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// GetQueues lists the batch queues.
// bqueues columns: QUEUE_NAME PRIO STATUS MAX JL/U JL/P JL/H NJOBS PEND RUN SUSP
func (c *Client) GetQueues(ctx context.Context) (models.Queues, error) {
	cmd := c.execCommand(ctx, c.bin("bqueues"))
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to list queues", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec bqueues command")
	}
	queues := make(models.Queues, 0)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 11 || fields[0] == "QUEUE_NAME" {
			continue
		}
		prio, _ := strconv.Atoi(fields[1])
		njobs, _ := strconv.Atoi(fields[7])
		pend, _ := strconv.Atoi(fields[8])
		run, _ := strconv.Atoi(fields[9])
		queues = append(queues, models.Queue{
			Name:     fields[0],
			Priority: prio,
			Status:   fields[2],
			NJobs:    njobs,
			Pend:     pend,
			Run:      run,
		})
	}
	return queues, nil
}

func parseJobs(out []byte, logger *slog.Logger) models.Jobs {
	jobs := make(models.Jobs, 0)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 7 {
			logger.Warn("invalid bjobs output line, skip", "line", line)
			continue
		}
		jobs = append(jobs, models.Job{
			JobID:      fields[0],
			State:      fields[1],
			User:       fields[2],
			Queue:      fields[3],
			Name:       fields[4],
			SubmitTime: fields[5],
			ExecHost:   fields[6],
		})
	}
	return jobs
}
