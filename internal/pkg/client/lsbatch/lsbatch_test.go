package lsbatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"testing"

	"lsfd/config"
	"lsfd/internal/pkg/client/lsbatch/models"
)

// helper: build fake exec that returns output based on args
func fakeExec(outputFn func(name string, args ...string) string) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		// Use sh -c to emit prebuilt content
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", outputFn(name, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func fakeExecFail(output string) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\nexit 1\n", output)
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func testClient(fn ExecCommandFunc) *Client {
	c := New(config.LSF{}, slog.Default())
	return c.WithExecCommand(fn)
}

func TestSubmit(t *testing.T) {
	c := testClient(fakeExec(func(name string, args ...string) string {
		if name != "bsub" {
			t.Errorf("expected bsub, got %s", name)
		}
		return "Job <42517> is submitted to queue <normal>."
	}))
	id, queue, err := c.Submit(context.Background(), "#!/bin/bash\n#BSUB -J SERIALJOB\n")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "42517" || queue != "normal" {
		t.Errorf("Submit = (%q, %q), want (42517, normal)", id, queue)
	}
}

func TestSubmitDefaultQueue(t *testing.T) {
	c := testClient(fakeExec(func(name string, args ...string) string {
		return "Job <7> is submitted to default queue <serial>."
	}))
	id, queue, err := c.Submit(context.Background(), "#!/bin/bash\n")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "7" || queue != "serial" {
		t.Errorf("Submit = (%q, %q), want (7, serial)", id, queue)
	}
}

func TestSubmitRejected(t *testing.T) {
	c := testClient(fakeExecFail("Project must be specified. Job not submitted."))
	if _, _, err := c.Submit(context.Background(), "#!/bin/bash\n"); err == nil {
		t.Fatal("expected error for rejected submission")
	}
}

const sampleBjobs = `42517|RUN|no316758|normal|SERIALJOB|Aug 25 10:14|node101
42518|PEND|no316758|normal|SERIALJOB|Aug 25 10:15|-
42519|DONE|other|gpu|train_eegnet|Aug 24 22:01|node204`

func TestGetJobs(t *testing.T) {
	c := testClient(fakeExec(func(name string, args ...string) string {
		if name != "bjobs" {
			t.Errorf("expected bjobs, got %s", name)
		}
		return sampleBjobs
	}))
	jobs, err := c.GetJobs(context.Background())
	if err != nil {
		t.Fatalf("GetJobs error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	j := jobs[0]
	if j.JobID != "42517" || j.State != models.StateRun || j.User != "no316758" ||
		j.Queue != "normal" || j.Name != "SERIALJOB" || j.ExecHost != "node101" {
		t.Errorf("unexpected first job: %+v", j)
	}
	if jobs[2].State != models.StateDone {
		t.Errorf("expected DONE, got %s", jobs[2].State)
	}
}

func TestGetJobsEmpty(t *testing.T) {
	c := testClient(fakeExecFail("No job found"))
	jobs, err := c.GetJobs(context.Background())
	if err != nil {
		t.Fatalf("GetJobs error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestGetJobNotFound(t *testing.T) {
	c := testClient(fakeExecFail("Job <99999> is not found"))
	_, err := c.GetJob(context.Background(), "99999")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
}

func TestGetJobsByIDs(t *testing.T) {
	var gotArgs []string
	c := testClient(fakeExec(func(name string, args ...string) string {
		gotArgs = args
		return sampleBjobs
	}))
	jobs, err := c.GetJobsByIDs(context.Background(), []string{"42517", "42518", "42519"})
	if err != nil {
		t.Fatalf("GetJobsByIDs error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "42519" {
		t.Errorf("job IDs not passed through: %v", gotArgs)
	}
}

func TestGetJobsByIDsEmpty(t *testing.T) {
	called := false
	c := testClient(fakeExec(func(name string, args ...string) string {
		called = true
		return ""
	}))
	jobs, err := c.GetJobsByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetJobsByIDs error: %v", err)
	}
	if called {
		t.Error("bjobs should not run for an empty ID set")
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestKill(t *testing.T) {
	c := testClient(fakeExec(func(name string, args ...string) string {
		if name != "bkill" || len(args) != 1 || args[0] != "42517" {
			t.Errorf("unexpected invocation: %s %v", name, args)
		}
		return "Job <42517> is being terminated"
	}))
	if err := c.Kill(context.Background(), "42517"); err != nil {
		t.Fatalf("Kill error: %v", err)
	}
}

func TestKillNotFound(t *testing.T) {
	c := testClient(fakeExecFail("No matching job found"))
	err := c.Kill(context.Background(), "1")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
}

const sampleBqueues = `QUEUE_NAME      PRIO STATUS          MAX JL/U JL/P JL/H NJOBS  PEND   RUN  SUSP
normal           30  Open:Active       -    -    -    -    45    12    33     0
gpu              40  Open:Active      64    8    -    -    10     2     8     0
night            20  Open:Inact        -    -    -    -     0     0     0     0`

func TestGetQueues(t *testing.T) {
	c := testClient(fakeExec(func(name string, args ...string) string {
		if name != "bqueues" {
			t.Errorf("expected bqueues, got %s", name)
		}
		return sampleBqueues
	}))
	queues, err := c.GetQueues(context.Background())
	if err != nil {
		t.Fatalf("GetQueues error: %v", err)
	}
	if len(queues) != 3 {
		t.Fatalf("expected 3 queues, got %d", len(queues))
	}
	q := queues[0]
	if q.Name != "normal" || q.Priority != 30 || q.Status != "Open:Active" ||
		q.NJobs != 45 || q.Pend != 12 || q.Run != 33 {
		t.Errorf("unexpected first queue: %+v", q)
	}
	if queues[2].Status != "Open:Inact" {
		t.Errorf("expected Open:Inact, got %s", queues[2].Status)
	}
}

func TestBinDir(t *testing.T) {
	c := New(config.LSF{BinDir: "/opt/lsf/bin"}, slog.Default())
	if got := c.bin("bsub"); got != "/opt/lsf/bin/bsub" {
		t.Errorf("bin(bsub) = %q", got)
	}
	c = New(config.LSF{}, slog.Default())
	if got := c.bin("bsub"); got != "bsub" {
		t.Errorf("bin(bsub) = %q", got)
	}
}
