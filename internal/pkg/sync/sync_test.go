package sync

import (
	"context"
	"log/slog"
	"testing"

	"lsfd/internal/pkg/client/lsbatch/models"
)

type fakeStore struct {
	active  []string
	updates map[string]string
}

func (f *fakeStore) GetActiveJobIDs(ctx context.Context) ([]string, error) {
	return f.active, nil
}

func (f *fakeStore) UpdateState(ctx context.Context, jobID, state string) error {
	if f.updates == nil {
		f.updates = make(map[string]string)
	}
	f.updates[jobID] = state
	return nil
}

type fakeBatch struct {
	jobs    models.Jobs
	gotIDs  []string
	queries int
}

func (f *fakeBatch) GetJobsByIDs(ctx context.Context, ids []string) (models.Jobs, error) {
	f.gotIDs = ids
	f.queries++
	return f.jobs, nil
}

func TestRefreshOnce(t *testing.T) {
	store := &fakeStore{active: []string{"1", "2", "3"}}
	batch := &fakeBatch{jobs: models.Jobs{
		{JobID: "1", State: models.StateRun},
		{JobID: "2", State: models.StateDone},
		// job 3 aged out of bjobs
	}}
	s := New(store, batch, slog.Default())

	if err := s.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce error: %v", err)
	}
	if len(batch.gotIDs) != 3 {
		t.Errorf("expected 3 queried IDs, got %v", batch.gotIDs)
	}
	if store.updates["1"] != models.StateRun {
		t.Errorf("job 1 state = %q, want RUN", store.updates["1"])
	}
	if store.updates["2"] != models.StateDone {
		t.Errorf("job 2 state = %q, want DONE", store.updates["2"])
	}
	if store.updates["3"] != "UNKWN" {
		t.Errorf("job 3 state = %q, want UNKWN", store.updates["3"])
	}
}

func TestRefreshOnceNoActiveJobs(t *testing.T) {
	store := &fakeStore{}
	batch := &fakeBatch{}
	s := New(store, batch, slog.Default())

	if err := s.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce error: %v", err)
	}
	if batch.queries != 0 {
		t.Errorf("bjobs should not run with no active jobs, ran %d times", batch.queries)
	}
}

func TestStartBadSchedule(t *testing.T) {
	s := New(&fakeStore{}, &fakeBatch{}, slog.Default())
	if err := s.Start("not a schedule"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartStop(t *testing.T) {
	s := New(&fakeStore{}, &fakeBatch{}, slog.Default())
	if err := s.Start("@every 1h"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	s.Stop()
}
