// Package sync periodically folds scheduler job states back into the
// submission ledger, so history stays truthful after jobs finish.
package sync

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"lsfd/internal/pkg/client/lsbatch/models"
)

// Store is the ledger slice the refresher needs.
type Store interface {
	GetActiveJobIDs(ctx context.Context) ([]string, error)
	UpdateState(ctx context.Context, jobID, state string) error
}

// Batch is the scheduler slice the refresher needs.
type Batch interface {
	GetJobsByIDs(ctx context.Context, ids []string) (models.Jobs, error)
}

type Service struct {
	store  Store
	batch  Batch
	logger *slog.Logger

	parser cron.Parser
	c      *cron.Cron
}

func New(store Store, batch Batch, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		batch:  batch,
		logger: logger,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start schedules RefreshOnce at the given cron spec ("@every 1m" style
// descriptors are accepted) and starts the cron runner.
func (s *Service) Start(schedule string) error {
	sched, err := s.parser.Parse(schedule)
	if err != nil {
		return err
	}
	s.c = cron.New(cron.WithParser(s.parser))
	s.c.Schedule(sched, cron.FuncJob(func() {
		if err := s.RefreshOnce(context.Background()); err != nil {
			s.logger.Warn("status refresh failed", slog.Any("err", err))
		}
	}))
	s.c.Start()
	s.logger.Info("status sync started", slog.String("schedule", schedule))
	return nil
}

// Stop halts the cron runner and returns once the running refresh, if
// any, has finished.
func (s *Service) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
}

// RefreshOnce queries bjobs for every non-terminal recorded job and
// writes back changed states. Jobs the scheduler no longer reports are
// marked UNKWN and picked up again on the next run.
func (s *Service) RefreshOnce(ctx context.Context) error {
	ids, err := s.store.GetActiveJobIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	jobs, err := s.batch.GetJobsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	states := make(map[string]string, len(jobs))
	for _, j := range jobs {
		states[j.JobID] = j.State
	}

	for _, id := range ids {
		state, ok := states[id]
		if !ok {
			state = "UNKWN"
		}
		if err := s.store.UpdateState(ctx, id, state); err != nil {
			s.logger.Warn("failed to update job state", slog.String("jobid", id), slog.Any("err", err))
			continue
		}
		if !ok {
			s.logger.Debug("job no longer reported by scheduler", slog.String("jobid", id))
		}
	}
	return nil
}
