package service

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/store"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

// orphanedJobMessage marks jobs whose compute task never reported back.
const orphanedJobMessage = "Compute task did not start within the deadline."

// Sweeper reconciles orphaned jobs: a PENDING job older than the start
// deadline means its task died before reporting RUNNING, so the job would
// otherwise wait forever.
type Sweeper struct {
	jobs     *JobService
	store    store.Store
	deadline time.Duration
	interval time.Duration
}

func NewSweeper(jobs *JobService, s store.Store, deadline, interval time.Duration) *Sweeper {
	return &Sweeper{
		jobs:     jobs,
		store:    s,
		deadline: deadline,
		interval: interval,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			s.sweep(ctx)
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	stale, err := s.store.Job().ListStale(ctx, model.JobStatusPending, time.Now().Add(-s.deadline))
	if err != nil {
		zap.S().Named("sweeper").Errorw("failed to list stale jobs", "error", err)
		return
	}

	for _, job := range stale {
		msg := orphanedJobMessage
		if _, err := s.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusFailed, &msg); err != nil {
			zap.S().Named("sweeper").Errorw("failed to fail orphaned job", "job_id", job.ID, "error", err)
			continue
		}
		zap.S().Named("sweeper").Warnw("orphaned job marked failed", "job_id", job.ID, "created_at", job.CreatedAt)
	}
}
