package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/config"
	"github.com/bbnlabs/reliability-planner/internal/forms"
	"github.com/bbnlabs/reliability-planner/internal/runner"
	"github.com/bbnlabs/reliability-planner/internal/schema"
	"github.com/bbnlabs/reliability-planner/internal/store"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
	"github.com/bbnlabs/reliability-planner/pkg/metrics"
)

// ErrBadSubmissionBody is the single validation message returned when the
// request body cannot be parsed as a JSON object of sections.
const ErrBadSubmissionBody = "Request body must be a valid JSON object."

type JobService struct {
	cfg       *config.Config
	store     store.Store
	runner    runner.TaskRunner
	validator *schema.Validator
}

func NewJobService(cfg *config.Config, s store.Store, r runner.TaskRunner) *JobService {
	return &JobService{
		cfg:       cfg,
		store:     s,
		runner:    r,
		validator: schema.Default(),
	}
}

// SubmitSimulation accepts a raw simulation submission, validates it, writes
// the job record and launches the compute task. The record is written before
// the task starts, so a task that reports back immediately always finds it.
func (s *JobService) SubmitSimulation(ctx context.Context, data []byte) (*model.Job, error) {
	if missing := s.cfg.MissingJobResources(); len(missing) > 0 {
		zap.S().Named("job_service").Errorw("job resources not configured", "missing", missing)
		return nil, NewErrNotConfigured(missing)
	}

	flat, err := forms.FlattenSubmission(data)
	if err != nil {
		return nil, NewErrInvalidForm([]string{ErrBadSubmissionBody})
	}

	if result := s.validator.Validate(flat); !result.Valid {
		return nil, NewErrInvalidForm(result.Errors)
	}

	formData, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	job, err := s.store.Job().Create(ctx, *model.NewJob(id, model.JobTypeBayesianSimulation, formData))
	if err != nil {
		return nil, err
	}
	metrics.IncreaseJobsSubmittedMetric(model.JobTypeBayesianSimulation)

	task := runner.Task{
		JobID:   id,
		JobType: model.JobTypeBayesianSimulation,
		Env:     simulationEnv(flat),
	}
	taskID, err := s.runner.Start(ctx, task)
	if err != nil {
		metrics.IncreaseTaskStartsMetric("error")
		zap.S().Named("job_service").Errorw("failed to start compute task", "job_id", id, "error", err)
		// keep the record so the failure is visible to polling clients
		msg := "Could not start the simulation job."
		if _, updateErr := s.store.Job().UpdateStatus(ctx, id, model.JobStatusFailed, &msg); updateErr != nil {
			zap.S().Named("job_service").Errorw("failed to mark job failed", "job_id", id, "error", updateErr)
		}
		return nil, NewErrTaskStart(id, err)
	}
	metrics.IncreaseTaskStartsMetric("success")

	if err := s.store.Job().SetTaskID(ctx, id, taskID); err != nil {
		zap.S().Named("job_service").Warnw("failed to record task id", "job_id", id, "error", err)
	} else {
		job.TaskID = &taskID
	}

	zap.S().Named("job_service").Infow("simulation job accepted", "job_id", id, "task_id", taskID)
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context) (model.JobList, error) {
	return s.store.Job().List(ctx)
}

// UpdateJobStatus applies a status reported by a compute task, enforcing the
// forward-only lifecycle.
func (s *JobService) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) (*model.Job, error) {
	if !model.ValidJobStatus(status) {
		return nil, NewErrInvalidStatus(status)
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	job, err := s.store.Job().UpdateStatus(ctx, id, status, errorMessage)
	if err != nil {
		if _, rollbackErr := store.Rollback(ctx); rollbackErr != nil {
			zap.S().Named("job_service").Errorw("failed to rollback transaction", "job_id", id, "error", rollbackErr)
		}
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrJobNotFound(id)
		case errors.Is(err, store.ErrInvalidTransition):
			current, getErr := s.store.Job().Get(ctx, id)
			from := "unknown"
			if getErr == nil {
				from = current.Status
			}
			return nil, NewErrInvalidTransition(id, from, status)
		}
		return nil, err
	}

	if ctx, err = store.Commit(ctx); err != nil {
		return nil, err
	}

	s.refreshStatusMetrics(ctx)
	zap.S().Named("job_service").Infow("job status updated", "job_id", id, "status", status)
	return job, nil
}

func (s *JobService) refreshStatusMetrics(ctx context.Context) {
	counts, err := s.store.Job().CountByStatus(ctx)
	if err != nil {
		zap.S().Named("job_service").Debugw("failed to refresh status metrics", "error", err)
		return
	}
	for status, count := range counts {
		metrics.UpdateJobStatusCountMetric(status, int(count))
	}
}

// simulationEnv renders the flattened submission as the compute task
// environment, preserving submission order.
func simulationEnv(flat *forms.Flat) []runner.EnvVar {
	env := make([]runner.EnvVar, 0, flat.Len())
	for _, field := range flat.Fields() {
		env = append(env, runner.EnvVar{Name: runner.EnvName(field.Key), Value: field.Value})
	}
	return env
}
