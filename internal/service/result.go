package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/artifacts"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

const (
	// ShapeByLocation hands the caller a presigned URL instead of the
	// artifact body. Simulation results can be large.
	ShapeByLocation = "by-location"
	// ShapeInline embeds the artifact body in the response.
	ShapeInline = "inline"
)

var defaultShapes = map[string]string{
	model.JobTypeBayesianSimulation:  ShapeByLocation,
	model.JobTypeSensitivityAnalysis: ShapeInline,
	model.JobTypeUpdatePfd:           ShapeInline,
	model.JobTypeFullAnalysis:        ShapeInline,
}

// Result is the outcome of a completed job, in one of two shapes. Data is
// kept raw so the artifact text reaches the caller byte for byte.
type Result struct {
	JobID    uuid.UUID
	JobType  string
	Shape    string
	Location string
	Data     json.RawMessage
}

type ResultService struct {
	jobs      *JobService
	artifacts artifacts.Store
}

func NewResultService(jobs *JobService, store artifacts.Store) *ResultService {
	return &ResultService{jobs: jobs, artifacts: store}
}

// GetResult fetches the result of a job. A typeOverride lets callers read an
// artifact uploaded under a different job type than the record carries; an
// empty override uses the record's type. Missing artifacts surface as "not
// ready" until the job completes, then as a storage inconsistency.
func (s *ResultService) GetResult(ctx context.Context, id uuid.UUID, typeOverride string) (*Result, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobStatusFailed {
		return nil, NewErrJobNotCompleted(id, job.Status)
	}

	jobType := job.JobType
	if typeOverride != "" {
		jobType = typeOverride
	}
	key := artifacts.ResultKey(jobType, id)

	switch defaultShapes[jobType] {
	case ShapeByLocation:
		exists, err := s.artifacts.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, s.missingArtifactError(job, key)
		}
		location, err := s.artifacts.PresignGet(ctx, key)
		if err != nil {
			return nil, err
		}
		return &Result{JobID: id, JobType: jobType, Shape: ShapeByLocation, Location: location}, nil
	default:
		data, err := s.artifacts.Get(ctx, key)
		if err != nil {
			if errors.Is(err, artifacts.ErrNotFound) {
				return nil, s.missingArtifactError(job, key)
			}
			return nil, err
		}
		return &Result{JobID: id, JobType: jobType, Shape: ShapeInline, Location: key, Data: data}, nil
	}
}

// missingArtifactError distinguishes a result that has not landed yet from a
// completed job whose artifact vanished.
func (s *ResultService) missingArtifactError(job *model.Job, key string) error {
	if job.Status == model.JobStatusCompleted {
		zap.S().Named("result_service").Errorw("artifact missing for completed job", "job_id", job.ID, "key", key)
		return NewErrArtifactMissing(job.ID, key)
	}
	return NewErrResultNotReady(job.ID)
}

// DownloadURL presigns the result artifact of a completed job.
func (s *ResultService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != model.JobStatusCompleted {
		return "", NewErrJobNotCompleted(id, job.Status)
	}

	key := artifacts.ResultKey(job.JobType, id)
	exists, err := s.artifacts.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", NewErrArtifactMissing(id, key)
	}
	return s.artifacts.PresignGet(ctx, key)
}

func (s *ResultService) ListArtifacts(ctx context.Context, limit int) ([]artifacts.Object, error) {
	return s.artifacts.List(ctx, artifacts.ResultPrefix, limit)
}

func (s *ResultService) GetArtifactByKey(ctx context.Context, key string) ([]byte, error) {
	data, err := s.artifacts.Get(ctx, key)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return nil, NewErrArtifactNotFound(key)
		}
		return nil, err
	}
	return data, nil
}
