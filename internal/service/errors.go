package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrNotConfigured struct {
	error
}

func NewErrNotConfigured(missing []string) *ErrNotConfigured {
	return &ErrNotConfigured{fmt.Errorf("service is not configured correctly, missing: %v", missing)}
}

// ErrInvalidForm carries every validation failure of a submission.
type ErrInvalidForm struct {
	error
	Errors []string
}

func NewErrInvalidForm(validationErrors []string) *ErrInvalidForm {
	return &ErrInvalidForm{
		error:  fmt.Errorf("invalid form data submitted: %d error(s)", len(validationErrors)),
		Errors: validationErrors,
	}
}

type ErrTaskStart struct {
	error
}

func NewErrTaskStart(id uuid.UUID, cause error) *ErrTaskStart {
	return &ErrTaskStart{fmt.Errorf("could not start compute task for job %s: %w", id, cause)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("job %s not found", id)}
}

func NewErrArtifactNotFound(key string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("artifact %s not found", key)}
}

// ErrResultNotReady marks a job whose result has not landed in object
// storage yet. Polling clients treat it as the signal to keep waiting.
type ErrResultNotReady struct {
	error
}

func NewErrResultNotReady(id uuid.UUID) *ErrResultNotReady {
	return &ErrResultNotReady{fmt.Errorf("result for job %s is not ready", id)}
}

// ErrArtifactMissing marks a completed job whose artifact is absent, which
// is a storage inconsistency rather than a pending result.
type ErrArtifactMissing struct {
	error
}

func NewErrArtifactMissing(id uuid.UUID, key string) *ErrArtifactMissing {
	return &ErrArtifactMissing{fmt.Errorf("job %s completed but artifact %s is missing", id, key)}
}

type ErrJobNotCompleted struct {
	error
}

func NewErrJobNotCompleted(id uuid.UUID, status string) *ErrJobNotCompleted {
	return &ErrJobNotCompleted{fmt.Errorf("job %s is %s, not COMPLETED", id, status)}
}

type ErrInvalidStatus struct {
	error
}

func NewErrInvalidStatus(status string) *ErrInvalidStatus {
	return &ErrInvalidStatus{fmt.Errorf("unknown job status %q", status)}
}

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(id uuid.UUID, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("job %s cannot move from %s to %s", id, from, to)}
}

// ErrInvalidAnalysisRequest carries field-level validation failures of an
// analysis request.
type ErrInvalidAnalysisRequest struct {
	error
	Errors []string
}

func NewErrInvalidAnalysisRequest(validationErrors []string) *ErrInvalidAnalysisRequest {
	return &ErrInvalidAnalysisRequest{
		error:  fmt.Errorf("invalid analysis request: %d error(s)", len(validationErrors)),
		Errors: validationErrors,
	}
}
