package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

const (
	JobTypeBayesianSimulation  = "bayesian-simulation"
	JobTypeSensitivityAnalysis = "sensitivity-analysis"
	JobTypeUpdatePfd           = "update-pfd"
	JobTypeFullAnalysis        = "full-analysis"
)

// JobStatuses lists every status a job can carry, in lifecycle order.
var JobStatuses = []string{JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed}

// JobTypes lists every job type the service accepts.
var JobTypes = []string{
	JobTypeBayesianSimulation,
	JobTypeSensitivityAnalysis,
	JobTypeUpdatePfd,
	JobTypeFullAnalysis,
}

type Job struct {
	ID           uuid.UUID `gorm:"primaryKey;"`
	JobType      string    `gorm:"index;not null"`
	Status       string    `gorm:"index;not null"`
	FormData     []byte    `gorm:"type:jsonb"`
	TaskID       *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type JobList []Job

func NewJob(id uuid.UUID, jobType string, formData []byte) *Job {
	return &Job{
		ID:       id,
		JobType:  jobType,
		Status:   JobStatusPending,
		FormData: formData,
	}
}

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// CanTransition reports whether the job may move to the given status. The
// lifecycle only moves forward: terminal statuses accept nothing and RUNNING
// cannot fall back to PENDING. Re-asserting the current non-terminal status
// is allowed, so a redelivered status callback lands as a no-op instead of a
// conflict.
func (j *Job) CanTransition(to string) bool {
	if j.Terminal() {
		return false
	}
	if to == j.Status {
		return true
	}
	switch j.Status {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusCompleted || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed
	}
	return false
}

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s string) bool {
	for _, known := range JobStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidJobType reports whether t is a known job type.
func ValidJobType(t string) bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}
