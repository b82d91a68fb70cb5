package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bbnlabs/reliability-planner/internal/config"
	apivalidator "github.com/bbnlabs/reliability-planner/internal/handlers/validator"
	"github.com/bbnlabs/reliability-planner/internal/runner"
	"github.com/bbnlabs/reliability-planner/internal/store"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
	"github.com/bbnlabs/reliability-planner/pkg/metrics"
)

// AnalysisParams is the input of the three analysis job types. Which fields
// are constrained depends on the job type; the per-type constraint structs
// below carry the rules.
type AnalysisParams struct {
	PfdGoal        float64           `json:"pfd_goal"`
	ConfidenceGoal float64           `json:"confidence_goal"`
	Demand         int               `json:"demand"`
	Failures       int               `json:"failures"`
	TestMode       bool              `json:"test_mode"`
	BBNInput       map[string]string `json:"bbn_input,omitempty"`
}

// Sensitivity analysis derives demand and failures itself, so only the goals
// are constrained. Update-pfd never reads the confidence goal. The full
// analysis reads both goals plus the failure count, and failures may
// legitimately be zero.
type sensitivityConstraints struct {
	PfdGoal        float64 `validate:"gt=0"`
	ConfidenceGoal float64 `validate:"fraction"`
}

type updatePfdConstraints struct {
	PfdGoal  float64 `validate:"gt=0"`
	Demand   int     `validate:"gt=0"`
	Failures int     `validate:"gte=0,ltefield=Demand"`
}

type fullAnalysisConstraints struct {
	PfdGoal        float64 `validate:"gt=0"`
	ConfidenceGoal float64 `validate:"fraction"`
	Failures       int     `validate:"gte=0"`
}

func analysisConstraints(jobType string, params AnalysisParams) any {
	switch jobType {
	case model.JobTypeSensitivityAnalysis:
		return sensitivityConstraints{
			PfdGoal:        params.PfdGoal,
			ConfidenceGoal: params.ConfidenceGoal,
		}
	case model.JobTypeUpdatePfd:
		return updatePfdConstraints{
			PfdGoal:  params.PfdGoal,
			Demand:   params.Demand,
			Failures: params.Failures,
		}
	default:
		return fullAnalysisConstraints{
			PfdGoal:        params.PfdGoal,
			ConfidenceGoal: params.ConfidenceGoal,
			Failures:       params.Failures,
		}
	}
}

type AnalysisService struct {
	cfg       *config.Config
	store     store.Store
	runner    runner.TaskRunner
	validator *apivalidator.Validator
}

func NewAnalysisService(cfg *config.Config, s store.Store, r runner.TaskRunner) *AnalysisService {
	v := apivalidator.NewValidator()
	v.Register(apivalidator.NewAnalysisValidationRules()...)
	return &AnalysisService{
		cfg:       cfg,
		store:     s,
		runner:    r,
		validator: v,
	}
}

// SubmitAnalysis accepts an analysis request of the given job type, writes
// the job record and launches the compute task. Task-start failures keep the
// record, marked FAILED.
func (s *AnalysisService) SubmitAnalysis(ctx context.Context, jobType string, params AnalysisParams) (*model.Job, error) {
	if !analysisJobType(jobType) {
		return nil, NewErrInvalidAnalysisRequest([]string{"unknown analysis type: " + jobType})
	}
	if missing := s.cfg.MissingJobResources(); len(missing) > 0 {
		zap.S().Named("analysis_service").Errorw("job resources not configured", "missing", missing)
		return nil, NewErrNotConfigured(missing)
	}

	if err := s.validator.Struct(analysisConstraints(jobType, params)); err != nil {
		return nil, NewErrInvalidAnalysisRequest(analysisValidationMessages(err))
	}

	formData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	job, err := s.store.Job().Create(ctx, *model.NewJob(id, jobType, formData))
	if err != nil {
		return nil, err
	}
	metrics.IncreaseJobsSubmittedMetric(jobType)

	task := runner.Task{
		JobID:   id,
		JobType: jobType,
		Env:     analysisEnv(jobType, params),
	}
	taskID, err := s.runner.Start(ctx, task)
	if err != nil {
		metrics.IncreaseTaskStartsMetric("error")
		zap.S().Named("analysis_service").Errorw("failed to start compute task", "job_id", id, "error", err)
		msg := "Could not start the analysis job."
		if _, updateErr := s.store.Job().UpdateStatus(ctx, id, model.JobStatusFailed, &msg); updateErr != nil {
			zap.S().Named("analysis_service").Errorw("failed to mark job failed", "job_id", id, "error", updateErr)
		}
		return nil, NewErrTaskStart(id, err)
	}
	metrics.IncreaseTaskStartsMetric("success")

	if err := s.store.Job().SetTaskID(ctx, id, taskID); err != nil {
		zap.S().Named("analysis_service").Warnw("failed to record task id", "job_id", id, "error", err)
	} else {
		job.TaskID = &taskID
	}

	zap.S().Named("analysis_service").Infow("analysis job accepted", "job_id", id, "job_type", jobType, "task_id", taskID)
	return job, nil
}

func analysisJobType(jobType string) bool {
	switch jobType {
	case model.JobTypeSensitivityAnalysis, model.JobTypeUpdatePfd, model.JobTypeFullAnalysis:
		return true
	}
	return false
}

// analysisEnv renders the analysis parameters as the compute task
// environment. BBN input fields come last, sorted by key, each behind the
// BBN_INPUT_ prefix.
func analysisEnv(jobType string, params AnalysisParams) []runner.EnvVar {
	env := []runner.EnvVar{
		{Name: "TASK_TYPE", Value: jobType},
		{Name: "PFD_GOAL", Value: strconv.FormatFloat(params.PfdGoal, 'f', -1, 64)},
		{Name: "CONFIDENCE_GOAL", Value: strconv.FormatFloat(params.ConfidenceGoal, 'f', -1, 64)},
		{Name: "DEMAND", Value: strconv.Itoa(params.Demand)},
		{Name: "FAILURES", Value: strconv.Itoa(params.Failures)},
		{Name: "TEST_MODE", Value: strconv.FormatBool(params.TestMode)},
	}

	keys := make([]string, 0, len(params.BBNInput))
	for k := range params.BBNInput {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, runner.EnvVar{
			Name:  "BBN_INPUT_" + runner.EnvName(k),
			Value: params.BBNInput[k],
		})
	}
	return env
}

func analysisValidationMessages(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	var messages []string
	for _, fieldErr := range validationErrors {
		switch fieldErr.StructField() {
		case "PfdGoal":
			messages = append(messages, "pfd_goal must be a positive number")
		case "ConfidenceGoal":
			messages = append(messages, "confidence_goal must be between 0 and 1")
		case "Demand":
			messages = append(messages, "demand must be a positive number")
		case "Failures":
			if fieldErr.Tag() == "ltefield" {
				messages = append(messages, "failures cannot exceed demand")
			} else {
				messages = append(messages, "failures must be non-negative")
			}
		default:
			messages = append(messages, fieldErr.Error())
		}
	}
	return messages
}
