package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

type Job interface {
	InitialMigration() error
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context) (model.JobList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) (*model.Job, error)
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error
	ListStale(ctx context.Context, status string, olderThan time.Time) (model.JobList, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Job{})
}

// getDB honors an ambient transaction carried by the context.
func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job := model.Job{ID: id}
	result := s.getDB(ctx).First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context) (model.JobList, error) {
	var jobs model.JobList
	result := s.getDB(ctx).Model(&jobs).Order("created_at desc").Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

// UpdateStatus moves a job to the given status, enforcing the forward-only
// lifecycle. The read and write share one transaction so concurrent updates
// cannot interleave.
func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) (*model.Job, error) {
	var updated *model.Job
	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		job := model.Job{ID: id}
		if result := tx.First(&job); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return result.Error
		}
		if !job.CanTransition(status) {
			return ErrInvalidTransition
		}
		job.Status = status
		selectFields := []string{"status"}
		if errorMessage != nil {
			job.ErrorMessage = errorMessage
			selectFields = append(selectFields, "error_message")
		}
		if result := tx.Model(&job).Clauses(clause.Returning{}).Select(selectFields).Updates(&job); result.Error != nil {
			return result.Error
		}
		updated = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *JobStore) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	result := s.getDB(ctx).Model(&model.Job{ID: id}).Update("task_id", taskID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) ListStale(ctx context.Context, status string, olderThan time.Time) (model.JobList, error) {
	var jobs model.JobList
	result := s.getDB(ctx).
		Where("status = ? AND created_at < ?", status, olderThan).
		Order("created_at").
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (s *JobStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	result := s.getDB(ctx).
		Model(&model.Job{}).
		Select("status, count(*) as total").
		Group("status").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	counts := make(map[string]int64, len(model.JobStatuses))
	for _, status := range model.JobStatuses {
		counts[status] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
