package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

func TestSweeperFailsOrphanedJobs(t *testing.T) {
	s := testStore(t)
	jobs := NewJobService(testConfig(t), s, &fakeRunner{})
	sweeper := NewSweeper(jobs, s, 15*time.Minute, time.Minute)

	orphan := model.NewJob(uuid.New(), model.JobTypeBayesianSimulation, nil)
	orphan.CreatedAt = time.Now().Add(-time.Hour)
	_, err := s.Job().Create(context.TODO(), *orphan)
	require.NoError(t, err)

	fresh := model.NewJob(uuid.New(), model.JobTypeBayesianSimulation, nil)
	_, err = s.Job().Create(context.TODO(), *fresh)
	require.NoError(t, err)

	started := model.NewJob(uuid.New(), model.JobTypeBayesianSimulation, nil)
	started.CreatedAt = time.Now().Add(-time.Hour)
	_, err = s.Job().Create(context.TODO(), *started)
	require.NoError(t, err)
	_, err = s.Job().UpdateStatus(context.TODO(), started.ID, model.JobStatusRunning, nil)
	require.NoError(t, err)

	sweeper.sweep(context.TODO())

	got, err := s.Job().Get(context.TODO(), orphan.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	require.Equal(t, orphanedJobMessage, *got.ErrorMessage)

	got, err = s.Job().Get(context.TODO(), fresh.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusPending, got.Status)

	got, err = s.Job().Get(context.TODO(), started.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusRunning, got.Status)
}
