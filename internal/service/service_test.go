package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bbnlabs/reliability-planner/internal/artifacts"
	"github.com/bbnlabs/reliability-planner/internal/config"
	"github.com/bbnlabs/reliability-planner/internal/runner"
	"github.com/bbnlabs/reliability-planner/internal/store"
)

type fakeRunner struct {
	tasks  []runner.Task
	taskID string
	err    error
}

func (f *fakeRunner) Start(_ context.Context, task runner.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	if f.taskID == "" {
		return "task-1", nil
	}
	return f.taskID, nil
}

type fakeArtifacts struct {
	objects map[string][]byte
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{objects: map[string][]byte{}}
}

func (f *fakeArtifacts) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, artifacts.ErrNotFound
	}
	return data, nil
}

func (f *fakeArtifacts) PresignGet(_ context.Context, key string) (string, error) {
	return "https://minio.local/bbn-results/" + key + "?signed", nil
}

func (f *fakeArtifacts) List(_ context.Context, prefix string, limit int) ([]artifacts.Object, error) {
	var out []artifacts.Object
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, artifacts.Object{Key: key})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.Runner.Image = "bbn-compute:latest"
	cfg.Runner.ContainerName = "bbn-compute"
	cfg.Artifacts.Endpoint = "minio.local:9000"
	cfg.Artifacts.Bucket = "bbn-results"
	return cfg
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration())
	t.Cleanup(func() { _ = s.Close() })
	return s
}
