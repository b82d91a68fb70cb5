package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bbnlabs/reliability-planner/internal/artifacts"
	"github.com/bbnlabs/reliability-planner/internal/config"
	"github.com/bbnlabs/reliability-planner/internal/runner"
	"github.com/bbnlabs/reliability-planner/internal/service"
	"github.com/bbnlabs/reliability-planner/internal/store"
	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

type stubRunner struct {
	err error
}

func (s *stubRunner) Start(_ context.Context, _ runner.Task) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "container-1", nil
}

type memArtifacts struct {
	objects map[string][]byte
}

func (m *memArtifacts) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, artifacts.ErrNotFound
	}
	return data, nil
}

func (m *memArtifacts) PresignGet(_ context.Context, key string) (string, error) {
	return "https://minio.local/bbn-results/" + key + "?signed", nil
}

func (m *memArtifacts) List(_ context.Context, prefix string, limit int) ([]artifacts.Object, error) {
	var out []artifacts.Object
	for key := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, artifacts.Object{Key: key})
		}
	}
	return out, nil
}

type fixture struct {
	router    *chi.Mux
	jobs      *service.JobService
	artifacts *memArtifacts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.New()
	require.NoError(t, err)
	cfg.Runner.Image = "bbn-compute:latest"
	cfg.Runner.ContainerName = "bbn-compute"
	cfg.Artifacts.Endpoint = "minio.local:9000"
	cfg.Artifacts.Bucket = "bbn-results"

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration())
	t.Cleanup(func() { _ = s.Close() })

	fr := &stubRunner{}
	fa := &memArtifacts{objects: map[string][]byte{}}

	jobs := service.NewJobService(cfg, s, fr)
	analysis := service.NewAnalysisService(cfg, s, fr)
	results := service.NewResultService(jobs, fa)

	router := chi.NewRouter()
	NewServiceHandler(jobs, analysis, results).Routes(router)

	return &fixture{router: router, jobs: jobs, artifacts: fa}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const simulationDoc = `{"settings":{"nChains":3},"FP":{"FP Input":"42.5"},"Requirement Dev":{"Hazard Analysis":"Low"}}`

func submitSimulation(t *testing.T, f *fixture) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/simulations/bayesian", map[string]string{"data": simulationDoc})
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[submitSimulationResponse](t, rec)
	require.Equal(t, "Job accepted for processing.", resp.Message)
	require.NotEmpty(t, resp.JobId)
	return resp.JobId
}

func TestSubmitSimulationEndpoint(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	rec := f.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[jobResponse](t, rec)
	require.Equal(t, model.JobStatusPending, job.Status)
	require.Equal(t, model.JobTypeBayesianSimulation, job.JobType)
}

func TestSubmitSimulationUnknownKind(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/simulations/frequentist", map[string]string{"data": simulationDoc})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitSimulationInvalidForm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/simulations/bayesian",
		map[string]string{"data": `{"Requirement Dev":{"Hazard Analysis":"Extreme"}}`})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorListResponse](t, rec)
	require.Equal(t, "Invalid form data submitted.", resp.Message)
	require.Contains(t, resp.Errors[0], "Invalid value for 'Hazard Analysis'")
}

func TestSubmitSimulationBadJSONString(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/simulations/bayesian", map[string]string{"data": "not json"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorListResponse](t, rec)
	require.Equal(t, []string{"Request body must be a valid JSON object."}, resp.Errors)
}

func TestGetJobLegacyPath(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	rec := f.do(t, http.MethodGet, "/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetJobErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/jobs/5a1ef4c7-2f9c-4a91-8c11-3f6f17f4b100", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateJobStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	rec := f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusRunning})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.JobStatusRunning, decode[jobResponse](t, rec).Status)

	// redelivered callback re-asserts RUNNING
	rec = f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusRunning})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.JobStatusRunning, decode[jobResponse](t, rec).Status)

	// backward transition
	rec = f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusPending})
	require.Equal(t, http.StatusConflict, rec.Code)

	// unknown status
	rec = f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: "SLEEPING"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisEndpoints(t *testing.T) {
	f := newFixture(t)

	params := map[string]any{
		"pfd_goal":        0.001,
		"confidence_goal": 0.95,
		"demand":          1000,
		"failures":        2,
	}
	for _, endpoint := range []string{"/api/v1/sensitivity-analysis", "/api/v1/update-pfd", "/api/v1/full-analysis"} {
		rec := f.do(t, http.MethodPost, endpoint, params)
		require.Equal(t, http.StatusAccepted, rec.Code, endpoint)
		resp := decode[submitAnalysisResponse](t, rec)
		require.NotEmpty(t, resp.JobId)
		require.Equal(t, "container-1", resp.TaskId)
	}
}

func TestAnalysisValidationEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/update-pfd", map[string]any{
		"pfd_goal": 0.001,
		"demand":   10,
		"failures": 11,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorListResponse](t, rec)
	require.Contains(t, resp.Errors, "failures cannot exceed demand")

	rec = f.do(t, http.MethodPost, "/api/v1/sensitivity-analysis", map[string]any{
		"pfd_goal":        0.001,
		"confidence_goal": 1.5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decode[errorListResponse](t, rec)
	require.Contains(t, resp.Errors, "confidence_goal must be between 0 and 1")
}

func TestAnalysisEndpointsAcceptMinimalBodies(t *testing.T) {
	f := newFixture(t)

	// sensitivity analysis without demand or failures
	rec := f.do(t, http.MethodPost, "/api/v1/sensitivity-analysis", map[string]any{
		"pfd_goal":        0.0001,
		"confidence_goal": 0.95,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	// update-pfd without a confidence goal
	rec = f.do(t, http.MethodPost, "/api/v1/update-pfd", map[string]any{
		"pfd_goal": 0.0001,
		"demand":   1000,
		"failures": 2,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestGetResultPolling(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	// not ready yet
	rec := f.do(t, http.MethodGet, "/api/v1/results/"+jobID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decode[map[string]string](t, rec)["status"])

	// complete the job and upload the artifact
	rec = f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusCompleted})
	require.Equal(t, http.StatusOK, rec.Code)
	key := "results/bayesian-simulation-" + jobID + ".json"
	f.artifacts.objects[key] = []byte(`{"pfd": 0.0001}`)

	rec = f.do(t, http.MethodGet, "/api/v1/results/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[resultResponse](t, rec)
	require.Equal(t, "completed", result.Status)
	require.Contains(t, result.DownloadUrl, key)
	require.Empty(t, result.Data)
}

func TestGetResultInlineWithTypeOverride(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	rec := f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusCompleted})
	require.Equal(t, http.StatusOK, rec.Code)

	raw := `{"pfd": 1.0e-4}`
	f.artifacts.objects["results/update-pfd-"+jobID+".json"] = []byte(raw)

	rec = f.do(t, http.MethodGet, "/api/v1/results/"+jobID+"?type=update-pfd", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[resultResponse](t, rec)
	require.Empty(t, result.DownloadUrl)
	require.JSONEq(t, raw, string(result.Data))
}

func TestResultsURLEndpoint(t *testing.T) {
	f := newFixture(t)
	jobID := submitSimulation(t, f)

	// not completed yet
	rec := f.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/results-url", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/jobs/"+jobID+"/status", updateJobStatusRequest{Status: model.JobStatusCompleted})
	require.Equal(t, http.StatusOK, rec.Code)
	key := "results/bayesian-simulation-" + jobID + ".json"
	f.artifacts.objects[key] = []byte(`{}`)

	rec = f.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/results-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, decode[resultsURLResponse](t, rec).DownloadUrl, key)
}

func TestListResultsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.artifacts.objects["results/update-pfd-a.json"] = []byte(`{"pfd": 0.2}`)

	rec := f.do(t, http.MethodGet, "/api/v1/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]artifacts.Object](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/v1/results?key=results/update-pfd-a.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"pfd": 0.2}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/results?key=results/missing.json", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/results?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}
