// Package client is the Go client of the reliability-planner API, including
// the polling loop a caller drives from submission to result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotReady means the result has not landed yet; callers keep polling.
	ErrNotReady = errors.New("result not ready")
)

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Code, e.Message)
}

// Permanent reports whether retrying the same request cannot help.
func (e *StatusError) Permanent() bool {
	switch {
	case e.Code == http.StatusUnauthorized, e.Code == http.StatusForbidden:
		return true
	case e.Code >= http.StatusInternalServerError:
		return true
	}
	return false
}

const apiKeyHeader = "x-api-key"

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SimulationAccepted is the 202 payload of a simulation submission.
type SimulationAccepted struct {
	JobId   string `json:"jobId"`
	Message string `json:"message"`
}

// AnalysisAccepted is the 202 payload of an analysis submission.
type AnalysisAccepted struct {
	JobId   string `json:"job_id"`
	Message string `json:"message"`
	TaskId  string `json:"task_id,omitempty"`
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	JobId     string    `json:"jobId"`
	JobType   string    `json:"jobType"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Result is a completed job's result. Data stays raw so the artifact text
// reaches the caller byte for byte.
type Result struct {
	JobId       string          `json:"jobId"`
	Status      string          `json:"status"`
	ResultType  string          `json:"resultType"`
	DownloadUrl string          `json:"downloadUrl,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// AnalysisRequest is the input of the three analysis endpoints.
type AnalysisRequest struct {
	PfdGoal        float64           `json:"pfd_goal"`
	ConfidenceGoal float64           `json:"confidence_goal"`
	Demand         int               `json:"demand"`
	Failures       int               `json:"failures"`
	TestMode       bool              `json:"test_mode,omitempty"`
	BBNInput       map[string]string `json:"bbn_input,omitempty"`
}

// StartSimulation submits a simulation form document.
func (c *Client) StartSimulation(ctx context.Context, doc []byte) (*SimulationAccepted, error) {
	body := map[string]string{"data": string(doc)}
	var accepted SimulationAccepted
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/simulations/bayesian", body, http.StatusAccepted, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// SubmitAnalysis submits an analysis request of the given kind
// (sensitivity-analysis, update-pfd or full-analysis).
func (c *Client) SubmitAnalysis(ctx context.Context, kind string, req AnalysisRequest) (*AnalysisAccepted, error) {
	var accepted AnalysisAccepted
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/"+kind, req, http.StatusAccepted, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// GetJobStatus fetches the current status of a job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetResult fetches the result of a job. A 404 maps to ErrNotReady.
func (c *Client) GetResult(ctx context.Context, jobID string) (*Result, error) {
	var result Result
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/results/"+jobID, nil, http.StatusOK, &result)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, ErrNotReady
		}
		return nil, err
	}
	return &result, nil
}

// Download fetches the artifact behind a presigned download URL and returns
// its body verbatim. The URL carries its own credentials, so no API key is
// attached.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: apiMessage(data)}
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != wantStatus {
		return &StatusError{Code: resp.StatusCode, Message: apiMessage(data)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// apiMessage extracts the "message" field of an error payload, falling back
// to the raw body.
func apiMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(data)
}
