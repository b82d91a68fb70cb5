package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/bbnlabs/reliability-planner/internal/store/model"
)

type jobResponse struct {
	JobId     string    `json:"jobId"`
	JobType   string    `json:"jobType"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newJobResponse(job *model.Job) jobResponse {
	return jobResponse{
		JobId:     job.ID.String(),
		JobType:   job.JobType,
		Status:    job.Status,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt,
	}
}

func jobIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobId"))
	if err != nil {
		renderMessage(w, r, http.StatusBadRequest, "jobId must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, newJobResponse(job))
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, newJobResponse(&jobs[i]))
	}
	render.JSON(w, r, out)
}

type updateJobStatusRequest struct {
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// UpdateJobStatus is the callback compute tasks use to report progress.
func (h *ServiceHandler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	var req updateJobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderMessage(w, r, http.StatusBadRequest, "Request body must be a valid JSON object.")
		return
	}

	job, err := h.jobs.UpdateJobStatus(r.Context(), id, req.Status, req.ErrorMessage)
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, newJobResponse(job))
}
