package v1

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/go-chi/render"

	"github.com/bbnlabs/reliability-planner/internal/service"
)

type submitAnalysisResponse struct {
	JobId   string `json:"job_id"`
	Message string `json:"message"`
	TaskId  string `json:"task_id,omitempty"`
}

// SubmitAnalysis serves the three analysis endpoints; the job type is the
// final path segment.
func (h *ServiceHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	jobType := path.Base(r.URL.Path)

	var params service.AnalysisParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorListResponse{
			Message: "Invalid analysis request.",
			Errors:  []string{"Request body must be a valid JSON object."},
		})
		return
	}

	job, err := h.analysis.SubmitAnalysis(r.Context(), jobType, params)
	if err != nil {
		renderServiceError(w, r, err, "Internal server error: Could not start the analysis job.")
		return
	}

	resp := submitAnalysisResponse{
		JobId:   job.ID.String(),
		Message: "Job accepted for processing.",
	}
	if job.TaskID != nil {
		resp.TaskId = *job.TaskID
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, resp)
}
