package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// simulationKinds maps the URL path segment to the stored job type.
var simulationKinds = map[string]string{
	"bayesian": "bayesian-simulation",
}

type submitSimulationRequest struct {
	// Data carries the form document as a JSON string, the way browser
	// clients serialize it.
	Data string `json:"data"`
	// TraceId is accepted for compatibility and ignored.
	TraceId string `json:"trace_id,omitempty"`
}

type submitSimulationResponse struct {
	JobId   string `json:"jobId"`
	Message string `json:"message"`
}

func (h *ServiceHandler) SubmitSimulation(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, ok := simulationKinds[kind]; !ok {
		renderMessage(w, r, http.StatusNotFound, "Unknown simulation kind: "+kind)
		return
	}

	var req submitSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorListResponse{
			Message: "Invalid form data submitted.",
			Errors:  []string{"Request body must be a valid JSON object."},
		})
		return
	}

	job, err := h.jobs.SubmitSimulation(r.Context(), []byte(req.Data))
	if err != nil {
		renderServiceError(w, r, err, "Internal server error: Could not start the simulation job.")
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, submitSimulationResponse{
		JobId:   job.ID.String(),
		Message: "Job accepted for processing.",
	})
}
