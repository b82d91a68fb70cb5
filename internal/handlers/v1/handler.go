// Package v1 exposes the job submission and polling REST API.
package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/bbnlabs/reliability-planner/internal/service"
)

type ServiceHandler struct {
	jobs     *service.JobService
	analysis *service.AnalysisService
	results  *service.ResultService
}

func NewServiceHandler(jobs *service.JobService, analysis *service.AnalysisService, results *service.ResultService) *ServiceHandler {
	return &ServiceHandler{
		jobs:     jobs,
		analysis: analysis,
		results:  results,
	}
}

// Routes mounts every endpoint on the given router. The bare /jobs/{jobId}
// path is kept next to the /api/v1 one for clients that predate the prefix.
func (h *ServiceHandler) Routes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/jobs/{jobId}", h.GetJob)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/simulations/{kind}", h.SubmitSimulation)

		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{jobId}", h.GetJob)
		r.Put("/jobs/{jobId}/status", h.UpdateJobStatus)
		r.Post("/jobs/{jobId}/results-url", h.ResultsURL)

		r.Post("/sensitivity-analysis", h.SubmitAnalysis)
		r.Post("/update-pfd", h.SubmitAnalysis)
		r.Post("/full-analysis", h.SubmitAnalysis)

		r.Get("/results", h.ListResults)
		r.Get("/results/{jobId}", h.GetResult)
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorListResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func renderMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, messageResponse{Message: message})
}

// renderServiceError maps the service error taxonomy shared by every
// endpoint. taskStartMessage differs per submission endpoint.
func renderServiceError(w http.ResponseWriter, r *http.Request, err error, taskStartMessage string) {
	var (
		notConfigured  *service.ErrNotConfigured
		invalidForm    *service.ErrInvalidForm
		invalidRequest *service.ErrInvalidAnalysisRequest
		taskStart      *service.ErrTaskStart
		notFound       *service.ErrResourceNotFound
		notReady       *service.ErrResultNotReady
		missing        *service.ErrArtifactMissing
		notCompleted   *service.ErrJobNotCompleted
		invalidStatus  *service.ErrInvalidStatus
		invalidMove    *service.ErrInvalidTransition
	)

	switch {
	case errors.As(err, &invalidForm):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorListResponse{Message: "Invalid form data submitted.", Errors: invalidForm.Errors})
	case errors.As(err, &invalidRequest):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorListResponse{Message: "Invalid analysis request.", Errors: invalidRequest.Errors})
	case errors.As(err, &notConfigured):
		renderMessage(w, r, http.StatusInternalServerError, "Internal server error: Service is not configured correctly.")
	case errors.As(err, &taskStart):
		renderMessage(w, r, http.StatusInternalServerError, taskStartMessage)
	case errors.As(err, &notFound):
		renderMessage(w, r, http.StatusNotFound, notFound.Error())
	case errors.As(err, &notReady):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "not_found"})
	case errors.As(err, &missing):
		renderMessage(w, r, http.StatusInternalServerError, "Internal server error: Result artifact is missing.")
	case errors.As(err, &notCompleted):
		renderMessage(w, r, http.StatusConflict, notCompleted.Error())
	case errors.As(err, &invalidStatus):
		renderMessage(w, r, http.StatusBadRequest, invalidStatus.Error())
	case errors.As(err, &invalidMove):
		renderMessage(w, r, http.StatusConflict, invalidMove.Error())
	default:
		renderMessage(w, r, http.StatusInternalServerError, "Internal server error.")
	}
}
