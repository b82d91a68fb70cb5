package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/bbnlabs/reliability-planner/internal/service"
)

type resultResponse struct {
	JobId       string          `json:"jobId"`
	Status      string          `json:"status"`
	ResultType  string          `json:"resultType"`
	DownloadUrl string          `json:"downloadUrl,omitempty"`
	Location    string          `json:"location,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// GetResult serves the polling contract: a missing result is a 404 with
// status "not_found", which clients treat as "keep waiting".
func (h *ServiceHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.results.GetResult(r.Context(), id, r.URL.Query().Get("type"))
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}

	resp := resultResponse{
		JobId:      result.JobID.String(),
		Status:     "completed",
		ResultType: result.JobType,
	}
	if result.Shape == service.ShapeByLocation {
		resp.DownloadUrl = result.Location
	} else {
		resp.Location = result.Location
		resp.Data = result.Data
	}
	render.JSON(w, r, resp)
}

type resultsURLResponse struct {
	DownloadUrl string `json:"downloadUrl"`
}

func (h *ServiceHandler) ResultsURL(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	url, err := h.results.DownloadURL(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, resultsURLResponse{DownloadUrl: url})
}

// ListResults lists stored result artifacts, or fetches a single one by key
// when ?key= is given.
func (h *ServiceHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		data, err := h.results.GetArtifactByKey(r.Context(), key)
		if err != nil {
			renderServiceError(w, r, err, "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			renderMessage(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	objects, err := h.results.ListArtifacts(r.Context(), limit)
	if err != nil {
		renderServiceError(w, r, err, "")
		return
	}
	render.JSON(w, r, objects)
}
