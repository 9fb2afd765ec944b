package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/pipeline"
)

// submitResponse is the shape of spec.md §6's submit response:
// "{ id: str, status: str }".
type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// submitHandler implements POST /search.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	runID, err := s.runtime.Submit(r.Context(), req)
	if err != nil {
		var configErr *pipeline.ConfigError
		if errors.As(err, &configErr) {
			writeJSONError(w, http.StatusBadRequest, configErr.Error())
			return
		}
		s.logger.Error().Err(err).Msg("failed to submit run")
		writeJSONError(w, http.StatusInternalServerError, "failed to submit run")
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{ID: runID, Status: string(models.RunPending)})
}

// statusHandler implements GET /search/{run_id}/status (spec.md §6).
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	runID := runIDFromStatusPath(r.URL.Path)
	if runID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing run id")
		return
	}

	view, err := s.runtime.Status(r.Context(), runID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runIDFromStatusPath extracts {run_id} from "/search/{run_id}/status".
func runIDFromStatusPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/search/")
	trimmed = strings.TrimSuffix(trimmed, "/status")
	if trimmed == path || trimmed == "" {
		return ""
	}
	return trimmed
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
