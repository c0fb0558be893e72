package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *logging.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("handler: failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log *logging.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, log, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, log, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, errBadRequest):
		writeJSON(w, log, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		log.Error("handler: request failed", "error", err)
		writeJSON(w, log, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
