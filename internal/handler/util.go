package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/internal/service"
	"github.com/eventcorner/assistant/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, &model.ErrorResponse{Detail: detail})
}

// writeServiceError maps a service failure to its status. Errors that are
// not service errors are reported as a generic 500.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		writeError(w, se.Kind.Status(), se.Detail)
		return
	}
	log.Error("unexpected service error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
