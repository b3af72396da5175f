package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/eventcorner/assistant/internal/service"
	"github.com/eventcorner/assistant/pkg/logger"
)

// multipartOverhead allows for form boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// AnalyzeHandler handles banner uploads.
type AnalyzeHandler struct {
	banner   *service.BannerService
	maxBytes int64
	logger   *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler accepting files up to
// maxBytes.
func NewAnalyzeHandler(banner *service.BannerService, maxBytes int64, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		banner:   banner,
		maxBytes: maxBytes,
		logger:   log,
	}
}

// Analyze handles POST /analyze with a multipart "file" field.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	result, err := h.banner.Extract(r.Context(), service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}
