package handler

import (
	"net/http"

	"github.com/eventcorner/assistant/internal/model"
	natsclient "github.com/eventcorner/assistant/internal/nats"
	"github.com/eventcorner/assistant/internal/service"
)

// HealthHandler handles status and health check endpoints.
type HealthHandler struct {
	serviceName string
	banner      *service.BannerService
	natsClient  *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient is nil when NATS
// is not configured.
func NewHealthHandler(serviceName string, banner *service.BannerService, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		banner:      banner,
		natsClient:  natsClient,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.StatusResponse{
		Status:  "running",
		Service: h.serviceName,
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := &model.HealthResponse{
		Status:         "healthy",
		AnalyzerLoaded: h.banner.AnalyzerLoaded(),
	}
	if backend := h.banner.OCRBackend(); backend != "" {
		resp.OCRBackend = &backend
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
