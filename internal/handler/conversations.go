// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/internal/service"
	"github.com/eventcorner/assistant/pkg/logger"
)

// ConversationHandler handles the conversational endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// CreateEventConversation handles POST /create-event-conversation
func (h *ConversationHandler) CreateEventConversation(w http.ResponseWriter, r *http.Request) {
	var req model.EventConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	decision, err := h.service.HandleTurn(r.Context(), req.ConversationHistory, req.Message)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.EventConversationResponse{
		Success: true,
		Result:  decision,
	})
}

// Chat handles POST /chat
func (h *ConversationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var chatContext string
	if req.Context != nil {
		chatContext = *req.Context
	}

	reply, err := h.service.Chat(r.Context(), req.Message, chatContext)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ChatResponse{
		Success:  true,
		Response: reply,
	})
}
