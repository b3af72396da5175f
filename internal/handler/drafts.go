package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/eventcorner/assistant/internal/model"
	natsclient "github.com/eventcorner/assistant/internal/nats"
	"github.com/eventcorner/assistant/pkg/logger"
)

// DraftHandler lists event drafts published to the draft stream.
type DraftHandler struct {
	streams *natsclient.StreamManager
	logger  *logger.Logger
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(streams *natsclient.StreamManager, log *logger.Logger) *DraftHandler {
	return &DraftHandler{
		streams: streams,
		logger:  log,
	}
}

// List handles GET /drafts
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	var category model.Category
	if c := r.URL.Query().Get("category"); c != "" {
		parsed, _, ok := model.ParseCategory(c)
		if !ok {
			writeError(w, http.StatusBadRequest, "category must be one of: "+model.CategoryList())
			return
		}
		category = parsed
	}

	afterSequence := uint64(0)
	limit := 20

	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		if parsed, err := strconv.ParseUint(seq, 10, 64); err == nil {
			afterSequence = parsed
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	drafts, lastSeq, hasMore, err := h.streams.RecentDrafts(r.Context(), category, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to list drafts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list drafts")
		return
	}
	if drafts == nil {
		drafts = []model.EventDraft{}
	}

	writeJSON(w, http.StatusOK, &model.DraftListResponse{
		Drafts:       drafts,
		LastSequence: lastSeq,
		HasMore:      hasMore,
	})
}
