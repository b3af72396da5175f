package model

import "encoding/json"

// EventConversationRequest is the body of POST /create-event-conversation.
type EventConversationRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
}

// EventConversationResponse wraps the decision for one turn.
type EventConversationResponse struct {
	Success bool     `json:"success"`
	Result  Decision `json:"result"`
}

// rawEventConversationResponse is the client-side view of
// EventConversationResponse before the decision is decoded.
type rawEventConversationResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// UnmarshalJSON decodes the result into the matching Decision variant.
func (r *EventConversationResponse) UnmarshalJSON(data []byte) error {
	var raw rawEventConversationResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Success = raw.Success
	r.Result = nil
	if len(raw.Result) == 0 || string(raw.Result) == "null" {
		return nil
	}
	decision, err := DecodeDecision(raw.Result)
	if err != nil {
		return err
	}
	r.Result = decision
	return nil
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string  `json:"message"`
	Context *string `json:"context"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// StatusResponse is the reply of GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthResponse is the reply of GET /health.
type HealthResponse struct {
	Status         string  `json:"status"`
	AnalyzerLoaded bool    `json:"analyzer_loaded"`
	OCRBackend     *string `json:"ocr_backend"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// DraftListResponse is the reply of GET /drafts.
type DraftListResponse struct {
	Drafts       []EventDraft `json:"drafts"`
	LastSequence uint64       `json:"last_sequence"`
	HasMore      bool         `json:"has_more"`
}
