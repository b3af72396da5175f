package client

import (
	"context"

	"github.com/eventcorner/assistant/internal/model"
)

// Conversation keeps the history of one event conversation on the client
// side, since the server keeps none.
type Conversation struct {
	client  *Client
	history []model.ConversationTurn
}

// NewConversation starts an empty conversation.
func (c *Client) NewConversation() *Conversation {
	return &Conversation{client: c}
}

// Send posts message with the history so far. On success the user turn and
// an assistant turn (the question, or the completion message) are appended.
// A failed call leaves the history unchanged.
func (conv *Conversation) Send(ctx context.Context, message string) (model.Decision, error) {
	decision, err := conv.client.Converse(ctx, conv.history, message)
	if err != nil {
		return nil, err
	}

	reply := ""
	switch d := decision.(type) {
	case *model.Clarification:
		reply = d.Question
	case *model.Completion:
		reply = d.Message
	}
	conv.history = append(conv.history,
		model.ConversationTurn{Role: model.RoleUser, Content: message},
		model.ConversationTurn{Role: model.RoleAssistant, Content: reply},
	)
	return decision, nil
}

// History returns a copy of the turns exchanged so far.
func (conv *Conversation) History() []model.ConversationTurn {
	return append([]model.ConversationTurn(nil), conv.history...)
}
