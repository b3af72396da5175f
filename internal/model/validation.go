package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageBytes bounds a single message or history turn.
const MaxMessageBytes = 100000

// ErrMessageRequired is returned for empty or whitespace-only messages.
var ErrMessageRequired = errors.New("Message is required")

// ValidateMessageContent validates the text of a user message.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrMessageRequired
	}
	if len(content) > MaxMessageBytes {
		return errors.New("Message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("Message must be valid UTF-8")
	}
	return nil
}

// ValidateHistory checks every turn of a conversation history. Turns with an
// empty role are treated as user turns; the returned slice carries the
// normalized roles and leaves the input untouched.
func ValidateHistory(history []ConversationTurn) ([]ConversationTurn, error) {
	if len(history) == 0 {
		return nil, nil
	}
	out := make([]ConversationTurn, len(history))
	for i, turn := range history {
		if turn.Role == "" {
			turn.Role = RoleUser
		}
		if !turn.Role.Valid() {
			return nil, fmt.Errorf("conversation_history[%d]: role must be one of system, user, assistant", i)
		}
		if len(turn.Content) > MaxMessageBytes {
			return nil, fmt.Errorf("conversation_history[%d]: content exceeds maximum length", i)
		}
		if !utf8.ValidString(turn.Content) {
			return nil, fmt.Errorf("conversation_history[%d]: content must be valid UTF-8", i)
		}
		out[i] = turn
	}
	return out, nil
}
