package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("React workshop next Friday"))
	assert.ErrorIs(t, ValidateMessageContent(""), ErrMessageRequired)
	assert.ErrorIs(t, ValidateMessageContent(" \n\t"), ErrMessageRequired)
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", MaxMessageBytes+1)))
	assert.Error(t, ValidateMessageContent("bad \xff byte"))
}

func TestValidateHistory(t *testing.T) {
	in := []ConversationTurn{
		{Role: "", Content: "hi"},
		{Role: RoleAssistant, Content: "When is it?"},
		{Role: RoleSystem, Content: "note"},
	}
	got, err := ValidateHistory(in)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, Role(""), in[0].Role)
	assert.Equal(t, RoleAssistant, got[1].Role)

	got, err = ValidateHistory(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ValidateHistory([]ConversationTurn{{Role: "tool", Content: "x"}})
	assert.ErrorContains(t, err, "conversation_history[0]")
}
