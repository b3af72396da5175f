// Package prompt builds the message sequences sent to the completion engine.
package prompt

import (
	"fmt"
	"strings"

	"github.com/eventcorner/assistant/internal/llm"
	"github.com/eventcorner/assistant/internal/model"
)

// ChatSystemPrompt is the persona for the free chat flow.
const ChatSystemPrompt = "You are a helpful AI assistant for Event Corner, an event management platform. " +
	"Help users with finding events, understanding event details, creating events, and using the platform. " +
	"Be friendly, concise, and helpful."

// EventSystemPrompt instructs the engine on the slot-filling contract. It is
// rendered once from the schema.
var EventSystemPrompt = renderEventSystemPrompt()

func renderEventSystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expert event planning assistant for Event Corner platform.\n")
	b.WriteString("Your job is to help users create events by extracting event details from their descriptions.\n\n")

	b.WriteString("Required fields:\n")
	b.WriteString("- title (string): Event name\n")
	b.WriteString("- description (text): Detailed description\n")
	fmt.Fprintf(&b, "- category (string): MUST be ONE of these exact values: %s\n", model.CategoryList())
	fmt.Fprintf(&b, "- venue_type (string): MUST be ONE of: %s\n", model.VenueTypeList())
	b.WriteString("- venue_name (string): Venue or platform name (e.g., \"IUT Auditorium\", \"Zoom\", \"Hybrid: Main Hall + YouTube Live\")\n")
	fmt.Fprintf(&b, "- timeslots (array): [{title, start, end}] - Use ISO 8601 format (YYYY-MM-DDTHH:MM:SS%s) for Asia/Dhaka timezone\n\n", model.EventTimezone)

	b.WriteString("Optional fields:\n")
	b.WriteString("- tags (array of strings): Relevant keywords\n")
	b.WriteString("- contact_email, contact_phone: Contact information\n")
	b.WriteString("- requirements (text): Prerequisites or requirements to participate\n")
	b.WriteString("- venue_address (for physical/hybrid events): Full address\n")
	b.WriteString("- venue_city, venue_state, venue_country: Location details\n\n")

	b.WriteString("Guidelines:\n")
	b.WriteString("1. Extract ALL available information from the user's message\n")
	b.WriteString("2. If CRITICAL information is missing (title, date/time, or venue_type), ask ONE specific question\n")
	b.WriteString("3. Make reasonable assumptions for optional fields based on context\n")
	b.WriteString("4. Infer category from event description (e.g., \"coding competition\" -> competition, \"tech talk\" -> seminar)\n")
	fmt.Fprintf(&b, "5. For dates: Use ISO 8601 format with %s timezone (Asia/Dhaka)\n", model.EventTimezone)
	b.WriteString("6. Be friendly and concise\n\n")

	b.WriteString("RESPONSE FORMAT - You MUST respond with valid JSON only, no other text:\n\n")
	b.WriteString("When asking for clarification:\n")
	b.WriteString(model.ClarificationTemplate)
	b.WriteString("\n\nWhen data is complete:\n")
	b.WriteString(model.CompletionTemplate)
	b.WriteString("\n\nRemember: Respond ONLY with valid JSON, no markdown, no explanation text outside the JSON.")

	return b.String()
}

// Compose returns the engine input for one event conversation turn: the
// system prompt, every prior turn in order with its role, then message.
func Compose(history []model.ConversationTurn, message string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleSystem), Content: EventSystemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.ChatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleUser), Content: message})
	return messages
}

// ComposeChat returns the engine input for the free chat flow. A non-empty
// context is injected as a second system message.
func ComposeChat(message, context string) []llm.ChatMessage {
	messages := []llm.ChatMessage{{Role: string(model.RoleSystem), Content: ChatSystemPrompt}}
	if context != "" {
		messages = append(messages, llm.ChatMessage{Role: string(model.RoleSystem), Content: "Context: " + context})
	}
	return append(messages, llm.ChatMessage{Role: string(model.RoleUser), Content: message})
}
