package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FallbackQuestion is asked when the engine output could not be understood.
const FallbackQuestion = "I'm having trouble understanding. Could you describe your event with more details?"

// DefaultCompletionMessage accompanies a completion that carried no message.
const DefaultCompletionMessage = "Great! I've extracted all the details for your event. Please review and edit if needed."

// Decision is the outcome of one conversational turn: either a
// *Clarification or a *Completion.
type Decision interface {
	// NeedsClarification reports whether the client must answer a question.
	NeedsClarification() bool
	// DecisionConfidence is the engine's confidence, passed through verbatim.
	DecisionConfidence() float64
}

// Clarification asks exactly one follow-up question.
type Clarification struct {
	Question       string      `json:"question"`
	ExtractedSoFar EventRecord `json:"extracted_so_far"`
	MissingFields  []string    `json:"missing_fields"`
	Confidence     float64     `json:"confidence"`
	Warnings       []string    `json:"warnings,omitempty"`
}

// NeedsClarification implements Decision.
func (c *Clarification) NeedsClarification() bool { return true }

// DecisionConfidence implements Decision.
func (c *Clarification) DecisionConfidence() float64 { return c.Confidence }

// MarshalJSON adds the needs_clarification discriminator.
func (c Clarification) MarshalJSON() ([]byte, error) {
	type alias Clarification
	a := alias(c)
	if a.MissingFields == nil {
		a.MissingFields = []string{}
	}
	return json.Marshal(struct {
		NeedsClarification bool `json:"needs_clarification"`
		alias
	}{true, a})
}

// Completion carries a record with every required field known.
type Completion struct {
	EventData  EventRecord `json:"event_data"`
	Confidence float64     `json:"confidence"`
	Message    string      `json:"message"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// NeedsClarification implements Decision.
func (c *Completion) NeedsClarification() bool { return false }

// DecisionConfidence implements Decision.
func (c *Completion) DecisionConfidence() float64 { return c.Confidence }

// MarshalJSON adds the needs_clarification discriminator.
func (c Completion) MarshalJSON() ([]byte, error) {
	type alias Completion
	return json.Marshal(struct {
		NeedsClarification bool `json:"needs_clarification"`
		alias
	}{false, alias(c)})
}

// FallbackClarification is the deterministic decision returned when engine
// output cannot be parsed. Each call returns a fresh value.
func FallbackClarification() *Clarification {
	missing := make([]string, len(FallbackMissingFields))
	copy(missing, FallbackMissingFields)
	return &Clarification{
		Question:      FallbackQuestion,
		MissingFields: missing,
		Confidence:    0.0,
	}
}

// DecisionKind names a decision for logs and metrics.
func DecisionKind(d Decision) string {
	if d.NeedsClarification() {
		return "clarification"
	}
	return "completion"
}

// ErrNotObject is returned by DecodeDecision for JSON that is not an object.
var ErrNotObject = errors.New("decision is not a JSON object")

// wireDecision is the union of both decision shapes.
type wireDecision struct {
	NeedsClarification *bool        `json:"needs_clarification"`
	Question           string       `json:"question"`
	ExtractedSoFar     EventRecord  `json:"extracted_so_far"`
	MissingFields      looseStrings `json:"missing_fields"`
	EventData          EventRecord  `json:"event_data"`
	Confidence         looseNumber  `json:"confidence"`
	Message            string       `json:"message"`
	Warnings           []string     `json:"warnings"`
}

// looseNumber accepts a JSON number or a string holding one.
type looseNumber struct {
	value   float64
	coerced bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &n.value); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("confidence %q is not a number", s)
	}
	n.value, n.coerced = v, true
	return nil
}

// looseStrings accepts a JSON array of strings or a single comma separated
// string.
type looseStrings struct {
	values  []string
	coerced bool
}

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &l.values); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("missing_fields: %w", err)
	}
	l.values = []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			l.values = append(l.values, part)
		}
	}
	l.coerced = true
	return nil
}

// DecodeDecision decodes the wire shape of a decision. An absent or false
// needs_clarification yields a *Completion. Every field is decoded strictly
// except confidence and missing_fields, which also accept strings; each such
// coercion adds a warning.
func DecodeDecision(data []byte) (Decision, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	if _, ok := top.(map[string]any); !ok {
		return nil, ErrNotObject
	}

	var w wireDecision
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	warnings := w.Warnings
	if w.Confidence.coerced {
		warnings = append(warnings, "confidence was a string, not a number")
	}

	if w.NeedsClarification != nil && *w.NeedsClarification {
		if w.MissingFields.coerced {
			warnings = append(warnings, "missing_fields was a string, not a list")
		}
		return &Clarification{
			Question:       w.Question,
			ExtractedSoFar: w.ExtractedSoFar,
			MissingFields:  w.MissingFields.values,
			Confidence:     w.Confidence.value,
			Warnings:       warnings,
		}, nil
	}
	return &Completion{
		EventData:  w.EventData,
		Confidence: w.Confidence.value,
		Message:    w.Message,
		Warnings:   warnings,
	}, nil
}
