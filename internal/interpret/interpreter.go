// Package interpret turns raw completion engine output into a validated
// conversation decision.
package interpret

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/pkg/logger"
	"github.com/eventcorner/assistant/pkg/metrics"
)

const (
	outcomeParsed   = "parsed"
	outcomeFallback = "fallback"
	outcomeDemoted  = "demoted"

	// maxLoggedOutput bounds how much raw output lands in a log line.
	maxLoggedOutput = 2000
)

// GenericFollowUp replaces an empty clarification question.
const GenericFollowUp = "Could you tell me a bit more about your event?"

var enumQuestions = map[string]string{
	model.FieldCategory: "Which category fits your event best? Please pick one of: " +
		model.CategoryList() + ".",
	model.FieldVenueType: "Will the event be held in person, online, or both? Please pick one of: " +
		model.VenueTypeList() + ".",
}

// Interpreter parses engine output. It holds no per-call state and is safe
// for concurrent use.
type Interpreter struct {
	logger *logger.Logger
}

// New creates an interpreter.
func New(log *logger.Logger) *Interpreter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Interpreter{logger: log}
}

// Interpret never fails: output that cannot be parsed as a decision yields
// model.FallbackClarification. Confidence is passed through verbatim.
func (in *Interpreter) Interpret(raw string) model.Decision {
	text := stripCodeFence(strings.TrimSpace(raw))

	decision, err := model.DecodeDecision([]byte(text))
	if err != nil {
		in.logger.Warn("engine output is not a valid decision, using fallback",
			zap.Error(err),
			zap.String("raw", truncate(raw, maxLoggedOutput)),
		)
		metrics.InterpretOutcomes.WithLabelValues(outcomeFallback).Inc()
		return model.FallbackClarification()
	}

	switch d := decision.(type) {
	case *model.Clarification:
		in.checkClarification(d)
		metrics.InterpretOutcomes.WithLabelValues(outcomeParsed).Inc()
		return d
	case *model.Completion:
		if demoted := in.checkCompletion(d); demoted != nil {
			metrics.InterpretOutcomes.WithLabelValues(outcomeDemoted).Inc()
			return demoted
		}
		metrics.InterpretOutcomes.WithLabelValues(outcomeParsed).Inc()
		return d
	}

	// DecodeDecision only yields the two variants above.
	metrics.InterpretOutcomes.WithLabelValues(outcomeFallback).Inc()
	return model.FallbackClarification()
}

func (in *Interpreter) checkClarification(c *model.Clarification) {
	invalid, warnings := sanitizeEnums(&c.ExtractedSoFar)
	c.Warnings = append(c.Warnings, warnings...)
	c.MissingFields = appendMissing(c.MissingFields, invalid...)

	if strings.TrimSpace(c.Question) == "" {
		c.Question = GenericFollowUp
		c.Warnings = append(c.Warnings, "engine returned no question")
	}
	if c.MissingFields == nil {
		c.MissingFields = []string{}
	}
	in.logWarnings("clarification", c.Warnings)
}

// checkCompletion validates a completion in place. When an enum value falls
// outside its domain the completion is demoted to a clarification asking for
// that field, and the demoted decision is returned.
func (in *Interpreter) checkCompletion(c *model.Completion) *model.Clarification {
	invalid, warnings := sanitizeEnums(&c.EventData)
	c.Warnings = append(c.Warnings, warnings...)

	if len(invalid) > 0 {
		demoted := &model.Clarification{
			Question:       enumQuestions[invalid[0]],
			ExtractedSoFar: c.EventData,
			MissingFields:  appendMissing(invalid, c.EventData.MissingRequired()...),
			Confidence:     c.Confidence,
			Warnings:       c.Warnings,
		}
		in.logWarnings("completion demoted", demoted.Warnings)
		return demoted
	}

	for _, field := range c.EventData.MissingRequired() {
		c.Warnings = append(c.Warnings, fmt.Sprintf("required field %s is missing", field))
	}
	for i, slot := range c.EventData.Timeslots {
		for _, ts := range []struct{ name, value string }{{"start", slot.Start}, {"end", slot.End}} {
			if ts.value == "" {
				continue
			}
			if _, err := model.ParseTimestamp(ts.value); err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("timeslots[%d].%s %q is not an ISO 8601 timestamp with offset", i, ts.name, ts.value))
			}
		}
	}
	if c.Message == "" {
		c.Message = model.DefaultCompletionMessage
	}
	if extra := c.EventData.ExtraKeys(); len(extra) > 0 {
		in.logger.Debug("event data carries extra keys", zap.Strings("keys", extra))
	}
	in.logWarnings("completion", c.Warnings)
	return nil
}

func (in *Interpreter) logWarnings(kind string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	in.logger.Warn("engine output needed correction",
		zap.String("decision", kind),
		zap.Strings("warnings", warnings),
	)
}

// sanitizeEnums normalizes or clears enum fields of e. It returns the fields
// whose values were outside their domain, and a warning per change.
func sanitizeEnums(e *model.EventRecord) (invalid []string, warnings []string) {
	if e.Category != "" {
		c, normalized, ok := model.ParseCategory(string(e.Category))
		switch {
		case !ok:
			warnings = append(warnings, fmt.Sprintf("category %q is not one of: %s", e.Category, model.CategoryList()))
			invalid = append(invalid, model.FieldCategory)
			e.Category = ""
		case normalized:
			warnings = append(warnings, fmt.Sprintf("category %q normalized to %q", e.Category, c))
			e.Category = c
		}
	}
	if e.VenueType != "" {
		v, normalized, ok := model.ParseVenueType(string(e.VenueType))
		switch {
		case !ok:
			warnings = append(warnings, fmt.Sprintf("venue_type %q is not one of: %s", e.VenueType, model.VenueTypeList()))
			invalid = append(invalid, model.FieldVenueType)
			e.VenueType = ""
		case normalized:
			warnings = append(warnings, fmt.Sprintf("venue_type %q normalized to %q", e.VenueType, v))
			e.VenueType = v
		}
	}
	return invalid, warnings
}

// appendMissing appends fields not already present in missing.
func appendMissing(missing []string, fields ...string) []string {
	for _, f := range fields {
		found := false
		for _, m := range missing {
			if m == f {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f)
		}
	}
	return missing
}

// stripCodeFence removes one surrounding ``` fence (with optional language
// tag) that some engines add despite JSON mode.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := s[3 : len(s)-3]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		first := strings.TrimSpace(body[:nl])
		if first == "" || !strings.ContainsAny(first, "{[") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
