// Package model defines the event schema and the data structures exchanged
// by the assistant service.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Field names as they appear on the wire.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldCategory     = "category"
	FieldVenueType    = "venue_type"
	FieldVenueName    = "venue_name"
	FieldTimeslots    = "timeslots"
	FieldTags         = "tags"
	FieldContactEmail = "contact_email"
	FieldContactPhone = "contact_phone"
	FieldRequirements = "requirements"
	FieldVenueAddress = "venue_address"
	FieldVenueCity    = "venue_city"
	FieldVenueState   = "venue_state"
	FieldVenueCountry = "venue_country"
)

// RequiredFields must all be known before an event is complete.
var RequiredFields = []string{
	FieldTitle,
	FieldDescription,
	FieldCategory,
	FieldVenueType,
	FieldVenueName,
	FieldTimeslots,
}

// OptionalFields may be inferred or left empty.
var OptionalFields = []string{
	FieldTags,
	FieldContactEmail,
	FieldContactPhone,
	FieldRequirements,
	FieldVenueAddress,
	FieldVenueCity,
	FieldVenueState,
	FieldVenueCountry,
}

// FallbackMissingFields are reported when nothing could be understood.
var FallbackMissingFields = []string{
	FieldTitle,
	FieldCategory,
	FieldVenueType,
	FieldTimeslots,
}

// EventTimezone is the fixed offset every timestamp is expressed in
// (Asia/Dhaka).
const EventTimezone = "+06:00"

// ParseCategory validates a raw category value. Values that only differ by
// case or surrounding space are accepted with normalized=true.
func ParseCategory(raw string) (c Category, normalized bool, ok bool) {
	c = Category(raw)
	if c.Valid() {
		return c, false, true
	}
	c = Category(strings.ToLower(strings.TrimSpace(raw)))
	if c.Valid() {
		return c, true, true
	}
	return "", false, false
}

// ParseVenueType validates a raw venue type value, like ParseCategory.
func ParseVenueType(raw string) (v VenueType, normalized bool, ok bool) {
	v = VenueType(raw)
	if v.Valid() {
		return v, false, true
	}
	v = VenueType(strings.ToLower(strings.TrimSpace(raw)))
	if v.Valid() {
		return v, true, true
	}
	return "", false, false
}

// ParseTimestamp parses an ISO 8601 timestamp that carries an offset.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CategoryList renders Categories as a comma separated list.
func CategoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// VenueTypeList renders VenueTypes as a comma separated list.
func VenueTypeList() string {
	names := make([]string, len(VenueTypes))
	for i, v := range VenueTypes {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// ClarificationTemplate is the literal shape the engine must produce when it
// needs more information.
var ClarificationTemplate = mustIndent(&Clarification{
	Question: "What date and time will the workshop be held?",
	ExtractedSoFar: EventRecord{
		Title:     "React Workshop",
		Category:  CategoryWorkshop,
		VenueType: VenueOnline,
	},
	MissingFields: []string{FieldTimeslots},
	Confidence:    0.6,
})

// CompletionTemplate is the literal shape the engine must produce once all
// required fields are known.
var CompletionTemplate = mustIndent(&Completion{
	EventData: EventRecord{
		Title:       "React Workshop",
		Description: "Learn React...",
		Category:    CategoryWorkshop,
		VenueType:   VenueOnline,
		VenueName:   "Zoom",
		Timeslots: []Timeslot{{
			Title: "Main Session",
			Start: "2025-01-15T14:00:00" + EventTimezone,
			End:   "2025-01-15T16:00:00" + EventTimezone,
		}},
		Tags: []string{"react", "javascript", "web-development"},
	},
	Confidence: 0.95,
	Message:    DefaultCompletionMessage,
})

func mustIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("model: render template: %v", err))
	}
	return string(b)
}
