package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Category classifies an event.
type Category string

const (
	CategoryWorkshop    Category = "workshop"
	CategorySeminar     Category = "seminar"
	CategoryCompetition Category = "competition"
	CategoryCultural    Category = "cultural"
	CategoryConference  Category = "conference"
	CategoryNetworking  Category = "networking"
	CategorySports      Category = "sports"
	CategoryCharity     Category = "charity"
	CategoryExhibition  Category = "exhibition"
	CategoryOther       Category = "other"
)

// Categories is the closed domain of event categories, in prompt order.
var Categories = []Category{
	CategoryWorkshop,
	CategorySeminar,
	CategoryCompetition,
	CategoryCultural,
	CategoryConference,
	CategoryNetworking,
	CategorySports,
	CategoryCharity,
	CategoryExhibition,
	CategoryOther,
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// VenueType says where an event takes place.
type VenueType string

const (
	VenuePhysical VenueType = "physical"
	VenueOnline   VenueType = "online"
	VenueHybrid   VenueType = "hybrid"
)

// VenueTypes is the closed domain of venue types.
var VenueTypes = []VenueType{VenuePhysical, VenueOnline, VenueHybrid}

// Valid reports whether v belongs to VenueTypes.
func (v VenueType) Valid() bool {
	for _, known := range VenueTypes {
		if v == known {
			return true
		}
	}
	return false
}

// Timeslot is one session of an event. Start and End are ISO 8601 timestamps
// with an explicit offset, kept as text so records round-trip unchanged.
type Timeslot struct {
	Title string `json:"title,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// EventRecord is the structured event the assistant fills in. The same type
// carries partial records during clarification, so every field is omitempty.
type EventRecord struct {
	// Required
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category,omitempty"`
	VenueType   VenueType  `json:"venue_type,omitempty"`
	VenueName   string     `json:"venue_name,omitempty"`
	Timeslots   []Timeslot `json:"timeslots,omitempty"`

	// Optional
	Tags         []string `json:"tags,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	VenueAddress string   `json:"venue_address,omitempty"`
	VenueCity    string   `json:"venue_city,omitempty"`
	VenueState   string   `json:"venue_state,omitempty"`
	VenueCountry string   `json:"venue_country,omitempty"`

	// extra holds decoded keys the typed fields do not re-emit: keys outside
	// the schema and schema keys sent empty.
	extra map[string]json.RawMessage
}

// UnmarshalJSON decodes the typed fields strictly and keeps every other key
// so the record marshals back with the keys it was given.
func (e *EventRecord) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	type alias EventRecord
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	typed, err := json.Marshal(a)
	if err != nil {
		return err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(typed, &present); err != nil {
		return err
	}

	var extra map[string]json.RawMessage
	for key, value := range raw {
		if _, ok := present[strings.ToLower(key)]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}

	*e = EventRecord(a)
	e.extra = extra
	return nil
}

// MarshalJSON emits the typed fields plus any kept keys. Typed fields win
// over kept keys of the same name.
func (e EventRecord) MarshalJSON() ([]byte, error) {
	type alias EventRecord
	data, err := json.Marshal(alias(e))
	if err != nil || len(e.extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range e.extra {
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

// ExtraKeys lists the kept keys that fall outside the schema fields.
func (e *EventRecord) ExtraKeys() []string {
	keys := make([]string, 0, len(e.extra))
	for key := range e.extra {
		if !isSchemaField(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// MissingRequired lists the required fields that are still empty, in
// RequiredFields order.
func (e *EventRecord) MissingRequired() []string {
	var missing []string
	for _, field := range RequiredFields {
		if e.isEmpty(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func (e *EventRecord) isEmpty(field string) bool {
	switch field {
	case FieldTitle:
		return e.Title == ""
	case FieldDescription:
		return e.Description == ""
	case FieldCategory:
		return e.Category == ""
	case FieldVenueType:
		return e.VenueType == ""
	case FieldVenueName:
		return e.VenueName == ""
	case FieldTimeslots:
		return len(e.Timeslots) == 0
	}
	return false
}

func isSchemaField(key string) bool {
	for _, field := range RequiredFields {
		if field == key {
			return true
		}
	}
	for _, field := range OptionalFields {
		if field == key {
			return true
		}
	}
	return false
}

// EventDraft is a completed record published to the draft stream.
type EventDraft struct {
	ID            string      `json:"id"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Event         EventRecord `json:"event"`
	Confidence    float64     `json:"confidence"`
	Warnings      []string    `json:"warnings,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}
