// Package models contains the entity records, drafts and value types shared by
// the client, the console controllers and the fake backend.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp is a time that tolerates the layouts the backend emits,
// including ISO timestamps without a zone designator.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts a JSON string in any known layout, or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized layout %q", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Ref is an embedded reference to a related record, as returned inline by list endpoints.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RefName returns the referenced name or "N/A".
func RefName(r *Ref) string {
	if r == nil || r.Name == "" {
		return "N/A"
	}
	return r.Name
}

// Document is an uploaded attachment.
type Document struct {
	ID string `json:"id"`
}

// ActivityEntry is one line of an entity's change history.
type ActivityEntry struct {
	CreatedAt Timestamp `json:"createdAt"`
	Summary   string    `json:"summary"`
	User      string    `json:"user"`
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
