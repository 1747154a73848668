package console

import (
	"context"
	"strings"
)

// Option is one choice of a select field on a form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Lookup fetches the choices of one select field when a form opens.
type Lookup struct {
	Field string
	Fetch func(ctx context.Context) ([]Option, error)
}

// Descriptor parameterizes the generic controllers for one entity type:
// record T and draft D.
type Descriptor[T any, D any] struct {
	// Entity is the display name, e.g. "Company".
	Entity string
	// Kind is the document kind sent with uploads. Defaults to Entity.
	Kind string

	ID   func(T) string
	Code func(T) string

	NewDraft   func() D
	FromRecord func(T) D
	Normalize  func(D) D

	// EditExcept lists draft fields (Go names) not validated on edit.
	EditExcept []string

	// Documents exposes the draft's document id list. Nil when the entity
	// takes no attachments.
	Documents func(*D) *[]string

	Lookups []Lookup

	// Match reports whether rec matches a lower-cased search query.
	// Nil disables searching.
	Match func(rec T, query string) bool
}

func (d *Descriptor[T, D]) kind() string {
	if d.Kind != "" {
		return d.Kind
	}
	return d.Entity
}

// key returns the detail lookup key of rec: its code when it has one.
func (d *Descriptor[T, D]) key(rec T) string {
	if d.Code != nil {
		if c := d.Code(rec); c != "" {
			return c
		}
	}
	return d.ID(rec)
}

// matchAny reports whether any field contains query, ignoring case.
func matchAny(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func (d *Descriptor[T, D]) created() string {
	return d.Entity + " created successfully"
}

func (d *Descriptor[T, D]) updated() string {
	return d.Entity + " updated successfully"
}

func (d *Descriptor[T, D]) failed(verb string) string {
	return "Failed to " + verb + " " + strings.ToLower(d.Entity) + ". Please try again."
}

// ToggleSpec describes an entity's status-toggle dialog.
type ToggleSpec[T any] struct {
	// Action names the button, e.g. "Disable" or "Close".
	Action func(T) string
	// Done is the success message for rec before the toggle.
	Done func(T) string
	// Apply returns rec as it looks after a successful toggle.
	Apply func(T) T
	// Allowed reports whether the toggle applies to rec. Nil allows all.
	Allowed func(T) bool
}
