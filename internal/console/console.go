// Package console implements the entity-management screens of the admin
// console without any rendering: one list controller per entity type plus
// the modal state machines that mutate it. A terminal or web front-end
// drives these controllers and renders their state.
package console

import (
	"context"
	"errors"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

var (
	// ErrSubmitInFlight is returned by Submit while a previous submission is pending.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrNotOpen is returned when a modal operation needs an open modal.
	ErrNotOpen = errors.New("modal is not open")
	// ErrViewOnly is returned when editing a draft opened read-only.
	ErrViewOnly = errors.New("modal is view-only")
	// ErrNotLoaded is returned when a modal's data has not been fetched yet.
	ErrNotLoaded = errors.New("modal data has not loaded")
	// ErrUnsupported is returned for flows an entity does not offer.
	ErrUnsupported = client.ErrUnsupported
	// ErrNoUser is returned when an upload needs the signed-in user and none exists.
	ErrNoUser = errors.New("no signed-in user")
)

// User-facing messages raised by the controllers themselves.
const (
	MsgFillRequired = "Please fill in all required fields."
	MsgNoUser       = "User not found. Please log in again."
)

// State is the phase of a modal's lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateSubmitting
)

// Status-toggle dialogs name their phases Prompt and Confirming.
const (
	StatePrompt     = StateOpen
	StateConfirming = StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Notifier shows transient messages. *notifier.Dispatcher implements it.
type Notifier interface {
	Notify(level notifier.Level, entity, message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(notifier.Level, string, string) {}

// Lister fetches a whole collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Store is the remote side of create and edit flows.
// *client.Resource implements it.
type Store[T any] interface {
	Lister[T]
	Create(ctx context.Context, payload any) (T, string, error)
	Update(ctx context.Context, payload any) (T, string, error)
}

// Toggler flips or closes a record's status.
type Toggler interface {
	ToggleStatus(ctx context.Context, id string) (string, error)
}

// Uploader stores one attachment and returns its document id.
type Uploader interface {
	Upload(ctx context.Context, a client.Attachment, userID, kind string) (string, error)
}

// PermissionStore reads and replaces permission sets.
// *client.PermissionClient implements it.
type PermissionStore interface {
	Catalog(ctx context.Context) ([]string, error)
	Permissions(ctx context.Context, id string) ([]string, error)
	AssignPermissions(ctx context.Context, id string, names []string) (string, error)
}

// failureMessage is the notification text for a failed call. Session-ending
// failures return "" since the session handler reports them.
func failureMessage(err error, fallback string) string {
	kind := client.KindOf(err)
	if kind == client.KindUnauthorized || kind == client.KindForbidden {
		return ""
	}
	if kind == "" {
		return fallback
	}
	return client.Message(err)
}
