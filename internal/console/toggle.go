package console

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

// ToggleModal is the two-step status dialog: Prompt, Confirming, Closed.
type ToggleModal[T any] struct {
	mu      sync.Mutex
	entity  string
	idOf    func(T) string
	spec    ToggleSpec[T]
	toggler Toggler
	list    *ListController[T]
	notify  Notifier
	patch   bool
	logger  zerolog.Logger
	state   State
	target  T
	err     error
	gen     uint64
}

// NewToggleModal creates a closed toggle dialog.
func NewToggleModal[T any](entity string, idOf func(T) string, spec ToggleSpec[T], toggler Toggler, list *ListController[T], n Notifier, patchInPlace bool, logger zerolog.Logger) *ToggleModal[T] {
	if n == nil {
		n = nopNotifier{}
	}
	return &ToggleModal[T]{
		entity:  entity,
		idOf:    idOf,
		spec:    spec,
		toggler: toggler,
		list:    list,
		notify:  n,
		patch:   patchInPlace,
		logger:  logger.With().Str("component", "toggle").Str("entity", entity).Logger(),
	}
}

// Open prompts for confirmation on rec.
func (t *ToggleModal[T]) Open(rec T) error {
	if t.spec.Allowed != nil && !t.spec.Allowed(rec) {
		return ErrUnsupported
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.state = StatePrompt
	t.target = rec
	t.err = nil
	return nil
}

// Action names the pending action, e.g. "Disable".
func (t *ToggleModal[T]) Action() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spec.Action(t.target)
}

// Confirm performs the toggle. On success the row is patched in place or
// the list reloaded. On failure the dialog returns to Prompt.
func (t *ToggleModal[T]) Confirm(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case StateClosed:
		t.mu.Unlock()
		return ErrNotOpen
	case StateConfirming:
		t.mu.Unlock()
		return ErrSubmitInFlight
	}
	t.state = StateConfirming
	t.err = nil
	rec := t.target
	gen := t.gen
	t.mu.Unlock()

	id := t.idOf(rec)
	_, err := t.toggler.ToggleStatus(ctx, id)

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		t.logger.Debug().Err(err).Str("id", id).Msg("toggle resolved after dialog closed")
		return err
	}
	if err != nil {
		t.state = StatePrompt
		t.err = err
		t.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(t.entity, "toggle", "failed").Inc()
		fallback := "Failed to " + lowerFirst(t.spec.Action(rec)) + " " + lowerFirst(t.entity) + ". Please try again."
		if msg := failureMessage(err, fallback); msg != "" {
			t.notify.Notify(notifier.LevelError, t.entity, msg)
		}
		return err
	}
	t.closeLocked()
	t.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues(t.entity, "toggle", "ok").Inc()
	t.logger.Info().Str("id", id).Msg("status toggled")
	t.notify.Notify(notifier.LevelSuccess, t.entity, t.spec.Done(rec))

	if t.list == nil {
		return nil
	}
	if t.patch && t.spec.Apply != nil && t.list.Patch(id, t.spec.Apply) {
		return nil
	}
	if err := t.list.Load(ctx); err != nil {
		t.logger.Warn().Err(err).Msg("refresh after toggle failed")
	}
	return nil
}

// Close dismisses the dialog.
func (t *ToggleModal[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *ToggleModal[T]) closeLocked() {
	var zero T
	t.gen++
	t.state = StateClosed
	t.target = zero
	t.err = nil
}

// State returns the dialog's phase.
func (t *ToggleModal[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error of the last confirmation.
func (t *ToggleModal[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
