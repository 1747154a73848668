package console

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

// DetailViewer fetches one read-only value when opened and discards it on
// close. Nothing is cached between openings.
type DetailViewer[V any] struct {
	mu       sync.Mutex
	entity   string
	fetch    func(ctx context.Context, key string) (V, error)
	notify   Notifier
	fallback string
	logger   zerolog.Logger
	open     bool
	loading  bool
	key      string
	details  *V
	err      error
	gen      uint64
}

// NewDetailViewer creates a closed viewer. fallback is shown when a fetch
// fails without a classified error.
func NewDetailViewer[V any](entity string, fetch func(ctx context.Context, key string) (V, error), n Notifier, fallback string, logger zerolog.Logger) *DetailViewer[V] {
	if n == nil {
		n = nopNotifier{}
	}
	return &DetailViewer[V]{
		entity:   entity,
		fetch:    fetch,
		notify:   n,
		fallback: fallback,
		logger:   logger.With().Str("component", "detail").Str("entity", entity).Logger(),
	}
}

// Open fetches the value for key (an id or a code).
func (d *DetailViewer[V]) Open(ctx context.Context, key string) (V, error) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.open = true
	d.loading = true
	d.key = key
	d.details = nil
	d.err = nil
	d.mu.Unlock()

	v, err := d.fetch(ctx, key)

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return v, err
	}
	d.loading = false
	if err != nil {
		d.err = err
		d.mu.Unlock()
		d.logger.Warn().Err(err).Str("key", key).Msg("fetch details failed")
		if msg := failureMessage(err, d.fallback); msg != "" {
			d.notify.Notify(notifier.LevelError, d.entity, msg)
		}
		return v, err
	}
	d.details = &v
	d.mu.Unlock()
	return v, nil
}

// Close discards the fetched value.
func (d *DetailViewer[V]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.open = false
	d.loading = false
	d.key = ""
	d.details = nil
	d.err = nil
}

// Details returns the fetched value, if any.
func (d *DetailViewer[V]) Details() (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.details == nil {
		var zero V
		return zero, false
	}
	return *d.details, true
}

// IsOpen reports whether the viewer is showing.
func (d *DetailViewer[V]) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// IsLoading reports whether a fetch is pending.
func (d *DetailViewer[V]) IsLoading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Err returns the error of the last fetch.
func (d *DetailViewer[V]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
