package console

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

// ListController owns the loaded collection of one entity type. The
// collection changes only by full replacement in Load, or by Patch and
// Remove after a mutation the server confirmed.
type ListController[T any] struct {
	mu      sync.RWMutex
	entity  string
	source  Lister[T]
	idOf    func(T) string
	match   func(T, string) bool
	items   []T
	loading int
	err     error
	logger  zerolog.Logger
}

// NewListController creates an empty controller.
func NewListController[T any](entity string, source Lister[T], idOf func(T) string, logger zerolog.Logger) *ListController[T] {
	return &ListController[T]{
		entity: entity,
		source: source,
		idOf:   idOf,
		items:  []T{},
		logger: logger.With().Str("component", "list").Str("entity", entity).Logger(),
	}
}

// Load fetches the collection. On success it replaces the items and clears
// the error. On failure it records the error and keeps the previous items.
// Concurrent loads each apply their own response as it arrives, so the
// response that resolves last wins.
func (l *ListController[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	l.loading++
	l.mu.Unlock()

	items, err := l.source.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading--
	if err != nil {
		l.err = err
		metrics.ListLoadsTotal.WithLabelValues(l.entity, "failed").Inc()
		l.logger.Warn().Err(err).Str("kind", string(client.KindOf(err))).Msg("load failed, keeping previous items")
		return err
	}
	if items == nil {
		items = []T{}
	}
	l.items = items
	l.err = nil
	metrics.ListLoadsTotal.WithLabelValues(l.entity, "ok").Inc()
	l.logger.Debug().Int("count", len(items)).Msg("loaded")
	return nil
}

// Patch replaces the item with the given id by updater(item). It reports
// whether an item was found.
func (l *ListController[T]) Patch(id string, updater func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if l.idOf(it) == id {
			next := make([]T, len(l.items))
			copy(next, l.items)
			next[i] = updater(it)
			l.items = next
			return true
		}
	}
	return false
}

// Remove drops the item with the given id. It reports whether one was removed.
func (l *ListController[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if l.idOf(it) != id {
			next = append(next, it)
		}
	}
	removed := len(next) != len(l.items)
	l.items = next
	return removed
}

// Items returns a copy of the collection.
func (l *ListController[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Visible returns at most pageSize items. A pageSize of zero or less
// returns all of them.
func (l *ListController[T]) Visible(pageSize int) []T {
	items := l.Items()
	if pageSize > 0 && len(items) > pageSize {
		return items[:pageSize]
	}
	return items
}

// SetMatcher installs the search predicate used by Filter. It receives
// the query trimmed and lower-cased.
func (l *ListController[T]) SetMatcher(match func(T, string) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.match = match
}

// Filter returns the loaded items matching query. A blank query, or a
// list without a matcher, returns every item. The collection itself is
// left untouched.
func (l *ListController[T]) Filter(query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))

	l.mu.RLock()
	defer l.mu.RUnlock()
	if q == "" || l.match == nil {
		return append([]T(nil), l.items...)
	}
	out := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if l.match(it, q) {
			out = append(out, it)
		}
	}
	return out
}

// Get returns the loaded item with the given id.
func (l *ListController[T]) Get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if l.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of loaded items.
func (l *ListController[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// IsLoading reports whether any load is pending.
func (l *ListController[T]) IsLoading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading > 0
}

// Err returns the error of the last completed load, or nil.
func (l *ListController[T]) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// ErrorKind classifies Err.
func (l *ListController[T]) ErrorKind() client.ErrorKind {
	return client.KindOf(l.Err())
}

// Reset discards the collection, as when the owning view goes away.
func (l *ListController[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = []T{}
	l.err = nil
}
