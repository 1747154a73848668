// Package notifier delivers transient user-visible notifications, the
// console's equivalent of toasts.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

// Level grades a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one transient message.
type Notification struct {
	Level   Level
	Message string
	Entity  string
	At      time.Time
}

// Notifier is a notification channel.
type Notifier interface {
	// Name returns the channel name (e.g., "log", "terminal").
	Name() string
	// Send delivers one notification.
	Send(ctx context.Context, n Notification) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// Dispatcher fans notifications out to every registered channel.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	now         func() time.Time
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWithRateLimit(DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with custom rate limit configuration.
func NewDispatcherWithRateLimit(config RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(config),
		now:         time.Now,
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier from the dispatcher.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Dispatch sends n to every registered notifier. Errors are never rate
// limited; other levels return ErrRateLimited when the budget is spent.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	if n.At.IsZero() {
		n.At = d.now()
	}
	if n.Level != LevelError && d.rateLimiter != nil && !d.rateLimiter.Allow() {
		metrics.NotificationsDroppedTotal.Inc()
		return ErrRateLimited
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Level)).Inc()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for name, nt := range d.notifiers {
		if err := nt.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Notify dispatches a message without a context, dropping delivery errors.
// Controllers use it from completion paths that have nowhere to report to.
func (d *Dispatcher) Notify(level Level, entity, message string) {
	_ = d.Dispatch(context.Background(), Notification{Level: level, Entity: entity, Message: message})
}

// Success reports a completed action.
func (d *Dispatcher) Success(entity, message string) { d.Notify(LevelSuccess, entity, message) }

// Warn reports a partial failure.
func (d *Dispatcher) Warn(entity, message string) { d.Notify(LevelWarning, entity, message) }

// Error reports a failed action.
func (d *Dispatcher) Error(entity, message string) { d.Notify(LevelError, entity, message) }

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.rateLimiter == nil {
		return RateLimitStats{}
	}
	return d.rateLimiter.Stats()
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}
