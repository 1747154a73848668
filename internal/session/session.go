// Package session holds the signed-in administrator's credential and profile.
// A Manager is created empty, started at login, and torn down at logout or
// when the backend rejects the credential.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

// ErrNoSession is returned when an operation requires a signed-in user.
var ErrNoSession = errors.New("not logged in")

// Session is the credential and cached profile of the signed-in user.
type Session struct {
	Token     string    `yaml:"token"`
	UserID    string    `yaml:"user_id"`
	UserName  string    `yaml:"user_name"`
	FullName  string    `yaml:"full_name"`
	Email     string    `yaml:"email"`
	Role      string    `yaml:"role"`
	StartedAt time.Time `yaml:"started_at"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

// Expired reports whether the token's expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Invalidation describes why a session was torn down by the backend.
type Invalidation struct {
	Kind    client.ErrorKind
	Message string
	At      time.Time
}

// Handler receives invalidation events.
type Handler func(Invalidation)

// Store persists a session between processes.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// Manager is the explicit session context injected into the client.
// It implements client.Session.
type Manager struct {
	mu       sync.RWMutex
	current  *Session
	store    Store
	handlers map[int]Handler
	nextID   int
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists the session through st.
func WithStore(st Store) Option {
	return func(m *Manager) { m.store = st }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l.With().Str("component", "session").Logger() }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates an empty session context.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		handlers: make(map[int]Handler),
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads a previously saved session from the store. A missing or
// expired session leaves the manager empty.
func (m *Manager) Restore() error {
	if m.store == nil {
		return nil
	}
	s, err := m.store.Load()
	if err != nil {
		return err
	}
	if s == nil || s.Token == "" {
		return nil
	}
	if s.Expired(m.now()) {
		m.logger.Debug().Str("user", s.UserName).Msg("stored session expired")
		return m.store.Clear()
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

// Start begins a session. ExpiresAt is taken from the token's exp claim
// when the caller leaves it unset.
func (m *Manager) Start(s Session) error {
	if s.Token == "" {
		return errors.New("session token is required")
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = m.now()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = tokenExpiry(s.Token)
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Info().Str("user", s.UserName).Msg("session started")
	if m.store != nil {
		return m.store.Save(&s)
	}
	return nil
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// UserID returns the signed-in user's id, or "".
func (m *Manager) UserID() string {
	s, ok := m.Current()
	if !ok {
		return ""
	}
	return s.UserID
}

// Token returns the bearer credential. Expired tokens are still returned so
// the backend, not the client clock, decides.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return m.current.Token, true
}

// Invalidate tears the session down after the backend rejected the
// credential and notifies every handler. Repeats are ignored until the
// next Start or Restore.
func (m *Manager) Invalidate(cause *client.Error) {
	ev := Invalidation{Kind: client.KindUnauthorized, Message: client.MsgUnauthorized, At: m.now()}
	if cause != nil {
		ev.Kind, ev.Message = cause.Kind, cause.Message
	}

	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		m.logger.Debug().Str("kind", string(ev.Kind)).Msg("no live session to invalidate")
		return
	}
	m.current = nil
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	metrics.SessionInvalidationsTotal.WithLabelValues(string(ev.Kind)).Inc()
	m.logger.Warn().Str("kind", string(ev.Kind)).Msg("session invalidated")

	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.logger.Error().Err(err).Msg("clear stored session")
		}
	}
	for _, h := range handlers {
		h(ev)
	}
}

// End closes the session at the user's request. Handlers are not notified.
func (m *Manager) End() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	if m.store != nil {
		return m.store.Clear()
	}
	return nil
}

// OnInvalidated registers h and returns a function that removes it.
func (m *Manager) OnInvalidated(h Handler) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.handlers, id)
		m.mu.Unlock()
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client cannot verify it and only uses it for display and restore.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
