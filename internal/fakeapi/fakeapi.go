// Package fakeapi is a self-contained implementation of the project-tracking
// backend, persisting to a private in-memory SQLite database. It speaks the
// same routes and envelope as the real service and backs the client tests
// and `trackctl serve-fake`.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

// Config holds fake backend settings.
type Config struct {
	Address       string
	JWTSecret     []byte
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	// LockoutThreshold failed logins lock an account for LockoutDuration.
	// Zero uses 5 attempts and 15 minutes; a negative threshold disables it.
	LockoutThreshold int
	LockoutDuration  time.Duration
	// MetricsPath mounts the Prometheus handler when set.
	MetricsPath string
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
	Logger     zerolog.Logger
}

// DefaultClaims is the seeded permission catalog.
var DefaultClaims = []string{
	"companies.manage", "companies.view",
	"issues.manage", "issues.view",
	"phases.manage", "phases.view",
	"projects.manage", "projects.view",
	"roles.manage",
	"users.manage", "users.view",
}

// Fault is a scripted response returned instead of the real handler.
type Fault struct {
	Status  int
	Message string
	// Delay holds the request before responding.
	Delay time.Duration
}

// Server is the fake backend.
type Server struct {
	config  Config
	store   *store
	tokens  *tokens
	lockout *lockout
	logger  zerolog.Logger
	router  *chi.Mux
	adminID string

	mu     sync.Mutex
	calls  map[string]int
	faults map[string][]Fault
	hooks  []func(*http.Request)

	httpServer *http.Server
}

// New creates a fake backend seeded with one administrator, the Admin and
// Supervisor roles, and the default claim catalog.
func New(cfg Config) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@trackadmin.local"
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password is required")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.LockoutThreshold == 0 {
		cfg.LockoutThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}

	st, err := openStore(context.Background(), time.Now)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:  cfg,
		store:   st,
		tokens:  &tokens{secret: cfg.JWTSecret, ttl: cfg.TokenTTL, now: time.Now},
		lockout: newLockout(cfg.LockoutThreshold, cfg.LockoutDuration, time.Now),
		logger:  cfg.Logger.With().Str("component", "fakeapi").Logger(),
		calls:   make(map[string]int),
		faults:  make(map[string][]Fault),
	}
	if err := s.seed(context.Background()); err != nil {
		st.close()
		return nil, err
	}
	s.router = s.setupRouter()
	return s, nil
}

func (s *Server) seed(ctx context.Context) error {
	hash, err := hashPassword(s.config.AdminPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	st := s.store
	if err := st.seedCatalog(ctx, DefaultClaims); err != nil {
		return fmt.Errorf("seed claims: %w", err)
	}
	for _, r := range []models.RoleDraft{
		{Name: "Admin", Description: "Back-office administrator"},
		{Name: "Supervisor", Description: "Company supervisor"},
	} {
		if _, err := st.createRole(ctx, r); err != nil {
			return fmt.Errorf("seed role: %w", err)
		}
	}
	admin, err := st.createUser(ctx, models.UserDraft{
		UserName:  s.config.AdminEmail,
		FirstName: "System",
		LastName:  "Administrator",
		Email:     s.config.AdminEmail,
		RoleName:  "Admin",
	}, hash)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := st.assignClaims(ctx, true, admin.ID, DefaultClaims); err != nil {
		return fmt.Errorf("seed admin claims: %w", err)
	}
	s.adminID = admin.ID
	return nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Calls returns how many requests reached the given method and path,
// e.g. "POST /Company/Create".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// InjectFault queues f for the next request to route ("GET /Users/ViewAll").
// Faults are consumed in order.
func (s *Server) InjectFault(route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], f)
}

// OnRequest registers fn to observe every request before it is handled.
func (s *Server) OnRequest(fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// AdminID returns the seeded administrator's id.
func (s *Server) AdminID() string {
	return s.adminID
}

// Documents returns the ids of every uploaded document, sorted.
func (s *Server) Documents(ctx context.Context) ([]string, error) {
	return s.store.documentIDs(ctx)
}

// Start listens on the configured address. It returns once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("fake backend listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("serve")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server and releases the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.Close()
}

// Close releases the database. Servers that were never started only need Close.
func (s *Server) Close() error {
	return s.store.close()
}
