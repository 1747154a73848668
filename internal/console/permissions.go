package console

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

// MsgPermissionsUpdated is shown after a permission set is replaced.
const MsgPermissionsUpdated = "Permissions updated successfully"

// PermissionModal assigns permissions to one user or role. The catalog
// and the current set are fetched when it opens, never cached on the
// record. Submit replaces the whole set.
type PermissionModal struct {
	mu       sync.Mutex
	entity   string
	store    PermissionStore
	notify   Notifier
	logger   zerolog.Logger
	state    State
	loading  bool
	loaded   bool
	subject  string
	catalog  []string
	original models.PermissionSet
	selected models.PermissionSet
	err      error
	gen      uint64
}

// NewPermissionModal creates a closed permission modal.
func NewPermissionModal(entity string, store PermissionStore, n Notifier, logger zerolog.Logger) *PermissionModal {
	if n == nil {
		n = nopNotifier{}
	}
	return &PermissionModal{
		entity: entity,
		store:  store,
		notify: n,
		logger: logger.With().Str("component", "permissions").Str("entity", entity).Logger(),
	}
}

// Open shows the modal for subject id and fetches the catalog and the
// subject's current permissions.
func (p *PermissionModal) Open(ctx context.Context, id string) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.state = StateOpen
	p.loading = true
	p.loaded = false
	p.subject = id
	p.catalog = nil
	p.original = models.NewPermissionSet()
	p.selected = models.NewPermissionSet()
	p.err = nil
	p.mu.Unlock()

	var catalog, current []string
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = p.store.Catalog(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = p.store.Permissions(gCtx, id)
		return err
	})
	err := g.Wait()

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return err
	}
	p.loading = false
	if err != nil {
		p.err = err
		p.mu.Unlock()
		p.logger.Warn().Err(err).Str("id", id).Msg("load permissions failed")
		if msg := failureMessage(err, "Failed to fetch data. Please try again."); msg != "" {
			p.notify.Notify(notifier.LevelError, p.entity, msg)
		}
		return err
	}
	p.loaded = true
	p.catalog = catalog
	p.original = models.NewPermissionSet(current...)
	p.selected = p.original.Clone()
	p.mu.Unlock()
	return nil
}

// Select adds names to the selection.
func (p *PermissionModal) Select(names ...string) error {
	return p.change(func(s models.PermissionSet) {
		for _, n := range names {
			s.Add(n)
		}
	})
}

// Deselect removes names from the selection.
func (p *PermissionModal) Deselect(names ...string) error {
	return p.change(func(s models.PermissionSet) {
		for _, n := range names {
			s.Remove(n)
		}
	})
}

// SetSelected replaces the selection.
func (p *PermissionModal) SetSelected(names ...string) error {
	return p.change(func(s models.PermissionSet) {
		for _, n := range s.Names() {
			s.Remove(n)
		}
		for _, n := range names {
			s.Add(n)
		}
	})
}

func (p *PermissionModal) change(fn func(models.PermissionSet)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.state == StateClosed:
		return ErrNotOpen
	case p.state == StateSubmitting:
		return ErrSubmitInFlight
	case !p.loaded:
		return ErrNotLoaded
	}
	fn(p.selected)
	return nil
}

// Submit replaces the subject's permission set with the selection. It
// returns ErrNotLoaded until Open has fetched the current set.
func (p *PermissionModal) Submit(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.state == StateClosed:
		p.mu.Unlock()
		return ErrNotOpen
	case p.state == StateSubmitting:
		p.mu.Unlock()
		return ErrSubmitInFlight
	case !p.loaded:
		p.mu.Unlock()
		return ErrNotLoaded
	}
	p.state = StateSubmitting
	p.err = nil
	id := p.subject
	names := p.selected.Names()
	gen := p.gen
	p.mu.Unlock()

	_, err := p.store.AssignPermissions(ctx, id, names)

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return err
	}
	if err != nil {
		p.state = StateOpen
		p.err = err
		p.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(p.entity, "permissions", "failed").Inc()
		if msg := failureMessage(err, "Failed to update permissions. Please try again."); msg != "" {
			p.notify.Notify(notifier.LevelError, p.entity, msg)
		}
		return err
	}
	p.closeLocked()
	p.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues(p.entity, "permissions", "ok").Inc()
	p.logger.Info().Str("id", id).Int("count", len(names)).Msg("permissions replaced")
	p.notify.Notify(notifier.LevelSuccess, p.entity, MsgPermissionsUpdated)
	return nil
}

// Close dismisses the modal.
func (p *PermissionModal) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *PermissionModal) closeLocked() {
	p.gen++
	p.state = StateClosed
	p.loading = false
	p.loaded = false
	p.subject = ""
	p.catalog = nil
	p.original = nil
	p.selected = nil
	p.err = nil
}

// State returns the modal's phase.
func (p *PermissionModal) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsLoading reports whether the initial fetch is pending.
func (p *PermissionModal) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Catalog returns every assignable permission name.
func (p *PermissionModal) Catalog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.catalog...)
}

// Selected returns the selected names, sorted.
func (p *PermissionModal) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected.Names()
}

// Changed reports whether the selection differs from the fetched set.
func (p *PermissionModal) Changed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.selected.Equal(p.original)
}

// Err returns the last load or submit error.
func (p *PermissionModal) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
