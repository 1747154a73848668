package console

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
)

type memPermissions struct {
	mu      sync.Mutex
	catalog []string
	sets    map[string][]string
	assigns int
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (m *memPermissions) Catalog(ctx context.Context) ([]string, error) {
	return m.catalog, nil
}

func (m *memPermissions) Permissions(ctx context.Context, id string) ([]string, error) {
	if m.gate != nil {
		m.entered <- struct{}{}
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.sets[id]...), nil
}

func (m *memPermissions) AssignPermissions(ctx context.Context, id string, names []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigns++
	m.sets[id] = append([]string(nil), names...)
	return "ok", nil
}

func TestPermissionModal_ReplacesWholeSet(t *testing.T) {
	store := &memPermissions{
		catalog: []string{"ViewProjects", "EditProjects", "ViewIssues"},
		sets:    map[string][]string{"u1": {"ViewProjects", "ViewIssues"}},
	}
	n, rec := newDispatcher()
	modal := NewPermissionModal("User", store, n, zerolog.Nop())

	require.NoError(t, modal.Open(context.Background(), "u1"))
	assert.False(t, modal.IsLoading())
	assert.Equal(t, store.catalog, modal.Catalog())
	assert.Equal(t, []string{"ViewIssues", "ViewProjects"}, modal.Selected())
	assert.False(t, modal.Changed())

	require.NoError(t, modal.Deselect("ViewIssues"))
	require.NoError(t, modal.Select("EditProjects"))
	assert.True(t, modal.Changed())

	require.NoError(t, modal.Submit(context.Background()))
	assert.Equal(t, StateClosed, modal.State())
	assert.Equal(t, []string{"EditProjects", "ViewProjects"}, store.sets["u1"])
	assert.Equal(t, []string{MsgPermissionsUpdated}, rec.Messages(notifier.LevelSuccess))
}

func TestPermissionModal_AssignIsIdempotent(t *testing.T) {
	store := &memPermissions{catalog: []string{"A", "B"}, sets: map[string][]string{}}
	modal := NewPermissionModal("Role", store, nil, zerolog.Nop())

	for range 2 {
		require.NoError(t, modal.Open(context.Background(), "r1"))
		require.NoError(t, modal.SetSelected("B", "A"))
		require.NoError(t, modal.Submit(context.Background()))
	}

	assert.Equal(t, 2, store.assigns)
	assert.Equal(t, []string{"A", "B"}, store.sets["r1"])
	assert.True(t, models.NewPermissionSet(store.sets["r1"]...).Equal(models.NewPermissionSet("A", "B")))
}

func TestPermissionModal_EmptySelectionClearsSet(t *testing.T) {
	store := &memPermissions{catalog: []string{"A"}, sets: map[string][]string{"u1": {"A"}}}
	modal := NewPermissionModal("User", store, nil, zerolog.Nop())

	require.NoError(t, modal.Open(context.Background(), "u1"))
	require.NoError(t, modal.SetSelected())
	require.NoError(t, modal.Submit(context.Background()))
	assert.Empty(t, store.sets["u1"])
}

func TestPermissionModal_LoadFailure(t *testing.T) {
	store := &memPermissions{err: &client.Error{Kind: client.KindNotFound, Message: "User not found"}}
	n, rec := newDispatcher()
	modal := NewPermissionModal("User", store, n, zerolog.Nop())

	assert.Error(t, modal.Open(context.Background(), "missing"))
	assert.Equal(t, StateOpen, modal.State())
	assert.Error(t, modal.Err())
	assert.Equal(t, []string{"User not found"}, rec.Messages(notifier.LevelError))
}

func TestPermissionModal_SubmitAfterFailedOpen(t *testing.T) {
	store := &memPermissions{
		catalog: []string{"A", "B"},
		sets:    map[string][]string{"u1": {"A", "B"}},
		err:     &client.Error{Kind: client.KindServerError, Message: client.MsgServerError},
	}
	modal := NewPermissionModal("User", store, nil, zerolog.Nop())

	require.Error(t, modal.Open(context.Background(), "u1"))
	assert.ErrorIs(t, modal.Submit(context.Background()), ErrNotLoaded)
	assert.ErrorIs(t, modal.SetSelected("A"), ErrNotLoaded)
	assert.ErrorIs(t, modal.Select("A"), ErrNotLoaded)
	assert.ErrorIs(t, modal.Deselect("A"), ErrNotLoaded)
	assert.Zero(t, store.assigns)
	assert.Equal(t, []string{"A", "B"}, store.sets["u1"])

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	require.NoError(t, modal.Open(context.Background(), "u1"))
	require.NoError(t, modal.Submit(context.Background()))
	assert.Equal(t, 1, store.assigns)
	assert.Equal(t, []string{"A", "B"}, store.sets["u1"])
}

func TestPermissionModal_SubmitWhileLoading(t *testing.T) {
	store := &memPermissions{
		catalog: []string{"A", "B"},
		sets:    map[string][]string{"u1": {"A", "B"}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	modal := NewPermissionModal("User", store, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- modal.Open(context.Background(), "u1") }()
	<-store.entered

	assert.True(t, modal.IsLoading())
	assert.ErrorIs(t, modal.Submit(context.Background()), ErrNotLoaded)
	assert.ErrorIs(t, modal.Select("A"), ErrNotLoaded)

	close(store.gate)
	require.NoError(t, <-done)
	assert.Zero(t, store.assigns)
	assert.Equal(t, []string{"A", "B"}, modal.Selected())
}

func TestPermissionModal_Closed(t *testing.T) {
	modal := NewPermissionModal("User", &memPermissions{}, nil, zerolog.Nop())
	assert.ErrorIs(t, modal.Select("A"), ErrNotOpen)
	assert.ErrorIs(t, modal.Submit(context.Background()), ErrNotOpen)
}
