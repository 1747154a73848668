package console

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
	"github.com/good-yellow-bee/trackadmin/internal/validation"
)

// companyStore is an in-memory Store[models.Company]. When gate is set,
// Create and Update signal entered and block until gate is closed.
type companyStore struct {
	mu      sync.Mutex
	items   []models.Company
	lists   int
	creates []models.CompanyDraft
	updates []models.CompanyDraft
	toggles []string
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (s *companyStore) List(ctx context.Context) ([]models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return append([]models.Company(nil), s.items...), nil
}

func (s *companyStore) wait() {
	if s.gate != nil {
		s.entered <- struct{}{}
		<-s.gate
	}
}

func (s *companyStore) Create(ctx context.Context, payload any) (models.Company, string, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	d := payload.(models.CompanyDraft)
	s.creates = append(s.creates, d)
	if s.err != nil {
		return models.Company{}, "", s.err
	}
	c := models.Company{ID: "c" + strconv.Itoa(len(s.items)+1), Name: d.Name, NamePrefix: d.NamePrefix,
		Description: d.Description, Email: d.Email, PhoneNumber: d.PhoneNumber, IsActive: true, Documents: d.Documents}
	s.items = append(s.items, c)
	return c, "created", nil
}

func (s *companyStore) Update(ctx context.Context, payload any) (models.Company, string, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	d := payload.(models.CompanyDraft)
	s.updates = append(s.updates, d)
	if s.err != nil {
		return models.Company{}, "", s.err
	}
	for i, c := range s.items {
		if c.ID == d.ID {
			c.Name, c.Description, c.Email = d.Name, d.Description, d.Email
			s.items[i] = c
			return c, "updated", nil
		}
	}
	return models.Company{}, "", &client.Error{Kind: client.KindNotFound, Message: client.MsgNotFound}
}

func (s *companyStore) ToggleStatus(ctx context.Context, id string) (string, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles = append(s.toggles, id)
	if s.err != nil {
		return "", s.err
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsActive = !s.items[i].IsActive
		}
	}
	return "ok", nil
}

func (s *companyStore) counts() (lists, creates, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists, len(s.creates), len(s.updates)
}

type stubUploader struct {
	mu     sync.Mutex
	fail   map[string]bool
	userID string
	kind   string
}

func (u *stubUploader) Upload(ctx context.Context, a client.Attachment, userID, kind string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.userID, u.kind = userID, kind
	if u.fail[a.Name] {
		return "", &client.Error{Kind: client.KindServerError, Message: client.MsgServerError}
	}
	return "doc-" + a.Name, nil
}

func newDispatcher() (*notifier.Dispatcher, *notifier.Recorder) {
	d := notifier.NewDispatcherWithRateLimit(notifier.RateLimitConfig{Enabled: false})
	rec := notifier.NewRecorder()
	d.Register(rec)
	return d, rec
}

func newCompanyForm(store *companyStore, cfg FormConfig) (*FormModal[models.Company, models.CompanyDraft], *ListController[models.Company]) {
	desc := companyDescriptor()
	list := NewListController(desc.Entity, store, desc.ID, zerolog.Nop())
	return NewFormModal(desc, store, list, cfg), list
}

func validCompany() models.CompanyDraft {
	return models.CompanyDraft{Name: "Acme", NamePrefix: "ACM", Description: "d", Email: "a@b.com", PhoneNumber: "000"}
}

func TestFormModal_CreateValidationShortCircuits(t *testing.T) {
	store := &companyStore{}
	n, rec := newDispatcher()
	form, _ := newCompanyForm(store, FormConfig{Notifier: n})

	fields := []func(*models.CompanyDraft){
		func(d *models.CompanyDraft) { d.Name = "" },
		func(d *models.CompanyDraft) { d.NamePrefix = "" },
		func(d *models.CompanyDraft) { d.Description = " " },
		func(d *models.CompanyDraft) { d.Email = "" },
		func(d *models.CompanyDraft) { d.PhoneNumber = "" },
	}
	for _, clear := range fields {
		form.OpenCreate()
		require.NoError(t, form.Edit(func(d *models.CompanyDraft) { *d = validCompany(); clear(d) }))

		err := form.Submit(context.Background())
		assert.Equal(t, client.KindValidation, client.KindOf(err))
		_, ok := validation.AsErrors(err)
		assert.True(t, ok)
		assert.Equal(t, StateOpen, form.State())
		assert.NotEmpty(t, form.FieldErrors())
	}

	_, creates, _ := store.counts()
	assert.Zero(t, creates, "validation failures must not reach the network")
	assert.Contains(t, rec.Messages(notifier.LevelError), MsgFillRequired)
}

func TestFormModal_InvalidEmailMessage(t *testing.T) {
	n, rec := newDispatcher()
	form, _ := newCompanyForm(&companyStore{}, FormConfig{Notifier: n})
	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany(); d.Email = "a@b" })

	assert.Error(t, form.Submit(context.Background()))
	assert.Equal(t, "invalid email format", form.FieldErrors()["email"])
	assert.Equal(t, []string{"invalid email format"}, rec.Messages(notifier.LevelError))
}

func TestFormModal_DoubleSubmitIssuesOneCall(t *testing.T) {
	store := &companyStore{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	form, _ := newCompanyForm(store, FormConfig{})
	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany() })

	first := make(chan error, 1)
	go func() { first <- form.Submit(context.Background()) }()
	<-store.entered

	assert.Equal(t, StateSubmitting, form.State())
	assert.ErrorIs(t, form.Submit(context.Background()), ErrSubmitInFlight)
	assert.ErrorIs(t, form.Edit(func(*models.CompanyDraft) {}), ErrSubmitInFlight)

	close(store.gate)
	require.NoError(t, <-first)

	_, creates, _ := store.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, StateClosed, form.State())
}

func TestFormModal_CreateSuccessClosesAndReloads(t *testing.T) {
	store := &companyStore{}
	n, rec := newDispatcher()
	form, list := newCompanyForm(store, FormConfig{Notifier: n})

	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany(); d.NamePrefix = "acme" })
	require.NoError(t, form.Submit(context.Background()))

	assert.Equal(t, StateClosed, form.State())
	assert.Equal(t, models.CompanyDraft{}, form.Draft())
	assert.Equal(t, []string{"Company created successfully"}, rec.Messages(notifier.LevelSuccess))

	lists, _, _ := store.counts()
	assert.Equal(t, 1, lists)
	require.Equal(t, 1, list.Len())
	got := list.Items()[0]
	assert.Equal(t, "ACM", got.NamePrefix, "prefix is normalized before submit")
	assert.Equal(t, "Acme", got.Name)
}

func TestFormModal_FailureKeepsModalOpenAndCollection(t *testing.T) {
	store := &companyStore{items: []models.Company{{ID: "c1", Name: "Old"}}}
	n, rec := newDispatcher()
	form, list := newCompanyForm(store, FormConfig{Notifier: n})
	require.NoError(t, list.Load(context.Background()))

	store.err = &client.Error{Kind: client.KindValidation, Message: "Name already exists"}
	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany() })

	err := form.Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateOpen, form.State())
	assert.Equal(t, "Acme", form.Draft().Name, "draft survives a failed submit")
	assert.Equal(t, []string{"Name already exists"}, rec.Messages(notifier.LevelError))
	assert.Equal(t, []models.Company{{ID: "c1", Name: "Old"}}, list.Items())

	lists, _, _ := store.counts()
	assert.Equal(t, 1, lists, "failed submissions do not reload")
}

func TestFormModal_SessionEndingFailureIsNotNotified(t *testing.T) {
	store := &companyStore{err: &client.Error{Kind: client.KindUnauthorized, Message: client.MsgUnauthorized}}
	n, rec := newDispatcher()
	form, _ := newCompanyForm(store, FormConfig{Notifier: n})
	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany() })

	assert.Error(t, form.Submit(context.Background()))
	assert.Empty(t, rec.All())
}

func TestFormModal_CloseWhileSubmittingSuppressesSideEffects(t *testing.T) {
	store := &companyStore{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	n, rec := newDispatcher()
	form, _ := newCompanyForm(store, FormConfig{Notifier: n})
	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany() })

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()
	<-store.entered

	form.Close()
	close(store.gate)
	require.NoError(t, <-done)

	lists, creates, _ := store.counts()
	assert.Equal(t, 1, creates, "the call itself is not cancelled")
	assert.Zero(t, lists, "no refresh after close")
	assert.Empty(t, rec.All(), "no notification after close")
	assert.Equal(t, StateClosed, form.State())
}

func TestFormModal_ViewOnly(t *testing.T) {
	store := &companyStore{}
	form, _ := newCompanyForm(store, FormConfig{})
	rec := models.Company{ID: "c1", Name: "Acme"}

	form.OpenEdit(rec, true)
	assert.Equal(t, ModeView, form.Mode())
	assert.ErrorIs(t, form.Edit(func(d *models.CompanyDraft) { d.Name = "x" }), ErrViewOnly)

	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, StateClosed, form.State())
	_, creates, updates := store.counts()
	assert.Zero(t, creates+updates)

	form.OpenEdit(rec, true)
	require.NoError(t, form.SetViewOnly(false))
	assert.Equal(t, ModeEdit, form.Mode())
}

func TestFormModal_EditPatchesInPlace(t *testing.T) {
	store := &companyStore{items: []models.Company{
		{ID: "c1", Name: "Acme", NamePrefix: "ACM", Description: "d", Email: "a@b.com", PhoneNumber: "0"},
	}}
	form, list := newCompanyForm(store, FormConfig{PatchInPlace: true})
	require.NoError(t, list.Load(context.Background()))

	form.OpenEdit(list.Items()[0], false)
	_ = form.Edit(func(d *models.CompanyDraft) { d.Name = "Acme Ltd" })
	require.NoError(t, form.Submit(context.Background()))

	lists, _, updates := store.counts()
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, lists, "patch-in-place skips the reload")
	got, _ := list.Get("c1")
	assert.Equal(t, "Acme Ltd", got.Name)
}

func TestFormModal_FailedUploadsAreOmitted(t *testing.T) {
	store := &companyStore{}
	up := &stubUploader{fail: map[string]bool{"b.pdf": true}}
	n, rec := newDispatcher()
	form, _ := newCompanyForm(store, FormConfig{
		Uploader: up,
		UserID:   func() string { return "u1" },
		Notifier: n,
	})

	form.OpenCreate()
	_ = form.Edit(func(d *models.CompanyDraft) { *d = validCompany() })
	require.NoError(t, form.Attach(client.Attachment{Name: "a.pdf", Content: []byte("a")}))
	require.NoError(t, form.Attach(client.Attachment{Name: "b.pdf", Content: []byte("b")}))
	require.NoError(t, form.Submit(context.Background()))

	require.Len(t, store.creates, 1)
	assert.Equal(t, []string{"doc-a.pdf"}, store.creates[0].Documents)
	assert.Equal(t, "u1", up.userID)
	assert.Equal(t, "Company", up.kind)
	assert.Equal(t, []string{"Failed to upload b.pdf"}, rec.Messages(notifier.LevelWarning))
	assert.Equal(t, []string{"Company created successfully"}, rec.Messages(notifier.LevelSuccess))
}

func TestFormModal_NotOpen(t *testing.T) {
	form, _ := newCompanyForm(&companyStore{}, FormConfig{})
	assert.ErrorIs(t, form.Submit(context.Background()), ErrNotOpen)
	assert.ErrorIs(t, form.Edit(func(*models.CompanyDraft) {}), ErrNotOpen)
	assert.True(t, errors.Is(form.SetViewOnly(true), ErrNotOpen))
}

func TestFormModal_LoadOptions(t *testing.T) {
	desc := companyDescriptor()
	desc.Lookups = []Lookup{
		{Field: "a", Fetch: func(context.Context) ([]Option, error) { return []Option{{Value: "1", Label: "One"}}, nil }},
		{Field: "b", Fetch: func(context.Context) ([]Option, error) { return nil, nil }},
	}
	store := &companyStore{}
	form := NewFormModal(desc, store, nil, FormConfig{})

	_, err := form.LoadOptions(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)

	form.OpenCreate()
	opts, err := form.LoadOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "One", opts["a"][0].Label)
	assert.Contains(t, form.Options(), "b")
}
