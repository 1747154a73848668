package console

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/metrics"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
	"github.com/good-yellow-bee/trackadmin/internal/validation"
)

// Mode selects what a form modal does on submit.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
	ModeView
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeView:
		return "view"
	default:
		return "unknown"
	}
}

const maxConcurrentUploads = 4

// FormModal drives the create and edit/view flows of one entity type:
// Closed, Open(draft), Submitting, then Closed on success or Open with an
// error on failure.
type FormModal[T any, D any] struct {
	mu          sync.Mutex
	desc        *Descriptor[T, D]
	store       Store[T]
	list        *ListController[T]
	uploader    Uploader
	userID      func() string
	notify      Notifier
	patch       bool
	logger      zerolog.Logger
	state       State
	mode        Mode
	draft       D
	attachments []client.Attachment
	fieldErrs   validation.Errors
	err         error
	options     map[string][]Option
	gen         uint64
}

// FormConfig wires a FormModal.
type FormConfig struct {
	Uploader Uploader
	// UserID returns the signed-in user, sent with uploads.
	UserID   func() string
	Notifier Notifier
	// PatchInPlace patches the edited row instead of reloading the list.
	PatchInPlace bool
	Logger       zerolog.Logger
}

// NewFormModal creates a closed form modal.
func NewFormModal[T any, D any](desc *Descriptor[T, D], store Store[T], list *ListController[T], cfg FormConfig) *FormModal[T, D] {
	m := &FormModal[T, D]{
		desc:     desc,
		store:    store,
		list:     list,
		uploader: cfg.Uploader,
		userID:   cfg.UserID,
		notify:   cfg.Notifier,
		patch:    cfg.PatchInPlace,
		logger:   cfg.Logger.With().Str("component", "form").Str("entity", desc.Entity).Logger(),
	}
	if m.notify == nil {
		m.notify = nopNotifier{}
	}
	if m.userID == nil {
		m.userID = func() string { return "" }
	}
	return m
}

// OpenCreate opens the modal with a default draft.
func (m *FormModal[T, D]) OpenCreate() {
	m.open(ModeCreate, m.desc.NewDraft())
}

// OpenEdit opens the modal on a copy of rec. viewOnly renders it read-only.
func (m *FormModal[T, D]) OpenEdit(rec T, viewOnly bool) {
	mode := ModeEdit
	if viewOnly {
		mode = ModeView
	}
	m.open(mode, m.desc.FromRecord(rec))
}

func (m *FormModal[T, D]) open(mode Mode, draft D) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.state = StateOpen
	m.mode = mode
	m.draft = draft
	m.attachments = nil
	m.fieldErrs = nil
	m.err = nil
	m.options = nil
}

// SetViewOnly switches an edit modal between editable and read-only.
func (m *FormModal[T, D]) SetViewOnly(viewOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrNotOpen
	}
	if m.mode == ModeCreate {
		return ErrUnsupported
	}
	if viewOnly {
		m.mode = ModeView
	} else {
		m.mode = ModeEdit
	}
	return nil
}

// Edit applies fn to the draft.
func (m *FormModal[T, D]) Edit(fn func(*D)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return err
	}
	fn(&m.draft)
	return nil
}

// Attach queues a file to upload on submit.
func (m *FormModal[T, D]) Attach(a client.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(); err != nil {
		return err
	}
	if m.desc.Documents == nil {
		return ErrUnsupported
	}
	m.attachments = append(m.attachments, a)
	return nil
}

func (m *FormModal[T, D]) editable() error {
	switch {
	case m.state == StateClosed:
		return ErrNotOpen
	case m.state == StateSubmitting:
		return ErrSubmitInFlight
	case m.mode == ModeView:
		return ErrViewOnly
	}
	return nil
}

// LoadOptions fetches the choices of every select field concurrently.
func (m *FormModal[T, D]) LoadOptions(ctx context.Context) (map[string][]Option, error) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil, ErrNotOpen
	}
	gen := m.gen
	m.mu.Unlock()

	results := make([][]Option, len(m.desc.Lookups))
	g, gCtx := errgroup.WithContext(ctx)
	for i, lk := range m.desc.Lookups {
		g.Go(func() error {
			opts, err := lk.Fetch(gCtx)
			if err != nil {
				return err
			}
			results[i] = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if msg := failureMessage(err, "Failed to fetch data. Please try again."); msg != "" {
			m.notify.Notify(notifier.LevelError, m.desc.Entity, msg)
		}
		return nil, err
	}

	out := make(map[string][]Option, len(results))
	for i, lk := range m.desc.Lookups {
		out[lk.Field] = results[i]
	}
	m.mu.Lock()
	if m.gen == gen {
		m.options = out
	}
	m.mu.Unlock()
	return out, nil
}

// Submit validates the draft and sends it. In view mode it only closes
// the modal. A second call while the first is pending returns
// ErrSubmitInFlight without any network call.
func (m *FormModal[T, D]) Submit(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state == StateClosed:
		m.mu.Unlock()
		return ErrNotOpen
	case m.state == StateSubmitting:
		m.mu.Unlock()
		return ErrSubmitInFlight
	case m.mode == ModeView:
		m.closeLocked()
		m.mu.Unlock()
		return nil
	}

	draft := m.draft
	if m.desc.Normalize != nil {
		draft = m.desc.Normalize(draft)
	}
	var except []string
	if m.mode == ModeEdit {
		except = m.desc.EditExcept
	}
	if err := validation.Struct(draft, except...); err != nil {
		errs, _ := validation.AsErrors(err)
		m.fieldErrs = errs
		m.err = err
		m.mu.Unlock()
		m.notify.Notify(notifier.LevelError, m.desc.Entity, validationMessage(errs, err))
		metrics.SubmissionsTotal.WithLabelValues(m.desc.Entity, m.mode.String(), "invalid").Inc()
		return err
	}

	m.state = StateSubmitting
	m.fieldErrs = nil
	m.err = nil
	mode := m.mode
	gen := m.gen
	attachments := append([]client.Attachment(nil), m.attachments...)
	m.mu.Unlock()

	failedUploads := m.upload(ctx, &draft, attachments)

	var (
		saved T
		msg   string
		err   error
	)
	if mode == ModeCreate {
		saved, msg, err = m.store.Create(ctx, draft)
	} else {
		saved, msg, err = m.store.Update(ctx, draft)
	}

	m.mu.Lock()
	if m.gen != gen {
		// Closed or reopened while the call was pending.
		m.mu.Unlock()
		m.logger.Debug().Err(err).Msg("submission resolved after modal closed")
		return err
	}
	if err != nil {
		m.state = StateOpen
		m.err = err
		m.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(m.desc.Entity, mode.String(), "failed").Inc()
		m.logger.Warn().Err(err).Str("mode", mode.String()).Msg("submission failed")
		verb := "create"
		if mode != ModeCreate {
			verb = "update"
		}
		if text := failureMessage(err, m.desc.failed(verb)); text != "" {
			m.notify.Notify(notifier.LevelError, m.desc.Entity, text)
		}
		return err
	}
	m.closeLocked()
	m.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues(m.desc.Entity, mode.String(), "ok").Inc()
	m.logger.Info().Str("mode", mode.String()).Str("server_message", msg).Msg("submission succeeded")

	for _, name := range failedUploads {
		m.notify.Notify(notifier.LevelWarning, m.desc.Entity, "Failed to upload "+name)
	}
	success := m.desc.created()
	if mode != ModeCreate {
		success = m.desc.updated()
	}
	m.notify.Notify(notifier.LevelSuccess, m.desc.Entity, success)

	m.refresh(ctx, mode, saved)
	return nil
}

// upload sends attachments concurrently and appends the ids of those that
// succeeded to the draft. It returns the names of those that failed.
func (m *FormModal[T, D]) upload(ctx context.Context, draft *D, attachments []client.Attachment) []string {
	if len(attachments) == 0 || m.desc.Documents == nil {
		return nil
	}
	if m.uploader == nil {
		names := make([]string, len(attachments))
		for i, a := range attachments {
			names[i] = a.Name
		}
		return names
	}
	userID := m.userID()
	if userID == "" {
		m.notify.Notify(notifier.LevelError, m.desc.Entity, MsgNoUser)
	}

	ids := make([]string, len(attachments))
	var g errgroup.Group
	g.SetLimit(maxConcurrentUploads)
	for i, a := range attachments {
		g.Go(func() error {
			if userID == "" {
				return nil
			}
			id, err := m.uploader.Upload(ctx, a, userID, m.desc.kind())
			if err != nil {
				m.logger.Warn().Err(err).Str("file", a.Name).Msg("upload failed")
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()

	docs := m.desc.Documents(draft)
	merged := append([]string(nil), (*docs)...)
	var failed []string
	for i, id := range ids {
		if id == "" {
			failed = append(failed, attachments[i].Name)
			continue
		}
		merged = append(merged, id)
	}
	*docs = merged
	return failed
}

func (m *FormModal[T, D]) refresh(ctx context.Context, mode Mode, saved T) {
	if m.list == nil {
		return
	}
	if mode == ModeEdit && m.patch {
		if id := m.desc.ID(saved); id != "" && m.list.Patch(id, func(T) T { return saved }) {
			return
		}
	}
	if err := m.list.Load(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("refresh after submit failed")
	}
}

// Close discards the draft. A pending submission still completes but its
// side effects are dropped.
func (m *FormModal[T, D]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *FormModal[T, D]) closeLocked() {
	var zero D
	m.gen++
	m.state = StateClosed
	m.draft = zero
	m.attachments = nil
	m.fieldErrs = nil
	m.err = nil
	m.options = nil
}

// State returns the modal's lifecycle phase.
func (m *FormModal[T, D]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Mode returns the modal's mode.
func (m *FormModal[T, D]) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Draft returns a copy of the current draft.
func (m *FormModal[T, D]) Draft() D {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Attachments returns the names of the queued files.
func (m *FormModal[T, D]) Attachments() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.attachments))
	for i, a := range m.attachments {
		names[i] = a.Name
	}
	return names
}

// FieldErrors returns the messages of the last failed validation.
func (m *FormModal[T, D]) FieldErrors() validation.Errors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldErrs
}

// Err returns the error of the last submission attempt.
func (m *FormModal[T, D]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Options returns the select choices loaded for the open form.
func (m *FormModal[T, D]) Options() map[string][]Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options
}

func validationMessage(errs validation.Errors, err error) string {
	for _, msg := range errs {
		if strings.HasSuffix(msg, " is required") {
			return MsgFillRequired
		}
	}
	return err.Error()
}
