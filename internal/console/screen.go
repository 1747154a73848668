package console

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
	"github.com/good-yellow-bee/trackadmin/internal/present"
	"github.com/good-yellow-bee/trackadmin/internal/session"
)

// Screen bundles the controllers of one entity type. Toggle, Permissions
// and History are nil when the entity does not offer the flow.
type Screen[T any, D any] struct {
	Desc        *Descriptor[T, D]
	List        *ListController[T]
	Form        *FormModal[T, D]
	Toggle      *ToggleModal[T]
	Details     *DetailViewer[T]
	Permissions *PermissionModal
	History     *DetailViewer[[]models.ActivityEntry]
}

// Key returns the detail lookup key of rec.
func (s *Screen[T, D]) Key(rec T) string {
	return s.Desc.key(rec)
}

// Options configures a Console.
type Options struct {
	PageSize     int
	PatchInPlace bool
	Logger       zerolog.Logger
}

// Console holds one Screen per entity type, sharing a client, a session
// and a notifier.
type Console struct {
	API      *client.API
	Session  *session.Manager
	Notifier Notifier
	PageSize int

	Users     *Screen[models.User, models.UserDraft]
	Companies *Screen[models.Company, models.CompanyDraft]
	Projects  *Screen[models.Project, models.ProjectDraft]
	Phases    *Screen[models.Phase, models.PhaseDraft]
	Issues    *Screen[models.Issue, models.IssueDraft]
	Roles     *Screen[models.Role, models.RoleDraft]

	unwatch func()
}

// New wires every screen. Session invalidations are reported through n.
func New(api *client.API, sess *session.Manager, n Notifier, opts Options) *Console {
	if n == nil {
		n = nopNotifier{}
	}
	c := &Console{
		API:      api,
		Session:  sess,
		Notifier: n,
		PageSize: opts.PageSize,
	}
	fc := FormConfig{
		Uploader:     api.Documents,
		Notifier:     n,
		PatchInPlace: opts.PatchInPlace,
		Logger:       opts.Logger,
	}
	if sess != nil {
		fc.UserID = sess.UserID
	}
	log := opts.Logger

	c.Users = newScreen(userDescriptor(api), api.Users, fc)
	c.Users.Toggle = NewToggleModal(c.Users.Desc.Entity, c.Users.Desc.ID, activeToggle(
		"User",
		func(u models.User) bool { return u.IsActive },
		func(u models.User, active bool) models.User { u.IsActive = active; return u },
	), api.Users, c.Users.List, n, opts.PatchInPlace, log)
	c.Users.Details = NewDetailViewer("User", api.Users.GetByID, n, "Failed to fetch user details. Please try again.", log)
	c.Users.Permissions = NewPermissionModal("User", api.Claims.Permissions(client.UserClaimRoutes), n, log)

	c.Companies = newScreen(companyDescriptor(), api.Companies, fc)
	c.Companies.Toggle = NewToggleModal(c.Companies.Desc.Entity, c.Companies.Desc.ID, activeToggle(
		"Company",
		func(co models.Company) bool { return co.IsActive },
		func(co models.Company, active bool) models.Company { co.IsActive = active; return co },
	), api.Companies, c.Companies.List, n, opts.PatchInPlace, log)
	c.Companies.Details = NewDetailViewer("Company", api.Companies.GetByID, n, "Failed to fetch company details. Please try again.", log)
	c.Companies.History = NewDetailViewer("Company", api.Companies.History, n, "Failed to fetch company history. Please try again.", log)

	c.Projects = newScreen(projectDescriptor(api), api.Projects, fc)
	c.Projects.Toggle = NewToggleModal(c.Projects.Desc.Entity, c.Projects.Desc.ID, closeToggle(
		"Project",
		func(p models.Project) bool { return p.Status != models.StatusDone },
		func(p models.Project) models.Project { p.Status = models.StatusDone; return p },
	), api.Projects, c.Projects.List, n, opts.PatchInPlace, log)
	c.Projects.Details = NewDetailViewer("Project", api.Projects.GetByCode, n, "Project not found.", log)

	c.Phases = newScreen(phaseDescriptor(api), api.Phases, fc)
	c.Phases.Toggle = NewToggleModal(c.Phases.Desc.Entity, c.Phases.Desc.ID, closeToggle(
		"Phase",
		func(p models.Phase) bool { return p.Status != models.StatusDone },
		func(p models.Phase) models.Phase { p.Status = models.StatusDone; return p },
	), api.Phases, c.Phases.List, n, opts.PatchInPlace, log)
	c.Phases.Details = NewDetailViewer("Phase", api.Phases.GetByCode, n, "Failed to fetch phase details. Please try again.", log)

	c.Issues = newScreen(issueDescriptor(api), api.Issues, fc)
	c.Issues.Toggle = NewToggleModal(c.Issues.Desc.Entity, c.Issues.Desc.ID, closeToggle(
		"Issue",
		func(i models.Issue) bool { return i.Status != models.IssueResolved },
		func(i models.Issue) models.Issue { i.Status = models.IssueResolved; return i },
	), api.Issues, c.Issues.List, n, opts.PatchInPlace, log)
	c.Issues.Details = NewDetailViewer("Issue", api.Issues.GetByCode, n, "Failed to fetch issue details. Please try again.", log)

	c.Roles = newScreen(roleDescriptor(), api.Roles, fc)
	c.Roles.Details = NewDetailViewer("Role", c.localRole, n, "Role not found.", log)
	c.Roles.Permissions = NewPermissionModal("Role", api.Claims.Permissions(client.RoleClaimRoutes), n, log)

	if sess != nil {
		c.unwatch = sess.OnInvalidated(func(ev session.Invalidation) {
			n.Notify(notifier.LevelError, "Session", ev.Message)
		})
	}
	return c
}

// Close detaches the console from the session.
func (c *Console) Close() {
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
}

// localRole serves role details from the loaded list, loading it first
// when needed. The backend has no single-role route.
func (c *Console) localRole(ctx context.Context, id string) (models.Role, error) {
	if r, ok := c.Roles.List.Get(id); ok {
		return r, nil
	}
	if err := c.Roles.List.Load(ctx); err != nil {
		return models.Role{}, err
	}
	if r, ok := c.Roles.List.Get(id); ok {
		return r, nil
	}
	return models.Role{}, &client.Error{Kind: client.KindNotFound, Op: "Roles.get", Message: client.MsgNotFound}
}

func newScreen[T any, D any](desc *Descriptor[T, D], store Store[T], fc FormConfig) *Screen[T, D] {
	list := NewListController(desc.Entity, store, desc.ID, fc.Logger)
	list.SetMatcher(desc.Match)
	return &Screen[T, D]{
		Desc: desc,
		List: list,
		Form: NewFormModal(desc, store, list, fc),
	}
}

func activeToggle[T any](entity string, active func(T) bool, set func(T, bool) T) ToggleSpec[T] {
	return ToggleSpec[T]{
		Action: func(rec T) string { return present.ToggleActionLabel(active(rec)) },
		Done: func(rec T) string {
			if active(rec) {
				return entity + " disabled successfully"
			}
			return entity + " enabled successfully"
		},
		Apply: func(rec T) T { return set(rec, !active(rec)) },
	}
}

func closeToggle[T any](entity string, open func(T) bool, apply func(T) T) ToggleSpec[T] {
	return ToggleSpec[T]{
		Action:  func(T) string { return "Close" },
		Done:    func(T) string { return entity + " closed successfully" },
		Apply:   apply,
		Allowed: open,
	}
}

func userDescriptor(api *client.API) *Descriptor[models.User, models.UserDraft] {
	return &Descriptor[models.User, models.UserDraft]{
		Entity:     "User",
		ID:         func(u models.User) string { return u.ID },
		NewDraft:   func() models.UserDraft { return models.UserDraft{} },
		FromRecord: models.DraftFromUser,
		Normalize:  models.UserDraft.Normalize,
		EditExcept: []string{"Password"},
		Lookups: []Lookup{
			{Field: "companyId", Fetch: companyOptions(api)},
			{Field: "roleName", Fetch: roleOptions(api)},
		},
		Match: func(u models.User, q string) bool {
			return matchAny(q, u.FirstName, u.LastName, u.Email, u.CompanyName)
		},
	}
}

func companyDescriptor() *Descriptor[models.Company, models.CompanyDraft] {
	return &Descriptor[models.Company, models.CompanyDraft]{
		Entity:     "Company",
		ID:         func(c models.Company) string { return c.ID },
		NewDraft:   func() models.CompanyDraft { return models.CompanyDraft{Documents: []string{}} },
		FromRecord: models.DraftFromCompany,
		Normalize:  models.CompanyDraft.Normalize,
		Documents:  func(d *models.CompanyDraft) *[]string { return &d.Documents },
		Match: func(c models.Company, q string) bool {
			return matchAny(q, c.Name, c.Code, c.Email)
		},
	}
}

func projectDescriptor(api *client.API) *Descriptor[models.Project, models.ProjectDraft] {
	return &Descriptor[models.Project, models.ProjectDraft]{
		Entity: "Project",
		ID:     func(p models.Project) string { return p.ID },
		Code:   func(p models.Project) string { return p.Code },
		NewDraft: func() models.ProjectDraft {
			return models.ProjectDraft{Status: models.StatusTodo, Documents: []string{}}
		},
		FromRecord: models.DraftFromProject,
		Normalize:  models.ProjectDraft.Normalize,
		EditExcept: []string{"SupervisorID"},
		Documents:  func(d *models.ProjectDraft) *[]string { return &d.Documents },
		Lookups: []Lookup{
			{Field: "companyId", Fetch: companyOptions(api)},
		},
		Match: func(p models.Project, q string) bool {
			return matchAny(q, p.Name, p.Code, refName(p.Company))
		},
	}
}

func phaseDescriptor(api *client.API) *Descriptor[models.Phase, models.PhaseDraft] {
	return &Descriptor[models.Phase, models.PhaseDraft]{
		Entity:     "Phase",
		ID:         func(p models.Phase) string { return p.ID },
		Code:       func(p models.Phase) string { return p.Code },
		NewDraft:   func() models.PhaseDraft { return models.PhaseDraft{Status: models.StatusTodo, Documents: []string{}} },
		FromRecord: models.DraftFromPhase,
		Normalize:  models.PhaseDraft.Normalize,
		Documents:  func(d *models.PhaseDraft) *[]string { return &d.Documents },
		Lookups: []Lookup{
			{Field: "projectId", Fetch: func(ctx context.Context) ([]Option, error) {
				return options(ctx, api.Projects, func(p models.Project) Option {
					return Option{Value: p.ID, Label: fmt.Sprintf("%s (%s)", p.Name, p.Code)}
				})
			}},
		},
		Match: func(p models.Phase, q string) bool {
			return matchAny(q, p.Name, p.Code, refName(p.Project))
		},
	}
}

func issueDescriptor(api *client.API) *Descriptor[models.Issue, models.IssueDraft] {
	return &Descriptor[models.Issue, models.IssueDraft]{
		Entity:     "Issue",
		ID:         func(i models.Issue) string { return i.ID },
		Code:       func(i models.Issue) string { return i.Code },
		NewDraft:   func() models.IssueDraft { return models.IssueDraft{Documents: []string{}} },
		FromRecord: models.DraftFromIssue,
		Normalize:  models.IssueDraft.Normalize,
		Documents:  func(d *models.IssueDraft) *[]string { return &d.Documents },
		Lookups: []Lookup{
			{Field: "phaseId", Fetch: func(ctx context.Context) ([]Option, error) {
				return options(ctx, api.Phases, func(p models.Phase) Option {
					return Option{Value: p.ID, Label: fmt.Sprintf("%s (%s)", p.Name, p.Code)}
				})
			}},
		},
		Match: func(i models.Issue, q string) bool {
			return matchAny(q, i.Name, i.Code, refName(i.Phase))
		},
	}
}

func roleDescriptor() *Descriptor[models.Role, models.RoleDraft] {
	return &Descriptor[models.Role, models.RoleDraft]{
		Entity:     "Role",
		ID:         func(r models.Role) string { return r.ID },
		NewDraft:   func() models.RoleDraft { return models.RoleDraft{} },
		FromRecord: models.DraftFromRole,
		Normalize:  models.RoleDraft.Normalize,
		Match: func(r models.Role, q string) bool {
			return matchAny(q, r.Name, r.Description)
		},
	}
}

func refName(r *models.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func companyOptions(api *client.API) func(context.Context) ([]Option, error) {
	return func(ctx context.Context) ([]Option, error) {
		return options(ctx, api.Companies, func(c models.Company) Option {
			return Option{Value: c.ID, Label: c.Name}
		})
	}
}

func roleOptions(api *client.API) func(context.Context) ([]Option, error) {
	return func(ctx context.Context) ([]Option, error) {
		return options(ctx, api.Roles, func(r models.Role) Option {
			return Option{Value: r.Name, Label: r.Name}
		})
	}
}

func options[T any](ctx context.Context, src Lister[T], fn func(T) Option) ([]Option, error) {
	items, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Option, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out, nil
}
