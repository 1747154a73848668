package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

// ErrUnsupported is returned when an entity does not expose an operation.
var ErrUnsupported = errors.New("operation not supported for this entity")

// Endpoints names the backend routes of one entity type. Empty routes mark
// unsupported operations.
type Endpoints struct {
	Entity      string // path segment, e.g. "Company"
	List        string // e.g. "ViewAll"
	ByID        string
	ByIDParam   string
	ByCode      string
	ByCodeParam string
	Create      string
	Update      string
	Toggle      string
	ToggleParam string
	History     string
	HistParam   string
}

func (e Endpoints) path(route string) string {
	return e.Entity + "/" + route
}

func (e Endpoints) op(name string) string {
	return e.Entity + "." + name
}

// Resource is the remote client for one entity type.
type Resource[T any] struct {
	c  *Client
	ep Endpoints
}

// NewResource binds endpoints to a client.
func NewResource[T any](c *Client, ep Endpoints) *Resource[T] {
	return &Resource[T]{c: c, ep: ep}
}

// Endpoints returns the routes this resource uses.
func (r *Resource[T]) Endpoints() Endpoints {
	return r.ep
}

// List fetches every record of the entity.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	_, err := r.c.do(ctx, request{
		op:     r.ep.op("list"),
		method: http.MethodGet,
		path:   r.ep.path(r.ep.List),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// GetByID fetches one record by id.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (T, error) {
	return r.getOne(ctx, "getById", r.ep.ByID, r.ep.ByIDParam, id)
}

// GetByCode fetches one record by its human-readable code.
func (r *Resource[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return r.getOne(ctx, "getByCode", r.ep.ByCode, r.ep.ByCodeParam, code)
}

func (r *Resource[T]) getOne(ctx context.Context, name, route, param, key string) (T, error) {
	var out T
	if route == "" {
		return out, ErrUnsupported
	}
	found := false
	_, err := r.c.do(ctx, request{
		op:     r.ep.op(name),
		method: http.MethodGet,
		path:   r.ep.path(route),
		query:  url.Values{param: {key}},
	}, &nullable[T]{v: &out, set: &found})
	if err != nil {
		return out, err
	}
	if !found {
		return out, &Error{Kind: KindNotFound, Op: r.ep.op(name), Status: http.StatusOK, Message: MsgNotFound}
	}
	return out, nil
}

// Create submits a new record and returns the server's copy.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, string, error) {
	return r.mutate(ctx, "create", r.ep.Create, payload)
}

// Update submits changes to an existing record and returns the server's copy.
func (r *Resource[T]) Update(ctx context.Context, payload any) (T, string, error) {
	return r.mutate(ctx, "update", r.ep.Update, payload)
}

func (r *Resource[T]) mutate(ctx context.Context, name, route string, payload any) (T, string, error) {
	var out T
	if route == "" {
		return out, "", ErrUnsupported
	}
	msg, err := r.c.do(ctx, request{
		op:     r.ep.op(name),
		method: http.MethodPost,
		path:   r.ep.path(route),
		body:   payload,
	}, &out)
	return out, msg, err
}

// ToggleStatus flips (or closes) the record's status server-side.
func (r *Resource[T]) ToggleStatus(ctx context.Context, id string) (string, error) {
	if r.ep.Toggle == "" {
		return "", ErrUnsupported
	}
	return r.c.do(ctx, request{
		op:     r.ep.op("toggleStatus"),
		method: http.MethodGet,
		path:   r.ep.path(r.ep.Toggle),
		query:  url.Values{r.ep.ToggleParam: {id}},
	}, nil)
}

// SupportsToggle reports whether the entity has a status toggle route.
func (r *Resource[T]) SupportsToggle() bool {
	return r.ep.Toggle != ""
}

// History fetches the activity log of one record.
func (r *Resource[T]) History(ctx context.Context, id string) ([]models.ActivityEntry, error) {
	if r.ep.History == "" {
		return nil, ErrUnsupported
	}
	var out []models.ActivityEntry
	_, err := r.c.do(ctx, request{
		op:     r.ep.op("history"),
		method: http.MethodGet,
		path:   r.ep.path(r.ep.History),
		query:  url.Values{r.ep.HistParam: {id}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nullable records whether the envelope carried non-null data.
type nullable[T any] struct {
	v   *T
	set *bool
}

func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	*n.set = true
	return json.Unmarshal(data, n.v)
}
