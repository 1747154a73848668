package client

import (
	"context"
	"net/http"
	"net/url"
)

// ClaimRoutes names the per-subject permission routes under /Claims.
type ClaimRoutes struct {
	Get      string // e.g. "GetByUser"
	GetParam string // e.g. "userId"
	Assign   string // e.g. "AddToUser"
	IDField  string // body field carrying the subject id, e.g. "userId"
}

var (
	UserClaimRoutes = ClaimRoutes{Get: "GetByUser", GetParam: "userId", Assign: "AddToUser", IDField: "userId"}
	RoleClaimRoutes = ClaimRoutes{Get: "GetByRole", GetParam: "roleId", Assign: "AddToRole", IDField: "roleId"}
)

// Claims reads and replaces permission sets.
type Claims struct {
	c *Client
}

// NewClaims creates a claims client.
func NewClaims(c *Client) *Claims {
	return &Claims{c: c}
}

// Catalog lists every permission name the backend knows.
func (cl *Claims) Catalog(ctx context.Context) ([]string, error) {
	var out []string
	_, err := cl.c.do(ctx, request{op: "Claims.list", method: http.MethodGet, path: "Claims/List"}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the current permission names of one subject.
func (cl *Claims) Get(ctx context.Context, routes ClaimRoutes, id string) ([]string, error) {
	var out []string
	_, err := cl.c.do(ctx, request{
		op:     "Claims." + routes.Get,
		method: http.MethodGet,
		path:   "Claims/" + routes.Get,
		query:  url.Values{routes.GetParam: {id}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Assign replaces the subject's permission set with names.
func (cl *Claims) Assign(ctx context.Context, routes ClaimRoutes, id string, names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	return cl.c.do(ctx, request{
		op:     "Claims." + routes.Assign,
		method: http.MethodPost,
		path:   "Claims/" + routes.Assign,
		body:   map[string]any{routes.IDField: id, "claims": names},
	}, nil)
}

// PermissionClient binds Claims to one subject type.
type PermissionClient struct {
	claims *Claims
	routes ClaimRoutes
}

// Permissions returns the permission client for a subject type.
func (cl *Claims) Permissions(routes ClaimRoutes) *PermissionClient {
	return &PermissionClient{claims: cl, routes: routes}
}

// Catalog lists every permission name.
func (p *PermissionClient) Catalog(ctx context.Context) ([]string, error) {
	return p.claims.Catalog(ctx)
}

// Permissions fetches the subject's current permission names.
func (p *PermissionClient) Permissions(ctx context.Context, id string) ([]string, error) {
	return p.claims.Get(ctx, p.routes, id)
}

// AssignPermissions replaces the subject's permission set.
func (p *PermissionClient) AssignPermissions(ctx context.Context, id string, names []string) (string, error) {
	return p.claims.Assign(ctx, p.routes, id, names)
}
