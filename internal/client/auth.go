package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/good-yellow-bee/trackadmin/internal/models"
)

// MsgNotAdmin is returned when a company-scoped account tries to sign in.
const MsgNotAdmin = "You do not have the required permissions to access this application."

// Grant is the credential issued by a successful login.
type Grant struct {
	UserID    string  `json:"userId"`
	Token     string  `json:"token"`
	CompanyID *string `json:"companyId"`
}

// Auth performs the login exchange.
type Auth struct {
	c *Client
}

// NewAuth creates an auth client.
func NewAuth(c *Client) *Auth {
	return &Auth{c: c}
}

// Login exchanges credentials for a bearer token. Accounts bound to a
// company are supervisors and may not use the console.
func (a *Auth) Login(ctx context.Context, username, password string) (*Grant, error) {
	var g Grant
	_, err := a.c.do(ctx, request{
		op:        "Home.authorize",
		method:    http.MethodPost,
		path:      "Home/Authorize",
		body:      map[string]string{"username": username, "password": password},
		anonymous: true,
	}, &g)
	if err != nil {
		// A rejected login is not a session teardown.
		if ce, ok := err.(*Error); ok && ce.Kind == KindUnauthorized {
			ce.Kind, ce.Message = KindValidation, "Login failed. Please check your credentials."
		}
		return nil, err
	}
	if g.Token == "" {
		return nil, &Error{Kind: KindServerError, Op: "Home.authorize", Message: "login returned no token"}
	}
	if g.CompanyID != nil && *g.CompanyID != "" {
		return nil, &Error{Kind: KindForbidden, Op: "Home.authorize", Status: http.StatusForbidden, Message: MsgNotAdmin}
	}
	return &g, nil
}

// Profile fetches the signed-in user's record using an explicit token,
// before a session exists.
func (a *Auth) Profile(ctx context.Context, token, userID string) (models.User, error) {
	var u models.User
	found := false
	_, err := a.c.do(ctx, request{
		op:        "Users.getById",
		method:    http.MethodGet,
		path:      "Users/ViewById",
		query:     url.Values{"Id": {userID}},
		anonymous: true,
		token:     token,
	}, &nullable[models.User]{v: &u, set: &found})
	if err != nil {
		return u, err
	}
	if !found {
		return u, &Error{Kind: KindNotFound, Op: "Users.getById", Message: MsgNotFound}
	}
	return u, nil
}
