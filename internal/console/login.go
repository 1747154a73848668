package console

import (
	"context"
	"fmt"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
	"github.com/good-yellow-bee/trackadmin/internal/session"
)

// Login exchanges credentials for a token, fetches the profile and starts
// the session.
func (c *Console) Login(ctx context.Context, username, password string) (session.Session, error) {
	grant, err := c.API.Auth.Login(ctx, username, password)
	if err != nil {
		c.Notifier.Notify(notifier.LevelError, "Session", client.Message(err))
		return session.Session{}, err
	}
	profile, err := c.API.Auth.Profile(ctx, grant.Token, grant.UserID)
	if err != nil {
		c.Notifier.Notify(notifier.LevelError, "Session", client.Message(err))
		return session.Session{}, fmt.Errorf("fetch profile: %w", err)
	}

	s := session.Session{
		Token:    grant.Token,
		UserID:   grant.UserID,
		UserName: profile.UserName,
		FullName: profile.FullName(),
		Email:    profile.Email,
		Role:     profile.RoleName,
	}
	if err := c.Session.Start(s); err != nil {
		return session.Session{}, fmt.Errorf("start session: %w", err)
	}
	c.Notifier.Notify(notifier.LevelSuccess, "Session", "Login successful")
	cur, _ := c.Session.Current()
	return cur, nil
}

// Logout ends the session and discards every loaded collection.
func (c *Console) Logout() error {
	c.Users.List.Reset()
	c.Companies.List.Reset()
	c.Projects.List.Reset()
	c.Phases.List.Reset()
	c.Issues.List.Reset()
	c.Roles.List.Reset()
	return c.Session.End()
}
