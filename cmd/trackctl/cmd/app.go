package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/console"
	"github.com/good-yellow-bee/trackadmin/internal/notifier"
	"github.com/good-yellow-bee/trackadmin/internal/session"
	buildinfo "github.com/good-yellow-bee/trackadmin/pkg/config"
)

var errNotLoggedIn = errors.New("not logged in; run `trackctl login` first")

// app is the console wired for one command invocation.
type app struct {
	session  *session.Manager
	console  *console.Console
	notifier *notifier.Dispatcher
}

// openApp restores the saved session and wires the console against the
// configured backend. Notifications print to the command's stderr.
func (g *globals) openApp(cmd *cobra.Command) (*app, error) {
	cfg := g.cfg
	sess := session.NewManager(
		session.WithStore(session.NewFileStore(cfg.Session.File)),
		session.WithLogger(g.logger),
	)
	if err := sess.Restore(); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	c, err := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.Timeout),
		client.WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst),
		client.WithSession(sess),
		client.WithUserAgent(buildinfo.UserAgent()),
		client.WithLogger(g.logger),
	)
	if err != nil {
		return nil, err
	}

	d := notifier.NewDispatcherWithRateLimit(notifier.RateLimitConfig{
		PerSecond: cfg.Notifications.PerSecond,
		Burst:     cfg.Notifications.Burst,
		Enabled:   !cfg.Notifications.Unlimited,
	})
	d.Register(notifier.NewWriterNotifier(cmd.ErrOrStderr()))
	if g.verbose {
		d.Register(notifier.NewLogNotifier(g.logger))
	}

	con := console.New(client.NewAPI(c), sess, d, console.Options{
		PageSize:     cfg.Console.PageSize,
		PatchInPlace: cfg.Console.PatchInPlace,
		Logger:       g.logger,
	})
	return &app{session: sess, console: con, notifier: d}, nil
}

// openSignedIn is openApp for commands that need a session.
func (g *globals) openSignedIn(cmd *cobra.Command) (*app, error) {
	a, err := g.openApp(cmd)
	if err != nil {
		return nil, err
	}
	if _, ok := a.session.Current(); !ok {
		a.Close()
		return nil, errNotLoggedIn
	}
	return a, nil
}

func (a *app) Close() {
	a.console.Close()
	_ = a.notifier.Close()
}
