package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/trackadmin/internal/fakeapi"
	buildinfo "github.com/good-yellow-bee/trackadmin/pkg/config"
)

func newServeFakeCmd(g *globals) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve-fake",
		Short: "Run an in-memory backend",
		Long: `Run an in-memory implementation of the backend for local testing.

The server speaks the same routes and envelope as the real service, seeds
one administrator (fake.admin_email / fake.admin_password), and exposes
Prometheus metrics at fake.metrics_path.

Example:
  TRACKADMIN_FAKE_JWT_SECRET=dev TRACKADMIN_FAKE_ADMIN_PASSWORD=changeme1 trackctl serve-fake`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if address != "" {
				cfg.Fake.Address = address
			}
			if err := cfg.ValidateFake(); err != nil {
				return err
			}

			srv, err := fakeapi.New(fakeapi.Config{
				Address:          cfg.Fake.Address,
				JWTSecret:        []byte(cfg.Fake.JWTSecret),
				TokenTTL:         cfg.Fake.TokenTTL,
				AdminEmail:       cfg.Fake.AdminEmail,
				AdminPassword:    cfg.Fake.AdminPassword,
				LockoutThreshold: cfg.Fake.LockoutThreshold,
				LockoutDuration:  cfg.Fake.LockoutDuration,
				MetricsPath:      cfg.Fake.MetricsPath,
				Logger:           g.logger,
			})
			if err != nil {
				return fmt.Errorf("create fake backend: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(); err != nil {
				srv.Close()
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s serving fake backend on %s (admin %s)\n",
				buildinfo.ShortVersionString(), cfg.Fake.Address, cfg.Fake.AdminEmail)

			<-ctx.Done()
			fmt.Fprintln(cmd.ErrOrStderr(), "shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides fake.address)")
	return cmd
}
