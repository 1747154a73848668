// Package cmd contains the CLI commands for trackctl.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/trackadmin/internal/config"
)

// envFiles are loaded, when present, before environment overrides apply.
var envFiles = []string{".env", ".env.local"}

// globals holds the persistent flags and what PersistentPreRunE derives
// from them.
type globals struct {
	configFile string
	baseURL    string
	output     string
	verbose    bool
	color      bool

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "trackctl",
		Short: "trackctl - project-tracking admin console",
		Long: `trackctl manages the records of the project-tracking backend:
users, companies, projects, phases, issues and roles.

Every command drives the same controllers an admin screen would: lists
load with last-resolved-wins semantics, forms validate before any request
is made, and a 401/403 from the backend ends the saved session.

Examples:
  # Sign in (the password is prompted)
  trackctl login --username admin@example.com

  # List companies as JSON
  trackctl companies list -o json

  # Create a project with an attachment
  trackctl projects create --field name=Portal --field description="Customer portal" \
      --field companyId=<id> --field supervisorId=<id> --attach spec.pdf

  # Run an in-memory backend for local testing
  trackctl serve-fake`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default trackadmin.yaml if present)")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "backend base url (overrides config)")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newLoginCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newServeFakeCmd(g),
		newVersionCmd(g),
		newUsersCmd(g),
		newCompaniesCmd(g),
		newProjectsCmd(g),
		newPhasesCmd(g),
		newIssuesCmd(g),
		newRolesCmd(g),
	)
	return root
}

// Execute runs the command tree. It is called by main.main().
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		var re reportedError
		if !errors.As(err, &re) {
			PrintError(root.ErrOrStderr(), err.Error())
		}
		return err
	}
	return nil
}

func (g *globals) init(cmd *cobra.Command) error {
	if g.output != "table" && g.output != "json" {
		return fmt.Errorf("unknown output format %q (want table or json)", g.output)
	}
	path, required := g.configFile, true
	if path == "" {
		path, required = "trackadmin.yaml", false
	}
	cfg, err := config.Load(path, required, envFiles...)
	if err != nil {
		return err
	}
	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	g.cfg = cfg
	g.color = g.output == "table" && isTerminal(cmd.OutOrStdout())
	g.logger = newLogger(cmd.ErrOrStderr(), cfg.Log, g.verbose)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.WarnLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, "Error:", msg)
}

// printVerbose prints a message only if verbose mode is enabled.
func (g *globals) printVerbose(w io.Writer, format string, args ...any) {
	if g.verbose {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
