package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/trackadmin/internal/present"
	"github.com/good-yellow-bee/trackadmin/internal/session"
)

func newLoginCmd(g *globals) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Exchange credentials for a session token and save the session.

The password is prompted without echo unless --password is given.
Company-scoped accounts are refused: the console is for administrators.

Example:
  trackctl login --username admin@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				var err error
				password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.console.Login(context.Background(), username, password)
			if err != nil {
				return err
			}
			g.printVerbose(cmd.ErrOrStderr(), "session saved to %s", g.cfg.Session.File)
			return g.render(cmd.OutOrStdout(), viewSession(s), func() table { return sessionFields(s) })
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name or email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.console.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openSignedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			s, _ := a.session.Current()
			return g.render(cmd.OutOrStdout(), viewSession(s), func() table { return sessionFields(s) })
		},
	}
}

// sessionView is the printable part of a session. The token is never shown.
type sessionView struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

func viewSession(s session.Session) sessionView {
	return sessionView{
		UserID:    s.UserID,
		UserName:  s.UserName,
		FullName:  s.FullName,
		Email:     s.Email,
		Role:      s.Role,
		StartedAt: s.StartedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func sessionFields(s session.Session) table {
	return fields(
		[]string{"USER ID", "USERNAME", "NAME", "EMAIL", "ROLE", "SIGNED IN", "EXPIRES"},
		[]string{
			s.UserID,
			s.UserName,
			present.OrNA(s.FullName),
			s.Email,
			present.OrNA(s.Role),
			present.FormatDate(s.StartedAt),
			present.FormatDate(s.ExpiresAt),
		},
	)
}

// promptPassword reads a password without echo when in is a terminal,
// otherwise one line of in.
func promptPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		passwordBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(passwordBytes), nil
	}

	reader := bufio.NewReader(in)
	password, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
