package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/trackadmin/internal/console"
	"github.com/good-yellow-bee/trackadmin/internal/models"
	"github.com/good-yellow-bee/trackadmin/internal/present"
)

func newUsersCmd(g *globals) *cobra.Command {
	def := entityDef[models.User, models.UserDraft]{
		use:     "users",
		noun:    "user",
		aliases: []string{"user"},
		screen:  func(c *console.Console) *console.Screen[models.User, models.UserDraft] { return c.Users },
		headers: []string{"ID", "NAME", "EMAIL", "ROLE", "COMPANY", "STATUS", "CREATED"},
		row: func(u models.User) []string {
			return []string{
				u.ID,
				truncate(u.FullName(), 28),
				u.Email,
				present.OrNA(u.RoleName),
				present.OrNA(u.CompanyName),
				g.paint(present.ActiveClass(u.IsActive), present.ActiveLabel(u.IsActive)),
				present.FormatDate(u.CreatedAt.Time),
			}
		},
		title:  func(u models.User) string { return u.FullName() },
		toggle: "toggle",
	}
	cmd := newEntityCmd(g, def)
	cmd.AddCommand(newPermissionsCmd(g, "user", func(c *console.Console) *console.PermissionModal { return c.Users.Permissions }))
	return cmd
}

func newCompaniesCmd(g *globals) *cobra.Command {
	def := entityDef[models.Company, models.CompanyDraft]{
		use:     "companies",
		noun:    "company",
		aliases: []string{"company"},
		screen:  func(c *console.Console) *console.Screen[models.Company, models.CompanyDraft] { return c.Companies },
		headers: []string{"ID", "CODE", "NAME", "PREFIX", "EMAIL", "PHONE", "STATUS", "CREATED"},
		row: func(co models.Company) []string {
			return []string{
				co.ID,
				present.OrNA(co.Code),
				truncate(co.Name, 28),
				co.NamePrefix,
				co.Email,
				co.PhoneNumber,
				g.paint(present.ActiveClass(co.IsActive), present.ActiveLabel(co.IsActive)),
				present.FormatDate(co.CreatedAt.Time),
			}
		},
		title:  func(co models.Company) string { return co.Name },
		toggle: "toggle",
	}
	cmd := newEntityCmd(g, def)
	cmd.AddCommand(newHistoryCmd(g))
	return cmd
}

func newProjectsCmd(g *globals) *cobra.Command {
	return newEntityCmd(g, entityDef[models.Project, models.ProjectDraft]{
		use:     "projects",
		noun:    "project",
		aliases: []string{"project"},
		screen:  func(c *console.Console) *console.Screen[models.Project, models.ProjectDraft] { return c.Projects },
		headers: []string{"ID", "CODE", "NAME", "COMPANY", "STATUS", "CREATED"},
		row: func(p models.Project) []string {
			return []string{
				p.ID,
				p.Code,
				truncate(p.Name, 28),
				models.RefName(p.Company),
				g.paint(present.StatusClass(p.Status), present.StatusLabel(p.Status)),
				present.FormatDate(p.CreatedAt.Time),
			}
		},
		title:  func(p models.Project) string { return p.Code },
		toggle: "close",
	})
}

func newPhasesCmd(g *globals) *cobra.Command {
	return newEntityCmd(g, entityDef[models.Phase, models.PhaseDraft]{
		use:     "phases",
		noun:    "phase",
		aliases: []string{"phase"},
		screen:  func(c *console.Console) *console.Screen[models.Phase, models.PhaseDraft] { return c.Phases },
		headers: []string{"ID", "CODE", "NAME", "PROJECT", "COMPANY", "STATUS", "CREATED"},
		row: func(p models.Phase) []string {
			return []string{
				p.ID,
				p.Code,
				truncate(p.Name, 28),
				models.RefName(p.Project),
				models.RefName(p.Company),
				g.paint(present.StatusClass(p.Status), present.StatusLabel(p.Status)),
				present.FormatDate(p.CreatedAt.Time),
			}
		},
		title:  func(p models.Phase) string { return p.Code },
		toggle: "close",
	})
}

func newIssuesCmd(g *globals) *cobra.Command {
	return newEntityCmd(g, entityDef[models.Issue, models.IssueDraft]{
		use:     "issues",
		noun:    "issue",
		aliases: []string{"issue"},
		screen:  func(c *console.Console) *console.Screen[models.Issue, models.IssueDraft] { return c.Issues },
		headers: []string{"ID", "CODE", "NAME", "PHASE", "SEVERITY", "STATUS", "CREATED"},
		row: func(i models.Issue) []string {
			return []string{
				i.ID,
				i.Code,
				truncate(i.Name, 28),
				models.RefName(i.Phase),
				g.paint(present.SeverityClass(i.Severity), string(i.Severity)),
				g.paint(present.IssueStatusClass(i.Status), string(i.Status)),
				present.FormatDate(i.CreatedAt.Time),
			}
		},
		title:  func(i models.Issue) string { return i.Code },
		toggle: "close",
	})
}

func newRolesCmd(g *globals) *cobra.Command {
	cmd := newEntityCmd(g, entityDef[models.Role, models.RoleDraft]{
		use:     "roles",
		noun:    "role",
		aliases: []string{"role"},
		screen:  func(c *console.Console) *console.Screen[models.Role, models.RoleDraft] { return c.Roles },
		headers: []string{"ID", "NAME", "DESCRIPTION", "CREATED"},
		row: func(r models.Role) []string {
			return []string{r.ID, r.Name, truncate(r.Description, 40), present.FormatDate(r.CreatedAt.Time)}
		},
		title: func(r models.Role) string { return r.Name },
	})
	cmd.AddCommand(newPermissionsCmd(g, "role", func(c *console.Console) *console.PermissionModal { return c.Roles.Permissions }))
	return cmd
}

func newPermissionsCmd(g *globals, noun string, modal func(*console.Console) *console.PermissionModal) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Show or replace a " + noun + "'s permissions",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show the catalog with the " + noun + "'s permissions marked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openSignedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			m := modal(a.console)
			if err := m.Open(cmd.Context(), args[0]); err != nil {
				return reported(err)
			}
			defer m.Close()

			selected := models.NewPermissionSet(m.Selected()...)
			out := struct {
				Catalog  []string `json:"catalog"`
				Assigned []string `json:"assigned"`
			}{m.Catalog(), selected.Names()}
			return g.render(cmd.OutOrStdout(), out, func() table {
				t := table{headers: []string{"PERMISSION", "ASSIGNED"}}
				for _, name := range out.Catalog {
					mark := ""
					if selected.Has(name) {
						mark = "yes"
					}
					t.rows = append(t.rows, []string{name, mark})
				}
				return t
			})
		},
	}

	var clearAll bool
	set := &cobra.Command{
		Use:   "set <id> [permission...]",
		Short: "Replace the " + noun + "'s permissions with the given names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args[1:]
			if len(names) == 0 && !clearAll {
				return fmt.Errorf("no permissions given; pass --clear to remove them all")
			}
			a, err := g.openSignedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			m := modal(a.console)
			ctx := cmd.Context()
			if err := m.Open(ctx, args[0]); err != nil {
				return reported(err)
			}
			defer m.Close()
			if err := m.SetSelected(names...); err != nil {
				return err
			}
			if !m.Changed() {
				g.printVerbose(cmd.ErrOrStderr(), "permissions unchanged; submitting anyway")
			}
			return reported(m.Submit(ctx))
		},
	}
	set.Flags().BoolVar(&clearAll, "clear", false, "allow an empty permission set")

	cmd.AddCommand(get, set)
	return cmd
}

func newHistoryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show a company's activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openSignedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return showHistory(cmd.Context(), g, cmd, a.console.Companies.History, args[0])
		},
	}
}

func showHistory(ctx context.Context, g *globals, cmd *cobra.Command, v *console.DetailViewer[[]models.ActivityEntry], id string) error {
	entries, err := v.Open(ctx, id)
	if err != nil {
		return reported(err)
	}
	defer v.Close()
	return g.render(cmd.OutOrStdout(), entries, func() table {
		t := table{headers: []string{"WHEN", "USER", "SUMMARY"}}
		for _, e := range entries {
			t.rows = append(t.rows, []string{present.FormatDate(e.CreatedAt.Time), present.OrNA(e.User), e.Summary})
		}
		return t
	})
}
