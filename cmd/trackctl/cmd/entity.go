package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/trackadmin/internal/client"
	"github.com/good-yellow-bee/trackadmin/internal/console"
	"github.com/good-yellow-bee/trackadmin/internal/validation"
)

// reportedError marks a failure the console already notified.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// entityDef describes the subcommands of one entity type.
type entityDef[T any, D any] struct {
	use     string // e.g. "companies"
	noun    string // e.g. "company"
	aliases []string
	screen  func(*console.Console) *console.Screen[T, D]
	headers []string
	row     func(T) []string
	title   func(T) string
	// toggle names the status subcommand: "toggle", "close" or "".
	toggle string
}

func newEntityCmd[T any, D any](g *globals, def entityDef[T, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     def.use,
		Aliases: def.aliases,
		Short:   "Manage " + def.use,
	}
	cmd.AddCommand(def.listCmd(g), def.showCmd(g), def.createCmd(g), def.updateCmd(g))
	if def.toggle != "" {
		cmd.AddCommand(def.toggleCmd(g))
	}
	return cmd
}

// run opens the signed-in console and hands fn the entity's screen.
func (def entityDef[T, D]) run(g *globals, cmd *cobra.Command, fn func(ctx context.Context, s *console.Screen[T, D]) error) error {
	a, err := g.openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), def.screen(a.console))
}

func (def entityDef[T, D]) listCmd(g *globals) *cobra.Command {
	var (
		pageSize int
		all      bool
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + def.use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return def.run(g, cmd, func(ctx context.Context, s *console.Screen[T, D]) error {
				if err := s.List.Load(ctx); err != nil {
					return err
				}
				n := pageSize
				if n == 0 {
					n = g.cfg.Console.PageSize
				}
				if all {
					n = 0
				}
				matched := s.List.Filter(search)
				items := matched
				if n > 0 && len(items) > n {
					items = items[:n]
				}
				return g.render(cmd.OutOrStdout(), items, func() table {
					t := table{headers: def.headers}
					for _, it := range items {
						t.rows = append(t.rows, def.row(it))
					}
					if len(items) < len(matched) {
						t.rows = append(t.rows, []string{fmt.Sprintf("(%d of %d shown)", len(items), len(matched))})
					}
					return t
				})
			})
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows to show (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "show every row")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only rows containing this text (case-insensitive)")
	return cmd
}

func (def entityDef[T, D]) showCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|code>",
		Short: "Show one " + def.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return def.run(g, cmd, func(ctx context.Context, s *console.Screen[T, D]) error {
				rec, err := s.Details.Open(ctx, args[0])
				if err != nil {
					return reported(err)
				}
				defer s.Details.Close()
				return g.render(cmd.OutOrStdout(), rec, func() table { return fields(def.headers, def.row(rec)) })
			})
		},
	}
}

// formFlags are shared by create and update.
type formFlags struct {
	fields  []string
	attach  []string
	options bool
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.fields, "field", "f", nil, "set a field, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.attach, "attach", nil, "upload a file with the record (repeatable)")
	cmd.Flags().BoolVar(&f.options, "options", false, "print the choices of select fields and exit")
}

func (def entityDef[T, D]) createCmd(g *globals) *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + def.noun,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return def.run(g, cmd, func(ctx context.Context, s *console.Screen[T, D]) error {
				s.Form.OpenCreate()
				defer s.Form.Close()
				return def.fill(ctx, g, cmd, s, ff)
			})
		},
	}
	ff.register(cmd)
	return cmd
}

func (def entityDef[T, D]) updateCmd(g *globals) *cobra.Command {
	var ff formFlags
	cmd := &cobra.Command{
		Use:   "update <id|code>",
		Short: "Update a " + def.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return def.run(g, cmd, func(ctx context.Context, s *console.Screen[T, D]) error {
				rec, err := def.find(ctx, s, args[0])
				if err != nil {
					return err
				}
				s.Form.OpenEdit(rec, false)
				defer s.Form.Close()
				return def.fill(ctx, g, cmd, s, ff)
			})
		},
	}
	ff.register(cmd)
	return cmd
}

// fill applies the form flags to the open form and submits it.
func (def entityDef[T, D]) fill(ctx context.Context, g *globals, cmd *cobra.Command, s *console.Screen[T, D], ff formFlags) error {
	if ff.options {
		opts, err := s.Form.LoadOptions(ctx)
		if err != nil {
			return reported(err)
		}
		return g.render(cmd.OutOrStdout(), opts, func() table { return optionsTable(opts) })
	}

	var applyErr error
	if err := s.Form.Edit(func(d *D) { applyErr = applyFields(d, ff.fields) }); err != nil {
		return err
	}
	if applyErr != nil {
		return applyErr
	}
	for _, path := range ff.attach {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		err = s.Form.Attach(client.Attachment{Name: filepath.Base(path), Content: data})
		if errors.Is(err, console.ErrUnsupported) {
			return fmt.Errorf("%s records take no attachments", def.noun)
		}
		if err != nil {
			return err
		}
	}

	if err := s.Form.Submit(ctx); err != nil {
		if errs, ok := validation.AsErrors(err); ok {
			for _, fe := range errs.List() {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		return reported(err)
	}
	return nil
}

func (def entityDef[T, D]) toggleCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   def.toggle + " <id|code>",
		Short: strings.ToUpper(def.toggle[:1]) + def.toggle[1:] + " a " + def.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return def.run(g, cmd, func(ctx context.Context, s *console.Screen[T, D]) error {
				rec, err := def.find(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.Toggle.Open(rec); err != nil {
					if errors.Is(err, console.ErrUnsupported) {
						return fmt.Errorf("%s %s is already closed", def.noun, def.title(rec))
					}
					return err
				}
				defer s.Toggle.Close()

				if !yes {
					question := fmt.Sprintf("%s %s %s?", s.Toggle.Action(), def.noun, def.title(rec))
					ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), question)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
						return nil
					}
				}
				return reported(s.Toggle.Confirm(ctx))
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// find loads the list and returns the record whose id or code is key.
func (def entityDef[T, D]) find(ctx context.Context, s *console.Screen[T, D], key string) (T, error) {
	var zero T
	if err := s.List.Load(ctx); err != nil {
		return zero, err
	}
	if rec, ok := s.List.Get(key); ok {
		return rec, nil
	}
	for _, rec := range s.List.Items() {
		if s.Key(rec) == key {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("%s %q not found", def.noun, key)
}

// applyFields sets draft fields from key=value pairs, keyed by their JSON
// names. Unknown keys are rejected.
func applyFields[D any](draft *D, pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	patch := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return fmt.Errorf("invalid --field %q, want key=value", p)
		}
		if k == "id" || k == "documents" {
			return fmt.Errorf("field %q cannot be set", k)
		}
		patch[k] = v
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(draft); err != nil {
		return fmt.Errorf("apply fields: %w", err)
	}
	return nil
}

func optionsTable(opts map[string][]console.Option) table {
	t := table{headers: []string{"FIELD", "VALUE", "LABEL"}}
	names := make([]string, 0, len(opts))
	for k := range opts {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, o := range opts[k] {
			t.rows = append(t.rows, []string{k, o.Value, o.Label})
		}
	}
	return t
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
