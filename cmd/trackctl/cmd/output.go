package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/good-yellow-bee/trackadmin/internal/present"
)

// table is a rendered list: one header row and one row per record.
type table struct {
	headers []string
	rows    [][]string
}

func (t table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.headers, "\t"))
	for _, r := range t.rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// render prints v as indented JSON, or the table produced by tbl.
func (g *globals) render(w io.Writer, v any, tbl func() table) error {
	if g.output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return tbl().write(w)
}

// fields renders one record as aligned "KEY  value" lines.
func fields(headers, values []string) table {
	t := table{headers: []string{"FIELD", "VALUE"}}
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.rows = append(t.rows, []string{h, v})
	}
	return t
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}

// paint colors a status label when printing a table to a terminal.
func (g *globals) paint(c present.Class, label string) string {
	if !g.color {
		return label
	}
	return present.Colorize(c, label)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
