// Package view renders console pages as terminal tables or JSON.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"slotconsole/internal/collection"
	"slotconsole/internal/pagination"
	slotsdk "slotconsole/sdk/go"
)

// Printer writes pages to Out. With JSON set every page prints its data as
// indented JSON instead of tables.
type Printer struct {
	Out  io.Writer
	JSON bool
	r    *lipgloss.Renderer
}

// New returns a printer. Colours follow the terminal capabilities of out.
func New(out io.Writer, jsonMode bool) *Printer {
	return &Printer{Out: out, JSON: jsonMode, r: lipgloss.NewRenderer(out)}
}

// PrintJSON writes v as indented JSON.
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) Badge(label string, v Variant) string {
	if label == "" {
		label = "-"
	}
	return p.r.NewStyle().Foreground(variantColors[v]).Bold(true).Render("[" + label + "]")
}

func (p *Printer) Title(s string) {
	fmt.Fprintln(p.Out, p.r.NewStyle().Bold(true).Underline(true).Render(s))
}

func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Info prints an informational line, used for empty results.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.Out, p.r.NewStyle().Foreground(variantColors[Info]).Render("i "+msg))
}

func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.Out, p.r.NewStyle().Foreground(variantColors[Danger]).Render("Fehler: "+msg))
}

// Feedback prints an action outcome; failures in red.
func (p *Printer) Feedback(f collection.Feedback) error {
	if p.JSON {
		out := map[string]any{"ok": f.OK(), "message": f.Message}
		return p.PrintJSON(out)
	}
	if !f.OK() {
		p.Error(f.Message)
		return nil
	}
	if f.Message != "" {
		fmt.Fprintln(p.Out, p.r.NewStyle().Foreground(variantColors[Success]).Render(f.Message))
	}
	return nil
}

// Pager renders the pagination bar with the current page in brackets.
func (p *Printer) Pager(current, total int) {
	if total <= 1 {
		return
	}
	fmt.Fprintln(p.Out, PagerLine(current, total))
}

// PagerLine is the text of the pagination bar, e.g.
// "« 1 ... 8 9 [10] 11 12 ... 20 »  Seite 10 von 20".
func PagerLine(current, total int) string {
	items := pagination.Window(current, total)
	parts := make([]string, 0, len(items)+2)
	parts = append(parts, "«")
	for _, it := range items {
		if !it.Gap && it.Page == current {
			parts = append(parts, "["+it.String()+"]")
			continue
		}
		parts = append(parts, it.String())
	}
	parts = append(parts, "»")
	return fmt.Sprintf("%s  Seite %d von %d", strings.Join(parts, " "), current, total)
}

func (p *Printer) table(header table.Row, rows []table.Row) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.Out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
}

// keyValues renders a two-column detail table.
func (p *Printer) keyValues(rows [][2]any) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.Out)
	tw.SetStyle(table.StyleLight)
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	tw.Render()
}

type pageJSON[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Error      string `json:"error,omitempty"`
}

// renderPage prints one collection page: an inline error, an empty-state
// line or the table followed by the pager.
func renderPage[T any](p *Printer, page collection.Page[T], fallback, empty string, header table.Row, row func(T) table.Row) error {
	if p.JSON {
		out := pageJSON[T]{Items: page.Items, Page: page.Current, TotalPages: page.TotalPages}
		if out.Items == nil {
			out.Items = []T{}
		}
		if page.Err != nil {
			out.Error = slotsdk.MessageOr(page.Err, fallback)
		}
		return p.PrintJSON(out)
	}
	if page.Err != nil {
		p.Error(slotsdk.MessageOr(page.Err, fallback))
		return nil
	}
	if len(page.Items) == 0 {
		p.Info(empty)
		return nil
	}
	rows := make([]table.Row, 0, len(page.Items))
	for _, it := range page.Items {
		rows = append(rows, row(it))
	}
	p.table(header, rows)
	p.Pager(page.Current, page.TotalPages)
	return nil
}
