package application

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/datatable/internal/core"
)

// pxPerCell converts column widths to terminal cells.
const pxPerCell = 10

// Styles groups the lipgloss styles used to draw a table.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	HeaderOn lipgloss.Style // header of the cursor column
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Match    lipgloss.Style
	Muted    lipgloss.Style
	Toolbar  lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
}

// DefaultStyles returns the stock color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Header:   lipgloss.NewStyle().Bold(true),
		HeaderOn: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("63")),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Match:    lipgloss.NewStyle().Background(lipgloss.Color("220")).Foreground(lipgloss.Color("0")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Toolbar:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}

// Renderer draws a core.View as terminal text. CursorRow indexes the page
// rows and CursorCol the visible columns; -1 disables either.
type Renderer struct {
	Styles    Styles
	Title     string
	CursorRow int
	CursorCol int
}

// RenderView implements core.Renderer.
func (r Renderer) RenderView(_ context.Context, w io.Writer, v core.View) error {
	_, err := io.WriteString(w, r.Render(v))
	return err
}

// Render returns the table as a string.
func (r Renderer) Render(v core.View) string {
	var b strings.Builder

	title := r.Styles.Title.Render(r.Title)
	if v.Search != "" {
		title += " " + r.Styles.Muted.Render(fmt.Sprintf("search: %q", v.Search))
	}
	if len(v.Filters) > 0 {
		title += " " + r.Styles.Muted.Render(fmt.Sprintf("filters: %d", len(v.Filters)))
	}
	if v.Loading {
		title += " " + r.Styles.Muted.Render("loading...")
	}
	b.WriteString(title + "\n")

	if v.ShowDeleteSelected {
		b.WriteString(r.Styles.Toolbar.Render(fmt.Sprintf("Rows Selected (%d of %d)", v.Selected, v.StoreSize)))
		b.WriteString(r.Styles.Muted.Render("  X delete"))
		b.WriteString("\n")
	}
	if pending := draftHidden(v); len(pending) > 0 {
		b.WriteString(r.Styles.Muted.Render("hide on apply: " + strings.Join(pending, ", ") + " (H apply, r reset)"))
		b.WriteString("\n")
	}

	if v.Empty {
		b.WriteString("\n" + r.Styles.Muted.Render("No data") + "\n")
		return b.String()
	}

	b.WriteString(r.header(v) + "\n")
	for i, row := range v.Rows {
		b.WriteString(r.row(v, i, row) + "\n")
	}

	if v.Page.Page > 0 {
		p := v.Page
		b.WriteString(r.Styles.Muted.Render(fmt.Sprintf("%d-%d of %d items · page %d/%d · %d per page",
			p.RangeStart, p.RangeEnd, p.Total, p.Page, p.TotalPages, p.PageSize)))
	} else {
		b.WriteString(r.Styles.Muted.Render(fmt.Sprintf("%d items", v.Page.Total)))
	}
	b.WriteString("\n")
	return b.String()
}

func (r Renderer) header(v core.View) string {
	parts := make([]string, 0, len(v.Columns)+1)
	if v.Options.Selectable {
		box := "[ ]"
		switch {
		case v.AllSelected:
			box = "[x]"
		case v.Indeterminate:
			box = "[-]"
		}
		parts = append(parts, box)
	}
	for i, c := range v.Columns {
		title := c.Title
		switch c.Sort {
		case core.SortAsc:
			title += " ▲"
		case core.SortDesc:
			title += " ▼"
		}
		text := fit(title, cells(c.Width))
		if i == r.CursorCol {
			parts = append(parts, r.Styles.HeaderOn.Render(text))
		} else {
			parts = append(parts, r.Styles.Header.Render(text))
		}
	}
	return strings.Join(parts, " ")
}

func (r Renderer) row(v core.View, i int, row core.ViewRow) string {
	parts := make([]string, 0, len(v.Columns)+1)
	if v.Options.Selectable {
		if row.Selected {
			parts = append(parts, "[x]")
		} else {
			parts = append(parts, "[ ]")
		}
	}

	onRow := i == r.CursorRow
	for j, cell := range core.FormatRow(row.Row, v.Columns, v.Search) {
		text := fit(cellText(cell), cells(v.Columns[j].Width))
		switch {
		case onRow && j == r.CursorCol:
			parts = append(parts, r.Styles.Cursor.Render(text))
		case len(cell.Highlight) > 1:
			parts = append(parts, r.highlight(text, v.Search))
		default:
			parts = append(parts, text)
		}
	}

	line := strings.Join(parts, " ")
	if row.Selected {
		line = r.Styles.Selected.Render(line)
	}
	if onRow {
		line = "›" + line
	} else {
		line = " " + line
	}
	return line
}

// highlight styles search matches in already fitted text.
func (r Renderer) highlight(text, term string) string {
	var b strings.Builder
	for _, seg := range core.Highlight(text, term) {
		if seg.Match {
			b.WriteString(r.Styles.Match.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func cellText(c core.Cell) string {
	if c.Type == core.TypeLink && c.Href != "" {
		if c.IconOnly {
			return "↗"
		}
		return c.Text + " ↗"
	}
	return c.Text
}

func draftHidden(v core.View) []string {
	var out []string
	for _, c := range v.AllColumns {
		if c.DraftHidden && !c.Hidden {
			out = append(out, c.Title)
		}
	}
	return out
}

// cells converts a column width to terminal cells.
func cells(width int) int {
	n := width / pxPerCell
	if n < core.MinColumnWidth/pxPerCell {
		n = core.MinColumnWidth / pxPerCell
	}
	return n
}

// fit truncates or pads s to exactly n cells.
func fit(s string, n int) string {
	w := lipgloss.Width(s)
	if w <= n {
		return s + strings.Repeat(" ", n-w)
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	out := string(runes) + "…"
	return out + strings.Repeat(" ", n-lipgloss.Width(out))
}
