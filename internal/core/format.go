package core

import "strings"

// DisplayDateLayout renders dates as DD/MM/YYYY.
const DisplayDateLayout = "02/01/2006"

// NotAvailable is shown for empty cells.
const NotAvailable = "N/A"

// LinkField is the row field holding the href for link columns.
const LinkField = "link"

// FormatCell returns the display text for a cell value in a column of the
// given type.
func FormatCell(v Value, typ ColumnType) string {
	switch v.Kind() {
	case KindNull:
		return NotAvailable
	case KindBool:
		if b, _ := v.Boolean(); b {
			return "Yes"
		}
		return "No"
	case KindDate:
		t, _ := v.Time()
		return t.Format(DisplayDateLayout)
	case KindString:
		s, _ := v.Str()
		if s == "" {
			return NotAvailable
		}
		if typ == TypeDate {
			if parsed := ParseValue(s, TypeDate); parsed.Kind() == KindDate {
				t, _ := parsed.Time()
				return t.Format(DisplayDateLayout)
			}
		}
		return s
	default:
		return v.String()
	}
}

// Cell is a formatted cell ready for a renderer.
type Cell struct {
	Key   string
	Type  ColumnType
	Value Value
	Text  string

	// Link columns only.
	Href      string
	NewTab    bool
	IconOnly  bool
	Highlight []Segment // Text split on the search term; string columns only
}

// FormatRow formats the cells of row for the given visible columns.
// Search matches are highlighted in string cells when search is non-empty.
func FormatRow(r Row, cols []ViewColumn, search string) []Cell {
	cells := make([]Cell, len(cols))
	for i, col := range cols {
		v := r.Value(col.Key)
		c := Cell{
			Key:   col.Key,
			Type:  col.Type,
			Value: v,
			Text:  FormatCell(v, col.Type),
		}
		switch col.Type {
		case TypeLink:
			c.Href = strings.TrimSpace(r.Value(LinkField).String())
			c.NewTab = col.OpenInNewTab
			c.IconOnly = col.ShowValueAsLinkIcon
		case TypeString:
			if v.Kind() == KindString {
				c.Highlight = Highlight(c.Text, search)
			}
		}
		cells[i] = c
	}
	return cells
}
