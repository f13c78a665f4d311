package core

import "fmt"

// ColumnState is the live column metadata: per-column visibility and
// resolved widths, plus the pending visibility draft edited by the
// show/hide form.
type ColumnState struct {
	columns []Column
	widths  map[string]int  // user-resized widths
	draft   map[string]bool // proposed hidden flags; nil when no draft is open
}

// NewColumnState copies cols into a fresh state.
func NewColumnState(cols []Column) *ColumnState {
	c := &ColumnState{
		columns: make([]Column, len(cols)),
		widths:  make(map[string]int),
	}
	copy(c.columns, cols)
	return c
}

// All returns every column, hidden ones included, in declaration order.
func (c *ColumnState) All() []Column {
	out := make([]Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// Visible returns the columns that are not hidden.
func (c *ColumnState) Visible() []Column {
	out := make([]Column, 0, len(c.columns))
	for _, col := range c.columns {
		if !col.Hidden {
			out = append(out, col)
		}
	}
	return out
}

// Lookup returns the column with the given key.
func (c *ColumnState) Lookup(key string) (Column, bool) {
	if i := c.index(key); i >= 0 {
		return c.columns[i], true
	}
	return Column{}, false
}

// Width returns the effective width of column key: the resized width, then
// the declared width, then DefaultColumnWidth.
func (c *ColumnState) Width(key string) int {
	if w, ok := c.widths[key]; ok {
		return w
	}
	if i := c.index(key); i >= 0 && c.columns[i].Width > 0 {
		return c.columns[i].Width
	}
	return DefaultColumnWidth
}

// SetWidth stores a resolved width for column key, floored at MinColumnWidth.
func (c *ColumnState) SetWidth(key string, w int) error {
	if c.index(key) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	c.widths[key] = w
	return nil
}

// Draft returns the pending visibility form: column key -> hidden. If no
// draft is open, the live flags are returned.
func (c *ColumnState) Draft() map[string]bool {
	out := make(map[string]bool, len(c.columns))
	for _, col := range c.columns {
		out[col.Key] = col.Hidden
	}
	for k, v := range c.draft {
		out[k] = v
	}
	return out
}

// ProposeHidden records a pending hidden flag for column key without
// changing the live metadata.
func (c *ColumnState) ProposeHidden(key string, hidden bool) error {
	if c.index(key) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if c.draft == nil {
		c.draft = make(map[string]bool)
	}
	c.draft[key] = hidden
	return nil
}

// ApplyVisibility commits the draft to the live metadata and closes it.
func (c *ColumnState) ApplyVisibility() {
	for i := range c.columns {
		if hidden, ok := c.draft[c.columns[i].Key]; ok {
			c.columns[i].Hidden = hidden
		}
	}
	c.draft = nil
}

// ResetVisibility shows every column and discards the draft.
func (c *ColumnState) ResetVisibility() {
	for i := range c.columns {
		c.columns[i].Hidden = false
	}
	c.draft = nil
}

func (c *ColumnState) index(key string) int {
	for i := range c.columns {
		if c.columns[i].Key == key {
			return i
		}
	}
	return -1
}

// WithDefaultWidth returns a copy of cols where columns without a declared
// width get w. A non-positive w leaves them unset.
func WithDefaultWidth(cols []Column, w int) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)
	if w <= 0 {
		return out
	}
	for i := range out {
		if out[i].Width == 0 {
			out[i].Width = w
		}
	}
	return out
}
