package core

import "errors"

// ColumnType is the declared value type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeLink
)

// String returns the lowercase type name.
func (t ColumnType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeLink:
		return "link"
	default:
		return "string"
	}
}

// ParseColumnType converts a type name to a ColumnType. Unknown names map to
// TypeString.
func ParseColumnType(s string) ColumnType {
	switch s {
	case "number", "numeric":
		return TypeNumber
	case "boolean", "bool":
		return TypeBoolean
	case "date":
		return TypeDate
	case "link":
		return TypeLink
	default:
		return TypeString
	}
}

// Width defaults, in layout units. The web host draws them as pixels and the
// terminal host at ten units per cell.
const (
	DefaultColumnWidth = 150
	MinColumnWidth     = 50
)

// CellRenderer produces a renderable fragment for a row. The core never
// calls or inspects it; it is handed to the Renderer with the row.
type CellRenderer any

// Column defines one table column.
type Column struct {
	Key        string     // Unique within the table
	Title      string     // Header text
	Type       ColumnType // Declared value type
	Sortable   bool
	Filterable bool
	Resizable  bool
	Hidden     bool
	Width      int // Declared width; 0 means unset

	// Link columns only.
	OpenInNewTab        bool
	ShowValueAsLinkIcon bool

	// Render is an optional custom cell renderer (opaque to the core).
	Render CellRenderer
}

// Options are the behavior flags supplied by the host.
type Options struct {
	Searchable   bool
	Selectable   bool
	Deletable    bool
	Editable     bool
	Resizable    bool
	Bordered     bool
	StickyHeader bool

	// ScrollX/ScrollY bound the scroll box; 0 means no overflow box.
	ScrollX int
	ScrollY int

	// PageSizeOptions are offered by the size changer.
	PageSizeOptions []int
	ShowSizeChanger bool
	ShowQuickJumper bool
}

// DefaultOptions mirrors the widget's default props: sticky header on,
// everything else off.
func DefaultOptions() Options {
	return Options{
		StickyHeader:    true,
		PageSizeOptions: []int{10, 25, 50, 100},
	}
}

// TableInfo contains display information about a registered table.
type TableInfo struct {
	Key   string // Unique identifier: "employees"
	Group string // Data source group: "Fixtures", "Postgres"
	Label string // Display name
}

// Sentinel errors.
var (
	ErrResizeDisabled = errors.New("column resizing is disabled")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrDragActive     = errors.New("a resize drag is already active")
	ErrTableExists    = errors.New("table already registered")
)
