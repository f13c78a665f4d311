package core

import (
	"slices"
	"strings"
)

// SortDirection is the direction of the active sort.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts "asc" and "desc" (any case); anything else is
// SortNone.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAsc
	case "desc", "descending":
		return SortDesc
	default:
		return SortNone
	}
}

// SortState is the single active (column, direction) pair. A zero SortState
// means no sort is configured.
type SortState struct {
	Column    string
	Direction SortDirection
}

// Active reports whether a sort should be applied.
func (s SortState) Active() bool {
	return s.Column != "" && s.Direction != SortNone
}

// DirectionFor returns the direction shown on the header of column key.
func (s SortState) DirectionFor(key string) SortDirection {
	if s.Column != key {
		return SortNone
	}
	return s.Direction
}

// Cycle returns the state after a header click on column key:
// none -> asc -> desc -> none on the same column. Clicking a different
// column always starts it at asc.
func (s SortState) Cycle(key string) SortState {
	if s.Column != key {
		return SortState{Column: key, Direction: SortAsc}
	}
	switch s.Direction {
	case SortNone:
		return SortState{Column: key, Direction: SortAsc}
	case SortAsc:
		return SortState{Column: key, Direction: SortDesc}
	default:
		return SortState{}
	}
}

// SortRows returns a stably sorted copy of rows. When the state is inactive
// the input order is returned unchanged.
func SortRows(rows []Row, state SortState) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if !state.Active() {
		return out
	}

	key := state.Column
	desc := state.Direction == SortDesc
	slices.SortStableFunc(out, func(a, b Row) int {
		c := CompareValues(a.Value(key), b.Value(key))
		if desc {
			return -c
		}
		return c
	})
	return out
}

// CompareValues orders two values of the same kind: numbers numerically,
// strings byte-wise (strings.Compare, so uppercase sorts before lowercase),
// booleans false before true, dates chronologically. Values of different
// kinds, and nulls, compare as equal so a stable sort keeps their input order.
func CompareValues(a, b Value) int {
	if a.kind != b.kind {
		return 0
	}
	switch a.kind {
	case KindNumber:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		}
		return 0
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	case KindDate:
		return a.t.Compare(b.t)
	default:
		return 0
	}
}
