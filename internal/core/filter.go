package core

// filter.go implements the filter stage: a free-text search across string
// fields, then structured per-column filters combined with AND.
//
// The predicate for a structured filter is chosen by the runtime kind of the
// filter value, not by the column declaration. Filter forms produce a bool
// for boolean columns and text for everything else; a value of any other
// kind contributes no constraint.

import (
	"sort"
	"strings"
)

// FilterSet maps a column key to its constraint value. A missing key means
// no constraint on that column.
type FilterSet map[string]Value

// Keys returns the filtered column keys in sorted order.
func (fs FilterSet) Keys() []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of fs.
func (fs FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// ApplyFilters returns the rows that match searchTerm and every filter in
// filters, preserving input order. The input slice is not modified.
func ApplyFilters(rows []Row, searchTerm string, filters FilterSet) []Row {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if term != "" && !matchesSearch(r, term) {
			continue
		}
		if !matchesFilters(r, filters) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesSearch reports whether any string field of r contains term,
// case-insensitively, after trimming. An empty term matches every row.
func MatchesSearch(r Row, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return matchesSearch(r, term)
}

// matchesSearch expects term already trimmed and lowercased.
func matchesSearch(r Row, term string) bool {
	for _, f := range r.fields {
		s, ok := f.Value.Str()
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func matchesFilters(r Row, filters FilterSet) bool {
	for key, want := range filters {
		if !matchesFilter(r, key, want) {
			return false
		}
	}
	return true
}

// matchesFilter evaluates a single structured constraint.
func matchesFilter(r Row, key string, want Value) bool {
	switch want.Kind() {
	case KindBool:
		got, ok := r.Get(key)
		return ok && got.Equal(want)

	case KindString:
		needle := strings.ToLower(strings.TrimSpace(want.s))
		if needle == "" {
			return true
		}
		got, ok := r.Get(key)
		if !ok || got.IsNull() {
			return false
		}
		return strings.Contains(strings.ToLower(got.String()), needle)

	case KindNumber:
		got, ok := r.Get(key)
		if !ok || got.IsNull() {
			return false
		}
		return strings.Contains(got.String(), formatNumber(want.n))

	default:
		// Dates and nulls have no filter predicate.
		return true
	}
}
