package core

import "sort"

// Selection is the set of selected row ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// ToggleAll clears the selection when it already covers every id in
// storeIDs, and otherwise adds all of them.
func (s *Selection) ToggleAll(storeIDs []string) {
	if len(s.ids) == len(storeIDs) {
		s.Clear()
		return
	}
	for _, id := range storeIDs {
		s.ids[id] = struct{}{}
	}
}

// Add selects every id in ids.
func (s *Selection) Add(ids ...string) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Remove deselects every id in ids.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Retain drops every selected id for which keep returns false.
func (s *Selection) Retain(keep func(id string) bool) {
	for id := range s.ids {
		if !keep(id) {
			delete(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AllSelected reports whether the selection size equals the store size.
// Note this is true for an empty store with an empty selection.
func (s *Selection) AllSelected(storeLen int) bool {
	return len(s.ids) == storeLen
}

// Indeterminate reports a partial selection: some but not all rows.
func (s *Selection) Indeterminate(storeLen int) bool {
	return len(s.ids) > 0 && len(s.ids) < storeLen
}
