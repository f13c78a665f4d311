package core

// RowStore holds the canonical row collection keyed by row identifier.
// Row order is insertion order; the index maps an id to its position.
type RowStore struct {
	rows  []Row
	index map[string]int
}

// NewRowStore creates a store seeded with rows. Rows sharing an id keep the
// last occurrence at the position of the first.
func NewRowStore(rows []Row) *RowStore {
	s := &RowStore{}
	s.ReplaceAll(rows)
	return s
}

// ReplaceAll discards the current contents and loads rows.
func (s *RowStore) ReplaceAll(rows []Row) {
	s.rows = make([]Row, 0, len(rows))
	s.index = make(map[string]int, len(rows))
	for _, r := range rows {
		id := r.ID()
		if pos, ok := s.index[id]; ok {
			s.rows[pos] = r
			continue
		}
		s.index[id] = len(s.rows)
		s.rows = append(s.rows, r)
	}
}

// ReplaceField sets key to v on the row identified by id. It returns the
// previous value and whether the row was updated. Unknown ids are a no-op,
// and so is key IDField: a row's identifier never changes in place.
func (s *RowStore) ReplaceField(id, key string, v Value) (Value, bool) {
	if key == IDField {
		return Null, false
	}
	pos, ok := s.index[id]
	if !ok {
		return Null, false
	}
	old := s.rows[pos].Value(key)
	s.rows[pos] = s.rows[pos].With(key, v)
	return old, true
}

// DeleteRow removes the row identified by id and reports whether it existed.
func (s *RowStore) DeleteRow(id string) bool {
	return len(s.DeleteMany([]string{id})) == 1
}

// DeleteMany removes every row whose id is in ids and returns the ids that
// were actually removed, in store order.
func (s *RowStore) DeleteMany(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return nil
	}

	removed := make([]string, 0, len(drop))
	kept := s.rows[:0]
	for _, r := range s.rows {
		id := r.ID()
		if drop[id] {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, r)
	}
	// Clear the tail so dropped rows can be collected.
	for i := len(kept); i < len(s.rows); i++ {
		s.rows[i] = Row{}
	}
	s.rows = kept
	s.reindex()
	return removed
}

// Get returns the row identified by id.
func (s *RowStore) Get(id string) (Row, bool) {
	pos, ok := s.index[id]
	if !ok {
		return Row{}, false
	}
	return s.rows[pos], true
}

// Has reports whether id is in the store.
func (s *RowStore) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of rows.
func (s *RowStore) Len() int { return len(s.rows) }

// Rows returns a copy of the rows in store order.
func (s *RowStore) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// IDs returns every row id in store order.
func (s *RowStore) IDs() []string {
	ids := make([]string, len(s.rows))
	for i, r := range s.rows {
		ids[i] = r.ID()
	}
	return ids
}

func (s *RowStore) reindex() {
	s.index = make(map[string]int, len(s.rows))
	for i, r := range s.rows {
		s.index[r.ID()] = i
	}
}
