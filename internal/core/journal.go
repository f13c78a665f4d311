package core

// journal.go records committed edits and deletions.
//
// The table owns its rows; hosts that want to persist or audit changes
// attach a ChangeListener. Journal is the stock listener: an in-memory,
// bounded log of change entries.

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeAction is the kind of change recorded.
type ChangeAction string

const (
	ActionCellEdit  ChangeAction = "cell_edit"
	ActionRowDelete ChangeAction = "row_delete"
	ActionReload    ChangeAction = "reload"
)

// ChangeListener is notified after a change has been committed to the Row
// Store. Callbacks run with the table lock held and must not call back into
// the table.
type ChangeListener interface {
	OnCellUpdated(rowID, column string, oldValue, newValue Value)
	OnRowsDeleted(rows []Row)
	OnReloaded(revision string, rowCount int)
}

// Listeners fans a change out to several listeners in order. Nil entries
// are skipped.
type Listeners []ChangeListener

func (ls Listeners) OnCellUpdated(rowID, column string, oldValue, newValue Value) {
	for _, l := range ls {
		if l != nil {
			l.OnCellUpdated(rowID, column, oldValue, newValue)
		}
	}
}

func (ls Listeners) OnRowsDeleted(rows []Row) {
	for _, l := range ls {
		if l != nil {
			l.OnRowsDeleted(rows)
		}
	}
}

func (ls Listeners) OnReloaded(revision string, rowCount int) {
	for _, l := range ls {
		if l != nil {
			l.OnReloaded(revision, rowCount)
		}
	}
}

// ChangeEntry is a single journal record.
type ChangeEntry struct {
	ID        string         `json:"id"`
	Action    ChangeAction   `json:"action"`
	RowID     string         `json:"row_id,omitempty"`
	Column    string         `json:"column,omitempty"`
	OldValue  string         `json:"old_value,omitempty"`
	NewValue  string         `json:"new_value,omitempty"`
	RowData   map[string]any `json:"row_data,omitempty"`
	Revision  string         `json:"revision,omitempty"`
	RowCount  int            `json:"row_count,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// DefaultJournalLimit bounds a Journal created with a zero limit.
const DefaultJournalLimit = 1000

// Journal is a bounded in-memory ChangeListener. Oldest entries are dropped
// first once the limit is reached.
type Journal struct {
	mu      sync.Mutex
	limit   int
	entries []ChangeEntry
	now     func() time.Time
}

// NewJournal creates a journal holding at most limit entries.
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	return &Journal{limit: limit, now: time.Now}
}

// OnCellUpdated records a cell edit.
func (j *Journal) OnCellUpdated(rowID, column string, oldValue, newValue Value) {
	j.append(ChangeEntry{
		Action:   ActionCellEdit,
		RowID:    rowID,
		Column:   column,
		OldValue: oldValue.String(),
		NewValue: newValue.String(),
	})
}

// OnRowsDeleted records one entry per deleted row, keeping its data.
func (j *Journal) OnRowsDeleted(rows []Row) {
	for _, r := range rows {
		j.append(ChangeEntry{
			Action:  ActionRowDelete,
			RowID:   r.ID(),
			RowData: r.Map(),
		})
	}
}

// OnReloaded records a data refresh from the host.
func (j *Journal) OnReloaded(revision string, rowCount int) {
	j.append(ChangeEntry{
		Action:   ActionReload,
		Revision: revision,
		RowCount: rowCount,
	})
}

// Entries returns the recorded entries, newest first.
func (j *Journal) Entries() []ChangeEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ChangeEntry, len(j.entries))
	for i, e := range j.entries {
		out[len(j.entries)-1-i] = e
	}
	return out
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) append(e ChangeEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = j.now()
	if len(j.entries) >= j.limit {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:len(j.entries)-1]
	}
	j.entries = append(j.entries, e)
}
