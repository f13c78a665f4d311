package source

// writeback.go persists committed table changes to PostgreSQL.
//
// Change callbacks arrive with the table lock held, so they only enqueue.
// Run drains the queue on its own goroutine and applies each change with a
// per-statement timeout. When the queue is full the change is dropped and
// logged; the in-memory table stays authoritative for the session.

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/datatable/internal/core"
)

// DefaultWritebackBuffer is the queue length used for a zero buffer size.
const DefaultWritebackBuffer = 256

const writebackTimeout = 10 * time.Second

type changeKind int

const (
	changeCell changeKind = iota
	changeDelete
)

type change struct {
	kind   changeKind
	rowID  string
	column string
	value  core.Value
	ids    []string
}

// Writeback is a core.ChangeListener that mirrors edits and deletions into
// the source relation.
type Writeback struct {
	db       Querier
	table    string
	idColumn string
	types    map[string]core.ColumnType

	queue   chan change
	applied atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewWriteback creates a writeback for relation table keyed by idColumn.
func NewWriteback(db Querier, table, idColumn string, cols []core.Column, buffer int) *Writeback {
	if buffer <= 0 {
		buffer = DefaultWritebackBuffer
	}
	types := make(map[string]core.ColumnType, len(cols))
	for _, c := range cols {
		types[c.Key] = c.Type
	}
	return &Writeback{
		db:       db,
		table:    table,
		idColumn: idColumn,
		types:    types,
		queue:    make(chan change, buffer),
	}
}

// OnCellUpdated queues an UPDATE of one column. Edits to unknown columns or
// to the id itself are not persisted.
func (w *Writeback) OnCellUpdated(rowID, column string, _, newValue core.Value) {
	if _, ok := w.types[column]; !ok || column == w.idColumn {
		return
	}
	w.enqueue(change{kind: changeCell, rowID: rowID, column: column, value: newValue})
}

// OnRowsDeleted queues a DELETE of the given rows.
func (w *Writeback) OnRowsDeleted(rows []core.Row) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID())
	}
	if len(ids) > 0 {
		w.enqueue(change{kind: changeDelete, ids: ids})
	}
}

// OnReloaded is a no-op; reloads come from the database.
func (w *Writeback) OnReloaded(string, int) {}

func (w *Writeback) enqueue(c change) {
	select {
	case w.queue <- c:
	default:
		w.dropped.Add(1)
		slog.Warn("writeback queue full, change dropped", "table", w.table, "row_id", c.rowID)
	}
}

// Run applies queued changes until ctx is cancelled. Changes still queued at
// cancellation are drained with a fresh timeout.
func (w *Writeback) Run(ctx context.Context) {
	slog.Info("writeback started", "table", w.table)
	for {
		select {
		case <-ctx.Done():
			w.drain()
			slog.Info("writeback stopped", "table", w.table, "applied", w.applied.Load(), "failed", w.failed.Load())
			return
		case c := <-w.queue:
			w.applyLogged(ctx, c)
		}
	}
}

func (w *Writeback) drain() {
	for {
		select {
		case c := <-w.queue:
			w.applyLogged(context.Background(), c)
		default:
			return
		}
	}
}

func (w *Writeback) applyLogged(ctx context.Context, c change) {
	ctx, cancel := context.WithTimeout(ctx, writebackTimeout)
	defer cancel()

	if err := w.apply(ctx, c); err != nil {
		w.failed.Add(1)
		slog.Error("writeback failed", "table", w.table, "row_id", c.rowID, "column", c.column, "error", err)
		return
	}
	w.applied.Add(1)
}

func (w *Writeback) apply(ctx context.Context, c change) error {
	switch c.kind {
	case changeCell:
		query := fmt.Sprintf(
			"UPDATE %s SET %s = $1 WHERE %s::text = $2",
			quoteIdentifier(w.table),
			quoteIdentifier(c.column),
			quoteIdentifier(w.idColumn),
		)
		if _, err := w.db.Exec(ctx, query, ToPg(c.value, w.types[c.column]), c.rowID); err != nil {
			return fmt.Errorf("update %s.%s: %w", w.table, c.column, err)
		}
	case changeDelete:
		query := fmt.Sprintf(
			"DELETE FROM %s WHERE %s::text = ANY($1)",
			quoteIdentifier(w.table),
			quoteIdentifier(w.idColumn),
		)
		if _, err := w.db.Exec(ctx, query, c.ids); err != nil {
			return fmt.Errorf("delete from %s: %w", w.table, err)
		}
	}
	return nil
}

// WritebackStats reports queue counters.
type WritebackStats struct {
	Table   string `json:"table"`
	Pending int    `json:"pending"`
	Applied int64  `json:"applied"`
	Dropped int64  `json:"dropped"`
	Failed  int64  `json:"failed"`
}

// Stats returns the current counters.
func (w *Writeback) Stats() WritebackStats {
	return WritebackStats{
		Table:   w.table,
		Pending: len(w.queue),
		Applied: w.applied.Load(),
		Dropped: w.dropped.Load(),
		Failed:  w.failed.Load(),
	}
}
