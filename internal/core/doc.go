// Package core provides the in-memory table view pipeline.
//
// The package holds all of the widget's behavior independent of any UI or
// transport layer. It is used by the web host, the terminal host and tests
// without modification.
//
// # Architecture
//
// Rows live in a [RowStore]. Every render derives the visible slice from the
// store with three pure stages, always in this order:
//
//  1. Filter: [ApplyFilters] keeps rows matching the search term and every
//     structured filter.
//  2. Sort: [SortRows] stably orders by one column.
//  3. Page: [Paginate] cuts the requested window.
//
// [Table] composes the stages with the interactive state (search, filters,
// sort, page, [Selection], [ColumnState]) behind one mutex and hands a
// finalized [View] to a [Renderer].
//
// # Table Registry
//
// Hosts register the tables they can open with [Register]. A
// [TableDefinition] carries columns, options and a [LoadFunc]:
//
//	core.Register(core.TableDefinition{
//	    Info:    core.TableInfo{Key: "employees", Group: "Fixtures", Label: "Employees"},
//	    Columns: cols,
//	    Options: core.DefaultOptions(),
//	    Load:    loadEmployees,
//	})
//
// # Ownership
//
// A Table owns its rows. Edits and deletions are committed locally and
// reported to a [ChangeListener]; [Journal] is the stock listener. Data
// supplied again by the host only replaces the store when its revision
// changes (see [Table.Load]).
//
// # Resize Sessions
//
// [Table.BeginResize] returns a [DragSession] that owns the host's
// [PointerCapture]. End or Close always releases it, including when the
// table is closed mid-drag.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - TBL001-TBL007: Table errors (unknown table or column, disabled ops)
//   - SES001-SES002: Session errors
//   - REQ001-REQ004: Request errors (REQ004: value does not fit the column)
//   - SRC001-SRC004: Source errors (database, fixtures)
//   - RATE001-RATE002: Rate limiting and busy loads
//   - ERR000: Unknown error (check logs)
package core
