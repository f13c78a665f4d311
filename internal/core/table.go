package core

// table.go composes the view pipeline.
//
// A Table owns the Row Store plus all interactive view state: search term,
// filters, sort, page window, selection and column metadata. Every method
// takes the table lock, so state transitions are serialized exactly as they
// would be on a single UI event thread. View recomputes filter -> sort ->
// page from scratch on every call; nothing is cached between calls.

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Config seeds a Table.
type Config struct {
	Columns  []Column
	Rows     []Row
	Revision string // Identifies the caller's data version; see Load
	Options  Options

	// Page and PageSize enable paging when both are positive.
	Page     int
	PageSize int

	// SearchDebounce is the quiet period for InputSearch (default 500ms).
	SearchDebounce time.Duration

	// OnPageChange is invoked with (page, pageSize) whenever either changes.
	OnPageChange func(page, pageSize int)

	// OnSearchApplied is invoked after a debounced search term is applied.
	// It runs on the debouncer's goroutine without the table lock held.
	OnSearchApplied func(term string)

	// Listener receives committed edits, deletions and reloads.
	Listener ChangeListener
}

// Renderer receives finalized view state and draws it.
type Renderer interface {
	RenderView(ctx context.Context, w io.Writer, v View) error
}

// Table is the stateful view pipeline for one embedded table widget.
type Table struct {
	mu sync.Mutex

	opts      Options
	store     *RowStore
	revision  string
	search    string
	searchGen uint64 // bumped by SetSearch; stale debounced input is dropped
	filters   FilterSet
	sort      SortState
	page      int
	pageSize  int
	selection *Selection
	cols      *ColumnState
	drag      *DragSession
	loading   bool
	closed    bool

	debounce        *Debouncer
	listener        ChangeListener
	onPageChange    func(page, pageSize int)
	onSearchApplied func(term string)
}

// NewTable builds a table from cfg.
func NewTable(cfg Config) *Table {
	delay := cfg.SearchDebounce
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Table{
		opts:            cfg.Options,
		store:           NewRowStore(cfg.Rows),
		revision:        cfg.Revision,
		filters:         FilterSet{},
		page:            cfg.Page,
		pageSize:        cfg.PageSize,
		selection:       NewSelection(),
		cols:            NewColumnState(cfg.Columns),
		debounce:        NewDebouncer(delay),
		listener:        cfg.Listener,
		onPageChange:    cfg.OnPageChange,
		onSearchApplied: cfg.OnSearchApplied,
	}
}

// Load replaces the Row Store with rows supplied by the caller. A load
// carrying the same non-empty revision as the current data is ignored, so
// re-supplying unchanged data never discards local edits. A real refresh
// discards local edits; selected ids that still exist stay selected.
// It reports whether the store was replaced.
func (t *Table) Load(rows []Row, revision string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if revision != "" && revision == t.revision {
		return false
	}
	t.store.ReplaceAll(rows)
	t.revision = revision
	t.selection.Retain(t.store.Has)
	if t.listener != nil {
		t.listener.OnReloaded(revision, t.store.Len())
	}
	return true
}

// SetLoading marks whether the host is fetching data for the table.
func (t *Table) SetLoading(loading bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = loading
}

// Loading reports the flag set by SetLoading.
func (t *Table) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Revision returns the revision of the currently loaded data.
func (t *Table) Revision() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revision
}

// Options returns the behavior flags.
func (t *Table) Options() Options {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts
}

// Columns returns every column with its live metadata.
func (t *Table) Columns() []Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols.All()
}

// Row returns the stored row with the given id.
func (t *Table) Row(id string) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Get(id)
}

// Len returns the Row Store size.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Len()
}

// ---- search & filters ----

// Search returns the applied search term.
func (t *Table) Search() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.search
}

// SetSearch applies a search term immediately and cancels any pending
// debounced input. It is a no-op unless the table is searchable.
func (t *Table) SetSearch(term string) {
	t.debounce.Cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Searchable {
		return
	}
	t.searchGen++
	t.search = strings.TrimSpace(term)
}

// InputSearch buffers raw search input. The trimmed text is applied once
// no further input arrives for the debounce period.
func (t *Table) InputSearch(text string) {
	t.mu.Lock()
	searchable, gen := t.opts.Searchable, t.searchGen
	t.mu.Unlock()
	if !searchable {
		return
	}
	term := strings.TrimSpace(text)
	t.debounce.Trigger(func() {
		t.mu.Lock()
		// A SetSearch after this input was typed wins, even if the timer
		// fired before Cancel could stop it.
		if t.closed || t.searchGen != gen {
			t.mu.Unlock()
			return
		}
		t.search = term
		cb := t.onSearchApplied
		t.mu.Unlock()
		if cb != nil {
			cb(term)
		}
	})
}

// SearchPending reports whether debounced input is waiting to be applied.
func (t *Table) SearchPending() bool {
	return t.debounce.Pending()
}

// Filters returns a copy of the active filter set.
func (t *Table) Filters() FilterSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filters.Clone()
}

// SetFilters replaces the filter set. Keys naming unknown or non-filterable
// columns are dropped.
func (t *Table) SetFilters(fs FilterSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make(FilterSet, len(fs))
	for k, v := range fs {
		col, ok := t.cols.Lookup(k)
		if !ok || !col.Filterable {
			continue
		}
		next[k] = v
	}
	t.filters = next
}

// ClearFilters removes every filter.
func (t *Table) ClearFilters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = FilterSet{}
}

// ---- sort ----

// Sort returns the active sort state.
func (t *Table) Sort() SortState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sort
}

// ClickSort advances the sort cycle for a header click on column key.
// Clicks on unknown or non-sortable columns leave the state unchanged.
func (t *Table) ClickSort(key string) SortState {
	t.mu.Lock()
	defer t.mu.Unlock()
	col, ok := t.cols.Lookup(key)
	if !ok || !col.Sortable {
		return t.sort
	}
	t.sort = t.sort.Cycle(key)
	return t.sort
}

// SetSort restores a sort state, e.g. from a URL. States naming unknown or
// non-sortable columns clear the sort.
func (t *Table) SetSort(s SortState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	col, ok := t.cols.Lookup(s.Column)
	if !ok || !col.Sortable || s.Direction == SortNone {
		t.sort = SortState{}
		return
	}
	t.sort = s
}

// ---- paging ----

// Page returns the current page and page size.
func (t *Table) Page() (page, pageSize int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page, t.pageSize
}

// SetPage changes the page window. A changed page size restarts at page 1.
// A non-positive size keeps the current size; a page below 1 becomes 1.
// The page change callback fires when either value changes.
func (t *Table) SetPage(page, pageSize int) {
	t.mu.Lock()
	if pageSize <= 0 {
		pageSize = t.pageSize
	}
	if page < 1 {
		page = 1
	}
	if pageSize != t.pageSize {
		page = 1
	}
	changed := page != t.page || pageSize != t.pageSize
	t.page, t.pageSize = page, pageSize
	cb := t.onPageChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(page, pageSize)
	}
}

// ---- selection ----

// ToggleRow flips the selection of a stored row. Unknown ids are ignored.
func (t *Table) ToggleRow(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Selectable || !t.store.Has(id) {
		return false
	}
	return t.selection.Toggle(id)
}

// ToggleAll selects every stored row, or clears the selection when every
// stored row is already selected. Scope is the whole Row Store, not the
// filtered or visible rows.
func (t *Table) ToggleAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Selectable {
		return
	}
	t.selection.ToggleAll(t.store.IDs())
}

// SelectVisible adds the rows of the current page to the selection.
func (t *Table) SelectVisible() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Selectable {
		return
	}
	for _, r := range t.pipeline() {
		t.selection.Add(r.ID())
	}
}

// ClearSelection empties the selection.
func (t *Table) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection.Clear()
}

// Selected returns the selected ids in sorted order.
func (t *Table) Selected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selection.IDs()
}

// ---- mutations ----

// UpdateCell sets column key of row id to v. No type validation is done.
// It reports whether a row was updated; unknown ids are a no-op.
func (t *Table) UpdateCell(id, key string, v Value) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Editable {
		return false
	}
	old, ok := t.store.ReplaceField(id, key, v)
	if !ok {
		return false
	}
	if t.listener != nil {
		t.listener.OnCellUpdated(id, key, old, v)
	}
	return true
}

// DeleteRow removes row id and deselects it.
func (t *Table) DeleteRow(id string) bool {
	return t.DeleteMany([]string{id}) == 1
}

// DeleteSelected removes every selected row and empties the selection.
func (t *Table) DeleteSelected() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(t.selection.IDs())
}

// DeleteMany removes every row in ids and deselects them in the same
// transition. It returns the number of rows removed.
func (t *Table) DeleteMany(ids []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(ids)
}

func (t *Table) deleteLocked(ids []string) int {
	if !t.opts.Deletable || len(ids) == 0 {
		return 0
	}
	var doomed []Row
	if t.listener != nil {
		for _, id := range ids {
			if r, ok := t.store.Get(id); ok {
				doomed = append(doomed, r)
			}
		}
	}
	removed := t.store.DeleteMany(ids)
	t.selection.Remove(ids...)
	if len(removed) > 0 && t.listener != nil {
		t.listener.OnRowsDeleted(doomed)
	}
	return len(removed)
}

// ---- column metadata ----

// ColumnDraft returns the pending visibility form (key -> hidden).
func (t *Table) ColumnDraft() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols.Draft()
}

// ProposeColumnHidden stages a hidden flag without affecting the view.
func (t *Table) ProposeColumnHidden(key string, hidden bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols.ProposeHidden(key, hidden)
}

// ApplyColumnVisibility commits the staged visibility draft.
func (t *Table) ApplyColumnVisibility() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cols.ApplyVisibility()
}

// ResetColumnVisibility shows every column and discards the draft.
func (t *Table) ResetColumnVisibility() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cols.ResetVisibility()
}

// ColumnWidth returns the effective width of column key.
func (t *Table) ColumnWidth(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols.Width(key)
}

// BeginResize starts a drag gesture on column key at pointer position
// startX. The capture is acquired now and released when the session ends
// or is closed. Only one drag may be active at a time.
func (t *Table) BeginResize(key string, startX int, capture PointerCapture) (*DragSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Resizable {
		return nil, ErrResizeDisabled
	}
	col, ok := t.cols.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !col.Resizable {
		return nil, fmt.Errorf("%w: column %s", ErrResizeDisabled, key)
	}
	if t.drag != nil {
		return nil, ErrDragActive
	}
	if capture == nil {
		capture = NopCapture{}
	}

	start := t.cols.Width(key)
	d := &DragSession{
		table:      t,
		key:        key,
		startX:     startX,
		startWidth: start,
		width:      start,
		capture:    capture,
	}
	capture.Acquire()
	t.drag = d
	return d, nil
}

// Resizing reports whether a drag session is active.
func (t *Table) Resizing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drag != nil
}

func (t *Table) applyDragWidth(key string, w int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.cols.SetWidth(key, w)
}

func (t *Table) dragEnded(d *DragSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drag == d {
		t.drag = nil
	}
}

// ---- lifecycle ----

// Close tears the table down: pending search input is dropped and an active
// drag is abandoned with its capture released. Close is idempotent.
func (t *Table) Close() {
	t.debounce.Stop()
	t.mu.Lock()
	t.closed = true
	d := t.drag
	t.mu.Unlock()
	if d != nil {
		d.Close()
	}
}

// ---- view ----

// ViewColumn is a visible column with its resolved width and header sort
// indicator.
type ViewColumn struct {
	Column
	Width int
	Sort  SortDirection
}

// ColumnChoice is a column as offered by the show/hide and filter forms,
// hidden ones included.
type ColumnChoice struct {
	Column
	DraftHidden bool // Pending hidden flag from the visibility draft
}

// ViewRow is a render-ready row.
type ViewRow struct {
	ID       string
	Row      Row
	Selected bool
}

// View is the finalized state handed to a Renderer.
type View struct {
	Columns []ViewColumn
	Rows    []ViewRow
	Page    PageInfo

	// AllColumns lists every column in declaration order.
	AllColumns []ColumnChoice

	Search  string
	Filters FilterSet
	Sort    SortState
	Options Options

	StoreSize     int
	Selected      int
	AllSelected   bool
	Indeterminate bool

	// Empty is true when no row survives filtering; renderers show a
	// "No data" placeholder instead of the table.
	Empty bool

	// ShowDeleteSelected is true when the bulk delete action applies.
	ShowDeleteSelected bool

	// Loading is set by the host while it fetches data; renderers overlay
	// a loading indicator on the table.
	Loading bool
}

// View recomputes the visible slice and derived state.
func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	filtered := ApplyFilters(t.store.Rows(), t.search, t.filters)
	sorted := SortRows(filtered, t.sort)
	pageRows := Paginate(sorted, t.page, t.pageSize)

	visible := t.cols.Visible()
	cols := make([]ViewColumn, len(visible))
	for i, c := range visible {
		cols[i] = ViewColumn{Column: c, Width: t.cols.Width(c.Key), Sort: t.sort.DirectionFor(c.Key)}
	}

	draft := t.cols.Draft()
	all := t.cols.All()
	choices := make([]ColumnChoice, len(all))
	for i, c := range all {
		choices[i] = ColumnChoice{Column: c, DraftHidden: draft[c.Key]}
	}

	rows := make([]ViewRow, len(pageRows))
	for i, r := range pageRows {
		id := r.ID()
		rows[i] = ViewRow{ID: id, Row: r, Selected: t.selection.Has(id)}
	}

	storeLen := t.store.Len()
	return View{
		Columns:            cols,
		Rows:               rows,
		Page:               NewPageInfo(len(filtered), t.page, t.pageSize),
		AllColumns:         choices,
		Search:             t.search,
		Filters:            t.filters.Clone(),
		Sort:               t.sort,
		Options:            t.opts,
		StoreSize:          storeLen,
		Selected:           t.selection.Len(),
		AllSelected:        t.selection.AllSelected(storeLen),
		Indeterminate:      t.selection.Indeterminate(storeLen),
		Empty:              len(filtered) == 0,
		ShowDeleteSelected: t.opts.Deletable && t.selection.Len() > 0,
		Loading:            t.loading,
	}
}

// Render computes the view and hands it to r.
func (t *Table) Render(ctx context.Context, w io.Writer, r Renderer) error {
	return r.RenderView(ctx, w, t.View())
}

// pipeline returns the visible page rows. Callers must hold t.mu.
func (t *Table) pipeline() []Row {
	filtered := ApplyFilters(t.store.Rows(), t.search, t.filters)
	return Paginate(SortRows(filtered, t.sort), t.page, t.pageSize)
}
