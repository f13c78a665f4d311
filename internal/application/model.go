// Package application is the terminal host: a bubbletea model that drives
// a core.Table from the keyboard and draws it with lipgloss.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
)

// resizeStep is the width change for one < or > press.
const resizeStep = 10

// LoadTimeout bounds a reload from the table's source.
var LoadTimeout = 30 * time.Second

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeEdit
	modeFilter
	modeMenu
)

// keyCapture tracks whether a keyboard resize gesture holds the table.
type keyCapture struct {
	held bool
}

func (c *keyCapture) Acquire() { c.held = true }
func (c *keyCapture) Release() { c.held = false }

// Model is the bubbletea model for one table.
type Model struct {
	def     core.TableDefinition
	table   *core.Table
	journal *core.Journal
	sizes   []int
	styles  Styles
	applied chan string

	mode      mode
	cursor    int
	colCursor int
	input     textinput.Model
	editRow   string
	editCol   core.Column

	drag    *core.DragSession
	dragX   int
	capture *keyCapture

	menu       *Menu
	menuCursor int

	status   string
	err      error
	quitting bool
}

// New opens def as a table configured by cfg.
func New(ctx context.Context, def core.TableDefinition, cfg config.TableConfig) (*Model, error) {
	applied := make(chan string, 1)
	journal := core.NewJournal(core.DefaultJournalLimit)

	def.Columns = core.WithDefaultWidth(def.Columns, cfg.DefaultWidth)
	page := 0
	if cfg.PageSize > 0 {
		page = 1
	}
	tbl, err := def.NewTable(ctx, core.Config{
		Page:           page,
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
		Listener:       journal,
		OnSearchApplied: func(term string) {
			// One pending notice is enough; the model reads the table anyway.
			select {
			case applied <- term:
			default:
			}
		},
	})
	if err != nil {
		return nil, err
	}

	sizes := def.Options.PageSizeOptions
	if len(sizes) == 0 {
		sizes = cfg.PageSizeOptions
	}

	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return &Model{
		def:     def,
		table:   tbl,
		journal: journal,
		sizes:   sizes,
		styles:  DefaultStyles(),
		applied: applied,
		input:   ti,
		capture: &keyCapture{},
	}, nil
}

// Table exposes the underlying table.
func (m *Model) Table() *core.Table { return m.table }

// Journal returns the change journal attached to the table.
func (m *Model) Journal() *core.Journal { return m.journal }

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m *Model) error {
	defer m.table.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func waitForSearch(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return searchAppliedMsg(<-ch)
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForSearch(m.applied)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchAppliedMsg:
		m.cursor = 0
		m.status = fmt.Sprintf("search %q applied", string(msg))
		return m, waitForSearch(m.applied)

	case statusMsg:
		m.status, m.err = string(msg), nil
		return m, nil

	case errMsg:
		m.err = msg.Err
		slog.Warn("table action failed", "table", m.def.Info.Key, "error", msg.Err)
		return m, nil

	case reloadedMsg:
		m.clampCursor()
		if msg.changed {
			m.status = fmt.Sprintf("reloaded %d rows", msg.rows)
		} else {
			m.status = "source unchanged"
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit, modeFilter:
			return m.updateInput(msg)
		case modeMenu:
			return m.updateMenu(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	resizing := key.Matches(msg, keys.Narrow) || key.Matches(msg, keys.Widen)
	if m.drag != nil && !resizing {
		m.endDrag()
		if key.Matches(msg, keys.Confirm) {
			return m, nil
		}
	}

	m.err = nil
	v := m.table.View()
	opts := v.Options

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.table.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(v.Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		if m.colCursor > 0 {
			m.colCursor--
		}
	case key.Matches(msg, keys.Right):
		if m.colCursor < len(v.Columns)-1 {
			m.colCursor++
		}

	case key.Matches(msg, keys.Search):
		if !opts.Searchable {
			m.status = "search is disabled for this table"
			return m, nil
		}
		m.mode = modeSearch
		m.input.Prompt = "search: "
		m.input.SetValue(m.table.Search())
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, keys.Sort):
		col, ok := m.currentColumn(v)
		if !ok || !col.Sortable {
			return m, nil
		}
		s := m.table.ClickSort(col.Key)
		m.cursor = 0
		if s.Active() {
			m.status = fmt.Sprintf("sorted by %s %s", col.Title, s.Direction)
		} else {
			m.status = "sort cleared"
		}

	case key.Matches(msg, keys.Toggle):
		if row, ok := m.currentRow(v); ok && opts.Selectable {
			m.table.ToggleRow(row.ID)
		}
	case key.Matches(msg, keys.ToggleAll):
		if opts.Selectable {
			m.table.ToggleAll()
		}

	case key.Matches(msg, keys.Delete):
		if row, ok := m.currentRow(v); ok && opts.Deletable {
			m.table.DeleteRow(row.ID)
			m.clampCursor()
			m.status = "row deleted"
		}
	case key.Matches(msg, keys.DeleteSelected):
		if opts.Deletable {
			n := m.table.DeleteSelected()
			m.clampCursor()
			m.status = fmt.Sprintf("%d rows deleted", n)
		}

	case key.Matches(msg, keys.Edit):
		return m, m.startEdit(v)

	case key.Matches(msg, keys.NextPage):
		if v.Page.HasNext() {
			m.table.SetPage(v.Page.Page+1, 0)
			m.cursor = 0
		}
	case key.Matches(msg, keys.PrevPage):
		if v.Page.HasPrev() {
			m.table.SetPage(v.Page.Page-1, 0)
			m.cursor = 0
		}
	case key.Matches(msg, keys.Grow):
		m.stepPageSize(1)
	case key.Matches(msg, keys.Shrink):
		m.stepPageSize(-1)

	case key.Matches(msg, keys.Hide):
		if col, ok := m.currentColumn(v); ok {
			hidden := m.table.ColumnDraft()[col.Key]
			if err := m.table.ProposeColumnHidden(col.Key, !hidden); err != nil {
				m.err = err
			}
		}
	case key.Matches(msg, keys.ApplyHidden):
		m.table.ApplyColumnVisibility()
		m.clampCursor()
	case key.Matches(msg, keys.ResetHidden):
		m.table.ResetColumnVisibility()

	case resizing:
		m.resize(v, msg)

	case key.Matches(msg, keys.Menu):
		m.mode = modeMenu
		m.menu = buildMenuTree(m)
		m.menuCursor = 0

	case key.Matches(msg, keys.Reload):
		return m, m.reload()
	}
	return m, nil
}

// updateSearch feeds typed text through the table's debouncer. Enter
// applies the text at once; esc leaves the pending input running.
func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		m.table.SetSearch(m.input.Value())
		m.cursor = 0
		m.leaveInput()
		return m, nil
	case key.Matches(msg, keys.Cancel):
		m.leaveInput()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.table.InputSearch(after)
	}
	return m, cmd
}

// updateInput handles the cell editor and the filter prompt.
func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, keys.Confirm):
		text := m.input.Value()
		if m.mode == modeEdit {
			m.commitEdit(text)
		} else {
			m.commitFilter(text)
		}
		m.leaveInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.menu.Items
	switch {
	case key.Matches(msg, keys.Up):
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.menuCursor < len(items)-1 {
			m.menuCursor++
		}
	case key.Matches(msg, keys.Cancel), key.Matches(msg, keys.Menu):
		m.openMenu(m.menu.Parent)
	case key.Matches(msg, keys.Confirm):
		item := items[m.menuCursor]
		switch {
		case item.Action != nil:
			cmd := item.Action()
			if m.mode == modeMenu {
				m.refreshMenu()
			}
			return m, cmd
		case item.Label == "Back":
			m.openMenu(item.Submenu)
		case item.Submenu != nil:
			m.openMenu(item.Submenu)
		}
	}
	return m, nil
}

// openMenu shows menu, or returns to the table when menu is nil.
func (m *Model) openMenu(menu *Menu) {
	m.menu = menu
	m.menuCursor = 0
	if menu == nil {
		m.mode = modeTable
	}
}

// refreshMenu rebuilds the tree and reopens the menu with the same title.
func (m *Model) refreshMenu() {
	title, cursor := m.menu.Title, m.menuCursor
	root := buildMenuTree(m)
	m.menu = findMenu(root, title)
	if m.menu == nil {
		m.menu = root
	}
	if cursor < len(m.menu.Items) {
		m.menuCursor = cursor
	}
}

func findMenu(menu *Menu, title string) *Menu {
	if menu.Title == title {
		return menu
	}
	for _, item := range menu.Items {
		if item.Submenu != nil && item.Label != "Back" {
			if found := findMenu(item.Submenu, title); found != nil {
				return found
			}
		}
	}
	return nil
}

func (m *Model) startEdit(v core.View) tea.Cmd {
	if !v.Options.Editable {
		m.status = "editing is disabled for this table"
		return nil
	}
	row, ok := m.currentRow(v)
	if !ok {
		return nil
	}
	col, ok := m.currentColumn(v)
	if !ok || col.Type == core.TypeLink {
		return nil
	}
	if col.Key == core.IDField {
		m.status = "the id column cannot be edited"
		return nil
	}
	m.mode = modeEdit
	m.editRow = row.ID
	m.editCol = col.Column
	m.input.Prompt = col.Title + ": "
	m.input.SetValue(inputValue(row.Row.Value(col.Key)))
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) commitEdit(text string) {
	v, err := core.ParseInput(text, m.editCol)
	if err != nil {
		m.err = err
		return
	}
	if m.table.UpdateCell(m.editRow, m.editCol.Key, v) {
		m.status = fmt.Sprintf("%s updated", m.editCol.Title)
	}
}

func (m *Model) startFilter(col core.Column) tea.Cmd {
	m.mode = modeFilter
	m.editCol = col
	m.input.Prompt = "filter " + col.Title + ": "
	current := m.table.Filters()[col.Key]
	m.input.SetValue(inputValue(current))
	m.input.CursorEnd()
	return m.input.Focus()
}

// commitFilter sets or, for empty text, removes the filter on editCol.
// Text that does not parse for the column drops that filter; the other
// filters stay.
func (m *Model) commitFilter(text string) {
	fs := m.table.Filters()
	v, err := core.ParseInput(text, m.editCol)
	switch {
	case strings.TrimSpace(text) == "":
		delete(fs, m.editCol.Key)
	case err != nil:
		delete(fs, m.editCol.Key)
		m.status = fmt.Sprintf("filter on %s skipped: %q does not fit the column", m.editCol.Title, text)
	default:
		fs[m.editCol.Key] = v
	}
	m.table.SetFilters(fs)
	m.cursor = 0
}

func (m *Model) leaveInput() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeTable
	if m.menu != nil {
		m.mode = modeMenu
		m.refreshMenu()
	}
}

// resize drives a drag session from the keyboard: the first press begins
// it and any other key ends it.
func (m *Model) resize(v core.View, msg tea.KeyMsg) {
	if m.drag == nil {
		col, ok := m.currentColumn(v)
		if !ok {
			return
		}
		d, err := m.table.BeginResize(col.Key, 0, m.capture)
		if err != nil {
			m.err = err
			return
		}
		m.drag, m.dragX = d, 0
	}
	if key.Matches(msg, keys.Widen) {
		m.dragX += resizeStep
	} else {
		m.dragX -= resizeStep
	}
	w := m.drag.Move(m.dragX)
	m.status = fmt.Sprintf("width %d (enter to finish)", w)
}

func (m *Model) endDrag() {
	w := m.drag.End()
	m.drag = nil
	m.status = fmt.Sprintf("width set to %d", w)
}

func (m *Model) stepPageSize(dir int) {
	if len(m.sizes) == 0 {
		return
	}
	_, current := m.table.Page()
	idx := -1
	for i, s := range m.sizes {
		if s == current {
			idx = i
			break
		}
	}
	next := idx + dir
	if idx < 0 {
		next = 0
	}
	if next < 0 || next >= len(m.sizes) {
		return
	}
	m.setPageSize(m.sizes[next])
}

func (m *Model) setPageSize(n int) {
	m.table.SetPage(1, n)
	m.cursor = 0
	m.status = fmt.Sprintf("%d rows per page", n)
}

func (m *Model) reload() tea.Cmd {
	def, tbl := m.def, m.table
	tbl.SetLoading(true)
	return func() tea.Msg {
		defer tbl.SetLoading(false)
		ctx, cancel := context.WithTimeout(context.Background(), LoadTimeout)
		defer cancel()

		snap, err := def.Load(ctx)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return errMsg{Err: fmt.Errorf("reload timed out after %v", LoadTimeout)}
			}
			return errMsg{Err: err}
		}
		changed := tbl.Load(snap.Rows, snap.Revision)
		return reloadedMsg{changed: changed, rows: tbl.Len()}
	}
}

func (m *Model) currentRow(v core.View) (core.ViewRow, bool) {
	if m.cursor < 0 || m.cursor >= len(v.Rows) {
		return core.ViewRow{}, false
	}
	return v.Rows[m.cursor], true
}

func (m *Model) currentColumn(v core.View) (core.ViewColumn, bool) {
	if m.colCursor < 0 || m.colCursor >= len(v.Columns) {
		return core.ViewColumn{}, false
	}
	return v.Columns[m.colCursor], true
}

func (m *Model) clampCursor() {
	v := m.table.View()
	if m.cursor >= len(v.Rows) {
		m.cursor = len(v.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.colCursor >= len(v.Columns) {
		m.colCursor = len(v.Columns) - 1
	}
	if m.colCursor < 0 {
		m.colCursor = 0
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	r := Renderer{
		Styles:    m.styles,
		Title:     m.def.Info.Label,
		CursorRow: m.cursor,
		CursorCol: m.colCursor,
	}
	var b strings.Builder
	b.WriteString(r.Render(m.table.View()))

	switch m.mode {
	case modeSearch, modeEdit, modeFilter:
		b.WriteString("\n" + m.input.View())
	case modeMenu:
		b.WriteString("\n" + m.menuView())
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(m.status)
	}
	b.WriteString("\n" + m.styles.Muted.Render(helpLine()))
	return b.String()
}

func (m *Model) menuView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.menu.Title) + "\n")
	for i, item := range m.menu.Items {
		if i == m.menuCursor {
			b.WriteString(m.styles.Cursor.Render("> " + item.Label))
		} else {
			b.WriteString("  " + item.Label)
		}
		if i < len(m.menu.Items)-1 {
			b.WriteString("\n")
		}
	}
	return m.styles.Box.Render(b.String())
}

// inputValue is the text a prompt starts with for v.
func inputValue(v core.Value) string {
	if v.IsNull() {
		return ""
	}
	if t, ok := v.Time(); ok {
		return t.Format("2006-01-02")
	}
	return v.String()
}
