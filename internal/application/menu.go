package application

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datatable/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

// buildMenuTree builds the menu from the table's current state. It is
// rebuilt after every action so labels stay current.
func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Table",
		Items: []MenuItem{
			{Label: "Columns ->", Submenu: loadColumnsMenu(m)},
			{Label: "Filters ->", Submenu: loadFiltersMenu(m)},
			{Label: "Page size ->", Submenu: loadPageSizeMenu(m)},
			{Label: "Reload", Action: m.reload},
			{Label: "Journal", Action: func() tea.Cmd {
				return func() tea.Msg {
					return statusMsg(fmt.Sprintf("%d changes recorded", m.journal.Len()))
				}
			}},
			{Label: "Back"},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadColumnsMenu(m *Model) *Menu {
	draft := m.table.ColumnDraft()
	var items []MenuItem
	for _, c := range m.table.Columns() {
		hidden := c.Hidden
		if d, ok := draft[c.Key]; ok {
			hidden = d
		}
		box := "[x] "
		if hidden {
			box = "[ ] "
		}
		key := c.Key
		items = append(items, MenuItem{Label: box + c.Title, Action: func() tea.Cmd {
			if err := m.table.ProposeColumnHidden(key, !hidden); err != nil {
				return errCmd(err)
			}
			return nil
		}})
	}
	items = append(items,
		MenuItem{Label: "Apply", Action: func() tea.Cmd {
			m.table.ApplyColumnVisibility()
			m.clampCursor()
			return statusCmd("column visibility applied")
		}},
		MenuItem{Label: "Reset", Action: func() tea.Cmd {
			m.table.ResetColumnVisibility()
			m.clampCursor()
			return statusCmd("all columns shown")
		}},
		MenuItem{Label: "Back"},
	)
	return &Menu{Title: "Columns", Items: items}
}

func loadFiltersMenu(m *Model) *Menu {
	filters := m.table.Filters()
	var items []MenuItem
	for _, c := range m.table.Columns() {
		if !c.Filterable || c.Type == core.TypeDate {
			continue
		}
		col := c
		label := c.Title
		if v, ok := filters[c.Key]; ok {
			label += " = " + v.String()
		}
		items = append(items, MenuItem{Label: label, Action: func() tea.Cmd {
			return m.startFilter(col)
		}})
	}
	if len(items) == 0 {
		items = append(items, MenuItem{Label: "No filterable columns"})
	}
	items = append(items,
		MenuItem{Label: "Clear filters", Action: func() tea.Cmd {
			m.table.ClearFilters()
			m.cursor = 0
			return statusCmd("filters cleared")
		}},
		MenuItem{Label: "Back"},
	)
	return &Menu{Title: "Filters", Items: items}
}

func loadPageSizeMenu(m *Model) *Menu {
	_, current := m.table.Page()
	var items []MenuItem
	for _, size := range m.sizes {
		n := size
		label := strconv.Itoa(n) + " / page"
		if n == current {
			label += " *"
		}
		items = append(items, MenuItem{Label: label, Action: func() tea.Cmd {
			m.setPageSize(n)
			return nil
		}})
	}
	items = append(items, MenuItem{Label: "Back"})
	return &Menu{Title: "Page size", Items: items}
}

func statusCmd(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return errMsg{Err: err} }
}
