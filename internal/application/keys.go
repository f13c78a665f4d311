package application

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	Left           key.Binding
	Right          key.Binding
	Search         key.Binding
	Sort           key.Binding
	Toggle         key.Binding
	ToggleAll      key.Binding
	Delete         key.Binding
	DeleteSelected key.Binding
	Edit           key.Binding
	NextPage       key.Binding
	PrevPage       key.Binding
	Grow           key.Binding
	Shrink         key.Binding
	Hide           key.Binding
	ApplyHidden    key.Binding
	ResetHidden    key.Binding
	Narrow         key.Binding
	Widen          key.Binding
	Menu           key.Binding
	Reload         key.Binding
	Quit           key.Binding

	Confirm key.Binding
	Cancel  key.Binding
}

var keys = keyMap{
	Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:           key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev column")),
	Right:          key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next column")),
	Search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:           key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
	ToggleAll:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	Delete:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete row")),
	DeleteSelected: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete selected")),
	Edit:           key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit cell")),
	NextPage:       key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	PrevPage:       key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
	Grow:           key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "bigger pages")),
	Shrink:         key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller pages")),
	Hide:           key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "mark column hidden")),
	ApplyHidden:    key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "apply columns")),
	ResetHidden:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset columns")),
	Narrow:         key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrow column")),
	Widen:          key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "widen column")),
	Menu:           key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
	Reload:         key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
	Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Confirm: key.NewBinding(key.WithKeys("enter")),
	Cancel:  key.NewBinding(key.WithKeys("esc")),
}

// helpLine is the one-line key summary shown under the table.
func helpLine() string {
	bs := []key.Binding{
		keys.Search, keys.Sort, keys.Toggle, keys.ToggleAll, keys.Delete, keys.Edit,
		keys.NextPage, keys.PrevPage, keys.Hide, keys.ApplyHidden, keys.Narrow, keys.Widen,
		keys.Menu, keys.Quit,
	}
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += " • "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
