package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	NextSection key.Binding
	PrevSection key.Binding
	ToggleEdit  key.Binding
	Grab        key.Binding
	Enter       key.Binding
	Cancel      key.Binding
	AddParent   key.Binding
	AddChild    key.Binding
	Delete      key.Binding
	Search      key.Binding
	NextHit     key.Binding
	PrevHit     key.Binding
	Copy        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		NextSection: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
		PrevSection: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev section")),
		ToggleEdit:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit mode")),
		Grab:        key.NewBinding(key.WithKeys(" ", "space", "m"), key.WithHelp("space", "move row")),
		Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop / edit cell")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		AddParent:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add row")),
		AddChild:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "add child")),
		Delete:      key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextHit:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev match")),
		PrevHit:     key.NewBinding(key.WithKeys("N")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy row")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleEdit, k.Grab, k.AddParent, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.NextSection, k.PrevSection},
		{k.ToggleEdit, k.Grab, k.Enter, k.Cancel},
		{k.AddParent, k.AddChild, k.Delete, k.Copy},
		{k.Search, k.NextHit, k.Help, k.Quit},
	}
}
