package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Next     key.Binding
	Prev     key.Binding
	Expand   key.Binding
	Save     key.Binding
	Open     key.Binding
	Reset    key.Binding
	Language key.Binding
	Filter   key.Binding
	MarkRead key.Binding
	Follow   key.Binding
	Reload   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Next:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next")),
		Prev:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev")),
		Expand:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "see more")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "link")),
		Reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
		Language: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "language")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		MarkRead: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark read")),
		Follow:   key.NewBinding(key.WithKeys("t", "enter"), key.WithHelp("t", "follow")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}
