package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Tab        key.Binding
	ShiftTab   key.Binding
	Up         key.Binding
	Down       key.Binding
	PrevDay    key.Binding
	NextDay    key.Binding
	Today      key.Binding
	Toggle     key.Binding
	Add        key.Binding
	Delete     key.Binding
	Reactivate key.Binding
	Read       key.Binding
	Clear      key.Binding
	Test       key.Binding
	Notify     key.Binding
	Rename     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		ShiftTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevDay:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev day")),
		NextDay:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		Today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reactivate: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reactivate")),
		Read:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "mark read")),
		Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),
		Test:       key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "test notification")),
		Notify:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications on/off")),
		Rename:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
