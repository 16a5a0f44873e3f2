package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review dashboard key bindings
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Start    key.Binding
	Complete key.Binding
	Skip     key.Binding
	Refresh  key.Binding
	Sync     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete"),
		),
		Skip: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "skip"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescore"),
		),
		Sync: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "git sync"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
