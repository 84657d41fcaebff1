package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the reader's key bindings. Keys not bound here dismiss the
// current headline.
type KeyMap struct {
	Open    key.Binding
	Skip    key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open + mark read"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip (keep unread)"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("n", " ", "enter", "j", "down"),
			key.WithHelp("n/space", "mark read"),
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

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.Open, k.Skip, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dismiss, k.Open, k.Skip},
		{k.Help, k.Quit},
	}
}
