package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the prompt's keyboard bindings.
type keyMap struct {
	Apply   key.Binding
	Snooze  key.Binding
	Dismiss key.Binding
	Check   key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Apply: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "apply"),
		),
		Snooze: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "snooze"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss"),
		),
		Check: key.NewBinding(
			key.WithKeys("c", "r"),
			key.WithHelp("c", "check now"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Apply, k.Snooze, k.Dismiss, k.Check, k.Quit}
}
