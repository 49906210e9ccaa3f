package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down            key.Binding
	Enter, Open, Toggle key.Binding
	Quit                key.Binding
	PreviewUp           key.Binding
	PreviewDn           key.Binding
	PageUp, PageDown    key.Binding
}

func bind(help, desc string, ks ...string) key.Binding {
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(help, desc))
}

var keys = keyMap{
	Up:        bind("up/C-k", "up", "up", "ctrl+k"),
	Down:      bind("dn/C-j", "down", "down", "ctrl+j"),
	Enter:     bind("enter", "copy link", "enter"),
	Open:      bind("C-o", "open in browser", "ctrl+o"),
	Toggle:    bind("tab", "search/filter", "tab"),
	Quit:      bind("esc", "quit", "esc", "ctrl+c"),
	PreviewUp: bind("C-u", "preview up", "ctrl+u"),
	PreviewDn: bind("C-d", "preview down", "ctrl+d"),
	PageUp:    bind("pgup", "preview page up", "pgup"),
	PageDown:  bind("pgdn", "preview page down", "pgdown"),
}
