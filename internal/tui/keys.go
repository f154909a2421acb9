package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Play       key.Binding
	Faster     key.Binding
	Slower     key.Binding
	Back       key.Binding
	RingDown   key.Binding
	RingUp     key.Binding
	RingTap    key.Binding
	RingDouble key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:       key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Play:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Faster:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "tempo up")),
		Slower:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "tempo down")),
		Back:       key.NewBinding(key.WithKeys("b", "esc"), key.WithHelp("b", "back")),
		RingDown:   key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "ring scroll down")),
		RingUp:     key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "ring scroll up")),
		RingTap:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "ring tap")),
		RingDouble: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "ring double tap")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Play, k.Back, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.Play, k.Faster, k.Slower},
		{k.RingDown, k.RingUp, k.RingTap, k.RingDouble},
		{k.Help, k.Quit},
	}
}
