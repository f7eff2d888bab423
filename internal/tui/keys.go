package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Interval key.Binding
	Kind     key.Binding
	Overlays key.Binding
	Replay   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next symbol")),
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev symbol")),
		Interval: key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("tab", "interval")),
		Kind:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "line/candles")),
		Overlays: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overlays")),
		Replay:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "replay")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Interval, k.Kind, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Interval},
		{k.Kind, k.Overlays, k.Replay},
		{k.Help, k.Quit},
	}
}
