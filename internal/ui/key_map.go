package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	like     key.Binding
	download key.Binding
	year     key.Binding
	kind     key.Binding
	sync     key.Binding
	open     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		year:     key.NewBinding(key.WithKeys("tab", "t"), key.WithHelp("tab", "year")),
		kind:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "photos/videos")),
		sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.like, k.download, k.open},
		{k.year, k.kind, k.sync, k.quit},
	}
}
