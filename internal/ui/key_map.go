package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	favorite  key.Binding
	search    key.Binding
	switchTab key.Binding
	next      key.Binding
	prev      key.Binding
	theme     key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		favorite:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		switchTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "favorites/browse")),
		next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prev:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.favorite, k.switchTab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.favorite, k.search, k.switchTab},
		{k.next, k.prev, k.theme, k.quit},
	}
}
