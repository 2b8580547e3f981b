package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the dashboard
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	MarkRead       key.Binding
	Back           key.Binding
	Quit           key.Binding
	Help           key.Binding
	Filter         key.Binding
	ClearFilter    key.Binding
	CycleWindow    key.Binding
	ActionOnly     key.Binding
	UnreadOnly     key.Binding
	OnlineOnly     key.Binding
	Keyword        key.Binding
	CycleAlgorithm key.Binding
	Settings       key.Binding
	ResetSettings  key.Binding
	SavePreset     key.Binding
	LoadPreset     key.Binding
	Refresh        key.Binding
	Export         key.Binding
	Import         key.Binding
	CycleTheme     key.Binding
}

// DefaultKeyMap returns the default keybindings
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
		MarkRead: key.NewBinding(
			key.WithKeys("enter", "r"),
			key.WithHelp("enter/r", "mark read"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filter"),
		),
		CycleWindow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "time window"),
		),
		ActionOnly: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "action required"),
		),
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread"),
		),
		OnlineOnly: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "online"),
		),
		Keyword: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		CycleAlgorithm: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "algorithm"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		ResetSettings: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "reset settings"),
		),
		SavePreset: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "save preset"),
		),
		LoadPreset: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "next preset"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
	}
}

// Keys returns the keys as a slice for matching
func (k KeyMap) Keys() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.MarkRead, k.Back, k.Quit, k.Help,
		k.Filter, k.ClearFilter, k.CycleWindow, k.ActionOnly, k.UnreadOnly, k.OnlineOnly,
		k.Keyword, k.CycleAlgorithm, k.Settings, k.ResetSettings, k.SavePreset, k.LoadPreset,
		k.Refresh, k.Export, k.Import, k.CycleTheme,
	}
}
