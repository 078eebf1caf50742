package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Tab          key.Binding
	Space        key.Binding
	Add          key.Binding
	Schedule     key.Binding
	Later        key.Binding
	Earlier      key.Binding
	NextDay      key.Binding
	PrevDay      key.Binding
	Grow         key.Binding
	Shrink       key.Binding
	Delete       key.Binding
	RawEdit      key.Binding
	ExternalEdit key.Binding
	Notes        key.Binding
	Search       key.Binding
	Reload       key.Binding
	Sync         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
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
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle status"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add task"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "schedule block"),
		),
		Later: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "30m later"),
		),
		Earlier: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "30m earlier"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "next day"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "previous day"),
		),
		Grow: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "extend 30m"),
		),
		Shrink: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "shorten 30m"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete block"),
		),
		RawEdit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit as text"),
		),
		ExternalEdit: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "$EDITOR"),
		),
		Notes: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "toggle notes"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Sync: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sync calendar"),
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

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "↑↓ nav  tab pane  a add  s schedule  space status  e edit  S sync  / search  ? help"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"tab", "Switch pane (tasks / agenda)"},
		{"a", "Add task to the selected role"},
		{"space", "Cycle status: derived → completed → dropped"},
		{"s", "Schedule a block for the selected task"},
		{"J / K", "Move block 30 minutes later / earlier"},
		{"L / H", "Move block to next / previous day"},
		{"+ / -", "Extend / shorten block by 30 minutes"},
		{"d", "Delete block (with confirmation)"},
		{"e", "Edit the week as text"},
		{"E", "Edit the week in $EDITOR"},
		{"n", "Toggle insight and notes"},
		{"/", "Search tasks"},
		{"R", "Reload from disk"},
		{"S", "Sync fixed events from calendar"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
