package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Deal      key.Binding
	Hit       key.Binding
	Stand     key.Binding
	Double    key.Binding
	Split     key.Binding
	BetUp     key.Binding
	BetDown   key.Binding
	BetAdvice key.Binding
	Count     key.Binding
	Reset     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Deal: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "deal"),
		),
		Hit: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hit"),
		),
		Stand: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stand"),
		),
		Double: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "double"),
		),
		Split: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "split"),
		),
		BetUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "double bet"),
		),
		BetDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "halve bet"),
		),
		BetAdvice: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "count bet"),
		),
		Count: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle count"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset stats"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Deal, k.Hit, k.Stand, k.Double, k.Split, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Deal, k.Hit, k.Stand, k.Double, k.Split},
		{k.BetUp, k.BetDown, k.BetAdvice},
		{k.Count, k.Reset, k.Help, k.Quit},
	}
}
