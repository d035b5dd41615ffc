package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Home    key.Binding
	Fit     key.Binding
	Theme   key.Binding
	Reading key.Binding
	Reheat  key.Binding
	Release key.Binding
	Open    key.Binding
	Next    key.Binding
	Path    key.Binding
	Central key.Binding
	Groups  key.Binding
	Export  key.Binding
	Copy    key.Binding
	Search  key.Binding
	Help    key.Binding
	Esc     key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Home:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "origin")),
	Fit:     key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "fit")),
	Theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Reading: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reading mode")),
	Reheat:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "reheat")),
	Release: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "release pin")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open link")),
	Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next node")),
	Path:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "path")),
	Central: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "centrality")),
	Groups:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "communities")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
	Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Esc:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Fit, k.Reheat, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.ZoomIn, k.ZoomOut, k.Home, k.Fit},
		{k.Next, k.Search, k.Open, k.Release, k.Reheat, k.Path, k.Central, k.Groups},
		{k.Theme, k.Reading, k.Export, k.Copy, k.Esc, k.Help, k.Quit},
	}
}
