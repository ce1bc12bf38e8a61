package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/pixeval/pixterm/internal/tui/components"
)

// KeyMap defines the global key bindings. It implements help.KeyMap.
type KeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Focus    key.Binding
	Rescan   key.Binding
	Rebuild  key.Binding
	Sections key.Binding

	Gallery components.GalleryKeyMap
	Viewer  components.ViewerKeyMap
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan library"),
		),
		Rebuild: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rebuild catalog"),
		),
		Sections: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "jump to section"),
		),
		Gallery: components.GalleryKeys,
		Viewer:  components.ViewerKeys,
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, one column each
func (k KeyMap) FullHelp() [][]key.Binding {
	g := k.Gallery
	return [][]key.Binding{
		{g.Up, g.Down, g.Left, g.Right, g.Home, g.End, g.HalfUp, g.HalfDown},
		{g.Enter, g.Filter, g.OpenWeb, g.OpenFile, g.CopyWeb, g.CopyApp, g.Bookmark},
		{k.Viewer.PrevPage, k.Viewer.NextPage, k.Viewer.PrevWork, k.Viewer.NextWork, k.Viewer.Info, k.Viewer.Close},
		{k.Focus, k.Sections, k.Rescan, k.Rebuild, k.Help, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
