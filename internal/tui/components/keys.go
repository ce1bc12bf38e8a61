package components

import "github.com/charmbracelet/bubbles/key"

// GalleryKeyMap defines key bindings for grid navigation and actions
type GalleryKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Home     key.Binding
	End      key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	Escape   key.Binding
	Enter    key.Binding
	Filter   key.Binding

	OpenWeb  key.Binding
	OpenFile key.Binding
	CopyWeb  key.Binding
	CopyApp  key.Binding
	Bookmark key.Binding
}

// DefaultGalleryKeyMap returns the default grid key bindings
func DefaultGalleryKeyMap() GalleryKeyMap {
	return GalleryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "right"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "half page up"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "half page down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view/read"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		OpenWeb: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		OpenFile: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "open original"),
		),
		CopyWeb: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		CopyApp: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy app link"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bookmark"),
		),
	}
}

// ViewerKeyMap defines key bindings for the image viewer
type ViewerKeyMap struct {
	PrevPage key.Binding
	NextPage key.Binding
	PrevWork key.Binding
	NextWork key.Binding
	Info     key.Binding
	OpenWeb  key.Binding
	OpenFile key.Binding
	CopyWeb  key.Binding
	CopyApp  key.Binding
	Bookmark key.Binding
	Close    key.Binding
}

// DefaultViewerKeyMap returns the default viewer key bindings
func DefaultViewerKeyMap() ViewerKeyMap {
	return ViewerKeyMap{
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right", " "),
			key.WithHelp("l/→", "next page"),
		),
		PrevWork: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous work"),
		),
		NextWork: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next work"),
		),
		Info: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "toggle info"),
		),
		OpenWeb: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		OpenFile: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "open page"),
		),
		CopyWeb: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		CopyApp: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy app link"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bookmark"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
	}
}

// Package-level key map instances
var (
	GalleryKeys = DefaultGalleryKeyMap()
	ViewerKeys  = DefaultViewerKeyMap()
)
