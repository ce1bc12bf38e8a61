package components

import (
	"time"

	"github.com/pixeval/pixterm/internal/collection"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
	"github.com/pixeval/pixterm/internal/thumbnail"
)

// PageLoadedMsg carries a fetched section page back to the gallery
type PageLoadedMsg struct {
	Req  collection.Request
	Page domain.Page
	Err  error
}

// ThumbnailLoadedMsg carries a finished thumbnail load back to its item
type ThumbnailLoadedMsg struct {
	Item  *gallery.Item
	Seq   uint64
	Thumb gallery.Thumbnail
	Err   error
}

// AnimationTickMsg advances running fade-in transitions
type AnimationTickMsg struct {
	Time time.Time
}

// FetchFailedMsg reports a section page that could not be read
type FetchFailedMsg struct {
	Err error
}

// Action is something the user asked to do with a work
type Action int

const (
	ActionView Action = iota
	ActionOpenWeb
	ActionOpenFile
	ActionCopyWeb
	ActionCopyApp
	ActionToggleBookmark
)

// ActionMsg asks the app to act on a work. Path is the local file for
// ActionOpenFile.
type ActionMsg struct {
	Action Action
	Entry  domain.Entry
	Path   string
}

// SectionChangedMsg signals that the sidebar selection moved
type SectionChangedMsg struct {
	Section domain.Section
}

// ViewerImageMsg carries a rendered viewer page
type ViewerImageMsg struct {
	Seq   uint64
	Image *thumbnail.Image
	Err   error
}

// ViewerStepMsg asks the app for the previous or next work in grid order
type ViewerStepMsg struct {
	Delta int
}

// CloseMsg asks the app to leave the viewer or reader
type CloseMsg struct{}

// NovelLoadedMsg carries the text of a novel opened in the reader
type NovelLoadedMsg struct {
	ID   string
	Text string
	Err  error
}
