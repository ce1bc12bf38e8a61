package domain

import (
	"fmt"
	"time"
)

// EntryKind distinguishes catalog content types
type EntryKind int

const (
	KindIllustration EntryKind = iota
	KindManga
	KindNovel
)

// String returns the lowercase kind name used in keys and logs
func (k EntryKind) String() string {
	switch k {
	case KindIllustration:
		return "illust"
	case KindManga:
		return "manga"
	case KindNovel:
		return "novel"
	default:
		return "unknown"
	}
}

// Entry is the polymorphic interface for everything that can sit in the grid.
// Illustration and Novel implement it directly.
type Entry interface {
	// GetID returns the platform identifier (numeric string)
	GetID() string

	// GetTitle returns the display title
	GetTitle() string

	// GetAuthor returns the artist or author name
	GetAuthor() string

	// GetTags returns the tags attached to the work
	GetTags() []string

	// GetKind returns illustration, manga or novel
	GetKind() EntryKind

	// ThumbnailPath returns the local image used for the grid thumbnail ("" if none)
	ThumbnailPath() string

	// IsBookmarked reports whether the user bookmarked the work locally
	IsBookmarked() bool

	// GetCreatedAt returns when the work was created (file time when unknown)
	GetCreatedAt() time.Time

	// WebURL returns the platform page for the work
	WebURL() string

	// AppURL returns the deep link understood by the desktop client
	AppURL() string
}

// Illustration is a single or multi-page image work
type Illustration struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Tags       []string  `json:"tags,omitempty"`
	Pages      []string  `json:"pages"` // absolute file paths ordered by page number
	CreatedAt  time.Time `json:"created_at"`
	Bookmarked bool      `json:"bookmarked"`
}

// Novel is a text work with an optional cover image
type Novel struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Tags       []string  `json:"tags,omitempty"`
	Path       string    `json:"path"`
	CoverPath  string    `json:"cover_path,omitempty"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
	Bookmarked bool      `json:"bookmarked"`
}

func (i *Illustration) GetID() string           { return i.ID }
func (i *Illustration) GetTitle() string        { return i.Title }
func (i *Illustration) GetAuthor() string       { return i.Artist }
func (i *Illustration) GetTags() []string       { return i.Tags }
func (i *Illustration) IsBookmarked() bool      { return i.Bookmarked }
func (i *Illustration) GetCreatedAt() time.Time { return i.CreatedAt }

// GetKind returns KindManga for multi-page works
func (i *Illustration) GetKind() EntryKind {
	if len(i.Pages) > 1 {
		return KindManga
	}
	return KindIllustration
}

// ThumbnailPath returns the first page
func (i *Illustration) ThumbnailPath() string {
	if len(i.Pages) == 0 {
		return ""
	}
	return i.Pages[0]
}

// PageCount returns the number of pages
func (i *Illustration) PageCount() int {
	return len(i.Pages)
}

func (n *Novel) GetID() string           { return n.ID }
func (n *Novel) GetTitle() string        { return n.Title }
func (n *Novel) GetAuthor() string       { return n.Author }
func (n *Novel) GetTags() []string       { return n.Tags }
func (n *Novel) GetKind() EntryKind      { return KindNovel }
func (n *Novel) ThumbnailPath() string   { return n.CoverPath }
func (n *Novel) IsBookmarked() bool      { return n.Bookmarked }
func (n *Novel) GetCreatedAt() time.Time { return n.CreatedAt }

// FormattedWordCount returns the length in a compact form (e.g. "12.4k words")
func (n *Novel) FormattedWordCount() string {
	if n.WordCount >= 1000 {
		return fmt.Sprintf("%.1fk words", float64(n.WordCount)/1000)
	}
	return fmt.Sprintf("%d words", n.WordCount)
}

// SetBookmarked updates the bookmark flag on any entry type
func SetBookmarked(e Entry, bookmarked bool) {
	switch v := e.(type) {
	case *Illustration:
		v.Bookmarked = bookmarked
	case *Novel:
		v.Bookmarked = bookmarked
	}
}

// EntryKey identifies an entry in the catalog. Illustrations and novels are
// numbered independently, so the bare id can name two works.
func EntryKey(e Entry) string {
	if e.GetKind() == KindNovel {
		return "n:" + e.GetID()
	}
	return "i:" + e.GetID()
}

// Page is one slice of a cursor-paged section
type Page struct {
	Entries []Entry
	Next    string // opaque cursor for the following page
	Done    bool   // no entries after this page
}
