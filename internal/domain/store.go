package domain

import "time"

// Section is a browsable slice of the catalog
type Section string

const (
	SectionAll           Section = "all"
	SectionIllustrations Section = "illust"
	SectionManga         Section = "manga"
	SectionNovels        Section = "novel"
	SectionBookmarks     Section = "bookmarks"
)

// Sections lists the sections in sidebar order
var Sections = []Section{
	SectionAll,
	SectionIllustrations,
	SectionManga,
	SectionNovels,
	SectionBookmarks,
}

// Title returns the sidebar label
func (s Section) Title() string {
	switch s {
	case SectionAll:
		return "All works"
	case SectionIllustrations:
		return "Illustrations"
	case SectionManga:
		return "Manga"
	case SectionNovels:
		return "Novels"
	case SectionBookmarks:
		return "Bookmarks"
	default:
		return string(s)
	}
}

// SectionsFor returns every section an entry is listed in
func SectionsFor(e Entry) []Section {
	secs := []Section{SectionAll}
	switch e.GetKind() {
	case KindIllustration:
		secs = append(secs, SectionIllustrations)
	case KindManga:
		secs = append(secs, SectionManga)
	case KindNovel:
		secs = append(secs, SectionNovels)
	}
	if e.IsBookmarked() {
		secs = append(secs, SectionBookmarks)
	}
	return secs
}

// Store handles the local catalog and thumbnail cache (BoltDB + memory).
type Store interface {
	// === Entries (keyed by EntryKey) ===
	GetEntry(key string) (Entry, bool)
	SaveEntries(entries []Entry) error
	DeleteEntries(keys []string) error
	EntryKeys() ([]string, error)

	// === Sections (cursor paging, newest first) ===
	PageSection(section Section, after string, limit int) (Page, error)
	CountSection(section Section) int

	// === Bookmarks ===
	SetBookmarked(key string, bookmarked bool) error
	Bookmarks() (map[string]bool, error)

	// === Thumbnails (resized PNG bytes) ===
	GetThumbnail(key string) ([]byte, bool)
	SaveThumbnail(key string, data []byte) error
	InvalidateThumbnails()

	// === Meta ===
	LastSync() time.Time
	SetLastSync(t time.Time) error

	// === Invalidation ===
	InvalidateAll()

	Close() error
}

// SyncProgress reports progress during a library scan.
type SyncProgress struct {
	Scanned int // files visited so far
	Entries int // works recognised so far
	Done    bool
	Error   error
}

// SyncResult summarizes a finished library scan.
type SyncResult struct {
	Entries int // works in the catalog after the scan
	Added   int
	Removed int
}
