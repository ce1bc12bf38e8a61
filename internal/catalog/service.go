package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pixeval/pixterm/internal/domain"
)

// saveChunkSize bounds the number of entries written per transaction
const saveChunkSize = 200

// Service orchestrates library scans and section reads
type Service struct {
	store  domain.Store
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	carried map[string]bool // bookmarks kept across InvalidateAll until the next Sync
}

// NewService creates a new catalog service for the library at root
func NewService(store domain.Store, root string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		root:   root,
		logger: logger,
	}
}

// Root returns the library directory
func (s *Service) Root() string {
	return s.root
}

// NeedsSync reports whether the library was never scanned
func (s *Service) NeedsSync() bool {
	return s.store.LastSync().IsZero()
}

// Sync scans the library, upserts every work and removes works whose files
// disappeared. Bookmarks survive rescans.
func (s *Service) Sync(ctx context.Context, onProgress func(domain.SyncProgress)) (domain.SyncResult, error) {
	var result domain.SyncResult
	start := time.Now()

	entries, err := NewScanner(s.root, s.logger).Scan(ctx, onProgress)
	if err != nil {
		s.logger.Error("library scan failed", "error", err, "root", s.root)
		return result, err
	}

	marks, err := s.store.Bookmarks()
	if err != nil {
		s.logger.Error("failed to read bookmarks", "error", err)
		return result, err
	}
	s.mu.Lock()
	for key := range s.carried {
		marks[key] = true
	}
	s.mu.Unlock()
	existing, err := s.store.EntryKeys()
	if err != nil {
		return result, err
	}
	known := make(map[string]bool, len(existing))
	for _, key := range existing {
		known[key] = true
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		key := domain.EntryKey(e)
		seen[key] = true
		if marks[key] {
			domain.SetBookmarked(e, true)
		}
		if !known[key] {
			result.Added++
		}
	}

	var removed []string
	for _, key := range existing {
		if !seen[key] {
			removed = append(removed, key)
		}
	}
	if len(removed) > 0 {
		if err := s.store.DeleteEntries(removed); err != nil {
			s.logger.Error("failed to remove missing works", "error", err, "count", len(removed))
			return result, err
		}
	}
	result.Removed = len(removed)

	for i := 0; i < len(entries); i += saveChunkSize {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		end := min(i+saveChunkSize, len(entries))
		if err := s.store.SaveEntries(entries[i:end]); err != nil {
			s.logger.Error("failed to save works", "error", err)
			return result, err
		}
	}
	result.Entries = len(entries)

	s.mu.Lock()
	s.carried = nil
	s.mu.Unlock()

	if err := s.store.SetLastSync(time.Now()); err != nil {
		s.logger.Error("failed to record sync time", "error", err)
	}

	s.logger.Info("library synced",
		"root", s.root,
		"entries", result.Entries,
		"added", result.Added,
		"removed", result.Removed,
		"duration", time.Since(start),
	)
	return result, nil
}

// Source returns a cursor-paged reader over one section
func (s *Service) Source(section domain.Section) domain.EntrySource {
	return domain.EntrySourceFunc(func(ctx context.Context, after string, limit int) (domain.Page, error) {
		if err := ctx.Err(); err != nil {
			return domain.Page{}, err
		}
		page, err := s.store.PageSection(section, after, limit)
		if err != nil {
			s.logger.Error("failed to page section", "error", err, "section", section)
			return domain.Page{}, err
		}
		s.logger.Debug("paged section", "section", section, "count", len(page.Entries), "done", page.Done)
		return page, nil
	})
}

// Counts returns the number of works per section
func (s *Service) Counts() map[domain.Section]int {
	counts := make(map[domain.Section]int, len(domain.Sections))
	for _, sec := range domain.Sections {
		counts[sec] = s.store.CountSection(sec)
	}
	return counts
}

// Entry returns a work by its catalog key (see domain.EntryKey)
func (s *Service) Entry(key string) (domain.Entry, error) {
	e, ok := s.store.GetEntry(key)
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return e, nil
}

// ToggleBookmark flips the bookmark flag of the work under key and returns
// the new value
func (s *Service) ToggleBookmark(key string) (bool, error) {
	e, ok := s.store.GetEntry(key)
	if !ok {
		return false, domain.ErrEntryNotFound
	}
	marked := !e.IsBookmarked()
	if err := s.store.SetBookmarked(key, marked); err != nil {
		s.logger.Error("failed to toggle bookmark", "error", err, "key", key)
		return false, err
	}
	s.logger.Debug("toggled bookmark", "key", key, "bookmarked", marked)
	return marked, nil
}

// InvalidateAll wipes the catalog and the cached thumbnails so the next
// Sync rebuilds everything. Bookmarks are carried over to that Sync.
func (s *Service) InvalidateAll() error {
	marks, err := s.store.Bookmarks()
	if err != nil {
		s.logger.Error("failed to read bookmarks", "error", err)
		return err
	}
	s.store.InvalidateAll()

	s.mu.Lock()
	if s.carried == nil {
		s.carried = make(map[string]bool, len(marks))
	}
	for key := range marks {
		s.carried[key] = true
	}
	s.mu.Unlock()

	s.logger.Info("invalidated catalog", "bookmarks", len(marks))
	return nil
}
