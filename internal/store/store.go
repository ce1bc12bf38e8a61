package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pixeval/pixterm/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketEntries    = []byte("entries")    // entry key -> entryWrapper JSON
	bucketIndex      = []byte("index")      // section:sortKey -> entry key
	bucketThumbnails = []byte("thumbnails") // thumb key -> PNG bytes
	bucketMeta       = []byte("meta")       // last sync time, etc.
)

var allBuckets = [][]byte{bucketEntries, bucketIndex, bucketThumbnails, bucketMeta}

var keyLastSync = []byte("last_sync")

// entryWrapper wraps domain.Entry for JSON serialization
type entryWrapper struct {
	Type         string               `json:"type"`
	Illustration *domain.Illustration `json:"illustration,omitempty"`
	Novel        *domain.Novel        `json:"novel,omitempty"`
}

// CatalogStore implements domain.Store using BoltDB.
type CatalogStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path entry reads (promoted on access)
	cache map[string]domain.Entry
}

// NewCatalogStore opens (or creates) the catalog database under cacheDir
func NewCatalogStore(cacheDir string) (*CatalogStore, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cacheDir, "pixterm.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CatalogStore{db: db, cache: make(map[string]domain.Entry)}, nil
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sortKey orders entries newest first, ties broken by entry key
func sortKey(e domain.Entry) string {
	ts := e.GetCreatedAt().Unix()
	if ts < 0 {
		ts = 0
	}
	return fmt.Sprintf("%016x:%s", uint64(math.MaxInt64-ts), domain.EntryKey(e))
}

func indexKeys(e domain.Entry) [][]byte {
	key := sortKey(e)
	secs := domain.SectionsFor(e)
	keys := make([][]byte, len(secs))
	for i, sec := range secs {
		keys[i] = []byte(string(sec) + ":" + key)
	}
	return keys
}

func wrapEntry(e domain.Entry) (entryWrapper, error) {
	switch v := e.(type) {
	case *domain.Illustration:
		return entryWrapper{Type: "illustration", Illustration: v}, nil
	case *domain.Novel:
		return entryWrapper{Type: "novel", Novel: v}, nil
	default:
		return entryWrapper{}, fmt.Errorf("unsupported entry type %T", e)
	}
}

func unwrapEntry(data []byte) (domain.Entry, error) {
	var w entryWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "illustration":
		if w.Illustration != nil {
			return w.Illustration, nil
		}
	case "novel":
		if w.Novel != nil {
			return w.Novel, nil
		}
	}
	return nil, fmt.Errorf("malformed entry record of type %q", w.Type)
}

// === Entries ===

// GetEntry looks an entry up by its domain.EntryKey
func (s *CatalogStore) GetEntry(key string) (domain.Entry, bool) {
	s.mu.RLock()
	if e, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return e, true
	}
	s.mu.RUnlock()

	var entry domain.Entry
	s.db.View(func(tx *bolt.Tx) error {
		entry = readEntry(tx, key)
		return nil
	})
	if entry == nil {
		return nil, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = entry
	s.mu.Unlock()

	return entry, true
}

func readEntry(tx *bolt.Tx, key string) domain.Entry {
	v := tx.Bucket(bucketEntries).Get([]byte(key))
	if v == nil {
		return nil
	}
	e, err := unwrapEntry(v)
	if err != nil {
		return nil
	}
	return e
}

// SaveEntries upserts entries and rewrites their section index keys
func (s *CatalogStore) SaveEntries(entries []domain.Entry) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		eb := tx.Bucket(bucketEntries)
		ib := tx.Bucket(bucketIndex)
		for _, e := range entries {
			key := domain.EntryKey(e)
			if old := readEntry(tx, key); old != nil {
				for _, k := range indexKeys(old) {
					if err := ib.Delete(k); err != nil {
						return err
					}
				}
			}
			w, err := wrapEntry(e)
			if err != nil {
				return err
			}
			data, err := json.Marshal(w)
			if err != nil {
				return err
			}
			if err := eb.Put([]byte(key), data); err != nil {
				return err
			}
			for _, k := range indexKeys(e) {
				if err := ib.Put(k, []byte(key)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, e := range entries {
		delete(s.cache, domain.EntryKey(e))
	}
	s.mu.Unlock()
	return nil
}

// DeleteEntries removes entries and their index keys
func (s *CatalogStore) DeleteEntries(keys []string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.cache, key)
	}
	s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		eb := tx.Bucket(bucketEntries)
		ib := tx.Bucket(bucketIndex)
		for _, key := range keys {
			old := readEntry(tx, key)
			if old == nil {
				continue
			}
			for _, k := range indexKeys(old) {
				if err := ib.Delete(k); err != nil {
					return err
				}
			}
			if err := eb.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// EntryKeys returns the key of every stored entry
func (s *CatalogStore) EntryKeys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// === Sections ===

// PageSection returns up to limit entries of a section after the cursor.
// The cursor is the sort key of the last entry of the previous page.
func (s *CatalogStore) PageSection(section domain.Section, after string, limit int) (domain.Page, error) {
	var page domain.Page
	if limit <= 0 {
		return page, nil
	}
	prefix := []byte(string(section) + ":")

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketIndex).Cursor()

		var k, v []byte
		if after == "" {
			k, v = c.Seek(prefix)
		} else {
			start := append(append([]byte{}, prefix...), after...)
			k, v = c.Seek(start)
			if k != nil && bytes.Equal(k, start) {
				k, v = c.Next()
			}
		}

		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if len(page.Entries) == limit {
				// One more key exists in the section
				return nil
			}
			if e := readEntry(tx, string(v)); e != nil {
				page.Entries = append(page.Entries, e)
			}
			page.Next = strings.TrimPrefix(string(k), string(prefix))
		}
		page.Done = true
		return nil
	})
	return page, err
}

// CountSection returns the number of entries listed in a section
func (s *CatalogStore) CountSection(section domain.Section) int {
	prefix := []byte(string(section) + ":")
	count := 0
	s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketIndex).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			count++
		}
		return nil
	})
	return count
}

// === Bookmarks ===

func (s *CatalogStore) SetBookmarked(key string, bookmarked bool) error {
	e, ok := s.GetEntry(key)
	if !ok {
		return domain.ErrEntryNotFound
	}
	domain.SetBookmarked(e, bookmarked)
	return s.SaveEntries([]domain.Entry{e})
}

// Bookmarks returns the keys of every bookmarked entry
func (s *CatalogStore) Bookmarks() (map[string]bool, error) {
	marks := make(map[string]bool)
	prefix := []byte(string(domain.SectionBookmarks) + ":")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketIndex).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			marks[string(v)] = true
		}
		return nil
	})
	return marks, err
}

// === Meta ===

// LastSync returns when the library was last scanned (zero if never)
func (s *CatalogStore) LastSync() time.Time {
	var ts time.Time
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyLastSync); v != nil {
			ts.UnmarshalBinary(v)
		}
		return nil
	})
	return ts
}

func (s *CatalogStore) SetLastSync(t time.Time) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyLastSync, data)
	})
}

// === Thumbnails ===

func (s *CatalogStore) GetThumbnail(key string) ([]byte, bool) {
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketThumbnails).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, data != nil
}

func (s *CatalogStore) SaveThumbnail(key string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketThumbnails).Put([]byte(key), data)
	})
}

// InvalidateThumbnails drops every cached thumbnail
func (s *CatalogStore) InvalidateThumbnails() {
	s.clearBuckets(bucketThumbnails)
}

// InvalidateAll wipes the catalog and the thumbnail cache
func (s *CatalogStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]domain.Entry)
	s.mu.Unlock()

	s.clearBuckets(allBuckets...)
}

func (s *CatalogStore) clearBuckets(buckets ...[]byte) {
	s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
