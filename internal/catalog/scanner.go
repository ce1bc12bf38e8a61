package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pixeval/pixterm/internal/domain"
)

var (
	imageRe   = regexp.MustCompile(`^(\d+)(?:_p(\d+))?\.(?i:jpe?g|png|gif|webp)$`)
	coverRe   = regexp.MustCompile(`^(\d+)_cover\.(?i:jpe?g|png|gif|webp)$`)
	novelRe   = regexp.MustCompile(`^(\d+)\.txt$`)
	sidecarRe = regexp.MustCompile(`^(\d+)\.toml$`)
)

// progressEvery controls how often the scanner reports progress
const progressEvery = 100

// Sidecar is the optional {id}.toml metadata written next to a download
type Sidecar struct {
	Title   string    `toml:"title"`
	Author  string    `toml:"author"`
	Tags    []string  `toml:"tags"`
	Created time.Time `toml:"created"`
}

// work collects the files found for one id. An illustration and a novel
// may share an id; each becomes its own entry.
type work struct {
	id      string
	pages   map[int]string
	novel   string
	cover   string
	sidecar string
	modTime time.Time
}

// Scanner turns a download directory into catalog entries
type Scanner struct {
	root   string
	logger *slog.Logger
}

func NewScanner(root string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{root: root, logger: logger}
}

// Scan walks the library and returns every recognised work.
// onProgress may be nil.
func (s *Scanner) Scan(ctx context.Context, onProgress func(domain.SyncProgress)) ([]domain.Entry, error) {
	if s.root == "" {
		return nil, domain.ErrLibraryNotConfigured
	}

	works := make(map[string]*work)
	get := func(id string) *work {
		w, ok := works[id]
		if !ok {
			w = &work{id: id, pages: make(map[int]string)}
			works[id] = w
		}
		return w
	}

	scanned := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		scanned++
		if onProgress != nil && scanned%progressEvery == 0 {
			onProgress(domain.SyncProgress{Scanned: scanned, Entries: len(works)})
		}

		var w *work
		switch {
		case coverRe.MatchString(name):
			m := coverRe.FindStringSubmatch(name)
			w = get(m[1])
			w.cover = path
		case imageRe.MatchString(name):
			m := imageRe.FindStringSubmatch(name)
			page := 0
			if m[2] != "" {
				page, _ = strconv.Atoi(m[2])
			}
			w = get(m[1])
			if _, dup := w.pages[page]; !dup {
				w.pages[page] = path
			}
		case novelRe.MatchString(name):
			w = get(novelRe.FindStringSubmatch(name)[1])
			if w.novel == "" {
				w.novel = path
			}
		case sidecarRe.MatchString(name):
			w = get(sidecarRe.FindStringSubmatch(name)[1])
			w.sidecar = path
		default:
			return nil
		}

		if info, err := d.Info(); err == nil {
			if w.modTime.IsZero() || info.ModTime().Before(w.modTime) {
				w.modTime = info.ModTime()
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	entries := make([]domain.Entry, 0, len(works))
	for _, w := range works {
		found, err := w.entries()
		if err != nil {
			// The work is still listed with what the files tell us
			s.logger.Warn("ignoring malformed sidecar", "id", w.id, "path", w.sidecar, "error", err)
		}
		entries = append(entries, found...)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GetID() != entries[j].GetID() {
			return entries[i].GetID() < entries[j].GetID()
		}
		return domain.EntryKey(entries[i]) < domain.EntryKey(entries[j])
	})

	if onProgress != nil {
		onProgress(domain.SyncProgress{Scanned: scanned, Entries: len(entries)})
	}
	return entries, nil
}

// entries builds the novel and the illustration found under w.id. The
// sidecar error is returned alongside the entries, which then fall back to
// file names and times.
func (w *work) entries() ([]domain.Entry, error) {
	meta, err := ReadSidecar(w.sidecar)

	created := meta.Created
	if created.IsZero() {
		created = w.modTime
	}

	var out []domain.Entry
	if len(w.pages) > 0 {
		nums := make([]int, 0, len(w.pages))
		for n := range w.pages {
			nums = append(nums, n)
		}
		sort.Ints(nums)

		il := &domain.Illustration{
			ID:        w.id,
			Title:     meta.Title,
			Artist:    meta.Author,
			Tags:      meta.Tags,
			CreatedAt: created,
		}
		for _, n := range nums {
			il.Pages = append(il.Pages, w.pages[n])
		}
		if il.Title == "" {
			il.Title = "Illustration " + w.id
		}
		out = append(out, il)
	}

	if w.novel != "" {
		n := &domain.Novel{
			ID:        w.id,
			Title:     meta.Title,
			Author:    meta.Author,
			Tags:      meta.Tags,
			Path:      w.novel,
			CoverPath: w.cover,
			CreatedAt: created,
		}
		firstLine, words := readNovelStats(w.novel)
		if n.Title == "" {
			n.Title = firstLine
		}
		if n.Title == "" {
			n.Title = "Novel " + w.id
		}
		n.WordCount = words
		out = append(out, n)
	}
	return out, err
}

// ReadSidecar decodes a TOML sidecar. An empty path yields a zero Sidecar.
func ReadSidecar(path string) (Sidecar, error) {
	var meta Sidecar
	if path == "" {
		return meta, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := toml.Unmarshal(data, &meta); err != nil {
		return Sidecar{}, fmt.Errorf("sidecar %s: %w", path, err)
	}
	return meta, nil
}

// WriteSidecar encodes metadata next to a work
func WriteSidecar(path string, meta Sidecar) error {
	data, err := toml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// readNovelStats returns the first non-empty line and the word count
func readNovelStats(path string) (string, int) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0
	}
	defer f.Close()

	var first string
	words := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first == "" && line != "" {
			first = line
		}
		words += len(strings.Fields(line))
	}
	return first, words
}
