package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/store"
)

func touch(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScan_GroupsPagesAndNovels(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "100.png", "")
	touch(t, root, "sub/200_p1.jpg", "")
	touch(t, root, "sub/200_p0.jpg", "")
	touch(t, root, "sub/200_p10.jpg", "")
	touch(t, root, "300.txt", "\n  The Title  \nsome words here\n")
	touch(t, root, "300_cover.webp", "")
	touch(t, root, "notes.md", "")
	touch(t, root, ".hidden/400.png", "")

	entries, err := NewScanner(root, nil).Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 works, got %d", len(entries))
	}

	single := entries[0].(*domain.Illustration)
	if single.ID != "100" || single.GetKind() != domain.KindIllustration {
		t.Errorf("Expected single illustration 100, got %s (%s)", single.ID, single.GetKind())
	}

	manga := entries[1].(*domain.Illustration)
	if manga.GetKind() != domain.KindManga || manga.PageCount() != 3 {
		t.Fatalf("Expected 3-page manga, got %d pages", manga.PageCount())
	}
	wantOrder := []string{"200_p0.jpg", "200_p1.jpg", "200_p10.jpg"}
	for i, want := range wantOrder {
		if got := filepath.Base(manga.Pages[i]); got != want {
			t.Errorf("Page %d: expected %s, got %s", i, want, got)
		}
	}

	novel := entries[2].(*domain.Novel)
	if novel.Title != "The Title" {
		t.Errorf("Expected title from first line, got %q", novel.Title)
	}
	if novel.WordCount != 5 {
		t.Errorf("Expected 5 words, got %d", novel.WordCount)
	}
	if filepath.Base(novel.CoverPath) != "300_cover.webp" {
		t.Errorf("Expected cover to be attached, got %q", novel.CoverPath)
	}
}

func TestScan_Sidecar(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "42.png", "")
	created := time.Date(2023, 7, 1, 9, 30, 0, 0, time.UTC)
	err := WriteSidecar(filepath.Join(root, "42.toml"), Sidecar{
		Title:   "Sunset",
		Author:  "someone",
		Tags:    []string{"landscape", "sky"},
		Created: created,
	})
	if err != nil {
		t.Fatalf("WriteSidecar failed: %v", err)
	}

	entries, err := NewScanner(root, nil).Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	il := entries[0].(*domain.Illustration)
	if il.Title != "Sunset" || il.Artist != "someone" || len(il.Tags) != 2 {
		t.Errorf("Expected sidecar metadata, got %+v", il)
	}
	if !il.CreatedAt.Equal(created) {
		t.Errorf("Expected created %v, got %v", created, il.CreatedAt)
	}
}

func TestScan_SameIDDifferentKind(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "illusts/123_p0.png", "")
	touch(t, root, "novels/123.txt", "Harbor\nwords\n")

	entries, err := NewScanner(root, nil).Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 works, got %d", len(entries))
	}
	if entries[0].GetKind() != domain.KindIllustration || entries[1].GetKind() != domain.KindNovel {
		t.Errorf("Expected illustration then novel, got %s and %s", entries[0].GetKind(), entries[1].GetKind())
	}
	if domain.EntryKey(entries[0]) == domain.EntryKey(entries[1]) {
		t.Error("Expected distinct catalog keys")
	}
}

func TestScan_MalformedSidecar(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "42.png", "")
	touch(t, root, "42.toml", "title = [unterminated")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	entries, err := NewScanner(root, logger).Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 1 || entries[0].GetTitle() != "Illustration 42" {
		t.Fatalf("Expected the work with a fallback title, got %v", entries)
	}
	if !strings.Contains(buf.String(), "malformed sidecar") || !strings.Contains(buf.String(), "42.toml") {
		t.Errorf("Expected a warning naming the sidecar, got %q", buf.String())
	}
}

func TestScan_NotConfigured(t *testing.T) {
	if _, err := NewScanner("", nil).Scan(context.Background(), nil); err != domain.ErrLibraryNotConfigured {
		t.Errorf("Expected ErrLibraryNotConfigured, got %v", err)
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "1.png", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner(root, nil).Scan(ctx, nil); err == nil {
		t.Error("Expected error from cancelled scan")
	}
}

func newService(t *testing.T, root string) *Service {
	t.Helper()
	st, err := store.NewCatalogStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, root, nil)
}

func TestSync_PreservesBookmarksAndRemovesMissing(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "1.png", "")
	gone := touch(t, root, "2.png", "")
	svc := newService(t, root)

	if !svc.NeedsSync() {
		t.Fatal("Expected fresh catalog to need a sync")
	}
	res, err := svc.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Added != 2 || res.Entries != 2 {
		t.Fatalf("Expected 2 added, got %+v", res)
	}
	if svc.NeedsSync() {
		t.Error("Expected sync time to be recorded")
	}

	if marked, err := svc.ToggleBookmark("i:1"); err != nil || !marked {
		t.Fatalf("Expected bookmark on, got %v (err=%v)", marked, err)
	}

	os.Remove(gone)
	touch(t, root, "3.txt", "novel")
	res, err = svc.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Added != 1 || res.Removed != 1 || res.Entries != 2 {
		t.Errorf("Expected 1 added and 1 removed, got %+v", res)
	}

	counts := svc.Counts()
	if counts[domain.SectionBookmarks] != 1 {
		t.Errorf("Expected bookmark to survive rescan, got %d", counts[domain.SectionBookmarks])
	}
	if counts[domain.SectionNovels] != 1 {
		t.Errorf("Expected 1 novel, got %d", counts[domain.SectionNovels])
	}
	if _, err := svc.Entry("i:2"); err != domain.ErrEntryNotFound {
		t.Errorf("Expected removed work to be gone, got %v", err)
	}
}

func TestSync_SameIDKeepsBothKinds(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "123_p0.png", "")
	novel := touch(t, root, "123.txt", "Harbor\n")
	svc := newService(t, root)

	res, err := svc.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Entries != 2 || res.Added != 2 {
		t.Fatalf("Expected 2 works added, got %+v", res)
	}
	if _, err := svc.ToggleBookmark("n:123"); err != nil {
		t.Fatalf("ToggleBookmark failed: %v", err)
	}

	os.Remove(novel)
	res, err = svc.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Removed != 1 || res.Entries != 1 {
		t.Errorf("Expected only the novel removed, got %+v", res)
	}
	il, err := svc.Entry("i:123")
	if err != nil || il.IsBookmarked() {
		t.Errorf("Expected the illustration kept without the novel's bookmark, got %v (err=%v)", il, err)
	}
}

func TestInvalidateAll_RebuildKeepsBookmarks(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "1.png", "")
	touch(t, root, "2.png", "")
	svc := newService(t, root)
	if _, err := svc.Sync(context.Background(), nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	svc.ToggleBookmark("i:2")

	if err := svc.InvalidateAll(); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}
	if !svc.NeedsSync() || svc.Counts()[domain.SectionAll] != 0 {
		t.Fatal("Expected an empty catalog that needs a scan")
	}

	res, err := svc.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Added != 2 {
		t.Errorf("Expected every work added again, got %+v", res)
	}
	e, err := svc.Entry("i:2")
	if err != nil || !e.IsBookmarked() {
		t.Errorf("Expected the bookmark to survive the rebuild, got %v (err=%v)", e, err)
	}
	if got := svc.Counts()[domain.SectionBookmarks]; got != 1 {
		t.Errorf("Expected 1 bookmark, got %d", got)
	}
}

func TestSource_PagesSection(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1.png", "2.png", "3.png"} {
		touch(t, root, name, "")
	}
	svc := newService(t, root)
	if _, err := svc.Sync(context.Background(), nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	src := svc.Source(domain.SectionIllustrations)
	page, err := src.Page(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(page.Entries) != 2 || page.Done {
		t.Fatalf("Expected 2 entries with more to come, got %d (done=%v)", len(page.Entries), page.Done)
	}
	page, err = src.Page(context.Background(), page.Next, 2)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(page.Entries) != 1 || !page.Done {
		t.Errorf("Expected final page of 1, got %d (done=%v)", len(page.Entries), page.Done)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Page(ctx, "", 2); err == nil {
		t.Error("Expected cancelled context to fail the page")
	}
}

func TestToggleBookmark_Missing(t *testing.T) {
	svc := newService(t, t.TempDir())
	if _, err := svc.ToggleBookmark("nope"); err != domain.ErrEntryNotFound {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}
