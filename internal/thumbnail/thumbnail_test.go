package thumbnail

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
)

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBlobs) GetThumbnail(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok
}

func (m *memBlobs) SaveThumbnail(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = data
	return nil
}

// sizeRenderer reports the bounds it was asked to render
type sizeRenderer struct {
	mu     sync.Mutex
	bounds []image.Rectangle
}

func (r *sizeRenderer) CellPixels() (int, int) { return 2, 4 }

func (r *sizeRenderer) Render(img image.Image, size domain.CellSize) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bounds = append(r.bounds, img.Bounds())
	return "rendered", nil
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "1.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestLoader(t *testing.T, blobs BlobStore) (*Loader, *sizeRenderer) {
	t.Helper()
	cache, err := NewCache(8, blobs, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	r := &sizeRenderer{}
	return NewLoader(cache, r, 2, nil), r
}

func TestLoad_FitsOntoCellCanvas(t *testing.T) {
	path := writePNG(t, 100, 50)
	blobs := &memBlobs{}
	l, r := newTestLoader(t, blobs)

	size := domain.CellSize{Cols: 10, Rows: 5} // 20x20 px
	img, err := l.Load(context.Background(), path, size)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Render() != "rendered" {
		t.Errorf("Expected rendered text, got %q", img.Render())
	}
	if got := r.bounds[0]; got.Dx() != 20 || got.Dy() != 20 {
		t.Errorf("Expected 20x20 canvas, got %v", got)
	}
	if len(blobs.data) != 1 {
		t.Errorf("Expected the resized image to be persisted, got %d blobs", len(blobs.data))
	}

	img.Close()
	if img.Render() != "" || !img.Closed() {
		t.Error("Expected closed image to render nothing")
	}
}

func TestCache_PromotesBlobHits(t *testing.T) {
	blobs := &memBlobs{}
	first, err := NewCache(4, blobs, nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Put("k", image.NewNRGBA(image.Rect(0, 0, 3, 3)))

	second, _ := NewCache(4, blobs, nil)
	img, ok := second.Get("k")
	if !ok || img.Bounds().Dx() != 3 {
		t.Fatalf("Expected blob hit, got ok=%v", ok)
	}
	if second.Len() != 1 {
		t.Errorf("Expected blob hit to be promoted to memory, got %d", second.Len())
	}

	blobs.SaveThumbnail("bad", []byte("not a png"))
	if _, ok := second.Get("bad"); ok {
		t.Error("Expected corrupt blob to miss")
	}
}

func TestLoad_Errors(t *testing.T) {
	l, _ := newTestLoader(t, nil)
	size := domain.CellSize{Cols: 4, Rows: 2}

	if _, err := l.Load(context.Background(), "", size); !errors.Is(err, domain.ErrThumbnailUnavailable) {
		t.Errorf("Expected ErrThumbnailUnavailable, got %v", err)
	}
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"), size); err == nil {
		t.Error("Expected error for a missing file")
	}

	junk := filepath.Join(t.TempDir(), "junk.png")
	os.WriteFile(junk, []byte("nope"), 0644)
	if _, err := l.Load(context.Background(), junk, size); !errors.Is(err, domain.ErrNotAnImage) {
		t.Errorf("Expected ErrNotAnImage, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, writePNG(t, 8, 8), size); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestScheduler_LoadThumbnailIfRequired(t *testing.T) {
	s := NewScheduler(context.Background(), domain.CellSize{Cols: 4, Rows: 2}, false)
	it := gallery.NewItem(&domain.Illustration{ID: "1", Pages: []string{"/a.png"}})

	if !s.LoadThumbnailIfRequired(it) {
		t.Fatal("Expected a load to start")
	}
	if it.State() != domain.ThumbnailLoading {
		t.Fatalf("Expected Loading, got %s", it.State())
	}
	if s.LoadThumbnailIfRequired(it) {
		t.Error("Expected no second load while one is in flight")
	}

	reqs := s.Drain()
	if len(reqs) != 1 || reqs[0].Path != "/a.png" || reqs[0].Size.Cols != 4 {
		t.Fatalf("Expected one queued request for /a.png, got %+v", reqs)
	}
	if s.Pending() != 0 {
		t.Error("Expected queue to be empty after drain")
	}

	it.CompleteLoad(reqs[0].Seq, nil, errors.New("decode"))
	if s.LoadThumbnailIfRequired(it) {
		t.Error("Expected failed item not to retry by default")
	}
	retry := NewScheduler(context.Background(), domain.CellSize{}, true)
	if !retry.LoadThumbnailIfRequired(it) {
		t.Error("Expected failed item to retry when enabled")
	}
}

func TestScheduler_DrainSkipsCancelled(t *testing.T) {
	s := NewScheduler(context.Background(), domain.CellSize{Cols: 1, Rows: 1}, false)
	a := gallery.NewItem(&domain.Illustration{ID: "1", Pages: []string{"/a.png"}})
	b := gallery.NewItem(&domain.Illustration{ID: "2", Pages: []string{"/b.png"}})
	s.LoadThumbnailIfRequired(a)
	s.LoadThumbnailIfRequired(b)
	a.CancelLoad()

	reqs := s.Drain()
	if len(reqs) != 1 || reqs[0].Item != b {
		t.Errorf("Expected only the live request, got %d", len(reqs))
	}
}

func TestScheduler_NoImageFailsImmediately(t *testing.T) {
	s := NewScheduler(context.Background(), domain.CellSize{}, false)
	it := gallery.NewItem(&domain.Novel{ID: "9", Title: "no cover"})

	if !s.LoadThumbnailIfRequired(it) {
		t.Fatal("Expected the attempt to count as a load")
	}
	if it.State() != domain.ThumbnailFailed || !errors.Is(it.Err(), domain.ErrThumbnailUnavailable) {
		t.Errorf("Expected Failed with ErrThumbnailUnavailable, got %s (%v)", it.State(), it.Err())
	}
	if s.Pending() != 0 {
		t.Error("Expected nothing queued")
	}
}
