// Package thumbnail decodes, resizes, caches and renders grid thumbnails.
package thumbnail

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pixeval/pixterm/internal/domain"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// canvasColor fills the letterbox around images that do not match the cell aspect
var canvasColor = color.NRGBA{R: 10, G: 10, B: 10, A: 255}

// Loader produces rendered thumbnails. Safe for concurrent use from tea.Cmd
// goroutines.
type Loader struct {
	cache    *Cache
	renderer Renderer
	sem      *semaphore.Weighted
	group    singleflight.Group
	logger   *slog.Logger
}

// NewLoader creates a loader decoding at most workers images at once
func NewLoader(cache *Cache, renderer Renderer, workers int, logger *slog.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cache:    cache,
		renderer: renderer,
		sem:      semaphore.NewWeighted(int64(workers)),
		logger:   logger,
	}
}

// Load returns the thumbnail of the image at path sized to size cells.
// It returns ctx.Err() promptly once ctx is cancelled.
func (l *Loader) Load(ctx context.Context, path string, size domain.CellSize) (*Image, error) {
	if path == "" {
		return nil, domain.ErrThumbnailUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := l.Resized(ctx, path, size)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := l.renderer.Render(img, size)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	return NewImage(text), nil
}

// Resized returns the image at path fitted and centered on a canvas of
// size cells, from cache when possible.
func (l *Loader) Resized(ctx context.Context, path string, size domain.CellSize) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	cellW, cellH := l.renderer.CellPixels()
	w, h := size.Cols*cellW, size.Rows*cellH
	key := fmt.Sprintf("%s|%dx%d|%d", path, w, h, info.ModTime().Unix())

	if img, ok := l.cache.Get(key); ok {
		return img, nil
	}

	// Callers share one decode; each still honours its own context.
	flight := l.group.DoChan(key, func() (any, error) {
		if err := l.sem.Acquire(context.WithoutCancel(ctx), 1); err != nil {
			return nil, err
		}
		defer l.sem.Release(1)

		img, err := decodeFitted(path, w, h)
		if err != nil {
			l.logger.Debug("thumbnail decode failed", "path", path, "error", err)
			return nil, err
		}
		l.cache.Put(key, img)
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func decodeFitted(path string, w, h int) (image.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotAnImage, path, err)
	}
	fitted := imaging.Fit(src, w, h, imaging.Lanczos)
	if fitted.Bounds().Dx() != w || fitted.Bounds().Dy() != h {
		canvas := imaging.New(w, h, canvasColor)
		return imaging.PasteCenter(canvas, fitted), nil
	}
	return fitted, nil
}
