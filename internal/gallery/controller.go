package gallery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pixeval/pixterm/internal/domain"
)

const (
	// FillPageSize is the page size requested while filling the viewport
	FillPageSize = 20

	MinPreLoadRows = 1
	MaxPreLoadRows = 15
)

// ErrFillAborted finishes a run whose collection was replaced
var ErrFillAborted = errors.New("fill aborted")

// ThumbnailLoader starts thumbnail loads
type ThumbnailLoader interface {
	// LoadThumbnailIfRequired starts a load unless one is in flight or done.
	// Returns true when a load was started.
	LoadThumbnailIfRequired(item *Item) bool
}

// Pager appends items to the realized collection
type Pager interface {
	Len() int
	// LoadMoreItems appends up to count items and returns how many were
	// appended; zero means the source is exhausted.
	LoadMoreItems(ctx context.Context, count int) (int, error)
}

// Controller keeps the visible part of the grid (plus a pre-load margin)
// populated with thumbnails, releases thumbnails that scroll far away and
// pages in data until the viewport is covered.
type Controller struct {
	loader      ThumbnailLoader
	viewport    Viewport
	animator    Animator
	preloadRows func() int
	logger      *slog.Logger

	filling bool
}

// NewController creates a controller. preloadRows is read on every event.
func NewController(loader ThumbnailLoader, viewport Viewport, animator Animator, preloadRows func() int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if animator == nil {
		animator = NewTransitions(false)
	}
	if preloadRows == nil {
		preloadRows = func() int { return 3 }
	}
	return &Controller{
		loader:      loader,
		viewport:    viewport,
		animator:    animator,
		preloadRows: preloadRows,
		logger:      logger,
	}
}

// ClampPreLoadRows bounds the pre-load margin to [1, 15]
func ClampPreLoadRows(rows int) int {
	return max(MinPreLoadRows, min(MaxPreLoadRows, rows))
}

// Threshold is the distance within which thumbnails are loaded
func (c *Controller) Threshold() float64 {
	return float64(ClampPreLoadRows(c.preloadRows())) * c.viewport.ItemHeight()
}

// OnItemViewportChanged reacts to an item's distance from the visible area
// changing. Items within the margin load; items beyond it cancel or release.
func (c *Controller) OnItemViewportChanged(item *Item, distance float64) {
	if distance <= c.Threshold() {
		if !c.loader.LoadThumbnailIfRequired(item) {
			return
		}
		if cont, ok := c.viewport.ContainerFromItem(item); ok && c.viewport.IsFullyOrPartiallyVisible(cont) {
			c.animator.FadeIn(item)
		} else {
			c.animator.Snap(item)
		}
		return
	}

	switch item.State() {
	case domain.ThumbnailLoading:
		item.CancelLoad()
	case domain.ThumbnailLoaded:
		item.ReleaseThumbnail()
	}
}

// Filling reports whether a fill run holds the latch
func (c *Controller) Filling() bool {
	return c.filling
}

// isFull reports whether the realized container at i exists and is off screen.
// Unrealized containers count as visible.
func (c *Controller) isFull(i int) bool {
	cont, ok := c.viewport.ContainerFromIndex(i)
	return ok && !c.viewport.IsFullyOrPartiallyVisible(cont)
}

// FillRun is one pass of the viewport fill loop. The caller fetches a page
// whenever NeedsPage is true and reports the appended count to Advance.
type FillRun struct {
	c       *Controller
	id      string
	index   int
	pages   int
	done    bool
	started time.Time
}

// BeginFill starts a fill run over a collection of n realized items.
// Returns nil if a run already holds the latch. If the realized items
// already overflow the viewport the run is done before any paging.
func (c *Controller) BeginFill(n int) *FillRun {
	if c.filling {
		return nil
	}
	c.filling = true

	run := &FillRun{
		c:       c,
		id:      uuid.NewString()[:8],
		index:   n - 1,
		started: time.Now(),
	}
	for i := n - 1; i > 0; i-- {
		if c.isFull(i) {
			run.done = true
			break
		}
	}
	c.logger.Debug("fill started", "run", run.id, "items", n, "full", run.done)
	return run
}

func (r *FillRun) ID() string      { return r.id }
func (r *FillRun) Pages() int      { return r.pages }
func (r *FillRun) NeedsPage() bool { return !r.done }

// Advance consumes the count of a page that just arrived and reports
// whether another page is needed.
func (r *FillRun) Advance(count int) bool {
	if r.done {
		return false
	}
	r.pages++
	if count <= 0 {
		r.done = true
		return false
	}
	for i := r.index + count; i > r.index+1; i-- {
		if r.c.isFull(i) {
			r.done = true
			break
		}
	}
	r.index += count
	return !r.done
}

// Finish releases the latch. err is nil for a run that ran to completion.
func (r *FillRun) Finish(err error) {
	r.done = true
	r.c.filling = false
	if err != nil && !errors.Is(err, ErrFillAborted) && !errors.Is(err, context.Canceled) {
		r.c.logger.Error("fill failed", "run", r.id, "pages", r.pages, "error", err)
		return
	}
	r.c.logger.Debug("fill finished",
		"run", r.id,
		"pages", r.pages,
		"items", r.index+1,
		"duration", time.Since(r.started),
		"aborted", err != nil,
	)
}

// FillViewport pages the source until the viewport is covered or the source
// is exhausted. Concurrent calls return immediately.
func (c *Controller) FillViewport(ctx context.Context, p Pager) (err error) {
	run := c.BeginFill(p.Len())
	if run == nil {
		return nil
	}
	defer func() { run.Finish(err) }()

	for run.NeedsPage() {
		if err = ctx.Err(); err != nil {
			return err
		}
		var count int
		count, err = p.LoadMoreItems(ctx, FillPageSize)
		if err != nil {
			return err
		}
		run.Advance(count)
	}
	return nil
}
