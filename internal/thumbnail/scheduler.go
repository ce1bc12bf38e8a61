package thumbnail

import (
	"context"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
)

// Request is a started thumbnail load waiting to be run
type Request struct {
	Item *gallery.Item
	Ctx  context.Context
	Seq  uint64
	Path string
	Size domain.CellSize
}

// Scheduler starts loads on the UI goroutine and queues them for the grid
// to run as commands. It implements gallery.ThumbnailLoader.
type Scheduler struct {
	parent      context.Context
	size        domain.CellSize
	retryFailed bool
	queue       []Request
}

// NewScheduler creates a scheduler whose loads derive from parent
func NewScheduler(parent context.Context, size domain.CellSize, retryFailed bool) *Scheduler {
	if parent == nil {
		parent = context.Background()
	}
	return &Scheduler{parent: parent, size: size, retryFailed: retryFailed}
}

// SetSize changes the size used for loads started from now on
func (s *Scheduler) SetSize(size domain.CellSize) {
	s.size = size
}

func (s *Scheduler) Size() domain.CellSize {
	return s.size
}

// LoadThumbnailIfRequired starts a load for NotLoaded items (and Failed
// ones when retrying is enabled). Items without an image fail immediately.
func (s *Scheduler) LoadThumbnailIfRequired(item *gallery.Item) bool {
	switch item.State() {
	case domain.ThumbnailNotLoaded:
	case domain.ThumbnailFailed:
		if !s.retryFailed {
			return false
		}
	default:
		return false
	}

	ctx, seq := item.BeginLoad(s.parent)
	path := item.Entry.ThumbnailPath()
	if path == "" {
		item.CompleteLoad(seq, nil, domain.ErrThumbnailUnavailable)
		return true
	}
	s.queue = append(s.queue, Request{Item: item, Ctx: ctx, Seq: seq, Path: path, Size: s.size})
	return true
}

// Drain returns the queued loads that are still current and empties the queue
func (s *Scheduler) Drain() []Request {
	var out []Request
	for _, r := range s.queue {
		if r.Ctx.Err() == nil && r.Item.State() == domain.ThumbnailLoading {
			out = append(out, r)
		}
	}
	s.queue = nil
	return out
}

// Pending returns the number of queued loads
func (s *Scheduler) Pending() int {
	return len(s.queue)
}
