package gallery

import (
	"context"
	"time"

	"github.com/pixeval/pixterm/internal/domain"
)

// Thumbnail is a rendered image owned by exactly one Item
type Thumbnail interface {
	// Render returns the terminal escape sequence (or text art) for the image
	Render() string
	Close() error
}

// Item is one grid cell: a catalog entry plus its thumbnail lifecycle.
//
// Invariants: at most one load is in flight (a single cancel func), and
// thumb is non-nil only while state is ThumbnailLoaded.
type Item struct {
	Entry domain.Entry

	index  int
	state  domain.ThumbnailState
	cancel context.CancelFunc
	seq    uint64 // bumped on every load start and cancel; stale results are dropped
	thumb  Thumbnail
	err    error

	visual Visual
	board  *Storyboard
}

// NewItem wraps an entry in the NotLoaded state with resting visuals
func NewItem(e domain.Entry) *Item {
	return &Item{Entry: e, index: -1, visual: Rest}
}

func (it *Item) Index() int                   { return it.index }
func (it *Item) SetIndex(i int)               { it.index = i }
func (it *Item) State() domain.ThumbnailState { return it.state }
func (it *Item) Thumbnail() Thumbnail         { return it.thumb }
func (it *Item) Err() error                   { return it.err }
func (it *Item) Visual() Visual               { return it.visual }

// Animating reports whether a transition is armed or running
func (it *Item) Animating() bool { return it.board != nil }

// BeginLoad moves the item to Loading and returns the context the loader
// must observe. Each load gets a fresh context; handles are never reused.
func (it *Item) BeginLoad(parent context.Context) (context.Context, uint64) {
	if it.cancel != nil {
		it.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	it.cancel = cancel
	it.seq++
	it.state = domain.ThumbnailLoading
	it.err = nil
	return ctx, it.seq
}

// CompleteLoad records the result of the load identified by seq. Results for
// a cancelled or superseded load are discarded and their image closed.
// Returns true when the result was applied.
func (it *Item) CompleteLoad(seq uint64, thumb Thumbnail, err error) bool {
	if seq != it.seq || it.state != domain.ThumbnailLoading {
		if thumb != nil {
			thumb.Close()
		}
		return false
	}
	if it.cancel != nil {
		it.cancel()
		it.cancel = nil
	}
	if err != nil || thumb == nil {
		if thumb != nil {
			thumb.Close()
		}
		if err == nil {
			err = domain.ErrThumbnailUnavailable
		}
		// Nothing to fade in
		it.board = nil
		it.visual = Rest
		it.state = domain.ThumbnailFailed
		it.err = err
		return true
	}
	it.thumb = thumb
	it.state = domain.ThumbnailLoaded
	return true
}

// CancelLoad aborts an in-flight load. The item goes straight back to
// NotLoaded so a later viewport event can start a new load.
func (it *Item) CancelLoad() bool {
	if it.state != domain.ThumbnailLoading {
		return false
	}
	if it.cancel != nil {
		it.cancel()
		it.cancel = nil
	}
	it.seq++
	it.state = domain.ThumbnailNotLoaded
	return true
}

// ReleaseThumbnail closes the loaded image and clears the reference
func (it *Item) ReleaseThumbnail() bool {
	if it.state != domain.ThumbnailLoaded {
		return false
	}
	if it.thumb != nil {
		it.thumb.Close()
		it.thumb = nil
	}
	it.state = domain.ThumbnailNotLoaded
	return true
}

// Dispose releases everything the item owns
func (it *Item) Dispose() {
	it.CancelLoad()
	it.ReleaseThumbnail()
	it.board = nil
	it.visual = Rest
}

// StartTransition starts an armed transition. Returns true if one started.
func (it *Item) StartTransition(now time.Time) bool {
	if it.board == nil || it.board.Running() {
		return false
	}
	it.board.Start(now)
	return true
}

// Tick advances a running transition; returns true while still animating
func (it *Item) Tick(now time.Time) bool {
	if it.board == nil || !it.board.Running() {
		return false
	}
	v, done := it.board.At(now)
	it.visual = v
	if done {
		it.board = nil
		return false
	}
	return true
}
