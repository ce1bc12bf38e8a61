// Package collection holds the incrementally paged, filterable list of grid
// items backing one catalog section.
package collection

import (
	"context"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
)

// Request is a page fetch issued by the collection. Fetch is safe to run
// off the UI goroutine; the result goes back through Apply.
type Request struct {
	After string
	Limit int

	gen    uint64
	source domain.EntrySource
}

// Generation identifies the collection state the request was issued for
func (r Request) Generation() uint64 { return r.gen }

// Fetch reads the page from the source
func (r Request) Fetch(ctx context.Context) (domain.Page, error) {
	return r.source.Page(ctx, r.After, r.Limit)
}

// Collection is an ordered sequence of items, realized page by page.
// All methods except Request.Fetch must run on the UI goroutine.
type Collection struct {
	source domain.EntrySource

	all  []*gallery.Item // everything paged in so far
	view []*gallery.Item // all, filtered by query
	ids  map[string]bool

	cursor     string
	exhausted  bool
	pending    bool
	generation uint64
	query      string
}

func New(source domain.EntrySource) *Collection {
	return &Collection{source: source, ids: make(map[string]bool)}
}

// Len returns the number of realized items in the current view
func (c *Collection) Len() int { return len(c.view) }

// At returns the item at view index i, or nil when out of range
func (c *Collection) At(i int) *gallery.Item {
	if i < 0 || i >= len(c.view) {
		return nil
	}
	return c.view[i]
}

// Items returns the current view
func (c *Collection) Items() []*gallery.Item { return c.view }

// Total returns the number of items paged in, ignoring the filter
func (c *Collection) Total() int { return len(c.all) }

func (c *Collection) Exhausted() bool    { return c.exhausted }
func (c *Collection) Pending() bool      { return c.pending }
func (c *Collection) Generation() uint64 { return c.generation }
func (c *Collection) Query() string      { return c.query }

// IndexOf returns the view index of the entry under key (see
// domain.EntryKey), or -1
func (c *Collection) IndexOf(key string) int {
	for i, it := range c.view {
		if domain.EntryKey(it.Entry) == key {
			return i
		}
	}
	return -1
}

// Request issues the next page fetch. Returns false when the source is
// exhausted or a fetch is already pending.
func (c *Collection) Request(count int) (Request, bool) {
	if c.exhausted || c.pending || c.source == nil {
		return Request{}, false
	}
	c.pending = true
	return Request{After: c.cursor, Limit: count, gen: c.generation, source: c.source}, true
}

// Abort clears a pending request that failed
func (c *Collection) Abort(req Request) {
	if req.gen == c.generation {
		c.pending = false
	}
}

// Apply appends a fetched page and returns how many items entered the view.
// ok is false for a request issued before the last Reset.
func (c *Collection) Apply(req Request, page domain.Page) (count int, ok bool) {
	if req.gen != c.generation {
		return 0, false
	}
	c.pending = false
	if page.Next != "" {
		c.cursor = page.Next
	}
	c.exhausted = page.Done || len(page.Entries) == 0

	added := make([]*gallery.Item, 0, len(page.Entries))
	for _, e := range page.Entries {
		key := domain.EntryKey(e)
		if c.ids[key] {
			continue
		}
		c.ids[key] = true
		it := gallery.NewItem(e)
		c.all = append(c.all, it)
		added = append(added, it)
	}

	for _, it := range Match(added, c.query) {
		it.SetIndex(len(c.view))
		c.view = append(c.view, it)
		count++
	}
	return count, true
}

// LoadMoreItems fetches synchronously until at least one item enters the
// view or the source is exhausted. Zero means exhausted.
func (c *Collection) LoadMoreItems(ctx context.Context, count int) (int, error) {
	for {
		req, ok := c.Request(count)
		if !ok {
			return 0, nil
		}
		page, err := req.Fetch(ctx)
		if err != nil {
			c.Abort(req)
			return 0, err
		}
		n, _ := c.Apply(req, page)
		if n > 0 || c.exhausted {
			return n, nil
		}
	}
}

// SetFilter narrows the view. Items leaving the view are disposed.
// Returns true when the view changed.
func (c *Collection) SetFilter(query string) bool {
	if query == c.query {
		return false
	}
	c.query = query

	next := Match(c.all, query)
	keep := make(map[*gallery.Item]bool, len(next))
	for i, it := range next {
		keep[it] = true
		it.SetIndex(i)
	}
	for _, it := range c.view {
		if !keep[it] {
			it.Dispose()
			it.SetIndex(-1)
		}
	}
	c.view = next
	return true
}

// Reset drops every item and starts over on source. Requests in flight
// become stale.
func (c *Collection) Reset(source domain.EntrySource) {
	c.Dispose()
	c.source = source
	c.all = nil
	c.view = nil
	c.ids = make(map[string]bool)
	c.cursor = ""
	c.exhausted = false
	c.pending = false
	c.query = ""
	c.generation++
}

// Dispose cancels every load and releases every thumbnail
func (c *Collection) Dispose() {
	for _, it := range c.all {
		it.Dispose()
	}
}
