package collection

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pixeval/pixterm/internal/gallery"
	sfuzzy "github.com/sahilm/fuzzy"
)

// titleIndex implements sahilm/fuzzy.Source over item titles
type titleIndex struct {
	items       []*gallery.Item
	lowerTitles []string
}

func newTitleIndex(items []*gallery.Item) *titleIndex {
	idx := &titleIndex{items: items, lowerTitles: make([]string, len(items))}
	for i, it := range items {
		idx.lowerTitles[i] = strings.ToLower(it.Entry.GetTitle())
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *titleIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *titleIndex) Len() int { return len(idx.items) }

// Match returns the items matching query in collection order. Titles are
// matched as fuzzy subsequences; authors and tags by case-insensitive fuzzy
// containment. A query starting with # matches tags only. An empty query
// matches everything. The result never aliases items.
func Match(items []*gallery.Item, query string) []*gallery.Item {
	query = strings.TrimSpace(query)
	if tag, ok := strings.CutPrefix(query, "#"); ok {
		return matchTags(items, strings.TrimSpace(tag))
	}
	if query == "" {
		return append([]*gallery.Item(nil), items...)
	}
	lower := strings.ToLower(query)

	hit := make([]bool, len(items))
	for _, m := range sfuzzy.FindFrom(lower, newTitleIndex(items)) {
		hit[m.Index] = true
	}

	out := make([]*gallery.Item, 0, len(items))
	for i, it := range items {
		if hit[i] || matchesMeta(it, lower) {
			out = append(out, it)
		}
	}
	return out
}

func matchTags(items []*gallery.Item, tag string) []*gallery.Item {
	if tag == "" {
		return append([]*gallery.Item(nil), items...)
	}
	out := make([]*gallery.Item, 0, len(items))
	for _, it := range items {
		if matchesTag(it, tag) {
			out = append(out, it)
		}
	}
	return out
}

func matchesTag(it *gallery.Item, query string) bool {
	for _, tag := range it.Entry.GetTags() {
		if fuzzy.MatchFold(query, tag) {
			return true
		}
	}
	return false
}

func matchesMeta(it *gallery.Item, query string) bool {
	if fuzzy.MatchFold(query, it.Entry.GetAuthor()) {
		return true
	}
	return matchesTag(it, query) || it.Entry.GetID() == query
}
