package collection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
)

// sliceSource pages a fixed slice, cursor = next offset
type sliceSource struct {
	entries []domain.Entry
	calls   int
	err     error
}

func (s *sliceSource) Page(ctx context.Context, after string, limit int) (domain.Page, error) {
	s.calls++
	if s.err != nil {
		return domain.Page{}, s.err
	}
	start := 0
	if after != "" {
		fmt.Sscan(after, &start)
	}
	end := min(start+limit, len(s.entries))
	return domain.Page{
		Entries: s.entries[start:end],
		Next:    fmt.Sprint(end),
		Done:    end >= len(s.entries),
	}, nil
}

func works(titles ...string) []domain.Entry {
	out := make([]domain.Entry, len(titles))
	for i, title := range titles {
		out[i] = &domain.Illustration{ID: fmt.Sprint(i + 1), Title: title, Pages: []string{"/p.png"}}
	}
	return out
}

type closer struct{ closed bool }

func (c *closer) Render() string { return "" }
func (c *closer) Close() error   { c.closed = true; return nil }

func TestLoadMoreItems_PagesUntilExhausted(t *testing.T) {
	src := &sliceSource{entries: works("a", "b", "c", "d", "e")}
	c := New(src)

	n, err := c.LoadMoreItems(context.Background(), 2)
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 items, got %d (err=%v)", n, err)
	}
	c.LoadMoreItems(context.Background(), 2)
	n, _ = c.LoadMoreItems(context.Background(), 2)
	if n != 1 || !c.Exhausted() {
		t.Fatalf("Expected final item and exhaustion, got %d (exhausted=%v)", n, c.Exhausted())
	}
	if n, _ := c.LoadMoreItems(context.Background(), 2); n != 0 {
		t.Errorf("Expected 0 after exhaustion, got %d", n)
	}
	if src.calls != 3 {
		t.Errorf("Expected no fetch after exhaustion, got %d calls", src.calls)
	}
	for i, it := range c.Items() {
		if it.Index() != i {
			t.Errorf("Item %d has index %d", i, it.Index())
		}
	}
}

func TestLoadMoreItems_SkipsFilteredPages(t *testing.T) {
	src := &sliceSource{entries: works("cat", "dog", "bird", "cow", "catfish")}
	c := New(src)
	c.SetFilter("cat")

	// the second page (bird, cow) has no matches and is fetched through
	n, err := c.LoadMoreItems(context.Background(), 2)
	if err != nil || n != 1 {
		t.Fatalf("Expected 1 match, got %d (err=%v)", n, err)
	}
	n, _ = c.LoadMoreItems(context.Background(), 2)
	if n != 1 {
		t.Fatalf("Expected the next match to be found past an empty page, got %d", n)
	}
	if c.At(1).Entry.GetTitle() != "catfish" {
		t.Errorf("Expected catfish, got %s", c.At(1).Entry.GetTitle())
	}
	if c.Total() != 5 {
		t.Errorf("Expected all 5 paged in, got %d", c.Total())
	}
}

func TestLoadMoreItems_ErrorClearsPending(t *testing.T) {
	boom := errors.New("disk gone")
	src := &sliceSource{entries: works("a"), err: boom}
	c := New(src)

	if _, err := c.LoadMoreItems(context.Background(), 5); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if c.Pending() {
		t.Fatal("Expected pending to be cleared after an error")
	}
	src.err = nil
	if n, _ := c.LoadMoreItems(context.Background(), 5); n != 1 {
		t.Errorf("Expected retry to succeed, got %d", n)
	}
}

func TestApply_StaleAfterReset(t *testing.T) {
	src := &sliceSource{entries: works("a", "b")}
	c := New(src)

	req, ok := c.Request(2)
	if !ok {
		t.Fatal("Expected a request")
	}
	if _, ok := c.Request(2); ok {
		t.Error("Expected a second request to wait for the pending one")
	}
	page, _ := req.Fetch(context.Background())

	c.Reset(&sliceSource{entries: works("x")})
	if _, ok := c.Apply(req, page); ok {
		t.Error("Expected page from before the reset to be rejected")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty collection, got %d", c.Len())
	}
}

func TestApply_Deduplicates(t *testing.T) {
	c := New(&sliceSource{})
	req, _ := c.Request(5)
	e := works("a")
	c.Apply(req, domain.Page{Entries: e, Next: "1"})
	req, _ = c.Request(5)
	n, _ := c.Apply(req, domain.Page{Entries: e, Done: true})
	if n != 0 || c.Len() != 1 {
		t.Errorf("Expected duplicate to be skipped, got %d new and %d total", n, c.Len())
	}
}

func TestApply_KeepsSameIDOfOtherKind(t *testing.T) {
	c := New(&sliceSource{})
	req, _ := c.Request(5)
	n, _ := c.Apply(req, domain.Page{Entries: []domain.Entry{
		&domain.Illustration{ID: "7", Title: "picture", Pages: []string{"/7.png"}},
		&domain.Novel{ID: "7", Title: "story"},
	}, Done: true})
	if n != 2 {
		t.Fatalf("Expected both works, got %d", n)
	}
	if c.IndexOf("n:7") != 1 || c.IndexOf("i:7") != 0 {
		t.Errorf("Expected lookups by kind, got %d and %d", c.IndexOf("i:7"), c.IndexOf("n:7"))
	}
}

func TestSetFilter_DisposesHiddenItems(t *testing.T) {
	c := New(&sliceSource{entries: works("red fox", "blue whale", "red panda")})
	c.LoadMoreItems(context.Background(), 10)

	whale := c.At(1)
	_, seq := whale.BeginLoad(context.Background())
	thumb := &closer{}
	whale.CompleteLoad(seq, thumb, nil)

	if !c.SetFilter("red") {
		t.Fatal("Expected view to change")
	}
	if c.Len() != 2 {
		t.Fatalf("Expected 2 matches, got %d", c.Len())
	}
	if !thumb.closed || whale.State() != domain.ThumbnailNotLoaded {
		t.Error("Expected hidden item to release its thumbnail")
	}
	if c.At(1).Index() != 1 || c.At(1).Entry.GetTitle() != "red panda" {
		t.Errorf("Expected reindexed view, got %s at %d", c.At(1).Entry.GetTitle(), c.At(1).Index())
	}

	c.SetFilter("")
	if c.Len() != 3 || c.IndexOf("i:2") != 1 {
		t.Errorf("Expected full view restored, got %d items", c.Len())
	}
}

func TestReset_DisposesEverything(t *testing.T) {
	c := New(&sliceSource{entries: works("a", "b")})
	c.LoadMoreItems(context.Background(), 10)

	it := c.At(0)
	ctx, _ := it.BeginLoad(context.Background())
	gen := c.Generation()
	c.Reset(&sliceSource{})

	if ctx.Err() == nil {
		t.Error("Expected in-flight load to be cancelled")
	}
	if c.Generation() == gen || c.Len() != 0 || c.Exhausted() {
		t.Error("Expected a fresh collection")
	}
}

func TestMatch(t *testing.T) {
	items := []*gallery.Item{
		gallery.NewItem(&domain.Illustration{ID: "1", Title: "Morning Glory", Artist: "hana", Pages: []string{"a"}}),
		gallery.NewItem(&domain.Illustration{ID: "2", Title: "Night Sky", Tags: []string{"landscape"}, Pages: []string{"b"}}),
		gallery.NewItem(&domain.Novel{ID: "3", Title: "Letters", Author: "Kaze"}),
	}
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"mgl", []string{"1"}},
		{"LANDSC", []string{"2"}},
		{"kaze", []string{"3"}},
		{"3", []string{"3"}},
		{"#landsc", []string{"2"}},
		{"# Landscape", []string{"2"}},
		{"#hana", nil},
		{"#", []string{"1", "2", "3"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		got := Match(items, tt.query)
		var ids []string
		for _, it := range got {
			ids = append(ids, it.Entry.GetID())
		}
		if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
			t.Errorf("Match(%q) = %v, want %v", tt.query, ids, tt.want)
		}
	}
}
