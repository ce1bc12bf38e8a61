package domain

import "context"

// EntrySource pages one catalog section. Safe to call from tea.Cmd goroutines.
type EntrySource interface {
	// Page returns up to limit entries after the cursor ("" = from the start)
	Page(ctx context.Context, after string, limit int) (Page, error)
}

// EntrySourceFunc adapts a function to EntrySource
type EntrySourceFunc func(ctx context.Context, after string, limit int) (Page, error)

// Page calls f
func (f EntrySourceFunc) Page(ctx context.Context, after string, limit int) (Page, error) {
	return f(ctx, after, limit)
}
