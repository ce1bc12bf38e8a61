package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pixeval/pixterm/internal/adapter"
	"github.com/pixeval/pixterm/internal/catalog"
	"github.com/pixeval/pixterm/internal/domain"
)

// Command factories for async operations

// syncEvent is one report pumped from a running scan
type syncEvent struct {
	progress domain.SyncProgress
	result   domain.SyncResult
}

// SyncLibraryCmd scans the library with streaming progress updates.
// Uses a continuation pattern to pump every report to the UI.
func SyncLibraryCmd(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		events := make(chan syncEvent)

		go func() {
			defer cancel()
			defer close(events)
			result, err := svc.Sync(ctx, func(p domain.SyncProgress) {
				events <- syncEvent{progress: p}
			})
			events <- syncEvent{
				progress: domain.SyncProgress{Entries: result.Entries, Done: true, Error: err},
				result:   result,
			}
		}()

		return readSyncProgress(events)
	}
}

// readSyncProgress reads one report and attaches the continuation command
func readSyncProgress(events <-chan syncEvent) tea.Msg {
	ev, ok := <-events
	if !ok {
		return SyncProgressMsg{Progress: domain.SyncProgress{
			Done:  true,
			Error: fmt.Errorf("scan cancelled"),
		}}
	}

	msg := SyncProgressMsg{Progress: ev.progress, Result: ev.result}
	if !ev.progress.Done {
		msg.NextCmd = func() tea.Msg { return readSyncProgress(events) }
	}
	return msg
}

// LoadCountsCmd reads the number of works per section
func LoadCountsCmd(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		return CountsLoadedMsg{Counts: svc.Counts()}
	}
}

// ToggleBookmarkCmd flips the bookmark of a work
func ToggleBookmarkCmd(svc *catalog.Service, e domain.Entry) tea.Cmd {
	return func() tea.Msg {
		key := domain.EntryKey(e)
		marked, err := svc.ToggleBookmark(key)
		if err != nil {
			return ErrMsg{Err: err, Context: "toggling bookmark"}
		}
		return BookmarkToggledMsg{Key: key, Title: e.GetTitle(), Bookmarked: marked}
	}
}

// OpenURLCmd opens a link in the browser
func OpenURLCmd(opener *adapter.Opener, url string) tea.Cmd {
	return func() tea.Msg {
		if err := opener.OpenURL(url); err != nil {
			return ErrMsg{Err: err, Context: "opening browser"}
		}
		return OpenedMsg{What: url}
	}
}

// OpenFileCmd opens a local file with the configured viewer
func OpenFileCmd(opener *adapter.Opener, path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return ErrMsg{Err: domain.ErrThumbnailUnavailable, Context: "opening file"}
		}
		if err := opener.OpenFile(path); err != nil {
			return ErrMsg{Err: err, Context: "opening file"}
		}
		return OpenedMsg{What: path}
	}
}

// CopyCmd puts text on the clipboard
func CopyCmd(opener *adapter.Opener, text string) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Copy(text); err != nil {
			return ErrMsg{Err: err, Context: "copying link"}
		}
		return CopiedMsg{Text: text}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
