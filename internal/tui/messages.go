package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pixeval/pixterm/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SyncProgressMsg is sent for each progress report of a library scan.
// NextCmd reads the following report; it is nil once Done.
type SyncProgressMsg struct {
	Progress domain.SyncProgress
	Result   domain.SyncResult
	NextCmd  tea.Cmd
}

// CountsLoadedMsg carries the number of works per section
type CountsLoadedMsg struct {
	Counts map[domain.Section]int
}

// BookmarkToggledMsg signals that a bookmark was flipped
type BookmarkToggledMsg struct {
	Key        string // domain.EntryKey
	Title      string
	Bookmarked bool
}

// OpenedMsg signals that a work was handed to an external program
type OpenedMsg struct {
	What string
}

// CopiedMsg signals that a link was put on the clipboard
type CopiedMsg struct {
	Text string
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
