package components

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pixeval/pixterm/internal/domain"
)

func openViewer(t *testing.T) (Viewer, tea.Cmd) {
	t.Helper()
	v := NewViewer(&stubLoader{}, slog.New(slog.DiscardHandler))
	v.SetSize(80, 24)
	cmd := v.Open(&domain.Illustration{
		ID:        "55",
		Title:     "Tide",
		Artist:    "mika",
		Tags:      []string{"sea", "night"},
		Pages:     []string{"/lib/55_p0.png", "/lib/55_p1.png"},
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	if cmd == nil {
		t.Fatal("Expected a load command")
	}
	return v, cmd
}

func applyViewer(v Viewer, cmd tea.Cmd) Viewer {
	for _, msg := range collect(cmd) {
		v, _ = v.Update(msg)
	}
	return v
}

func TestViewerPages(t *testing.T) {
	v, cmd := openViewer(t)
	v = applyViewer(v, cmd)

	if !strings.Contains(v.View(), "55_p0.png") {
		t.Fatal("Expected the first page in view")
	}
	first := v.image

	v, cmd = v.Update(keyRunes("l"))
	if v.Page() != 1 {
		t.Fatalf("Expected page 1, got %d", v.Page())
	}
	if !first.Closed() {
		t.Error("Expected the previous page to be closed")
	}
	v = applyViewer(v, cmd)
	if !strings.Contains(v.View(), "55_p1.png") || !strings.Contains(v.View(), "2/2") {
		t.Error("Expected the second page and its badge in view")
	}

	// No page past the end
	if _, cmd := v.Update(keyRunes("l")); cmd != nil {
		t.Error("Expected no load past the last page")
	}
}

func TestViewerCloseDropsLateImage(t *testing.T) {
	v, cmd := openViewer(t)
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	late := msgs[0].(ViewerImageMsg)

	v.Close()
	v, _ = v.Update(late)

	if v.Active() || v.image != nil {
		t.Error("Expected a closed viewer to stay empty")
	}
	if late.Image != nil && !late.Image.Closed() {
		t.Error("Expected the late image to be closed")
	}
}

func TestViewerRejectsNovels(t *testing.T) {
	v := NewViewer(&stubLoader{}, nil)
	if cmd := v.Open(&domain.Novel{ID: "1"}); cmd != nil || v.Active() {
		t.Error("Expected novels to be ignored")
	}
}

func TestViewerStepAndClose(t *testing.T) {
	v, cmd := openViewer(t)
	v = applyViewer(v, cmd)

	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{keyRunes("]"), ViewerStepMsg{Delta: 1}},
		{keyRunes("["), ViewerStepMsg{Delta: -1}},
		{tea.KeyMsg{Type: tea.KeyEsc}, CloseMsg{}},
	}
	for _, tt := range tests {
		_, cmd := v.Update(tt.key)
		msgs := collect(cmd)
		if len(msgs) != 1 || msgs[0] != tt.want {
			t.Errorf("%s: expected %#v, got %#v", tt.key, tt.want, msgs)
		}
	}
}

func TestViewerInfoPane(t *testing.T) {
	v, cmd := openViewer(t)
	v = applyViewer(v, cmd)
	if strings.Contains(v.View(), "Details") {
		t.Fatal("Expected the details pane to start hidden")
	}

	v, cmd = v.Update(keyRunes("i"))
	if !v.ShowingInfo() || cmd == nil {
		t.Fatal("Expected the pane to open and the page to re-render")
	}
	if got := v.imageSize().Cols; got != 80-infoPaneWidth {
		t.Errorf("Expected the page to give up %d columns, got %d", infoPaneWidth, 80-got)
	}
	v = applyViewer(v, cmd)

	view := v.View()
	for _, want := range []string{"Details", "55", "manga", "2024-03-01", "sea", "night", "55_p0.png"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view", want)
		}
	}

	v, _ = v.Update(keyRunes("i"))
	if v.ShowingInfo() || strings.Contains(v.View(), "Details") {
		t.Error("Expected the pane to close")
	}
	if got := v.imageSize().Cols; got != 80 {
		t.Errorf("Expected the full width back, got %d", got)
	}
}

func TestViewerActions(t *testing.T) {
	v, cmd := openViewer(t)
	v = applyViewer(v, cmd)
	v, cmd = v.Update(keyRunes("l"))
	v = applyViewer(v, cmd)

	tests := []struct {
		key  string
		want Action
		path string
	}{
		{"o", ActionOpenWeb, ""},
		{"O", ActionOpenFile, "/lib/55_p1.png"},
		{"y", ActionCopyWeb, ""},
		{"Y", ActionCopyApp, ""},
		{"b", ActionToggleBookmark, ""},
	}
	for _, tt := range tests {
		_, cmd := v.Update(keyRunes(tt.key))
		msgs := collect(cmd)
		if len(msgs) != 1 {
			t.Fatalf("%s: expected 1 message, got %d", tt.key, len(msgs))
		}
		action, ok := msgs[0].(ActionMsg)
		if !ok {
			t.Fatalf("%s: expected ActionMsg, got %T", tt.key, msgs[0])
		}
		if action.Action != tt.want || action.Entry != domain.Entry(v.Work()) || action.Path != tt.path {
			t.Errorf("%s: expected %v with path %q, got %v with %q", tt.key, tt.want, tt.path, action.Action, action.Path)
		}
	}
}
