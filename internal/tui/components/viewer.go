package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/thumbnail"
	"github.com/pixeval/pixterm/internal/tui/styles"
)

// viewerChromeLines is the header plus footer around the page image
const viewerChromeLines = 2

// infoPaneWidth is the width of the details pane, border included
const infoPaneWidth = 32

// Viewer shows the pages of one illustration at full size
type Viewer struct {
	loader ThumbnailLoader
	logger *slog.Logger

	work  *domain.Illustration
	page  int
	image *thumbnail.Image
	err   error

	loading bool
	cancel  context.CancelFunc
	seq     uint64

	showInfo bool

	width  int
	height int
}

// NewViewer creates an inactive viewer
func NewViewer(loader ThumbnailLoader, logger *slog.Logger) Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return Viewer{loader: loader, logger: logger}
}

// Active reports whether a work is open
func (v Viewer) Active() bool {
	return v.work != nil
}

// Work returns the open illustration, or nil
func (v Viewer) Work() *domain.Illustration {
	return v.work
}

// Page returns the zero-based page on display
func (v Viewer) Page() int {
	return v.page
}

// ShowingInfo reports whether the details pane is open
func (v Viewer) ShowingInfo() bool {
	return v.showInfo
}

// Open shows the first page of a work. Novels are not handled here.
func (v *Viewer) Open(e domain.Entry) tea.Cmd {
	ill, ok := e.(*domain.Illustration)
	if !ok || ill.PageCount() == 0 {
		return nil
	}
	v.work = ill
	v.page = 0
	return v.load()
}

// Close cancels the page load in flight and releases the image
func (v *Viewer) Close() {
	v.release()
	v.work = nil
	v.page = 0
}

// SetSize updates the dimensions and re-renders the open page
func (v *Viewer) SetSize(width, height int) tea.Cmd {
	resized := width != v.width || height != v.height
	v.width = width
	v.height = height
	if !resized || v.work == nil {
		return nil
	}
	return v.load()
}

func (v *Viewer) infoWidth() int {
	if !v.showInfo {
		return 0
	}
	return min(infoPaneWidth, v.width/2)
}

func (v *Viewer) imageSize() domain.CellSize {
	return domain.CellSize{
		Cols: max(1, v.width-v.infoWidth()),
		Rows: max(1, v.height-viewerChromeLines),
	}
}

func (v *Viewer) release() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.image != nil {
		v.image.Close()
		v.image = nil
	}
	v.seq++
	v.loading = false
	v.err = nil
}

func (v *Viewer) load() tea.Cmd {
	v.release()
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.loading = true

	loader := v.loader
	seq := v.seq
	path := v.work.Pages[v.page]
	size := v.imageSize()
	return func() tea.Msg {
		img, err := loader.Load(ctx, path, size)
		return ViewerImageMsg{Seq: seq, Image: img, Err: err}
	}
}

func (v *Viewer) handleImage(msg ViewerImageMsg) {
	if msg.Seq != v.seq || v.work == nil {
		if msg.Image != nil {
			msg.Image.Close()
		}
		return
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.loading = false
	if msg.Err != nil {
		if !errors.Is(msg.Err, context.Canceled) {
			v.logger.Warn("failed to render page", "id", v.work.ID, "page", v.page, "error", msg.Err)
		}
		v.err = msg.Err
		return
	}
	v.image = msg.Image
}

// Init initializes the component
func (v Viewer) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (v Viewer) Update(msg tea.Msg) (Viewer, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewerImageMsg:
		v.handleImage(msg)
		return v, nil

	case tea.KeyMsg:
		if v.work == nil {
			return v, nil
		}
		switch {
		case key.Matches(msg, ViewerKeys.PrevPage):
			if v.page > 0 {
				v.page--
				return v, v.load()
			}
		case key.Matches(msg, ViewerKeys.NextPage):
			if v.page < v.work.PageCount()-1 {
				v.page++
				return v, v.load()
			}
		case key.Matches(msg, ViewerKeys.PrevWork):
			return v, func() tea.Msg { return ViewerStepMsg{Delta: -1} }
		case key.Matches(msg, ViewerKeys.NextWork):
			return v, func() tea.Msg { return ViewerStepMsg{Delta: 1} }
		case key.Matches(msg, ViewerKeys.Info):
			v.showInfo = !v.showInfo
			// The page is re-rendered for the new width
			return v, v.load()
		case key.Matches(msg, ViewerKeys.OpenFile):
			return v, v.action(ActionOpenFile)
		case key.Matches(msg, ViewerKeys.OpenWeb):
			return v, v.action(ActionOpenWeb)
		case key.Matches(msg, ViewerKeys.CopyWeb):
			return v, v.action(ActionCopyWeb)
		case key.Matches(msg, ViewerKeys.CopyApp):
			return v, v.action(ActionCopyApp)
		case key.Matches(msg, ViewerKeys.Bookmark):
			return v, v.action(ActionToggleBookmark)
		case key.Matches(msg, ViewerKeys.Close):
			return v, func() tea.Msg { return CloseMsg{} }
		}
	}
	return v, nil
}

func (v Viewer) action(a Action) tea.Cmd {
	out := ActionMsg{Action: a, Entry: v.work}
	if a == ActionOpenFile {
		out.Path = v.work.Pages[v.page]
	}
	return func() tea.Msg { return out }
}

// View renders the component
func (v Viewer) View() string {
	if v.work == nil {
		return ""
	}
	size := v.imageSize()

	header := styles.TitleStyle.Render(v.work.Title) +
		styles.DimStyle.Render("  "+v.work.Artist)
	if v.work.Bookmarked {
		header += " " + styles.BookmarkMark
	}
	if v.work.PageCount() > 1 {
		header += "  " + styles.BadgeStyle.Render(fmt.Sprintf("%d/%d", v.page+1, v.work.PageCount()))
	}

	var body string
	switch {
	case v.image != nil:
		body = v.image.Render()
	case v.err != nil:
		body = lipgloss.Place(size.Cols, size.Rows, lipgloss.Center, lipgloss.Center,
			styles.ErrorStyle.Render("Cannot display page: "+v.err.Error()))
	default:
		body = lipgloss.Place(size.Cols, size.Rows, lipgloss.Center, lipgloss.Center,
			styles.DimStyle.Render("Loading…"))
	}
	body = lipgloss.NewStyle().Width(size.Cols).Height(size.Rows).Render(body)
	if w := v.infoWidth(); w > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, v.renderInfo(w, size.Rows))
	}

	footer := styles.DimStyle.Render("←/→ page  [/] work  i info  y link  b bookmark  O open  esc back")

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().MaxWidth(v.width).Render(header),
		body,
		footer,
	)
}

// renderInfo draws the details pane: id, kind, pages, date, bookmark, tags
func (v Viewer) renderInfo(width, height int) string {
	style := styles.InactiveBorder.Padding(0, 1)
	frameW, _ := style.GetFrameSize()
	inner := max(1, width-frameW)

	row := func(label, value string) string {
		return styles.SubtitleStyle.Render(fmt.Sprintf("%-9s", label)) + value
	}

	created := "unknown"
	if !v.work.CreatedAt.IsZero() {
		created = v.work.CreatedAt.Format("2006-01-02 15:04")
	}
	bookmark := styles.DimStyle.Render("no")
	if v.work.Bookmarked {
		bookmark = styles.BookmarkMark + " yes"
	}

	lines := []string{
		styles.TitleStyle.Render("Details"),
		"",
		row("ID", v.work.ID),
		row("Kind", v.work.GetKind().String()),
		row("Pages", fmt.Sprint(v.work.PageCount())),
		row("Created", created),
		row("Bookmark", bookmark),
		"",
		styles.SubtitleStyle.Render("Tags"),
	}

	if len(v.work.Tags) == 0 {
		lines = append(lines, styles.DimStyle.Render("none"))
	} else {
		// Wrap badges onto as many lines as the pane needs
		var line string
		for _, tag := range v.work.Tags {
			badge := styles.DimBadgeStyle.Render(styles.Truncate(tag, max(1, inner-2)))
			if line != "" && lipgloss.Width(line)+1+lipgloss.Width(badge) > inner {
				lines = append(lines, line)
				line = ""
			}
			if line != "" {
				line += " "
			}
			line += badge
		}
		lines = append(lines, line)
	}

	return style.
		Width(max(1, width-style.GetHorizontalBorderSize())).
		Height(max(1, height-style.GetVerticalBorderSize())).
		MaxHeight(height).
		Render(strings.Join(lines, "\n"))
}
