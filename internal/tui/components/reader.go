package components

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/tui/styles"
)

const (
	// maxReadingWidth keeps lines short on wide terminals
	maxReadingWidth = 100

	readerChromeLines = 2
)

// Reader shows the text of a novel in a scrollable viewport
type Reader struct {
	viewport viewport.Model
	novel    *domain.Novel
	text     string
	err      error
	loading  bool

	width  int
	height int
}

// NewReader creates an inactive reader
func NewReader() Reader {
	return Reader{viewport: viewport.New(0, 0)}
}

// Active reports whether a novel is open
func (r Reader) Active() bool {
	return r.novel != nil
}

// Novel returns the open novel, or nil
func (r Reader) Novel() *domain.Novel {
	return r.novel
}

// Open starts reading the novel from disk
func (r *Reader) Open(n *domain.Novel) tea.Cmd {
	r.novel = n
	r.text = ""
	r.err = nil
	r.loading = true
	r.viewport.SetContent("")
	r.viewport.GotoTop()
	return readNovelCmd(n)
}

// Close drops the text
func (r *Reader) Close() {
	r.novel = nil
	r.text = ""
	r.err = nil
	r.loading = false
	r.viewport.SetContent("")
}

// SetSize updates the dimensions and rewraps the text
func (r *Reader) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.viewport.Width = max(1, min(width, maxReadingWidth))
	r.viewport.Height = max(1, height-readerChromeLines)
	r.rewrap()
}

// rewrap wraps at word boundaries, then hard wraps words longer than a line
func (r *Reader) rewrap() {
	if r.text == "" {
		return
	}
	w := r.viewport.Width
	r.viewport.SetContent(wrap.String(wordwrap.String(r.text, w), w))
}

func readNovelCmd(n *domain.Novel) tea.Cmd {
	id, path := n.ID, n.Path
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return NovelLoadedMsg{ID: id, Err: fmt.Errorf("read novel %s: %w", id, err)}
		}
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		return NovelLoadedMsg{ID: id, Text: text}
	}
}

// Init initializes the component
func (r Reader) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (r Reader) Update(msg tea.Msg) (Reader, tea.Cmd) {
	switch msg := msg.(type) {
	case NovelLoadedMsg:
		if r.novel == nil || msg.ID != r.novel.ID {
			return r, nil
		}
		r.loading = false
		r.err = msg.Err
		r.text = msg.Text
		r.rewrap()
		return r, nil

	case tea.KeyMsg:
		if r.novel == nil {
			return r, nil
		}
		if key.Matches(msg, ViewerKeys.Close) {
			return r, func() tea.Msg { return CloseMsg{} }
		}
		if key.Matches(msg, GalleryKeys.OpenFile) {
			out := ActionMsg{Action: ActionOpenFile, Entry: r.novel, Path: r.novel.Path}
			return r, func() tea.Msg { return out }
		}
	}

	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(msg)
	return r, cmd
}

// View renders the component
func (r Reader) View() string {
	if r.novel == nil {
		return ""
	}

	header := styles.TitleStyle.Render(r.novel.Title) +
		styles.DimStyle.Render(fmt.Sprintf("  %s · %s", r.novel.Author, r.novel.FormattedWordCount()))

	var body string
	switch {
	case r.err != nil:
		body = styles.ErrorStyle.Render(r.err.Error())
	case r.loading:
		body = styles.DimStyle.Render("Loading…")
	default:
		body = r.viewport.View()
	}
	body = lipgloss.NewStyle().Height(r.viewport.Height).Render(body)

	footer := styles.DimStyle.Render(fmt.Sprintf("%3.0f%%  j/k scroll  O open  esc back", r.viewport.ScrollPercent()*100))

	page := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().MaxWidth(r.viewport.Width).Render(header),
		body,
		footer,
	)
	return lipgloss.PlaceHorizontal(r.width, lipgloss.Center, page)
}
