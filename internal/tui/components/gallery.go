package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pixeval/pixterm/internal/collection"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/gallery"
	"github.com/pixeval/pixterm/internal/thumbnail"
	"github.com/pixeval/pixterm/internal/tui/styles"
)

// Layout constants for the gallery
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Header line with the section title and item count
	HeaderLines = 1

	// Caption line under each thumbnail
	CaptionLines = 1

	pageFetchTimeout = 10 * time.Second
	animationFrame   = time.Second / 30
)

// Opacity bands used to draw a fading thumbnail in a terminal
const (
	hiddenOpacity = 0.35
	faintOpacity  = 0.85
)

// ThumbnailLoader renders the image at path sized to size cells
type ThumbnailLoader interface {
	Load(ctx context.Context, path string, size domain.CellSize) (*thumbnail.Image, error)
}

// GalleryOptions configures a gallery
type GalleryOptions struct {
	PreloadRows func() int
	PageSize    int
	CellSize    domain.CellSize
	RetryFailed bool
	Animations  bool
	Logger      *slog.Logger
}

// Gallery is the thumbnail grid. It owns the section collection and acts as
// the dispatcher of viewport events for the fill controller.
type Gallery struct {
	coll      *collection.Collection
	ctrl      *gallery.Controller
	sched     *thumbnail.Scheduler
	layout    *gallery.GridLayout
	loader    ThumbnailLoader
	run       *gallery.FillRun
	logger    *slog.Logger
	cancelAll context.CancelFunc

	section  domain.Section
	pageSize int
	cell     domain.CellSize
	ticking  bool

	// Selection
	cursor int

	// Dimensions
	width   int
	height  int
	focused bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
}

// NewGallery creates an empty gallery
func NewGallery(loader ThumbnailLoader, opts GalleryOptions) Gallery {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = gallery.FillPageSize
	}

	ti := textinput.New()
	ti.Placeholder = "title, author or #tag..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	ctx, cancel := context.WithCancel(context.Background())
	layout := &gallery.GridLayout{Columns: 1, CellHeight: opts.CellSize.Rows + BorderHeight + CaptionLines}
	coll := collection.New(nil)
	layout.Count = coll.Len
	sched := thumbnail.NewScheduler(ctx, opts.CellSize, opts.RetryFailed)

	return Gallery{
		coll:        coll,
		ctrl:        gallery.NewController(sched, layout, gallery.NewTransitions(opts.Animations), opts.PreloadRows, opts.Logger),
		sched:       sched,
		layout:      layout,
		loader:      loader,
		logger:      opts.Logger,
		cancelAll:   cancel,
		pageSize:    opts.PageSize,
		cell:        opts.CellSize,
		filterInput: ti,
	}
}

// SetSource switches the gallery to a section. Items of the previous
// section are disposed and in-flight pages become stale.
func (g *Gallery) SetSource(section domain.Section, src domain.EntrySource) tea.Cmd {
	g.abortFill()
	g.coll.Reset(src)
	g.section = section
	g.cursor = 0
	g.layout.ScrollRow = 0
	g.clearFilterInput()
	return g.startFill()
}

// Section returns the section on display
func (g Gallery) Section() domain.Section {
	return g.section
}

// SetSize updates the component dimensions and re-dispatches the viewport
func (g *Gallery) SetSize(width, height int) tea.Cmd {
	g.width = width
	g.height = height
	g.relayout()
	g.ensureVisible()
	return tea.Batch(g.dispatch(), g.startFill())
}

// SetFocused sets the focus state
func (g *Gallery) SetFocused(focused bool) {
	g.focused = focused
}

// IsFocused returns the focus state
func (g Gallery) IsFocused() bool {
	return g.focused
}

// IsFilterTyping returns true if the filter input has focus
func (g Gallery) IsFilterTyping() bool {
	return g.filterActive && g.filterInput.Focused()
}

// Len returns the number of works in view
func (g Gallery) Len() int {
	return g.coll.Len()
}

// Cursor returns the selected index
func (g Gallery) Cursor() int {
	return g.cursor
}

// Filling reports whether a viewport fill is in progress
func (g Gallery) Filling() bool {
	return g.run != nil
}

// Items returns the works in view
func (g Gallery) Items() []*gallery.Item {
	return g.coll.Items()
}

// Selected returns the selected item, or nil
func (g Gallery) Selected() *gallery.Item {
	return g.coll.At(g.cursor)
}

// Dispose cancels every load and releases every thumbnail
func (g *Gallery) Dispose() {
	g.abortFill()
	g.coll.Dispose()
	g.cancelAll()
}

// SetBookmarked updates the bookmark flag of a work in view
func (g *Gallery) SetBookmarked(key string, bookmarked bool) {
	if i := g.coll.IndexOf(key); i >= 0 {
		domain.SetBookmarked(g.coll.At(i).Entry, bookmarked)
	}
}

// Step moves the cursor to the previous or next image work and returns it.
// Novels are skipped. Returns nil when there is none in that direction.
func (g *Gallery) Step(delta int) (domain.Entry, tea.Cmd) {
	if delta == 0 {
		return nil, nil
	}
	for i := g.cursor + delta; i >= 0 && i < g.coll.Len(); i += delta {
		it := g.coll.At(i)
		if it.Entry.GetKind() == domain.KindNovel {
			continue
		}
		g.cursor = i
		g.ensureVisible()
		return it.Entry, tea.Batch(g.dispatch(), g.maybeLoadMore())
	}
	return nil, g.maybeLoadMore()
}

// relayout derives grid geometry from the component size
func (g *Gallery) relayout() {
	innerW := g.width - BorderWidth
	innerH := g.height - BorderHeight - HeaderLines
	if g.filterActive {
		innerH--
	}
	cellW := g.cell.Cols + BorderWidth
	cellH := g.cell.Rows + BorderHeight + CaptionLines

	g.layout.Columns = max(1, innerW/cellW)
	g.layout.CellHeight = cellH
	// Only whole rows are drawn, so the visible band is a whole number of rows
	g.layout.Height = max(1, innerH/cellH) * cellH
}

// ensureVisible scrolls so the cursor row is on screen
func (g *Gallery) ensureVisible() {
	cols := max(1, g.layout.Columns)
	row := g.cursor / cols
	visible := g.layout.VisibleRows()
	if row < g.layout.ScrollRow {
		g.layout.ScrollRow = row
	}
	if row >= g.layout.ScrollRow+visible {
		g.layout.ScrollRow = row - visible + 1
	}
}

// dispatch reports every item's distance from the visible area to the
// controller and turns the loads it started into commands.
func (g *Gallery) dispatch() tea.Cmd {
	for _, it := range g.coll.Items() {
		c, ok := g.layout.ContainerFromItem(it)
		if !ok {
			continue
		}
		g.ctrl.OnItemViewportChanged(it, g.layout.Distance(c))
	}
	return g.flushLoads()
}

func (g *Gallery) flushLoads() tea.Cmd {
	reqs := g.sched.Drain()
	if len(reqs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, len(reqs))
	for i, r := range reqs {
		cmds[i] = loadThumbnailCmd(g.loader, r)
	}
	return tea.Batch(cmds...)
}

// startFill begins a fill run unless one already holds the latch
func (g *Gallery) startFill() tea.Cmd {
	if g.run != nil {
		return nil
	}
	run := g.ctrl.BeginFill(g.coll.Len())
	if run == nil {
		return nil
	}
	if !run.NeedsPage() {
		run.Finish(nil)
		return g.maybeLoadMore()
	}
	g.run = run
	return g.requestPage(gallery.FillPageSize)
}

func (g *Gallery) finishFill(err error) {
	if g.run == nil {
		return
	}
	g.run.Finish(err)
	g.run = nil
}

func (g *Gallery) abortFill() {
	g.finishFill(gallery.ErrFillAborted)
}

// requestPage issues a page fetch. A fetch already in flight is left to
// drive the active run.
func (g *Gallery) requestPage(count int) tea.Cmd {
	req, ok := g.coll.Request(count)
	if !ok {
		// Nothing left to page, or no source yet
		if !g.coll.Pending() && g.run != nil {
			g.finishFill(nil)
		}
		return nil
	}
	return fetchPageCmd(req)
}

// maybeLoadMore pages in more works when the cursor nears the end
func (g *Gallery) maybeLoadMore() tea.Cmd {
	if g.run != nil || g.coll.Exhausted() || g.coll.Pending() {
		return nil
	}
	cols := max(1, g.layout.Columns)
	rows := g.layout.Rows(g.coll.Len())
	if g.cursor/cols < rows-g.layout.VisibleRows()-1 {
		return nil
	}
	return g.requestPage(g.pageSize)
}

func (g *Gallery) handlePage(msg PageLoadedMsg) tea.Cmd {
	if msg.Req.Generation() != g.coll.Generation() {
		return nil
	}
	if msg.Err != nil {
		g.coll.Abort(msg.Req)
		g.finishFill(msg.Err)
		if errors.Is(msg.Err, context.Canceled) {
			return nil
		}
		err := msg.Err
		return func() tea.Msg { return FetchFailedMsg{Err: err} }
	}

	count, ok := g.coll.Apply(msg.Req, msg.Page)
	if !ok {
		return nil
	}
	cmds := []tea.Cmd{g.dispatch()}

	switch {
	case g.run == nil:
		cmds = append(cmds, g.maybeLoadMore())
	case count == 0 && !g.coll.Exhausted():
		// the filter hid the whole page
		cmds = append(cmds, g.requestPage(gallery.FillPageSize))
	case g.run.Advance(count):
		cmds = append(cmds, g.requestPage(gallery.FillPageSize))
	default:
		g.finishFill(nil)
		cmds = append(cmds, g.maybeLoadMore())
	}
	return tea.Batch(cmds...)
}

func (g *Gallery) handleThumbnail(msg ThumbnailLoadedMsg) tea.Cmd {
	if !msg.Item.CompleteLoad(msg.Seq, msg.Thumb, msg.Err) {
		return nil
	}
	if msg.Err != nil {
		g.logger.Debug("thumbnail failed", "key", domain.EntryKey(msg.Item.Entry), "error", msg.Err)
		return nil
	}
	if msg.Item.StartTransition(time.Now()) && !g.ticking {
		g.ticking = true
		return animationTickCmd()
	}
	return nil
}

func (g *Gallery) handleTick(msg AnimationTickMsg) tea.Cmd {
	running := false
	for _, it := range g.coll.Items() {
		if it.Tick(msg.Time) {
			running = true
		}
	}
	if !running {
		g.ticking = false
		return nil
	}
	return animationTickCmd()
}

// ToggleFilter activates the filter input
func (g *Gallery) ToggleFilter() {
	g.filterActive = true
	g.filterInput.Focus()
	g.relayout()
}

func (g *Gallery) clearFilterInput() {
	g.filterActive = false
	g.filterInput.SetValue("")
	g.filterInput.Blur()
	g.relayout()
}

// applyFilter refilters the collection and starts a new fill over the
// new view
func (g *Gallery) applyFilter(query string) tea.Cmd {
	if !g.coll.SetFilter(strings.TrimSpace(query)) {
		return nil
	}
	g.abortFill()
	g.cursor = 0
	g.layout.ScrollRow = 0
	return tea.Batch(g.dispatch(), g.startFill())
}

func (g *Gallery) clearFilter() tea.Cmd {
	g.clearFilterInput()
	if cmd := g.applyFilter(""); cmd != nil {
		return cmd
	}
	return g.dispatch()
}

// Init initializes the component
func (g Gallery) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (g Gallery) Update(msg tea.Msg) (Gallery, tea.Cmd) {
	// Async results are applied regardless of focus
	switch msg := msg.(type) {
	case PageLoadedMsg:
		return g, g.handlePage(msg)
	case ThumbnailLoadedMsg:
		return g, g.handleThumbnail(msg)
	case AnimationTickMsg:
		return g, g.handleTick(msg)
	}

	if !g.focused {
		return g, nil
	}

	// Filter input when typing
	if g.IsFilterTyping() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				return g, g.clearFilter()
			case "enter":
				g.filterInput.Blur()
				return g, nil
			case "backspace":
				if g.filterInput.Value() == "" {
					return g, g.clearFilter()
				}
			}
		}
		var cmd tea.Cmd
		g.filterInput, cmd = g.filterInput.Update(msg)
		return g, tea.Batch(cmd, g.applyFilter(g.filterInput.Value()))
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch {
	case key.Matches(keyMsg, GalleryKeys.Filter):
		g.ToggleFilter()
		return g, tea.Batch(textinput.Blink, g.dispatch())
	case key.Matches(keyMsg, GalleryKeys.Escape):
		if g.filterActive {
			return g, g.clearFilter()
		}
		return g, nil
	}

	count := g.coll.Len()
	if count == 0 {
		return g, nil
	}

	cols := max(1, g.layout.Columns)
	half := max(1, g.layout.VisibleRows()/2) * cols
	prev := g.cursor

	switch {
	case key.Matches(keyMsg, GalleryKeys.Left):
		g.cursor--
	case key.Matches(keyMsg, GalleryKeys.Right):
		g.cursor++
	case key.Matches(keyMsg, GalleryKeys.Up):
		g.cursor -= cols
	case key.Matches(keyMsg, GalleryKeys.Down):
		g.cursor += cols
	case key.Matches(keyMsg, GalleryKeys.Home):
		g.cursor = 0
	case key.Matches(keyMsg, GalleryKeys.End):
		g.cursor = count - 1
	case key.Matches(keyMsg, GalleryKeys.HalfUp):
		g.cursor -= half
	case key.Matches(keyMsg, GalleryKeys.HalfDown):
		g.cursor += half
	default:
		return g, g.handleAction(keyMsg)
	}

	g.cursor = max(0, min(count-1, g.cursor))
	if g.cursor == prev {
		return g, g.maybeLoadMore()
	}
	scroll := g.layout.ScrollRow
	g.ensureVisible()
	if g.layout.ScrollRow != scroll {
		return g, tea.Batch(g.dispatch(), g.maybeLoadMore())
	}
	return g, g.maybeLoadMore()
}

func (g Gallery) handleAction(msg tea.KeyMsg) tea.Cmd {
	it := g.Selected()
	if it == nil {
		return nil
	}
	var action Action
	switch {
	case key.Matches(msg, GalleryKeys.Enter):
		action = ActionView
	case key.Matches(msg, GalleryKeys.OpenWeb):
		action = ActionOpenWeb
	case key.Matches(msg, GalleryKeys.OpenFile):
		action = ActionOpenFile
	case key.Matches(msg, GalleryKeys.CopyWeb):
		action = ActionCopyWeb
	case key.Matches(msg, GalleryKeys.CopyApp):
		action = ActionCopyApp
	case key.Matches(msg, GalleryKeys.Bookmark):
		action = ActionToggleBookmark
	default:
		return nil
	}
	out := ActionMsg{Action: action, Entry: it.Entry, Path: originalPath(it.Entry)}
	return func() tea.Msg { return out }
}

// originalPath returns the file opened for a work
func originalPath(e domain.Entry) string {
	if n, ok := e.(*domain.Novel); ok {
		return n.Path
	}
	return e.ThumbnailPath()
}

// View renders the component
func (g Gallery) View() string {
	style := styles.InactiveBorder
	if g.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()

	var b strings.Builder
	b.WriteString(g.renderHeader(g.width - frameW))
	b.WriteString("\n")
	if g.filterActive {
		b.WriteString(g.renderFilterBar())
		b.WriteString("\n")
	}
	b.WriteString(g.renderGrid())

	return style.
		Width(g.width - frameW).
		Height(g.height - frameH).
		Render(b.String())
}

func (g Gallery) renderHeader(width int) string {
	title := styles.AccentStyle.Render(g.section.Title())
	count := fmt.Sprintf(" %d", g.coll.Len())
	if !g.coll.Exhausted() {
		count += "+"
	}
	if g.coll.Len() > 0 {
		count = fmt.Sprintf(" %d/%s", g.cursor+1, strings.TrimSpace(count))
	}
	line := title + styles.DimStyle.Render(count)
	if g.run != nil || g.coll.Pending() {
		line += styles.DimStyle.Render("  loading…")
	}
	return lipgloss.NewStyle().MaxWidth(max(width, 0)).Render(line)
}

func (g Gallery) renderFilterBar() string {
	bar := g.filterInput.View()
	if q := g.coll.Query(); q != "" {
		bar += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", g.coll.Len(), g.coll.Total()))
	}
	return bar
}

func (g Gallery) renderGrid() string {
	count := g.coll.Len()
	if count == 0 {
		switch {
		case g.run != nil || g.coll.Pending():
			return styles.DimStyle.Render("Loading…")
		case g.coll.Query() != "":
			return styles.DimStyle.Render("No matches")
		default:
			return styles.DimStyle.Render("No works")
		}
	}

	cols := max(1, g.layout.Columns)
	first := g.layout.ScrollRow
	last := min(g.layout.Rows(count), first+g.layout.VisibleRows())

	rows := make([]string, 0, last-first)
	for r := first; r < last; r++ {
		cells := make([]string, 0, cols)
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= count {
				break
			}
			cells = append(cells, g.renderCell(g.coll.At(i), i == g.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (g Gallery) renderCell(it *gallery.Item, selected bool) string {
	w, h := g.cell.Cols, g.cell.Rows

	var body string
	switch it.State() {
	case domain.ThumbnailLoaded:
		opacity := it.Visual().Opacity
		switch {
		case opacity < hiddenOpacity:
			body = placeholder(w, h, "")
		case opacity < faintOpacity:
			body = styles.CellFadingStyle.Render(it.Thumbnail().Render())
		default:
			body = it.Thumbnail().Render()
		}
	case domain.ThumbnailLoading:
		body = placeholder(w, h, "…")
	case domain.ThumbnailFailed:
		body = placeholder(w, h, fallbackLabel(it.Entry))
	default:
		body = placeholder(w, h, "")
	}
	body = lipgloss.NewStyle().Width(w).Height(h).Render(body)

	style := styles.CellStyle
	if selected && g.focused {
		style = styles.CellSelectedStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, body, caption(it.Entry, w)))
}

func placeholder(w, h int, label string) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, styles.PlaceholderStyle.Render(label))
}

// fallbackLabel describes a work that has no thumbnail
func fallbackLabel(e domain.Entry) string {
	if n, ok := e.(*domain.Novel); ok {
		return "NOVEL\n" + n.FormattedWordCount()
	}
	return "no image"
}

func caption(e domain.Entry, width int) string {
	suffix := ""
	if ill, ok := e.(*domain.Illustration); ok && ill.PageCount() > 1 {
		suffix = fmt.Sprintf(" %dP", ill.PageCount())
	}
	mark := ""
	if e.IsBookmarked() {
		mark = styles.BookmarkMark + " "
	}
	title := styles.Truncate(e.GetTitle(), width-lipgloss.Width(mark)-len(suffix))
	line := mark + styles.TitleStyle.Render(title) + styles.DimStyle.Render(suffix)
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(line)
}

func fetchPageCmd(req collection.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pageFetchTimeout)
		defer cancel()

		page, err := req.Fetch(ctx)
		return PageLoadedMsg{Req: req, Page: page, Err: err}
	}
}

func loadThumbnailCmd(loader ThumbnailLoader, r thumbnail.Request) tea.Cmd {
	return func() tea.Msg {
		img, err := loader.Load(r.Ctx, r.Path, r.Size)
		msg := ThumbnailLoadedMsg{Item: r.Item, Seq: r.Seq, Err: err}
		if img != nil {
			msg.Thumb = img
		}
		return msg
	}
}

func animationTickCmd() tea.Cmd {
	return tea.Tick(animationFrame, func(t time.Time) tea.Msg {
		return AnimationTickMsg{Time: t}
	})
}
