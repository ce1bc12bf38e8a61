package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pixeval/pixterm/internal/adapter"
	"github.com/pixeval/pixterm/internal/catalog"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/tui/components"
	"github.com/pixeval/pixterm/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateViewer
	StateReader
	StateHelp
)

// Pane identifies the focused pane while browsing
type Pane int

const (
	PaneGallery Pane = iota
	PaneSidebar
)

// Layout
const (
	SidebarWidth = 26

	// Hide the sidebar below this terminal width
	MinWidthForSidebar = 70

	// Vertical layout: single footer line
	ChromeHeight = 1

	statusTimeout = 3 * time.Second
	tickInterval  = 100 * time.Millisecond
)

// ThumbnailCache is the in-memory thumbnail tier dropped by a catalog rebuild
type ThumbnailCache interface {
	Len() int
	Purge()
}

// Options wires the model to its services
type Options struct {
	Catalog     *catalog.Service
	Opener      *adapter.Opener
	Loader      components.ThumbnailLoader
	Thumbnails  ThumbnailCache // optional
	Gallery     components.GalleryOptions
	ShowSidebar bool
	// Rescan forces a library scan on start
	Rescan bool
	Logger *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State     ApplicationState
	prevState ApplicationState
	Ready     bool

	// Services
	Catalog *catalog.Service
	Opener  *adapter.Opener
	thumbs  ThumbnailCache
	logger  *slog.Logger

	// UI Components
	Sidebar components.Sidebar
	Gallery components.Gallery
	Viewer  components.Viewer
	Reader  components.Reader
	Help    help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	Focus        Pane
	ShowSidebar  bool
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int

	// Sync state
	Syncing     bool
	SyncScanned int
	SyncEntries int
	rescan      bool
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Gallery.Logger = logger

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle

	m := Model{
		State:       StateBrowsing,
		Catalog:     opts.Catalog,
		Opener:      opts.Opener,
		thumbs:      opts.Thumbnails,
		logger:      logger,
		Sidebar:     components.NewSidebar(),
		Gallery:     components.NewGallery(opts.Loader, opts.Gallery),
		Viewer:      components.NewViewer(opts.Loader, logger),
		Reader:      components.NewReader(),
		Help:        h,
		Focus:       PaneGallery,
		ShowSidebar: opts.ShowSidebar,
		rescan:      opts.Rescan,
	}
	m.Gallery.SetFocused(true)
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadCountsCmd(m.Catalog),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		cmd := m.updateLayout()
		if !m.Ready {
			m.Ready = true
			startCmd := m.start()
			return m, tea.Batch(cmd, startCmd)
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		if m.Syncing {
			m.Sidebar.SetSpinnerFrame(m.SpinnerFrame)
		}
		return m, TickCmd(tickInterval)

	case SyncProgressMsg:
		return m.handleSyncProgress(msg)

	case CountsLoadedMsg:
		m.Sidebar.SetCounts(msg.Counts)
		return m, nil

	case components.SectionChangedMsg:
		cmd := m.Gallery.SetSource(msg.Section, m.Catalog.Source(msg.Section))
		return m, cmd

	case components.PageLoadedMsg, components.ThumbnailLoadedMsg, components.AnimationTickMsg:
		var cmd tea.Cmd
		m.Gallery, cmd = m.Gallery.Update(msg)
		return m, cmd

	case components.FetchFailedMsg:
		return m.setStatus(ErrMsg{Err: msg.Err, Context: "loading works"}.Error(), true)

	case components.ActionMsg:
		return m.handleAction(msg)

	case components.ViewerImageMsg:
		var cmd tea.Cmd
		m.Viewer, cmd = m.Viewer.Update(msg)
		return m, cmd

	case components.ViewerStepMsg:
		e, cmd := m.Gallery.Step(msg.Delta)
		if e == nil {
			next, status := m.setStatus("No more works in this direction", false)
			return next, tea.Batch(cmd, status)
		}
		openCmd := m.Viewer.Open(e)
		return m, tea.Batch(cmd, openCmd)

	case components.NovelLoadedMsg:
		var cmd tea.Cmd
		m.Reader, cmd = m.Reader.Update(msg)
		return m, cmd

	case components.CloseMsg:
		m.Viewer.Close()
		m.Reader.Close()
		m.State = StateBrowsing
		return m, nil

	case BookmarkToggledMsg:
		m.Gallery.SetBookmarked(msg.Key, msg.Bookmarked)
		text := "Removed bookmark: " + msg.Title
		if msg.Bookmarked {
			text = "Bookmarked: " + msg.Title
		}
		next, cmd := m.setStatus(text, false)
		return next, tea.Batch(cmd, LoadCountsCmd(m.Catalog))

	case OpenedMsg:
		return m.setStatus("Opened "+msg.What, false)

	case CopiedMsg:
		return m.setStatus("Copied "+msg.Text, false)

	case ErrMsg:
		m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		return m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Anything else (cursor blink etc.) goes to the active component
	var cmd tea.Cmd
	switch m.State {
	case StateReader:
		m.Reader, cmd = m.Reader.Update(msg)
	case StateBrowsing:
		m.Gallery, cmd = m.Gallery.Update(msg)
	}
	return m, cmd
}

// start loads the first section and scans the library when needed
func (m *Model) start() tea.Cmd {
	section := m.Sidebar.SelectedSection()
	cmds := []tea.Cmd{m.Gallery.SetSource(section, m.Catalog.Source(section))}
	if m.rescan || m.Catalog.NeedsSync() {
		cmds = append(cmds, m.startSync())
	}
	return tea.Batch(cmds...)
}

func (m *Model) startSync() tea.Cmd {
	if m.Syncing {
		return nil
	}
	m.Syncing = true
	m.SyncScanned = 0
	m.SyncEntries = 0
	m.Sidebar.SetSyncing(true)
	m.logger.Info("starting library scan", "root", m.Catalog.Root())
	return SyncLibraryCmd(m.Catalog)
}

// rebuild drops the catalog and every cached thumbnail, then scans the
// library from scratch
func (m Model) rebuild() (tea.Model, tea.Cmd) {
	if m.Syncing {
		return m, nil
	}
	m.Gallery.Dispose()
	if err := m.Catalog.InvalidateAll(); err != nil {
		return m.Update(ErrMsg{Err: err, Context: "rebuilding catalog"})
	}
	if m.thumbs != nil {
		m.logger.Info("purging thumbnail cache", "items", m.thumbs.Len())
		m.thumbs.Purge()
	}

	section := m.Gallery.Section()
	reload := m.Gallery.SetSource(section, m.Catalog.Source(section))
	scan := m.startSync()
	return m, tea.Batch(reload, LoadCountsCmd(m.Catalog), scan)
}

func (m Model) handleSyncProgress(msg SyncProgressMsg) (tea.Model, tea.Cmd) {
	if !msg.Progress.Done {
		m.SyncScanned = msg.Progress.Scanned
		m.SyncEntries = msg.Progress.Entries
		return m, msg.NextCmd
	}

	m.Syncing = false
	m.Sidebar.SetSyncing(false)
	if msg.Progress.Error != nil {
		return m.Update(ErrMsg{Err: msg.Progress.Error, Context: "scanning library"})
	}

	r := msg.Result
	section := m.Gallery.Section()
	reload := m.Gallery.SetSource(section, m.Catalog.Source(section))
	next, status := m.setStatus(fmt.Sprintf("Scanned %d works (+%d −%d)", r.Entries, r.Added, r.Removed), false)
	return next, tea.Batch(status, LoadCountsCmd(m.Catalog), reload)
}

func (m Model) handleAction(msg components.ActionMsg) (tea.Model, tea.Cmd) {
	e := msg.Entry
	switch msg.Action {
	case components.ActionView:
		if n, ok := e.(*domain.Novel); ok {
			m.State = StateReader
			cmd := m.Reader.Open(n)
			return m, cmd
		}
		cmd := m.Viewer.Open(e)
		if cmd == nil {
			return m.setStatus("Nothing to show for "+e.GetTitle(), true)
		}
		m.State = StateViewer
		return m, cmd
	case components.ActionOpenWeb:
		return m, OpenURLCmd(m.Opener, e.WebURL())
	case components.ActionOpenFile:
		return m, OpenFileCmd(m.Opener, msg.Path)
	case components.ActionCopyWeb:
		return m, CopyCmd(m.Opener, e.WebURL())
	case components.ActionCopyApp:
		return m, CopyCmd(m.Opener, e.AppURL())
	case components.ActionToggleBookmark:
		return m, ToggleBookmarkCmd(m.Catalog, e)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.State {
	case StateHelp:
		if msg.String() == "esc" || key.Matches(msg, Keys.Help) || msg.String() == "q" {
			m.State = m.prevState
		}
		return m, nil

	case StateViewer:
		switch {
		case key.Matches(msg, Keys.Quit):
			return m.quit()
		case key.Matches(msg, Keys.Help):
			return m.showHelp()
		}
		var cmd tea.Cmd
		m.Viewer, cmd = m.Viewer.Update(msg)
		return m, cmd

	case StateReader:
		switch {
		case key.Matches(msg, Keys.Quit):
			return m.quit()
		case key.Matches(msg, Keys.Help):
			return m.showHelp()
		}
		var cmd tea.Cmd
		m.Reader, cmd = m.Reader.Update(msg)
		return m, cmd
	}

	// Filter input takes every key while typing
	if m.Gallery.IsFilterTyping() {
		var cmd tea.Cmd
		m.Gallery, cmd = m.Gallery.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m.quit()
	case key.Matches(msg, Keys.Help):
		return m.showHelp()
	case key.Matches(msg, Keys.Focus):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, Keys.Rescan):
		cmd := m.startSync()
		return m, cmd
	case key.Matches(msg, Keys.Rebuild):
		return m.rebuild()
	case key.Matches(msg, Keys.Sections):
		i := int(msg.String()[0] - '1')
		if i < 0 || i >= len(domain.Sections) {
			return m, nil
		}
		section := domain.Sections[i]
		m.Sidebar.Select(section)
		cmd := m.Gallery.SetSource(section, m.Catalog.Source(section))
		return m, cmd
	}

	var cmd tea.Cmd
	if m.Focus == PaneSidebar {
		m.Sidebar, cmd = m.Sidebar.Update(msg)
		if key.Matches(msg, Keys.Gallery.Enter) || key.Matches(msg, Keys.Gallery.Right) {
			m.toggleFocus()
		}
		return m, cmd
	}
	m.Gallery, cmd = m.Gallery.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.Focus == PaneGallery && m.sidebarVisible() {
		m.Focus = PaneSidebar
	} else {
		m.Focus = PaneGallery
	}
	m.Sidebar.SetFocused(m.Focus == PaneSidebar)
	m.Gallery.SetFocused(m.Focus == PaneGallery)
}

func (m Model) showHelp() (tea.Model, tea.Cmd) {
	m.prevState = m.State
	m.State = StateHelp
	return m, nil
}

// quit releases every thumbnail and in-flight load before exiting
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Viewer.Close()
	m.Reader.Close()
	m.Gallery.Dispose()
	m.logger.Info("quitting")
	return m, tea.Quit
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

func (m Model) sidebarVisible() bool {
	return m.ShowSidebar && m.Width >= MinWidthForSidebar
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() tea.Cmd {
	if m.Width == 0 || m.Height == 0 {
		return nil
	}
	contentHeight := m.Height - ChromeHeight

	galleryWidth := m.Width
	if m.sidebarVisible() {
		m.Sidebar.SetSize(SidebarWidth, contentHeight)
		galleryWidth -= SidebarWidth
	} else if m.Focus == PaneSidebar {
		m.toggleFocus()
	}

	m.Reader.SetSize(m.Width, contentHeight)
	m.Help.Width = m.Width
	return tea.Batch(
		m.Gallery.SetSize(galleryWidth, contentHeight),
		m.Viewer.SetSize(m.Width, contentHeight),
	)
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var content string
	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateViewer:
		content = m.Viewer.View()
	case StateReader:
		content = m.Reader.View()
	default:
		if m.sidebarVisible() {
			content = lipgloss.JoinHorizontal(lipgloss.Top, m.Sidebar.View(), m.Gallery.View())
		} else {
			content = m.Gallery.View()
		}
	}

	content = lipgloss.NewStyle().Height(m.Height - ChromeHeight).MaxHeight(m.Height - ChromeHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderFooter())
}

// RenderSpinner renders one frame of the activity spinner
func RenderSpinner(frame int) string {
	frames := spinner.Dot.Frames
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	// Left side: spinner + scan progress, or the status message
	var left string
	switch {
	case m.Syncing:
		text := "Scanning library…"
		if m.SyncScanned > 0 {
			text = fmt.Sprintf("Scanning library · %d files · %d works", m.SyncScanned, m.SyncEntries)
		}
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render(text)
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.SuccessStyle.Render(m.StatusMsg)
		}
	}

	// Right side: "? help" hint
	right := m.Help.ShortHelpView(Keys.ShortHelp())

	gap := max(0, m.Width-lipgloss.Width(left)-lipgloss.Width(right))
	return lipgloss.NewStyle().MaxWidth(m.Width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	body := styles.ModalTitleStyle.Render("Keys") + "\n" +
		m.Help.FullHelpView(Keys.FullHelp()) + "\n\n" +
		styles.DimStyle.Render("Press ? or esc to return")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}
