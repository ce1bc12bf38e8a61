package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/tui/styles"
)

// SectionItem implements list.Item for catalog sections
type SectionItem struct {
	Section domain.Section
	Count   int
	Syncing bool
	Frame   int
}

// Spinner frames for the scanning animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (i SectionItem) FilterValue() string { return i.Section.Title() }

func (i SectionItem) Title() string {
	if i.Syncing {
		return fmt.Sprintf("%s %s", spinnerFrames[i.Frame%len(spinnerFrames)], i.Section.Title())
	}
	return fmt.Sprintf("  %s (%d)", i.Section.Title(), i.Count)
}

func (i SectionItem) Description() string { return "" }

// Sidebar is the section selection sidebar component
type Sidebar struct {
	list         list.Model
	focused      bool
	width        int
	height       int
	counts       map[domain.Section]int
	syncing      bool
	spinnerFrame int
}

// NewSidebar creates a new sidebar component
func NewSidebar() Sidebar {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	delegate.Styles.SelectedTitle = styles.SelectedItemStyle
	delegate.Styles.NormalTitle = styles.NormalItemStyle

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Library"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.Styles.Title = styles.ListTitleStyle

	s := Sidebar{
		list:   l,
		counts: make(map[domain.Section]int),
	}
	s.refreshItems()
	return s
}

// SetCounts updates the per-section counts
func (s *Sidebar) SetCounts(counts map[domain.Section]int) {
	s.counts = counts
	s.refreshItems()
}

// SetSyncing toggles the scanning indicator
func (s *Sidebar) SetSyncing(syncing bool) {
	s.syncing = syncing
	s.refreshItems()
}

// SetSpinnerFrame updates the spinner animation frame
func (s *Sidebar) SetSpinnerFrame(frame int) {
	s.spinnerFrame = frame
	if s.syncing {
		s.refreshItems()
	}
}

func (s *Sidebar) refreshItems() {
	items := make([]list.Item, len(domain.Sections))
	for i, sec := range domain.Sections {
		items[i] = SectionItem{
			Section: sec,
			Count:   s.counts[sec],
			Syncing: s.syncing,
			Frame:   s.spinnerFrame,
		}
	}
	s.list.SetItems(items)
}

// SetSize updates the component dimensions
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.list.SetSize(width-BorderWidth, height-BorderHeight)
}

// SetFocused sets the focus state
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state
func (s Sidebar) IsFocused() bool {
	return s.focused
}

// SelectedSection returns the highlighted section
func (s Sidebar) SelectedSection() domain.Section {
	item, ok := s.list.SelectedItem().(SectionItem)
	if !ok {
		return domain.SectionAll
	}
	return item.Section
}

// Select highlights a section
func (s *Sidebar) Select(section domain.Section) {
	for i, sec := range domain.Sections {
		if sec == section {
			s.list.Select(i)
			return
		}
	}
}

// Init initializes the component
func (s Sidebar) Init() tea.Cmd {
	return nil
}

// Update handles messages. Moving the selection emits SectionChangedMsg.
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	if !s.focused {
		return s, nil
	}

	prev := s.list.Index()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			s.list.CursorDown()
		case "k", "up":
			s.list.CursorUp()
		case "g":
			s.list.Select(0)
		case "G":
			s.list.Select(len(s.list.Items()) - 1)
		}
	}

	if s.list.Index() == prev {
		return s, nil
	}
	section := s.SelectedSection()
	return s, func() tea.Msg { return SectionChangedMsg{Section: section} }
}

// View renders the component
func (s Sidebar) View() string {
	style := styles.InactiveBorder
	if s.focused {
		style = styles.ActiveBorder
	}

	// Subtract frame (border) size so total rendered size equals s.width x s.height
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(s.width - frameW).
		Height(s.height - frameH).
		Render(s.list.View())
}
