package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette names the colors every style is built from
type Palette struct {
	Accent   lipgloss.Color
	Base     lipgloss.Color // modal background
	Surface  lipgloss.Color // selection and cell borders
	Dim      lipgloss.Color
	Muted    lipgloss.Color
	Text     lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Bookmark lipgloss.Color
}

// Themes maps the ui.theme config values to palettes
var Themes = map[string]Palette{
	"default": {
		Accent:   lipgloss.Color("#0096FA"),
		Base:     lipgloss.Color("#1F2937"),
		Surface:  lipgloss.Color("#374151"),
		Dim:      lipgloss.Color("#6B7280"),
		Muted:    lipgloss.Color("#9CA3AF"),
		Text:     lipgloss.Color("#F9FAFB"),
		Success:  lipgloss.Color("#10B981"),
		Error:    lipgloss.Color("#EF4444"),
		Bookmark: lipgloss.Color("#FF4060"),
	},
	"light": {
		Accent:   lipgloss.Color("#0070C0"),
		Base:     lipgloss.Color("#F3F4F6"),
		Surface:  lipgloss.Color("#D1D5DB"),
		Dim:      lipgloss.Color("#9CA3AF"),
		Muted:    lipgloss.Color("#4B5563"),
		Text:     lipgloss.Color("#111827"),
		Success:  lipgloss.Color("#047857"),
		Error:    lipgloss.Color("#B91C1C"),
		Bookmark: lipgloss.Color("#E11D48"),
	},
}

// Current is the palette the styles below were last built from
var Current Palette

// Borders
var (
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
)

// Text styles
var (
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	DimStyle      lipgloss.Style
	AccentStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
)

// Bookmark indicator
const BookmarkChar = "♥"

var BookmarkMark string

// List item styles
var (
	ListTitleStyle    lipgloss.Style
	SelectedItemStyle lipgloss.Style
	NormalItemStyle   lipgloss.Style
)

// Modal styles
var (
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
)

// Help styles
var (
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style
)

// Badge styles
var (
	BadgeStyle    lipgloss.Style
	DimBadgeStyle lipgloss.Style
)

// Grid cell styles
var (
	CellStyle         lipgloss.Style
	CellSelectedStyle lipgloss.Style

	// CellFadingStyle draws a thumbnail still early in its fade-in
	CellFadingStyle = lipgloss.NewStyle().Faint(true)

	PlaceholderStyle lipgloss.Style
)

// Spinner style
var SpinnerStyle lipgloss.Style

// Filter styles
var (
	FilterStyle       lipgloss.Style
	FilterPromptStyle lipgloss.Style
)

func init() {
	build(Themes["default"])
}

// ApplyTheme rebuilds every style from the named palette. It must run before
// any component is created; components copy styles when they are built.
func ApplyTheme(name string) error {
	p, ok := Themes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	build(p)
	return nil
}

func build(p Palette) {
	Current = p

	ActiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent)
	InactiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Dim)

	TitleStyle = lipgloss.NewStyle().Foreground(p.Text).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	DimStyle = lipgloss.NewStyle().Foreground(p.Dim)
	AccentStyle = lipgloss.NewStyle().Foreground(p.Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)

	BookmarkMark = lipgloss.NewStyle().Foreground(p.Bookmark).Render(BookmarkChar)

	ListTitleStyle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true).
		Padding(0, 1)
	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface).
		Padding(0, 1)
	NormalItemStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(1, 2).
		Background(p.Base)
	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Bold(true).
		MarginBottom(1)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(p.Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(p.Dim)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Accent).
		Padding(0, 1)
	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Background(p.Surface).
		Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface)
	CellSelectedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent)
	PlaceholderStyle = lipgloss.NewStyle().Foreground(p.Surface)

	SpinnerStyle = lipgloss.NewStyle().Foreground(p.Accent)

	FilterStyle = lipgloss.NewStyle().Foreground(p.Accent)
	FilterPromptStyle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)
}

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:min(width, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-3 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
