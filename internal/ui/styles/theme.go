package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth is the maximum content width for the dashboard
const MaxWidth = 90

// ContentWidth returns the actual content width to use
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// Styles holds the pre-computed styles shared by the CLI output and
// the review dashboard.
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	Header lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	TodoTitle lipgloss.Style
	Score     lipgloss.Style
	Overdue   lipgloss.Style
	Muted     lipgloss.Style

	StatusOpen      lipgloss.Style
	StatusActive    lipgloss.Style
	StatusBlocked   lipgloss.Style
	StatusDone      lipgloss.Style
	StatusCancelled lipgloss.Style

	HealthGood lipgloss.Style
	HealthWarn lipgloss.Style
	HealthBad  lipgloss.Style

	Panel lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	StatusBar lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Header: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		TodoTitle: lipgloss.NewStyle().
			Foreground(t.Foreground),

		Score: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		Overdue: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusOpen: lipgloss.NewStyle().
			Foreground(t.Accent),

		StatusActive: lipgloss.NewStyle().
			Foreground(t.Info).
			Bold(true),

		StatusBlocked: lipgloss.NewStyle().
			Foreground(t.Error),

		StatusDone: lipgloss.NewStyle().
			Foreground(t.Success),

		StatusCancelled: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		HealthGood: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		HealthWarn: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		HealthBad: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
	}
}

// ForStatus returns the style for a todo or project status.
func (s *Styles) ForStatus(status string) lipgloss.Style {
	switch status {
	case "in_progress", "active":
		return s.StatusActive
	case "blocked":
		return s.StatusBlocked
	case "completed":
		return s.StatusDone
	case "cancelled", "archived", "paused":
		return s.StatusCancelled
	default:
		return s.StatusOpen
	}
}

// ForHealth returns the style for a health label.
func (s *Styles) ForHealth(label string) lipgloss.Style {
	switch label {
	case "Excellent", "Good":
		return s.HealthGood
	case "Fair":
		return s.HealthWarn
	default:
		return s.HealthBad
	}
}
