package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// Color palette
var (
	ColorPurple      = lipgloss.Color(plan.DefaultBlockColor)
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color(plan.DefaultFixedColor)
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	BadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorOrange).
			Padding(0, 1)
)

// Row styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	RoleHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue)

	DayHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow)

	FixedEventStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	HoursStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DepthIndent = "  "
)

// Status styles
var statusStyles = map[plan.Status]lipgloss.Style{
	plan.StatusPool:      lipgloss.NewStyle().Foreground(ColorOffWhite),
	plan.StatusPartial:   lipgloss.NewStyle().Foreground(ColorYellow),
	plan.StatusScheduled: lipgloss.NewStyle().Foreground(ColorCyan),
	plan.StatusCompleted: lipgloss.NewStyle().Foreground(ColorGreen),
	plan.StatusDropped:   lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true),
}

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Input styles
var (
	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)
)

// Search styles
var (
	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(lipgloss.Color("#2E2545"))

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Status icons
var statusIcons = map[plan.Status]string{
	plan.StatusPool:      "○",
	plan.StatusPartial:   "◐",
	plan.StatusScheduled: "●",
	plan.StatusCompleted: "✓",
	plan.StatusDropped:   "✗",
}

const (
	IconBlock = "■"
	IconFixed = "▪"
)

func statusStyle(s plan.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return statusStyles[plan.StatusPool]
}

func statusIcon(s plan.Status) string {
	if icon, ok := statusIcons[s]; ok {
		return icon
	}
	return statusIcons[plan.StatusPool]
}
