package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Role colors: blue for the user, purple for the assistant.
	colorUser      = lipgloss.AdaptiveColor{Light: "#1890ff", Dark: "#69b1ff"}
	colorAssistant = lipgloss.AdaptiveColor{Light: "#722ed1", Dark: "#b37feb"}

	// UI colors.
	colorBright = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
	colorSource = lipgloss.AdaptiveColor{Light: "#ad8b00", Dark: "#ffe58f"}
	colorError  = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

var (
	styleUserBadge      = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	styleAssistantBadge = lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)

	styleTitle = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleMeta  = lipgloss.NewStyle().Foreground(colorDim)

	styleSourceLabel = lipgloss.NewStyle().Foreground(colorSource).Bold(true)
	styleExcerpt     = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleStatus      = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleError       = lipgloss.NewStyle().Foreground(colorError)

	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
