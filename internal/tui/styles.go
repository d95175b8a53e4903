package tui

import "github.com/charmbracelet/lipgloss"

// Parasol palette
var (
	colorViolet = lipgloss.Color("#7C6FEB")
	colorRain   = lipgloss.Color("#88C0D0")
	colorGreen  = lipgloss.Color("#50C878")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorAmber  = lipgloss.Color("#E8912D")
	colorWhite  = lipgloss.Color("#E6E6E6")
	colorSubtle = lipgloss.Color("#888888")
	colorDim    = lipgloss.Color("#555555")
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(colorViolet).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorViolet)

	userStyle = lipgloss.NewStyle().
			Foreground(colorRain).
			Bold(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	thinkStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(colorRain)

	toolResultStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorAmber)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	subtleStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)
)

// lineStyle maps a transcript line style name to its lipgloss style.
func lineStyle(style string) lipgloss.Style {
	switch style {
	case "user":
		return userStyle
	case "answer":
		return answerStyle
	case "meta":
		return metaStyle
	case "think":
		return thinkStyle
	case "tool":
		return toolCallStyle
	case "result":
		return toolResultStyle
	case "warn":
		return warnStyle
	case "error":
		return errorStyle
	default:
		return subtleStyle
	}
}
