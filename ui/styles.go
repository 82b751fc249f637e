package ui

import "github.com/charmbracelet/lipgloss"

var (
	normalDim = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	darkGray  = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(gray)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(fuchsia)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}).
			Background(darkGray).
			Padding(0, 1)

	focusedButtonStyle = buttonStyle.
				Foreground(cream).
				Background(fuchsia).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(normalDim)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(red)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(green)

	noteStyle = lipgloss.NewStyle().
			Foreground(midGray).
			Italic(true)

	speakingStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8E8E8E", Dark: "#747373"})
)
