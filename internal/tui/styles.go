// Package tui provides the terminal dashboard for multiwatch.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// Each watch gets a pane showing:
// - Title and refresh period
// - Status and exit code of the latest run
// - Output of the latest run
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// =============================================================================
// Color Palette
// =============================================================================

// Colors based on a modern dark theme
var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	// Status colors
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	outputStyle = lipgloss.NewStyle().
			Foreground(colorText)
)

// =============================================================================
// Status Indicator Styles
// =============================================================================

var (
	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusInfo = lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true)
)

// =============================================================================
// Layout Styles
// =============================================================================

var (
	// Pane styles
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorBorder)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// =============================================================================
// Value Styles
// =============================================================================

var (
	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorBorder)

	tableRowEvenStyle = lipgloss.NewStyle().
				Foreground(colorText)

	tableRowOddStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)

	progressBarStyle = lipgloss.NewStyle().
				Foreground(colorSuccess)

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(colorError)

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Bold(true)
)

// =============================================================================
// Status / Exit Code Labels
// =============================================================================

// Status labels shown in a pane.
const (
	StatusNew      = "new"
	StatusRunning  = "R"
	StatusFinished = "."
	StatusError    = "ERR"
)

// StatusLabel returns the unstyled status of a watch given its state and
// the last result.
func StatusLabel(state watch.State, last process.Result) string {
	switch state {
	case watch.StateRunning:
		return StatusRunning
	case watch.StateFinished:
		if last.Failed() {
			return StatusError
		}
		return StatusFinished
	default:
		return StatusNew
	}
}

// GetStatusStyle returns the style for a status label.
func GetStatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusRunning:
		return statusInfo
	case StatusError:
		return statusError
	case StatusNew:
		return mutedStyle
	default:
		return valueStyle
	}
}

// ExitLabel returns the exit code text of a finished run, or "n/a" when
// there is none.
func ExitLabel(finished bool, last process.Result) string {
	if !finished || last.Failed() {
		return watch.PeriodUnavailable
	}
	return fmt.Sprintf("%d", last.ExitCode)
}

// GetExitStyle returns green for 0, red for anything else and muted when
// no exit code exists.
func GetExitStyle(finished bool, last process.Result) lipgloss.Style {
	switch {
	case !finished || last.Failed():
		return mutedStyle
	case last.ExitCode == 0:
		return statusOK
	default:
		return statusError
	}
}

// GetSuccessRateStyle returns a style based on the fraction of clean runs.
func GetSuccessRateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 1.0:
		return statusOK
	case rate >= 0.9:
		return statusWarning
	default:
		return statusError
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+": "),
		value,
	)
}

// RenderProgressBar renders a bar where the filled part is progress (0..1).
func RenderProgressBar(progress float64, width int) string {
	if width < 10 {
		width = 10
	}

	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := progressBarStyle.Render(repeatChar('█', filled)) +
		progressBarEmptyStyle.Render(repeatChar('░', width-filled))

	percent := progressPercentStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))

	return bar + percent
}

func repeatChar(char rune, count int) string {
	if count <= 0 {
		return ""
	}
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
