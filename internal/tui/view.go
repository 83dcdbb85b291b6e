package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/multiwatch/internal/stats"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// paneChrome is the number of lines a pane uses besides its output:
// two border lines and the status line.
const paneChrome = 3

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders one pane per watch.
func (m Model) renderSummaryView() string {
	sections := []string{m.renderHeader()}

	if len(m.panes) == 0 {
		sections = append(sections, boxStyle.Width(m.width-2).Render(
			dimStyle.Render("No watches configured."),
		))
	}

	lines := m.outputLines()
	for i, p := range m.panes {
		sections = append(sections, renderPane(p, m.width, lines, i == m.focus))
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetailedView renders the per-watch statistics table.
func (m Model) renderDetailedView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderWatchTable(),
		m.renderFooter(),
	)
}

// outputLines splits the screen height evenly between panes.
func (m Model) outputLines() int {
	if len(m.panes) == 0 {
		return 1
	}
	available := m.height - 2 // header + footer
	per := available/len(m.panes) - paneChrome
	if per < 1 {
		per = 1
	}
	return per
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" multiwatch │ Watches: %d │ Running: %d │ Elapsed: %s ",
		len(m.panes),
		m.Running(),
		stats.FormatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Panes
// =============================================================================

// renderPane draws one watch: title, status, exit code and period on the
// first line, then at most outputLines lines of output (0 = all of it).
func renderPane(p pane, width, outputLines int, focused bool) string {
	if width < 20 {
		width = 20
	}
	inner := width - 4 // border + padding

	finished := p.stats.Runs > 0
	status := StatusLabel(p.state, p.last)

	statusLine := strings.Join([]string{
		titleStyle.Render(p.Title),
		RenderKeyValue("Status", GetStatusStyle(status).Render(status)),
		RenderKeyValue("Exitcode", GetExitStyle(finished, p.last).Render(ExitLabel(finished, p.last))),
		RenderKeyValue("Every", periodLabel(p.Period)),
		RenderKeyValue("Runs", valueStyle.Render(fmt.Sprintf("%d", p.runs))),
	}, "  ")
	statusLine = lipgloss.NewStyle().MaxWidth(inner).Render(statusLine)

	var output string
	switch {
	case p.last.Failed():
		output = statusError.Render(p.last.Err.Error())
	default:
		output = outputStyle.Render(strings.TrimRight(p.last.Output, "\n"))
	}
	output = lipgloss.NewStyle().Width(inner).MaxHeight(outputLines).Render(output)

	style := boxStyle
	if focused {
		style = focusedBoxStyle
	}
	return style.Width(width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, statusLine, output),
	)
}

func periodLabel(period string) string {
	if period == watch.PeriodUnavailable {
		return mutedStyle.Render(period)
	}
	return valueStyle.Render(period + "s")
}

// =============================================================================
// Detailed View
// =============================================================================

func (m Model) renderWatchTable() string {
	if len(m.panes) == 0 {
		return boxStyle.Width(m.width - 2).Render(
			dimStyle.Render("No watches configured. Press 'd' to toggle."),
		)
	}

	header := tableHeaderStyle.Render(
		fmt.Sprintf("%-28s %-6s %6s %6s %6s %9s %9s %9s",
			"Watch", "Status", "Runs", "Fail", "Exit", "P50", "P95", "Max"),
	)

	maxRows := m.height - 10
	if maxRows < 5 {
		maxRows = 5
	}

	var rows []string
	for i, p := range m.panes {
		if i >= maxRows {
			rows = append(rows, dimStyle.Render(fmt.Sprintf("... and %d more watches", len(m.panes)-maxRows)))
			break
		}

		rowStyle := tableRowEvenStyle
		if i%2 == 1 {
			rowStyle = tableRowOddStyle
		}

		s := p.stats.Summary()
		finished := p.stats.Runs > 0
		row := fmt.Sprintf("%-28s %-6s %6d %6d %6s %9s %9s %9s",
			truncateTitle(p.Title, 28),
			StatusLabel(p.state, p.last),
			s.Runs,
			s.Failures+s.NonZero,
			ExitLabel(finished, p.last),
			stats.FormatMs(s.P50),
			stats.FormatMs(s.P95),
			stats.FormatMs(s.Max),
		)
		if i == m.focus {
			row = "> " + row
		} else {
			row = "  " + row
		}
		rows = append(rows, rowStyle.Render(row))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{
			sectionHeaderStyle.Render("Run Statistics"),
			"  " + header,
		}, rows...)...,
	)

	if m.focus < len(m.panes) {
		focused := m.panes[m.focus]
		rate := focused.stats.SuccessRate()
		content = lipgloss.JoinVertical(lipgloss.Left,
			content,
			"",
			RenderKeyValue("Clean runs", GetSuccessRateStyle(rate).Render(focused.Title)),
			RenderProgressBar(rate, m.width-20),
		)
	}

	return boxStyle.Width(m.width - 2).Render(content)
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	shortcuts := []string{
		"q: quit",
		"d: toggle details",
		"j/k: focus",
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))
	right := ""
	if m.metricsAddr != "" {
		right = dimStyle.Render("Metrics: http://" + m.metricsAddr + "/metrics")
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}
