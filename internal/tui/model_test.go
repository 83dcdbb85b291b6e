package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/stats"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

func testConfig() Config {
	return Config{
		Panes: []PaneInfo{
			{ID: 0, Title: "date", Period: "5"},
			{ID: 1, Title: "echo 'a b' c", Period: "2.5"},
			{ID: 2, Title: "make", Period: watch.PeriodUnavailable},
		},
		MetricsAddr: "localhost:9100",
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func summaries(m Model) []stats.Summary {
	out := make([]stats.Summary, 0, len(m.panes))
	for _, p := range m.panes {
		out = append(out, p.stats.Summary())
	}
	return out
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// =============================================================================
// Tests: New / Init
// =============================================================================

func TestNew(t *testing.T) {
	m := New(testConfig())

	assert.Len(t, m.panes, 3)
	assert.Equal(t, 80, m.width)
	assert.Equal(t, 24, m.height)
	assert.Equal(t, "localhost:9100", m.metricsAddr)
	for _, p := range m.panes {
		assert.Equal(t, watch.StateNew, p.state)
		require.NotNil(t, p.stats)
	}
}

func TestModel_Init(t *testing.T) {
	assert.NotNil(t, New(testConfig()).Init())
}

// =============================================================================
// Tests: Update - Key Messages
// =============================================================================

func TestModel_Update_QuitKeys(t *testing.T) {
	tests := []struct {
		key      string
		wantQuit bool
	}{
		{"q", true},
		{"ctrl+c", true},
		{"esc", true},
		{"d", false},
		{"j", false},
		{"x", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			next, cmd := New(testConfig()).Update(keyMsg(tt.key))
			m := next.(Model)

			assert.Equal(t, tt.wantQuit, m.quitting)
			if tt.wantQuit {
				assert.NotNil(t, cmd, "expected tea.Quit cmd")
				assert.Empty(t, m.View())
			}
		})
	}
}

func TestModel_Update_ToggleDetailedView(t *testing.T) {
	m := New(testConfig())
	assert.False(t, m.detailedView)

	m = update(t, m, keyMsg("d"))
	assert.True(t, m.detailedView)

	m = update(t, m, keyMsg("d"))
	assert.False(t, m.detailedView)
}

func TestModel_Update_Focus(t *testing.T) {
	m := New(testConfig())
	assert.Equal(t, 0, m.Focus())

	m = update(t, m, keyMsg("k"))
	assert.Equal(t, 0, m.Focus(), "focus stays on first pane")

	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg("down"))
	assert.Equal(t, 2, m.Focus())

	m = update(t, m, keyMsg("j"))
	assert.Equal(t, 2, m.Focus(), "focus stays on last pane")

	m = update(t, m, keyMsg("up"))
	assert.Equal(t, 1, m.Focus())
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestModel_Update_Tick(t *testing.T) {
	now := time.Now()
	next, cmd := New(testConfig()).Update(TickMsg(now))
	assert.Equal(t, now, next.(Model).lastUpdate)
	assert.NotNil(t, cmd, "tick re-arms itself")
}

func TestModel_Update_QuitMsg(t *testing.T) {
	next, cmd := New(testConfig()).Update(QuitMsg{})
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
}

// =============================================================================
// Tests: Update - Watch Messages
// =============================================================================

func TestModel_Update_WatchLifecycle(t *testing.T) {
	m := New(testConfig())

	m = update(t, m, WatchStartedMsg{ID: 1})
	assert.Equal(t, watch.StateRunning, m.panes[1].state)
	assert.Equal(t, 1, m.panes[1].runs)
	assert.Equal(t, 1, m.Running())

	start := time.Unix(100, 0)
	m = update(t, m, WatchFinishedMsg{ID: 1, Result: process.Result{
		Output:     "a b c\n",
		ExitCode:   0,
		StartedAt:  start,
		FinishedAt: start.Add(20 * time.Millisecond),
	}})
	assert.Equal(t, watch.StateFinished, m.panes[1].state)
	assert.Equal(t, "a b c\n", m.panes[1].last.Output)
	assert.Equal(t, 0, m.Running())

	sums := summaries(m)
	require.Len(t, sums, 3)
	assert.Equal(t, int64(1), sums[1].Runs)
	assert.Equal(t, "echo 'a b' c", sums[1].Title)
	assert.Equal(t, int64(0), sums[0].Runs)
}

func TestModel_Update_UnknownWatchIgnored(t *testing.T) {
	m := New(testConfig())
	m = update(t, m, WatchStartedMsg{ID: 99})
	m = update(t, m, WatchFinishedMsg{ID: 99, Result: process.Result{ExitCode: 1}})
	assert.Equal(t, 0, m.Running())
	for _, s := range summaries(m) {
		assert.Equal(t, int64(0), s.Runs)
	}
}

func TestModel_Update_Redraw(t *testing.T) {
	next, cmd := New(testConfig()).Update(RedrawMsg{})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).lastUpdate.IsZero())
}

// =============================================================================
// Tests: View
// =============================================================================

func TestModel_View_Panes(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, WatchStartedMsg{ID: 0})
	m = update(t, m, WatchFinishedMsg{ID: 0, Result: process.Result{Output: "Mon Oct 12\n", ExitCode: 0}})
	m = update(t, m, WatchStartedMsg{ID: 1})
	m = update(t, m, WatchFinishedMsg{ID: 1, Result: process.Result{Output: "boom", ExitCode: 3}})

	view := m.View()
	assert.Contains(t, view, "multiwatch")
	assert.Contains(t, view, "Watches: 3")
	assert.Contains(t, view, "Mon Oct 12")
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "Exitcode: 3")
	assert.Contains(t, view, "Every: 5s")
	assert.Contains(t, view, "Every: 2.5s")
	assert.Contains(t, view, "Every: n/a")
	assert.Contains(t, view, "Status: new")
	assert.Contains(t, view, "Metrics: http://localhost:9100/metrics")
}

func TestModel_View_Failure(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, WatchFinishedMsg{ID: 2, Result: process.Result{
		ExitCode: -1,
		Err:      process.ErrSpawnFailure,
	}})

	view := m.View()
	assert.Contains(t, view, "Status: ERR")
	assert.Contains(t, view, process.ErrSpawnFailure.Error())
}

func TestModel_View_OutputClippedToPane(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 80, Height: 20})
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "line")
	}
	m = update(t, m, WatchFinishedMsg{ID: 0, Result: process.Result{Output: strings.Join(lines, "\n")}})

	view := m.View()
	assert.Less(t, strings.Count(view, "line"), 10)
}

func TestModel_View_Detailed(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 120, Height: 40})
	start := time.Unix(100, 0)
	m = update(t, m, WatchFinishedMsg{ID: 0, Result: process.Result{
		StartedAt:  start,
		FinishedAt: start.Add(40 * time.Millisecond),
	}})
	m = update(t, m, keyMsg("d"))

	view := m.View()
	assert.Contains(t, view, "Run Statistics")
	assert.Contains(t, view, "P95")
	assert.Contains(t, view, "40 ms")
	assert.Contains(t, view, "Clean runs")
}

func TestModel_View_NoWatches(t *testing.T) {
	m := New(Config{})
	assert.Contains(t, m.View(), "No watches configured")
	m = update(t, m, keyMsg("d"))
	assert.Contains(t, m.View(), "No watches configured")
}

func TestModel_OutputLines(t *testing.T) {
	m := update(t, New(testConfig()), tea.WindowSizeMsg{Width: 80, Height: 32})
	assert.Equal(t, 7, m.outputLines())

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 5})
	assert.Equal(t, 1, m.outputLines())
}
