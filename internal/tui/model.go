package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/stats"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the elapsed time.
type TickMsg time.Time

// WatchStartedMsg reports that a watch's command has started.
type WatchStartedMsg struct {
	ID int
}

// WatchFinishedMsg carries the result of a finished run.
type WatchFinishedMsg struct {
	ID     int
	Result process.Result
}

// RedrawMsg asks for a repaint.
type RedrawMsg struct{}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// PaneInfo is the static part of a pane.
type PaneInfo struct {
	ID     int
	Title  string
	Period string
}

// PaneInfoFor describes w.
func PaneInfoFor(w *watch.Watch) PaneInfo {
	return PaneInfo{ID: w.ID(), Title: w.Title(), Period: w.Period()}
}

type pane struct {
	PaneInfo
	state watch.State
	last  process.Result
	runs  int
	stats *stats.RunStats
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	metricsAddr string

	// Current state
	panes        []pane
	index        map[int]int // watch ID -> pane position
	focus        int
	startTime    time.Time
	lastUpdate   time.Time
	detailedView bool

	// Display options
	width  int
	height int

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Panes       []PaneInfo
	MetricsAddr string
}

// New creates a new TUI model.
func New(cfg Config) Model {
	m := Model{
		metricsAddr: cfg.MetricsAddr,
		panes:       make([]pane, 0, len(cfg.Panes)),
		index:       make(map[int]int, len(cfg.Panes)),
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		width:       80,
		height:      24,
	}
	for _, info := range cfg.Panes {
		m.index[info.ID] = len(m.panes)
		m.panes = append(m.panes, pane{
			PaneInfo: info,
			state:    watch.StateNew,
			stats:    stats.NewRunStats(info.Title),
		})
	}
	return m
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "d":
			m.detailedView = !m.detailedView
			return m, nil
		case "j", "down":
			if m.focus < len(m.panes)-1 {
				m.focus++
			}
			return m, nil
		case "k", "up":
			if m.focus > 0 {
				m.focus--
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.lastUpdate = time.Time(msg)
		return m, tickCmd()

	case WatchStartedMsg:
		if p := m.pane(msg.ID); p != nil {
			p.state = watch.StateRunning
			p.runs++
		}
		return m, nil

	case WatchFinishedMsg:
		if p := m.pane(msg.ID); p != nil {
			p.state = watch.StateFinished
			p.last = msg.Result
			p.stats.Record(msg.Result)
		}
		return m, nil

	case RedrawMsg:
		m.lastUpdate = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.detailedView {
		return m.renderDetailedView()
	}
	return m.renderSummaryView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after one second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

func (m Model) pane(id int) *pane {
	i, ok := m.index[id]
	if !ok {
		return nil
	}
	return &m.panes[i]
}

// Elapsed returns the time since the dashboard started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Focus returns the position of the focused pane.
func (m Model) Focus() int {
	return m.focus
}

// Running returns how many watches are currently running.
func (m Model) Running() int {
	n := 0
	for _, p := range m.panes {
		if p.state == watch.StateRunning {
			n++
		}
	}
	return n
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}
