package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/stats"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge turns watch notifications into Bubble Tea messages. It is a
// watch.Sink and a watch.Redrawer; the model owns all display state.
type Bridge struct {
	sender Sender
}

// NewBridge creates a Bridge sending to s. s may be nil and attached later.
func NewBridge(s Sender) *Bridge {
	return &Bridge{sender: s}
}

// Attach sets the destination. The program needs the watches and the
// watches need the bridge, so the program is attached once both exist.
// Must be called before the loop starts.
func (b *Bridge) Attach(s Sender) {
	b.sender = s
}

// WatchStarted implements watch.Sink.
func (b *Bridge) WatchStarted(w *watch.Watch) {
	b.send(WatchStartedMsg{ID: w.ID()})
}

// WatchFinished implements watch.Sink.
func (b *Bridge) WatchFinished(w *watch.Watch, result process.Result) {
	b.send(WatchFinishedMsg{ID: w.ID(), Result: result})
}

// Redraw implements watch.Redrawer.
func (b *Bridge) Redraw() {
	b.send(RedrawMsg{})
}

func (b *Bridge) send(msg tea.Msg) {
	if b.sender != nil {
		b.sender.Send(msg)
	}
}

// =============================================================================
// Plain output
// =============================================================================

// Plain prints a pane to a writer every time a watch finishes. It is used
// when the dashboard is disabled. Not safe for concurrent use; call it from
// the loop goroutine only.
type Plain struct {
	out   io.Writer
	width int
	panes map[int]*pane
}

// NewPlain creates a Plain sink rendering panes width columns wide.
func NewPlain(out io.Writer, width int) *Plain {
	return &Plain{out: out, width: width, panes: make(map[int]*pane)}
}

func (p *Plain) pane(w *watch.Watch) *pane {
	pn, ok := p.panes[w.ID()]
	if !ok {
		pn = &pane{
			PaneInfo: PaneInfoFor(w),
			state:    watch.StateNew,
			stats:    stats.NewRunStats(w.Title()),
		}
		p.panes[w.ID()] = pn
	}
	return pn
}

// WatchStarted implements watch.Sink.
func (p *Plain) WatchStarted(w *watch.Watch) {
	pn := p.pane(w)
	pn.state = watch.StateRunning
	pn.runs++
}

// WatchFinished implements watch.Sink.
func (p *Plain) WatchFinished(w *watch.Watch, result process.Result) {
	pn := p.pane(w)
	pn.state = watch.StateFinished
	pn.last = result
	pn.stats.Record(result)

	fmt.Fprintln(p.out, renderPane(*pn, p.width, 0, false))
}
