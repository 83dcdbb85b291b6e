package watch

import "github.com/randomizedcoder/multiwatch/internal/process"

// Sink observes watch state changes. Methods are called on the loop
// goroutine and must not block on rendering.
type Sink interface {
	WatchStarted(w *Watch)
	WatchFinished(w *Watch, result process.Result)
}

// Redrawer asks the display to repaint. Fire-and-forget.
type Redrawer interface {
	Redraw()
}

// RedrawFunc adapts a function to Redrawer.
type RedrawFunc func()

func (f RedrawFunc) Redraw() { f() }

// Sinks fans notifications out to several sinks in order.
type Sinks []Sink

func (s Sinks) WatchStarted(w *Watch) {
	for _, sink := range s {
		sink.WatchStarted(w)
	}
}

func (s Sinks) WatchFinished(w *Watch, result process.Result) {
	for _, sink := range s {
		sink.WatchFinished(w, result)
	}
}

type nopSink struct{}

func (nopSink) WatchStarted(*Watch) {}
func (nopSink) WatchFinished(*Watch, process.Result) {}
