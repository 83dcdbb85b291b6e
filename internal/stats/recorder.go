package stats

import (
	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// Recorder is a watch.Sink that keeps RunStats per watch.
//
// It is updated on the loop goroutine. Read Summaries only after the loop
// has stopped.
type Recorder struct {
	byID map[int]*RunStats
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{byID: make(map[int]*RunStats)}
}

// WatchStarted implements watch.Sink.
func (r *Recorder) WatchStarted(*watch.Watch) {}

// WatchFinished implements watch.Sink.
func (r *Recorder) WatchFinished(w *watch.Watch, result process.Result) {
	s, ok := r.byID[w.ID()]
	if !ok {
		s = NewRunStats(w.Title())
		r.byID[w.ID()] = s
	}
	s.Record(result)
}

// Summaries returns one summary per watch, in the order given. Watches that
// never finished a run get an empty summary.
func (r *Recorder) Summaries(watches []*watch.Watch) []Summary {
	out := make([]Summary, 0, len(watches))
	for _, w := range watches {
		s, ok := r.byID[w.ID()]
		if !ok {
			s = NewRunStats(w.Title())
		}
		out = append(out, s.Summary())
	}
	return out
}
