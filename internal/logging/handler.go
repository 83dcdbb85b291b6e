package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// MaxOutputLength is the longest output excerpt attached to a log record.
const MaxOutputLength = 512

// Sink logs watch state changes.
type Sink struct {
	logger *slog.Logger
}

// NewSink creates a Sink writing to logger.
func NewSink(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

// WatchStarted logs at debug; starts are frequent and carry no news.
func (s *Sink) WatchStarted(w *watch.Watch) {
	s.logger.Debug("watch_running",
		"watch_id", w.ID(),
		"title", w.Title(),
		"run", w.Runs(),
	)
}

// WatchFinished logs each completed run at a level matching its outcome.
func (s *Sink) WatchFinished(w *watch.Watch, r process.Result) {
	attrs := []any{
		"watch_id", w.ID(),
		"title", w.Title(),
		"run_id", r.RunID,
		"duration", r.Duration().String(),
	}
	if r.Failed() {
		attrs = append(attrs, "kind", r.Kind().String(), "error", r.Err)
	} else {
		attrs = append(attrs, "exit_code", r.ExitCode, "output", excerpt(r.Output))
	}

	s.logger.Log(context.Background(), classifyResult(r), "watch_finished", attrs...)
}

// classifyResult determines the log level for a finished run.
func classifyResult(r process.Result) slog.Level {
	switch {
	case r.Failed():
		return slog.LevelError
	case r.ExitCode != 0:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// excerpt trims output for a single log attribute.
func excerpt(output string) string {
	output = strings.TrimRight(output, "\n")
	if len(output) > MaxOutputLength {
		cut := MaxOutputLength
		for cut > 0 && !isRuneStart(output[cut]) {
			cut--
		}
		return output[:cut] + "...(truncated)"
	}
	return output
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
