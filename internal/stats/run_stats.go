// Package stats tracks per-watch run statistics and formats the exit summary.
package stats

import (
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/multiwatch/internal/process"
)

// digestCompression bounds the centroids kept per watch (~100, ~10KB).
const digestCompression = 100

// RunStats accumulates the results of one watch.
// It is not safe for concurrent use; the owner serialises access.
type RunStats struct {
	Title string

	Runs      int64
	Failures  int64 // runs that ended with a failure kind
	NonZero   int64 // runs that exited with a non-zero code
	LastExit  int
	LastKind  process.Kind
	LastRunAt time.Time

	FailuresByKind map[process.Kind]int64

	samples     int64
	maxDuration time.Duration
	durations   *tdigest.TDigest
}

// NewRunStats creates empty stats for a watch.
func NewRunStats(title string) *RunStats {
	return &RunStats{
		Title:          title,
		FailuresByKind: make(map[process.Kind]int64),
		durations:      tdigest.NewWithCompression(digestCompression),
	}
}

// Record adds a finished run.
func (s *RunStats) Record(r process.Result) {
	s.Runs++
	s.LastExit = r.ExitCode
	s.LastKind = r.Kind()
	s.LastRunAt = r.FinishedAt

	if r.Failed() {
		s.Failures++
		s.FailuresByKind[r.Kind()]++
	} else if r.ExitCode != 0 {
		s.NonZero++
	}

	if d := r.Duration(); d > 0 {
		s.durations.Add(float64(d.Nanoseconds()), 1)
		s.samples++
		if d > s.maxDuration {
			s.maxDuration = d
		}
	}
}

// DurationQuantile returns the q-th quantile (0..1) of run durations,
// or 0 with no samples.
func (s *RunStats) DurationQuantile(q float64) time.Duration {
	if s.samples == 0 {
		return 0
	}
	return time.Duration(s.durations.Quantile(q))
}

// MaxDuration returns the longest run seen.
func (s *RunStats) MaxDuration() time.Duration {
	return s.maxDuration
}

// SuccessRate returns the fraction of runs that exited 0 without failure.
func (s *RunStats) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Runs-s.Failures-s.NonZero) / float64(s.Runs)
}

// Summary is an immutable copy of RunStats for display.
type Summary struct {
	Title       string
	Runs        int64
	Failures    int64
	NonZero     int64
	LastExit    int
	LastKind    process.Kind
	SuccessRate float64
	P50         time.Duration
	P95         time.Duration
	Max         time.Duration
}

// Summary snapshots the stats.
func (s *RunStats) Summary() Summary {
	return Summary{
		Title:       s.Title,
		Runs:        s.Runs,
		Failures:    s.Failures,
		NonZero:     s.NonZero,
		LastExit:    s.LastExit,
		LastKind:    s.LastKind,
		SuccessRate: s.SuccessRate(),
		P50:         s.DurationQuantile(0.50),
		P95:         s.DurationQuantile(0.95),
		Max:         s.maxDuration,
	}
}
