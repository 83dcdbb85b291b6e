package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/randomizedcoder/multiwatch/internal/process"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Duration is the total session duration
	Duration time.Duration

	// MetricsAddr is the Prometheus metrics endpoint address, if enabled
	MetricsAddr string
}

// FormatExitSummary formats per-watch stats for display at program exit.
func FormatExitSummary(watches []Summary, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                           multiwatch Exit Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	fmt.Fprintf(&b, "Session Duration:       %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Watches:                %d\n\n", len(watches))

	if len(watches) > 0 {
		fmt.Fprintf(&b, "%-32s %6s %6s %6s %8s %10s %10s\n",
			"Watch", "Runs", "Fail", "Exit≠0", "Last", "P50", "P95")
		b.WriteString(strings.Repeat("─", 84) + "\n")
		for _, w := range watches {
			fmt.Fprintf(&b, "%-32s %6d %6d %6d %8s %10s %10s\n",
				truncate(w.Title, 32),
				w.Runs,
				w.Failures,
				w.NonZero,
				lastLabel(w),
				FormatMs(w.P50),
				FormatMs(w.P95),
			)
		}
		b.WriteString("\n")
	}

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics were served at http://%s/metrics\n", cfg.MetricsAddr)
	}

	return b.String()
}

// lastLabel renders the outcome of the last run.
func lastLabel(w Summary) string {
	switch {
	case w.Runs == 0:
		return "n/a"
	case w.LastKind != process.KindNone:
		return kindLabel(w.LastKind)
	default:
		return fmt.Sprintf("%d", w.LastExit)
	}
}

// kindLabel is a short column-width name for a failure kind.
func kindLabel(k process.Kind) string {
	switch k {
	case process.KindSpawnFailure:
		return "spawn"
	case process.KindOutputDecodeFailure:
		return "decode"
	case process.KindAbnormalTermination:
		return "signal"
	default:
		return k.String()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
