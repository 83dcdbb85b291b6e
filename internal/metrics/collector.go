// Package metrics provides Prometheus metrics for multiwatch.
//
// Every per-watch series carries the watch's position in the configuration
// as "id" and its title as "watch". Titles may repeat; ids never do.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// runDurationBuckets spans 5ms to ~40s.
var runDurationBuckets = prometheus.ExponentialBuckets(0.005, 2, 14)

// Collector records watch runs as Prometheus series. It implements
// watch.Sink.
type Collector struct {
	info          *prometheus.GaugeVec
	watches       prometheus.Gauge
	runsTotal     *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	lastExitCode  *prometheus.GaugeVec
	running       *prometheus.GaugeVec
	runDuration   *prometheus.HistogramVec
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version string
	Watches int
}

// NewCollector creates a collector registered with the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "multiwatch_info",
				Help: "Information about the multiwatch process (value always 1)",
			},
			[]string{"version"},
		),
		watches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "multiwatch_watches",
				Help: "Number of configured watches",
			},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multiwatch_runs_total",
				Help: "Finished runs per watch, successful or not",
			},
			[]string{"id", "watch"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multiwatch_run_failures_total",
				Help: "Runs that produced no exit code, by failure kind",
			},
			[]string{"id", "watch", "kind"},
		),
		lastExitCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "multiwatch_last_exit_code",
				Help: "Exit code of the most recent run that exited normally",
			},
			[]string{"id", "watch"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "multiwatch_running",
				Help: "1 while the watch's command is running",
			},
			[]string{"id", "watch"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "multiwatch_run_duration_seconds",
				Help:    "Wall-clock duration of finished runs",
				Buckets: runDurationBuckets,
			},
			[]string{"id", "watch"},
		),
	}

	registry.MustRegister(
		c.info,
		c.watches,
		c.runsTotal,
		c.failuresTotal,
		c.lastExitCode,
		c.running,
		c.runDuration,
	)

	c.info.WithLabelValues(cfg.Version).Set(1)
	c.watches.Set(float64(cfg.Watches))

	return c
}

// =============================================================================
// watch.Sink
// =============================================================================

// WatchStarted marks the watch as running.
func (c *Collector) WatchStarted(w *watch.Watch) {
	c.running.WithLabelValues(watchLabels(w)...).Set(1)
}

// WatchFinished records a finished run.
func (c *Collector) WatchFinished(w *watch.Watch, result process.Result) {
	labels := watchLabels(w)

	c.running.WithLabelValues(labels...).Set(0)
	c.runsTotal.WithLabelValues(labels...).Inc()

	if result.Failed() {
		c.failuresTotal.WithLabelValues(append(labels, result.Kind().String())...).Inc()
	} else {
		c.lastExitCode.WithLabelValues(labels...).Set(float64(result.ExitCode))
	}

	if d := result.Duration(); d > 0 {
		c.runDuration.WithLabelValues(labels...).Observe(d.Seconds())
	}
}

// watchLabels returns the id and watch label values of w.
func watchLabels(w *watch.Watch) []string {
	return []string{strconv.Itoa(w.ID()), w.Title()}
}
