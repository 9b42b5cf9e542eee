// Package metrics exposes Prometheus metrics about analyzer runs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/parsers"
	"github.com/user/secmerge/pkg/runner"
)

const namespace = "secmerge"

// Outcome labels for tool runs.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeParseError  = "parse_error"
	OutcomeFailed      = "failed"
)

// Collector records tool runs and merged findings on a private registry. It
// implements engine.Observer.
type Collector struct {
	registry *prometheus.Registry

	toolRuns     *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	toolRows     *prometheus.CounterVec
	findings     *prometheus.CounterVec
	scans        prometheus.Counter
}

var _ engine.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		toolRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_runs_total",
				Help:      "Analyzer runs by outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Wall time of analyzer runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"tool"},
		),
		toolRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_rows_total",
				Help:      "Rows parsed from analyzer output before merging",
			},
			[]string{"tool"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Findings kept in merged reports",
			},
			[]string{"tool"},
		),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Merged reports produced",
		}),
	}
	c.registry.MustRegister(c.toolRuns, c.toolDuration, c.toolRows, c.findings, c.scans)
	return c
}

func (c *Collector) ToolFinished(tool string, rows int, elapsed time.Duration, err error) {
	c.toolRuns.WithLabelValues(tool, Outcome(err)).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
	if err == nil {
		c.toolRows.WithLabelValues(tool).Add(float64(rows))
	}
}

// ReportMerged counts the findings each tool contributed to r.
func (c *Collector) ReportMerged(r engine.Report) {
	c.scans.Inc()
	for tool, n := range r.CountByTool() {
		c.findings.WithLabelValues(tool).Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Outcome classifies a tool error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, runner.ErrToolUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, runner.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, parsers.ErrParse):
		return OutcomeParseError
	}
	return OutcomeFailed
}
