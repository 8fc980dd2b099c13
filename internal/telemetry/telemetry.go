// Package telemetry keeps per-process run counters and writes them in the
// Prometheus text format for node_exporter's textfile collector.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

type Metrics struct {
	registry         *prometheus.Registry
	runs             *prometheus.CounterVec
	executions       prometheus.Counter
	matchedTrades    prometheus.Counter
	externalFailures *prometheus.CounterVec
	riskScore        *prometheus.GaugeVec
	runDuration      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"status"}, // ok|invalid|error
		),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_executions_total",
			Help: "Executions read across all runs",
		}),
		matchedTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_matched_trades_total",
			Help: "Round trips produced by the trade pairer",
		}),
		externalFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_external_failures_total",
				Help: "Failed calls to external collaborators",
			},
			[]string{"collector"}, // trend|narrative
		),
		riskScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analyzer_risk_score",
				Help: "Latest risk score per trader",
			},
			[]string{"trader"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_run_duration_seconds",
			Help:    "Wall time of one analysis run",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
	m.registry.MustRegister(m.runs, m.executions, m.matchedTrades, m.externalFailures, m.riskScore, m.runDuration)
	return m
}

// The recording methods accept a nil receiver so callers can run without telemetry.

func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) Volume(executions, trades int) {
	if m == nil {
		return
	}
	m.executions.Add(float64(executions))
	m.matchedTrades.Add(float64(trades))
}

func (m *Metrics) ExternalFailures(collector string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.externalFailures.WithLabelValues(collector).Add(float64(n))
}

func (m *Metrics) RiskScore(trader string, score float64) {
	if m == nil {
		return
	}
	m.riskScore.WithLabelValues(trader).Set(score)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically replaces path with the current metric values.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
