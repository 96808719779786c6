// Package telemetry exposes solver health as Prometheus metrics. The
// solve itself stays synchronous and stateless; the collector only
// observes outcomes.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments of the rating pipeline.
type Collector struct {
	SolveDuration *prometheus.HistogramVec
	SolvesTotal   *prometheus.CounterVec
	Warnings      *prometheus.CounterVec
	LambdaRetries prometheus.Counter
	TeamsRated    prometheus.Gauge
}

// NewCollector creates the instrument set and registers it with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		SolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "powerrank_solve_duration_seconds",
				Help:    "Duration of one rating solve in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"outcome"},
		),
		SolvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerrank_solves_total",
				Help: "Total rating solves by outcome",
			},
			[]string{"outcome"},
		),
		Warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerrank_validation_warnings_total",
				Help: "Validation warnings by check name",
			},
			[]string{"check"},
		),
		LambdaRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "powerrank_lambda_escalations_total",
				Help: "Conditioning-driven lambda escalations across all solves",
			},
		),
		TeamsRated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "powerrank_teams_rated",
				Help: "Team count of the most recent solve",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(c.SolveDuration, c.SolvesTotal, c.Warnings, c.LambdaRetries, c.TeamsRated)
	}
	return c
}

// ObserveSolve records one completed solve attempt.
func (c *Collector) ObserveSolve(outcome string, elapsed time.Duration, retries, teams int, warnChecks []string) {
	c.SolveDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	c.SolvesTotal.WithLabelValues(outcome).Inc()
	c.LambdaRetries.Add(float64(retries))
	if teams > 0 {
		c.TeamsRated.Set(float64(teams))
	}
	for _, check := range warnChecks {
		c.Warnings.WithLabelValues(check).Inc()
	}
}
