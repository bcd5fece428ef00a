// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Monitor metrics
	MonitorRuns        prometheus.Counter
	PositionsMonitored prometheus.Counter
	PositionsClosed    *prometheus.CounterVec
	PositionsSkipped   prometheus.Counter
	PriceFetchErrors   prometheus.Counter
	OpenPositions      prometheus.Gauge

	// Gas tank metrics
	FeeDeductions  *prometheus.CounterVec
	FeesChargedUSD prometheus.Counter
}

// NewMetrics creates a Metrics instance backed by its own registry, so
// tests can build as many as they need.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "quantum_backend"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		MonitorRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "runs_total",
			Help:      "Total number of position monitor runs",
		}),
		PositionsMonitored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "positions_monitored_total",
			Help:      "Total number of open positions examined",
		}),
		PositionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed, by reason",
		}, []string{"reason"}),
		PositionsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "positions_skipped_total",
			Help:      "Positions skipped due to missing prices or lost write races",
		}),
		PriceFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "price_fetch_errors_total",
			Help:      "Total number of failed symbol price fetches",
		}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "open_positions",
			Help:      "Open positions observed by the most recent monitor run",
		}),

		FeeDeductions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gas_tank",
			Name:      "fee_deductions_total",
			Help:      "Fee deduction requests, by outcome (charged|skipped)",
		}, []string{"outcome"}),
		FeesChargedUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gas_tank",
			Name:      "fees_charged_usd_total",
			Help:      "Cumulative performance fees charged, in USD",
		}),
	}
}

// Handler serves the metrics registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
