// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scalp-engine/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trading metrics
	TradesRecorded     *prometheus.CounterVec
	AnomaliesDiscarded *prometheus.CounterVec
	CyclesSkipped      *prometheus.CounterVec
	ExitReasons        *prometheus.CounterVec
	OrdersSubmitted    *prometheus.CounterVec

	// Session metrics
	SessionsActive   prometheus.Gauge
	CumulativeNetPnl *prometheus.GaugeVec
	VaultedProfit    *prometheus.GaugeVec
	SessionHitRate   *prometheus.GaugeVec

	// Cooldown metrics
	SpeedMode       *prometheus.GaugeVec
	RollingHitRate  *prometheus.GaugeVec
	ModeTransitions prometheus.Counter

	// Audit metrics
	AuditReportsGenerated prometheus.Counter
	InvariantFailures     *prometheus.CounterVec

	// Latency metrics
	HoldDuration *prometheus.HistogramVec

	// Health metrics
	LastTradeRecorded prometheus.Gauge
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "scalp_engine"
	}

	return &Metrics{
		TradesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_recorded_total",
			Help:      "Total number of trades appended to the ledger",
		}, []string{"session", "symbol", "direction"}),
		AnomaliesDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "anomalies_discarded_total",
			Help:      "Total number of resolved cycles discarded instead of recorded",
		}, []string{"session", "exit_reason"}),
		CyclesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "cycles_skipped_total",
			Help:      "Total number of loop cycles skipped before entry",
		}, []string{"session", "reason"}),
		ExitReasons: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "exits_total",
			Help:      "Total number of position resolutions by exit reason",
		}, []string{"session", "exit_reason"}),
		OrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_submitted_total",
			Help:      "Total number of orders submitted to the execution service",
		}, []string{"session", "side"}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently running",
		}),
		CumulativeNetPnl: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "cumulative_net_pnl",
			Help:      "Cumulative net profit over all recorded trades",
		}, []string{"session"}),
		VaultedProfit: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "vaulted_profit",
			Help:      "Total profit segregated into the vault",
		}, []string{"session"}),
		SessionHitRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "hit_rate",
			Help:      "Lifetime hit rate of the session",
		}, []string{"session"}),

		SpeedMode: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cooldown",
			Name:      "speed_mode",
			Help:      "Current speed mode (0=SLOW, 1=NORMAL, 2=FAST)",
		}, []string{"session"}),
		RollingHitRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cooldown",
			Name:      "rolling_hit_rate",
			Help:      "Hit rate over the rolling outcome window",
		}, []string{"session"}),
		ModeTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cooldown",
			Name:      "mode_transitions_total",
			Help:      "Total number of speed mode transitions",
		}),

		AuditReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "reports_generated_total",
			Help:      "Total number of audit reports generated",
		}),
		InvariantFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "invariant_failures_total",
			Help:      "Total number of invariant check failures by invariant name",
		}, []string{"invariant"}),

		HoldDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "hold_duration_seconds",
			Help:      "Time from entry fill to resolution",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"session", "exit_reason"}),

		LastTradeRecorded: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_trade_recorded_timestamp",
			Help:      "Unix timestamp of the last recorded trade",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTrade records a ledger append.
func RecordTrade(session, symbol string, direction domain.Direction) {
	DefaultMetrics.TradesRecorded.WithLabelValues(session, symbol, string(direction)).Inc()
	DefaultMetrics.LastTradeRecorded.SetToCurrentTime()
}

// RecordAnomaly records a resolved cycle that was discarded.
func RecordAnomaly(session, exitReason string) {
	DefaultMetrics.AnomaliesDiscarded.WithLabelValues(session, exitReason).Inc()
}

// RecordSkip records a loop cycle skipped before entry.
func RecordSkip(session, reason string) {
	DefaultMetrics.CyclesSkipped.WithLabelValues(session, reason).Inc()
}

// RecordExit records a position resolution.
func RecordExit(session, exitReason string, holdSeconds float64) {
	DefaultMetrics.ExitReasons.WithLabelValues(session, exitReason).Inc()
	DefaultMetrics.HoldDuration.WithLabelValues(session, exitReason).Observe(holdSeconds)
}

// RecordOrder records an order submission.
func RecordOrder(session, side string) {
	DefaultMetrics.OrdersSubmitted.WithLabelValues(session, side).Inc()
}

// UpdateSessionGauges updates the per-session financial gauges.
func UpdateSessionGauges(session string, netPnl, vaulted, hitRate float64) {
	DefaultMetrics.CumulativeNetPnl.WithLabelValues(session).Set(netPnl)
	DefaultMetrics.VaultedProfit.WithLabelValues(session).Set(vaulted)
	DefaultMetrics.SessionHitRate.WithLabelValues(session).Set(hitRate)
}

// UpdateCooldownGauges updates the speed mode and rolling hit rate gauges.
func UpdateCooldownGauges(session string, mode domain.SpeedMode, rollingHitRate float64) {
	var v float64
	switch mode {
	case domain.SpeedModeNormal:
		v = 1
	case domain.SpeedModeFast:
		v = 2
	}
	DefaultMetrics.SpeedMode.WithLabelValues(session).Set(v)
	DefaultMetrics.RollingHitRate.WithLabelValues(session).Set(rollingHitRate)
}

// RecordModeTransition increments the transition counter.
func RecordModeTransition() {
	DefaultMetrics.ModeTransitions.Inc()
}

// RecordAuditReport records a generated report and its failures.
func RecordAuditReport(report *domain.AuditReport) {
	DefaultMetrics.AuditReportsGenerated.Inc()
	for _, r := range report.Failed() {
		DefaultMetrics.InvariantFailures.WithLabelValues(r.Name).Inc()
	}
}
