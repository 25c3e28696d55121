package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session workers
	SessionWorkerTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_tracker_session_worker_total",
		Help: "Number of running per-session polling workers",
	})

	TickDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_tracker_tick_dropped_total",
		Help: "Timer ticks dropped because a cycle was still in flight",
	})

	// Reconciliation
	ReconcilePassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracker_reconcile_pass_total",
		Help: "Reconciliation passes by outcome",
	}, []string{"status"})

	OrdersHealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_tracker_orders_healed_total",
		Help: "Orders advanced from paid to picked_up",
	})

	HealWriteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracker_heal_write_total",
		Help: "Individual heal writes by outcome",
	}, []string{"status"})

	ReconcilePassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_tracker_reconcile_pass_duration_seconds",
		Help:    "Duration of one fetch+reconcile+derive cycle",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	// Store access
	SnapshotFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracker_snapshot_fetch_total",
		Help: "Buyer snapshot fetches by outcome",
	}, []string{"status"})

	// View
	ViewRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_tracker_view_refresh_total",
		Help: "View refreshes by trigger and outcome",
	}, []string{"trigger", "status"})

	// System
	SystemUptime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_tracker_system_uptime_seconds",
		Help: "Process uptime in seconds",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_tracker_system_goroutines",
		Help: "Current goroutine count",
	})

	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_tracker_system_memory_usage_bytes",
		Help: "Currently allocated heap bytes",
	})
)

// UpdateSessionWorkerTotal sets the running worker gauge.
func UpdateSessionWorkerTotal(total int) {
	SessionWorkerTotal.Set(float64(total))
}

// RecordTickDropped counts a timer tick dropped by the one-in-flight rule.
func RecordTickDropped() {
	TickDroppedTotal.Inc()
}

// RecordReconcilePass records one completed pass.
func RecordReconcilePass(status string, healed int, durationSeconds float64) {
	ReconcilePassTotal.WithLabelValues(status).Inc()
	OrdersHealedTotal.Add(float64(healed))
	ReconcilePassDuration.Observe(durationSeconds)
}

// RecordHealWrite records one heal write outcome.
func RecordHealWrite(status string) {
	HealWriteTotal.WithLabelValues(status).Inc()
}

// RecordSnapshotFetch records one snapshot fetch outcome.
func RecordSnapshotFetch(status string) {
	SnapshotFetchTotal.WithLabelValues(status).Inc()
}

// RecordViewRefresh records one view refresh by trigger (tick/manual).
func RecordViewRefresh(trigger, status string) {
	ViewRefreshTotal.WithLabelValues(trigger, status).Inc()
}

// UpdateSystemMetrics refreshes the runtime gauges.
func UpdateSystemMetrics(uptime float64, goroutines int, memoryUsage uint64) {
	SystemUptime.Set(uptime)
	SystemGoroutines.Set(float64(goroutines))
	SystemMemoryUsage.Set(float64(memoryUsage))
}
