// Package perf emits structured performance events for data-access
// operations: one zerolog record and one Prometheus observation per
// operation, carrying the operation name, elapsed time, success flag, and a
// free-text detail string.
//
// Events are observational only; nothing in the data layer consults them for
// control flow. Detail strings must already be sanitized by the caller
// (see repo.SanitizeDSN) before they reach this package.
package perf

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of data-access operations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "success"},
	)

	opTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operations_total",
			Help: "Total number of data-access operations.",
		},
		[]string{"operation", "success"},
	)

	initOnce sync.Once
)

// Init registers the package collectors with the default Prometheus
// registry. It is idempotent and must be called explicitly during startup;
// no registration happens as an import side effect.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(opDuration, opTotal)
	})
}

// Emit records one performance event for operation, measured from start.
// Safe to call before Init; observations simply aren't exported until the
// collectors are registered.
func Emit(operation string, start time.Time, success bool, detail string) {
	elapsed := time.Since(start)
	label := "false"
	if success {
		label = "true"
	}
	opDuration.WithLabelValues(operation, label).Observe(elapsed.Seconds())
	opTotal.WithLabelValues(operation, label).Inc()

	ev := log.Info()
	if !success {
		ev = log.Warn()
	}
	ev.Str("operation", operation).
		Dur("duration", elapsed).
		Bool("success", success).
		Str("detail", detail).
		Msg("performance metric")
}
