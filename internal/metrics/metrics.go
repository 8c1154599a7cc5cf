package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "pausal_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	reviewCommitTotal   *prometheus.CounterVec
	reviewCommitItems   *prometheus.CounterVec
	reviewCommitLatency *prometheus.HistogramVec

	reviewItemsApplied prometheus.Counter

	posdStatsTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers the application metrics with the default registry.
// Observe functions are no-ops until Init has run.
func Init() {
	registerOnce.Do(func() {
		reviewCommitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "review_commit_total",
				Help: "Total review batch commits by mode and result",
			},
			[]string{"mode", "result"},
		)
		reviewCommitItems = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "review_commit_items_total",
				Help: "Total update items sent in review commits",
			},
			[]string{"mode", "result"},
		)
		reviewCommitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "review_commit_latency_seconds",
				Help:    "Review commit round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode", "result"},
		)
		reviewItemsApplied = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "review_items_applied_total",
				Help: "Review items that changed a stored transaction",
			},
		)
		posdStatsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "posd_stats_total",
				Help: "PO-SD stats computations by reconciliation status",
			},
			[]string{"status"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Ledger exports by result",
			},
			[]string{"result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Ledger export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			reviewCommitTotal,
			reviewCommitItems,
			reviewCommitLatency,
			reviewItemsApplied,
			posdStatsTotal,
			exportTotal,
			exportLatency,
		)
	})
}

// ObserveReviewCommit records one review batch commit
func ObserveReviewCommit(mode, result string, items int, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if reviewCommitTotal != nil {
		reviewCommitTotal.WithLabelValues(mode, result).Inc()
	}
	if reviewCommitItems != nil {
		reviewCommitItems.WithLabelValues(mode, result).Add(float64(items))
	}
	if reviewCommitLatency != nil {
		reviewCommitLatency.WithLabelValues(mode, result).Observe(duration.Seconds())
	}
}

// AddReviewItemsApplied counts stored transactions changed by a review request
func AddReviewItemsApplied(count int) {
	if count <= 0 {
		return
	}
	if reviewItemsApplied != nil {
		reviewItemsApplied.Add(float64(count))
	}
}

// IncPOSDStats counts a PO-SD stats computation
func IncPOSDStats(status string) {
	if status == "" {
		status = "unknown"
	}
	if posdStatsTotal != nil {
		posdStatsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveExport records ledger export duration and result
func ObserveExport(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}
