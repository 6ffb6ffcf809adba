// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal tracks decisions by disposition
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "reconcile",
			Name:      "decisions_total",
			Help:      "Total number of match decisions by disposition",
		},
		[]string{"tenant_id", "disposition"},
	)

	// BatchDuration tracks reconciliation batch duration in seconds
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "reconcile",
			Name:      "batch_duration_seconds",
			Help:      "Duration of reconciliation batches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"tenant_id"},
	)

	// BatchRecordsTotal tracks records processed by outcome
	BatchRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "reconcile",
			Name:      "records_total",
			Help:      "Total number of batch records by outcome",
		},
		[]string{"tenant_id", "outcome"},
	)

	// CandidatesPerRecord tracks how many registry persons each lookup returned
	CandidatesPerRecord = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "reconcile",
			Name:      "candidates_per_record",
			Help:      "Number of candidate persons scored per record",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordBatch records a completed reconciliation batch
func RecordBatch(tenantID string, durationSeconds float64) {
	BatchDuration.WithLabelValues(tenantID).Observe(durationSeconds)
}

// RecordDecision records a routed decision
func RecordDecision(tenantID, disposition string) {
	DecisionsTotal.WithLabelValues(tenantID, disposition).Inc()
}

// RecordRecordOutcome records a per-record batch outcome
func RecordRecordOutcome(tenantID, outcome string) {
	BatchRecordsTotal.WithLabelValues(tenantID, outcome).Inc()
}
