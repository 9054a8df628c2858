// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRunsTotal tracks pipeline runs by status
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// PipelineRunDuration tracks pipeline run duration in seconds
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// MatchResultsTotal tracks match outcomes by method
	MatchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "results_total",
			Help:      "Total number of uploaded records resolved, by match method",
		},
		[]string{"method"},
	)

	// MatchAmbiguitiesTotal tracks tie-break resolutions
	MatchAmbiguitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "ambiguities_total",
			Help:      "Total number of matches that needed the revenue/ingestion tie-break",
		},
		[]string{"method"},
	)

	// EnrichmentRequestsTotal tracks lookup requests by outcome
	EnrichmentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "enrichment",
			Name:      "requests_total",
			Help:      "Total number of enrichment lookups by outcome",
		},
		[]string{"outcome"},
	)

	// EnrichmentRequestDuration tracks lookup request duration
	EnrichmentRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "enrichment",
			Name:      "request_duration_seconds",
			Help:      "Duration of enrichment lookups in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// RegistryRecords tracks the size of the active registry snapshot
	RegistryRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "registry",
			Name:      "records",
			Help:      "Number of records in the active registry snapshot",
		},
	)

	// RegistryRefreshesTotal tracks snapshot refreshes by status
	RegistryRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "registry",
			Name:      "refreshes_total",
			Help:      "Total number of registry snapshot refreshes by status",
		},
		[]string{"status"},
	)

	// DedupeDroppedTotal tracks records dropped per dedupe pass
	DedupeDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "dedupe",
			Name:      "dropped_total",
			Help:      "Total number of records dropped by deduplication, by pass",
		},
		[]string{"pass"},
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
)

// RecordPipelineRun records a pipeline run metric
func RecordPipelineRun(status string, durationSeconds float64) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(durationSeconds)
}

// RecordMatch records one match outcome
func RecordMatch(method string) {
	MatchResultsTotal.WithLabelValues(method).Inc()
}

// RecordAmbiguity records a tie-break resolution
func RecordAmbiguity(method string) {
	MatchAmbiguitiesTotal.WithLabelValues(method).Inc()
}

// RecordEnrichment records one enrichment lookup
func RecordEnrichment(outcome string, durationSeconds float64) {
	EnrichmentRequestsTotal.WithLabelValues(outcome).Inc()
	EnrichmentRequestDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an outbound HTTP request metric
func RecordHTTPRequest(method, statusCode string) {
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
}

// RecordRegistryRefresh records a snapshot refresh and, on success, its size
func RecordRegistryRefresh(status string, records int) {
	RegistryRefreshesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		RegistryRecords.Set(float64(records))
	}
}

// RecordDedupe records records dropped by one dedupe pass
func RecordDedupe(pass string, dropped int) {
	if dropped > 0 {
		DedupeDroppedTotal.WithLabelValues(pass).Add(float64(dropped))
	}
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
