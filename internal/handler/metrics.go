package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	returnsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "http",
			Name:      "returns_processed_total",
			Help:      "Total number of processed returns, by kind (full/partial)",
		},
		[]string{"kind"},
	)

	labelsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "http",
			Name:      "labels_uploaded_total",
			Help:      "Total number of accepted shipping label uploads",
		},
	)

	labelUploadWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "http",
			Name:      "label_upload_warnings_total",
			Help:      "Label uploads whose bookkeeping failed after file acceptance",
		},
	)

	notificationsDerived = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fulfillment_service",
			Subsystem: "http",
			Name:      "notifications_derived",
			Help:      "Distribution of feed sizes per derivation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

var (
	ordersIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_ingested_total",
			Help:      "Total number of successfully ingested marketplace orders",
		},
	)

	ordersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_failed_total",
			Help:      "Total number of failed order ingestion attempts",
		},
	)

	ordersDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment_service",
			Subsystem: "kafka_consumer",
			Name:      "orders_dlq_total",
			Help:      "Total number of orders written to DLQ",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		returnsProcessed,
		labelsUploaded,
		labelUploadWarnings,
		notificationsDerived,

		ordersIngested,
		ordersFailed,
		ordersDLQ,
	)
}
