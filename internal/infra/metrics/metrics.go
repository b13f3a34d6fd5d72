package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks API calls per operation and HTTP status ("0" when no response)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_requests_total",
			Help: "Total number of OCR API requests",
		},
		[]string{"operation", "status"},
	)

	// RequestLatency tracks API call latency
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocrflow_request_latency_seconds",
			Help:    "OCR API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RetriesTotal tracks retry attempts per operation
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_retries_total",
			Help: "Total number of retried OCR API calls",
		},
		[]string{"operation"},
	)

	// PollsTotal tracks status observations by job status
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_polls_total",
			Help: "Total number of job status observations",
		},
		[]string{"status"},
	)

	// UploadPartsTotal tracks part uploads by result
	UploadPartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_upload_parts_total",
			Help: "Total number of uploaded parts",
		},
		[]string{"result"},
	)

	// UploadBytesTotal tracks bytes accepted by storage
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocrflow_upload_bytes_total",
			Help: "Total number of bytes uploaded",
		},
	)

	// JobsTotal tracks waited jobs by outcome
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_jobs_total",
			Help: "Total number of jobs waited on, by outcome",
		},
		[]string{"outcome"},
	)

	// JobWaitSeconds tracks time from first poll to terminal status
	JobWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ocrflow_job_wait_seconds",
			Help:    "Time spent waiting for jobs to reach a terminal status",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// BatchItemsTotal tracks batch items by outcome
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocrflow_batch_items_total",
			Help: "Total number of batch items processed, by outcome",
		},
		[]string{"outcome"},
	)

	// BatchInFlight tracks batch items currently running
	BatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ocrflow_batch_in_flight",
			Help: "Number of batch items currently running",
		},
	)
)
