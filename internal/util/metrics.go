package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total number of analytics pipeline runs started",
	})

	PipelineRunsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_failed_total",
		Help: "Total number of analytics pipeline runs that aborted",
	}, []string{"reason"})

	PipelineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "End-to-end duration of analytics pipeline runs",
		Buckets: prometheus.DefBuckets,
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of individual pipeline stages",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	DuplicateRowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_duplicate_rows_dropped_total",
		Help: "Rows dropped during reconciliation because their key was already seen",
	}, []string{"dataset"})

	JoinMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_join_misses_total",
		Help: "Orders dropped at enrichment because their customer_id is unknown",
	})

	ExplodedRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_exploded_rows_total",
		Help: "Per-industry rows produced by exploding customer industries",
	})

	ReportRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_report_rows",
		Help: "Number of industries in the most recent fluctuation report",
	})

	FeedRowsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_rows_ingested_total",
		Help: "Rows loaded from source feeds into the store",
	}, []string{"feed"})

	OrdersGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_generated_total",
		Help: "Total number of synthetic orders generated",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
