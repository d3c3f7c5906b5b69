// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// AnalysisRuns counts pipeline runs by outcome (ok, degraded, failed).
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_analysis_runs_total",
			Help: "Total number of survey analyses by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "health_analysis_duration_seconds",
			Help:    "Duration of a full survey analysis in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	ExtractorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_extractor_calls_total",
			Help: "Signal extraction collaborator calls by result",
		},
		[]string{"extractor", "result"},
	)

	FallbackThemes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "health_fallback_themes_total",
			Help: "Themes analysed with fallback insights after a collaborator failure",
		},
	)

	InvariantViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_invariant_violations_total",
			Help: "Derived values clamped back into their bounds",
		},
		[]string{"entity", "field"},
	)

	RejectedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "health_rejected_records_total",
			Help: "Malformed feedback records dropped during validation",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_result_cache_lookups_total",
			Help: "Analysis result cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
