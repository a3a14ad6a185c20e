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
)

// Matching engine collectors.
var (
	MatchGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_generate_duration_seconds",
			Help:    "Time to produce a ranked match list",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"source"}, // cache, daily, computed
	)

	CompatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_compatibility_score",
			Help:    "Distribution of overall compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ScoringFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_scoring_failures_total",
			Help: "Candidates dropped because their score could not be computed",
		},
	)

	CandidateFilterDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidate_filter_degraded_total",
			Help: "Candidate lookups that returned an empty set because a store call failed",
		},
		[]string{"stage"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_cache_invalidated_keys_total",
			Help: "Keys removed by pattern invalidation",
		},
	)

	PrecomputeUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_precompute_users_total",
			Help: "Users processed by the batch precompute",
		},
		[]string{"status"}, // succeeded, failed
	)

	PrecomputeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_precompute_runs_total",
			Help: "Batch precompute runs",
		},
		[]string{"outcome"}, // completed, skipped
	)

	RecomputeJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_recompute_jobs_total",
			Help: "Recompute jobs by lifecycle stage",
		},
		[]string{"stage"}, // enqueued, processed, failed
	)

	RecomputeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_recompute_queue_depth",
			Help: "Recompute jobs waiting to be claimed",
		},
	)
)
