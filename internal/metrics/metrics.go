package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webm_trimmer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webm_trimmer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Encoding metrics
var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_submissions_total",
			Help: "Total number of processed submissions by outcome",
		},
		[]string{"outcome"}, // "success", "validation", "segment", "concat", "unexpected"
	)

	SubmissionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_submissions_in_progress",
			Help: "Number of submissions currently being processed",
		},
	)

	SegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_segments_total",
			Help: "Total number of segment encoder runs by status",
		},
		[]string{"status"},
	)

	SegmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webm_trimmer_segment_duration_seconds",
			Help:    "Wall time of one segment encoder run",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	ConcatenationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_concatenations_total",
			Help: "Total number of concatenation runs by status",
		},
		[]string{"status"},
	)

	ConcatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webm_trimmer_concat_duration_seconds",
			Help:    "Wall time of one concatenation run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		},
	)

	SubmissionHistory = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_submission_history",
			Help: "Submissions recorded in the history table by state",
		},
		[]string{"state"}, // "done", "failed"
	)
)

// Preview metrics
var (
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_previews_total",
			Help: "Total number of frame previews by status",
		},
		[]string{"status"},
	)

	PreviewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webm_trimmer_preview_duration_seconds",
			Help:    "Time to grab, resize and encode one preview frame",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen on network mounts",
		},
		[]string{"operation"},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_filesystem_retries_total",
			Help: "Filesystem operations that needed retries, by final result",
		},
		[]string{"operation", "result"}, // "success", "failure"
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webm_trimmer_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // "success", "failure"
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_active_sessions",
			Help: "Number of active user sessions",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "webm_trimmer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
