// Package metrics provides Prometheus instrumentation for webm-trimmer.
//
// All metrics are registered with the default registry through promauto and
// prefixed with "webm_trimmer_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Encoding Metrics
//   - SubmissionsTotal: Counter of processed submissions by outcome
//   - SubmissionsInProgress: Gauge of submissions being processed
//   - SegmentsTotal / SegmentDuration: per-segment encoder runs
//   - ConcatenationsTotal / ConcatDuration: concat-demuxer runs
//   - SubmissionHistory: Gauge of recorded submissions by final state
//
// ## Preview Metrics
//   - PreviewsTotal / PreviewDuration: frame previews served
//
// ## Database and Authentication Metrics
//   - DBQueryTotal, DBQueryDuration, DBSizeBytes
//   - AuthAttemptsTotal, ActiveSessions
//
// ## Application Info
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Mount promhttp.Handler() on the metrics listener and call
// InitializeMetrics once at startup. A [Collector] periodically refreshes the
// gauges that are derived from the database:
//
//	collector := metrics.NewCollector(db, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Submission failure ratio:
//
//	sum(rate(webm_trimmer_submissions_total{outcome!="success"}[1h])) /
//	sum(rate(webm_trimmer_submissions_total[1h]))
//
// P95 segment encode time:
//
//	histogram_quantile(0.95, sum(rate(webm_trimmer_segment_duration_seconds_bucket[1h])) by (le))
package metrics
