package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"success", "validation", "segment", "concat", "unexpected"} {
		SubmissionsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "failure", "error"} {
		SegmentsTotal.WithLabelValues(status)
		ConcatenationsTotal.WithLabelValues(status)
		PreviewsTotal.WithLabelValues(status)
	}

	for _, state := range []string{"done", "failed"} {
		SubmissionHistory.WithLabelValues(state)
	}

	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, op := range []string{"initialize_schema", "record_submission", "list_submissions",
		"get_submission", "count_submissions", "create_session", "validate_session",
		"delete_session", "clean_expired", "add_flash", "pop_flashes", "set_password",
		"get_password_hash"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
