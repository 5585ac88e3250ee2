package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// gatheredValue returns the value of the first sample of family name whose
// labels include all of want. ok is false when no such sample exists.
func gatheredValue(t *testing.T, name string, want map[string]string) (float64, bool) {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched != len(want) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBSizeBytes", DBSizeBytes},
		{"SubmissionsTotal", SubmissionsTotal},
		{"SubmissionsInProgress", SubmissionsInProgress},
		{"SegmentsTotal", SegmentsTotal},
		{"SegmentDuration", SegmentDuration},
		{"ConcatenationsTotal", ConcatenationsTotal},
		{"ConcatDuration", ConcatDuration},
		{"SubmissionHistory", SubmissionHistory},
		{"PreviewsTotal", PreviewsTotal},
		{"PreviewDuration", PreviewDuration},
		{"AuthAttemptsTotal", AuthAttemptsTotal},
		{"ActiveSessions", ActiveSessions},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsExportsLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name   string
		labels map[string]string
	}{
		{"webm_trimmer_submissions_total", map[string]string{"outcome": "concat"}},
		{"webm_trimmer_segments_total", map[string]string{"status": "failure"}},
		{"webm_trimmer_concatenations_total", map[string]string{"status": "success"}},
		{"webm_trimmer_previews_total", map[string]string{"status": "error"}},
		{"webm_trimmer_auth_attempts_total", map[string]string{"status": "failure"}},
		{"webm_trimmer_db_queries_total", map[string]string{"operation": "record_submission", "status": "error"}},
		{"webm_trimmer_db_size_bytes", map[string]string{"file": "wal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := gatheredValue(t, tt.name, tt.labels); !ok {
				t.Errorf("%s%v not exported after InitializeMetrics", tt.name, tt.labels)
			}
		})
	}
}

func TestSubmissionCounters(t *testing.T) {
	before, _ := gatheredValue(t, "webm_trimmer_submissions_total", map[string]string{"outcome": "segment"})

	SubmissionsTotal.WithLabelValues("segment").Inc()
	SubmissionsTotal.WithLabelValues("segment").Inc()

	after, ok := gatheredValue(t, "webm_trimmer_submissions_total", map[string]string{"outcome": "segment"})
	if !ok {
		t.Fatal("submissions counter not gathered")
	}
	if after-before != 2 {
		t.Errorf("counter advanced by %v, want 2", after-before)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25.0")

	v, ok := gatheredValue(t, "webm_trimmer_app_info", map[string]string{
		"version":    "1.2.3",
		"commit":     "abc123",
		"go_version": "go1.25.0",
	})
	if !ok || v != 1 {
		t.Errorf("app info = %v (found %v), want 1", v, ok)
	}
}

func TestMetricsConcurrentAccess(t *testing.T) {
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Goroutine %d panicked: %v", id, r)
				}
				done <- true
			}()

			HTTPRequestsTotal.WithLabelValues("GET", "/test", "200").Inc()
			SegmentsTotal.WithLabelValues("success").Inc()
			SegmentDuration.Observe(0.5)
			SubmissionsInProgress.Inc()
			SubmissionsInProgress.Dec()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func BenchmarkSegmentMetrics(b *testing.B) {
	for i := 0; i < b.N; i++ {
		SegmentsTotal.WithLabelValues("success").Inc()
		SegmentDuration.Observe(1.5)
	}
}
