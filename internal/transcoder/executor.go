package transcoder

import (
	"context"
	"time"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
)

// ExecutionResult is the outcome of one encoder invocation.
type ExecutionResult struct {
	Command  encoding.CommandSpec `json:"command"`
	ExitCode int                  `json:"exitCode"`
	Stderr   string               `json:"stderr,omitempty"`
	Duration time.Duration        `json:"duration"`
}

// Succeeded reports whether the encoder exited with status 0.
func (r ExecutionResult) Succeeded() bool {
	return r.ExitCode == 0
}

// RunSegments executes specs one after another. It stops at the first
// non-zero exit and returns the results gathered so far together with a
// *SegmentExecutionError; later segments are never started.
func (t *Transcoder) RunSegments(ctx context.Context, specs []encoding.CommandSpec) ([]ExecutionResult, error) {
	results := make([]ExecutionResult, 0, len(specs))

	for i, spec := range specs {
		logging.Info("Encoding segment %d/%d -> %s", i+1, len(specs), spec.OutputPath)
		logging.Debug("  %s", encoding.FormatCommand(t.display, spec.Args))

		result, err := t.execute(ctx, spec)
		metrics.SegmentDuration.Observe(result.Duration.Seconds())
		if err != nil {
			metrics.SegmentsTotal.WithLabelValues("error").Inc()
			return results, &UnexpectedError{Stage: "segment", Err: err}
		}

		results = append(results, result)
		if !result.Succeeded() {
			metrics.SegmentsTotal.WithLabelValues("failure").Inc()
			logging.Error("Segment %d/%d failed with status %d", i+1, len(specs), result.ExitCode)
			return results, &SegmentExecutionError{Index: i, Result: result}
		}

		metrics.SegmentsTotal.WithLabelValues("success").Inc()
		logging.Info("  [OK] Segment %d/%d encoded in %v", i+1, len(specs), result.Duration.Round(time.Millisecond))
	}

	return results, nil
}

func (t *Transcoder) execute(ctx context.Context, spec encoding.CommandSpec) (ExecutionResult, error) {
	start := time.Now()
	run, err := t.runner.Run(ctx, spec.Args)
	result := ExecutionResult{
		Command:  spec,
		ExitCode: run.ExitCode,
		Stderr:   run.Stderr,
		Duration: time.Since(start),
	}
	return result, err
}
