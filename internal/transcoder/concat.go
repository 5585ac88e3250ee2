package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/filesystem"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
)

// ManifestName is the concat-demuxer list written next to the segments.
const ManifestName = "segments.txt"

// maxOutputSlots bounds the search for a free combined-output name.
const maxOutputSlots = 100000

// ManifestContent renders the concat-demuxer list for outputs, one
// "file '<path>'" line each. Single quotes inside a path are written as '\''.
func ManifestContent(outputs []string) string {
	var b strings.Builder
	for _, out := range outputs {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(out, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// WriteManifest writes <dir>/segments.txt listing outputs and returns its path.
func WriteManifest(dir string, outputs []string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(ManifestContent(outputs)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// NextFinalOutput returns the first <dir>/<base>_<n>.webm that does not exist,
// starting at n = 0. Existing files are never overwritten.
func NextFinalOutput(dir, base string) (string, error) {
	for n := 0; n < maxOutputSlots; n++ {
		candidate := encoding.FinalOutputPath(dir, base, n)
		_, err := filesystem.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free output name for %q in %s", base, dir)
}

// Concatenate joins the produced segment files into one output. It writes
// the manifest, picks a free output name and runs ffmpeg once.
func (t *Transcoder) Concatenate(ctx context.Context, job *encoding.Job, outputs []string) (ExecutionResult, error) {
	manifest, err := WriteManifest(job.OutputDir(), outputs)
	if err != nil {
		return ExecutionResult{}, &UnexpectedError{Stage: "concat", Err: err}
	}
	logging.Debug("Wrote concat manifest %s (%d entries)", manifest, len(outputs))

	final, err := NextFinalOutput(job.OutputDir(), job.OutputName())
	if err != nil {
		return ExecutionResult{}, &UnexpectedError{Stage: "concat", Err: err}
	}

	spec, err := encoding.BuildConcatCommand(job, manifest, final)
	if err != nil {
		return ExecutionResult{}, &UnexpectedError{Stage: "concat", Err: err}
	}

	logging.Info("Combining %d segments -> %s", len(outputs), final)
	logging.Debug("  %s", encoding.FormatCommand(t.display, spec.Args))

	result, err := t.execute(ctx, spec)
	metrics.ConcatDuration.Observe(result.Duration.Seconds())
	if err != nil {
		metrics.ConcatenationsTotal.WithLabelValues("error").Inc()
		return result, &UnexpectedError{Stage: "concat", Err: err}
	}
	if !result.Succeeded() {
		metrics.ConcatenationsTotal.WithLabelValues("failure").Inc()
		logging.Error("Concatenation failed with status %d", result.ExitCode)
		return result, &ConcatenationError{Result: result}
	}

	metrics.ConcatenationsTotal.WithLabelValues("success").Inc()
	logging.Info("  [OK] Combined output written in %v", result.Duration.Round(time.Millisecond))
	return result, nil
}
