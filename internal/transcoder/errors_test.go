package transcoder

import (
	"errors"
	"fmt"
	"testing"

	"webm-trimmer/internal/encoding"
)

func TestClassify(t *testing.T) {
	verr := &encoding.ValidationError{}
	verr.Add(encoding.FieldCRF, "out of range")

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"Nil", nil, KindNone},
		{"Validation", verr, KindValidation},
		{"Segment", &SegmentExecutionError{Index: 0}, KindSegment},
		{"Wrapped segment", fmt.Errorf("batch: %w", &SegmentExecutionError{Index: 2}), KindSegment},
		{"Concat", &ConcatenationError{}, KindConcat},
		{"Unexpected", &UnexpectedError{Stage: "concat", Err: errors.New("disk full")}, KindUnexpected},
		{"Plain", errors.New("boom"), KindUnexpected},
		{"Invariant", &encoding.InvariantError{Segment: 0, Position: 3}, KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	serr := &SegmentExecutionError{Index: 1, Result: ExecutionResult{ExitCode: 183}}
	if got := serr.Error(); got != "segment 2: encoder exited with status 183" {
		t.Errorf("SegmentExecutionError.Error() = %q", got)
	}

	cerr := &ConcatenationError{Result: ExecutionResult{ExitCode: 1}}
	if got := cerr.Error(); got != "concatenation: encoder exited with status 1" {
		t.Errorf("ConcatenationError.Error() = %q", got)
	}

	inner := errors.New("permission denied")
	uerr := &UnexpectedError{Stage: "concat", Err: inner}
	if !errors.Is(uerr, inner) {
		t.Error("UnexpectedError should unwrap to its cause")
	}
}
