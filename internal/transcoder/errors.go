package transcoder

import (
	"errors"
	"fmt"

	"webm-trimmer/internal/encoding"
)

// ErrorKind classifies why a submission failed.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindSegment    ErrorKind = "segment"
	KindConcat     ErrorKind = "concat"
	KindUnexpected ErrorKind = "unexpected"
)

// SegmentExecutionError reports a segment command that exited non-zero.
// No later segment was started.
type SegmentExecutionError struct {
	Index  int
	Result ExecutionResult
}

func (e *SegmentExecutionError) Error() string {
	return fmt.Sprintf("segment %d: encoder exited with status %d", e.Index+1, e.Result.ExitCode)
}

// ConcatenationError reports a concat command that exited non-zero.
// Segment files already produced are left in place.
type ConcatenationError struct {
	Result ExecutionResult
}

func (e *ConcatenationError) Error() string {
	return fmt.Sprintf("concatenation: encoder exited with status %d", e.Result.ExitCode)
}

// UnexpectedError wraps any other failure (I/O, a process that would not
// start, an internal invariant breach).
type UnexpectedError struct {
	Stage string
	Err   error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// Classify maps an error returned by this package to its kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var verr *encoding.ValidationError
	var serr *SegmentExecutionError
	var cerr *ConcatenationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &serr):
		return KindSegment
	case errors.As(err, &cerr):
		return KindConcat
	default:
		return KindUnexpected
	}
}
