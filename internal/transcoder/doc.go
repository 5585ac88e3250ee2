// Package transcoder runs validated encoding jobs through FFmpeg.
//
// A submission is processed in a fixed order:
//   - validation of the raw request into an encoding.Job
//   - one FFmpeg invocation per segment, strictly sequential
//   - an optional concat-demuxer pass joining the segment files
//
// The first failing segment stops the batch; nothing is retried. Every
// failure is reported as a typed error (SegmentExecutionError,
// ConcatenationError or UnexpectedError) and summarised as user-facing
// messages on the returned Outcome.
//
// FFmpeg must be installed; the binary is configurable through ExecRunner.
package transcoder
