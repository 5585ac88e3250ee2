// Package encoding models an encoding job and builds the ffmpeg command
// lines that carry it out.
//
// A raw [Request] (from the web form, the JSON API or a job file) is turned
// into an immutable [Job] by [Validate], which checks every field in one pass
// and reports all problems together as a [*ValidationError].
//
// The builders are pure: [BuildSegmentCommand] produces one [CommandSpec] per
// trim segment and [BuildConcatCommand] the concat-demuxer invocation that
// joins them. The only input that is not part of the job is the clock value
// used to name segment files.
package encoding
