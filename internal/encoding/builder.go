package encoding

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CommandSpec is one ffmpeg invocation: its arguments (without the binary
// name) and the file it will produce.
type CommandSpec struct {
	Args       []string `json:"args"`
	OutputPath string   `json:"outputPath"`
}

// String renders the command the way a user would type it.
func (c CommandSpec) String() string {
	return FormatCommand("ffmpeg", c.Args)
}

// BuildSegmentCommands builds one command per segment, in order.
func BuildSegmentCommands(job *Job, now time.Time) ([]CommandSpec, error) {
	specs := make([]CommandSpec, 0, len(job.segments))
	for i := range job.segments {
		spec, err := BuildSegmentCommand(job, i, now)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// BuildSegmentCommand builds the ffmpeg arguments for segment index.
//
// Order matters to ffmpeg: input first, then the trim window, video options,
// audio options, and the output path last.
func BuildSegmentCommand(job *Job, index int, now time.Time) (CommandSpec, error) {
	if index < 0 || index >= len(job.segments) {
		return CommandSpec{}, fmt.Errorf("segment index %d out of range [0,%d)", index, len(job.segments))
	}

	seg := job.segments[index]
	s := job.settings
	output := filepath.Join(job.outputDir, SegmentFileName(seg, index, now))

	args := []string{"-y", "-i", job.inputPath}
	if seg.Trimmed() {
		args = append(args, "-ss", string(seg.Start), "-to", string(seg.End))
	}

	args = append(args, "-c:v", s.VideoCodec)
	args = append(args, rateControlArgs(s)...)

	if s.RemoveAudio {
		args = append(args, "-an")
	} else {
		args = append(args, "-c:a", s.AudioCodec, "-b:a", s.AudioBitrate, "-vbr", onOff(s.AudioVBR))
	}

	args = append(args, output)

	if err := checkArgs(index, args); err != nil {
		return CommandSpec{}, err
	}
	return CommandSpec{Args: args, OutputPath: output}, nil
}

// BuildConcatCommand builds the concat-demuxer invocation that joins the
// segments listed in manifest into finalOutput.
func BuildConcatCommand(job *Job, manifest, finalOutput string) (CommandSpec, error) {
	args := []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy"}
	args = append(args, rateControlArgs(job.settings)...)
	args = append(args, finalOutput)

	if err := checkArgs(-1, args); err != nil {
		return CommandSpec{}, err
	}
	return CommandSpec{Args: args, OutputPath: finalOutput}, nil
}

func rateControlArgs(s Settings) []string {
	return []string{
		"-crf", strconv.Itoa(s.CRF),
		"-b:v", s.Bitrate,
		"-minrate", s.BitrateMin,
		"-maxrate", s.BitrateMax,
		"-bufsize", s.BufferSize,
		"-r", strconv.Itoa(s.Framerate),
		"-threads", strconv.Itoa(s.Threads),
		"-preset", string(s.Preset),
	}
}

func checkArgs(segment int, args []string) error {
	for i, arg := range args {
		if arg == "" {
			return &InvariantError{Segment: segment, Position: i, Args: args}
		}
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// FormatCommand joins a binary and its arguments into a single line,
// single-quoting arguments that contain whitespace or quotes.
func FormatCommand(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n'\"\\$`") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
