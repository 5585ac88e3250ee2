package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/jobfile"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

type encodeOptions struct {
	jobFile   string
	dumpJob   string
	noHistory bool
	segments  []string
	values    encoding.Request
}

func newEncodeCommand() *cobra.Command {
	opts := &encodeOptions{values: encoding.DefaultRequest()}

	cmd := &cobra.Command{
		Use:   "encode [input]",
		Short: "Encode one submission from flags or a job file",
		Long: `Encode one submission and wait for it to finish.

Settings are applied in order: built-in defaults, the job file given with
--job, then any flag set on the command line. Segments are given as
START-END in HH:MM:SS, e.g. --segment 00:01:00-00:01:30; repeat the flag
for more segments. Without --segment the whole input is encoded.

Exit status is 0 on success, 2 when the submission is invalid and 1 when
encoding fails.`,
		Example: `  webm-trimmer encode ~/Videos/talk.mkv --segment 00:00:10-00:00:40 --name talk
  webm-trimmer encode --job clip.toml --crf 28
  webm-trimmer encode input.mp4 --segment 00:00:01-00:00:05 --dump-job yaml > clip.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			req, err := buildRequest(cmd.Flags(), opts, args, cfg.DefaultOutputDir)
			if err != nil {
				return err
			}

			if opts.dumpJob != "" {
				return jobfile.Encode(cmd.OutOrStdout(), opts.dumpJob, req)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runEncode(ctx, cmd, cfg, opts, req)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.jobFile, "job", "", "Job file (.toml, .yaml or .yml)")
	flags.StringVar(&opts.dumpJob, "dump-job", "", "Print the resulting job as toml or yaml and exit")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record the submission in the history")
	flags.StringArrayVarP(&opts.segments, "segment", "s", nil, "Trim segment START-END (repeatable)")

	v := &opts.values
	flags.StringVarP(&v.InputPath, "input", "i", "", "Input video (mp4, mkv, avi or webm)")
	flags.StringVarP(&v.OutputDir, "output-dir", "o", "", "Output directory (default $DEFAULT_OUTPUT_DIR)")
	flags.StringVarP(&v.OutputName, "name", "n", v.OutputName, "Base name of the combined output")
	flags.BoolVar(&v.Combine, "combine", v.Combine, "Concatenate the segments into one file")
	flags.IntVar(&v.CRF, "crf", v.CRF, "Constant rate factor, 0-63 (lower is better)")
	flags.StringVar(&v.Bitrate, "bitrate", v.Bitrate, "Target video bitrate, e.g. 1500K")
	flags.StringVar(&v.BitrateMin, "bitrate-min", v.BitrateMin, "Minimum video bitrate")
	flags.StringVar(&v.BitrateMax, "bitrate-max", v.BitrateMax, "Maximum video bitrate")
	flags.StringVar(&v.BufferSize, "buffer-size", v.BufferSize, "Rate control buffer size")
	flags.IntVar(&v.Framerate, "framerate", v.Framerate, "Output framerate, 1-200")
	flags.IntVar(&v.Threads, "threads", v.Threads, "Encoder threads, 1-24")
	flags.StringVar(&v.Preset, "preset", v.Preset, "Preset speed ("+presetList()+")")
	flags.BoolVar(&v.RemoveAudio, "remove-audio", v.RemoveAudio, "Drop the audio track")
	flags.StringVar(&v.AudioBitrate, "audio-bitrate", v.AudioBitrate, "Audio bitrate, e.g. 50K")
	flags.BoolVar(&v.AudioVBR, "audio-vbr", v.AudioVBR, "Variable audio bitrate")

	return cmd
}

func presetList() string {
	names := make([]string, 0, 9)
	for _, p := range encoding.Presets() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// buildRequest layers the job file and the flags that were set on top of
// the defaults. defaultOutputDir applies only without a job file.
func buildRequest(flags *pflag.FlagSet, opts *encodeOptions, args []string, defaultOutputDir string) (encoding.Request, error) {
	req := encoding.DefaultRequest()
	if defaultOutputDir != "" {
		req.OutputDir = defaultOutputDir
	}
	if opts.jobFile != "" {
		loaded, err := jobfile.Load(opts.jobFile)
		if err != nil {
			return encoding.Request{}, err
		}
		req = loaded
	}

	v := opts.values
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"input", func() { req.InputPath = v.InputPath }},
		{"output-dir", func() { req.OutputDir = v.OutputDir }},
		{"name", func() { req.OutputName = v.OutputName }},
		{"combine", func() { req.Combine = v.Combine }},
		{"crf", func() { req.CRF = v.CRF }},
		{"bitrate", func() { req.Bitrate = v.Bitrate }},
		{"bitrate-min", func() { req.BitrateMin = v.BitrateMin }},
		{"bitrate-max", func() { req.BitrateMax = v.BitrateMax }},
		{"buffer-size", func() { req.BufferSize = v.BufferSize }},
		{"framerate", func() { req.Framerate = v.Framerate }},
		{"threads", func() { req.Threads = v.Threads }},
		{"preset", func() { req.Preset = v.Preset }},
		{"remove-audio", func() { req.RemoveAudio = v.RemoveAudio }},
		{"audio-bitrate", func() { req.AudioBitrate = v.AudioBitrate }},
		{"audio-vbr", func() { req.AudioVBR = v.AudioVBR }},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			o.apply()
		}
	}

	if len(args) == 1 {
		if flags.Changed("input") {
			return encoding.Request{}, errors.New("give the input either as an argument or with --input, not both")
		}
		req.InputPath = args[0]
	}

	if len(opts.segments) > 0 {
		req.Segments = make([]encoding.SegmentInput, 0, len(opts.segments))
		for _, s := range opts.segments {
			seg, err := parseSegment(s)
			if err != nil {
				return encoding.Request{}, err
			}
			req.Segments = append(req.Segments, seg)
		}
	}

	if opts.dumpJob != "" && opts.dumpJob != jobfile.FormatTOML && opts.dumpJob != jobfile.FormatYAML {
		return encoding.Request{}, fmt.Errorf("--dump-job must be %s or %s", jobfile.FormatTOML, jobfile.FormatYAML)
	}
	return req, nil
}

// parseSegment reads START-END. Either side may be empty; "-" alone means
// the whole input.
func parseSegment(s string) (encoding.SegmentInput, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return encoding.SegmentInput{}, fmt.Errorf("segment %q must be START-END, e.g. 00:00:05-00:00:10", s)
	}
	return encoding.SegmentInput{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}, nil
}

func runEncode(ctx context.Context, cmd *cobra.Command, cfg *startup.Config, opts *encodeOptions, req encoding.Request) error {
	trans := transcoder.New(newRunner(cfg.FFmpegPath), filepath.Base(cfg.FFmpegPath))
	outcome := trans.Process(ctx, req)

	printOutcome(cmd.OutOrStdout(), cmd.ErrOrStderr(), outcome)

	if !opts.noHistory {
		// History is best-effort; the encode already happened.
		if db, err := openDatabase(context.WithoutCancel(ctx), cfg); err != nil {
			logging.Warn("Submission not recorded: %v", err)
		} else {
			s := database.NewSubmission(outcome, database.SourceCLI, req.InputPath, req.OutputDir, req.OutputName)
			if err := db.RecordSubmission(context.WithoutCancel(ctx), s); err != nil {
				logging.Warn("Submission not recorded: %v", err)
			}
			db.Close()
		}
	}

	switch outcome.Kind {
	case transcoder.KindNone:
		return nil
	case transcoder.KindValidation:
		return &exitError{code: 2, err: errors.New("invalid submission")}
	default:
		return &exitError{code: 1, err: fmt.Errorf("encoding failed: %w", outcome.Err())}
	}
}

func printOutcome(stdout, stderr io.Writer, outcome *transcoder.Outcome) {
	if len(outcome.ValidationErrors) > 0 {
		fmt.Fprintln(stderr, "Invalid submission:")
		for _, f := range outcome.ValidationErrors {
			fmt.Fprintf(stderr, "  %s: %s\n", f.Field, f.Message)
		}
	}

	colorize := shouldColorize(stdout)
	for _, m := range outcome.Messages {
		if color := categoryColor(m.Category); colorize && color != "" {
			fmt.Fprintf(stdout, "%s%s%s\n", color, m.Text, ansiReset)
			continue
		}
		fmt.Fprintf(stdout, "[%s] %s\n", m.Category, m.Text)
	}
}
