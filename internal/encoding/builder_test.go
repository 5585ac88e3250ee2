package encoding

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535897000, time.UTC)

func newJob(t *testing.T, mutate func(*Request)) *Job {
	t.Helper()
	req := newValidRequest(t)
	if mutate != nil {
		mutate(&req)
	}
	job, err := Validate(req)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return job
}

func indexOf(args []string, token string) int {
	for i, a := range args {
		if a == token {
			return i
		}
	}
	return -1
}

func containsSequence(args []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		if reflect.DeepEqual(args[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}

func TestBuildSegmentCommandsCount(t *testing.T) {
	for _, n := range []int{1, 2, 7, MaxSegments} {
		job := newJob(t, func(r *Request) {
			r.Segments = make([]SegmentInput, n)
		})

		specs, err := BuildSegmentCommands(job, fixedNow)
		if err != nil {
			t.Fatalf("BuildSegmentCommands() error = %v", err)
		}
		if len(specs) != n {
			t.Fatalf("got %d commands, want %d", len(specs), n)
		}

		seen := make(map[string]bool)
		for i, spec := range specs {
			if len(spec.Args) == 0 {
				t.Fatalf("command %d has no arguments", i)
			}
			if last := spec.Args[len(spec.Args)-1]; last != spec.OutputPath {
				t.Errorf("command %d ends with %q, want output path %q", i, last, spec.OutputPath)
			}
			if seen[spec.OutputPath] {
				t.Errorf("duplicate output path %q", spec.OutputPath)
			}
			seen[spec.OutputPath] = true
		}
	}
}

func TestBuildSegmentCommandExactOrder(t *testing.T) {
	job := newJob(t, func(r *Request) {
		r.Segments = []SegmentInput{{Start: "00:00:10", End: "00:00:20"}}
	})

	spec, err := BuildSegmentCommand(job, 0, fixedNow)
	if err != nil {
		t.Fatalf("BuildSegmentCommand() error = %v", err)
	}

	want := []string{
		"-y", "-i", job.InputPath(),
		"-ss", "00:00:10", "-to", "00:00:20",
		"-c:v", "libvpx-vp9",
		"-crf", "20",
		"-b:v", "1500K", "-minrate", "100K", "-maxrate", "2000K",
		"-bufsize", "1000K",
		"-r", "30",
		"-threads", "6", "-preset", "medium",
		"-c:a", "libopus", "-b:a", "50K", "-vbr", "on",
		spec.OutputPath,
	}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args mismatch\n got: %q\nwant: %q", spec.Args, want)
	}
}

func TestBuildSegmentCommandTrimWindow(t *testing.T) {
	job := newJob(t, func(r *Request) {
		r.Segments = []SegmentInput{{Start: "00:00:10", End: "00:00:20"}}
	})

	spec, err := BuildSegmentCommand(job, 0, fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	if !containsSequence(spec.Args, "-ss", "00:00:10", "-to", "00:00:20") {
		t.Errorf("expected contiguous trim window in %q", spec.Args)
	}

	name := filepath.Base(spec.OutputPath)
	if !strings.Contains(name, "00_00_10") || !strings.Contains(name, "00_00_20") {
		t.Errorf("output name %q should embed both bounds", name)
	}
	if strings.Contains(name, ":") {
		t.Errorf("output name %q still contains colons", name)
	}
	if filepath.Ext(name) != ".webm" {
		t.Errorf("output name %q should end in .webm", name)
	}
	if filepath.Dir(spec.OutputPath) != job.OutputDir() {
		t.Errorf("output %q not in output dir %q", spec.OutputPath, job.OutputDir())
	}
}

func TestBuildSegmentCommandPartialWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"no bounds", "", ""},
		{"start only", "00:00:10", ""},
		{"end only", "", "00:00:20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newJob(t, func(r *Request) {
				r.Segments = []SegmentInput{{Start: tt.start, End: tt.end}}
			})

			spec, err := BuildSegmentCommand(job, 0, fixedNow)
			if err != nil {
				t.Fatal(err)
			}
			if indexOf(spec.Args, "-ss") != -1 || indexOf(spec.Args, "-to") != -1 {
				t.Errorf("partial window must encode the whole input, got %q", spec.Args)
			}
			if name := filepath.Base(spec.OutputPath); name != "segment_260314150926_0.webm" {
				t.Errorf("output name = %q, want coarse timestamp name", name)
			}
		})
	}
}

func TestBuildSegmentCommandAudio(t *testing.T) {
	t.Run("remove audio", func(t *testing.T) {
		job := newJob(t, func(r *Request) { r.RemoveAudio = true })
		spec, err := BuildSegmentCommand(job, 0, fixedNow)
		if err != nil {
			t.Fatal(err)
		}
		if indexOf(spec.Args, "-an") == -1 {
			t.Errorf("expected -an in %q", spec.Args)
		}
		for _, flag := range []string{"-c:a", "-b:a", "-vbr"} {
			if indexOf(spec.Args, flag) != -1 {
				t.Errorf("unexpected %s in %q", flag, spec.Args)
			}
		}
	})

	t.Run("variable bitrate on", func(t *testing.T) {
		job := newJob(t, func(r *Request) { r.AudioVBR = true })
		spec, err := BuildSegmentCommand(job, 0, fixedNow)
		if err != nil {
			t.Fatal(err)
		}
		if !containsSequence(spec.Args, "-vbr", "on") {
			t.Errorf("expected -vbr on in %q", spec.Args)
		}
	})

	t.Run("variable bitrate off", func(t *testing.T) {
		job := newJob(t, func(r *Request) { r.AudioVBR = false })
		spec, err := BuildSegmentCommand(job, 0, fixedNow)
		if err != nil {
			t.Fatal(err)
		}
		if !containsSequence(spec.Args, "-vbr", "off") {
			t.Errorf("expected -vbr off in %q", spec.Args)
		}
		if indexOf(spec.Args, "-an") != -1 {
			t.Errorf("unexpected -an in %q", spec.Args)
		}
	})
}

func TestBuildSegmentCommandDistinctNamesSameInstant(t *testing.T) {
	job := newJob(t, func(r *Request) {
		r.Segments = []SegmentInput{
			{Start: "00:00:10", End: "00:00:20"},
			{Start: "00:00:10", End: "00:00:20"},
			{},
			{},
		}
	})

	specs, err := BuildSegmentCommands(job, fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, spec := range specs {
		if seen[spec.OutputPath] {
			t.Errorf("duplicate output %q for identical segments", spec.OutputPath)
		}
		seen[spec.OutputPath] = true
	}
}

func TestBuildSegmentCommandIndexOutOfRange(t *testing.T) {
	job := newJob(t, nil)
	if _, err := BuildSegmentCommand(job, 1, fixedNow); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := BuildSegmentCommand(job, -1, fixedNow); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestBuildSegmentCommandInvariant(t *testing.T) {
	// A job that bypassed validation: audio kept but no audio bitrate.
	job := &Job{
		inputPath:  "/in.mp4",
		outputDir:  "/out",
		outputName: "x",
		segments:   []Segment{{}},
		settings: Settings{
			VideoCodec: VideoCodec, AudioCodec: AudioCodec,
			CRF: 20, Bitrate: "1K", BitrateMin: "1K", BitrateMax: "1K", BufferSize: "1K",
			Framerate: 30, Threads: 1, Preset: PresetFast,
		},
	}

	_, err := BuildSegmentCommand(job, 0, fixedNow)
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected *InvariantError, got %v", err)
	}
	if inv.Args[inv.Position] != "" {
		t.Errorf("Position %d does not point at the empty argument", inv.Position)
	}
}

func TestBuildConcatCommand(t *testing.T) {
	job := newJob(t, func(r *Request) { r.Combine = true })
	manifest := filepath.Join(job.OutputDir(), "segments.txt")
	final := filepath.Join(job.OutputDir(), "test_0.webm")

	spec, err := BuildConcatCommand(job, manifest, final)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"-f", "concat", "-safe", "0", "-i", manifest,
		"-c", "copy",
		"-crf", "20",
		"-b:v", "1500K", "-minrate", "100K", "-maxrate", "2000K",
		"-bufsize", "1000K",
		"-r", "30",
		"-threads", "6", "-preset", "medium",
		final,
	}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args mismatch\n got: %q\nwant: %q", spec.Args, want)
	}
	if spec.OutputPath != final {
		t.Errorf("OutputPath = %q, want %q", spec.OutputPath, final)
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"-y", "-i", "/a/b.mp4"}, "ffmpeg -y -i /a/b.mp4"},
		{"spaces", []string{"-i", "/my videos/a.mp4"}, "ffmpeg -i '/my videos/a.mp4'"},
		{"single quote", []string{"-i", "/it's.mp4"}, `ffmpeg -i '/it'\''s.mp4'`},
		{"empty", []string{""}, "ffmpeg ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCommand("ffmpeg", tt.args); got != tt.want {
				t.Errorf("FormatCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentFileName(t *testing.T) {
	trimmed := SegmentFileName(Segment{Start: "00:01:02", End: "00:03:04"}, 3, fixedNow)
	if want := "segment_1773500966.535897_3_ss_00_01_02_to_00_03_04.webm"; trimmed != want {
		t.Errorf("trimmed name = %q, want %q", trimmed, want)
	}

	whole := SegmentFileName(Segment{}, 0, fixedNow)
	if want := "segment_260314150926_0.webm"; whole != want {
		t.Errorf("whole name = %q, want %q", whole, want)
	}
}

func TestFinalOutputPath(t *testing.T) {
	if got := FinalOutputPath("/out", "movie", 2); got != filepath.Join("/out", "movie_2.webm") {
		t.Errorf("FinalOutputPath() = %q", got)
	}
}
