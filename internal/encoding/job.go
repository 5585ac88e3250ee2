package encoding

import (
	"encoding/json"
	"regexp"
)

// Fixed codecs. The form shows them but does not allow changing them.
const (
	VideoCodec = "libvpx-vp9"
	AudioCodec = "libopus"
)

// Limits enforced by Validate.
const (
	MaxSegments  = 32
	MinCRF       = 0
	MaxCRF       = 63
	MinFramerate = 1
	MaxFramerate = 200
	MinThreads   = 1
	MaxThreads   = 24
)

// OutputExtension is the container every produced file uses.
const OutputExtension = ".webm"

// AllowedInputExtensions lists the containers accepted as input (lowercase).
var AllowedInputExtensions = []string{".mp4", ".mkv", ".avi", ".webm"}

var (
	timeCodePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	bitratePattern  = regexp.MustCompile(`^\d{1,4}K$`)
)

// TimeCode is an HH:MM:SS offset into the input. The zero value means absent.
type TimeCode string

// IsZero reports whether the time code was left empty.
func (t TimeCode) IsZero() bool {
	return t == ""
}

// Valid reports whether the time code matches HH:MM:SS.
func (t TimeCode) Valid() bool {
	return timeCodePattern.MatchString(string(t))
}

// Preset is one of the nine ordered speed/quality tradeoff levels.
type Preset string

const (
	PresetUltrafast Preset = "ultrafast"
	PresetSuperfast Preset = "superfast"
	PresetVeryfast  Preset = "veryfast"
	PresetFaster    Preset = "faster"
	PresetFast      Preset = "fast"
	PresetMedium    Preset = "medium"
	PresetSlow      Preset = "slow"
	PresetSlower    Preset = "slower"
	PresetVeryslow  Preset = "veryslow"
)

var presets = []Preset{
	PresetUltrafast,
	PresetSuperfast,
	PresetVeryfast,
	PresetFaster,
	PresetFast,
	PresetMedium,
	PresetSlow,
	PresetSlower,
	PresetVeryslow,
}

// Presets returns all presets ordered from fastest to slowest.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Valid reports whether p is one of the known presets.
func (p Preset) Valid() bool {
	for _, known := range presets {
		if p == known {
			return true
		}
	}
	return false
}

// Segment is one trim range. When either bound is absent the whole input is encoded.
type Segment struct {
	Start TimeCode `json:"start,omitempty"`
	End   TimeCode `json:"end,omitempty"`
}

// Trimmed reports whether both bounds are present.
func (s Segment) Trimmed() bool {
	return !s.Start.IsZero() && !s.End.IsZero()
}

// Settings holds the codec and rate-control options shared by every command of a job.
type Settings struct {
	VideoCodec   string `json:"videoCodec"`
	AudioCodec   string `json:"audioCodec"`
	CRF          int    `json:"crf"`
	Bitrate      string `json:"bitrate"`
	BitrateMin   string `json:"bitrateMin"`
	BitrateMax   string `json:"bitrateMax"`
	BufferSize   string `json:"bufferSize"`
	Framerate    int    `json:"framerate"`
	Threads      int    `json:"threads"`
	Preset       Preset `json:"preset"`
	RemoveAudio  bool   `json:"removeAudio"`
	AudioBitrate string `json:"audioBitrate,omitempty"`
	AudioVBR     bool   `json:"audioVbr"`
}

// Job is a validated encoding request. It is only constructed by Validate
// and cannot be modified afterwards.
type Job struct {
	inputPath  string
	outputDir  string
	outputName string
	segments   []Segment
	combine    bool
	settings   Settings
}

// InputPath returns the absolute path of the source file.
func (j *Job) InputPath() string { return j.inputPath }

// OutputDir returns the absolute output directory.
func (j *Job) OutputDir() string { return j.outputDir }

// OutputName returns the base name used for the combined output.
func (j *Job) OutputName() string { return j.outputName }

// Combine reports whether segments should be concatenated after encoding.
func (j *Job) Combine() bool { return j.combine }

// Settings returns the codec and rate-control settings.
func (j *Job) Settings() Settings { return j.settings }

// Segments returns a copy of the trim segments in submission order.
func (j *Job) Segments() []Segment {
	out := make([]Segment, len(j.segments))
	copy(out, j.segments)
	return out
}

// SegmentCount returns the number of segments.
func (j *Job) SegmentCount() int { return len(j.segments) }

// MarshalJSON exposes the validated fields read-only.
func (j *Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		InputPath  string    `json:"inputPath"`
		OutputDir  string    `json:"outputDir"`
		OutputName string    `json:"outputName"`
		Segments   []Segment `json:"segments"`
		Combine    bool      `json:"combine"`
		Settings   Settings  `json:"settings"`
	}{j.inputPath, j.outputDir, j.outputName, j.segments, j.combine, j.settings})
}

// SegmentInput is one raw segment row from a submission.
type SegmentInput struct {
	Start string `json:"start" toml:"start" yaml:"start"`
	End   string `json:"end" toml:"end" yaml:"end"`
}

// Request is the raw submission record, before validation.
type Request struct {
	InputPath    string         `json:"inputPath" toml:"input_path" yaml:"input_path"`
	OutputDir    string         `json:"outputDir" toml:"output_dir" yaml:"output_dir"`
	OutputName   string         `json:"outputName" toml:"output_name" yaml:"output_name"`
	Segments     []SegmentInput `json:"segments" toml:"segments" yaml:"segments"`
	Combine      bool           `json:"combine" toml:"combine" yaml:"combine"`
	CRF          int            `json:"crf" toml:"crf" yaml:"crf"`
	Bitrate      string         `json:"bitrate" toml:"bitrate" yaml:"bitrate"`
	BitrateMin   string         `json:"bitrateMin" toml:"bitrate_min" yaml:"bitrate_min"`
	BitrateMax   string         `json:"bitrateMax" toml:"bitrate_max" yaml:"bitrate_max"`
	BufferSize   string         `json:"bufferSize" toml:"buffer_size" yaml:"buffer_size"`
	Framerate    int            `json:"framerate" toml:"framerate" yaml:"framerate"`
	Threads      int            `json:"threads" toml:"threads" yaml:"threads"`
	Preset       string         `json:"preset" toml:"preset" yaml:"preset"`
	RemoveAudio  bool           `json:"removeAudio" toml:"remove_audio" yaml:"remove_audio"`
	AudioBitrate string         `json:"audioBitrate" toml:"audio_bitrate" yaml:"audio_bitrate"`
	AudioVBR     bool           `json:"audioVbr" toml:"audio_vbr" yaml:"audio_vbr"`
}

// DefaultRequest returns a request pre-filled with the form defaults.
func DefaultRequest() Request {
	return Request{
		OutputDir:    "~/Desktop",
		OutputName:   "test",
		Segments:     []SegmentInput{{}},
		CRF:          20,
		Bitrate:      "1500K",
		BitrateMin:   "100K",
		BitrateMax:   "2000K",
		BufferSize:   "1000K",
		Framerate:    30,
		Threads:      6,
		Preset:       string(PresetMedium),
		AudioBitrate: "50K",
		AudioVBR:     true,
	}
}
