package encoding

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"webm-trimmer/internal/filesystem"
)

// Form field names, shared with the web form so errors can be shown inline.
const (
	FieldInputPath    = "file_path_input"
	FieldOutputDir    = "file_path_output"
	FieldOutputName   = "file_path_output_name"
	FieldSegments     = "segments"
	FieldCRF          = "crf"
	FieldBitrate      = "bitrate"
	FieldBitrateMin   = "bitrate_min"
	FieldBitrateMax   = "bitrate_max"
	FieldBufferSize   = "buffer_size"
	FieldFramerate    = "framerate"
	FieldThreads      = "threads"
	FieldPreset       = "preset_speed"
	FieldAudioBitrate = "audio_bitrate"
)

// SegmentField returns the form field name of a segment bound, e.g. "segments-0-start".
func SegmentField(index int, bound string) string {
	return fmt.Sprintf("%s-%d-%s", FieldSegments, index, bound)
}

// Validate checks every field of req and returns an immutable Job.
// All problems are reported together in a *ValidationError.
func Validate(req Request) (*Job, error) {
	verr := &ValidationError{}

	inputPath := validateInputPath(strings.TrimSpace(req.InputPath), verr)
	outputDir := validateOutputDir(strings.TrimSpace(req.OutputDir), verr)
	outputName := validateOutputName(req.OutputName, verr)
	segments := validateSegments(req.Segments, verr)

	validateRange(verr, FieldCRF, req.CRF, MinCRF, MaxCRF)
	validateRange(verr, FieldFramerate, req.Framerate, MinFramerate, MaxFramerate)
	validateRange(verr, FieldThreads, req.Threads, MinThreads, MaxThreads)

	bitrate := validateBitrate(verr, FieldBitrate, req.Bitrate, true)
	bitrateMin := validateBitrate(verr, FieldBitrateMin, req.BitrateMin, true)
	bitrateMax := validateBitrate(verr, FieldBitrateMax, req.BitrateMax, true)
	bufferSize := validateBitrate(verr, FieldBufferSize, req.BufferSize, true)
	audioBitrate := validateBitrate(verr, FieldAudioBitrate, req.AudioBitrate, !req.RemoveAudio)

	preset := Preset(strings.TrimSpace(req.Preset))
	if !preset.Valid() {
		verr.Add(FieldPreset, "Not a valid choice.")
	}

	if !verr.empty() {
		return nil, verr
	}

	return &Job{
		inputPath:  inputPath,
		outputDir:  outputDir,
		outputName: outputName,
		segments:   segments,
		combine:    req.Combine,
		settings: Settings{
			VideoCodec:   VideoCodec,
			AudioCodec:   AudioCodec,
			CRF:          req.CRF,
			Bitrate:      bitrate,
			BitrateMin:   bitrateMin,
			BitrateMax:   bitrateMax,
			BufferSize:   bufferSize,
			Framerate:    req.Framerate,
			Threads:      req.Threads,
			Preset:       preset,
			RemoveAudio:  req.RemoveAudio,
			AudioBitrate: audioBitrate,
			AudioVBR:     req.AudioVBR,
		},
	}, nil
}

// ExpandPath expands a leading "~" to the user's home directory and makes
// the result absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// HasAllowedExtension reports whether path ends in an accepted input container.
func HasAllowedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range AllowedInputExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SanitizeOutputName strips surrounding whitespace and a trailing container extension.
func SanitizeOutputName(name string) string {
	name = strings.TrimSpace(name)
	ext := filepath.Ext(name)
	for _, allowed := range AllowedInputExtensions {
		if strings.EqualFold(ext, allowed) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

func validateInputPath(raw string, verr *ValidationError) string {
	if raw == "" {
		verr.Add(FieldInputPath, "This field is required.")
		return ""
	}
	if !HasAllowedExtension(raw) {
		verr.Add(FieldInputPath, "Invalid file format. Only mp4, mkv, avi, and webm are allowed.")
	}

	path, err := ExpandPath(raw)
	if err != nil {
		verr.Add(FieldInputPath, "Invalid path: %v", err)
		return ""
	}

	info, err := filesystem.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		verr.Add(FieldInputPath, "File does not exist: %s", path)
	case err != nil:
		verr.Add(FieldInputPath, "Cannot access file: %v", err)
	case !info.Mode().IsRegular():
		verr.Add(FieldInputPath, "Not a regular file: %s", path)
	}
	return path
}

func validateOutputDir(raw string, verr *ValidationError) string {
	if raw == "" {
		verr.Add(FieldOutputDir, "This field is required.")
		return ""
	}

	path, err := ExpandPath(raw)
	if err != nil {
		verr.Add(FieldOutputDir, "Invalid path: %v", err)
		return ""
	}

	info, err := filesystem.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		verr.Add(FieldOutputDir, "Directory does not exist: %s", path)
	case err != nil:
		verr.Add(FieldOutputDir, "Cannot access directory: %v", err)
	case !info.IsDir():
		verr.Add(FieldOutputDir, "Not a directory: %s", path)
	}
	return path
}

func validateOutputName(raw string, verr *ValidationError) string {
	name := SanitizeOutputName(raw)
	switch {
	case name == "":
		verr.Add(FieldOutputName, "This field is required.")
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		verr.Add(FieldOutputName, "Must be a file name, not a path.")
	}
	return name
}

func validateSegments(inputs []SegmentInput, verr *ValidationError) []Segment {
	if len(inputs) == 0 {
		verr.Add(FieldSegments, "At least one segment is required.")
		return nil
	}
	if len(inputs) > MaxSegments {
		verr.Add(FieldSegments, "At most %d segments are allowed.", MaxSegments)
	}

	segments := make([]Segment, 0, len(inputs))
	for i, in := range inputs {
		seg := Segment{
			Start: TimeCode(strings.TrimSpace(in.Start)),
			End:   TimeCode(strings.TrimSpace(in.End)),
		}

		startOK := seg.Start.IsZero() || seg.Start.Valid()
		endOK := seg.End.IsZero() || seg.End.Valid()
		if !startOK {
			verr.Add(SegmentField(i, "start"), "Invalid format.")
		}
		if !endOK {
			verr.Add(SegmentField(i, "end"), "Invalid format.")
		}
		// HH:MM:SS compares correctly as a string.
		if startOK && endOK && seg.Trimmed() && seg.End <= seg.Start {
			verr.Add(SegmentField(i, "end"), "End time must be after start time.")
		}

		segments = append(segments, seg)
	}
	return segments
}

func validateRange(verr *ValidationError, field string, value, min, max int) {
	if value < min || value > max {
		verr.Add(field, "Number must be between %d and %d.", min, max)
	}
}

func validateBitrate(verr *ValidationError, field, raw string, required bool) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		if required {
			verr.Add(field, "This field is required.")
		}
		return ""
	}
	if !bitratePattern.MatchString(value) {
		verr.Add(field, "Invalid format.")
	}
	return value
}
