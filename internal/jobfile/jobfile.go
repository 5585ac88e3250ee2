package jobfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"webm-trimmer/internal/encoding"
)

// Supported formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported job file %q: use .toml, .yaml or .yml", path)
	}
}

// Load reads a job file on top of encoding.DefaultRequest. Fields the file
// omits keep their default; unknown keys are rejected.
func Load(path string) (encoding.Request, error) {
	format, err := FormatFor(path)
	if err != nil {
		return encoding.Request{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return encoding.Request{}, fmt.Errorf("failed to read job file: %w", err)
	}

	req, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return encoding.Request{}, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	return req, nil
}

// Decode parses a job in the given format.
func Decode(r io.Reader, format string) (encoding.Request, error) {
	req := encoding.DefaultRequest()
	req.Segments = nil

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return encoding.Request{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil && err != io.EOF {
			return encoding.Request{}, err
		}
	default:
		return encoding.Request{}, fmt.Errorf("unknown job format %q", format)
	}

	if len(req.Segments) == 0 {
		req.Segments = []encoding.SegmentInput{{}}
	}
	return req, nil
}

// Encode writes req in the given format.
func Encode(w io.Writer, format string, req encoding.Request) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(req)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(req); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown job format %q", format)
	}
}
