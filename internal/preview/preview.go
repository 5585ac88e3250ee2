package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os/exec"
	"time"

	"github.com/disintegration/imaging"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/filesystem"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
	"webm-trimmer/internal/workers"
)

// Width limits for generated previews.
const (
	DefaultWidth = 480
	MinWidth     = 64
	MaxWidth     = 1920
)

const jpegQuality = 80

// ErrDisabled is returned when previews are turned off.
var ErrDisabled = errors.New("previews are disabled")

// ErrNoFrame is returned when the decoder produced no image, typically
// because the requested time lies past the end of the input.
var ErrNoFrame = errors.New("no frame at the requested time")

// RequestError reports a bad preview parameter.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FrameGrabber extracts one frame of input at offset as PNG bytes.
type FrameGrabber interface {
	Grab(ctx context.Context, input string, at encoding.TimeCode) ([]byte, error)
}

// FFmpegGrabber grabs frames with the ffmpeg binary.
type FFmpegGrabber struct {
	Binary string
}

// Grab seeks to at and pipes a single PNG frame to stdout.
func (g FFmpegGrabber) Grab(ctx context.Context, input string, at encoding.TimeCode) ([]byte, error) {
	binary := g.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-ss", string(at),
		"-i", input,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, ErrNoFrame
	}

	logging.Debug("FFmpeg preview output size: %d bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// maxConcurrency caps simultaneous frame grabs regardless of CPU count.
const maxConcurrency = 4

// Generator renders JPEG previews of an input at a given time.
type Generator struct {
	grabber FrameGrabber
	enabled bool
	slots   chan struct{}
}

// Option customizes a Generator.
type Option func(*Generator)

// WithConcurrency limits how many frames are grabbed at once.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.slots = make(chan struct{}, n)
		}
	}
}

// New creates a Generator. A nil grabber uses ffmpeg from PATH. Concurrent
// grabs default to one per CPU, at most 4.
func New(grabber FrameGrabber, enabled bool, opts ...Option) *Generator {
	if grabber == nil {
		grabber = FFmpegGrabber{}
	}
	g := &Generator{
		grabber: grabber,
		enabled: enabled,
		slots:   make(chan struct{}, workers.ForCPU(maxConcurrency)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// acquire waits for a free grab slot or for ctx to end.
func (g *Generator) acquire(ctx context.Context) (func(), error) {
	select {
	case g.slots <- struct{}{}:
		return func() { <-g.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsEnabled reports whether previews are served.
func (g *Generator) IsEnabled() bool {
	return g.enabled
}

// Generate returns a JPEG of the frame at at, scaled down to width pixels.
// An empty at means the first frame; width 0 means DefaultWidth.
func (g *Generator) Generate(ctx context.Context, path string, at encoding.TimeCode, width int) ([]byte, error) {
	start := time.Now()
	data, err := g.generate(ctx, path, at, width)
	metrics.PreviewDuration.Observe(time.Since(start).Seconds())

	var reqErr *RequestError
	switch {
	case err == nil:
		metrics.PreviewsTotal.WithLabelValues("success").Inc()
	case errors.As(err, &reqErr), errors.Is(err, ErrDisabled):
		metrics.PreviewsTotal.WithLabelValues("failure").Inc()
	default:
		metrics.PreviewsTotal.WithLabelValues("error").Inc()
	}
	return data, err
}

func (g *Generator) generate(ctx context.Context, path string, at encoding.TimeCode, width int) ([]byte, error) {
	if !g.enabled {
		return nil, ErrDisabled
	}

	input, err := checkInput(path)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = "00:00:00"
	}
	if !at.Valid() {
		return nil, &RequestError{Field: "at", Message: "Invalid time format. Use HH:MM:SS"}
	}

	if width == 0 {
		width = DefaultWidth
	}
	if width < MinWidth || width > MaxWidth {
		return nil, &RequestError{Field: "width", Message: fmt.Sprintf("must be between %d and %d", MinWidth, MaxWidth)}
	}

	logging.Debug("Generating preview for %s at %s (width %d)", input, at, width)

	release, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}
	frame, err := g.grabber.Grab(ctx, input, at)
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to grab frame: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func checkInput(path string) (string, error) {
	if path == "" {
		return "", &RequestError{Field: "path", Message: "This field is required."}
	}

	input, err := encoding.ExpandPath(path)
	if err != nil {
		return "", &RequestError{Field: "path", Message: err.Error()}
	}
	if !encoding.HasAllowedExtension(input) {
		return "", &RequestError{Field: "path", Message: "Unsupported file extension"}
	}

	info, err := filesystem.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		return "", &RequestError{Field: "path", Message: "File does not exist"}
	}
	return input, nil
}
