package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"webm-trimmer/internal/encoding"
)

type fakeGrabber struct {
	width, height int
	err           error
	gotInput      string
	gotAt         encoding.TimeCode
}

func (f *fakeGrabber) Grab(_ context.Context, input string, at encoding.TimeCode) ([]byte, error) {
	f.gotInput = input
	f.gotAt = at
	if f.err != nil {
		return nil, f.err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for x := 0; x < f.width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	return img
}

func TestGenerateResizes(t *testing.T) {
	grabber := &fakeGrabber{width: 1280, height: 720}
	gen := New(grabber, true)
	input := writeInput(t, "clip.mp4")

	data, err := gen.Generate(context.Background(), input, "00:01:30", 320)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	img := decodeJPEG(t, data)
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("preview size = %v, want 320x180", img.Bounds().Size())
	}
	if grabber.gotAt != "00:01:30" || grabber.gotInput != input {
		t.Errorf("grabber called with %s @ %s", grabber.gotInput, grabber.gotAt)
	}
}

func TestGenerateDefaults(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	gen := New(grabber, true)

	data, err := gen.Generate(context.Background(), writeInput(t, "clip.MKV"), "", 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if grabber.gotAt != "00:00:00" {
		t.Errorf("empty time should default to the first frame, got %s", grabber.gotAt)
	}
	// Narrower than DefaultWidth: never upscaled.
	if img := decodeJPEG(t, data); img.Bounds().Dx() != 200 {
		t.Errorf("width = %d, want 200", img.Bounds().Dx())
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	gen := New(&fakeGrabber{width: 10, height: 10}, true)
	good := writeInput(t, "clip.webm")

	tests := []struct {
		name  string
		path  string
		at    encoding.TimeCode
		width int
		field string
	}{
		{"Missing path", "", "", 0, "path"},
		{"Bad extension", writeInput(t, "clip.mov"), "", 0, "path"},
		{"Nonexistent file", filepath.Join(t.TempDir(), "nope.mp4"), "", 0, "path"},
		{"Bad time", good, "1:30", 0, "at"},
		{"Too narrow", good, "", 10, "width"},
		{"Too wide", good, "", 5000, "width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.Generate(context.Background(), tt.path, tt.at, tt.width)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if reqErr.Field != tt.field {
				t.Errorf("field = %s, want %s", reqErr.Field, tt.field)
			}
		})
	}
}

func TestGenerateDisabled(t *testing.T) {
	gen := New(&fakeGrabber{width: 10, height: 10}, false)

	if gen.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	if _, err := gen.Generate(context.Background(), writeInput(t, "a.mp4"), "", 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Generate() error = %v, want ErrDisabled", err)
	}
}

func TestGenerateGrabberFailure(t *testing.T) {
	gen := New(&fakeGrabber{err: ErrNoFrame}, true)

	_, err := gen.Generate(context.Background(), writeInput(t, "a.avi"), "10:00:00", 0)
	if !errors.Is(err, ErrNoFrame) {
		t.Errorf("Generate() error = %v, want ErrNoFrame", err)
	}
}

func TestFFmpegGrabberMissingBinary(t *testing.T) {
	g := FFmpegGrabber{Binary: filepath.Join(t.TempDir(), "no-ffmpeg")}

	if _, err := g.Grab(context.Background(), "in.mp4", "00:00:01"); err == nil {
		t.Error("expected an error for a missing binary")
	}
}

// blockingGrabber holds every grab until release is closed.
type blockingGrabber struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGrabber) Grab(ctx context.Context, _ string, _ encoding.TimeCode) ([]byte, error) {
	b.started <- struct{}{}
	<-b.release
	return (&fakeGrabber{width: 8, height: 8}).Grab(ctx, "", "")
}

func TestGenerateConcurrencyLimit(t *testing.T) {
	grabber := &blockingGrabber{started: make(chan struct{}, 2), release: make(chan struct{})}
	gen := New(grabber, true, WithConcurrency(1))
	input := writeInput(t, "clip.mp4")

	done := make(chan error, 1)
	go func() {
		_, err := gen.Generate(context.Background(), input, "", 0)
		done <- err
	}()
	<-grabber.started

	// The only slot is taken, so a second request waits until its context ends.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.Generate(ctx, input, "", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("second Generate() error = %v, want context.Canceled", err)
	}

	close(grabber.release)
	if err := <-done; err != nil {
		t.Errorf("first Generate() error = %v", err)
	}
}
