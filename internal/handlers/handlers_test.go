package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/preview"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

// fakeRunner answers every encoder invocation with exitCode and stderr.
type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	exitCode int
	stderr   string
}

func (f *fakeRunner) Run(_ context.Context, args []string) (transcoder.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return transcoder.RunResult{ExitCode: f.exitCode, Stderr: f.stderr}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// pngGrabber returns a solid PNG frame of the given size.
type pngGrabber struct {
	width, height int
}

func (g pngGrabber) Grab(_ context.Context, _ string, _ encoding.TimeCode) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type testEnv struct {
	h      *Handlers
	db     *database.Database
	runner *fakeRunner
	dir    string
	input  string
}

func setupTestHandlers(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	input := filepath.Join(dir, "input.mkv")
	if err := os.WriteFile(input, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	runner := &fakeRunner{}
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	trans := transcoder.New(runner, "ffmpeg", transcoder.WithClock(func() time.Time { return now }))
	previews := preview.New(pngGrabber{width: 960, height: 540}, true)

	h := New(db, trans, previews, &startup.Config{DefaultOutputDir: "~/Videos"}, true)
	return &testEnv{h: h, db: db, runner: runner, dir: dir, input: input}
}

// formValues is a complete, valid form submission for env.
func (env *testEnv) formValues() url.Values {
	return url.Values{
		encoding.FieldInputPath:          {env.input},
		encoding.FieldOutputDir:          {env.dir},
		encoding.FieldOutputName:         {"clip"},
		encoding.SegmentField(0, "start"): {""},
		encoding.SegmentField(0, "end"):   {""},
		encoding.FieldCRF:                {"20"},
		encoding.FieldBitrate:            {"1500K"},
		encoding.FieldBitrateMin:         {"100K"},
		encoding.FieldBitrateMax:         {"2000K"},
		encoding.FieldBufferSize:         {"1000K"},
		encoding.FieldFramerate:          {"30"},
		encoding.FieldThreads:            {"6"},
		encoding.FieldPreset:             {"medium"},
		encoding.FieldAudioBitrate:       {"50K"},
		"audio_variable_bitrate":         {"y"},
	}
}

func postForm(h http.HandlerFunc, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
