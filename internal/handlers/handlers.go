package handlers

import (
	"embed"
	"html/template"
	"time"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/preview"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxBodyBytes bounds form and JSON submissions.
const maxBodyBytes = 1 << 20

// Handlers serves the web form, the JSON API and the auxiliary endpoints.
type Handlers struct {
	db               *database.Database
	transcoder       *transcoder.Transcoder
	previews         *preview.Generator
	templates        *template.Template
	defaultOutputDir string
	ffmpegAvailable  bool
	startedAt        time.Time
}

// New creates the handler set. ffmpegAvailable is the result of the startup
// check and is reported by the readiness probe.
func New(db *database.Database, trans *transcoder.Transcoder, previews *preview.Generator, config *startup.Config, ffmpegAvailable bool) *Handlers {
	return &Handlers{
		db:               db,
		transcoder:       trans,
		previews:         previews,
		templates:        parseTemplates(),
		defaultOutputDir: config.DefaultOutputDir,
		ffmpegAvailable:  ffmpegAvailable,
		startedAt:        time.Now(),
	}
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"segField": encoding.SegmentField,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// defaultRequest is the form default with the configured output directory.
func (h *Handlers) defaultRequest() encoding.Request {
	req := encoding.DefaultRequest()
	if h.defaultOutputDir != "" {
		req.OutputDir = h.defaultOutputDir
	}
	return req
}
