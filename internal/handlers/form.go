package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

// FlashCookieName identifies the browser's pending flash messages.
const FlashCookieName = "webm_trimmer_flash"

// Form field names that have no validation error of their own.
const (
	fieldCombine     = "combine_segments"
	fieldRemoveAudio = "remove_audio"
	fieldAudioVBR    = "audio_variable_bitrate"
)

// formView holds the values shown in the form. Numbers are kept as text so
// an unparsable entry is shown back unchanged.
type formView struct {
	InputPath    string
	OutputDir    string
	OutputName   string
	Segments     []encoding.SegmentInput
	Combine      bool
	CRF          string
	Bitrate      string
	BitrateMin   string
	BitrateMax   string
	BufferSize   string
	Framerate    string
	Threads      string
	Preset       string
	RemoveAudio  bool
	AudioBitrate string
	AudioVBR     bool
}

func viewFromRequest(req encoding.Request) formView {
	segments := req.Segments
	if len(segments) == 0 {
		segments = []encoding.SegmentInput{{}}
	}
	return formView{
		InputPath:    req.InputPath,
		OutputDir:    req.OutputDir,
		OutputName:   req.OutputName,
		Segments:     segments,
		Combine:      req.Combine,
		CRF:          strconv.Itoa(req.CRF),
		Bitrate:      req.Bitrate,
		BitrateMin:   req.BitrateMin,
		BitrateMax:   req.BitrateMax,
		BufferSize:   req.BufferSize,
		Framerate:    strconv.Itoa(req.Framerate),
		Threads:      strconv.Itoa(req.Threads),
		Preset:       req.Preset,
		RemoveAudio:  req.RemoveAudio,
		AudioBitrate: req.AudioBitrate,
		AudioVBR:     req.AudioVBR,
	}
}

type formPage struct {
	Form           formView
	Errors         map[string][]string
	Flashes        []transcoder.Message
	Presets        []encoding.Preset
	MaxSegments    int
	VideoCodec     string
	AudioCodec     string
	Version        string
	PreviewEnabled bool
	AuthEnabled    bool
}

func (h *Handlers) newFormPage(ctx context.Context, view formView) formPage {
	return formPage{
		Form:           view,
		Errors:         map[string][]string{},
		Presets:        encoding.Presets(),
		MaxSegments:    encoding.MaxSegments,
		VideoCodec:     encoding.VideoCodec,
		AudioCodec:     encoding.AudioCodec,
		Version:        startup.Version,
		PreviewEnabled: h.previews != nil && h.previews.IsEnabled(),
		AuthEnabled:    h.db.HasUsers(ctx),
	}
}

func (h *Handlers) renderForm(w http.ResponseWriter, statusCode int, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := h.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		logging.Error("failed to render form: %v", err)
	}
}

// Index renders the form with the defaults and any pending flash messages.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := h.newFormPage(ctx, viewFromRequest(h.defaultRequest()))

	if cookie, err := r.Cookie(FlashCookieName); err == nil && cookie.Value != "" {
		flashes, err := h.db.PopFlashes(ctx, cookie.Value)
		if err != nil {
			logging.Error("Failed to load flash messages: %v", err)
		}
		page.Flashes = flashes
	}

	h.renderForm(w, http.StatusOK, page)
}

// Submit runs a form submission to completion, stores the resulting
// messages as flashes and redirects back to the form. Validation problems
// re-render the form instead.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	req, view, parseErr := parseSubmission(r)
	if parseErr != nil {
		if _, err := encoding.Validate(req); err != nil {
			mergeFieldErrors(parseErr, err)
		}
		page := h.newFormPage(r.Context(), view)
		page.Errors = parseErr.ByField()
		h.renderForm(w, http.StatusUnprocessableEntity, page)
		return
	}

	// The encoder runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	outcome := h.transcoder.Process(ctx, req)
	h.recordSubmission(ctx, outcome, database.SourceWeb, req)

	if outcome.Kind == transcoder.KindValidation {
		verr := &encoding.ValidationError{Fields: outcome.ValidationErrors}
		page := h.newFormPage(ctx, view)
		page.Errors = verr.ByField()
		h.renderForm(w, http.StatusUnprocessableEntity, page)
		return
	}

	key := flashKey(r)
	if err := h.db.AddFlashes(ctx, key, outcome.Messages); err != nil {
		logging.Error("Failed to store flash messages: %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func flashKey(r *http.Request) string {
	if cookie, err := r.Cookie(FlashCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	return uuid.NewString()
}

// parseSubmission reads the posted form. Integer fields that do not parse
// are reported in the returned *encoding.ValidationError.
func parseSubmission(r *http.Request) (encoding.Request, formView, *encoding.ValidationError) {
	form := r.PostForm
	verr := &encoding.ValidationError{}

	view := formView{
		InputPath:    form.Get(encoding.FieldInputPath),
		OutputDir:    form.Get(encoding.FieldOutputDir),
		OutputName:   form.Get(encoding.FieldOutputName),
		Combine:      formBool(form.Get(fieldCombine)),
		CRF:          strings.TrimSpace(form.Get(encoding.FieldCRF)),
		Bitrate:      form.Get(encoding.FieldBitrate),
		BitrateMin:   form.Get(encoding.FieldBitrateMin),
		BitrateMax:   form.Get(encoding.FieldBitrateMax),
		BufferSize:   form.Get(encoding.FieldBufferSize),
		Framerate:    strings.TrimSpace(form.Get(encoding.FieldFramerate)),
		Threads:      strings.TrimSpace(form.Get(encoding.FieldThreads)),
		Preset:       form.Get(encoding.FieldPreset),
		RemoveAudio:  formBool(form.Get(fieldRemoveAudio)),
		AudioBitrate: form.Get(encoding.FieldAudioBitrate),
		AudioVBR:     formBool(form.Get(fieldAudioVBR)),
	}

	// Rows are numbered from 0 and end at the first missing index. One row
	// past the limit is read so Validate can reject it.
	for i := 0; i <= encoding.MaxSegments; i++ {
		startKey, endKey := encoding.SegmentField(i, "start"), encoding.SegmentField(i, "end")
		_, hasStart := form[startKey]
		_, hasEnd := form[endKey]
		if !hasStart && !hasEnd {
			break
		}
		view.Segments = append(view.Segments, encoding.SegmentInput{
			Start: form.Get(startKey),
			End:   form.Get(endKey),
		})
	}

	req := encoding.Request{
		InputPath:    view.InputPath,
		OutputDir:    view.OutputDir,
		OutputName:   view.OutputName,
		Segments:     view.Segments,
		Combine:      view.Combine,
		CRF:          formInt(verr, encoding.FieldCRF, view.CRF),
		Bitrate:      view.Bitrate,
		BitrateMin:   view.BitrateMin,
		BitrateMax:   view.BitrateMax,
		BufferSize:   view.BufferSize,
		Framerate:    formInt(verr, encoding.FieldFramerate, view.Framerate),
		Threads:      formInt(verr, encoding.FieldThreads, view.Threads),
		Preset:       view.Preset,
		RemoveAudio:  view.RemoveAudio,
		AudioBitrate: view.AudioBitrate,
		AudioVBR:     view.AudioVBR,
	}

	if len(view.Segments) == 0 {
		view.Segments = []encoding.SegmentInput{{}}
	}

	if len(verr.Fields) == 0 {
		return req, view, nil
	}
	return req, view, verr
}

func formInt(verr *encoding.ValidationError, field, value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		verr.Add(field, "Not a valid integer value.")
		return 0
	}
	return n
}

// formBool treats any value except "" and "false" as checked.
func formBool(value string) bool {
	return value != "" && value != "false"
}

// mergeFieldErrors appends the problems of err for fields that dst does not
// already report.
func mergeFieldErrors(dst *encoding.ValidationError, err error) {
	var verr *encoding.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range verr.Fields {
		if !dst.Has(f.Field) {
			dst.Fields = append(dst.Fields, f)
		}
	}
}
