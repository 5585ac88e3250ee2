package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/transcoder"
)

// HistoryResponse is the body of GET /api/jobs.
type HistoryResponse struct {
	Submissions []database.Submission `json:"submissions"`
	Total       int                   `json:"total"`
}

// DefaultsResponse is the body of GET /api/defaults.
type DefaultsResponse struct {
	Request     encoding.Request  `json:"request"`
	Presets     []encoding.Preset `json:"presets"`
	VideoCodec  string            `json:"videoCodec"`
	AudioCodec  string            `json:"audioCodec"`
	MaxSegments int               `json:"maxSegments"`
}

// statusForOutcome maps how a submission ended to the API status code.
func statusForOutcome(o *transcoder.Outcome) int {
	switch o.Kind {
	case transcoder.KindNone:
		return http.StatusOK
	case transcoder.KindValidation:
		return http.StatusUnprocessableEntity
	case transcoder.KindSegment, transcoder.KindConcat:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CreateJob runs a JSON submission to completion and returns its outcome.
// Fields missing from the body take the form defaults.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	req := h.defaultRequest()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	outcome := h.transcoder.Process(ctx, req)
	h.recordSubmission(ctx, outcome, database.SourceAPI, req)

	writeJSONStatus(w, statusForOutcome(outcome), outcome)
}

// ListJobs returns the most recent submissions, newest first.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := database.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	submissions, err := h.db.ListSubmissions(ctx, limit)
	if err != nil {
		logging.Error("Failed to list submissions: %v", err)
		writeJSONError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	total, err := h.db.CountSubmissions(ctx)
	if err != nil {
		logging.Error("Failed to count submissions: %v", err)
		total = len(submissions)
	}

	writeJSONStatus(w, http.StatusOK, HistoryResponse{Submissions: submissions, Total: total})
}

// GetJob returns one history record.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	submission, err := h.db.GetSubmission(r.Context(), id)
	if errors.Is(err, database.ErrSubmissionNotFound) {
		writeJSONError(w, "Submission not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Failed to load submission %s: %v", id, err)
		writeJSONError(w, "Failed to load submission", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, submission)
}

// GetDefaults returns the form defaults and the accepted presets.
func (h *Handlers) GetDefaults(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, DefaultsResponse{
		Request:     h.defaultRequest(),
		Presets:     encoding.Presets(),
		VideoCodec:  encoding.VideoCodec,
		AudioCodec:  encoding.AudioCodec,
		MaxSegments: encoding.MaxSegments,
	})
}
