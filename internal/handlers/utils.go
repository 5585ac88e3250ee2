package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/transcoder"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; the status line has already been sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// recordSubmission stores o in the history. Failures are logged only: the
// submission itself already ran.
func (h *Handlers) recordSubmission(ctx context.Context, o *transcoder.Outcome, source string, req encoding.Request) {
	s := database.NewSubmission(o, source, req.InputPath, req.OutputDir, req.OutputName)
	if err := h.db.RecordSubmission(ctx, s); err != nil {
		logging.Error("Failed to record submission %s: %v", o.ID, err)
	}
}
