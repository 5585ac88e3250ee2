package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/preview"
)

// Preview returns a JPEG of one frame of the input.
//
// Query parameters: path (required), at (HH:MM:SS, default start of file)
// and width (pixels, default 480).
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	if h.previews == nil {
		writeJSONError(w, "Previews are disabled", http.StatusNotFound)
		return
	}

	q := r.URL.Query()

	width := 0
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": "width must be an integer", "field": "width"})
			return
		}
		width = n
	}

	data, err := h.previews.Generate(r.Context(), q.Get("path"), encoding.TimeCode(q.Get("at")), width)
	if err != nil {
		var reqErr *preview.RequestError
		switch {
		case errors.As(err, &reqErr):
			writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": reqErr.Message, "field": reqErr.Field})
		case errors.Is(err, preview.ErrDisabled):
			writeJSONError(w, "Previews are disabled", http.StatusNotFound)
		case errors.Is(err, preview.ErrNoFrame):
			writeJSONError(w, "No frame at the requested time", http.StatusUnprocessableEntity)
		default:
			logging.Warn("Preview failed: %v", err)
			writeJSONError(w, "Failed to generate preview", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write preview: %v", err)
	}
}
