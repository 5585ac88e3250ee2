package handlers

import (
	"net/http"
	"runtime"
	"time"

	"webm-trimmer/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	FFmpeg   bool   `json:"ffmpeg"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	TotalSubmissions int `json:"totalSubmissions"`
}

// HealthCheck reports database reachability and encoder availability.
// A missing encoder degrades the service; an unreachable database fails it.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Version:      startup.Version,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Database:     "ok",
		FFmpeg:       h.ffmpegAvailable,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	dbErr := h.db.Ping(r.Context())
	switch {
	case dbErr != nil:
		response.Status = statusUnhealthy
		response.Database = dbErr.Error()
	case !h.ffmpegAvailable:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
		response.Ready = true
	}

	if dbErr == nil {
		response.TotalSubmissions = h.db.GetStats().TotalSubmissions
	}

	statusCode := http.StatusOK
	if dbErr != nil {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, statusCode, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when submissions can be processed: the
// database answers and the encoder was found at startup.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ffmpegAvailable && h.db.Ping(r.Context()) == nil {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
