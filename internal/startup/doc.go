// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables by [ReadConfig];
// [LoadConfig] additionally prints the banner and prepares the database
// directory. Supported variables:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - DATABASE_DIR: Directory holding the SQLite database and the instance
//     lock (default: ~/.local/share/webm-trimmer)
//   - FFMPEG_PATH: Encoder binary, name or path (default: ffmpeg)
//   - DEFAULT_OUTPUT_DIR: Output directory pre-filled in the form (default: ~/Desktop)
//   - PREVIEW_ENABLED: Serve frame previews (default: true)
//   - SESSION_DURATION: Login session lifetime as Go duration (default: 168h)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_STATIC_FILES: Log static asset requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health probe requests (default: true)
//
// # Build Information
//
// Version, Commit and BuildTime are injected at build time:
//
//	go build -ldflags "-X webm-trimmer/internal/startup.Version=1.0.0" ./cmd/webm-trimmer
package startup
