package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// DatabaseFile is the SQLite file name inside DATABASE_DIR.
const DatabaseFile = "webm-trimmer.db"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port             string
	MetricsPort      string
	MetricsEnabled   bool
	DatabaseDir      string
	FFmpegPath       string
	DefaultOutputDir string
	PreviewEnabled   bool
	LogStaticFiles   bool
	LogHealthChecks  bool
	SessionDuration  time.Duration

	// Derived paths
	DatabasePath string
	LockPath     string
}

// ReadConfig reads configuration from environment variables. It does not
// touch the filesystem.
func ReadConfig() (*Config, error) {
	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "168h"))
	if err != nil || sessionDuration <= 0 {
		logging.Warn("Invalid SESSION_DURATION, using default: 168h")
		sessionDuration = 7 * 24 * time.Hour
	}

	databaseDir, err := encoding.ExpandPath(getEnv("DATABASE_DIR", "~/.local/share/webm-trimmer"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		DatabaseDir:      databaseDir,
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		DefaultOutputDir: getEnv("DEFAULT_OUTPUT_DIR", "~/Desktop"),
		PreviewEnabled:   getEnvBool("PREVIEW_ENABLED", true),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
		SessionDuration:  sessionDuration,
		DatabasePath:     filepath.Join(databaseDir, DatabaseFile),
		LockPath:         filepath.Join(databaseDir, "webm-trimmer.lock"),
	}

	if cfg.Port == cfg.MetricsPort && cfg.MetricsEnabled {
		return nil, fmt.Errorf("PORT and METRICS_PORT must differ (both %s)", cfg.Port)
	}
	return cfg, nil
}

// LoadConfig prints the startup banner, reads the configuration and
// prepares the database directory.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := ReadConfig()
	if err != nil {
		return nil, err
	}

	logging.Section("CONFIGURATION")
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  FFMPEG_PATH:         %s", cfg.FFmpegPath)
	logging.Info("  DEFAULT_OUTPUT_DIR:  %s", cfg.DefaultOutputDir)
	logging.Info("  PREVIEW_ENABLED:     %v", cfg.PreviewEnabled)
	logging.Info("  SESSION_DURATION:    %v", cfg.SessionDuration)
	logging.Info("  LOG_STATIC_FILES:    %v", cfg.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Section("DIRECTORY SETUP")
	if err := EnsureDatabaseDir(cfg); err != nil {
		return nil, err
	}
	logging.Info("  [OK] Database directory is writable")

	if _, err := encoding.ExpandPath(cfg.DefaultOutputDir); err != nil {
		logging.Warn("  Default output directory cannot be resolved: %v", err)
	}

	return cfg, nil
}

// EnsureDatabaseDir creates the database directory and checks it is writable.
func EnsureDatabaseDir(cfg *Config) error {
	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogEncoderInit checks the ffmpeg binary and reports feature availability.
// It returns whether ffmpeg was found.
func LogEncoderInit(cfg *Config, authEnabled bool) bool {
	logging.Section("ENCODER INITIALIZATION")

	available := true
	if version, err := CheckFFmpeg(cfg.FFmpegPath); err != nil {
		available = false
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Submissions will fail until %s is installed", cfg.FFmpegPath)
	} else {
		logging.Info("  [OK] FFmpeg is available: %s", version)
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Encoding:    %s", enabledString(available))
	logging.Info("    Previews:    %s", enabledString(available && cfg.PreviewEnabled))
	logging.Info("    Login:       %s", enabledString(authEnabled))
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))
	return available
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
                 _                  _           _
 __      _____| |__  _ __ ___     | |_ _ __(_)_ __ ___  _ __ ___   ___ _ __
 \ \ /\ / / _ \ '_ \| '_ ' _ \ ___| __| '__| | '_ ' _ \| '_ ' _ \ / _ \ '__|
  \ V  V /  __/ |_) | | | | | |___| |_| |  | | | | | | | | | | | |  __/ |
   \_/\_/ \___|_.__/|_| |_| |_|    \__|_|  |_|_| |_| |_|_| |_| |_|\___|_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logging.Section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// CheckFFmpeg verifies that binary runs and returns the first line of its
// version banner.
func CheckFFmpeg(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", binary)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
