package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("unexpected platform %s/%s", info.OS, info.Arch)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{"Returns default when env var not set", "TEST_UNSET_VAR", "default", "", "default", false},
		{"Returns env value when set", "TEST_SET_VAR", "default", "custom", "custom", true},
		{"Returns default when env var is empty", "TEST_EMPTY_VAR", "default", "", "default", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"Empty uses default true", "", true, true},
		{"Empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
		{"Invalid uses default", "yes-please", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.value)
			if got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "METRICS_PORT", "METRICS_ENABLED", "DATABASE_DIR", "FFMPEG_PATH",
		"DEFAULT_OUTPUT_DIR", "PREVIEW_ENABLED", "SESSION_DURATION", "LOG_STATIC_FILES", "LOG_HEALTH_CHECKS"} {
		t.Setenv(key, "")
	}
}

func TestReadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Port != "8080" || cfg.MetricsPort != "9090" || !cfg.MetricsEnabled {
		t.Errorf("unexpected ports %+v", cfg)
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.DefaultOutputDir != "~/Desktop" || !cfg.PreviewEnabled {
		t.Errorf("unexpected encoder defaults %+v", cfg)
	}
	if cfg.SessionDuration != 7*24*time.Hour {
		t.Errorf("SessionDuration = %v", cfg.SessionDuration)
	}

	wantDir := filepath.Join(home, ".local", "share", "webm-trimmer")
	if cfg.DatabaseDir != wantDir {
		t.Errorf("DatabaseDir = %s, want %s", cfg.DatabaseDir, wantDir)
	}
	if cfg.DatabasePath != filepath.Join(wantDir, DatabaseFile) {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if _, err := os.Stat(wantDir); !os.IsNotExist(err) {
		t.Error("ReadConfig must not create directories")
	}
}

func TestReadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	dbDir := t.TempDir()
	t.Setenv("PORT", "3000")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_PORT", "3000")
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("PREVIEW_ENABLED", "false")
	t.Setenv("SESSION_DURATION", "2h")

	cfg, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Port != "3000" || cfg.MetricsEnabled || cfg.PreviewEnabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DatabaseDir != dbDir || cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("paths not applied: %+v", cfg)
	}
	if cfg.SessionDuration != 2*time.Hour {
		t.Errorf("SessionDuration = %v, want 2h", cfg.SessionDuration)
	}
}

func TestReadConfigPortClash(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("PORT", "9090")

	if _, err := ReadConfig(); err == nil {
		t.Error("expected an error when PORT equals METRICS_PORT")
	}
}

func TestReadConfigInvalidSessionDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("SESSION_DURATION", "forever")

	cfg, err := ReadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionDuration != 7*24*time.Hour {
		t.Errorf("invalid duration should fall back to 168h, got %v", cfg.SessionDuration)
	}
}

func TestEnsureDatabaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	cfg := &Config{DatabaseDir: dir}

	if err := EnsureDatabaseDir(cfg); err != nil {
		t.Fatalf("EnsureDatabaseDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDatabaseDir(&Config{DatabaseDir: file}); err == nil {
		t.Error("expected an error when the path is a file")
	}
}

func TestCheckFFmpeg(t *testing.T) {
	if _, err := CheckFFmpeg(filepath.Join(t.TempDir(), "missing-ffmpeg")); err == nil {
		t.Error("expected an error for a missing binary")
	}

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) 2000-2024'\necho 'built with gcc'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	version, err := CheckFFmpeg(bin)
	if err != nil {
		t.Fatalf("CheckFFmpeg() error = %v", err)
	}
	if version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Errorf("version = %q", version)
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/", func(_ http.ResponseWriter, _ *http.Request) {}).Methods("GET", "POST")
	router.HandleFunc("/api/jobs/{id}", func(_ http.ResponseWriter, _ *http.Request) {}).Methods("GET").Name("job")
	router.HandleFunc("/health", func(_ http.ResponseWriter, _ *http.Request) {})

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("expected 4 routes, got %d: %+v", len(routes), routes)
	}

	found := false
	for _, r := range routes {
		if r.Path == "/api/jobs/{id}" && r.Method == "GET" && r.Name == "job" {
			found = true
		}
		if r.Path == "/health" && r.Method != "*" {
			t.Errorf("route without methods should report *, got %s", r.Method)
		}
	}
	if !found {
		t.Errorf("named route missing from %+v", routes)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", ""},
		{"/health", "health"},
		{"/api/jobs", "api/jobs"},
		{"/api/jobs/{id}", "api/jobs"},
		{"/login", "login"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
