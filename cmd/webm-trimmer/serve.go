package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"webm-trimmer/internal/database"
	"webm-trimmer/internal/handlers"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
	"webm-trimmer/internal/middleware"
	"webm-trimmer/internal/preview"
	"webm-trimmer/internal/startup"
	"webm-trimmer/internal/transcoder"
)

const (
	cleanupInterval   = time.Hour
	collectorInterval = 30 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and JSON API",
		Long: `Run the web form and JSON API.

Configuration is read from the environment (PORT, METRICS_PORT,
DATABASE_DIR, FFMPEG_PATH, ...). Only one server may use a database
directory at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	lock := flock.New(config.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another webm-trimmer server is already using %s", config.DatabaseDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Warn("failed to release lock: %v", err)
		}
	}()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	db.SetSessionDuration(config.SessionDuration)
	startup.LogDatabaseInit(time.Since(dbStart))

	ffmpegAvailable := startup.LogEncoderInit(config, db.HasUsers(ctx))

	runner := transcoder.NewExecRunner(config.FFmpegPath)
	trans := transcoder.New(runner, filepath.Base(config.FFmpegPath))
	previews := preview.New(preview.FFmpegGrabber{Binary: config.FFmpegPath}, config.PreviewEnabled && ffmpegAvailable)

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(db, config.DatabasePath, collectorInterval)
	collector.Start()
	defer collector.Stop()

	go cleanupLoop(ctx, db)

	h := handlers.New(db, trans, previews, config, ffmpegAvailable)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           buildHandler(h, router, config),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Submissions block until every encoder run has finished.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdown(srv, metricsSrv, trans)
	return nil
}

// setupRouter registers every route. Metrics are recorded inside the
// router so requests are labelled with their route template.
func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/login", h.LoginPage).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("POST")

	// Form
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/", h.Submit).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/defaults", h.GetDefaults).Methods("GET")
	api.HandleFunc("/preview", h.Preview).Methods("GET")

	return r
}

// buildHandler wraps the router with authentication, access logging and
// compression, outermost last.
func buildHandler(h *handlers.Handlers, router http.Handler, config *startup.Config) http.Handler {
	handler := h.AuthMiddleware(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

// cleanupLoop purges expired sessions and flash messages until ctx ends.
func cleanupLoop(ctx context.Context, db *database.Database) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.CleanExpired(ctx); err != nil {
				logging.Warn("Failed to clean expired sessions: %v", err)
			}
		}
	}
}

func shutdown(srv, metricsSrv *http.Server, trans *transcoder.Transcoder) {
	startup.LogShutdownInitiated("signal")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping running encoders")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Encoders stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
