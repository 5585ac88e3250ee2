package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
)

// RetryConfig configures retries of stale file handle errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the settings used by Stat.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

var statFunc = os.Stat

// Stat is os.Stat with DefaultRetryConfig.
func Stat(path string) (os.FileInfo, error) {
	return StatWithRetry(path, DefaultRetryConfig())
}

// StatWithRetry calls os.Stat, retrying only ESTALE errors.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		info, err := statFunc(path)
		if err == nil {
			if attempt > 0 {
				logging.Info("Stat of %s succeeded on retry %d", path, attempt)
				metrics.FilesystemRetries.WithLabelValues("stat", "success").Inc()
			}
			return info, nil
		}
		if !isStale(err) {
			return nil, err
		}

		lastErr = err
		metrics.FilesystemStaleErrors.WithLabelValues("stat").Inc()

		if attempt < config.MaxRetries {
			logging.Debug("Stale file handle for %s, retrying in %v (attempt %d/%d)",
				path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("Stat of %s failed after %d retries: %v", path, config.MaxRetries, lastErr)
	metrics.FilesystemRetries.WithLabelValues("stat", "failure").Inc()
	return nil, lastErr
}

func isStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}
