package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride fixes the worker count regardless of CPUs, still capped by limit.
const EnvOverride = "PREVIEW_WORKERS"

// Count returns multiplier workers per available CPU, at least 1 and at most
// limit (0 means no limit). GOMAXPROCS already reflects container CPU quotas.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

// ForCPU returns one worker per CPU, for tasks like frame decoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
