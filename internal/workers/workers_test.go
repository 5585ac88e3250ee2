package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per CPU", 1.0, 0, cpus},
		{"two per CPU", 2.0, 0, cpus * 2},
		{"capped", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		env   string
		limit int
		want  int
	}{
		{"3", 0, 3},
		{"10", 4, 4},
		{"0", 1, 1},
		{"abc", 1, 1},
		{"-2", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count() with %s=%q = %d, want %d", EnvOverride, tt.env, got, tt.want)
			}
		})
	}
}

func TestForCPU(t *testing.T) {
	t.Setenv(EnvOverride, "")
	got := ForCPU(4)
	if got < 1 || got > 4 {
		t.Errorf("ForCPU(4) = %d, want 1..4", got)
	}
}
