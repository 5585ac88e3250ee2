package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"webm-trimmer/internal/logging"
)

// RunResult is what a Runner reports for a process that started.
type RunResult struct {
	ExitCode int
	Stderr   string
}

// Runner executes one ffmpeg invocation and waits for it to finish.
// A non-zero exit is reported through RunResult, not as an error; the error
// is reserved for processes that could not be run at all.
type Runner interface {
	Run(ctx context.Context, args []string) (RunResult, error)
}

// ExecRunner runs the ffmpeg binary as a subprocess.
//
// Started processes are never cancelled through the context: the encoder is
// trusted to terminate. The only way to stop one is Cleanup at shutdown.
type ExecRunner struct {
	binary    string
	processes map[*exec.Cmd]string
	processMu sync.Mutex
}

// NewExecRunner creates a runner for the given binary (name or path).
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{
		binary:    binary,
		processes: make(map[*exec.Cmd]string),
	}
}

// Binary returns the configured executable.
func (r *ExecRunner) Binary() string {
	return r.binary
}

// Run starts the binary with args, capturing stderr, and blocks until it exits.
func (r *ExecRunner) Run(ctx context.Context, args []string) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("not starting %s: %w", r.binary, err)
	}

	cmd := exec.Command(r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("failed to start %s: %w", r.binary, err)
	}

	output := ""
	if len(args) > 0 {
		output = args[len(args)-1]
	}
	r.track(cmd, output)
	defer r.untrack(cmd)

	err := cmd.Wait()
	if err == nil {
		return RunResult{ExitCode: 0, Stderr: stderr.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code == 0 {
			// Killed by a signal: ExitCode reports -1 on most platforms, but
			// never treat an abnormal termination as success.
			code = -1
		}
		return RunResult{ExitCode: code, Stderr: stderr.String()}, nil
	}

	return RunResult{}, fmt.Errorf("%s failed: %w", r.binary, err)
}

func (r *ExecRunner) track(cmd *exec.Cmd, output string) {
	r.processMu.Lock()
	r.processes[cmd] = output
	r.processMu.Unlock()
}

func (r *ExecRunner) untrack(cmd *exec.Cmd) {
	r.processMu.Lock()
	delete(r.processes, cmd)
	r.processMu.Unlock()
}

// Active returns the number of running processes.
func (r *ExecRunner) Active() int {
	r.processMu.Lock()
	defer r.processMu.Unlock()
	return len(r.processes)
}

// Cleanup kills every running process. It is only used on shutdown.
func (r *ExecRunner) Cleanup() {
	r.processMu.Lock()
	defer r.processMu.Unlock()

	for cmd, output := range r.processes {
		if cmd.Process != nil {
			logging.Info("Killing encoder process writing %s", output)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill encoder process for %s: %v", output, err)
			}
		}
	}
}
