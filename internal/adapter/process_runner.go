package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process has
// been killed; grandchildren of the shell may keep them open.
const waitDelay = 2 * time.Second

// ProcessResult is the captured outcome of one external command.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (r ProcessResult) Combined() string {
	return r.Stdout + r.Stderr
}

// ProcessRunner executes external analysis commands.
type ProcessRunner interface {
	// Run executes command through the shell and waits at most timeout.
	// A non-zero exit status is reported in the result, not as an error, and
	// so is a timeout. Launch failures and cancellation of ctx are errors.
	Run(ctx context.Context, command string, timeout time.Duration) (ProcessResult, error)
}

// ShellProcessRunner runs commands with `sh -c`.
type ShellProcessRunner struct {
	shell string
}

// NewShellProcessRunner constructs a ShellProcessRunner.
func NewShellProcessRunner() *ShellProcessRunner {
	return &ShellProcessRunner{shell: "sh"}
}

// Run implements ProcessRunner.
func (r *ShellProcessRunner) Run(ctx context.Context, command string, timeout time.Duration) (ProcessResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.shell, "-c", command)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running command", "command", command, "timeout", timeout)

	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ProcessResult{}, fmt.Errorf("run %q: %w", command, ctxErr)
	}

	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		slog.Warn("Command timed out", "command", command, "timeout", timeout)
		return timeoutResult(timeout), nil
	}

	result := ProcessResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			slog.Error("Failed to run command", "command", command, "error", err)
			return ProcessResult{}, fmt.Errorf("run %q: %w", command, err)
		}

		result.ExitCode = exitErr.ExitCode()
	}

	slog.Debug("Command finished", "command", command, "exitCode", result.ExitCode)

	return result, nil
}

func timeoutResult(timeout time.Duration) ProcessResult {
	seconds := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)

	return ProcessResult{
		Stdout:   "",
		Stderr:   "Timeout after " + seconds + " seconds",
		ExitCode: 1,
	}
}
