package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellProcessRunner_Run_Success(t *testing.T) {
	runner := NewShellProcessRunner()

	result, err := runner.Run(context.Background(), "echo out; echo err >&2", 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "out\nerr\n", result.Combined())
}

func TestShellProcessRunner_Run_NonZeroExit(t *testing.T) {
	runner := NewShellProcessRunner()

	result, err := runner.Run(context.Background(), "echo broken >&2; exit 3", 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "broken\n", result.Stderr)
}

func TestShellProcessRunner_Run_Timeout(t *testing.T) {
	runner := NewShellProcessRunner()

	start := time.Now()
	result, err := runner.Run(context.Background(), "sleep 10", 200*time.Millisecond)
	require.NoError(t, err, "a timeout must not be returned as an error")

	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "Timeout")
	assert.Equal(t, "Timeout after 0.2 seconds", result.Stderr)
	assert.Empty(t, result.Stdout)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestShellProcessRunner_Run_LaunchFailure(t *testing.T) {
	runner := &ShellProcessRunner{shell: "/nonexistent/shell"}

	_, err := runner.Run(context.Background(), "true", time.Second)
	require.Error(t, err)
}

func TestShellProcessRunner_Run_ParentCancelled(t *testing.T) {
	runner := NewShellProcessRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, "true", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutResult_WholeSeconds(t *testing.T) {
	result := timeoutResult(300 * time.Second)
	assert.Equal(t, "Timeout after 300 seconds", result.Stderr)
	assert.Equal(t, 1, result.ExitCode)
}
