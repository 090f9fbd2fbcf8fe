package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "covmut", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{
		verboseFlagName, logFileFlagName, plainFlagName, rememberSkipsFlagName,
		coverageDirFlagName, mutationDirFlagName, coverageTableFlagName, mutationTableFlagName, skipTableFlagName,
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "checkpointing every result")
}

func TestInit(t *testing.T) {
	assert.NotNil(t, fsAdapter)
	assert.NotNil(t, processRunner)
	assert.NotNil(t, correlator)
}

func TestNewWorkflow(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})

	assert.NotNil(t, newWorkflow(cmd))
}

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() { rootCmd = originalRootCmd }()

	mockCmd := &cobra.Command{
		Use:  "test",
		RunE: func(*cobra.Command, []string) error { return nil },
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	Execute()
}

func executeInSubprocess(t *testing.T, testName, envKey string) ([]byte, error) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^"+testName+"$")
	cmd.Env = append(os.Environ(), envKey+"=1")

	return cmd.CombinedOutput()
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		rootCmd = &cobra.Command{
			Use: "test",
			RunE: func(*cobra.Command, []string) error {
				fmt.Println("success")
				return nil
			},
		}

		Execute()
		return
	}

	output, err := executeInSubprocess(t, "TestExecute_ProcessLevel_Success", "TEST_EXECUTE_SUBPROCESS")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "success")
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		rootCmd = &cobra.Command{
			Use: "test",
			RunE: func(*cobra.Command, []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}

		Execute()
		return
	}

	output, err := executeInSubprocess(t, "TestExecute_ProcessLevel_Failure", "TEST_EXECUTE_SUBPROCESS_FAIL")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(output), "error occurred")
}

func TestExecute_ProcessLevel_Interrupted(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_INT") == "1" {
		rootCmd = &cobra.Command{
			Use: "test",
			RunE: func(*cobra.Command, []string) error {
				return fmt.Errorf("batch interrupted: %w", context.Canceled)
			},
		}

		Execute()
		return
	}

	_, err := executeInSubprocess(t, "TestExecute_ProcessLevel_Interrupted", "TEST_EXECUTE_SUBPROCESS_INT")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitInterrupted, exitErr.ExitCode())
}
