package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/covmut/internal/domain"
	m "gooze.dev/pkg/covmut/internal/model"
)

func TestStatusCmd_UsesClassFileAndLayout(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.On("Status", mock.Anything, domain.StatusArgs{
		Classes: m.Path("math_classes.txt"),
		Layout:  outputLayout(),
	}).Return(nil)

	cmd := newTestRootCmd(newStatusCmd)
	cmd.SetArgs([]string{"status", "math_classes.txt"})

	require.NoError(t, cmd.Execute())
}

func TestStatusCmd_PropagatesError(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.On("Status", mock.Anything, mock.Anything).Return(errors.New("boom"))

	cmd := newTestRootCmd(newStatusCmd)
	cmd.SetArgs([]string{"status"})

	assert.EqualError(t, cmd.Execute(), "boom")
}

func TestNewStatusCmd(t *testing.T) {
	cmd := newStatusCmd()

	assert.Equal(t, "status [classes-file]", cmd.Use)
	assert.Equal(t, statusLongDescription, cmd.Long)
}
