// Package mocks provides testify mocks for the adapter interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

// MockProcessRunner is a mock adapter.ProcessRunner.
type MockProcessRunner struct {
	mock.Mock
}

// NewMockProcessRunner creates a MockProcessRunner that asserts its
// expectations when the test ends.
func NewMockProcessRunner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProcessRunner {
	runner := &MockProcessRunner{}
	runner.Test(t)
	t.Cleanup(func() { runner.AssertExpectations(t) })

	return runner
}

// Run implements adapter.ProcessRunner.
func (r *MockProcessRunner) Run(ctx context.Context, command string, timeout time.Duration) (adapter.ProcessResult, error) {
	args := r.Called(ctx, command, timeout)

	if fn, ok := args.Get(0).(func(context.Context, string, time.Duration) (adapter.ProcessResult, error)); ok {
		return fn(ctx, command, timeout)
	}

	return args.Get(0).(adapter.ProcessResult), args.Error(1)
}

// MockPlotter is a mock adapter.Plotter.
type MockPlotter struct {
	mock.Mock
}

// ScatterPlot implements adapter.Plotter.
func (p *MockPlotter) ScatterPlot(ctx context.Context, spec adapter.ScatterSpec, path m.Path) error {
	return p.Called(ctx, spec, path).Error(0)
}

// MockMetricTableReader is a mock adapter.MetricTableReader.
type MockMetricTableReader struct {
	mock.Mock
}

// ReadMetric implements adapter.MetricTableReader.
func (r *MockMetricTableReader) ReadMetric(ctx context.Context, path m.Path, column string) ([]m.ClassMetric, error) {
	args := r.Called(ctx, path, column)

	metrics, _ := args.Get(0).([]m.ClassMetric)

	return metrics, args.Error(1)
}
