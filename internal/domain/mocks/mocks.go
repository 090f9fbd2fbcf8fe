// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/covmut/internal/domain"
	m "gooze.dev/pkg/covmut/internal/model"
)

// MockWorkflow is a mock domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow that asserts its expectations when
// the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	wf := &MockWorkflow{}
	wf.Test(t)
	t.Cleanup(func() { wf.AssertExpectations(t) })

	return wf
}

// Run implements domain.Workflow.
func (w *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) error {
	return w.Called(ctx, args).Error(0)
}

// Status implements domain.Workflow.
func (w *MockWorkflow) Status(ctx context.Context, args domain.StatusArgs) error {
	return w.Called(ctx, args).Error(0)
}

// Correlate implements domain.Workflow.
func (w *MockWorkflow) Correlate(ctx context.Context, args domain.CorrelateArgs) error {
	return w.Called(ctx, args).Error(0)
}

// MockCorrelator is a mock domain.Correlator.
type MockCorrelator struct {
	mock.Mock
}

// AnalyzeProject implements domain.Correlator.
func (c *MockCorrelator) AnalyzeProject(ctx context.Context, dir m.Path, opts domain.CorrelationOptions) (m.ProjectSummary, error) {
	args := c.Called(ctx, dir, opts)

	summary, _ := args.Get(0).(m.ProjectSummary)

	return summary, args.Error(1)
}

// AnalyzeAll implements domain.Correlator.
func (c *MockCorrelator) AnalyzeAll(ctx context.Context, root m.Path, opts domain.CorrelationOptions) ([]domain.ProjectResult, error) {
	args := c.Called(ctx, root, opts)

	results, _ := args.Get(0).([]domain.ProjectResult)

	return results, args.Error(1)
}
