// Package mocks provides testify mocks for the controller interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/covmut/internal/controller"
	m "gooze.dev/pkg/covmut/internal/model"
)

// MockUI is a mock controller.UI.
type MockUI struct {
	mock.Mock
}

// NewMockUI creates a MockUI that asserts its expectations when the test ends.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Test(t)
	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

// Start implements controller.UI.
func (u *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	return u.Called(ctx, options).Error(0)
}

// Close implements controller.UI.
func (u *MockUI) Close(ctx context.Context) {
	u.Called(ctx)
}

// DisplayQueueInfo implements controller.UI.
func (u *MockUI) DisplayQueueInfo(ctx context.Context, total, completed, remaining int) {
	u.Called(ctx, total, completed, remaining)
}

// DisplayClassStarted implements controller.UI.
func (u *MockUI) DisplayClassStarted(ctx context.Context, position, total int, class m.ClassID) {
	u.Called(ctx, position, total, class)
}

// DisplayCoverageOutcome implements controller.UI.
func (u *MockUI) DisplayCoverageOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.CoverageRecord]) {
	u.Called(ctx, class, outcome)
}

// DisplayMutationOutcome implements controller.UI.
func (u *MockUI) DisplayMutationOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.MutationRecord]) {
	u.Called(ctx, class, outcome)
}

// DisplayClassError implements controller.UI.
func (u *MockUI) DisplayClassError(ctx context.Context, class m.ClassID, err error) {
	u.Called(ctx, class, err)
}

// DisplayRunSummary implements controller.UI.
func (u *MockUI) DisplayRunSummary(ctx context.Context, summary m.RunSummary, layout m.OutputLayout) {
	u.Called(ctx, summary, layout)
}

// DisplayClassStates implements controller.UI.
func (u *MockUI) DisplayClassStates(ctx context.Context, states []m.ClassState) error {
	return u.Called(ctx, states).Error(0)
}

// DisplayProjectResult implements controller.UI.
func (u *MockUI) DisplayProjectResult(ctx context.Context, summary m.ProjectSummary) {
	u.Called(ctx, summary)
}

// DisplayProjectFailure implements controller.UI.
func (u *MockUI) DisplayProjectFailure(ctx context.Context, project string, err error) {
	u.Called(ctx, project, err)
}

// DisplayCorrelationSummary implements controller.UI.
func (u *MockUI) DisplayCorrelationSummary(ctx context.Context, summaries []m.ProjectSummary) error {
	return u.Called(ctx, summaries).Error(0)
}
