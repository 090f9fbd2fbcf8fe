// Package controller provides output adapters for displaying analysis progress and results.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/covmut/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeReport
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode sets the UI to batch progress mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithReportMode sets the UI to one-shot report mode.
func WithReportMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeReport
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	cfg := StartConfig{mode: ModeRun}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines the interface for displaying batch progress and reports.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayQueueInfo(ctx context.Context, total, completed, remaining int)
	DisplayClassStarted(ctx context.Context, position, total int, class m.ClassID)
	DisplayCoverageOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.CoverageRecord])
	DisplayMutationOutcome(ctx context.Context, class m.ClassID, outcome m.Outcome[m.MutationRecord])
	DisplayClassError(ctx context.Context, class m.ClassID, err error)
	DisplayRunSummary(ctx context.Context, summary m.RunSummary, layout m.OutputLayout)
	DisplayClassStates(ctx context.Context, states []m.ClassState) error
	DisplayProjectResult(ctx context.Context, summary m.ProjectSummary)
	DisplayProjectFailure(ctx context.Context, project string, err error)
	DisplayCorrelationSummary(ctx context.Context, summaries []m.ProjectSummary) error
}

// NewUI picks the interactive UI when requested and the command writes to a
// terminal, and the plain UI otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive && IsTTY(cmd.OutOrStdout()) {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// line is one rendered message with its severity.
type line struct {
	text string
	kind m.OutcomeKind
}

// queueLine reports completed as distinct classes, total and remaining as
// list entries.
func queueLine(total, completed, remaining int) string {
	if completed > 0 {
		return fmt.Sprintf("Resuming: %d of %d classes already completed, %d remaining", completed, total, remaining)
	}

	return fmt.Sprintf("Processing %d classes", total)
}

func classLine(position, total int, class m.ClassID) string {
	return fmt.Sprintf("[%d/%d] Processing %s", position, total, class)
}

func coverageLine(outcome m.Outcome[m.CoverageRecord]) line {
	switch outcome.Kind {
	case m.OutcomeSuccess:
		r := outcome.Record

		return line{
			text: fmt.Sprintf("  coverage: %.2f%% (%d/%d conditions)", r.ConditionCoverage, r.CoveredConditions, r.TotalConditions),
			kind: m.OutcomeSuccess,
		}
	case m.OutcomeSkipped:
		return line{text: "  coverage: skipped, " + outcome.Reason, kind: m.OutcomeSkipped}
	default:
		return line{text: fmt.Sprintf("  coverage: failed: %v", outcome.Err), kind: m.OutcomeFailed}
	}
}

func mutationLine(outcome m.Outcome[m.MutationRecord]) line {
	switch outcome.Kind {
	case m.OutcomeSuccess:
		r := outcome.Record

		return line{
			text: fmt.Sprintf("  mutation: %.2f%% (%d/%d killed, %d covered)", r.MutationScore, r.KilledMutants, r.TotalMutants, r.CoveredMutants),
			kind: m.OutcomeSuccess,
		}
	case m.OutcomeSkipped:
		return line{text: "  mutation: skipped, " + outcome.Reason, kind: m.OutcomeSkipped}
	default:
		return line{text: fmt.Sprintf("  mutation: failed: %v", outcome.Err), kind: m.OutcomeFailed}
	}
}

func classErrorLine(class m.ClassID, err error) line {
	return line{text: fmt.Sprintf("  error processing %s: %v", class, err), kind: m.OutcomeFailed}
}

func runSummaryLines(summary m.RunSummary, layout m.OutputLayout) []string {
	return []string{
		fmt.Sprintf("Finished in %s", summary.Elapsed.Round(time.Millisecond)),
		fmt.Sprintf("Coverage results: %d (%d new) -> %s", summary.CoverageTotal(), summary.NewCoverage, layout.CoverageTable),
		fmt.Sprintf("Mutation results: %d (%d new) -> %s", summary.MutationTotal(), summary.NewMutation, layout.MutationTable),
		fmt.Sprintf("Skipped: %d, failed: %d", summary.Skipped, summary.Failed),
	}
}
