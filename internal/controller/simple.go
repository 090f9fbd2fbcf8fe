package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/covmut/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayQueueInfo reports how much of the list is left.
func (s *SimpleUI) DisplayQueueInfo(ctx context.Context, total, completed, remaining int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", queueLine(total, completed, remaining))
}

// DisplayClassStarted announces the class about to be analysed.
func (s *SimpleUI) DisplayClassStarted(ctx context.Context, position, total int, class m.ClassID) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", classLine(position, total, class))
}

// DisplayCoverageOutcome prints the coverage step result.
func (s *SimpleUI) DisplayCoverageOutcome(ctx context.Context, _ m.ClassID, outcome m.Outcome[m.CoverageRecord]) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printLine(coverageLine(outcome))
}

// DisplayMutationOutcome prints the mutation step result.
func (s *SimpleUI) DisplayMutationOutcome(ctx context.Context, _ m.ClassID, outcome m.Outcome[m.MutationRecord]) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printLine(mutationLine(outcome))
}

// DisplayClassError prints an unexpected failure of one class.
func (s *SimpleUI) DisplayClassError(ctx context.Context, class m.ClassID, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return
	}

	s.printLine(classErrorLine(class, err))
}

// DisplayRunSummary prints the final counters.
func (s *SimpleUI) DisplayRunSummary(ctx context.Context, summary m.RunSummary, layout m.OutputLayout) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n")

	for _, text := range runSummaryLines(summary, layout) {
		s.printf("%s\n", text)
	}
}

// DisplayClassStates prints every class with its status and per-status totals.
func (s *SimpleUI) DisplayClassStates(ctx context.Context, states []m.ClassState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderStatusTable(states))

	return nil
}

func renderStatusTable(states []m.ClassState) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Class", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	counts := make(map[m.ClassStatus]int)

	for _, state := range states {
		table.Append([]string{string(state.Class), state.Status.String()})
		counts[state.Status]++
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Classes %d", len(states)),
		fmt.Sprintf("%d done, %d pending, %d coverage only, %d mutation only",
			counts[m.BothDone], counts[m.Pending], counts[m.CoverageDone], counts[m.MutationDone]),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayProjectResult prints one project's correlation.
func (s *SimpleUI) DisplayProjectResult(ctx context.Context, summary m.ProjectSummary) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s: correlation %.4f (p = %.4g, %d classes), plot saved to %s\n",
		summary.Project, summary.Correlation, summary.PValue, summary.Classes, summary.Plot)
}

// DisplayProjectFailure prints why a project was excluded.
func (s *SimpleUI) DisplayProjectFailure(ctx context.Context, project string, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return
	}

	s.printLine(line{text: fmt.Sprintf("%s: skipped: %v", project, err), kind: m.OutcomeFailed})
}

// DisplayCorrelationSummary prints the aggregated table of all projects.
func (s *SimpleUI) DisplayCorrelationSummary(ctx context.Context, summaries []m.ProjectSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(summaries) == 0 {
		s.printf("No project could be correlated\n")
		return nil
	}

	s.printf("\n%s", renderCorrelationTable(summaries))

	return nil
}

func renderCorrelationTable(summaries []m.ProjectSummary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Project", "Correlation", "P-Value", "Classes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, summary := range summaries {
		table.Append([]string{
			summary.Project,
			fmt.Sprintf("%.4f", summary.Correlation),
			fmt.Sprintf("%.4g", summary.PValue),
			fmt.Sprintf("%d", summary.Classes),
		})
	}

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printLine(l line) {
	s.printf("%s\n", colorFor(l.kind).Sprint(l.text))
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func colorFor(kind m.OutcomeKind) *color.Color {
	switch kind {
	case m.OutcomeSuccess:
		return color.New(color.FgGreen)
	case m.OutcomeSkipped:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
