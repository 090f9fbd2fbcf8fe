package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"gooze.dev/pkg/covmut/internal/adapter"
	"gooze.dev/pkg/covmut/internal/controller"
	m "gooze.dev/pkg/covmut/internal/model"
)

// RunArgs contains the arguments of a batch run.
type RunArgs struct {
	Classes        m.Path
	Tool           string
	Timeout        time.Duration
	Selector       m.Path
	CoverageReport m.Path
	Layout         m.OutputLayout
	RememberSkips  bool
}

// StatusArgs contains the arguments of a status report.
type StatusArgs struct {
	Classes       m.Path
	Layout        m.OutputLayout
	RememberSkips bool
}

// CorrelateArgs contains the arguments of a correlation pass. When Projects
// is empty every subdirectory of Root is considered.
type CorrelateArgs struct {
	Root        m.Path
	Projects    []m.Path
	Options     CorrelationOptions
	SummaryFile m.Path
}

// Workflow defines the commands of the tool.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	Status(ctx context.Context, args StatusArgs) error
	Correlate(ctx context.Context, args CorrelateArgs) error
}

type workflow struct {
	adapter.FSAdapter
	controller.UI
	Correlator
	ClassQueue

	runner    adapter.ProcessRunner
	openStore adapter.StoreOpener
	now       func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.FSAdapter,
	runner adapter.ProcessRunner,
	openStore adapter.StoreOpener,
	ui controller.UI,
	correlator Correlator,
) Workflow {
	return &workflow{
		FSAdapter:  fsAdapter,
		UI:         ui,
		Correlator: correlator,
		ClassQueue: NewClassQueue(),
		runner:     runner,
		openStore:  openStore,
		now:        time.Now,
	}
}

// Run analyses every class of the list that is not already complete. It is
// safe to interrupt and rerun: completed classes are read back from the
// checkpoint tables and skipped.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	started := w.now()

	if err := w.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(context.WithoutCancel(ctx))

	selector := adapter.NewSelectorFile(w.FSAdapter, args.Selector)
	defer w.releaseSelector(ctx, selector)

	store := w.openStore(args.Layout, args.RememberSkips)
	defer w.closeStore(store)

	if err := w.prepareLayout(ctx, args.Layout); err != nil {
		return err
	}

	if err := store.EnsureHeaders(ctx); err != nil {
		slog.Error("Failed to initialise checkpoint tables", "error", err)
		return fmt.Errorf("initialise checkpoint tables: %w", err)
	}

	checkpoint, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	classes, err := LoadClasses(ctx, w.FSAdapter, args.Classes)
	if err != nil {
		slog.Error("Failed to load class list", "path", args.Classes, "error", err)
		return err
	}

	completed := CompletedSet(checkpoint, args.RememberSkips)
	states := DeriveStates(classes, checkpoint, args.RememberSkips)
	remaining := len(Remaining(classes, completed))
	prior := countPrior(classes, checkpoint, completed)
	tally := newRunTally(len(classes), remaining, prior)

	slog.Info("Starting batch", "classes", len(classes), "completed", prior.completed, "remaining", remaining)
	w.DisplayQueueInfo(ctx, len(classes), prior.completed, remaining)

	analyzer := NewAnalyzer(w.FSAdapter, w.runner, selector, AnalyzerConfig{
		Tool:           args.Tool,
		Timeout:        args.Timeout,
		CoverageReport: args.CoverageReport,
		CoverageDir:    args.Layout.CoverageDir,
		MutationDir:    args.Layout.MutationDir,
	})

	for item := range w.Stream(ctx, states) {
		if ctx.Err() != nil {
			break
		}

		w.processClass(ctx, analyzer, store, item, tally)
	}

	finalCtx := context.WithoutCancel(ctx)
	w.releaseSelector(finalCtx, selector)

	summary := tally.summary(store, w.now().Sub(started))
	slog.Info("Batch finished", "newCoverage", summary.NewCoverage, "newMutation", summary.NewMutation,
		"skipped", summary.Skipped, "failed", summary.Failed, "elapsed", summary.Elapsed)
	w.DisplayRunSummary(finalCtx, summary, args.Layout)

	if err := ctx.Err(); err != nil {
		slog.Warn("Batch interrupted", "error", err)
		return fmt.Errorf("batch interrupted: %w", err)
	}

	return nil
}

// processClass runs the analyses a class is still missing. Nothing that goes
// wrong here stops the batch.
func (w *workflow) processClass(ctx context.Context, analyzer Analyzer, store adapter.CheckpointStore, item QueueItem, tally *runTally) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing class", "class", item.Class, "panic", r)
			tally.record(m.OutcomeFailed)
			w.DisplayClassError(ctx, item.Class, fmt.Errorf("panic: %v", r))
		}
	}()

	w.DisplayClassStarted(ctx, item.Position, item.Total, item.Class)

	if item.Status != m.CoverageDone {
		w.runCoverage(ctx, analyzer, store, item.Class, tally)
	}

	if item.Status != m.MutationDone {
		w.runMutation(ctx, analyzer, store, item.Class, tally)
	}
}

// Results already obtained are persisted even when the run is being
// interrupted.
func (w *workflow) runCoverage(ctx context.Context, analyzer Analyzer, store adapter.CheckpointStore, class m.ClassID, tally *runTally) {
	outcome := analyzer.AnalyzeCoverage(ctx, class)
	if outcome.Kind == m.OutcomeSuccess {
		if err := store.AppendCoverage(context.WithoutCancel(ctx), outcome.Record); err != nil {
			outcome = m.Failed[m.CoverageRecord](fmt.Errorf("save coverage result: %w", err))
		}
	}

	w.recordSkip(ctx, store, class, m.AnalysisCoverage, outcome.Kind, outcome.Reason)
	w.logOutcome(class, m.AnalysisCoverage, outcome.Kind, outcome.Err)
	tally.record(outcome.Kind)
	w.DisplayCoverageOutcome(ctx, class, outcome)
}

func (w *workflow) runMutation(ctx context.Context, analyzer Analyzer, store adapter.CheckpointStore, class m.ClassID, tally *runTally) {
	outcome := analyzer.AnalyzeMutation(ctx, class)
	if outcome.Kind == m.OutcomeSuccess {
		if err := store.AppendMutation(context.WithoutCancel(ctx), outcome.Record); err != nil {
			outcome = m.Failed[m.MutationRecord](fmt.Errorf("save mutation result: %w", err))
		}
	}

	w.recordSkip(ctx, store, class, m.AnalysisMutation, outcome.Kind, outcome.Reason)
	w.logOutcome(class, m.AnalysisMutation, outcome.Kind, outcome.Err)
	tally.record(outcome.Kind)
	w.DisplayMutationOutcome(ctx, class, outcome)
}

func (w *workflow) recordSkip(ctx context.Context, store adapter.CheckpointStore, class m.ClassID, analysis m.AnalysisKind, kind m.OutcomeKind, reason string) {
	if kind != m.OutcomeSkipped {
		return
	}

	if err := store.AppendSkip(context.WithoutCancel(ctx), m.SkipRecord{Class: class, Analysis: analysis, Reason: reason}); err != nil {
		slog.Error("Failed to record skip", "class", class, "analysis", analysis, "error", err)
	}
}

func (w *workflow) logOutcome(class m.ClassID, analysis m.AnalysisKind, kind m.OutcomeKind, err error) {
	switch kind {
	case m.OutcomeSuccess:
		slog.Debug("Analysis succeeded", "class", class, "analysis", analysis)
	case m.OutcomeSkipped:
		slog.Info("Analysis skipped", "class", class, "analysis", analysis)
	case m.OutcomeFailed:
		slog.Warn("Analysis failed", "class", class, "analysis", analysis, "error", err)
	}
}

func (w *workflow) prepareLayout(ctx context.Context, layout m.OutputLayout) error {
	for _, dir := range []m.Path{layout.CoverageDir, layout.MutationDir} {
		if err := w.MkdirAll(ctx, dir); err != nil {
			slog.Error("Failed to create output directory", "dir", dir, "error", err)
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	return nil
}

// releaseSelector deletes the selector file. Release logs its own failures.
func (w *workflow) releaseSelector(ctx context.Context, selector adapter.SelectorFile) {
	_ = selector.Release(context.WithoutCancel(ctx))
}

func (w *workflow) closeStore(store adapter.CheckpointStore) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close checkpoint store", "error", err)
	}
}

// Status prints the derived status of every class. It never runs the tool
// and never writes to the output layout.
func (w *workflow) Status(ctx context.Context, args StatusArgs) error {
	if err := w.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.Close(ctx)

	store := w.openStore(args.Layout, args.RememberSkips)
	defer w.closeStore(store)

	checkpoint, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	classes, err := LoadClasses(ctx, w.FSAdapter, args.Classes)
	if err != nil {
		return err
	}

	return w.DisplayClassStates(ctx, DeriveStates(classes, checkpoint, args.RememberSkips))
}

// Correlate relates mutation score to condition coverage for each project,
// prints the aggregated table, and optionally writes it as YAML.
func (w *workflow) Correlate(ctx context.Context, args CorrelateArgs) error {
	if err := w.Start(ctx, controller.WithReportMode()); err != nil {
		return err
	}
	defer w.Close(ctx)

	results, err := w.correlationResults(ctx, args)
	if err != nil {
		slog.Error("Correlation failed", "root", args.Root, "error", err)
		return err
	}

	summaries := make([]m.ProjectSummary, 0, len(results))

	for _, result := range results {
		if result.Err != nil {
			w.DisplayProjectFailure(ctx, result.Project, result.Err)
			continue
		}

		w.DisplayProjectResult(ctx, result.Summary)
		summaries = append(summaries, result.Summary)
	}

	if err := w.DisplayCorrelationSummary(ctx, summaries); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if args.SummaryFile == "" {
		return nil
	}

	return w.writeSummary(ctx, args.SummaryFile, summaries)
}

func (w *workflow) correlationResults(ctx context.Context, args CorrelateArgs) ([]ProjectResult, error) {
	if len(args.Projects) == 0 {
		return w.AnalyzeAll(ctx, args.Root, args.Options)
	}

	results := make([]ProjectResult, 0, len(args.Projects))

	for _, dir := range args.Projects {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		summary, err := w.AnalyzeProject(ctx, dir, args.Options)
		if err != nil {
			slog.Error("Project correlation failed", "dir", dir, "error", err)
		}

		results = append(results, ProjectResult{Project: projectName(dir), Summary: summary, Err: err})
	}

	return results, nil
}

type summaryDocument struct {
	Projects []m.ProjectSummary `yaml:"projects"`
}

func (w *workflow) writeSummary(ctx context.Context, path m.Path, summaries []m.ProjectSummary) error {
	content, err := yaml.Marshal(summaryDocument{Projects: summaries})
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	if err := w.WriteFile(ctx, path, content, 0o644); err != nil {
		slog.Error("Failed to write correlation summary", "path", path, "error", err)
		return fmt.Errorf("write summary %s: %w", path, err)
	}

	slog.Info("Correlation summary written", "path", path, "projects", len(summaries))

	return nil
}

// IsInterrupted reports whether err stems from a cancelled run.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
