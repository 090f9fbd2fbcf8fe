package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

// Analyzer runs the external tool for one class and turns its output into a
// tagged outcome. It never returns an error: every failure is an Outcome.
type Analyzer interface {
	AnalyzeCoverage(ctx context.Context, class m.ClassID) m.Outcome[m.CoverageRecord]
	AnalyzeMutation(ctx context.Context, class m.ClassID) m.Outcome[m.MutationRecord]
}

// AnalyzerConfig holds the tool invocation settings of a run.
type AnalyzerConfig struct {
	Tool           string
	Timeout        time.Duration
	CoverageReport m.Path
	CoverageDir    m.Path
	MutationDir    m.Path
}

// AnalyzerOption customises an Analyzer.
type AnalyzerOption func(*analyzer)

// WithCoverageParser replaces the coverage report parser.
func WithCoverageParser(parser ReportParser[m.CoverageRecord]) AnalyzerOption {
	return func(a *analyzer) {
		a.coverageParser = parser
	}
}

// WithMutationParser replaces the mutation output parser.
func WithMutationParser(parser ReportParser[m.MutationRecord]) AnalyzerOption {
	return func(a *analyzer) {
		a.mutationParser = parser
	}
}

type analyzer struct {
	fs       adapter.FSAdapter
	runner   adapter.ProcessRunner
	selector adapter.SelectorFile
	config   AnalyzerConfig

	coverageParser ReportParser[m.CoverageRecord]
	mutationParser ReportParser[m.MutationRecord]
}

// NewAnalyzer constructs an Analyzer that hands classes to the tool through
// selector.
func NewAnalyzer(fs adapter.FSAdapter, runner adapter.ProcessRunner, selector adapter.SelectorFile, config AnalyzerConfig, opts ...AnalyzerOption) Analyzer {
	a := &analyzer{
		fs:             fs,
		runner:         runner,
		selector:       selector,
		config:         config,
		coverageParser: CoverageParser{},
		mutationParser: MutationParser{},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *analyzer) AnalyzeCoverage(ctx context.Context, class m.ClassID) m.Outcome[m.CoverageRecord] {
	if err := a.selector.Write(ctx, class); err != nil {
		return m.Failed[m.CoverageRecord](err)
	}

	// A report left behind by an interrupted run must not be read as ours.
	a.removeReport(ctx)
	defer a.removeReport(ctx)

	result, err := a.runner.Run(ctx, a.command(m.AnalysisCoverage), a.config.Timeout)
	if err != nil {
		slog.Error("Coverage tool could not run", "class", class, "error", err)
		return m.Failed[m.CoverageRecord](fmt.Errorf("run coverage tool: %w", err))
	}

	if result.ExitCode != 0 {
		slog.Warn("Coverage tool failed", "class", class, "exitCode", result.ExitCode, "stderr", result.Stderr)
		return m.Failed[m.CoverageRecord](failureError("coverage analysis failed", result))
	}

	exists, err := a.fs.Exists(ctx, a.config.CoverageReport)
	if err != nil {
		return m.Failed[m.CoverageRecord](fmt.Errorf("stat coverage report: %w", err))
	}

	if !exists {
		slog.Warn("Coverage report not produced", "class", class, "path", a.config.CoverageReport)
		return m.Failed[m.CoverageRecord](fmt.Errorf("coverage report %s not found", a.config.CoverageReport))
	}

	content, err := a.fs.ReadFile(ctx, a.config.CoverageReport)
	if err != nil {
		return m.Failed[m.CoverageRecord](fmt.Errorf("read coverage report: %w", err))
	}

	record, err := a.coverageParser.Parse(string(content))
	if errors.Is(err, ErrNoValidData) {
		slog.Info("No conditions found", "class", class, "reason", err)
		return m.Skipped[m.CoverageRecord]("no conditions found or zero conditions")
	}

	if err != nil {
		slog.Warn("Coverage report unusable", "class", class, "error", err)
		return m.Failed[m.CoverageRecord](fmt.Errorf("parse coverage report: %w", err))
	}

	record.Class = class

	archive := a.fs.JoinPath(string(a.config.CoverageDir), class.FileStem()+"_coverage.xml")
	if err := a.fs.WriteFile(ctx, archive, content, 0o644); err != nil {
		slog.Error("Failed to archive coverage report", "class", class, "path", archive, "error", err)
		return m.Failed[m.CoverageRecord](fmt.Errorf("archive coverage report: %w", err))
	}

	return m.Success(record)
}

func (a *analyzer) AnalyzeMutation(ctx context.Context, class m.ClassID) m.Outcome[m.MutationRecord] {
	if err := a.selector.Write(ctx, class); err != nil {
		return m.Failed[m.MutationRecord](err)
	}

	result, err := a.runner.Run(ctx, a.command(m.AnalysisMutation), a.config.Timeout)
	if err != nil {
		slog.Error("Mutation tool could not run", "class", class, "error", err)
		return m.Failed[m.MutationRecord](fmt.Errorf("run mutation tool: %w", err))
	}

	if result.ExitCode != 0 {
		slog.Warn("Mutation tool failed", "class", class, "exitCode", result.ExitCode, "stderr", result.Stderr)
		return m.Failed[m.MutationRecord](failureError("mutation testing failed", result))
	}

	output := result.Combined()

	record, err := a.mutationParser.Parse(output)
	if errors.Is(err, ErrNoValidData) {
		slog.Info("No mutants generated", "class", class, "reason", err)
		return m.Skipped[m.MutationRecord]("no mutants generated")
	}

	if err != nil {
		slog.Warn("Mutation output unusable", "class", class, "error", err)
		return m.Failed[m.MutationRecord](fmt.Errorf("mutation testing failed or no results: %w", err))
	}

	record.Class = class

	archive := a.fs.JoinPath(string(a.config.MutationDir), class.NestedFileStem()+"_mutation.txt")
	if err := a.fs.WriteFile(ctx, archive, []byte(output), 0o644); err != nil {
		slog.Error("Failed to archive mutation output", "class", class, "path", archive, "error", err)
		return m.Failed[m.MutationRecord](fmt.Errorf("archive mutation output: %w", err))
	}

	return m.Success(record)
}

func (a *analyzer) command(kind m.AnalysisKind) string {
	return fmt.Sprintf("%s %s -i %s", a.config.Tool, kind, shellQuote(string(a.selector.Path())))
}

// removeReport deletes the working coverage report, logging errors.
func (a *analyzer) removeReport(ctx context.Context) {
	if err := a.fs.Remove(context.WithoutCancel(ctx), a.config.CoverageReport); err != nil {
		slog.Error("Failed to remove coverage report", "path", a.config.CoverageReport, "error", err)
	}
}

func failureError(prefix string, result adapter.ProcessResult) error {
	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		detail = "unknown error"
	}

	return fmt.Errorf("%s (exit %d): %s", prefix, result.ExitCode, detail)
}

// shellQuote leaves plain paths untouched and single-quotes anything else.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("/._-+:,@%", r))
	}) < 0 {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
