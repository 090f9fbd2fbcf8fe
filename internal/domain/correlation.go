package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

// Metric column names of the correlation inputs.
const (
	MutationScoreColumn     = "MutationScore"
	ConditionCoverageColumn = "ConditionCoverage"
)

var (
	// ErrTooFewPoints is returned when fewer than two classes match.
	ErrTooFewPoints = errors.New("need at least two matched classes")
	// ErrDegenerateInput is returned when a series is constant.
	ErrDegenerateInput = errors.New("correlation undefined for constant input")
)

// CorrelationOptions names the per-project inputs and the plot directory.
type CorrelationOptions struct {
	MutationTable  string
	ConditionTable string
	PlotsDir       m.Path
}

// DefaultCorrelationOptions returns the conventional table names.
func DefaultCorrelationOptions() CorrelationOptions {
	return CorrelationOptions{
		MutationTable:  "mutation.csv",
		ConditionTable: "condition.csv",
		PlotsDir:       ".",
	}
}

// ProjectResult is the outcome of analysing one project folder.
type ProjectResult struct {
	Project string
	Summary m.ProjectSummary
	Err     error
}

// MatchedPair is one row of the joined metric tables.
type MatchedPair struct {
	Class    m.ClassID
	Coverage float64
	Score    float64
}

// Correlator relates mutation score to condition coverage per project.
type Correlator interface {
	AnalyzeProject(ctx context.Context, dir m.Path, opts CorrelationOptions) (m.ProjectSummary, error)
	AnalyzeAll(ctx context.Context, root m.Path, opts CorrelationOptions) ([]ProjectResult, error)
}

type correlator struct {
	fs      adapter.FSAdapter
	tables  adapter.MetricTableReader
	plotter adapter.Plotter
}

// NewCorrelator constructs a Correlator.
func NewCorrelator(fs adapter.FSAdapter, tables adapter.MetricTableReader, plotter adapter.Plotter) Correlator {
	return &correlator{fs: fs, tables: tables, plotter: plotter}
}

func (c *correlator) AnalyzeProject(ctx context.Context, dir m.Path, opts CorrelationOptions) (m.ProjectSummary, error) {
	project := projectName(dir)

	var mutation, condition []m.ClassMetric

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mutation, err = c.tables.ReadMetric(gctx, c.fs.JoinPath(string(dir), opts.MutationTable), MutationScoreColumn)

		return err
	})
	g.Go(func() error {
		var err error
		condition, err = c.tables.ReadMetric(gctx, c.fs.JoinPath(string(dir), opts.ConditionTable), ConditionCoverageColumn)

		return err
	})

	if err := g.Wait(); err != nil {
		return m.ProjectSummary{}, fmt.Errorf("load tables of %s: %w", project, err)
	}

	pairs := JoinMetrics(mutation, condition)
	coverage := make([]float64, len(pairs))
	scores := make([]float64, len(pairs))

	for i, pair := range pairs {
		coverage[i] = pair.Coverage
		scores[i] = pair.Score
	}

	r, p, err := Pearson(scores, coverage)
	if err != nil {
		return m.ProjectSummary{}, fmt.Errorf("correlate %s (%d classes): %w", project, len(pairs), err)
	}

	plot := c.fs.JoinPath(string(opts.PlotsDir), project+"_correlation.png")
	spec := adapter.ScatterSpec{
		Title:  fmt.Sprintf("%s: Correlation = %.4f", project, r),
		XLabel: "Condition Coverage (%)",
		YLabel: "Mutation Score (%)",
		X:      coverage,
		Y:      scores,
	}

	if err := c.plotter.ScatterPlot(ctx, spec, plot); err != nil {
		return m.ProjectSummary{}, fmt.Errorf("plot %s: %w", project, err)
	}

	slog.Info("Project correlated", "project", project, "correlation", r, "pValue", p, "classes", len(pairs))

	return m.ProjectSummary{
		Project:     project,
		Correlation: r,
		PValue:      p,
		Classes:     len(pairs),
		Plot:        plot,
	}, nil
}

// AnalyzeAll correlates every immediate subdirectory of root holding at least
// one metric table. Directories holding neither are ignored.
func (c *correlator) AnalyzeAll(ctx context.Context, root m.Path, opts CorrelationOptions) ([]ProjectResult, error) {
	dirs, err := c.fs.ListDirs(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list projects in %s: %w", root, err)
	}

	var results []ProjectResult

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !c.hasTables(ctx, dir, opts) {
			slog.Debug("Skipping directory without metric tables", "dir", dir)
			continue
		}

		summary, err := c.AnalyzeProject(ctx, dir, opts)
		if err != nil {
			slog.Error("Project correlation failed", "dir", dir, "error", err)
		}

		results = append(results, ProjectResult{
			Project: projectName(dir),
			Summary: summary,
			Err:     err,
		})
	}

	return results, nil
}

func (c *correlator) hasTables(ctx context.Context, dir m.Path, opts CorrelationOptions) bool {
	for _, name := range []string{opts.MutationTable, opts.ConditionTable} {
		exists, err := c.fs.Exists(ctx, c.fs.JoinPath(string(dir), name))
		if err != nil {
			slog.Warn("Failed to stat metric table", "dir", dir, "table", name, "error", err)
			continue
		}

		if exists {
			return true
		}
	}

	return false
}

func projectName(dir m.Path) string {
	return filepath.Base(string(dir))
}

// JoinMetrics inner-joins the tables on class, in mutation-table order.
// Duplicate keys produce every combination.
func JoinMetrics(mutation, condition []m.ClassMetric) []MatchedPair {
	byClass := make(map[m.ClassID][]float64, len(condition))
	for _, row := range condition {
		byClass[row.Class] = append(byClass[row.Class], row.Value)
	}

	var pairs []MatchedPair

	for _, row := range mutation {
		for _, coverage := range byClass[row.Class] {
			pairs = append(pairs, MatchedPair{Class: row.Class, Coverage: coverage, Score: row.Value})
		}
	}

	return pairs
}

// Pearson returns the correlation coefficient of x and y and its two-sided
// p-value under Student's t distribution with n-2 degrees of freedom.
func Pearson(x, y []float64) (float64, float64, error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("series length mismatch: %d vs %d", len(x), len(y))
	}

	n := len(x)
	if n < 2 {
		return 0, 0, ErrTooFewPoints
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, 0, ErrDegenerateInput
	}

	r = math.Max(-1, math.Min(1, r))

	if n == 2 {
		return r, 1, nil
	}

	if math.Abs(r) == 1 {
		return r, 0, nil
	}

	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	students := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := math.Min(1, 2*students.Survival(math.Abs(t)))

	return r, p, nil
}
