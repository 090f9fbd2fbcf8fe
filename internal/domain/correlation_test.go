package domain

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/covmut/internal/adapter"
	adaptermocks "gooze.dev/pkg/covmut/internal/adapter/mocks"
	m "gooze.dev/pkg/covmut/internal/model"
)

// manualPearson is the textbook formula, used as an oracle.
func manualPearson(x, y []float64) float64 {
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}

	mx /= float64(len(x))
	my /= float64(len(y))

	var sxy, sxx, syy float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
		syy += (y[i] - my) * (y[i] - my)
	}

	return sxy / math.Sqrt(sxx*syy)
}

func writeProject(t *testing.T, dir, mutation, condition string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))

	if mutation != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mutation.csv"), []byte(mutation), 0o600))
	}

	if condition != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "condition.csv"), []byte(condition), 0o600))
	}
}

const (
	sampleMutation  = "ClassName,TotalMutants,KilledMutants,MutationScore\nA,10,8,80.0\nB,10,6,60.0\nC,10,9,90.0\n"
	sampleCondition = "ClassName,TotalConditions,CoveredConditions,ConditionCoverage\nC,20,19,95.0\nA,4,3,75.0\nB,2,1,50.0\nZ,1,1,100.0\n"
)

func TestPearson_ThreePoints(t *testing.T) {
	scores := []float64{80, 60, 90}
	coverage := []float64{75, 50, 95}

	r, p, err := Pearson(scores, coverage)
	require.NoError(t, err)

	want := manualPearson(scores, coverage)
	assert.InDelta(t, want, r, 1e-6)

	// With one degree of freedom Student's t is the Cauchy distribution.
	tStat := want * math.Sqrt(1/(1-want*want))
	assert.InDelta(t, 1-2*math.Atan(math.Abs(tStat))/math.Pi, p, 1e-6)
}

func TestPearson_EdgeCases(t *testing.T) {
	_, _, err := Pearson([]float64{1}, []float64{2})
	require.ErrorIs(t, err, ErrTooFewPoints)

	_, _, err = Pearson(nil, nil)
	require.ErrorIs(t, err, ErrTooFewPoints)

	_, _, err = Pearson([]float64{5, 5, 5}, []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrDegenerateInput)

	_, _, err = Pearson([]float64{1, 2}, []float64{1})
	require.Error(t, err)

	r, p, err := Pearson([]float64{1, 2}, []float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1, r, 1e-9)
	assert.InDelta(t, 1, p, 1e-12, "two points carry no evidence")

	r, p, err = Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.InDelta(t, 1, r, 1e-9)
	assert.InDelta(t, 0, p, 1e-9)
}

func TestPearson_Uncorrelated(t *testing.T) {
	r, p, err := Pearson([]float64{1, 2, 3, 4}, []float64{1, -1, -1, 1})
	require.NoError(t, err)

	assert.InDelta(t, 0, r, 1e-12)
	assert.InDelta(t, 1, p, 1e-9)
}

func TestJoinMetrics(t *testing.T) {
	mutation := []m.ClassMetric{{Class: "B", Value: 1}, {Class: "A", Value: 2}, {Class: "X", Value: 3}, {Class: "A", Value: 4}}
	condition := []m.ClassMetric{{Class: "A", Value: 10}, {Class: "B", Value: 20}, {Class: "A", Value: 30}}

	got := JoinMetrics(mutation, condition)

	assert.Equal(t, []MatchedPair{
		{Class: "B", Coverage: 20, Score: 1},
		{Class: "A", Coverage: 10, Score: 2},
		{Class: "A", Coverage: 30, Score: 2},
		{Class: "A", Coverage: 10, Score: 4},
		{Class: "A", Coverage: 30, Score: 4},
	}, got)
	assert.Empty(t, JoinMetrics(nil, condition))
}

func TestCorrelator_AnalyzeProject(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lang")
	writeProject(t, dir, sampleMutation, sampleCondition)

	plotter := &adaptermocks.MockPlotter{}
	plotsDir := filepath.Join(root, "plots")
	wantPlot := m.Path(filepath.Join(plotsDir, "lang_correlation.png"))

	var spec adapter.ScatterSpec

	plotter.On("ScatterPlot", mock.Anything, mock.Anything, wantPlot).
		Run(func(args mock.Arguments) { spec = args.Get(1).(adapter.ScatterSpec) }).
		Return(nil).Once()

	correlator := NewCorrelator(adapter.NewLocalFSAdapter(), adapter.NewCSVMetricTableReader(), plotter)

	opts := DefaultCorrelationOptions()
	opts.PlotsDir = m.Path(plotsDir)

	summary, err := correlator.AnalyzeProject(context.Background(), m.Path(dir), opts)
	require.NoError(t, err)

	want := manualPearson([]float64{80, 60, 90}, []float64{75, 50, 95})
	assert.Equal(t, "lang", summary.Project)
	assert.Equal(t, 3, summary.Classes)
	assert.InDelta(t, want, summary.Correlation, 1e-6)
	assert.Equal(t, wantPlot, summary.Plot)

	assert.Equal(t, []float64{75, 50, 95}, spec.X)
	assert.Equal(t, []float64{80, 60, 90}, spec.Y)
	assert.Equal(t, "Condition Coverage (%)", spec.XLabel)
	assert.Equal(t, "Mutation Score (%)", spec.YLabel)
	assert.Contains(t, spec.Title, "lang: Correlation = 0.99")
	plotter.AssertExpectations(t)
}

func TestCorrelator_AnalyzeProject_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutation  string
		condition string
		wantErr   error
	}{
		{
			name:      "single match",
			mutation:  "ClassName,MutationScore\nA,80\n",
			condition: "ClassName,ConditionCoverage\nA,75\n",
			wantErr:   ErrTooFewPoints,
		},
		{
			name:      "constant scores",
			mutation:  "ClassName,MutationScore\nA,80\nB,80\nC,80\n",
			condition: "ClassName,ConditionCoverage\nA,75\nB,50\nC,95\n",
			wantErr:   ErrDegenerateInput,
		},
		{
			name:     "missing condition table",
			mutation: sampleMutation,
			wantErr:  os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "proj")
			writeProject(t, dir, tt.mutation, tt.condition)

			plotter := &adaptermocks.MockPlotter{}
			correlator := NewCorrelator(adapter.NewLocalFSAdapter(), adapter.NewCSVMetricTableReader(), plotter)

			_, err := correlator.AnalyzeProject(context.Background(), m.Path(dir), DefaultCorrelationOptions())
			require.ErrorIs(t, err, tt.wantErr)
			plotter.AssertNotCalled(t, "ScatterPlot", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCorrelator_AnalyzeProject_PlotFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	writeProject(t, dir, sampleMutation, sampleCondition)

	plotter := &adaptermocks.MockPlotter{}
	plotter.On("ScatterPlot", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	correlator := NewCorrelator(adapter.NewLocalFSAdapter(), adapter.NewCSVMetricTableReader(), plotter)

	_, err := correlator.AnalyzeProject(context.Background(), m.Path(dir), DefaultCorrelationOptions())
	require.ErrorContains(t, err, "disk full")
}

func TestCorrelator_AnalyzeAll(t *testing.T) {
	root := t.TempDir()
	writeProject(t, filepath.Join(root, "b_valid"), sampleMutation, sampleCondition)
	writeProject(t, filepath.Join(root, "a_broken"), sampleMutation, "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c_unrelated"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mutation.csv"), []byte(sampleMutation), 0o600))

	plotter := &adaptermocks.MockPlotter{}
	plotter.On("ScatterPlot", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	correlator := NewCorrelator(adapter.NewLocalFSAdapter(), adapter.NewCSVMetricTableReader(), plotter)

	opts := DefaultCorrelationOptions()
	opts.PlotsDir = m.Path(root)

	results, err := correlator.AnalyzeAll(context.Background(), m.Path(root), opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a_broken", results[0].Project)
	require.ErrorIs(t, results[0].Err, os.ErrNotExist)

	assert.Equal(t, "b_valid", results[1].Project)
	require.NoError(t, results[1].Err)
	assert.Equal(t, 3, results[1].Summary.Classes)
	plotter.AssertExpectations(t)
}

func TestCorrelator_AnalyzeAll_MissingRoot(t *testing.T) {
	correlator := NewCorrelator(adapter.NewLocalFSAdapter(), adapter.NewCSVMetricTableReader(), &adaptermocks.MockPlotter{})

	_, err := correlator.AnalyzeAll(context.Background(), m.Path(filepath.Join(t.TempDir(), "nope")), DefaultCorrelationOptions())
	require.Error(t, err)
}

func TestCorrelator_AnalyzeProject_ReaderSeam(t *testing.T) {
	tables := &adaptermocks.MockMetricTableReader{}
	plotter := &adaptermocks.MockPlotter{}
	fs := adapter.NewLocalFSAdapter()
	opts := CorrelationOptions{MutationTable: "m.csv", ConditionTable: "c.csv", PlotsDir: "out"}

	tables.On("ReadMetric", mock.Anything, fs.JoinPath("proj", "m.csv"), MutationScoreColumn).Return([]m.ClassMetric{
		{Class: "A", Value: 10}, {Class: "B", Value: 20}, {Class: "C", Value: 30},
	}, nil)
	tables.On("ReadMetric", mock.Anything, fs.JoinPath("proj", "c.csv"), ConditionCoverageColumn).Return([]m.ClassMetric{
		{Class: "C", Value: 90}, {Class: "A", Value: 50}, {Class: "B", Value: 70},
	}, nil)
	plotter.On("ScatterPlot", mock.Anything, mock.Anything, fs.JoinPath("out", "proj_correlation.png")).Return(nil)

	summary, err := NewCorrelator(fs, tables, plotter).AnalyzeProject(context.Background(), "proj", opts)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Classes)
	assert.InDelta(t, 1.0, summary.Correlation, 1e-9)
	assert.InDelta(t, 0.0, summary.PValue, 1e-6)
	tables.AssertExpectations(t)
	plotter.AssertExpectations(t)
}

func TestCorrelator_AnalyzeProject_ReaderError(t *testing.T) {
	tables := &adaptermocks.MockMetricTableReader{}
	tables.On("ReadMetric", mock.Anything, mock.Anything, MutationScoreColumn).Return(nil, errors.New("no such file"))
	tables.On("ReadMetric", mock.Anything, mock.Anything, ConditionCoverageColumn).Return([]m.ClassMetric{}, nil).Maybe()

	_, err := NewCorrelator(adapter.NewLocalFSAdapter(), tables, &adaptermocks.MockPlotter{}).
		AnalyzeProject(context.Background(), "proj", DefaultCorrelationOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load tables of proj")
	assert.Contains(t, err.Error(), "no such file")
}
