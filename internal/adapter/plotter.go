package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	m "gooze.dev/pkg/covmut/internal/model"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// ScatterSpec describes one scatter plot.
type ScatterSpec struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

// Plotter renders charts to image files.
type Plotter interface {
	ScatterPlot(ctx context.Context, spec ScatterSpec, path m.Path) error
}

// GonumPlotter renders charts with gonum/plot. The image format follows the
// file extension.
type GonumPlotter struct{}

// NewGonumPlotter constructs a GonumPlotter.
func NewGonumPlotter() *GonumPlotter {
	return &GonumPlotter{}
}

// ScatterPlot implements Plotter.
func (p *GonumPlotter) ScatterPlot(ctx context.Context, spec ScatterSpec, path m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(spec.X) != len(spec.Y) {
		return fmt.Errorf("scatter plot: %d x values but %d y values", len(spec.X), len(spec.Y))
	}

	chart := plot.New()
	chart.Title.Text = spec.Title
	chart.X.Label.Text = spec.XLabel
	chart.Y.Label.Text = spec.YLabel

	points := make(plotter.XYs, len(spec.X))
	for i := range spec.X {
		points[i].X = spec.X[i]
		points[i].Y = spec.Y[i]
	}

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return fmt.Errorf("scatter plot: %w", err)
	}

	chart.Add(plotter.NewGrid(), scatter)

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("scatter plot: %w", err)
		}
	}

	if err := chart.Save(plotWidth, plotHeight, string(path)); err != nil {
		slog.Error("Failed to save plot", "path", path, "error", err)
		return fmt.Errorf("save plot %s: %w", path, err)
	}

	slog.Debug("Saved scatter plot", "path", path, "points", len(points))

	return nil
}
