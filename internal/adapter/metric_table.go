package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	m "gooze.dev/pkg/covmut/internal/model"
	"gooze.dev/pkg/covmut/pkg"
)

// ClassColumn is the join key column of every metric table.
const ClassColumn = "ClassName"

// MetricTableReader loads one numeric column of a per-class metric table.
type MetricTableReader interface {
	ReadMetric(ctx context.Context, path m.Path, column string) ([]m.ClassMetric, error)
}

// CSVMetricTableReader reads metric tables written as CSV with a header row.
type CSVMetricTableReader struct{}

// NewCSVMetricTableReader constructs a CSVMetricTableReader.
func NewCSVMetricTableReader() *CSVMetricTableReader {
	return &CSVMetricTableReader{}
}

// ReadMetric returns the (ClassName, column) pairs of the table in file order.
// Every row must carry a parsable value.
func (r *CSVMetricTableReader) ReadMetric(ctx context.Context, path m.Path, column string) ([]m.ClassMetric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := pkg.ReadTable(string(path))
	if err != nil {
		return nil, err
	}

	classIdx, ok := table.Column(ClassColumn)
	if !ok {
		return nil, fmt.Errorf("%s: missing column %q", path, ClassColumn)
	}

	valueIdx, ok := table.Column(column)
	if !ok {
		return nil, fmt.Errorf("%s: missing column %q", path, column)
	}

	metrics := make([]m.ClassMetric, 0, len(table.Rows))

	for i, row := range table.Rows {
		if classIdx >= len(row) || valueIdx >= len(row) {
			return nil, fmt.Errorf("%s: row %d is short", path, i+1)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid %s %q: %w", path, i+1, column, row[valueIdx], err)
		}

		metrics = append(metrics, m.ClassMetric{Class: m.ClassID(row[classIdx]), Value: value})
	}

	return metrics, nil
}
