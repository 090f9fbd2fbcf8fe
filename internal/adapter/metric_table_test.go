package adapter

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/covmut/internal/model"
)

func writeTable(t *testing.T, content string) m.Path {
	t.Helper()

	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return m.Path(path)
}

func TestCSVMetricTableReader_ReadMetric(t *testing.T) {
	reader := NewCSVMetricTableReader()
	path := writeTable(t, "ClassName,TotalMutants,KilledMutants,MutationScore\nA,4,3,75.0\nB,2,1,50\n")

	got, err := reader.ReadMetric(context.Background(), path, "MutationScore")
	require.NoError(t, err)

	assert.Equal(t, []m.ClassMetric{{Class: "A", Value: 75}, {Class: "B", Value: 50}}, got)
}

func TestCSVMetricTableReader_ColumnOrderIndependent(t *testing.T) {
	reader := NewCSVMetricTableReader()
	path := writeTable(t, "ConditionCoverage,ClassName\n80.5,A\n")

	got, err := reader.ReadMetric(context.Background(), path, "ConditionCoverage")
	require.NoError(t, err)

	assert.Equal(t, []m.ClassMetric{{Class: "A", Value: 80.5}}, got)
}

func TestCSVMetricTableReader_Errors(t *testing.T) {
	reader := NewCSVMetricTableReader()
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := reader.ReadMetric(ctx, m.Path(filepath.Join(t.TempDir(), "nope.csv")), "MutationScore")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("missing value column", func(t *testing.T) {
		_, err := reader.ReadMetric(ctx, writeTable(t, "ClassName,Other\nA,1\n"), "MutationScore")
		require.ErrorContains(t, err, "MutationScore")
	})

	t.Run("missing class column", func(t *testing.T) {
		_, err := reader.ReadMetric(ctx, writeTable(t, "Name,MutationScore\nA,1\n"), "MutationScore")
		require.ErrorContains(t, err, ClassColumn)
	})

	t.Run("unparsable value", func(t *testing.T) {
		_, err := reader.ReadMetric(ctx, writeTable(t, "ClassName,MutationScore\nA,abc\n"), "MutationScore")
		require.Error(t, err)
	})

	t.Run("short row", func(t *testing.T) {
		_, err := reader.ReadMetric(ctx, writeTable(t, "ClassName,MutationScore\nA\n"), "MutationScore")
		require.Error(t, err)
	})
}
