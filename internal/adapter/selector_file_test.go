package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/covmut/internal/model"
)

func TestSelectorFile_WriteOverwritesAndRelease(t *testing.T) {
	ctx := context.Background()
	path := m.Path(filepath.Join(t.TempDir(), "target_class.txt"))
	selector := NewSelectorFile(NewLocalFSAdapter(), path)

	assert.Equal(t, path, selector.Path())

	require.NoError(t, selector.Write(ctx, "org.example.LongerName"))
	require.NoError(t, selector.Write(ctx, "org.example.A"))

	content, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, "org.example.A", string(content))

	require.NoError(t, selector.Release(ctx))
	_, err = os.Stat(string(path))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, selector.Release(ctx), "releasing twice is harmless")
}
