package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

func collect(ch <-chan QueueItem) []QueueItem {
	var items []QueueItem
	for item := range ch {
		items = append(items, item)
	}

	return items
}

func TestParseClassList(t *testing.T) {
	got := ParseClassList("  org/A \n\n\torg/B\r\n   \norg/C$Inner")

	assert.Equal(t, []m.ClassID{"org/A", "org/B", "org/C$Inner"}, got)
	assert.Empty(t, ParseClassList("\n \n"))
}

func TestLoadClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\nB\n"), 0o600))

	classes, err := LoadClasses(context.Background(), adapter.NewLocalFSAdapter(), m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, []m.ClassID{"A", "B"}, classes)

	_, err = LoadClasses(context.Background(), adapter.NewLocalFSAdapter(), m.Path(path+".missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemaining_PreservesOrder(t *testing.T) {
	all := []m.ClassID{"A", "B", "C", "D", "E"}

	got := Remaining(all, m.NewClassSet("D", "B", "Z"))

	assert.Equal(t, []m.ClassID{"A", "C", "E"}, got)
	assert.Equal(t, all, Remaining(all, nil))
}

func TestCompletedSet(t *testing.T) {
	checkpoint := m.Checkpoint{
		Coverage:        m.NewClassSet("A", "B", "C"),
		Mutation:        m.NewClassSet("A", "D"),
		SkippedCoverage: m.NewClassSet("D"),
		SkippedMutation: m.NewClassSet("B"),
	}

	assert.Equal(t, m.NewClassSet("A"), CompletedSet(checkpoint, false))
	assert.Equal(t, m.NewClassSet("A", "B", "D"), CompletedSet(checkpoint, true))
}

func TestDeriveStates(t *testing.T) {
	checkpoint := m.Checkpoint{
		Coverage: m.NewClassSet("A", "B"),
		Mutation: m.NewClassSet("A", "C"),
	}

	got := DeriveStates([]m.ClassID{"A", "B", "C", "D"}, checkpoint, false)

	assert.Equal(t, []m.ClassState{
		{Class: "A", Status: m.BothDone},
		{Class: "B", Status: m.CoverageDone},
		{Class: "C", Status: m.MutationDone},
		{Class: "D", Status: m.Pending},
	}, got)
}

func TestDeriveStates_CoverageOnlyIsNotCompleted(t *testing.T) {
	checkpoint := m.Checkpoint{Coverage: m.NewClassSet("A")}

	states := DeriveStates([]m.ClassID{"A"}, checkpoint, false)

	assert.Equal(t, m.CoverageDone, states[0].Status)
	assert.False(t, CompletedSet(checkpoint, false).Has("A"))
}

func TestClassQueue_StreamAbsolutePositions(t *testing.T) {
	states := []m.ClassState{
		{Class: "A", Status: m.BothDone},
		{Class: "B", Status: m.Pending},
		{Class: "C", Status: m.BothDone},
		{Class: "D", Status: m.CoverageDone},
	}

	items := collect(NewClassQueue().Stream(context.Background(), states))

	assert.Equal(t, []QueueItem{
		{Position: 3, Total: 4, Class: "B", Status: m.Pending},
		{Position: 4, Total: 4, Class: "D", Status: m.CoverageDone},
	}, items)
}

func TestClassQueue_StreamAllDone(t *testing.T) {
	states := []m.ClassState{{Class: "A", Status: m.BothDone}}

	assert.Empty(t, collect(NewClassQueue().Stream(context.Background(), states)))
}

func TestClassQueue_StreamCancelled(t *testing.T) {
	states := make([]m.ClassState, 100)
	for i := range states {
		states[i] = m.ClassState{Class: m.ClassID(rune('a' + i%26)), Status: m.Pending}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewClassQueue().Stream(ctx, states)

	first := <-ch
	assert.Equal(t, 1, first.Position)

	cancel()

	received := 0
	for range ch {
		received++
	}

	assert.Less(t, received, len(states)-1, "the stream stops once cancelled")
}
