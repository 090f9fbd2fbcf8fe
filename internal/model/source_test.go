package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassID_FileStem(t *testing.T) {
	tests := []struct {
		name       string
		class      ClassID
		wantStem   string
		wantNested string
	}{
		{"plain", "org.jfree.chart.Axis", "org.jfree.chart.Axis", "org.jfree.chart.Axis"},
		{"path-like", "org/jfree/Axis", "org_jfree_Axis", "org_jfree_Axis"},
		{"nested", "org.jfree.Axis$Tick", "org.jfree.Axis$Tick", "org.jfree.Axis_inner_Tick"},
		{"both", "a/b/C$D", "a_b_C$D", "a_b_C_inner_D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStem, tt.class.FileStem())
			assert.Equal(t, tt.wantNested, tt.class.NestedFileStem())
		})
	}
}

func TestClassSet_Intersect(t *testing.T) {
	coverage := NewClassSet("A", "B", "C")
	mutation := NewClassSet("B", "C", "D")

	got := coverage.Intersect(mutation)

	assert.Equal(t, NewClassSet("B", "C"), got)
	assert.True(t, got.Has("B"))
	assert.False(t, got.Has("A"))
	assert.Len(t, coverage.Union(mutation), 4)
}

func TestClassSet_NilIsEmpty(t *testing.T) {
	var set ClassSet

	assert.False(t, set.Has("A"))
	assert.Empty(t, set.Intersect(NewClassSet("A")))
}

func TestRunSummary_Totals(t *testing.T) {
	summary := RunSummary{PriorCompleted: 4, PriorCoverage: 6, PriorMutation: 4, NewCoverage: 3, NewMutation: 1}

	assert.Equal(t, 9, summary.CoverageTotal())
	assert.Equal(t, 5, summary.MutationTotal())
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "done", BothDone.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "unknown", ClassStatus(42).String())
}
