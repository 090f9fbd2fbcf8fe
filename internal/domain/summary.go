package domain

import (
	"time"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

// priorCounts are distinct listed classes already recorded at startup.
type priorCounts struct {
	completed int
	coverage  int
	mutation  int
}

// countPrior counts each listed class once, however often it repeats. Only
// rows actually present in a table count toward that table.
func countPrior(classes []m.ClassID, checkpoint m.Checkpoint, completed m.ClassSet) priorCounts {
	var prior priorCounts

	seen := m.NewClassSet()

	for _, class := range classes {
		if seen.Has(class) {
			continue
		}

		seen.Add(class)

		if completed.Has(class) {
			prior.completed++
		}

		if checkpoint.Coverage.Has(class) {
			prior.coverage++
		}

		if checkpoint.Mutation.Has(class) {
			prior.mutation++
		}
	}

	return prior
}

// runTally counts per-class outcomes during a run.
type runTally struct {
	total     int
	remaining int
	prior     priorCounts
	skipped   int
	failed    int
}

func newRunTally(total, remaining int, prior priorCounts) *runTally {
	return &runTally{total: total, remaining: remaining, prior: prior}
}

func (t *runTally) record(kind m.OutcomeKind) {
	switch kind {
	case m.OutcomeSkipped:
		t.skipped++
	case m.OutcomeFailed:
		t.failed++
	case m.OutcomeSuccess:
		// Successes are counted by the store as rows are written.
	}
}

// summary builds the run summary. New records are taken from the store so
// that only rows actually persisted are reported.
func (t *runTally) summary(store adapter.CheckpointStore, elapsed time.Duration) m.RunSummary {
	coverage, mutation := store.Appended()

	return m.RunSummary{
		Total:          t.total,
		Remaining:      t.remaining,
		PriorCompleted: t.prior.completed,
		PriorCoverage:  t.prior.coverage,
		PriorMutation:  t.prior.mutation,
		NewCoverage:    int(coverage),
		NewMutation:    int(mutation),
		Skipped:        t.skipped,
		Failed:         t.failed,
		Elapsed:        elapsed,
	}
}
