package model

import "time"

// OutcomeKind tags the result of one analysis step.
type OutcomeKind int

const (
	// OutcomeSuccess means a valid record was produced.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeSkipped means the analysis does not apply to the class.
	OutcomeSkipped
	// OutcomeFailed means the tool or its output could not be used.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of analysing one class.
type Outcome[T any] struct {
	Kind   OutcomeKind
	Record T
	Reason string
	Err    error
}

// Success wraps a valid record.
func Success[T any](record T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Record: record}
}

// Skipped reports a structurally inapplicable analysis.
func Skipped[T any](reason string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSkipped, Reason: reason}
}

// Failed reports a tool or parsing failure. The class stays eligible for retry.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFailed, Err: err}
}

// ClassStatus is the resume state of a class, derived from the checkpoint tables.
type ClassStatus int

const (
	// Pending means neither analysis has a result.
	Pending ClassStatus = iota
	// CoverageDone means only the coverage analysis has a result.
	CoverageDone
	// MutationDone means only the mutation analysis has a result.
	MutationDone
	// BothDone means the class is complete and is skipped on resume.
	BothDone
)

func (s ClassStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case CoverageDone:
		return "coverage-done"
	case MutationDone:
		return "mutation-done"
	case BothDone:
		return "done"
	default:
		return "unknown"
	}
}

// ClassState pairs a class with its derived status.
type ClassState struct {
	Class  ClassID
	Status ClassStatus
}

// Checkpoint holds the class sets found in the checkpoint tables.
type Checkpoint struct {
	Coverage        ClassSet
	Mutation        ClassSet
	SkippedCoverage ClassSet
	SkippedMutation ClassSet
}

// RunSummary aggregates the counters of one batch run. The Prior counts are
// distinct listed classes already recorded when the run started.
type RunSummary struct {
	Total          int
	Remaining      int
	PriorCompleted int
	PriorCoverage  int
	PriorMutation  int
	NewCoverage    int
	NewMutation    int
	Skipped        int
	Failed         int
	Elapsed        time.Duration
}

// CoverageTotal is the number of classes with a coverage result after the run.
func (s RunSummary) CoverageTotal() int {
	return s.PriorCoverage + s.NewCoverage
}

// MutationTotal is the number of classes with a mutation result after the run.
func (s RunSummary) MutationTotal() int {
	return s.PriorMutation + s.NewMutation
}

// ProjectSummary is the correlation result of one project folder.
type ProjectSummary struct {
	Project     string  `yaml:"project"`
	Correlation float64 `yaml:"correlation"`
	PValue      float64 `yaml:"p_value"`
	Classes     int     `yaml:"num_classes"`
	Plot        Path    `yaml:"plot,omitempty"`
}
