package model

// AnalysisKind identifies which external analysis produced a result.
type AnalysisKind string

const (
	// AnalysisCoverage is branch/condition coverage analysis.
	AnalysisCoverage AnalysisKind = "coverage"
	// AnalysisMutation is mutation testing.
	AnalysisMutation AnalysisKind = "mutation"
)

// CoverageRecord holds the condition coverage figures of one class.
type CoverageRecord struct {
	Class             ClassID
	TotalConditions   int
	CoveredConditions int
	ConditionCoverage float64 // percentage, rounded to two decimals
}

// MutationRecord holds the mutation testing figures of one class.
type MutationRecord struct {
	Class          ClassID
	TotalMutants   int
	CoveredMutants int // not persisted
	KilledMutants  int
	MutationScore  float64 // percentage as reported by the tool
}

// SkipRecord notes that an analysis is structurally inapplicable to a class,
// e.g. because the class has no conditions or no mutants.
type SkipRecord struct {
	Class    ClassID
	Analysis AnalysisKind
	Reason   string
}
