package model

// OutputLayout locates the checkpoint tables and per-class archives of a run.
type OutputLayout struct {
	CoverageDir   Path
	MutationDir   Path
	CoverageTable Path
	MutationTable Path
	SkipTable     Path
}

// ClassMetric is one (class, value) row of a metric table.
type ClassMetric struct {
	Class ClassID
	Value float64
}
