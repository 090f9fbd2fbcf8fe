package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	m "gooze.dev/pkg/covmut/internal/model"
)

// MutationScoreMarker must appear in the mutation tool output for the run to
// count as completed.
const MutationScoreMarker = "Mutation score:"

var (
	// ErrNoValidData marks a report that is well-formed but describes a class
	// the analysis does not apply to (zero conditions, zero mutants).
	ErrNoValidData = errors.New("no valid data")
	// ErrMissingMarker marks mutation output lacking the score marker.
	ErrMissingMarker = errors.New("mutation score marker not found")
	// ErrMissingField marks a report lacking a mandatory field.
	ErrMissingField = errors.New("missing field")
)

var (
	branchesValidPattern   = regexp.MustCompile(`branches-valid="([0-9]*)"`)
	branchesCoveredPattern = regexp.MustCompile(`branches-covered="([0-9]*)"`)

	mutantsGeneratedPattern = regexp.MustCompile(`Mutants generated:\s*([0-9]+)`)
	mutantsCoveredPattern   = regexp.MustCompile(`Mutants covered:\s*([0-9]+)`)
	mutantsKilledPattern    = regexp.MustCompile(`Mutants killed:\s*([0-9]+)`)
	mutationScorePattern    = regexp.MustCompile(`Mutation score:\s*([0-9.]+)`)
)

// ReportParser extracts a record from the raw output of an analysis tool.
// The returned record has no class set.
type ReportParser[T any] interface {
	Parse(raw string) (T, error)
}

// extractField returns the first capture group of the first match. An empty
// capture counts as absent.
func extractField(pattern *regexp.Regexp, text string) (string, bool) {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 || match[1] == "" {
		return "", false
	}

	return match[1], true
}

// intField parses an extracted integer, defaulting to 0.
func intField(pattern *regexp.Regexp, text string) int {
	raw, ok := extractField(pattern, text)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}

	return n
}

// CoverageParser reads branch counters from an XML coverage report.
type CoverageParser struct{}

// Parse implements ReportParser.
func (CoverageParser) Parse(raw string) (m.CoverageRecord, error) {
	totalRaw, ok := extractField(branchesValidPattern, raw)
	if !ok {
		return m.CoverageRecord{}, fmt.Errorf("branches-valid absent: %w", ErrNoValidData)
	}

	total, err := strconv.Atoi(totalRaw)
	if err != nil {
		return m.CoverageRecord{}, fmt.Errorf("branches-valid %q: %w", totalRaw, err)
	}

	if total <= 0 {
		return m.CoverageRecord{}, fmt.Errorf("zero conditions: %w", ErrNoValidData)
	}

	coveredRaw, ok := extractField(branchesCoveredPattern, raw)
	if !ok {
		return m.CoverageRecord{}, fmt.Errorf("branches-covered: %w", ErrMissingField)
	}

	covered, err := strconv.Atoi(coveredRaw)
	if err != nil {
		return m.CoverageRecord{}, fmt.Errorf("branches-covered %q: %w", coveredRaw, err)
	}

	if covered > total {
		return m.CoverageRecord{}, fmt.Errorf("branches-covered %d exceeds branches-valid %d", covered, total)
	}

	return m.CoverageRecord{
		TotalConditions:   total,
		CoveredConditions: covered,
		ConditionCoverage: roundPercent(float64(covered) * 100 / float64(total)),
	}, nil
}

// MutationParser reads the summary block printed by the mutation tool.
// Individual counters that cannot be parsed default to 0.
type MutationParser struct{}

// Parse implements ReportParser.
func (MutationParser) Parse(raw string) (m.MutationRecord, error) {
	if !strings.Contains(raw, MutationScoreMarker) {
		return m.MutationRecord{}, ErrMissingMarker
	}

	record := m.MutationRecord{
		TotalMutants:   intField(mutantsGeneratedPattern, raw),
		CoveredMutants: intField(mutantsCoveredPattern, raw),
		KilledMutants:  intField(mutantsKilledPattern, raw),
	}

	if scoreRaw, ok := extractField(mutationScorePattern, raw); ok {
		if score, err := strconv.ParseFloat(scoreRaw, 64); err == nil {
			record.MutationScore = score
		}
	}

	if record.TotalMutants <= 0 {
		return m.MutationRecord{}, fmt.Errorf("zero mutants: %w", ErrNoValidData)
	}

	return record, nil
}

// roundPercent rounds to two decimals, halves to even (1/32 gives 3.12, not
// 3.13), so values match tables written by Python's round(x, 2).
func roundPercent(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
