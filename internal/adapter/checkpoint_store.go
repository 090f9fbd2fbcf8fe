package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	m "gooze.dev/pkg/covmut/internal/model"
	"gooze.dev/pkg/covmut/pkg"
)

// Table headers. The first column of every table is the class identifier.
var (
	CoverageHeader = []string{"ClassName", "TotalConditions", "CoveredConditions", "ConditionCoverage"}
	MutationHeader = []string{"ClassName", "TotalMutants", "KilledMutants", "MutationScore"}
	SkipHeader     = []string{"ClassName", "Analysis", "Reason"}
)

// CheckpointStore persists per-class results so an interrupted batch can be
// resumed. Rows are only ever appended.
type CheckpointStore interface {
	// EnsureHeaders creates every table with its header if absent or empty.
	EnsureHeaders(ctx context.Context) error

	// Load reads the classes of every table. A table that cannot be read is
	// logged and contributes an empty set; corrupt rows are dropped.
	Load(ctx context.Context) (m.Checkpoint, error)

	AppendCoverage(ctx context.Context, record m.CoverageRecord) error
	AppendMutation(ctx context.Context, record m.MutationRecord) error

	// AppendSkip records a structurally inapplicable analysis. It is a no-op
	// unless the store was opened with skip tracking.
	AppendSkip(ctx context.Context, record m.SkipRecord) error

	// Appended returns how many coverage and mutation rows this store wrote.
	Appended() (coverage, mutation uint64)

	Close() error
}

// StoreOpener builds a CheckpointStore for a run layout.
type StoreOpener func(layout m.OutputLayout, trackSkips bool) CheckpointStore

type csvCheckpointStore struct {
	layout     m.OutputLayout
	trackSkips bool

	coverage pkg.TableSpill[m.CoverageRecord]
	mutation pkg.TableSpill[m.MutationRecord]
	skips    pkg.TableSpill[m.SkipRecord]
}

// NewCSVCheckpointStore returns a CheckpointStore backed by CSV tables. No
// file is touched before EnsureHeaders or the first append.
func NewCSVCheckpointStore(layout m.OutputLayout, trackSkips bool) CheckpointStore {
	return &csvCheckpointStore{layout: layout, trackSkips: trackSkips}
}

func (s *csvCheckpointStore) EnsureHeaders(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error

	if s.coverage == nil {
		s.coverage, err = pkg.OpenTableSpill[m.CoverageRecord](string(s.layout.CoverageTable), coverageCodec{})
		if err != nil {
			return fmt.Errorf("open coverage table: %w", err)
		}
	}

	if s.mutation == nil {
		s.mutation, err = pkg.OpenTableSpill[m.MutationRecord](string(s.layout.MutationTable), mutationCodec{})
		if err != nil {
			return fmt.Errorf("open mutation table: %w", err)
		}
	}

	if s.trackSkips && s.skips == nil {
		s.skips, err = pkg.OpenTableSpill[m.SkipRecord](string(s.layout.SkipTable), skipCodec{})
		if err != nil {
			return fmt.Errorf("open skip table: %w", err)
		}
	}

	return nil
}

func (s *csvCheckpointStore) Load(ctx context.Context) (m.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return m.Checkpoint{}, err
	}

	checkpoint := m.Checkpoint{
		Coverage: readClasses(s.layout.CoverageTable, "coverage", coverageCodec{}, func(r m.CoverageRecord) (m.ClassID, bool) {
			return r.Class, true
		}),
		Mutation: readClasses(s.layout.MutationTable, "mutation", mutationCodec{}, func(r m.MutationRecord) (m.ClassID, bool) {
			return r.Class, true
		}),
		SkippedCoverage: m.NewClassSet(),
		SkippedMutation: m.NewClassSet(),
	}

	if s.trackSkips {
		checkpoint.SkippedCoverage, checkpoint.SkippedMutation = readSkips(s.layout.SkipTable)
	}

	slog.Info("Loaded checkpoint",
		"coverage", len(checkpoint.Coverage),
		"mutation", len(checkpoint.Mutation),
		"skippedCoverage", len(checkpoint.SkippedCoverage),
		"skippedMutation", len(checkpoint.SkippedMutation),
	)

	return checkpoint, nil
}

func (s *csvCheckpointStore) AppendCoverage(ctx context.Context, record m.CoverageRecord) error {
	if err := s.EnsureHeaders(ctx); err != nil {
		return err
	}

	return s.coverage.Append(record)
}

func (s *csvCheckpointStore) AppendMutation(ctx context.Context, record m.MutationRecord) error {
	if err := s.EnsureHeaders(ctx); err != nil {
		return err
	}

	return s.mutation.Append(record)
}

func (s *csvCheckpointStore) AppendSkip(ctx context.Context, record m.SkipRecord) error {
	if !s.trackSkips {
		return nil
	}

	if err := s.EnsureHeaders(ctx); err != nil {
		return err
	}

	return s.skips.Append(record)
}

func (s *csvCheckpointStore) Appended() (uint64, uint64) {
	var coverage, mutation uint64

	if s.coverage != nil {
		coverage = s.coverage.Len()
	}

	if s.mutation != nil {
		mutation = s.mutation.Len()
	}

	return coverage, mutation
}

func (s *csvCheckpointStore) Close() error {
	var errs []error

	if s.coverage != nil {
		errs = append(errs, s.coverage.Close())
	}

	if s.mutation != nil {
		errs = append(errs, s.mutation.Close())
	}

	if s.skips != nil {
		errs = append(errs, s.skips.Close())
	}

	return errors.Join(errs...)
}

// readClasses collects the class of every decodable row. A missing table is
// empty; an unreadable one is logged and treated as empty.
func readClasses[T any](path m.Path, kind string, codec pkg.RowCodec[T], classOf func(T) (m.ClassID, bool)) m.ClassSet {
	classes := m.NewClassSet()

	dropped, err := pkg.RangeTable(string(path), codec, func(_ uint64, item T) error {
		if class, ok := classOf(item); ok {
			classes.Add(class)
		}

		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return m.NewClassSet()
	}

	if err != nil {
		slog.Error("Error reading checkpoint table, treating it as empty", "kind", kind, "path", path, "error", err)
		return m.NewClassSet()
	}

	if dropped > 0 {
		slog.Warn("Ignoring corrupt checkpoint rows, their classes will be analysed again",
			"kind", kind, "path", path, "dropped", dropped)
	}

	return classes
}

func readSkips(path m.Path) (m.ClassSet, m.ClassSet) {
	coverage := readClasses(path, "skip", skipCodec{}, func(r m.SkipRecord) (m.ClassID, bool) {
		return r.Class, r.Analysis == m.AnalysisCoverage
	})
	mutation := readClasses(path, "skip", skipCodec{}, func(r m.SkipRecord) (m.ClassID, bool) {
		return r.Class, r.Analysis == m.AnalysisMutation
	})

	return coverage, mutation
}

// FormatPercent renders a percentage with at least one decimal and no
// trailing zeros beyond it (70.0, 33.33).
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}

	return s
}

type coverageCodec struct{}

func (coverageCodec) Header() []string { return CoverageHeader }

func (coverageCodec) Encode(r m.CoverageRecord) []string {
	return []string{
		string(r.Class),
		strconv.Itoa(r.TotalConditions),
		strconv.Itoa(r.CoveredConditions),
		FormatPercent(r.ConditionCoverage),
	}
}

func (coverageCodec) Decode(row []string) (m.CoverageRecord, error) {
	if len(row) < len(CoverageHeader) {
		return m.CoverageRecord{}, fmt.Errorf("expected %d columns, got %d", len(CoverageHeader), len(row))
	}

	total, err := strconv.Atoi(row[1])
	if err != nil {
		return m.CoverageRecord{}, fmt.Errorf("total conditions: %w", err)
	}

	covered, err := strconv.Atoi(row[2])
	if err != nil {
		return m.CoverageRecord{}, fmt.Errorf("covered conditions: %w", err)
	}

	percent, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return m.CoverageRecord{}, fmt.Errorf("condition coverage: %w", err)
	}

	if row[0] == "" || total <= 0 || covered < 0 || covered > total {
		return m.CoverageRecord{}, fmt.Errorf("invalid coverage row %q", row)
	}

	return m.CoverageRecord{
		Class:             m.ClassID(row[0]),
		TotalConditions:   total,
		CoveredConditions: covered,
		ConditionCoverage: percent,
	}, nil
}

type mutationCodec struct{}

func (mutationCodec) Header() []string { return MutationHeader }

func (mutationCodec) Encode(r m.MutationRecord) []string {
	return []string{
		string(r.Class),
		strconv.Itoa(r.TotalMutants),
		strconv.Itoa(r.KilledMutants),
		FormatPercent(r.MutationScore),
	}
}

func (mutationCodec) Decode(row []string) (m.MutationRecord, error) {
	if len(row) < len(MutationHeader) {
		return m.MutationRecord{}, fmt.Errorf("expected %d columns, got %d", len(MutationHeader), len(row))
	}

	total, err := strconv.Atoi(row[1])
	if err != nil {
		return m.MutationRecord{}, fmt.Errorf("total mutants: %w", err)
	}

	killed, err := strconv.Atoi(row[2])
	if err != nil {
		return m.MutationRecord{}, fmt.Errorf("killed mutants: %w", err)
	}

	score, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return m.MutationRecord{}, fmt.Errorf("mutation score: %w", err)
	}

	if row[0] == "" || total <= 0 || killed < 0 || killed > total {
		return m.MutationRecord{}, fmt.Errorf("invalid mutation row %q", row)
	}

	return m.MutationRecord{
		Class:         m.ClassID(row[0]),
		TotalMutants:  total,
		KilledMutants: killed,
		MutationScore: score,
	}, nil
}

type skipCodec struct{}

func (skipCodec) Header() []string { return SkipHeader }

func (skipCodec) Encode(r m.SkipRecord) []string {
	return []string{string(r.Class), string(r.Analysis), r.Reason}
}

func (skipCodec) Decode(row []string) (m.SkipRecord, error) {
	if len(row) < len(SkipHeader) {
		return m.SkipRecord{}, fmt.Errorf("expected %d columns, got %d", len(SkipHeader), len(row))
	}

	analysis := m.AnalysisKind(row[1])
	if row[0] == "" || (analysis != m.AnalysisCoverage && analysis != m.AnalysisMutation) {
		return m.SkipRecord{}, fmt.Errorf("invalid skip row %q", row)
	}

	return m.SkipRecord{
		Class:    m.ClassID(row[0]),
		Analysis: analysis,
		Reason:   row[2],
	}, nil
}
