package domain

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gooze.dev/pkg/covmut/internal/adapter"
	m "gooze.dev/pkg/covmut/internal/model"
)

// QueueItem is one class to analyse with its absolute queue position. Status
// tells which analyses are already recorded.
type QueueItem struct {
	Position int
	Total    int
	Class    m.ClassID
	Status   m.ClassStatus
}

// ClassQueue streams the classes that still need work.
type ClassQueue interface {
	// Stream emits every state that is not BothDone, in list order. The
	// channel closes when done or when ctx is cancelled.
	Stream(ctx context.Context, states []m.ClassState) <-chan QueueItem
}

type classQueue struct{}

// NewClassQueue creates a ClassQueue.
func NewClassQueue() ClassQueue {
	return classQueue{}
}

func (classQueue) Stream(ctx context.Context, states []m.ClassState) <-chan QueueItem {
	pending := make([]m.ClassState, 0, len(states))

	for _, state := range states {
		if state.Status != m.BothDone {
			pending = append(pending, state)
		}
	}

	offset := len(states) - len(pending)
	ch := make(chan QueueItem)

	go func() {
		defer close(ch)

		for i, state := range pending {
			item := QueueItem{Position: i + 1 + offset, Total: len(states), Class: state.Class, Status: state.Status}

			select {
			case <-ctx.Done():
				slog.Debug("Class queue cancelled", "position", item.Position)
				return
			case ch <- item:
			}
		}
	}()

	return ch
}

// LoadClasses reads the ordered class list, one identifier per line.
func LoadClasses(ctx context.Context, fs adapter.FSAdapter, path m.Path) ([]m.ClassID, error) {
	content, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read class list %s: %w", path, err)
	}

	return ParseClassList(string(content)), nil
}

// ParseClassList trims every line and drops blank ones.
func ParseClassList(content string) []m.ClassID {
	var classes []m.ClassID

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		classes = append(classes, m.ClassID(line))
	}

	return classes
}

// doneSets returns the classes considered done per analysis. Skip ledger
// entries count only when skips are remembered.
func doneSets(checkpoint m.Checkpoint, rememberSkips bool) (m.ClassSet, m.ClassSet) {
	coverage, mutation := checkpoint.Coverage, checkpoint.Mutation

	if rememberSkips {
		coverage = coverage.Union(checkpoint.SkippedCoverage)
		mutation = mutation.Union(checkpoint.SkippedMutation)
	}

	return coverage, mutation
}

// CompletedSet is the set of classes with both analyses done.
func CompletedSet(checkpoint m.Checkpoint, rememberSkips bool) m.ClassSet {
	coverage, mutation := doneSets(checkpoint, rememberSkips)
	return coverage.Intersect(mutation)
}

// DeriveStates computes the status of every class, in list order.
func DeriveStates(classes []m.ClassID, checkpoint m.Checkpoint, rememberSkips bool) []m.ClassState {
	coverage, mutation := doneSets(checkpoint, rememberSkips)
	states := make([]m.ClassState, 0, len(classes))

	for _, class := range classes {
		states = append(states, m.ClassState{Class: class, Status: statusOf(class, coverage, mutation)})
	}

	return states
}

func statusOf(class m.ClassID, coverage, mutation m.ClassSet) m.ClassStatus {
	switch hasCoverage, hasMutation := coverage.Has(class), mutation.Has(class); {
	case hasCoverage && hasMutation:
		return m.BothDone
	case hasCoverage:
		return m.CoverageDone
	case hasMutation:
		return m.MutationDone
	default:
		return m.Pending
	}
}

// Remaining filters out completed classes, preserving order.
func Remaining(all []m.ClassID, completed m.ClassSet) []m.ClassID {
	remaining := make([]m.ClassID, 0, len(all))

	for _, class := range all {
		if completed.Has(class) {
			continue
		}

		remaining = append(remaining, class)
	}

	return remaining
}
