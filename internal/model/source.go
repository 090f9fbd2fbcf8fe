// Package model defines the data structures shared by the covmut pipeline.
package model

import "strings"

// Path represents a file system path.
type Path string

// ClassID names one analysis target, usually a fully-qualified class name.
// It is the join key across every table.
type ClassID string

// FileStem returns the identifier with path separators replaced, suitable as a
// file-name fragment.
func (c ClassID) FileStem() string {
	return strings.ReplaceAll(string(c), "/", "_")
}

// NestedFileStem is FileStem with nested-type separators replaced as well.
func (c ClassID) NestedFileStem() string {
	return strings.ReplaceAll(c.FileStem(), "$", "_inner_")
}

// ClassSet is an unordered set of class identifiers.
type ClassSet map[ClassID]struct{}

// NewClassSet builds a set from the given identifiers.
func NewClassSet(classes ...ClassID) ClassSet {
	set := make(ClassSet, len(classes))
	for _, class := range classes {
		set.Add(class)
	}

	return set
}

// Add inserts class into the set.
func (s ClassSet) Add(class ClassID) {
	s[class] = struct{}{}
}

// Has reports whether class is in the set. A nil set is empty.
func (s ClassSet) Has(class ClassID) bool {
	_, ok := s[class]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s ClassSet) Union(other ClassSet) ClassSet {
	out := make(ClassSet, len(s)+len(other))
	for class := range s {
		out.Add(class)
	}

	for class := range other {
		out.Add(class)
	}

	return out
}

// Intersect returns a new set holding the members present in both sets.
func (s ClassSet) Intersect(other ClassSet) ClassSet {
	out := make(ClassSet)

	for class := range s {
		if other.Has(class) {
			out.Add(class)
		}
	}

	return out
}
