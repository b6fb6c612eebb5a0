// Package ids allocates collision-free identifiers for graph entities.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random RFC 4122 identifiers.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID() string {
	return uuid.New().String()
}

// Sequence generates predictable identifiers ("<prefix>1", "<prefix>2", ...).
// It is meant for tests and fixtures.
type Sequence struct {
	Prefix string
	n      int
}

// NewSequence creates a sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

// NewID returns the next identifier of the sequence.
func (s *Sequence) NewID() string {
	s.n++
	return fmt.Sprintf("%s%d", s.Prefix, s.n)
}

// Func adapts a function to Generator.
type Func func() string

// NewID calls f.
func (f Func) NewID() string { return f() }
