package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out deterministic identifiers for tests. Identifiers take
// the form "<prefix>-<counter>" so assertions stay readable.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator returns a generator using the given prefix. An empty prefix
// defaults to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%d", g.prefix, n)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}
