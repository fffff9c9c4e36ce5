package testutil

import "sync"

// FixedRunIDGenerator returns predetermined run IDs in order.
//
// This enables deterministic journal rows and golden output. Once the list
// is exhausted the last ID repeats, so a test that imports more often than
// it planned for still runs.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator over ids. With no ids it
// returns "test-run-default".
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 {
		ids = []string{"test-run-default"}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
