package blocks

// ListCounters hands out ordinals for numbered lists. Scopes are path
// strings built from the tree position of a list run, so sibling lists in
// different places never share a counter. A tracker lives for one render pass.
type ListCounters struct {
	counters map[string]int
}

// NewListCounters creates an empty tracker
func NewListCounters() *ListCounters {
	return &ListCounters{counters: make(map[string]int)}
}

// Next returns the next ordinal for scope, starting at 1
func (c *ListCounters) Next(scope string) int {
	c.counters[scope]++
	return c.counters[scope]
}

// Reset restarts scope so the following Next returns 1
func (c *ListCounters) Reset(scope string) {
	c.counters[scope] = 0
}
