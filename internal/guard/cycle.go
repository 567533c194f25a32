package guard

import "sync"

// CycleDetector remembers keys seen within a scope so a loop can tell when
// it has come back to a state it already visited.
//
// The allocator scopes by identifier and records slot indices it tried; the
// research solver scopes by run and records digests of the queue plus its
// requirements. Coming back to a recorded key means the loop would never
// terminate.
type CycleDetector struct {
	mu      sync.Mutex
	history map[string]map[string]bool
}

// NewCycleDetector creates an empty detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{
		history: make(map[string]map[string]bool),
	}
}

// WouldCycle reports whether key was already recorded in scope.
func (c *CycleDetector) WouldCycle(scope, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history[scope] == nil {
		return false
	}
	return c.history[scope][key]
}

// Record marks key as visited in scope.
func (c *CycleDetector) Record(scope, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history[scope] == nil {
		c.history[scope] = make(map[string]bool)
	}
	c.history[scope][key] = true
}

// Visit records key and reports whether it had been seen before.
func (c *CycleDetector) Visit(scope, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history[scope] == nil {
		c.history[scope] = make(map[string]bool)
	}
	seen := c.history[scope][key]
	c.history[scope][key] = true
	return seen
}

// Clear removes all history for a scope.
func (c *CycleDetector) Clear(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.history, scope)
}

// ScopeSize returns the number of keys recorded for a scope.
func (c *CycleDetector) ScopeSize(scope string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.history[scope])
}
