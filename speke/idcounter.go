package speke

import "sync"

// IDCounter hands out a strictly monotone sequence of integers per id
// string. It is the mechanism behind the id_numbered construction of
// spec.md §3: appending the returned value to a caller-supplied id makes it
// impossible to silently reanimate a dropped session under the same
// framing identity.
//
// The default implementation is a single process-wide singleton guarded by
// one mutex, matching the static unordered_map<string,int> counter in the
// original C++ SPEKE class. Callers that want isolated counters (tests,
// multiple independent SPEKE deployments in one process) can construct
// their own with NewIDCounter and pass it via WithIDCounter.
type IDCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewIDCounter returns a fresh, empty counter.
func NewIDCounter() *IDCounter {
	return &IDCounter{counts: make(map[string]int)}
}

// Next atomically reads and increments the counter for id, returning the
// value it held before the increment.
func (c *IDCounter) Next(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.counts[id]
	c.counts[id] = n + 1
	return n
}

// defaultIDCounter is the library-provided singleton used when a caller
// does not supply their own via WithIDCounter.
var defaultIDCounter = NewIDCounter()
