package actionflow

import "sync"

// aggregator collects per-handler outcomes for one dispatch. Entries are
// append-only; non-blocking handlers settle from their own goroutines,
// so all access goes through the mutex.
type aggregator struct {
	mu      sync.Mutex
	entries []HandlerResult
	staged  map[string]any
}

func newAggregator() *aggregator {
	return &aggregator{}
}

// append records a settled invocation.
func (a *aggregator) append(entry HandlerResult) {
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
}

// stage stores a result set via Controller.SetResult. It replaces any
// value the same handler staged earlier and is consumed at settle time.
func (a *aggregator) stage(handlerID string, value any) {
	a.mu.Lock()
	if a.staged == nil {
		a.staged = make(map[string]any)
	}
	a.staged[handlerID] = value
	a.mu.Unlock()
}

// takeStaged removes and returns the staged result for a handler.
func (a *aggregator) takeStaged(handlerID string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	value, ok := a.staged[handlerID]
	if ok {
		delete(a.staged, handlerID)
	}
	return value, ok
}

// snapshot copies the entries settled so far.
func (a *aggregator) snapshot() []HandlerResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := make([]HandlerResult, len(a.entries))
	copy(snap, a.entries)
	return snap
}

// len reports how many invocations have settled.
func (a *aggregator) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
