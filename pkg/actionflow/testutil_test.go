package actionflow

import (
	"context"
	"sync"
	"testing"
	"time"
)

// Shared helpers used across tests

// tracker records handler executions in order. Non-blocking handlers
// settle from their own goroutines, so access is mutex-guarded.
type tracker struct {
	mu    sync.Mutex
	names []string
}

func (tr *tracker) add(name string) {
	tr.mu.Lock()
	tr.names = append(tr.names, name)
	tr.mu.Unlock()
}

func (tr *tracker) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.names...)
}

func (tr *tracker) count() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.names)
}

// Helper handler functions

// makeTrackingHandler records its name when invoked.
func makeTrackingHandler(name string, tr *tracker) HandlerFunc {
	return func(ctx context.Context, payload any, pc *Controller) (any, error) {
		tr.add(name)
		return name, nil
	}
}

// makeFailingHandler returns the given error.
func makeFailingHandler(err error) HandlerFunc {
	return func(ctx context.Context, payload any, pc *Controller) (any, error) {
		return nil, err
	}
}

// makePanicHandler panics with the given value.
func makePanicHandler(value any) HandlerFunc {
	return func(ctx context.Context, payload any, pc *Controller) (any, error) {
		panic(value)
	}
}

// noopHandler does nothing.
func noopHandler(ctx context.Context, payload any, pc *Controller) (any, error) {
	return nil, nil
}

// newTestRegistry creates a registry with logging disabled to keep
// test output quiet.
func newTestRegistry() *Registry {
	return New(WithLogger(nil))
}

// eventually polls cond until it holds or the timeout expires.
// Used to observe non-blocking handlers settling in the background.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
