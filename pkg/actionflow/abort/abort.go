// Package abort provides cooperative cancellation primitives for in-flight
// dispatches.
//
// A Coordinator hands out one Token per dispatch. Handlers and the dispatch
// loop poll the token (or select on Done) between steps; nothing is ever
// interrupted mid-execution. Tokens belong to the coordinator generation
// that issued them, so resetting the scope invalidates stale tokens without
// touching dispatches started afterwards.
//
// Design Influences:
//   - context.Context cancellation (Done channel, cooperative checks)
//   - Go's errgroup first-error-wins semantics (first abort reason wins)
package abort

import "sync"

// Default reasons used when callers pass an empty string.
const (
	reasonAbortAll   = "abort all"
	reasonScopeReset = "scope reset"
	reasonDefault    = "aborted"
)

// Token is the per-dispatch cancellation handle.
//
// A token starts live and flips to aborted at most once; the first abort
// reason wins and later calls are no-ops. All methods are safe for
// concurrent use.
type Token struct {
	generation uint64

	mu      sync.Mutex
	aborted bool
	reason  string
	done    chan struct{}
}

func newToken(generation uint64) *Token {
	return &Token{
		generation: generation,
		done:       make(chan struct{}),
	}
}

// Abort marks the token aborted with the given reason. It returns true if
// this call performed the abort and false if the token was already aborted.
// An empty reason is replaced with a generic one.
func (t *Token) Abort(reason string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.aborted {
		return false
	}
	if reason == "" {
		reason = reasonDefault
	}
	t.aborted = true
	t.reason = reason
	close(t.done)
	return true
}

// Aborted reports whether the token has been aborted.
func (t *Token) Aborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

// Reason returns the abort reason, or "" if the token is still live.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Done returns a channel closed when the token is aborted, for use in
// select statements alongside timers and context cancellation.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Generation returns the coordinator generation the token was issued under.
func (t *Token) Generation() uint64 {
	return t.generation
}

// Coordinator issues and tracks live tokens.
//
// All methods are safe for concurrent use.
type Coordinator struct {
	mu         sync.Mutex
	generation uint64
	live       map[*Token]struct{}
}

// NewCoordinator creates a coordinator starting at generation 1.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		generation: 1,
		live:       make(map[*Token]struct{}),
	}
}

// Acquire issues a new token under the current generation and tracks it
// until released.
func (c *Coordinator) Acquire() *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := newToken(c.generation)
	c.live[t] = struct{}{}
	return t
}

// Release stops tracking a token. Releasing an unknown or already released
// token is a no-op.
func (c *Coordinator) Release(t *Token) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.live, t)
}

// AbortAll aborts every live token in the current generation with the given
// reason and returns the number of tokens this call actually aborted.
// Tokens remain tracked until their dispatches release them.
func (c *Coordinator) AbortAll(reason string) int {
	if reason == "" {
		reason = reasonAbortAll
	}

	c.mu.Lock()
	tokens := make([]*Token, 0, len(c.live))
	for t := range c.live {
		if t.generation == c.generation {
			tokens = append(tokens, t)
		}
	}
	c.mu.Unlock()

	// Abort outside the coordinator lock; Token.Abort takes its own lock
	// and may wake waiting dispatches.
	n := 0
	for _, t := range tokens {
		if t.Abort(reason) {
			n++
		}
	}
	return n
}

// Reset rotates the generation and returns the new one. Every outstanding
// token from prior generations is aborted so stale cancellation requests
// cannot leak into dispatches started after the reset.
func (c *Coordinator) Reset() uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	stale := make([]*Token, 0, len(c.live))
	for t := range c.live {
		if t.generation < gen {
			stale = append(stale, t)
		}
	}
	c.mu.Unlock()

	for _, t := range stale {
		t.Abort(reasonScopeReset)
	}
	return gen
}

// Generation returns the current generation.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// LiveCount returns the number of tokens currently tracked.
func (c *Coordinator) LiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}
