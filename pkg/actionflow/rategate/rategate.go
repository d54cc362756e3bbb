// Package rategate provides debounce and throttle gating for dispatch
// handlers.
//
// A Gate tracks independent state per key (one key per registered handler),
// so rate limits on one handler never interfere with another. Throttling
// drops calls inside the window; debouncing coalesces rapid calls so only
// the last one fires after a quiet period. Dropped calls are never queued.
//
// Thread-safety: all methods are safe for concurrent use.
package rategate

import (
	"sync"
	"time"
)

// Verdict is the outcome delivered to a debounce waiter.
type Verdict int

// Debounce verdicts.
const (
	// Fire means the quiet period elapsed and the waiting call should run.
	Fire Verdict = iota

	// Superseded means a newer call replaced this one before the quiet
	// period elapsed; the waiting call must not run.
	Superseded

	// Canceled means the key was canceled (typically on unregister) while
	// this call was waiting.
	Canceled
)

// String returns the verdict name for logs and skip reasons.
func (v Verdict) String() string {
	switch v {
	case Fire:
		return "fire"
	case Superseded:
		return "superseded"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type entry struct {
	lastRun time.Time
	timer   *time.Timer
	seq     uint64 // invalidates stale timer callbacks
	waiter  chan Verdict
}

// Gate holds per-key throttle and debounce state.
type Gate struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty gate.
func New() *Gate {
	return &Gate{entries: make(map[string]*entry)}
}

func (g *Gate) entryLocked(key string) *entry {
	e, ok := g.entries[key]
	if !ok {
		e = &entry{}
		g.entries[key] = e
	}
	return e
}

// AllowThrottle reports whether a call on key is allowed under the given
// throttle window. The first call on a key is always allowed; subsequent
// calls are allowed only once the window has elapsed since the last allowed
// call. Allowed calls advance the window; dropped calls do not.
func (g *Gate) AllowThrottle(key string, window time.Duration) bool {
	if window <= 0 {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entryLocked(key)
	now := time.Now()
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < window {
		return false
	}
	e.lastRun = now
	return true
}

// Debounce schedules a call on key and returns a channel that delivers
// exactly one Verdict: Fire once the window elapses with no newer call,
// Superseded if a newer call arrives first, or Canceled if the key is
// canceled. The channel is buffered, so the verdict is delivered even if
// the caller has stopped listening.
func (g *Gate) Debounce(key string, window time.Duration) <-chan Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entryLocked(key)

	// A newer call replaces the pending one.
	if e.waiter != nil {
		e.waiter <- Superseded
		e.waiter = nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}

	e.seq++
	seq := e.seq
	ch := make(chan Verdict, 1)
	e.waiter = ch

	e.timer = time.AfterFunc(window, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		// Only fire if this timer is still the current one for the key.
		if e.seq == seq && e.waiter == ch {
			e.waiter = nil
			e.timer = nil
			ch <- Fire
		}
	})

	return ch
}

// Cancel drops all gate state for key. A pending debounce waiter receives
// Canceled and its timer is stopped. Canceling an unknown key is a no-op.
func (g *Gate) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.seq++
	if e.waiter != nil {
		e.waiter <- Canceled
		e.waiter = nil
	}
	delete(g.entries, key)
}

// Len returns the number of keys with gate state.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
