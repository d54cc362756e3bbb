package actionflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HandlerFunc is the signature every action handler implements.
// The payload is the value passed to Dispatch, as last modified by
// earlier handlers in the same run. The controller lets the handler
// steer the run: abort it, rewrite the payload for later handlers,
// or stage an explicit result.
//
// The returned value becomes the handler's result entry unless the
// handler staged one via pc.SetResult. A returned error becomes an
// error entry; for blocking handlers under Dispatch it also aborts
// the remaining pipeline.
type HandlerFunc func(ctx context.Context, payload any, pc *Controller) (any, error)

// Condition decides whether a handler runs for a given payload.
// Returning false skips the handler without recording a result.
type Condition func(payload any) bool

// UnregisterFunc removes the registration that produced it.
// Calling it more than once is a no-op.
type UnregisterFunc func()

// Typed adapts a handler expecting a concrete payload type T.
// Payloads already of type T are passed through directly. Payloads of
// type map[string]any are converted via JSON, so handlers can receive
// struct payloads from config-driven dispatch sites. Any other payload
// type settles the handler with an error.
func Typed[T any](fn func(ctx context.Context, payload T, pc *Controller) (any, error)) HandlerFunc {
	return func(ctx context.Context, payload any, pc *Controller) (any, error) {
		var typed T
		switch p := payload.(type) {
		case T:
			typed = p
		case map[string]any:
			raw, err := json.Marshal(p)
			if err != nil {
				return nil, fmt.Errorf("marshal payload: %w", err)
			}
			if err := json.Unmarshal(raw, &typed); err != nil {
				return nil, fmt.Errorf("payload does not match %T: %w", typed, err)
			}
		default:
			return nil, fmt.Errorf("payload type %T, want %T", payload, typed)
		}
		return fn(ctx, typed, pc)
	}
}

// registration is one handler's entry in an action pipeline.
// Dispatch snapshots pipelines, so a registration may outlive its
// presence in the registry; claimed guards once-handlers across
// concurrent snapshots.
type registration struct {
	action   string
	id       string
	fn       HandlerFunc
	priority int
	blocking bool
	once     bool
	cond     Condition
	debounce time.Duration
	throttle time.Duration
	tags     []string
	seq      uint64

	claimed atomic.Bool
}

// claim reserves a once-handler for a single invocation.
// Handlers without once always claim successfully.
func (reg *registration) claim() bool {
	if !reg.once {
		return true
	}
	return reg.claimed.CompareAndSwap(false, true)
}

func (reg *registration) hasTag(tag string) bool {
	for _, t := range reg.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (reg *registration) gateKey() string {
	return gateKeyFor(reg.action, reg.id)
}

// gateKeyFor names the rate-gate state for one registration.
// Keying by action and handler ID keeps handlers independent even
// when one function is registered under several actions.
func gateKeyFor(action, id string) string {
	return action + "/" + id
}

// newHandlerID generates a short unique handler identifier.
func newHandlerID() string {
	return "h-" + uuid.New().String()[:8]
}
