package actionflow

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/randalmurphal/actionflow/pkg/actionflow/abort"
	"github.com/randalmurphal/actionflow/pkg/actionflow/observability"
	"github.com/randalmurphal/actionflow/pkg/actionflow/rategate"
)

// Registry routes dispatched actions to prioritized handler pipelines.
// All methods are safe for concurrent use; registrations made during a
// dispatch take effect on the next dispatch, never on a pipeline
// snapshot already in flight.
//
// Example:
//
//	reg := actionflow.New()
//	unregister, err := reg.Register("file.save", saveHandler,
//	    actionflow.WithPriority(10))
//	if err != nil {
//	    return err
//	}
//	defer unregister()
//
//	if err := reg.Dispatch(ctx, "file.save", doc); err != nil {
//	    return err
//	}
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*pipeline
	nextSeq   uint64

	coord   *abort.Coordinator
	gate    *rategate.Gate
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool
}

// New creates a registry ready for handler registration.
func New(opts ...Option) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger != nil {
		logger = logger.With(slog.String("engine", cfg.name))
	}

	return &Registry{
		pipelines: make(map[string]*pipeline),
		coord:     abort.NewCoordinator(),
		gate:      rategate.New(),
		name:      cfg.name,
		logger:    logger,
		metrics:   cfg.metrics,
		spans:     cfg.spans,
		tracing:   cfg.tracing,
	}
}

// Register adds a handler for action and returns a function that removes
// exactly this registration. Registering an explicit ID that already
// exists for the action replaces the previous handler atomically; the
// replacement takes a fresh pipeline position among equal priorities.
//
// Configuration problems are reported as *ConfigError; a nil handler
// as ErrNilHandler. Nothing is registered on error.
func (r *Registry) Register(action string, fn HandlerFunc, opts ...RegisterOption) (UnregisterFunc, error) {
	if action == "" {
		return nil, &ConfigError{Option: "action", Reason: "cannot be empty"}
	}
	if fn == nil {
		return nil, ErrNilHandler
	}

	cfg := handlerConfig{blocking: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	id := cfg.id
	if id == "" {
		id = newHandlerID()
	}

	reg := &registration{
		action:   action,
		id:       id,
		fn:       fn,
		priority: cfg.priority,
		blocking: cfg.blocking,
		once:     cfg.once,
		cond:     cfg.cond,
		debounce: cfg.debounce,
		throttle: cfg.throttle,
		tags:     cfg.tags,
	}

	r.mu.Lock()
	reg.seq = r.nextSeq
	r.nextSeq++
	p := r.pipelines[action]
	if p == nil {
		p = &pipeline{}
		r.pipelines[action] = p
	}
	replaced := p.insert(reg)
	r.mu.Unlock()

	if replaced {
		// The replaced handler's pending debounce must not fire.
		r.gate.Cancel(reg.gateKey())
	}

	if r.logger != nil {
		r.logger.Debug("handler registered",
			slog.String("action", action),
			slog.String("handler_id", id),
			slog.Int("priority", cfg.priority),
		)
	}

	return func() { r.removeRegistration(reg) }, nil
}

// Unregister removes the handler with the given ID from an action's
// pipeline. Unknown actions and IDs are no-ops, so unregistering twice
// is safe. A pending debounced invocation of the handler is canceled.
func (r *Registry) Unregister(action, id string) {
	r.mu.Lock()
	removed := false
	if p := r.pipelines[action]; p != nil {
		removed = p.removeByID(id)
		if len(p.handlers) == 0 {
			delete(r.pipelines, action)
		}
	}
	r.mu.Unlock()

	if !removed {
		return
	}
	r.gate.Cancel(gateKeyFor(action, id))
	if r.logger != nil {
		r.logger.Debug("handler unregistered",
			slog.String("action", action),
			slog.String("handler_id", id),
		)
	}
}

// UnregisterByTag removes every handler carrying tag, across all
// actions, and returns how many were removed. Pending debounced
// invocations of removed handlers are canceled.
func (r *Registry) UnregisterByTag(tag string) int {
	r.mu.Lock()
	var removed []*registration
	for action, p := range r.pipelines {
		removed = append(removed, p.removeByTag(tag)...)
		if len(p.handlers) == 0 {
			delete(r.pipelines, action)
		}
	}
	r.mu.Unlock()

	for _, reg := range removed {
		r.gate.Cancel(reg.gateKey())
	}
	if len(removed) > 0 && r.logger != nil {
		r.logger.Debug("handlers unregistered",
			slog.String("tag", tag),
			slog.Int("count", len(removed)),
		)
	}
	return len(removed)
}

// HandlerCount returns the number of handlers registered for action.
func (r *Registry) HandlerCount(action string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.pipelines[action]; p != nil {
		return len(p.handlers)
	}
	return 0
}

// HasHandlers reports whether any handler is registered for action.
func (r *Registry) HasHandlers(action string) bool {
	return r.HandlerCount(action) > 0
}

// Actions returns the sorted names of all actions with handlers.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	actions := make([]string, 0, len(r.pipelines))
	for action := range r.pipelines {
		actions = append(actions, action)
	}
	r.mu.RUnlock()
	sort.Strings(actions)
	return actions
}

// HandlerIDs returns the handler IDs for action in invocation order:
// higher priority first, registration order within equal priority.
func (r *Registry) HandlerIDs(action string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.pipelines[action]; p != nil {
		return p.ids()
	}
	return nil
}

// AbortAll aborts every dispatch currently in flight in the active
// abort scope and returns how many were aborted. Dispatches started
// afterward are unaffected. An empty reason is recorded as "abort all".
func (r *Registry) AbortAll(reason string) int {
	n := r.coord.AbortAll(reason)
	if n > 0 && r.logger != nil {
		r.logger.Info("dispatches aborted",
			slog.String("reason", reason),
			slog.Int("count", n),
		)
	}
	return n
}

// ResetAbortScope rotates the abort scope and returns the new
// generation. In-flight dispatches from the previous scope are aborted;
// once rotated, AbortAll only reaches dispatches of the new scope.
func (r *Registry) ResetAbortScope() uint64 {
	gen := r.coord.Reset()
	if r.logger != nil {
		r.logger.Debug("abort scope reset", slog.Uint64("generation", gen))
	}
	return gen
}

// InFlight returns the number of dispatches currently live.
func (r *Registry) InFlight() int {
	return r.coord.LiveCount()
}

// snapshot copies action's pipeline for one dispatch run.
func (r *Registry) snapshot(action string) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.pipelines[action]; p != nil {
		return p.snapshot()
	}
	return nil
}

// removeRegistration drops an exact registration: the once-removal and
// UnregisterFunc path. A replacement registered under the same ID is a
// different registration and survives.
func (r *Registry) removeRegistration(reg *registration) {
	r.mu.Lock()
	removed := false
	if p := r.pipelines[reg.action]; p != nil {
		removed = p.removeExact(reg)
		if len(p.handlers) == 0 {
			delete(r.pipelines, reg.action)
		}
	}
	r.mu.Unlock()

	if removed {
		r.gate.Cancel(reg.gateKey())
	}
}
