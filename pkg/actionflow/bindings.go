package actionflow

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/randalmurphal/actionflow/pkg/actionflow/config"
)

// HandlerSpec describes one handler registration in declarative form,
// typically parsed from a config file via SpecsFromConfig. Func names a
// handler function resolved through the map passed to Apply.
type HandlerSpec struct {
	Action      string
	Func        string
	ID          string
	Priority    int
	NonBlocking bool
	Once        bool
	Condition   string
	Debounce    time.Duration
	Throttle    time.Duration
	Tags        []string
}

// options converts the spec to registration options.
func (s HandlerSpec) options() []RegisterOption {
	opts := []RegisterOption{
		WithPriority(s.Priority),
		WithBlocking(!s.NonBlocking),
	}
	if s.ID != "" {
		opts = append(opts, WithID(s.ID))
	}
	if s.Once {
		opts = append(opts, WithOnce())
	}
	if s.Condition != "" {
		opts = append(opts, WithConditionExpr(s.Condition))
	}
	if s.Debounce > 0 {
		opts = append(opts, WithDebounce(s.Debounce))
	}
	if s.Throttle > 0 {
		opts = append(opts, WithThrottle(s.Throttle))
	}
	if len(s.Tags) > 0 {
		opts = append(opts, WithTags(s.Tags...))
	}
	return opts
}

// SpecsFromConfig parses handler specs from the "handlers" list of a
// config. Each entry is a mapping:
//
//	handlers:
//	  - action: file.save
//	    func: persist
//	    priority: 10
//	    blocking: true
//	    condition: "size < 1048576"
//	    throttle_ms: 250
//	    tags: [storage]
//
// Handlers are blocking unless "blocking: false" is given. Durations
// are whole milliseconds; fractional values for priority, debounce_ms,
// or throttle_ms are rejected with *ConfigError.
func SpecsFromConfig(cfg config.Config) ([]HandlerSpec, error) {
	items := cfg.Slice("handlers", nil)
	specs := make([]HandlerSpec, 0, len(items))

	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, &ConfigError{
				Option: fmt.Sprintf("handlers[%d]", i),
				Reason: "must be a mapping",
			}
		}
		hc := config.New(fields)

		action := hc.String("action", "")
		if action == "" {
			return nil, &ConfigError{
				Option: fmt.Sprintf("handlers[%d].action", i),
				Reason: "is required",
			}
		}
		fn := hc.String("func", "")
		if fn == "" {
			return nil, &ConfigError{
				Option: fmt.Sprintf("handlers[%d].func", i),
				Reason: "is required",
			}
		}

		for _, key := range []string{"priority", "debounce_ms", "throttle_ms"} {
			if err := requireWhole(hc, key, i); err != nil {
				return nil, err
			}
		}

		spec := HandlerSpec{
			Action:      action,
			Func:        fn,
			ID:          hc.String("id", ""),
			Priority:    hc.Int("priority", 0),
			NonBlocking: !hc.Bool("blocking", true),
			Once:        hc.Bool("once", false),
			Condition:   hc.String("condition", ""),
			Debounce:    hc.Millis("debounce_ms", 0),
			Throttle:    hc.Millis("throttle_ms", 0),
			Tags:        hc.StringSlice("tags", nil),
		}

		if spec.Debounce > 0 && spec.Throttle > 0 {
			return nil, &ConfigError{
				Option: fmt.Sprintf("handlers[%d].debounce_ms", i),
				Reason: "mutually exclusive with throttle_ms",
			}
		}
		if spec.Debounce < 0 || spec.Throttle < 0 {
			return nil, &ConfigError{
				Option: fmt.Sprintf("handlers[%d]", i),
				Reason: "durations cannot be negative",
			}
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// requireWhole rejects fractional numbers for integer-valued fields.
// JSON decoding yields float64 for every number, so whole floats pass.
func requireWhole(hc config.Config, key string, index int) error {
	if !hc.Has(key) {
		return nil
	}
	if f, ok := hc.Any(key, nil).(float64); ok && f != math.Trunc(f) {
		return &ConfigError{
			Option: fmt.Sprintf("handlers[%d].%s", index, key),
			Reason: "must be a whole number",
		}
	}
	return nil
}

// Apply registers every spec, resolving function names through funcs.
// The specs are validated and resolved up front; on any error nothing
// stays registered. The returned UnregisterFunc removes everything
// Apply registered.
func (r *Registry) Apply(specs []HandlerSpec, funcs map[string]HandlerFunc) (UnregisterFunc, error) {
	resolved := make([]HandlerFunc, len(specs))
	for i, spec := range specs {
		fn, ok := funcs[spec.Func]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHandlerFunc, spec.Func)
		}
		resolved[i] = fn
	}

	unregs := make([]UnregisterFunc, 0, len(specs))
	for i, spec := range specs {
		unreg, err := r.Register(spec.Action, resolved[i], spec.options()...)
		if err != nil {
			for _, u := range unregs {
				u()
			}
			return nil, fmt.Errorf("spec %d (%s): %w", i, spec.Action, err)
		}
		unregs = append(unregs, unreg)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unregs {
				u()
			}
		})
	}, nil
}
