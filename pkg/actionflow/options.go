package actionflow

import (
	"log/slog"
	"os"
	"time"

	"github.com/randalmurphal/actionflow/pkg/actionflow/cond"
	"github.com/randalmurphal/actionflow/pkg/actionflow/config"
	"github.com/randalmurphal/actionflow/pkg/actionflow/observability"
)

// Option configures a Registry at construction time.
type Option func(*registryConfig)

type registryConfig struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		name:    "actionflow",
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NewSpanManager(),
	}
}

// WithName sets the engine name attached to every log record.
// Useful when a process runs more than one registry.
func WithName(name string) Option {
	return func(cfg *registryConfig) {
		cfg.name = name
	}
}

// WithLogger sets the structured logger for dispatch and handler logs.
// Pass nil to disable logging entirely. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *registryConfig) {
		cfg.logger = logger
	}
}

// WithMetrics sets the metrics recorder for dispatch instrumentation.
// The default records nothing; pass observability.NewMetricsRecorder()
// to export OpenTelemetry metrics.
func WithMetrics(metrics observability.MetricsRecorder) Option {
	return func(cfg *registryConfig) {
		cfg.metrics = metrics
	}
}

// WithTracing enables OpenTelemetry spans around dispatches and handlers.
// Tracing is disabled by default.
func WithTracing(enabled bool) Option {
	return func(cfg *registryConfig) {
		cfg.tracing = enabled
	}
}

// WithSpanManager sets a custom span manager, implying WithTracing(true).
func WithSpanManager(spans observability.SpanManager) Option {
	return func(cfg *registryConfig) {
		cfg.spans = spans
		cfg.tracing = true
	}
}

// WithSettings applies environment-derived settings: engine name, log
// level, and the metrics and tracing toggles. Settings are applied in
// option order, so a later WithLogger overrides the level-configured
// logger built here.
func WithSettings(s config.Settings) Option {
	return func(cfg *registryConfig) {
		if s.Name != "" {
			cfg.name = s.Name
		}
		cfg.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: s.Level(),
		}))
		if s.Metrics {
			cfg.metrics = observability.NewMetricsRecorder()
		}
		cfg.tracing = s.Tracing
	}
}

// RegisterOption configures a single handler registration.
type RegisterOption func(*handlerConfig)

type handlerConfig struct {
	id       string
	priority int
	blocking bool
	once     bool
	cond     Condition
	condFn   bool
	condExpr bool
	condErr  error
	debounce time.Duration
	throttle time.Duration
	tags     []string
}

// validate rejects option combinations the engine cannot honor.
func (cfg *handlerConfig) validate() error {
	if cfg.condErr != nil {
		return &ConfigError{Option: "condition", Reason: cfg.condErr.Error()}
	}
	if cfg.condFn && cfg.condExpr {
		return &ConfigError{Option: "condition", Reason: "mutually exclusive with condition expression"}
	}
	if cfg.debounce < 0 {
		return &ConfigError{Option: "debounce", Reason: "cannot be negative"}
	}
	if cfg.throttle < 0 {
		return &ConfigError{Option: "throttle", Reason: "cannot be negative"}
	}
	if cfg.debounce > 0 && cfg.throttle > 0 {
		return &ConfigError{Option: "debounce", Reason: "mutually exclusive with throttle"}
	}
	return nil
}

// WithID sets an explicit handler ID. Registering the same ID for the
// same action replaces the previous handler and its pipeline position.
// The default is a generated ID.
func WithID(id string) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.id = id
	}
}

// WithPriority sets the handler priority. Higher priorities run first;
// handlers with equal priority run in registration order. The default is 0.
func WithPriority(priority int) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.priority = priority
	}
}

// WithBlocking controls whether dispatch waits for this handler before
// moving on. Handlers are blocking by default; non-blocking handlers
// run concurrently and their errors never abort the pipeline.
func WithBlocking(blocking bool) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.blocking = blocking
	}
}

// WithOnce removes the handler after its first invocation. The handler
// executes at most once no matter how many dispatches race for it.
func WithOnce() RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.once = true
	}
}

// WithCondition gates the handler on a payload predicate. Handlers
// whose condition returns false are skipped without a result entry.
// Mutually exclusive with WithConditionExpr.
func WithCondition(condition Condition) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.cond = condition
		cfg.condFn = true
	}
}

// WithConditionExpr gates the handler on a payload expression such as
// "priority > 5 and status == 'open'", compiled with the cond package.
// Mutually exclusive with WithCondition.
func WithConditionExpr(expr string) RegisterOption {
	return func(cfg *handlerConfig) {
		pred, err := cond.Compile(expr)
		if err != nil {
			cfg.condErr = err
			return
		}
		cfg.cond = Condition(pred)
		cfg.condExpr = true
	}
}

// WithDebounce delays invocation until window elapses without another
// dispatch of the same action reaching this handler. Only the last
// call in a burst fires, with its own payload. Mutually exclusive
// with WithThrottle.
func WithDebounce(window time.Duration) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.debounce = window
	}
}

// WithThrottle drops invocations arriving within window of the last
// one that ran. Mutually exclusive with WithDebounce.
func WithThrottle(window time.Duration) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.throttle = window
	}
}

// WithTags attaches labels to the registration for bulk removal
// via UnregisterByTag.
func WithTags(tags ...string) RegisterOption {
	return func(cfg *handlerConfig) {
		cfg.tags = append([]string(nil), tags...)
	}
}
