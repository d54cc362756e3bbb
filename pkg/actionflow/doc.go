/*
Package actionflow provides typed action dispatch with prioritized
handler pipelines.

# Overview

actionflow is a Go library for in-process event-style dispatch: code
registers handlers for named actions, and dispatch sites fire those
actions with a payload. It grew out of command-palette and automation
engines where many independent features react to the same action.

The library is small but complete:
  - Prioritized pipelines with deterministic invocation order
  - Blocking and fire-and-forget handlers in the same pipeline
  - Cooperative aborts with scoped AbortAll
  - Per-handler debounce and throttle gates
  - OpenTelemetry integration for observability

# Basic Usage

Create a registry, register handlers, dispatch actions:

	func persist(ctx context.Context, payload any, pc *actionflow.Controller) (any, error) {
	    doc := payload.(*Document)
	    if err := store.Save(ctx, doc); err != nil {
	        return nil, err
	    }
	    return doc.ID, nil
	}

	func main() {
	    reg := actionflow.New()

	    unregister, err := reg.Register("doc.save", persist,
	        actionflow.WithPriority(10))
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer unregister()

	    if err := reg.Dispatch(context.Background(), "doc.save", doc); err != nil {
	        log.Fatal(err)
	    }
	}

Handlers run in priority order, highest first; handlers with equal
priority run in registration order. Dispatch waits for each blocking
handler before invoking the next, so a handler can rely on everything
before it having settled. Handlers registered with
WithBlocking(false) run concurrently and never delay the pipeline.

Use Typed to work with concrete payload types:

	reg.Register("doc.save", actionflow.Typed(
	    func(ctx context.Context, doc *Document, pc *actionflow.Controller) (any, error) {
	        return store.Save(ctx, doc)
	    }))

# Steering a Run

The controller passed to every handler steers the rest of the run:

	func validate(ctx context.Context, payload any, pc *actionflow.Controller) (any, error) {
	    doc := payload.(*Document)
	    if doc.ReadOnly {
	        pc.Abort("document is read-only")
	        return nil, nil
	    }
	    doc.Normalize()
	    return nil, pc.ModifyPayload(doc)
	}

Abort stops the pipeline: handlers not yet invoked never run, and the
dispatch still returns nil because an abort is a normal outcome, not a
failure. ModifyPayload rewrites the payload seen by later handlers.
SetResult stages an explicit result entry, and Results exposes the
outcomes of handlers that already settled.

AbortAll stops every dispatch in flight, and ResetAbortScope fences
off a new scope so old AbortAll calls cannot reach new dispatches:

	reg.AbortAll("shutting down")
	reg.ResetAbortScope()

# Rate Gating

Debounce and throttle are per-handler, keyed by action and handler ID:

	reg.Register("editor.input", recompile,
	    actionflow.WithID("compiler"),
	    actionflow.WithDebounce(300*time.Millisecond))

	reg.Register("scroll", updateMinimap,
	    actionflow.WithThrottle(100*time.Millisecond))

A debounced handler runs once per burst, with the payload of the last
call; a throttled handler drops calls landing inside the window.
Dropped invocations settle as skipped result entries. Unregistering a
handler cancels its pending debounce.

# Results

DispatchWithResult waits for every handler and returns the full outcome:

	result, err := reg.DispatchWithResult(ctx, "doc.save", doc)
	if err != nil {
	    log.Fatal(err) // only on misuse, never on handler errors
	}
	for _, entry := range result.Results {
	    fmt.Println(entry.HandlerID, entry.Outcome)
	}

Success is true unless the run aborted or a blocking handler failed.
Each handler that ran settles exactly one entry; handlers skipped by
their condition, or never reached because of an abort, are absent.

# Declarative Bindings

Pipelines can be described in config and bound to named functions:

	cfg, err := config.FromFile("handlers.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	specs, err := actionflow.SpecsFromConfig(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	unbind, err := reg.Apply(specs, map[string]actionflow.HandlerFunc{
	    "persist": persist,
	    "index":   index,
	})

# Observability

Enable logging, metrics, and tracing at construction:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	reg := actionflow.New(
	    actionflow.WithLogger(logger),
	    actionflow.WithMetrics(observability.NewMetricsRecorder()),
	    actionflow.WithTracing(true))

Logs include structured fields: dispatch_id, action, handler_id, duration_ms.
OpenTelemetry metrics: actionflow.dispatches, actionflow.handler.executions, etc.
OpenTelemetry tracing: actionflow.dispatch > actionflow.handler.{id} spans.

# Error Handling

Dispatch errors identify the failing handler:

	err := reg.Dispatch(ctx, "doc.save", doc)
	var herr *actionflow.HandlerError
	if errors.As(err, &herr) {
	    log.Printf("handler %s failed: %v", herr.HandlerID, herr.Err)
	}

	var perr *actionflow.PanicError
	if errors.As(err, &perr) {
	    log.Printf("handler %s panicked: %v\n%s", perr.HandlerID, perr.Value, perr.Stack)
	}

Panics in handlers are recovered and converted to PanicError with a
stack trace. Registration problems return *ConfigError, and controller
methods called after their run settled return *InvalidStateError.

# Thread Safety

  - Registry IS safe for concurrent use, including Register during dispatch
  - Controller IS safe for concurrent use within its run
  - DispatchResult is a snapshot and safe to read freely
  - Registrations during a dispatch affect the next dispatch, not the
    pipeline snapshot already in flight

# Subpackages

  - abort: Abort tokens and scoped coordination
  - cond: Payload condition expressions
  - config: Config files and environment settings
  - observability: Logging, metrics, and tracing helpers
  - rategate: Debounce and throttle primitives
*/
package actionflow
