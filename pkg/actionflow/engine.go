package actionflow

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/actionflow/pkg/actionflow/abort"
	"github.com/randalmurphal/actionflow/pkg/actionflow/observability"
	"github.com/randalmurphal/actionflow/pkg/actionflow/rategate"
)

// abortReasonCanceled is recorded when context cancellation stops a run.
const abortReasonCanceled = "context canceled"

// Dispatch runs the handler pipeline for action with the given payload.
// It returns once every blocking handler has settled; non-blocking
// handlers keep running in the background and their errors are only
// recorded, never returned.
//
// An error from a blocking handler aborts the remaining pipeline and is
// returned as a *HandlerError. An abort requested through the controller
// is a normal outcome and returns nil. Dispatching an action with no
// handlers is a no-op.
func (r *Registry) Dispatch(ctx context.Context, action string, payload any) error {
	if ctx == nil {
		return ErrNilContext
	}
	_, err := r.dispatch(ctx, action, payload, true)
	return err
}

// DispatchWithResult runs the handler pipeline for action and waits for
// every handler, blocking and non-blocking alike, to settle. Handler
// errors are captured per handler in the result and never returned;
// the only possible error is ErrNilContext.
func (r *Registry) DispatchWithResult(ctx context.Context, action string, payload any) (*DispatchResult, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return r.dispatch(ctx, action, payload, false)
}

// dispatch drives one pipeline run. With failFast set (Dispatch mode) a
// blocking handler error aborts the rest of the pipeline and propagates;
// otherwise (DispatchWithResult mode) every handler settles and errors
// stay in the result.
func (r *Registry) dispatch(ctx context.Context, action string, payload any, failFast bool) (*DispatchResult, error) {
	dispatchID := uuid.New().String()
	snap := r.snapshot(action)
	token := r.coord.Acquire()
	run := newDispatchRun(dispatchID, action, token, r.logger, payload)

	observability.LogDispatchStart(r.logger, dispatchID, action, len(snap))

	execCtx := ctx
	var span trace.Span
	if r.tracing {
		execCtx, span = r.spans.StartDispatchSpan(ctx, action, dispatchID)
	}

	start := time.Now()

	var wg sync.WaitGroup
	spawned := 0

	for _, reg := range snap {
		if reg.cond != nil && !reg.cond(run.payloadNow()) {
			continue
		}

		if reg.throttle > 0 && !r.gate.AllowThrottle(reg.gateKey(), reg.throttle) {
			r.recordRateDrop(execCtx, run, reg, "throttle", SkipThrottled)
			continue
		}

		if reg.debounce > 0 {
			verdictCh := r.gate.Debounce(reg.gateKey(), reg.debounce)
			if !reg.blocking {
				wg.Add(1)
				spawned++
				go r.runDeferred(execCtx, run, reg, verdictCh, &wg)
				continue
			}
			verdict, proceed := awaitVerdict(execCtx, token, verdictCh)
			if !proceed {
				run.noteAborted()
				break
			}
			if verdict != rategate.Fire {
				r.recordRateDrop(execCtx, run, reg, "debounce", skipReasonFor(verdict))
				continue
			}
		}

		if !checkpoint(execCtx, run) {
			break
		}

		if !reg.claim() {
			continue
		}

		if !reg.blocking {
			wg.Add(1)
			spawned++
			go func(reg *registration) {
				defer wg.Done()
				value, err := r.invokeHandler(execCtx, run, reg)
				r.settleHandler(run, reg, value, err)
			}(reg)
			continue
		}

		value, err := r.invokeHandler(execCtx, run, reg)
		r.settleHandler(run, reg, value, err)
		if err != nil && failFast {
			run.abort("handler error: " + reg.id)
			break
		}
	}

	if failFast {
		// The caller only waits for blocking handlers. Stragglers finish
		// in the background; the run stays live until they settle.
		if spawned == 0 {
			r.finalize(execCtx, run, span, start)
		} else {
			go func() {
				wg.Wait()
				r.finalize(execCtx, run, span, start)
			}()
		}
		if herr := run.blockingErrNow(); herr != nil {
			return nil, herr
		}
		return nil, nil
	}

	wg.Wait()
	success := r.finalize(execCtx, run, span, start)

	return &DispatchResult{
		DispatchID:   dispatchID,
		Action:       action,
		Success:      success,
		Aborted:      token.Aborted(),
		AbortReason:  token.Reason(),
		Results:      run.agg.snapshot(),
		FinalPayload: run.payloadNow(),
	}, nil
}

// runDeferred waits out a debounce window in the background, then runs
// the handler if its invocation survived the burst.
func (r *Registry) runDeferred(ctx context.Context, run *dispatchRun, reg *registration, verdictCh <-chan rategate.Verdict, wg *sync.WaitGroup) {
	defer wg.Done()

	verdict, proceed := awaitVerdict(ctx, run.token, verdictCh)
	if !proceed {
		run.noteAborted()
		return
	}
	if verdict != rategate.Fire {
		r.recordRateDrop(ctx, run, reg, "debounce", skipReasonFor(verdict))
		return
	}
	if !checkpoint(ctx, run) {
		return
	}
	if !reg.claim() {
		return
	}

	value, err := r.invokeHandler(ctx, run, reg)
	r.settleHandler(run, reg, value, err)
}

// invokeHandler runs one handler with panic recovery and full
// observability. Panics surface as *PanicError.
func (r *Registry) invokeHandler(ctx context.Context, run *dispatchRun, reg *registration) (any, error) {
	observability.LogHandlerStart(r.logger, reg.id)

	handlerCtx := ctx
	var span trace.Span
	if r.tracing {
		handlerCtx, span = r.spans.StartHandlerSpan(ctx, reg.id)
	}

	handlerStart := time.Now()
	value, err := r.callHandler(handlerCtx, run, reg)
	duration := time.Since(handlerStart)

	r.metrics.RecordHandlerExecution(handlerCtx, run.action, reg.id, duration, err)
	if r.tracing {
		r.spans.EndSpanWithError(span, err)
	}

	if err != nil {
		observability.LogHandlerError(r.logger, reg.id, err)
		return nil, err
	}
	observability.LogHandlerComplete(r.logger, reg.id, float64(duration.Milliseconds()))
	return value, nil
}

// callHandler invokes the handler function, converting panics to errors.
func (r *Registry) callHandler(ctx context.Context, run *dispatchRun, reg *registration) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = nil
			err = &PanicError{
				Action:    run.action,
				HandlerID: reg.id,
				Value:     rec,
				Stack:     string(debug.Stack()),
			}
		}
	}()

	pc := &Controller{run: run, handlerID: reg.id}
	return reg.fn(ctx, run.payloadNow(), pc)
}

// settleHandler records the invocation outcome and applies once-removal.
// Errors win over staged results, staged results over return values.
func (r *Registry) settleHandler(run *dispatchRun, reg *registration, value any, err error) {
	staged, hasStaged := run.agg.takeStaged(reg.id)

	switch {
	case err != nil:
		run.agg.append(HandlerResult{HandlerID: reg.id, Outcome: OutcomeError, Err: err})
		if reg.blocking {
			run.setBlockingErr(&HandlerError{Action: run.action, HandlerID: reg.id, Err: err})
		}
	case hasStaged:
		run.agg.append(HandlerResult{HandlerID: reg.id, Outcome: OutcomeValue, Value: staged})
	default:
		run.agg.append(HandlerResult{HandlerID: reg.id, Outcome: OutcomeValue, Value: value})
	}

	if reg.once {
		r.removeRegistration(reg)
	}
}

// recordRateDrop settles an invocation dropped by a rate gate.
func (r *Registry) recordRateDrop(ctx context.Context, run *dispatchRun, reg *registration, gate, reason string) {
	run.agg.append(HandlerResult{HandlerID: reg.id, Outcome: OutcomeSkipped, SkipReason: reason})
	observability.LogRateDrop(r.logger, run.action, reg.id, gate)
	r.metrics.RecordRateDrop(ctx, run.action, gate)
}

// finalize completes the run once every handler has settled: final state
// transition, dispatch metrics and logs, span end, token release.
func (r *Registry) finalize(ctx context.Context, run *dispatchRun, span trace.Span, start time.Time) bool {
	run.complete()

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	aborted := run.token.Aborted()
	herr := run.blockingErrNow()
	success := !aborted && herr == nil

	r.metrics.RecordDispatch(ctx, run.action, success, duration)

	if aborted {
		reason := run.token.Reason()
		r.metrics.RecordAbort(ctx, run.action, reason)
		observability.LogDispatchAborted(r.logger, run.dispatchID, run.action, reason, durationMs)
	} else {
		observability.LogDispatchComplete(r.logger, run.dispatchID, run.action, durationMs, run.agg.len())
	}

	if r.tracing {
		if aborted {
			r.spans.AddSpanEvent(ctx, "dispatch.aborted", attribute.String("reason", run.token.Reason()))
		}
		var spanErr error
		if herr != nil {
			spanErr = herr
		}
		r.spans.EndSpanWithError(span, spanErr)
	}

	r.coord.Release(run.token)
	return success
}

// checkpoint reports whether the run may proceed to the next handler.
// A canceled context aborts the run at the same point an external abort
// would be observed.
func checkpoint(ctx context.Context, run *dispatchRun) bool {
	if ctx.Err() != nil {
		run.abort(abortReasonCanceled)
	}
	if run.token.Aborted() {
		run.noteAborted()
		return false
	}
	return true
}

// awaitVerdict waits for a debounce verdict, giving up when the run
// aborts or the context is canceled.
func awaitVerdict(ctx context.Context, token *abort.Token, verdictCh <-chan rategate.Verdict) (rategate.Verdict, bool) {
	select {
	case v := <-verdictCh:
		return v, true
	case <-token.Done():
		return 0, false
	case <-ctx.Done():
		token.Abort(abortReasonCanceled)
		return 0, false
	}
}

// skipReasonFor maps a non-fire debounce verdict to a skip reason.
func skipReasonFor(v rategate.Verdict) string {
	if v == rategate.Canceled {
		return SkipCanceled
	}
	return SkipDebounced
}
