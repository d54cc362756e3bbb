package actionflow

import (
	"log/slog"
	"sync"

	"github.com/randalmurphal/actionflow/pkg/actionflow/abort"
	"github.com/randalmurphal/actionflow/pkg/actionflow/observability"
)

// runState is the lifecycle of one dispatch.
type runState string

const (
	stateRunning   runState = "running"
	stateAborted   runState = "aborted"
	stateCompleted runState = "completed"
)

// dispatchRun carries the state shared by every handler invocation of
// one dispatch: the abort token, the payload cell, and the aggregator.
type dispatchRun struct {
	dispatchID string
	action     string
	token      *abort.Token
	logger     *slog.Logger
	agg        *aggregator

	mu      sync.Mutex
	state   runState
	payload any

	// blockingErr holds the first error from a blocking handler.
	// It decides Success and, under Dispatch, propagates to the caller.
	blockingErr *HandlerError
}

func newDispatchRun(dispatchID, action string, token *abort.Token, logger *slog.Logger, payload any) *dispatchRun {
	return &dispatchRun{
		dispatchID: dispatchID,
		action:     action,
		token:      token,
		logger:     logger,
		agg:        newAggregator(),
		state:      stateRunning,
		payload:    payload,
	}
}

// abort stops the run. The first reason wins; calls after the run left
// the running state are no-ops.
func (r *dispatchRun) abort(reason string) {
	r.mu.Lock()
	if r.state != stateRunning {
		r.mu.Unlock()
		return
	}
	r.state = stateAborted
	r.mu.Unlock()
	r.token.Abort(reason)
}

// noteAborted syncs the run state after the token was aborted
// externally, via AbortAll, a scope reset, or context cancellation.
func (r *dispatchRun) noteAborted() {
	r.mu.Lock()
	if r.state == stateRunning {
		r.state = stateAborted
	}
	r.mu.Unlock()
}

// complete marks the run finished once every handler has settled.
// An aborted run stays aborted.
func (r *dispatchRun) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRunning {
		return
	}
	if r.token.Aborted() {
		r.state = stateAborted
		return
	}
	r.state = stateCompleted
}

// ensureRunning gates controller mutations on the running state.
func (r *dispatchRun) ensureRunning(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateRunning && r.token.Aborted() {
		r.state = stateAborted
	}
	if r.state != stateRunning {
		return &InvalidStateError{Op: op, State: string(r.state)}
	}
	return nil
}

func (r *dispatchRun) payloadNow() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payload
}

func (r *dispatchRun) setPayload(payload any) {
	r.mu.Lock()
	r.payload = payload
	r.mu.Unlock()
}

// setBlockingErr records the first blocking handler failure.
func (r *dispatchRun) setBlockingErr(err *HandlerError) {
	r.mu.Lock()
	if r.blockingErr == nil {
		r.blockingErr = err
	}
	r.mu.Unlock()
}

func (r *dispatchRun) blockingErrNow() *HandlerError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockingErr
}

// Controller is a handler's view of the pipeline run that invoked it.
// Each invocation receives its own controller so staged results are
// attributed to the right handler; all controllers of one dispatch
// share the same run.
//
// A controller is only valid while its run is live. Mutating methods
// return *InvalidStateError once the run has aborted or completed.
type Controller struct {
	run       *dispatchRun
	handlerID string
}

// Abort stops the pipeline run. Handlers not yet invoked never run;
// the first reason wins and later calls are no-ops. An empty reason
// is recorded as "aborted".
func (c *Controller) Abort(reason string) {
	c.run.abort(reason)
}

// Aborted reports whether the run has been aborted.
func (c *Controller) Aborted() bool {
	return c.run.token.Aborted()
}

// AbortReason returns the reason from the first abort, or "" if the
// run is not aborted.
func (c *Controller) AbortReason() string {
	return c.run.token.Reason()
}

// ModifyPayload replaces the payload seen by handlers invoked after
// this point. It fails with *InvalidStateError once the run is no
// longer running.
func (c *Controller) ModifyPayload(payload any) error {
	if err := c.run.ensureRunning("modify payload"); err != nil {
		return err
	}
	c.run.setPayload(payload)
	return nil
}

// Payload returns the current payload, including modifications made
// by earlier handlers in this run.
func (c *Controller) Payload() any {
	return c.run.payloadNow()
}

// SetResult stages an explicit result for this handler, overriding its
// return value. An error returned by the handler still wins. It fails
// with *InvalidStateError once the run is no longer running.
func (c *Controller) SetResult(value any) error {
	if err := c.run.ensureRunning("set result"); err != nil {
		return err
	}
	c.run.agg.stage(c.handlerID, value)
	return nil
}

// Results returns the outcomes of every handler settled so far in this
// run, in settle order. For blocking pipelines that is every handler
// that ran before the caller.
func (c *Controller) Results() []HandlerResult {
	return c.run.agg.snapshot()
}

// HandlerID returns the ID of the handler this controller was built for.
func (c *Controller) HandlerID() string {
	return c.handlerID
}

// DispatchID returns the unique ID of the current dispatch.
func (c *Controller) DispatchID() string {
	return c.run.dispatchID
}

// Action returns the action being dispatched.
func (c *Controller) Action() string {
	return c.run.action
}

// Logger returns a logger enriched with the dispatch ID, action, and
// handler ID. Returns nil when the registry has logging disabled.
func (c *Controller) Logger() *slog.Logger {
	return observability.EnrichLogger(c.run.logger, c.run.dispatchID, c.run.action, c.handlerID)
}
