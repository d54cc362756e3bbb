package actionflow

// Outcome describes how a handler invocation settled.
type Outcome int

const (
	// OutcomeValue means the handler ran and produced a value.
	OutcomeValue Outcome = iota
	// OutcomeError means the handler returned an error or panicked.
	OutcomeError
	// OutcomeSkipped means a rate gate dropped the invocation.
	OutcomeSkipped
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeValue:
		return "value"
	case OutcomeError:
		return "error"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Skip reasons recorded on OutcomeSkipped entries.
const (
	// SkipThrottled marks an invocation dropped inside a throttle window.
	SkipThrottled = "throttled"
	// SkipDebounced marks an invocation superseded by a later call
	// during its debounce window.
	SkipDebounced = "debounced"
	// SkipCanceled marks a pending debounce canceled by unregistration.
	SkipCanceled = "canceled"
)

// HandlerResult records one settled handler invocation.
// Exactly one of Value, Err, or SkipReason is meaningful,
// selected by Outcome.
type HandlerResult struct {
	// HandlerID identifies the handler this entry belongs to.
	HandlerID string
	// Outcome reports how the invocation settled.
	Outcome Outcome
	// Value is the handler's result when Outcome is OutcomeValue.
	// A result staged via Controller.SetResult wins over the
	// handler's return value.
	Value any
	// Err is the handler's error when Outcome is OutcomeError.
	Err error
	// SkipReason explains an OutcomeSkipped entry.
	SkipReason string
}

// DispatchResult summarizes a fully settled dispatch.
type DispatchResult struct {
	// DispatchID uniquely identifies this dispatch.
	DispatchID string
	// Action is the dispatched action name.
	Action string
	// Success is true unless the run aborted or a blocking handler failed.
	// Errors from non-blocking handlers do not affect it.
	Success bool
	// Aborted is true when the run stopped via the controller, AbortAll,
	// a scope reset, or context cancellation.
	Aborted bool
	// AbortReason is the reason from the first abort; empty otherwise.
	AbortReason string
	// Results holds one entry per handler that settled, in settle order.
	// Handlers skipped by condition or stopped by an abort are absent.
	Results []HandlerResult
	// FinalPayload is the payload after all ModifyPayload calls.
	FinalPayload any
}

// ResultFor returns the entry for a handler ID, if one settled.
func (r *DispatchResult) ResultFor(handlerID string) (HandlerResult, bool) {
	for _, entry := range r.Results {
		if entry.HandlerID == handlerID {
			return entry, true
		}
	}
	return HandlerResult{}, false
}

// Values returns the recorded values of every OutcomeValue entry,
// in settle order.
func (r *DispatchResult) Values() []any {
	var values []any
	for _, entry := range r.Results {
		if entry.Outcome == OutcomeValue {
			values = append(values, entry.Value)
		}
	}
	return values
}

// Errs returns the errors of every OutcomeError entry, in settle order.
func (r *DispatchResult) Errs() []error {
	var errs []error
	for _, entry := range r.Results {
		if entry.Outcome == OutcomeError {
			errs = append(errs, entry.Err)
		}
	}
	return errs
}
