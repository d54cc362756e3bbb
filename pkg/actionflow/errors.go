// Package actionflow provides a typed action-dispatch engine with prioritized
// handler pipelines, cooperative aborts, and per-handler rate gating.
package actionflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for dispatch.
var (
	// ErrNilContext indicates Dispatch or DispatchWithResult was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilHandler indicates Register was called with a nil handler function.
	ErrNilHandler = errors.New("handler function cannot be nil")
)

// Sentinel errors for declarative bindings.
var (
	// ErrUnknownHandlerFunc indicates a handler spec references a function
	// name absent from the supplied function map.
	ErrUnknownHandlerFunc = errors.New("unknown handler function")
)

// ConfigError reports an invalid registration option or handler spec field.
type ConfigError struct {
	// Option is the option or field that was rejected (e.g., "priority").
	Option string
	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Reason)
}

// InvalidStateError reports a controller method called after the pipeline
// run left the running state.
type InvalidStateError struct {
	// Op is the operation that was attempted (e.g., "set result").
	Op string
	// State is the run state at the time of the call ("aborted" or "completed").
	State string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: pipeline %s", e.Op, e.State)
}

// HandlerError wraps an error returned by a blocking handler during Dispatch.
// It identifies which handler failed and for which action.
type HandlerError struct {
	// Action is the action being dispatched.
	Action string
	// HandlerID is the identifier of the failing handler.
	HandlerID string
	// Err is the underlying error from the handler.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s for action %s: %v", e.HandlerID, e.Action, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from handler execution.
// It includes the stack trace for debugging.
type PanicError struct {
	// Action is the action being dispatched.
	Action string
	// HandlerID is the identifier of the handler that panicked.
	HandlerID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked: %v", e.HandlerID, e.Value)
}
