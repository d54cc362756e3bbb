package cond

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned when compiling or evaluating an empty
// expression.
var ErrEmptyExpression = errors.New("empty expression")

// BinaryOp is a function that compares two values and returns a boolean result.
type BinaryOp func(left, right any) bool

// Predicate reports whether a handler should run for the given payload.
type Predicate func(payload any) bool

// Evaluator evaluates boolean expressions with optional custom operators.
type Evaluator struct {
	customOps map[string]BinaryOp
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCustomOperator registers a custom binary operator.
// The operator name should not conflict with built-in operators.
func WithCustomOperator(name string, fn BinaryOp) Option {
	return func(e *Evaluator) {
		if e.customOps == nil {
			e.customOps = make(map[string]BinaryOp)
		}
		e.customOps[name] = fn
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile parses an expression into a payload predicate. The expression
// language is permissive, so the only compile-time failure is an empty
// expression; unknown identifiers resolve to string literals at evaluation
// time.
func Compile(expr string, opts ...Option) (Predicate, error) {
	return New(opts...).Compile(expr)
}

// Compile parses an expression into a payload predicate bound to this
// evaluator's operators.
func (e *Evaluator) Compile(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	return func(payload any) bool {
		ok, err := e.Evaluate(expr, Vars(payload))
		return err == nil && ok
	}, nil
}

// Vars builds the variable map an expression sees for a payload. Map
// payloads expose their string keys directly; every payload is also
// reachable via the "payload" variable unless a map key shadows it.
func Vars(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		vars := make(map[string]any, len(m)+1)
		vars["payload"] = payload
		for k, v := range m {
			vars[k] = v
		}
		return vars
	}
	return map[string]any{"payload": payload}
}

// Evaluate evaluates a boolean expression against the provided variables.
func (e *Evaluator) Evaluate(expr string, vars map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, ErrEmptyExpression
	}
	return e.evaluateCondition(expr, vars)
}

// Eval is a convenience function that evaluates an expression using
// the default evaluator (no custom operators).
func Eval(expr string, vars map[string]any) (bool, error) {
	return New().Evaluate(expr, vars)
}

// evaluateCondition evaluates a condition expression.
// Supports: ==, !=, <, >, <=, >=, and, or, not, !, contains
func (e *Evaluator) evaluateCondition(expr string, vars map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, nil
	}

	// Handle negation with "not " prefix
	if strings.HasPrefix(expr, "not ") {
		inner := strings.TrimPrefix(expr, "not ")
		result, err := e.evaluateCondition(strings.TrimSpace(inner), vars)
		if err != nil {
			return false, err
		}
		return !result, nil
	}

	// Handle negation with "!" prefix (but not "!=")
	if strings.HasPrefix(expr, "!") && !strings.HasPrefix(expr, "!=") {
		inner := strings.TrimPrefix(expr, "!")
		result, err := e.evaluateCondition(strings.TrimSpace(inner), vars)
		if err != nil {
			return false, err
		}
		return !result, nil
	}

	// Handle AND (split on first " and ")
	if parts := strings.SplitN(expr, " and ", 2); len(parts) == 2 {
		left, errL := e.evaluateCondition(parts[0], vars)
		if errL != nil {
			return false, errL
		}
		right, errR := e.evaluateCondition(parts[1], vars)
		if errR != nil {
			return false, errR
		}
		return left && right, nil
	}

	// Handle OR (split on first " or ")
	if parts := strings.SplitN(expr, " or ", 2); len(parts) == 2 {
		left, errL := e.evaluateCondition(parts[0], vars)
		if errL != nil {
			return false, errL
		}
		right, errR := e.evaluateCondition(parts[1], vars)
		if errR != nil {
			return false, errR
		}
		return left || right, nil
	}

	// Built-in operators in order (longer operators first to avoid partial matches)
	builtinOps := []struct {
		op      string
		compare BinaryOp
	}{
		{"==", func(l, r any) bool { return fmt.Sprintf("%v", l) == fmt.Sprintf("%v", r) }},
		{"!=", func(l, r any) bool { return fmt.Sprintf("%v", l) != fmt.Sprintf("%v", r) }},
		{">=", func(l, r any) bool { return ToFloat64(l) >= ToFloat64(r) }},
		{"<=", func(l, r any) bool { return ToFloat64(l) <= ToFloat64(r) }},
		{">", func(l, r any) bool { return ToFloat64(l) > ToFloat64(r) }},
		{"<", func(l, r any) bool { return ToFloat64(l) < ToFloat64(r) }},
		{" contains ", func(l, r any) bool {
			return strings.Contains(fmt.Sprintf("%v", l), fmt.Sprintf("%v", r))
		}},
	}

	for _, op := range builtinOps {
		if parts := strings.SplitN(expr, op.op, 2); len(parts) == 2 {
			left := Resolve(strings.TrimSpace(parts[0]), vars)
			right := Resolve(strings.TrimSpace(parts[1]), vars)
			return op.compare(left, right), nil
		}
	}

	// Custom operators (wrapped with spaces for word boundaries)
	for name, fn := range e.customOps {
		opPattern := " " + name + " "
		if parts := strings.SplitN(expr, opPattern, 2); len(parts) == 2 {
			left := Resolve(strings.TrimSpace(parts[0]), vars)
			right := Resolve(strings.TrimSpace(parts[1]), vars)
			return fn(left, right), nil
		}
	}

	// Single value - check if truthy
	val := Resolve(expr, vars)
	return IsTruthy(val), nil
}
