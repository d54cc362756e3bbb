package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/actionflow/pkg/actionflow"
)

// noopHandler does minimal work to measure framework overhead.
func noopHandler(ctx context.Context, payload any, pc *actionflow.Controller) (any, error) {
	return nil, nil
}

// BenchmarkNew measures registry creation overhead.
func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		actionflow.New(actionflow.WithLogger(nil))
	}
}

// BenchmarkRegister measures single registration overhead.
func BenchmarkRegister(b *testing.B) {
	for i := 0; i < b.N; i++ {
		reg := actionflow.New(actionflow.WithLogger(nil))
		_, _ = reg.Register("save", noopHandler)
	}
}

// BenchmarkRegister_10 measures registering 10 handlers on one action.
func BenchmarkRegister_10(b *testing.B) {
	for i := 0; i < b.N; i++ {
		reg := actionflow.New(actionflow.WithLogger(nil))
		for j := 0; j < 10; j++ {
			_, _ = reg.Register("save", noopHandler, actionflow.WithID(handlerID(j)))
		}
	}
}

// BenchmarkRegister_100 measures registering 100 handlers on one action.
func BenchmarkRegister_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		reg := actionflow.New(actionflow.WithLogger(nil))
		for j := 0; j < 100; j++ {
			_, _ = reg.Register("save", noopHandler, actionflow.WithID(handlerID(j)))
		}
	}
}

// BenchmarkRegister_Prioritized measures sorted insertion with mixed
// priorities.
func BenchmarkRegister_Prioritized(b *testing.B) {
	for i := 0; i < b.N; i++ {
		reg := actionflow.New(actionflow.WithLogger(nil))
		for j := 0; j < 20; j++ {
			_, _ = reg.Register("save", noopHandler,
				actionflow.WithID(handlerID(j)), actionflow.WithPriority(j%5))
		}
	}
}

// BenchmarkUnregister measures removal via the returned function.
func BenchmarkUnregister(b *testing.B) {
	reg := actionflow.New(actionflow.WithLogger(nil))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		unreg, _ := reg.Register("save", noopHandler)
		unreg()
	}
}

// Helper functions

func handlerID(n int) string {
	return string(rune('a'+n%26)) + string(rune('0'+n/26%10))
}

func buildRegistry(handlers int) *actionflow.Registry {
	reg := actionflow.New(actionflow.WithLogger(nil))
	for i := 0; i < handlers; i++ {
		_, _ = reg.Register("save", noopHandler, actionflow.WithID(handlerID(i)))
	}
	return reg
}
