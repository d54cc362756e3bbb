package actionflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies basic registry creation.
func TestNew(t *testing.T) {
	reg := New()
	assert.NotNil(t, reg)
	assert.NotNil(t, reg.pipelines)
	assert.NotNil(t, reg.coord)
	assert.NotNil(t, reg.gate)
}

// TestRegister_GeneratedID verifies handlers get a generated ID by default.
func TestRegister_GeneratedID(t *testing.T) {
	reg := newTestRegistry()

	unregister, err := reg.Register("doc.save", noopHandler)
	require.NoError(t, err)
	defer unregister()

	ids := reg.HandlerIDs("doc.save")
	require.Len(t, ids, 1)
	assert.True(t, strings.HasPrefix(ids[0], "h-"), "generated IDs use the h- prefix")
}

// TestRegister_EmptyAction verifies empty action names are rejected.
func TestRegister_EmptyAction(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Register("", noopHandler)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "action", cfgErr.Option)
}

// TestRegister_NilHandler verifies nil handler functions are rejected.
func TestRegister_NilHandler(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Register("doc.save", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

// TestRegister_InvalidOptions verifies option validation.
func TestRegister_InvalidOptions(t *testing.T) {
	reg := newTestRegistry()

	tests := []struct {
		name   string
		opts   []RegisterOption
		option string
	}{
		{"negative debounce", []RegisterOption{WithDebounce(-time.Second)}, "debounce"},
		{"negative throttle", []RegisterOption{WithThrottle(-time.Second)}, "throttle"},
		{"debounce and throttle", []RegisterOption{WithDebounce(time.Second), WithThrottle(time.Second)}, "debounce"},
		{"empty condition expression", []RegisterOption{WithConditionExpr("")}, "condition"},
		{"condition and expression", []RegisterOption{
			WithCondition(func(any) bool { return true }),
			WithConditionExpr("size < 10"),
		}, "condition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Register("doc.save", noopHandler, tt.opts...)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}

	assert.False(t, reg.HasHandlers("doc.save"), "nothing should be registered on error")
}

// TestRegister_ReplaceSameID verifies re-registering an ID replaces the handler.
func TestRegister_ReplaceSameID(t *testing.T) {
	reg := newTestRegistry()
	tr := &tracker{}

	_, err := reg.Register("doc.save", makeTrackingHandler("old", tr), WithID("writer"))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", makeTrackingHandler("new", tr), WithID("writer"))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.HandlerCount("doc.save"), "replacement should not grow the pipeline")

	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, []string{"new"}, tr.snapshot())
}

// TestRegister_ReplaceTakesFreshPosition verifies a replaced handler loses
// its original slot among equal priorities.
func TestRegister_ReplaceTakesFreshPosition(t *testing.T) {
	reg := newTestRegistry()
	tr := &tracker{}

	_, err := reg.Register("doc.save", makeTrackingHandler("a", tr), WithID("a"))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", makeTrackingHandler("b", tr), WithID("b"))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", makeTrackingHandler("a2", tr), WithID("a"))
	require.NoError(t, err)

	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, []string{"b", "a2"}, tr.snapshot())
}

// TestUnregister verifies handler removal is idempotent.
func TestUnregister(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Register("doc.save", noopHandler, WithID("writer"))
	require.NoError(t, err)

	reg.Unregister("doc.save", "writer")
	assert.False(t, reg.HasHandlers("doc.save"))

	// Unknown action and repeated removal are no-ops.
	reg.Unregister("doc.save", "writer")
	reg.Unregister("missing", "writer")
}

// TestUnregister_StopsInvocation verifies an unregistered handler is
// never invoked by later dispatches.
func TestUnregister_StopsInvocation(t *testing.T) {
	reg := newTestRegistry()
	tr := &tracker{}

	unregister, err := reg.Register("doc.save", makeTrackingHandler("writer", tr))
	require.NoError(t, err)

	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, 1, tr.count())

	unregister()
	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, 1, tr.count(), "the unregistered handler must not run again")
}

// TestUnregisterFunc_RemovesOnlyItsRegistration verifies a stale
// unregister closure cannot evict a replacement under the same ID.
func TestUnregisterFunc_RemovesOnlyItsRegistration(t *testing.T) {
	reg := newTestRegistry()

	oldUnregister, err := reg.Register("doc.save", noopHandler, WithID("writer"))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", noopHandler, WithID("writer"))
	require.NoError(t, err)

	oldUnregister()
	assert.Equal(t, 1, reg.HandlerCount("doc.save"), "replacement should survive")
}

// TestUnregisterByTag verifies bulk removal across actions.
func TestUnregisterByTag(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Register("doc.save", noopHandler, WithTags("plugin"))
	require.NoError(t, err)
	_, err = reg.Register("doc.open", noopHandler, WithTags("plugin", "io"))
	require.NoError(t, err)
	_, err = reg.Register("doc.open", noopHandler, WithTags("core"))
	require.NoError(t, err)

	removed := reg.UnregisterByTag("plugin")
	assert.Equal(t, 2, removed)
	assert.False(t, reg.HasHandlers("doc.save"))
	assert.Equal(t, 1, reg.HandlerCount("doc.open"))

	assert.Equal(t, 0, reg.UnregisterByTag("plugin"), "second pass removes nothing")
}

// TestActions verifies the sorted action listing.
func TestActions(t *testing.T) {
	reg := newTestRegistry()

	for _, action := range []string{"zeta", "alpha", "mid"} {
		_, err := reg.Register(action, noopHandler)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Actions())
}

// TestHandlerIDs_InvocationOrder verifies IDs are reported in pipeline order.
func TestHandlerIDs_InvocationOrder(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Register("doc.save", noopHandler, WithID("low"), WithPriority(1))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", noopHandler, WithID("high"), WithPriority(10))
	require.NoError(t, err)
	_, err = reg.Register("doc.save", noopHandler, WithID("high2"), WithPriority(10))
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "high2", "low"}, reg.HandlerIDs("doc.save"))
	assert.Nil(t, reg.HandlerIDs("missing"))
}

// TestHandlerCount covers the count and existence accessors.
func TestHandlerCount(t *testing.T) {
	reg := newTestRegistry()

	assert.Equal(t, 0, reg.HandlerCount("doc.save"))
	assert.False(t, reg.HasHandlers("doc.save"))

	_, err := reg.Register("doc.save", noopHandler)
	require.NoError(t, err)

	assert.Equal(t, 1, reg.HandlerCount("doc.save"))
	assert.True(t, reg.HasHandlers("doc.save"))
}

// TestRegistrationDuringDispatch verifies a handler registered mid-run
// only participates in later dispatches.
func TestRegistrationDuringDispatch(t *testing.T) {
	reg := newTestRegistry()
	tr := &tracker{}

	_, err := reg.Register("doc.save", func(ctx context.Context, payload any, pc *Controller) (any, error) {
		tr.add("first")
		// Registered while this pipeline snapshot is in flight.
		_, rerr := reg.Register("doc.save", makeTrackingHandler("late", tr), WithPriority(-1))
		return nil, rerr
	}, WithOnce())
	require.NoError(t, err)

	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, []string{"first"}, tr.snapshot(), "late handler must not join the in-flight run")

	require.NoError(t, reg.Dispatch(context.Background(), "doc.save", nil))
	assert.Equal(t, []string{"first", "late"}, tr.snapshot())
}
