package dispatcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/dispatcher"
	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
)

type describedHandler struct {
	prioHandler
	enabled bool
}

func (h *describedHandler) IsEnabled(handler.Action, *handler.Context) bool { return h.enabled }

func (h *describedHandler) Description(a handler.Action, _ *handler.Context) string {
	return "Run " + a.Name
}

func TestDispatch(t *testing.T) {
	d := dispatcher.New()
	d.Register("hello", &prioHandler{name: "hi"})

	r := d.Dispatch(handler.Action{Name: "hello"}, nil)
	assert.True(t, r.IsOK())
	assert.Equal(t, "hi", r.Message)

	stats := d.Metrics().ActionStats("hello")
	require.NotNil(t, stats)
	assert.Equal(t, uint64(1), stats.DispatchCount)
	assert.Equal(t, uint64(1), stats.StatusCounts[handler.StatusOK])
}

func TestDispatchErrors(t *testing.T) {
	d := dispatcher.New()

	r := d.Dispatch(handler.Action{}, nil)
	assert.ErrorIs(t, r.Error, dispatcher.ErrInvalidAction)

	r = d.Dispatch(handler.Action{Name: "nope"}, nil)
	assert.ErrorIs(t, r.Error, dispatcher.ErrNoHandler)
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := dispatcher.New()
	d.Register("boom", handler.NewHandlerFunc(func(handler.Action, *handler.Context) handler.Result {
		panic("kaboom")
	}))

	r := d.Dispatch(handler.Action{Name: "boom"}, nil)
	require.True(t, r.IsError())
	assert.ErrorIs(t, r.Error, dispatcher.ErrPanic)
	assert.Contains(t, r.Error.Error(), "kaboom")
	assert.Equal(t, uint64(1), d.Metrics().Snapshot().TotalPanics)
}

func TestDispatchWithoutRecoveryPanics(t *testing.T) {
	d := dispatcher.New(dispatcher.WithPanicRecovery(false))
	d.Register("boom", handler.NewHandlerFunc(func(handler.Action, *handler.Context) handler.Result {
		panic("kaboom")
	}))

	assert.Panics(t, func() { d.Dispatch(handler.Action{Name: "boom"}, nil) })
}

func TestEnablementAndDescription(t *testing.T) {
	d := dispatcher.New()
	d.Register("plain", &prioHandler{name: "plain"})
	d.Register("gated", &describedHandler{enabled: false})

	assert.True(t, d.IsEnabled(handler.Action{Name: "plain"}, nil))
	assert.False(t, d.IsEnabled(handler.Action{Name: "gated"}, nil))
	assert.False(t, d.IsEnabled(handler.Action{Name: "missing"}, nil))

	assert.Equal(t, "plain", d.Description(handler.Action{Name: "plain"}, nil))
	assert.Equal(t, "Run gated", d.Description(handler.Action{Name: "gated"}, nil))
}

type stubPrompter struct{}

func (stubPrompter) Prompt(string, string) (string, bool, error) { return "x", true, nil }

func TestDispatchPassesPrompter(t *testing.T) {
	d := dispatcher.New(dispatcher.WithPrompter(stubPrompter{}))
	var got handler.Prompter
	d.Register("ask", handler.NewHandlerFunc(func(_ handler.Action, ctx *handler.Context) handler.Result {
		got = ctx.Prompter
		return handler.Success()
	}))

	d.Dispatch(handler.Action{Name: "ask"}, nil)
	assert.Equal(t, stubPrompter{}, got)
}
