package lua

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	s, err := NewState(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStateDoString(t *testing.T) {
	s := newTestState(t)

	require.NoError(t, s.DoString(context.Background(), `x = 1 + 1`))
	assert.Equal(t, glua.LNumber(2), s.GetGlobal("x"))
}

func TestStateCall(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.DoString(context.Background(), `
		function add(a, b) return a + b end
		function nothing() end
	`))

	got, err := s.Call(context.Background(), "add", glua.LNumber(1), glua.LNumber(2))
	require.NoError(t, err)
	assert.Equal(t, []glua.LValue{glua.LNumber(3)}, got)

	got, err = s.Call(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = s.Call(context.Background(), "missing")
	assert.Error(t, err)
}

func TestStatePrint(t *testing.T) {
	var out bytes.Buffer
	s := newTestState(t, WithOutput(&out))

	require.NoError(t, s.DoString(context.Background(), `print("a", 1, true)`))
	assert.Equal(t, "a\t1\ttrue\n", out.String())
}

func TestStateSandbox(t *testing.T) {
	s := newTestState(t)
	ctx := context.Background()

	require.NoError(t, s.DoString(ctx, `assert(dofile == nil and loadfile == nil and load == nil)`))
	require.NoError(t, s.DoString(ctx, `assert(io == nil and os == nil and debug == nil)`))
	require.NoError(t, s.DoString(ctx, `assert(require("string").upper("x") == "X")`))

	for _, mod := range []string{"io", "os", "debug", "nope"} {
		err := s.DoString(ctx, `require("`+mod+`")`)
		require.Error(t, err, mod)
		assert.Contains(t, err.Error(), ErrModuleUnavailable.Error())
	}
}

func TestStatePreload(t *testing.T) {
	s := newTestState(t)
	s.Preload("greeting", func(L *glua.LState) int {
		L.Push(glua.LString("hello"))
		return 1
	})

	require.NoError(t, s.DoString(context.Background(), `assert(require("greeting") == "hello")`))
}

func TestStateTimeout(t *testing.T) {
	s := newTestState(t, WithExecutionTimeout(50*time.Millisecond))

	err := s.DoString(context.Background(), `while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestStateContextCancelled(t *testing.T) {
	s := newTestState(t, WithExecutionTimeout(0))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := s.DoString(ctx, `while true do end`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateClosed(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.True(t, s.IsClosed())
	assert.ErrorIs(t, s.DoString(context.Background(), `x = 1`), ErrStateClosed)
	assert.Equal(t, glua.LNil, s.GetGlobal("x"))
}

func TestBridgeConversions(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	require.NoError(t, L.DoString(`v = {cmd = "sort", full_line = true, n = 2, list = {"a", "b"}}`))
	got := b.ToGoValue(L.GetGlobal("v"))
	assert.Equal(t, map[string]any{
		"cmd":       "sort",
		"full_line": true,
		"n":         int64(2),
		"list":      []any{"a", "b"},
	}, got)

	args := b.Args(L.GetGlobal("v").(*glua.LTable))
	cmd, ok := args.String("cmd")
	assert.True(t, ok)
	assert.Equal(t, "sort", cmd)

	back := b.ToLuaValue([]string{"x", "y"}).(*glua.LTable)
	assert.Equal(t, 2, back.Len())
}

func TestBridgeRanges(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	require.NoError(t, L.DoString(`a = {1, 4}; c = {3}; bad = {4, 1}`))

	r, err := b.ToRange(L.GetGlobal("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Start)
	assert.Equal(t, int64(4), r.End)

	r, err = b.ToRange(L.GetGlobal("c"))
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())

	_, err = b.ToRange(L.GetGlobal("bad"))
	assert.Error(t, err)
	_, err = b.ToRange(glua.LString("x"))
	assert.Error(t, err)

	assert.Equal(t, 2, b.FromRange(r).Len())
}
