package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// Bridge converts values between Go and Lua.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value. Tables become []any when
// they are sequences and map[string]any otherwise.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGoValue(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return b.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = b.toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = b.toGoValue(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := b.L.CreateTable(len(val), 0)
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := b.L.CreateTable(len(val), 0)
		for _, e := range val {
			t.Append(b.ToLuaValue(e))
		}
		return t
	case map[string]any:
		t := b.L.CreateTable(0, len(val))
		for k, e := range val {
			t.RawSetString(k, b.ToLuaValue(e))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// Args converts an options table to action arguments.
func (b *Bridge) Args(t *lua.LTable) handler.Args {
	args := make(handler.Args)
	t.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			args[string(ks)] = b.ToGoValue(v)
		}
	})
	return args
}

// ToRange converts a {start, end} table. A missing end selects a cursor.
func (b *Bridge) ToRange(lv lua.LValue) (extcmd.Range, error) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return extcmd.Range{}, fmt.Errorf("range must be a table, got %s", lv.Type())
	}
	start, ok := t.RawGetInt(1).(lua.LNumber)
	if !ok {
		return extcmd.Range{}, fmt.Errorf("range start must be a number")
	}
	end := start
	if e, ok := t.RawGetInt(2).(lua.LNumber); ok {
		end = e
	}
	if start < 0 || end < start {
		return extcmd.Range{}, fmt.Errorf("invalid range {%v, %v}", start, end)
	}
	return extcmd.Range{Start: extcmd.ByteOffset(start), End: extcmd.ByteOffset(end)}, nil
}

// FromRange converts r to a {start, end} table.
func (b *Bridge) FromRange(r extcmd.Range) *lua.LTable {
	t := b.L.CreateTable(2, 0)
	t.Append(lua.LNumber(r.Start))
	t.Append(lua.LNumber(r.End))
	return t
}
