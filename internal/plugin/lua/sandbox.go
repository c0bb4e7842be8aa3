package lua

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// safeModules are the built-in modules require may load.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L      *lua.LState
	output io.Writer
}

// NewSandbox creates a new sandbox for the Lua state. print writes to out.
func NewSandbox(L *lua.LState, out io.Writer) *Sandbox {
	return &Sandbox{L: L, output: out}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() error {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	return s.installSafeRequire()
}

// installPrint replaces print with one writing to the sandbox output.
func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(s.output, strings.Join(parts, "\t"))
		return 0
	}))
}

// installSafeRequire clears the module search paths and replaces require
// with one that only loads safe built-ins and preloaded modules.
func (s *Sandbox) installSafeRequire() error {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return fmt.Errorf("lua: package library not loaded")
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))

	preload, ok := s.L.GetField(pkg, "preload").(*lua.LTable)
	if !ok {
		return fmt.Errorf("lua: package.preload missing")
	}

	originalRequire := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safeModules[name] && preload.RawGetString(name) == lua.LNil {
			L.RaiseError("%s: %q", ErrModuleUnavailable, name)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
	return nil
}
