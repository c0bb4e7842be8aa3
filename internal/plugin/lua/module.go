package lua

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/dispatcher/handlers/command"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// ModuleName is the name scripts require.
const ModuleName = "extcmd"

const sessionTypeName = "extcmd.session"

// Editor is the view a script drives.
type Editor interface {
	// Execute dispatches an action from the view.
	Execute(action string, args handler.Args) handler.Result
	// Describe reports an action's enablement and menu description.
	Describe(action string) (enabled bool, description string)

	Text() string
	Len() extcmd.ByteOffset
	Selections() []extcmd.Range
	Select(ranges ...extcmd.Range) error
	History() []string

	// Wait runs the editor's main thread until s finishes. It returns an
	// error only when ctx ends or the editor shuts down first.
	Wait(ctx context.Context, s *extcmd.Session) error
}

// Module exposes an Editor to scripts as the extcmd module.
type Module struct {
	editor Editor
}

// NewModule creates the module for ed.
func NewModule(ed Editor) *Module {
	return &Module{editor: ed}
}

// Install preloads the module into s.
func (m *Module) Install(s *State) {
	s.Preload(ModuleName, m.load)
}

func (m *Module) load(L *lua.LState) int {
	mt := L.NewTypeMetatable(sessionTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"wait":       m.sessionWait,
		"cancel":     sessionCancel,
		"state":      sessionState,
		"summary":    sessionSummary,
		"cmdline":    sessionCmdline,
		"generation": sessionGeneration,
	}))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"filter":      m.start(command.ActionFilter),
		"insert":      m.start(command.ActionInsert),
		"cancel":      m.cancel,
		"enabled":     m.enabled,
		"description": m.description,
		"text":        m.text,
		"len":         m.len,
		"selections":  m.selections,
		"select":      m.selectRanges,
		"history":     m.history,
	})
	L.Push(mod)
	return 1
}

// start returns a function taking a command line string or an options
// table. It returns a session, or nil and a message when nothing started.
func (m *Module) start(action string) lua.LGFunction {
	return func(L *lua.LState) int {
		b := NewBridge(L)

		var args handler.Args
		switch v := L.Get(1).(type) {
		case lua.LString:
			args = handler.Args{command.ArgCmd: string(v)}
		case *lua.LTable:
			args = b.Args(v)
		case *lua.LNilType:
		default:
			L.ArgError(1, "string or table expected")
			return 0
		}

		res := m.editor.Execute(action, args)
		if res.IsError() {
			L.RaiseError("%s: %v", action, res.Error)
			return 0
		}
		if s, ok := command.SessionOf(res); ok {
			L.Push(newSession(L, s))
			return 1
		}
		L.Push(lua.LNil)
		L.Push(lua.LString(res.Status.String()))
		return 2
	}
}

func (m *Module) cancel(L *lua.LState) int {
	res := m.editor.Execute(command.ActionCancel, nil)
	L.Push(lua.LBool(res.Status == handler.StatusCancelled))
	return 1
}

// actionName accepts full action names and their short forms.
func actionName(L *lua.LState) string {
	switch name := L.CheckString(1); name {
	case "filter":
		return command.ActionFilter
	case "insert":
		return command.ActionInsert
	case "cancel":
		return command.ActionCancel
	default:
		return name
	}
}

func (m *Module) enabled(L *lua.LState) int {
	enabled, _ := m.editor.Describe(actionName(L))
	L.Push(lua.LBool(enabled))
	return 1
}

func (m *Module) description(L *lua.LState) int {
	_, desc := m.editor.Describe(actionName(L))
	L.Push(lua.LString(desc))
	return 1
}

func (m *Module) text(L *lua.LState) int {
	L.Push(lua.LString(m.editor.Text()))
	return 1
}

func (m *Module) len(L *lua.LState) int {
	L.Push(lua.LNumber(m.editor.Len()))
	return 1
}

func (m *Module) selections(L *lua.LState) int {
	b := NewBridge(L)
	sels := m.editor.Selections()
	t := L.CreateTable(len(sels), 0)
	for _, r := range sels {
		t.Append(b.FromRange(r))
	}
	L.Push(t)
	return 1
}

func (m *Module) selectRanges(L *lua.LState) int {
	b := NewBridge(L)
	t := L.CheckTable(1)

	var ranges []extcmd.Range
	for i := 1; i <= t.Len(); i++ {
		r, err := b.ToRange(t.RawGetInt(i))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		L.ArgError(1, "at least one range expected")
		return 0
	}
	if err := m.editor.Select(ranges...); err != nil {
		L.RaiseError("select: %v", err)
	}
	return 0
}

func (m *Module) history(L *lua.LState) int {
	L.Push(NewBridge(L).ToLuaValue(m.editor.History()))
	return 1
}

func newSession(L *lua.LState, s *extcmd.Session) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = s
	L.SetMetatable(ud, L.GetTypeMetatable(sessionTypeName))
	return ud
}

func checkSession(L *lua.LState) *extcmd.Session {
	ud := L.CheckUserData(1)
	if s, ok := ud.Value.(*extcmd.Session); ok {
		return s
	}
	L.ArgError(1, "session expected")
	return nil
}

// sessionWait blocks until the session finishes and returns whether it
// committed and its summary.
func (m *Module) sessionWait(L *lua.LState) int {
	s := checkSession(L)
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.editor.Wait(ctx, s); err != nil {
		L.RaiseError("wait: %v", err)
		return 0
	}
	L.Push(lua.LBool(s.State() == extcmd.SessionDone))
	L.Push(lua.LString(s.Summary()))
	return 2
}

func sessionCancel(L *lua.LState) int {
	L.Push(lua.LBool(checkSession(L).Cancel()))
	return 1
}

func sessionState(L *lua.LState) int {
	L.Push(lua.LString(checkSession(L).State().String()))
	return 1
}

func sessionSummary(L *lua.LState) int {
	L.Push(lua.LString(checkSession(L).Summary()))
	return 1
}

func sessionCmdline(L *lua.LState) int {
	L.Push(lua.LString(checkSession(L).Cmdline()))
	return 1
}

func sessionGeneration(L *lua.LState) int {
	L.Push(lua.LNumber(checkSession(L).Token().Generation))
	return 1
}

// RunFile runs the script at path against ed.
func RunFile(ctx context.Context, ed Editor, path string, opts ...StateOption) error {
	s, err := NewState(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	NewModule(ed).Install(s)
	return s.DoFile(ctx, path)
}

// RunString runs code against ed.
func RunString(ctx context.Context, ed Editor, code string, opts ...StateOption) error {
	s, err := NewState(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	NewModule(ed).Install(s)
	return s.DoString(ctx, code)
}
