// Package handler provides the handler interface and types for action dispatch.
package handler

import (
	"strconv"

	"github.com/technocoreai/extcmd/internal/extcmd"
)

// Action is a named request to run a command.
type Action struct {
	// Name identifies the command (e.g., "filter_through_command").
	Name string
	// Args holds the command's arguments.
	Args Args
	// Source names where the action came from (e.g., "cli", "lua").
	Source string
}

// Args holds action arguments by name.
type Args map[string]any

// Get returns the raw value under key.
func (a Args) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[key]
	return v, ok
}

// String returns the string under key. A missing key or a value of
// another type reports false.
func (a Args) String(key string) (string, bool) {
	v, ok := a.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean under key. The strings "true" and "false" are
// accepted as well.
func (a Args) Bool(key string) (bool, bool) {
	v, ok := a.Get(key)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

// Prompter asks the user for a line of input.
type Prompter interface {
	// Prompt shows label with initial pre-filled. ok is false when the user
	// dismissed the prompt.
	Prompt(label, initial string) (text string, ok bool, err error)
}

// Context carries what a handler acts on.
type Context struct {
	// Document is the view the action was invoked from.
	Document extcmd.Document
	// Prompter asks for missing arguments. May be nil.
	Prompter Prompter
}

// Handler processes a specific action or set of actions.
type Handler interface {
	// Handle executes the action and returns a result.
	Handle(action Action, ctx *Context) Result

	// CanHandle returns true if this handler can process the action.
	CanHandle(actionName string) bool

	// Priority returns the handler priority (higher = checked first).
	Priority() int
}

// Describer is implemented by handlers whose availability and menu label
// depend on editor state.
type Describer interface {
	// IsEnabled reports whether the action can run in ctx.
	IsEnabled(action Action, ctx *Context) bool

	// Description returns the label of the action in ctx.
	Description(action Action, ctx *Context) string
}

// HandlerFunc is a function adapter for Handler interface.
type HandlerFunc struct {
	fn   func(action Action, ctx *Context) Result
	prio int
}

// NewHandlerFunc creates a HandlerFunc from a function.
func NewHandlerFunc(fn func(action Action, ctx *Context) Result) *HandlerFunc {
	return &HandlerFunc{fn: fn}
}

// Handle implements Handler.Handle.
func (f *HandlerFunc) Handle(action Action, ctx *Context) Result {
	if f.fn == nil {
		return Errorf("handler function is nil")
	}
	return f.fn(action, ctx)
}

// CanHandle implements Handler.CanHandle.
// HandlerFunc always returns true; caller must ensure correct routing.
func (f *HandlerFunc) CanHandle(string) bool {
	return true
}

// Priority implements Handler.Priority.
func (f *HandlerFunc) Priority() int {
	return f.prio
}
