package app

import (
	"context"
	"errors"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// Editor drives one view of the application from a script.
type Editor struct {
	app  *Application
	view *View
}

// Editor returns a handle driving v.
func (app *Application) Editor(v *View) *Editor {
	return &Editor{app: app, view: v}
}

// View returns the driven view.
func (e *Editor) View() *View { return e.view }

// Execute dispatches action from the view.
func (e *Editor) Execute(action string, args handler.Args) handler.Result {
	return e.app.dispatcher.Dispatch(handler.Action{Name: action, Args: args, Source: "script"}, e.view)
}

// Describe reports whether action is enabled and its description.
func (e *Editor) Describe(action string) (bool, string) {
	a := handler.Action{Name: action}
	return e.app.dispatcher.IsEnabled(a, e.view), e.app.dispatcher.Description(a, e.view)
}

// Text returns the document text.
func (e *Editor) Text() string { return e.view.doc.Content() }

// Len returns the document length in bytes.
func (e *Editor) Len() extcmd.ByteOffset { return e.view.Len() }

// Selections returns the view's selections.
func (e *Editor) Selections() []extcmd.Range { return e.view.Selections() }

// Select replaces the view's selections.
func (e *Editor) Select(ranges ...extcmd.Range) error {
	for _, r := range ranges {
		if r.End > e.view.Len() {
			return buffer.ErrOffsetOutOfRange
		}
	}
	return e.view.Select(ranges...)
}

// History returns the command line history, most recent first.
func (e *Editor) History() []string { return e.app.history.Entries() }

// Wait runs the main thread until s finishes.
func (e *Editor) Wait(ctx context.Context, s *extcmd.Session) error {
	select {
	case <-s.Done():
		return nil
	default:
	}
	if err := e.app.RunUntil(ctx, s.Done()); err != nil && !errors.Is(err, ErrShutdown) {
		return err
	}
	<-s.Done()
	return nil
}
