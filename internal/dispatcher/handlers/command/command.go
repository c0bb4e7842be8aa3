package command

import (
	"errors"
	"strings"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/extcmd"
	"github.com/technocoreai/extcmd/internal/logging"
)

// Action names.
const (
	ActionFilter = "filter_through_command"
	ActionInsert = "insert_command_output"
	ActionCancel = "cancel_external_command"
)

// Argument names.
const (
	ArgCmd      = "cmd"
	ArgFullLine = "full_line"
)

// Menu labels.
const (
	FilterLabel = "Filter Through Command"
	InsertLabel = "Insert Command Output"
)

// PromptLabel is shown when asking for a command line.
const PromptLabel = "Command:"

// DataSession is the Result.Data key of the started *extcmd.Session.
const DataSession = "session"

// ErrNoDocument is returned when an action is dispatched without a document.
var ErrNoDocument = errors.New("command: no document")

// Recorder remembers command lines that were run.
type Recorder interface {
	Add(cmdline string)
}

// Handler handles the external command actions.
type Handler struct {
	manager  *extcmd.Manager
	history  Recorder
	fullLine func() bool
	logger   *logging.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory records every started command line in r.
func WithHistory(r Recorder) Option {
	return func(h *Handler) { h.history = r }
}

// WithFullLineDefault supplies the default of the full_line argument.
func WithFullLineDefault(fn func() bool) Option {
	return func(h *Handler) { h.fullLine = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) { h.logger = logging.OrNull(l) }
}

// NewHandler creates a handler that runs commands through manager.
func NewHandler(manager *extcmd.Manager, opts ...Option) *Handler {
	h := &Handler{
		manager:  manager,
		fullLine: func() bool { return false },
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("command")
	return h
}

// Actions returns the names of the handled actions.
func Actions() []string {
	return []string{ActionFilter, ActionInsert, ActionCancel}
}

// RegisterWith registers h for every handled action.
func (h *Handler) RegisterWith(r interface {
	Register(actionName string, h handler.Handler)
}) {
	for _, name := range Actions() {
		r.Register(name, h)
	}
}

// CanHandle implements handler.Handler.
func (h *Handler) CanHandle(actionName string) bool {
	switch actionName {
	case ActionFilter, ActionInsert, ActionCancel:
		return true
	}
	return false
}

// Priority implements handler.Handler.
func (h *Handler) Priority() int { return 0 }

// Handle implements handler.Handler.
func (h *Handler) Handle(action handler.Action, ctx *handler.Context) handler.Result {
	if ctx == nil || ctx.Document == nil {
		return handler.Error(ErrNoDocument)
	}

	switch action.Name {
	case ActionFilter:
		return h.run(extcmd.FilterReplace, action, ctx)
	case ActionInsert:
		return h.run(extcmd.InsertAtStart, action, ctx)
	case ActionCancel:
		if h.manager.Cancel(ctx.Document.BufferID()) {
			return handler.CancelledWithMessage("cancelled")
		}
		return handler.NoOp()
	}
	return handler.Errorf("command: unknown action %q", action.Name)
}

func (h *Handler) run(mode extcmd.Mode, action handler.Action, ctx *handler.Context) handler.Result {
	doc := ctx.Document
	cmdline, _ := action.Args.String(ArgCmd)
	cmdline = strings.TrimSpace(cmdline)

	if cmdline == "" && h.manager.IsLive(doc.BufferID(), mode) {
		h.manager.Cancel(doc.BufferID())
		return handler.CancelledWithMessage("cancelled")
	}

	if !h.manager.IsEnabled(doc, mode) {
		if doc.ReadOnly() {
			return handler.Error(extcmd.ErrReadOnly)
		}
		return handler.Error(extcmd.ErrBusy)
	}

	if cmdline == "" {
		if ctx.Prompter == nil {
			return handler.Error(extcmd.ErrNoCommandLine)
		}
		text, ok, err := ctx.Prompter.Prompt(PromptLabel, "")
		if err != nil {
			return handler.Error(err)
		}
		cmdline = strings.TrimSpace(text)
		if !ok || cmdline == "" {
			return handler.NoOp()
		}
	}

	fullLine := false
	if mode == extcmd.FilterReplace {
		var set bool
		if fullLine, set = action.Args.Bool(ArgFullLine); !set {
			fullLine = h.fullLine()
		}
	}

	s, err := h.manager.Start(doc, extcmd.Request{Mode: mode, Cmdline: cmdline, FullLine: fullLine})
	if err != nil {
		return handler.Error(err)
	}
	if h.history != nil {
		h.history.Add(cmdline)
	}
	h.logger.Debug("%s %q from %s", mode, cmdline, action.Source)
	return handler.Async().WithMessage(cmdline).WithData(DataSession, s)
}

// IsEnabled implements handler.Describer.
func (h *Handler) IsEnabled(action handler.Action, ctx *handler.Context) bool {
	if ctx == nil || ctx.Document == nil {
		return false
	}
	doc := ctx.Document
	switch action.Name {
	case ActionFilter:
		return h.manager.IsEnabled(doc, extcmd.FilterReplace)
	case ActionInsert:
		return h.manager.IsEnabled(doc, extcmd.InsertAtStart)
	case ActionCancel:
		_, live := h.manager.Session(doc.BufferID())
		return live
	}
	return false
}

// Description implements handler.Describer.
func (h *Handler) Description(action handler.Action, ctx *handler.Context) string {
	switch action.Name {
	case ActionFilter:
		return h.describe(ctx, extcmd.FilterReplace, FilterLabel)
	case ActionInsert:
		return h.describe(ctx, extcmd.InsertAtStart, InsertLabel)
	case ActionCancel:
		return extcmd.CancelLabel
	}
	return action.Name
}

func (h *Handler) describe(ctx *handler.Context, mode extcmd.Mode, label string) string {
	if ctx == nil || ctx.Document == nil {
		return label
	}
	return h.manager.Description(ctx.Document, mode, label)
}

// SessionOf returns the session started by a Handle result.
func SessionOf(r handler.Result) (*extcmd.Session, bool) {
	s, ok := r.Data[DataSession].(*extcmd.Session)
	return s, ok
}

var (
	_ handler.Handler   = (*Handler)(nil)
	_ handler.Describer = (*Handler)(nil)
)
