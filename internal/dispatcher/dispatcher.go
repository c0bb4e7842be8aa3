package dispatcher

import (
	"fmt"
	"runtime"
	"time"

	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/extcmd"
	"github.com/technocoreai/extcmd/internal/logging"
)

// Dispatcher routes actions to registered handlers.
type Dispatcher struct {
	registry *Registry
	metrics  *Metrics
	prompter handler.Prompter
	logger   *logging.Logger

	recoverPanics bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.OrNull(l) }
}

// WithPrompter sets the prompter handed to handlers that need input.
func WithPrompter(p handler.Prompter) Option {
	return func(d *Dispatcher) { d.prompter = p }
}

// WithPanicRecovery turns handler panics into error results.
func WithPanicRecovery(enable bool) Option {
	return func(d *Dispatcher) { d.recoverPanics = enable }
}

// New creates a dispatcher with an empty registry.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      NewRegistry(),
		metrics:       NewMetrics(),
		logger:        logging.NullLogger,
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("dispatcher")
	return d
}

// Register registers h for actionName.
func (d *Dispatcher) Register(actionName string, h handler.Handler) {
	d.registry.Register(actionName, h)
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Metrics returns the dispatch metrics.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

// Dispatch runs action against doc.
func (d *Dispatcher) Dispatch(action handler.Action, doc extcmd.Document) handler.Result {
	return d.DispatchWithContext(action, d.context(doc))
}

// DispatchWithContext runs action with an explicit context.
func (d *Dispatcher) DispatchWithContext(action handler.Action, ctx *handler.Context) handler.Result {
	if action.Name == "" {
		return handler.Error(ErrInvalidAction)
	}
	start := time.Now()

	h := d.registry.Get(action.Name)
	if h == nil {
		return handler.Error(fmt.Errorf("%w: %s", ErrNoHandler, action.Name))
	}

	var result handler.Result
	if d.recoverPanics {
		result = d.executeWithRecovery(h, action, ctx)
	} else {
		result = h.Handle(action, ctx)
	}

	d.metrics.RecordDispatch(action.Name, time.Since(start), result.Status)
	if result.IsError() {
		d.logger.Warn("%s: %v", action.Name, result.Error)
	} else {
		d.logger.Debug("%s: %s", action.Name, result.Status)
	}
	return result
}

func (d *Dispatcher) executeWithRecovery(h handler.Handler, action handler.Action, ctx *handler.Context) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			d.logger.Error("handler panic for %s: %v\n%s", action.Name, r, stack[:n])
			result = handler.Error(fmt.Errorf("%w: %s: %v", ErrPanic, action.Name, r))
			d.metrics.RecordPanic(action.Name)
		}
	}()
	return h.Handle(action, ctx)
}

// IsEnabled reports whether action can run against doc. Actions without a
// handler are disabled; handlers that do not implement handler.Describer
// are always enabled.
func (d *Dispatcher) IsEnabled(action handler.Action, doc extcmd.Document) bool {
	h := d.registry.Get(action.Name)
	if h == nil {
		return false
	}
	if desc, ok := h.(handler.Describer); ok {
		return desc.IsEnabled(action, d.context(doc))
	}
	return true
}

// Description returns the label of action against doc, or the action name.
func (d *Dispatcher) Description(action handler.Action, doc extcmd.Document) string {
	if desc, ok := d.registry.Get(action.Name).(handler.Describer); ok {
		return desc.Description(action, d.context(doc))
	}
	return action.Name
}

func (d *Dispatcher) context(doc extcmd.Document) *handler.Context {
	return &handler.Context{Document: doc, Prompter: d.prompter}
}
