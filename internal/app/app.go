package app

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/technocoreai/extcmd/internal/cmdhistory"
	"github.com/technocoreai/extcmd/internal/config"
	"github.com/technocoreai/extcmd/internal/dispatcher"
	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/dispatcher/handlers/command"
	"github.com/technocoreai/extcmd/internal/event"
	"github.com/technocoreai/extcmd/internal/extcmd"
	"github.com/technocoreai/extcmd/internal/integration/process"
	"github.com/technocoreai/extcmd/internal/logging"
)

// ShutdownTimeout bounds how long Shutdown waits for commands to exit.
const ShutdownTimeout = 5 * time.Second

// Application is the central coordinator of the host components.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	eventBus event.Bus
	config   *config.Config
	logger   *logging.Logger
	logFile  io.Closer

	// External commands
	supervisor *process.Supervisor
	manager    *extcmd.Manager
	history    *cmdhistory.History
	dispatcher *dispatcher.Dispatcher

	// Documents and the views showing them
	documents *DocumentManager
	views     map[string]*View

	watcher *config.Watcher
	subs    *subscriptionManager

	// Main thread
	tasks chan func()
	post  func(func())

	closed atomic.Bool
	done   chan struct{}

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty means config.DefaultPath().
	ConfigPath string

	// Config is used as is instead of loading ConfigPath.
	Config *config.Config

	// Files are files to open on startup.
	Files []string

	// LogLevel overrides the configured log level.
	LogLevel string

	// LogOutput receives log output. Nil means the configured log file, or
	// stderr when none is configured.
	LogOutput io.Writer

	// ReadOnly opens files in read-only mode.
	ReadOnly bool

	// Watch reloads the configuration file when it changes.
	Watch bool

	// MemoryHistory keeps command history in memory only.
	MemoryHistory bool

	// Prompter asks for command lines when an action has none.
	Prompter handler.Prompter

	// MainThread, if set, runs commits on the host's own main thread
	// instead of the application's Run loop.
	MainThread func(func())
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:  opts,
		views: make(map[string]*View),
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	app.post = app.enqueue
	if opts.MainThread != nil {
		app.post = opts.MainThread
	}

	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Shutdown cancels every running command, waits for the processes to exit
// and persists the command history. It is safe to call more than once.
func (app *Application) Shutdown() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(app.done)

	var errs []error
	if app.manager != nil {
		errs = append(errs, app.manager.Close())
	}
	if app.dispatcher != nil {
		app.logDispatchStats()
	}
	if app.supervisor != nil {
		errs = append(errs, app.supervisor.Shutdown(ShutdownTimeout))
	}
	if app.watcher != nil {
		errs = append(errs, app.watcher.Close())
	}
	if app.history != nil {
		errs = append(errs, app.history.Save())
	}
	if app.subs != nil {
		app.subs.cleanup()
	}

	err := errors.Join(errs...)
	if err != nil {
		app.logger.Warn("shutdown: %v", err)
	} else {
		app.logger.Debug("shutdown complete")
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
	return err
}

// IsShutdown reports whether Shutdown was called.
func (app *Application) IsShutdown() bool {
	return app.closed.Load()
}

// EventBus returns the event bus.
func (app *Application) EventBus() event.Bus {
	return app.eventBus
}

// Config returns the current configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Manager returns the external command manager.
func (app *Application) Manager() *extcmd.Manager {
	return app.manager
}

// Supervisor returns the supervisor of command processes.
func (app *Application) Supervisor() *process.Supervisor {
	return app.supervisor
}

// History returns the command line history.
func (app *Application) History() *cmdhistory.History {
	return app.history
}

// Dispatcher returns the action dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Documents returns the document manager.
func (app *Application) Documents() *DocumentManager {
	return app.documents
}

// Execute dispatches the named action from view v.
func (app *Application) Execute(v *View, name string, args handler.Args) handler.Result {
	return app.dispatcher.Dispatch(handler.Action{Name: name, Args: args, Source: "app"}, v)
}

// logDispatchStats writes the dispatch counters at debug level.
func (app *Application) logDispatchStats() {
	if !app.logger.Enabled(logging.LevelDebug) {
		return
	}
	m := app.dispatcher.Metrics()
	snap := m.Snapshot()
	app.logger.Debug("dispatch: total=%d errors=%d panics=%d avg=%s",
		snap.TotalDispatches, snap.TotalErrors, snap.TotalPanics, snap.AverageDuration)
	for _, name := range command.Actions() {
		if st := m.ActionStats(name); st != nil {
			app.logger.Debug("dispatch %s: count=%d errors=%d max=%s last=%s",
				name, st.DispatchCount, st.ErrorCount, st.MaxDuration, st.LastStatus)
		}
	}
}

// runnerFor builds the process runner configured by cfg. Every runner
// shares the application's supervisor.
func (app *Application) runnerFor(cfg *config.Config) *process.Runner {
	return process.NewRunner(
		process.WithShell(cfg.Shell, cfg.ShellFlag),
		process.WithEnv(cfg.Env),
		process.WithKillGrace(cfg.KillGrace),
		process.WithLogger(app.logger),
		process.WithSupervisor(app.supervisor),
	)
}

// applyConfig installs a reloaded configuration. Commands already running
// keep the runner they started with.
func (app *Application) applyConfig(cfg *config.Config) {
	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	app.manager.SetRunner(extcmd.NewShellRunner(app.runnerFor(cfg)))
	app.history.Resize(cfg.History.Size)
}
