package app

import (
	"errors"
	"os"

	"github.com/technocoreai/extcmd/internal/cmdhistory"
	"github.com/technocoreai/extcmd/internal/config"
	"github.com/technocoreai/extcmd/internal/dispatcher"
	"github.com/technocoreai/extcmd/internal/dispatcher/handlers/command"
	"github.com/technocoreai/extcmd/internal/event"
	"github.com/technocoreai/extcmd/internal/extcmd"
	"github.com/technocoreai/extcmd/internal/integration/process"
	"github.com/technocoreai/extcmd/internal/logging"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initEventBus,
		b.initCommands,
		b.initHistory,
		b.initDispatcher,
		b.initSubscriptions,
		b.initWatcher,
		b.initDocuments,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Debug("bootstrapped: %v", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg := b.opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(b.opts.ConfigPath); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	cfg := b.app.config

	out := b.opts.LogOutput
	if out == nil && cfg.Log.File != "" {
		f, err := logging.OpenFile(config.AppName, cfg.Log.File)
		if err != nil {
			return &InitError{Component: "logger", Err: err}
		}
		b.app.logFile = f
		out = f
	}
	if out == nil {
		out = os.Stderr
	}

	level := cfg.Log.Level
	if b.opts.LogLevel != "" {
		level = b.opts.LogLevel
	}
	b.app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(level),
		Output: out,
		Prefix: config.AppName,
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initEventBus() error {
	b.app.eventBus = event.NewBus()
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

func (b *bootstrapper) initCommands() error {
	cfg := b.app.config
	logger := b.app.logger.WithComponent("process")
	b.app.supervisor = process.NewSupervisor(
		process.WithMaxProcesses(cfg.MaxProcesses),
		process.WithProcessExitCallback(func(p *process.Process) {
			logger.Debug("%s exited: code=%d state=%s cancelled=%t: %s",
				p.ID, p.ExitCode(), p.State(), p.IsCancelled(), p.Cmdline)
		}),
	)

	mgr, err := extcmd.NewManager(
		extcmd.WithRunner(extcmd.NewShellRunner(b.app.runnerFor(cfg))),
		extcmd.WithBus(b.app.eventBus),
		extcmd.WithLogger(b.app.logger),
		extcmd.WithMainThread(b.app.post),
		extcmd.WithStatus(cfg.StatusInterval, cfg.StatusWidth),
	)
	if err != nil {
		return &InitError{Component: "extcmd", Err: err}
	}
	b.app.manager = mgr
	b.initOrder = append(b.initOrder, "extcmd")
	return nil
}

func (b *bootstrapper) initHistory() error {
	cfg := b.app.config
	if b.opts.MemoryHistory {
		b.app.history = cmdhistory.New(cfg.History.Size)
	} else {
		path := cfg.History.Path
		if path == "" {
			path = config.DefaultHistoryPath()
		}
		h, err := cmdhistory.Open(path, cfg.History.Size)
		if err != nil {
			// A damaged history file must not keep the editor from starting.
			b.app.logger.Warn("history: %v", err)
			h = cmdhistory.New(cfg.History.Size)
		}
		b.app.history = h
	}
	b.initOrder = append(b.initOrder, "history")
	return nil
}

func (b *bootstrapper) initDispatcher() error {
	d := dispatcher.New(
		dispatcher.WithLogger(b.app.logger),
		dispatcher.WithPrompter(b.opts.Prompter),
	)
	command.NewHandler(b.app.manager,
		command.WithHistory(b.app.history),
		command.WithFullLineDefault(func() bool { return b.app.Config().FullLine }),
		command.WithLogger(b.app.logger),
	).RegisterWith(d)

	b.app.dispatcher = d
	b.initOrder = append(b.initOrder, "dispatcher")
	return nil
}

func (b *bootstrapper) initSubscriptions() error {
	b.app.subs = newSubscriptionManager(b.app)
	if err := b.app.subs.setupSubscriptions(); err != nil {
		return &InitError{Component: "subscriptions", Err: err}
	}
	b.initOrder = append(b.initOrder, "subscriptions")
	return nil
}

func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.Config != nil {
		return nil
	}
	path := b.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	w, err := config.NewWatcher(path, b.app.config, config.WithWatcherLogger(b.app.logger))
	if err != nil {
		// Without a watcher the configuration simply stays as loaded.
		b.app.logger.Warn("config watch disabled: %v", err)
		return nil
	}
	w.OnReload(b.app.subs.publishConfigReloaded)
	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

func (b *bootstrapper) initDocuments() error {
	b.app.documents = NewDocumentManager(b.app.eventBus)

	var errs []error
	for _, file := range b.opts.Files {
		if _, err := b.app.OpenFile(file); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return &InitError{Component: "documents", Err: err}
	}
	b.initOrder = append(b.initOrder, "documents")
	return nil
}

// cleanup releases the components initialized so far, newest first.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "watcher":
			_ = b.app.watcher.Close()
		case "subscriptions":
			b.app.subs.cleanup()
		case "extcmd":
			_ = b.app.manager.Close()
			_ = b.app.supervisor.Shutdown(ShutdownTimeout)
		case "logger":
			if b.app.logFile != nil {
				_ = b.app.logFile.Close()
			}
		}
	}
	b.initOrder = nil
}
