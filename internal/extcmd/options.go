package extcmd

import (
	"time"

	"github.com/technocoreai/extcmd/internal/event"
	"github.com/technocoreai/extcmd/internal/logging"
)

// Option configures a Manager.
type Option func(*Manager)

// WithRunner sets the runner for new sessions.
func WithRunner(r ProcessRunner) Option {
	return func(m *Manager) {
		m.runner = r
	}
}

// WithBus subscribes the manager to document events on bus.
func WithBus(bus event.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNull(l)
	}
}

// WithStatusReporter sets the status reporter used for documents that do
// not implement StatusReporter themselves.
func WithStatusReporter(r StatusReporter) Option {
	return func(m *Manager) {
		if r != nil {
			m.status = r
		}
	}
}

// WithErrorPanel sets the error panel used for documents that do not
// implement ErrorPanel themselves.
func WithErrorPanel(p ErrorPanel) Option {
	return func(m *Manager) {
		if p != nil {
			m.panel = p
		}
	}
}

// WithMainThread sets the function that runs commits on the host's main
// thread. The default runs them on the goroutine that joined the jobs.
func WithMainThread(post func(func())) Option {
	return func(m *Manager) {
		if post != nil {
			m.post = post
		}
	}
}

// WithStatus sets the spinner interval and width.
func WithStatus(interval time.Duration, width int) Option {
	return func(m *Manager) {
		m.statusInterval = interval
		m.statusWidth = width
	}
}
