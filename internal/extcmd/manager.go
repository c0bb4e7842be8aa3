package extcmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/technocoreai/extcmd/internal/event"
	"github.com/technocoreai/extcmd/internal/integration/process"
	"github.com/technocoreai/extcmd/internal/logging"
)

// Request describes a command invocation.
type Request struct {
	Mode    Mode
	Cmdline string
	// FullLine widens FilterReplace regions to whole lines.
	FullLine bool
}

// Manager owns the live session of every document.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	generations map[string]*Generation
	closed      bool

	runner         ProcessRunner
	bus            event.Bus
	subs           []event.Subscription
	status         StatusReporter
	panel          ErrorPanel
	post           func(func())
	statusInterval time.Duration
	statusWidth    int
	logger         *logging.Logger
}

// NewManager creates a Manager. When a bus is configured the manager
// subscribes to buffer, selection and view events.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		sessions:       make(map[string]*Session),
		generations:    make(map[string]*Generation),
		status:         nopStatus{},
		panel:          nopPanel{},
		post:           func(fn func()) { fn() },
		statusInterval: DefaultStatusInterval,
		statusWidth:    DefaultStatusWidth,
		logger:         logging.NullLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.runner == nil {
		m.runner = NewShellRunner(process.NewRunner(process.WithLogger(m.logger)))
	}
	m.logger = m.logger.WithComponent("extcmd")

	if m.bus != nil {
		if err := m.subscribe(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) subscribe() error {
	handlers := map[event.Topic]event.Handler{
		event.TopicBufferModified: func(_ context.Context, ev any) error {
			if e, ok := ev.(event.Event[event.BufferModified]); ok {
				m.BufferModified(e.Payload.BufferID)
			}
			return nil
		},
		event.TopicSelectionChanged: func(_ context.Context, ev any) error {
			if e, ok := ev.(event.Event[event.SelectionChanged]); ok {
				m.SelectionChanged(e.Payload.BufferID, e.Payload.ViewID)
			}
			return nil
		},
		event.TopicViewClosed: func(_ context.Context, ev any) error {
			if e, ok := ev.(event.Event[event.ViewClosed]); ok {
				m.ViewClosed(e.Payload.BufferID, e.Payload.ViewID)
			}
			return nil
		},
	}
	for topic, h := range handlers {
		sub, err := m.bus.Subscribe(topic, h)
		if err != nil {
			m.unsubscribe()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		m.subs = append(m.subs, sub)
	}
	return nil
}

func (m *Manager) unsubscribe() {
	for _, sub := range m.subs {
		_ = m.bus.Unsubscribe(sub)
	}
	m.subs = nil
}

// SetRunner replaces the runner used by sessions started from now on.
func (m *Manager) SetRunner(r ProcessRunner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r != nil {
		m.runner = r
	}
}

// Start begins a session for doc. A live session on the same buffer is
// cancelled first; its generation is retired before the new session's jobs
// start.
func (m *Manager) Start(doc Document, req Request) (*Session, error) {
	if req.Cmdline == "" {
		return nil, ErrNoCommandLine
	}
	if doc.ReadOnly() {
		return nil, ErrReadOnly
	}

	bufID := doc.BufferID()
	regions := ResolveRegions(doc, req.Mode, req.FullLine)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}

	gen, ok := m.generations[bufID]
	if !ok {
		gen = &Generation{}
		m.generations[bufID] = gen
	}

	id := uuid.New().String()
	token := newToken(id, gen)
	ctx, cancel := context.WithCancel(context.Background())

	cmd := Command{Line: req.Cmdline, Dir: doc.Dir()}
	jobs := make([]*SelectionJob, 0, len(regions))
	for _, r := range regions {
		input := ""
		if req.Mode == FilterReplace {
			input = doc.Text(r.Range)
		}
		jobs = append(jobs, newSelectionJob(r, req.Mode, input, cmd, token, m.runner))
	}

	s := &Session{
		id:      id,
		doc:     doc,
		mode:    req.Mode,
		cmdline: req.Cmdline,
		token:   token,
		jobs:    jobs,
		started: time.Now(),
		post:    m.post,
		panel:   m.panelFor(doc),
		logger: m.logger.WithFields(map[string]any{
			"session": id[:8],
			"buffer":  bufID,
			"cmd":     req.Cmdline,
		}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		onFinish: m.release,
	}

	s.spin = startSpinner(m.statusFor(doc), req.Cmdline, m.statusWidth, m.statusInterval)

	prev := m.sessions[bufID]
	m.sessions[bufID] = s
	m.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	s.start()
	return s, nil
}

func (m *Manager) statusFor(doc Document) StatusReporter {
	if r, ok := doc.(StatusReporter); ok {
		return r
	}
	return m.status
}

func (m *Manager) panelFor(doc Document) ErrorPanel {
	if p, ok := doc.(ErrorPanel); ok {
		return p
	}
	return m.panel
}

// release forgets s if it is still the buffer's live session.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.BufferID()] == s {
		delete(m.sessions, s.BufferID())
	}
}

// Session returns the live session of a buffer.
func (m *Manager) Session(bufferID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[bufferID]
	return s, ok
}

// Generation returns a buffer's current generation.
func (m *Manager) Generation(bufferID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.generations[bufferID]; ok {
		return g.Current()
	}
	return 0
}

// IsLive reports whether a session of mode is live on the buffer.
func (m *Manager) IsLive(bufferID string, mode Mode) bool {
	s, ok := m.Session(bufferID)
	return ok && s.Mode() == mode
}

// IsEnabled reports whether a command of mode can run on doc: the document
// must be writable and no session of the other mode may be live.
func (m *Manager) IsEnabled(doc Document, mode Mode) bool {
	if doc.ReadOnly() {
		return false
	}
	s, ok := m.Session(doc.BufferID())
	return !ok || s.Mode() == mode
}

// Description returns CancelLabel while a session of mode is live on doc and
// fallback otherwise.
func (m *Manager) Description(doc Document, mode Mode, fallback string) string {
	if m.IsLive(doc.BufferID(), mode) {
		return CancelLabel
	}
	return fallback
}

// Cancel cancels the live session of a buffer. It reports whether there was
// one to cancel.
func (m *Manager) Cancel(bufferID string) bool {
	s, ok := m.Session(bufferID)
	if !ok {
		return false
	}
	return s.Cancel()
}

// BufferModified cancels the buffer's live session.
func (m *Manager) BufferModified(bufferID string) {
	if s, ok := m.Session(bufferID); ok && s.Cancel() {
		s.logger.Debug("buffer modified")
	}
}

// SelectionChanged cancels the buffer's live session if it was started from
// viewID.
func (m *Manager) SelectionChanged(bufferID, viewID string) {
	if s, ok := m.Session(bufferID); ok && s.ViewID() == viewID && s.Cancel() {
		s.logger.Debug("selection changed")
	}
}

// ViewClosed cancels the buffer's live session if it was started from viewID.
func (m *Manager) ViewClosed(bufferID, viewID string) {
	if s, ok := m.Session(bufferID); ok && s.ViewID() == viewID && s.Cancel() {
		s.logger.Debug("view closed")
	}
}

// Close cancels every live session and unsubscribes from the bus.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.Cancel()
	}
	if m.bus != nil {
		m.unsubscribe()
	}
	m.logger.Debug("closed, cancelled %d session(s)", len(live))
	return nil
}
