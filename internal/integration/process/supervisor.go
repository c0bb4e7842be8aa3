package process

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Supervisor tracks started processes until they have been reaped.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	// closed indicates the supervisor has been shut down
	closed atomic.Bool

	// maxProcesses limits the number of concurrent processes (0 = unlimited)
	maxProcesses int

	// onProcessExit is called when a process exits
	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(max int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = max
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// start registers p and starts it.
func (s *Supervisor) start(p *Process) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrSupervisorShutdown
	}
	if s.maxProcesses > 0 && len(s.processes) >= s.maxProcesses {
		s.mu.Unlock()
		return fmt.Errorf("%w: process limit reached: %d", ErrSpawn, s.maxProcesses)
	}
	if _, exists := s.processes[p.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("process ID already exists: %s", p.ID)
	}
	s.processes[p.ID] = p
	s.mu.Unlock()

	p.onExit = s.remove
	if err := p.start(); err != nil {
		s.mu.Lock()
		delete(s.processes, p.ID)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Supervisor) remove(p *Process) {
	s.mu.Lock()
	delete(s.processes, p.ID)
	cb := s.onProcessExit
	s.mu.Unlock()

	if cb != nil {
		cb(p)
	}
}

// List returns all live processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of processes not yet reaped.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// IsShutdown returns true if the supervisor has been shut down.
func (s *Supervisor) IsShutdown() bool {
	return s.closed.Load()
}

// Shutdown cancels every live process and waits up to timeout for them to
// be reaped. Further starts fail with ErrSupervisorShutdown.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	procs := s.List()
	for _, p := range procs {
		p.Cancel()
	}

	deadline := time.After(timeout)
	for _, p := range procs {
		select {
		case <-p.Done():
		case <-deadline:
			return fmt.Errorf("%w: %d process(es) still running", ErrShutdownTimeout, s.Count())
		}
	}
	return nil
}
