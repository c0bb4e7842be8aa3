package extcmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/technocoreai/extcmd/internal/logging"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	SessionActive SessionState = iota
	SessionCommitting
	SessionDone
	SessionCancelled
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionCommitting:
		return "committing"
	case SessionDone:
		return "done"
	case SessionCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is one invocation of a command line over a document's regions.
type Session struct {
	id      string
	doc     Document
	mode    Mode
	cmdline string
	token   InvocationToken
	jobs    []*SelectionJob
	started time.Time

	post   func(func())
	panel  ErrorPanel
	spin   *spinner
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state SessionState
	err   error

	done       chan struct{}
	finishOnce sync.Once
	onFinish   func(*Session)
}

// ID returns the session's unique ID.
func (s *Session) ID() string { return s.id }

// Mode returns the session's mode.
func (s *Session) Mode() Mode { return s.mode }

// Cmdline returns the command line being run.
func (s *Session) Cmdline() string { return s.cmdline }

// BufferID returns the buffer the session belongs to.
func (s *Session) BufferID() string { return s.doc.BufferID() }

// ViewID returns the view the session was started from.
func (s *Session) ViewID() string { return s.doc.ViewID() }

// Token returns the token shared by the session's jobs.
func (s *Session) Token() InvocationToken { return s.token }

// Jobs returns the session's jobs in document order.
func (s *Session) Jobs() []*SelectionJob {
	out := make([]*SelectionJob, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// State returns the session's state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session reaches Done or Cancelled.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns nil for a committed session, ErrCancelled for a cancelled
// one, and the first *JobError (or commit error) for a failed one.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the session finishes or ctx is done and returns Err.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Summary is the one-line outcome shown to the user: "done", "cancelled"
// or the first failure, prefixed with the command line.
func (s *Session) Summary() string {
	s.mu.Lock()
	state, err := s.state, s.err
	s.mu.Unlock()

	switch {
	case state == SessionDone:
		return fmt.Sprintf("%s: done", s.cmdline)
	case state != SessionCancelled:
		return fmt.Sprintf("%s: running", s.cmdline)
	case err == nil || errors.Is(err, ErrCancelled):
		return fmt.Sprintf("%s: cancelled", s.cmdline)
	}
	var je *JobError
	if errors.As(err, &je) {
		return fmt.Sprintf("%s: %s", s.cmdline, je.Message())
	}
	return fmt.Sprintf("%s: %v", s.cmdline, err)
}

// start launches every job. The commit runs through post once all of them
// have completed.
func (s *Session) start() {
	s.logger.Info("started %s with %d job(s)", s.mode, len(s.jobs))
	go s.run()
}

func (s *Session) run() {
	g, gctx := errgroup.WithContext(s.ctx)
	for _, j := range s.jobs {
		j := j
		g.Go(func() error {
			return j.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		s.abort(err)
		return
	}

	edits := make([]PendingEdit, 0, len(s.jobs))
	for _, j := range s.jobs {
		edit, ok := j.Result()
		if !ok {
			s.abort(j.cancelledError())
			return
		}
		edits = append(edits, edit)
	}
	sortDescending(edits)

	s.post(func() { s.commit(edits) })
}

// commit hands edits to the document if the session is still current.
func (s *Session) commit(edits []PendingEdit) {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return
	}
	if !s.token.IsCurrent() {
		s.state = SessionCancelled
		s.err = ErrCancelled
		s.mu.Unlock()
		s.logger.Debug("discarded stale result of generation %d", s.token.Generation)
		s.finish()
		return
	}
	s.state = SessionCommitting
	s.mu.Unlock()

	err := s.doc.Commit(s.mode, edits)

	s.mu.Lock()
	if err != nil {
		s.state = SessionCancelled
		s.err = fmt.Errorf("commit: %w", err)
	} else {
		s.state = SessionDone
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("commit failed: %v", err)
		s.panel.ShowErrors(ErrorPanelName, []string{err.Error()})
	} else {
		s.logger.Info("committed %d edit(s) in %s", len(edits), time.Since(s.started).Round(time.Millisecond))
		s.reportWarnings()
	}
	s.finish()
}

// abort ends the session without committing. err is the first job error.
func (s *Session) abort(err error) {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return
	}
	s.state = SessionCancelled
	s.err = err
	s.mu.Unlock()

	s.cancel()
	for _, j := range s.jobs {
		j.Cancel()
	}

	var messages []string
	for _, j := range s.jobs {
		if je := j.Err(); je != nil && !errors.Is(je, ErrCancelled) {
			messages = append(messages, je.Message())
		}
	}
	if len(messages) > 0 {
		s.logger.Warn("aborted: %v", err)
		s.panel.ShowErrors(ErrorPanelName, messages)
	} else {
		s.logger.Debug("aborted: %v", err)
	}
	s.finish()
}

func (s *Session) reportWarnings() {
	var messages []string
	for _, j := range s.jobs {
		if w := j.Warning(); w != nil {
			messages = append(messages, w.Message())
		}
	}
	if len(messages) > 0 {
		s.logger.Warn("%d job(s) exited nonzero", len(messages))
		s.panel.ShowErrors(ErrorPanelName, messages)
	}
}

// Cancel stops every job and discards any result. It returns false when the
// session already finished or is committing. Cancel does not wait for the
// processes to exit.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return false
	}
	s.state = SessionCancelled
	s.err = ErrCancelled
	s.mu.Unlock()

	s.token.InvalidateOwner()
	s.cancel()
	for _, j := range s.jobs {
		j.Cancel()
	}
	s.logger.Info("cancelled")
	s.finish()
	return true
}

func (s *Session) finish() {
	s.finishOnce.Do(func() {
		s.cancel()
		if s.spin != nil {
			s.spin.Stop()
		}
		close(s.done)
		if s.onFinish != nil {
			s.onFinish(s)
		}
	})
}
