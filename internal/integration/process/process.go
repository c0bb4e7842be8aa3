package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/technocoreai/extcmd/internal/logging"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Result is the captured outcome of a process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Process is one external command line being run with a fixed input.
//
// Process is safe for concurrent use.
type Process struct {
	// ID is the unique identifier for this process.
	ID string

	// Cmdline is the command line passed to the shell.
	Cmdline string

	cmd       *exec.Cmd
	input     string
	killGrace time.Duration
	logger    *logging.Logger

	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	started  time.Time
	state    atomic.Int32
	exitCode atomic.Int32

	// mu guards start against cancel and protects started, reaped, result
	// and err.
	mu     sync.Mutex
	reaped bool
	result Result
	err    error

	// done is closed once the process has been reaped.
	done chan struct{}

	// cancelled is closed by the first effective Cancel.
	cancelled  chan struct{}
	cancelOnce sync.Once

	onExit func(*Process)
}

func newProcess(id, cmdline, input string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:        id,
		Cmdline:   cmdline,
		cmd:       cmd,
		input:     input,
		logger:    logging.NullLogger,
		done:      make(chan struct{}),
		cancelled: make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the process exit code, or -1 if it has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// PID returns the operating system process ID, or -1 if not started.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Done returns a channel that is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// IsRunning reports whether the process has started and not been reaped.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// IsCancelled reports whether Cancel took effect.
func (p *Process) IsCancelled() bool {
	select {
	case <-p.cancelled:
		return true
	default:
		return false
	}
}

// Runtime returns how long the process has been running.
func (p *Process) Runtime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

// start spawns the process and begins feeding and draining it.
func (p *Process) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}
	if p.IsCancelled() {
		return ErrCancelled
	}

	var err error
	if p.stdin, err = p.cmd.StdinPipe(); err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrIO, err)
	}
	if p.stdout, err = p.cmd.StdoutPipe(); err != nil {
		p.closePipes()
		return fmt.Errorf("%w: stdout pipe: %v", ErrIO, err)
	}
	if p.stderr, err = p.cmd.StderrPipe(); err != nil {
		p.closePipes()
		return fmt.Errorf("%w: stderr pipe: %v", ErrIO, err)
	}

	if err := p.cmd.Start(); err != nil {
		p.closePipes()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	p.started = time.Now()
	p.state.Store(int32(StateRunning))
	p.logger.Debug("started pid %d: %s", p.cmd.Process.Pid, p.Cmdline)

	go p.waitLoop()
	return nil
}

// waitLoop feeds stdin, drains stdout and stderr, then reaps the process.
func (p *Process) waitLoop() {
	var stdout, stderr []byte
	var g errgroup.Group

	g.Go(func() error {
		_, err := io.WriteString(p.stdin, p.input)
		cerr := p.stdin.Close()
		if err == nil {
			err = cerr
		}
		if isBrokenPipe(err) {
			// The command exited or closed stdin without reading everything.
			return nil
		}
		if err != nil {
			return fmt.Errorf("write stdin: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stdout, err = io.ReadAll(p.stdout)
		if err != nil {
			return fmt.Errorf("read stdout: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stderr, err = io.ReadAll(p.stderr)
		if err != nil {
			return fmt.Errorf("read stderr: %w", err)
		}
		return nil
	})

	ioErr := g.Wait()
	waitErr := p.cmd.Wait()

	// The pid may be reused from here on; signalGroup checks reaped.
	p.mu.Lock()
	p.reaped = true
	p.mu.Unlock()

	res := Result{
		Stdout:   string(stdout),
		Stderr:   decodeDiagnostic(stderr),
		ExitCode: 0,
	}
	state := StateExited
	var err error

	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			state = StateKilled
		}
	case waitErr != nil:
		res.ExitCode = -1
	}

	switch {
	case p.IsCancelled():
		err = ErrCancelled
	case ioErr != nil:
		err = fmt.Errorf("%w: %v", ErrIO, ioErr)
	case waitErr != nil && exitErr == nil:
		err = fmt.Errorf("%w: %v", ErrIO, waitErr)
	case res.ExitCode != 0:
		err = NewExitError(res.ExitCode, res.Stderr)
	}

	p.mu.Lock()
	p.result = res
	p.err = err
	p.mu.Unlock()

	p.exitCode.Store(int32(res.ExitCode))
	p.state.Store(int32(state))
	p.logger.Debug("pid %d finished: exit=%d state=%s", p.cmd.Process.Pid, res.ExitCode, state)

	if p.onExit != nil {
		p.onExit(p)
	}
	close(p.done)
}

// Wait blocks until the process has exited and its output is drained, the
// process is cancelled, or ctx is done. Cancelling ctx cancels the process.
//
// On a nonzero exit the captured Result is returned with an error wrapping
// ErrNonZeroExit (or ErrSpawn for exit codes 126 and 127).
func (p *Process) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.outcome()
	default:
	}

	select {
	case <-p.done:
		return p.outcome()
	case <-p.cancelled:
		return Result{ExitCode: -1}, ErrCancelled
	case <-ctx.Done():
		p.Cancel()
		return Result{ExitCode: -1}, ErrCancelled
	}
}

func (p *Process) outcome() (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.err
}

// Cancel terminates the process group and unblocks any pending Wait.
// It is a no-op once the process has been reaped.
func (p *Process) Cancel() {
	select {
	case <-p.done:
		return
	default:
	}

	p.cancelOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		close(p.cancelled)
		if p.State() != StateRunning || p.reaped {
			return
		}

		if p.killGrace > 0 {
			p.signalGroupLocked(unix.SIGTERM)
			time.AfterFunc(p.killGrace, func() { p.signalGroup(unix.SIGKILL) })
		} else {
			p.signalGroupLocked(unix.SIGKILL)
		}
		p.closePipes()
		p.logger.Debug("cancelled pid %d", p.cmd.Process.Pid)
	})
}

// signalGroup sends sig to the process group unless the leader has already
// been reaped. It reports whether the signal was sent.
func (p *Process) signalGroup(sig unix.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signalGroupLocked(sig)
}

func (p *Process) signalGroupLocked(sig unix.Signal) bool {
	if p.reaped || p.cmd.Process == nil {
		return false
	}
	return unix.Kill(-p.cmd.Process.Pid, sig) == nil
}

// closePipes closes every pipe end held by the parent. Pending reads and
// writes on them return immediately.
func (p *Process) closePipes() {
	for _, c := range []io.Closer{p.stdin, p.stdout, p.stderr} {
		if c != nil {
			_ = c.Close()
		}
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, os.ErrClosed)
}
