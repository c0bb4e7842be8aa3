package process

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/technocoreai/extcmd/internal/logging"
)

// Default shell settings.
const (
	DefaultShell     = "/bin/sh"
	DefaultShellFlag = "-c"
)

// Runner starts command lines through a shell.
//
// A Runner is immutable after construction; use With to derive a variant.
type Runner struct {
	sup       *Supervisor
	shell     string
	shellFlag string
	env       map[string]string
	dir       string
	killGrace time.Duration
	logger    *logging.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithShell sets the shell and the flag that precedes the command line.
func WithShell(shell, flag string) RunnerOption {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
		if flag != "" {
			r.shellFlag = flag
		}
	}
}

// WithEnv sets variables merged over the inherited environment.
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) {
		r.env = make(map[string]string, len(env))
		for k, v := range env {
			r.env[k] = v
		}
	}
}

// WithDir sets the working directory. Empty means the current directory.
func WithDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithKillGrace sets the delay between SIGTERM and SIGKILL on cancel.
// Zero sends SIGKILL immediately.
func WithKillGrace(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.killGrace = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logging.OrNull(l)
	}
}

// WithSupervisor sets the supervisor that tracks started processes.
func WithSupervisor(s *Supervisor) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.sup = s
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		shell:     DefaultShell,
		shellFlag: DefaultShellFlag,
		logger:    logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sup == nil {
		r.sup = NewSupervisor()
	}
	return r
}

// With returns a copy of r with opts applied. The copy shares r's Supervisor
// unless WithSupervisor is given.
func (r *Runner) With(opts ...RunnerOption) *Runner {
	c := *r
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Supervisor returns the supervisor tracking r's processes.
func (r *Runner) Supervisor() *Supervisor {
	return r.sup
}

// Start spawns cmdline with input on stdin. Cancelling ctx cancels the
// process. The returned Process must be waited on or cancelled.
func (r *Runner) Start(ctx context.Context, cmdline, input string) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	cmd := r.buildCommand(cmdline)
	p := newProcess(uuid.New().String(), cmdline, input, cmd)
	p.killGrace = r.killGrace
	p.logger = r.logger.WithField("process", p.ID)

	if err := r.sup.start(p); err != nil {
		r.logger.Warn("start %q: %v", cmdline, err)
		return nil, err
	}

	stop := context.AfterFunc(ctx, p.Cancel)
	go func() {
		<-p.Done()
		stop()
	}()
	return p, nil
}

// Run starts cmdline and waits for it.
func (r *Runner) Run(ctx context.Context, cmdline, input string) (Result, error) {
	p, err := r.Start(ctx, cmdline, input)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return p.Wait(ctx)
}

// buildCommand creates the shell invocation for cmdline in its own process
// group so cancel can signal every descendant.
func (r *Runner) buildCommand(cmdline string) *exec.Cmd {
	cmd := exec.Command(r.shell, r.shellFlag, cmdline)
	cmd.Env = processEnv(r.env)
	cmd.Dir = r.dir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return cmd
}
