package extcmd

import (
	"context"

	"github.com/technocoreai/extcmd/internal/integration/process"
)

// Command is what a job asks a ProcessRunner to run.
type Command struct {
	Line string
	Dir  string
}

// ProcessRunner starts external commands.
type ProcessRunner interface {
	Start(ctx context.Context, cmd Command, input string) (Process, error)
}

// Process is a started external command.
type Process interface {
	Wait(ctx context.Context) (process.Result, error)
	Cancel()
}

// ShellRunner adapts a process.Runner to ProcessRunner.
type ShellRunner struct {
	r *process.Runner
}

// NewShellRunner wraps r.
func NewShellRunner(r *process.Runner) *ShellRunner {
	return &ShellRunner{r: r}
}

// Start implements ProcessRunner.
func (s *ShellRunner) Start(ctx context.Context, cmd Command, input string) (Process, error) {
	r := s.r
	if cmd.Dir != "" {
		r = r.With(process.WithDir(cmd.Dir))
	}
	p, err := r.Start(ctx, cmd.Line, input)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Supervisor returns the supervisor tracking started processes.
func (s *ShellRunner) Supervisor() *process.Supervisor {
	return s.r.Supervisor()
}
