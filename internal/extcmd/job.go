package extcmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/technocoreai/extcmd/internal/integration/process"
)

// JobState is the lifecycle state of a SelectionJob.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobCompleted
	JobFailed
	JobCancelled
)

// String returns the state name.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions can happen.
func (s JobState) IsTerminal() bool {
	return s >= JobCompleted
}

// SelectionJob runs the command for one region.
type SelectionJob struct {
	region Region
	mode   Mode
	input  string
	cmd    Command
	token  InvocationToken
	runner ProcessRunner

	mu      sync.Mutex
	state   JobState
	proc    Process
	result  process.Result
	edit    *PendingEdit
	err     *JobError
	warning *JobError
}

func newSelectionJob(region Region, mode Mode, input string, cmd Command, token InvocationToken, runner ProcessRunner) *SelectionJob {
	return &SelectionJob{
		region: region,
		mode:   mode,
		input:  input,
		cmd:    cmd,
		token:  token,
		runner: runner,
	}
}

// Region returns the region the job operates on.
func (j *SelectionJob) Region() Region { return j.region }

// Input returns the text fed to the command.
func (j *SelectionJob) Input() string { return j.input }

// Token returns the job's invocation token.
func (j *SelectionJob) Token() InvocationToken { return j.token }

// State returns the job's state.
func (j *SelectionJob) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Run starts the command and waits for it. It returns nil when the job
// completed with an edit and a *JobError otherwise.
func (j *SelectionJob) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.state != JobPending {
		j.mu.Unlock()
		return j.cancelledError()
	}
	j.state = JobRunning
	j.mu.Unlock()

	p, err := j.runner.Start(ctx, j.cmd, j.input)
	if err != nil {
		return j.finish(process.Result{ExitCode: -1}, err)
	}

	j.mu.Lock()
	j.proc = p
	cancelled := j.state == JobCancelled
	j.mu.Unlock()
	if cancelled {
		p.Cancel()
	}

	res, err := p.Wait(ctx)
	return j.finish(res, err)
}

func (j *SelectionJob) finish(res process.Result, err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state == JobCancelled {
		return j.err
	}
	j.result = res

	if !j.token.IsCurrent() {
		err = ErrCancelled
	}
	if err != nil && !errors.Is(err, ErrCancelled) && ctxDone(err) {
		err = ErrCancelled
	}

	switch {
	case err == nil:
		j.state = JobCompleted
		j.edit = &PendingEdit{Region: j.region, Mode: j.mode, Text: res.Stdout}
		return nil

	case errors.Is(err, ErrNonZeroExit) && j.mode == InsertAtStart:
		// Insert mode keeps the output and reports the exit status.
		j.state = JobCompleted
		j.edit = &PendingEdit{Region: j.region, Mode: j.mode, Text: res.Stdout}
		j.warning = newJobError(j.region, res, err)
		return nil

	case errors.Is(err, ErrCancelled):
		j.state = JobCancelled
		j.err = newJobError(j.region, res, ErrCancelled)
		return j.err

	default:
		j.state = JobFailed
		j.err = newJobError(j.region, res, err)
		return j.err
	}
}

// Cancel stops the job's process. A finished job is unaffected.
func (j *SelectionJob) Cancel() {
	j.mu.Lock()
	if j.state.IsTerminal() {
		j.mu.Unlock()
		return
	}
	j.state = JobCancelled
	j.err = j.cancelledError()
	p := j.proc
	j.mu.Unlock()

	if p != nil {
		p.Cancel()
	}
}

func (j *SelectionJob) cancelledError() *JobError {
	return &JobError{Kind: ErrCancelled, Region: j.region, ExitCode: -1, Err: ErrCancelled}
}

// Result returns the job's edit once it has completed.
func (j *SelectionJob) Result() (PendingEdit, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.edit == nil {
		return PendingEdit{}, false
	}
	return *j.edit, true
}

// Output returns the captured process result.
func (j *SelectionJob) Output() process.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Err returns why the job produced no edit, or nil.
func (j *SelectionJob) Err() *JobError {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Warning returns a nonzero exit that did not prevent an insert-mode edit.
func (j *SelectionJob) Warning() *JobError {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.warning
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
