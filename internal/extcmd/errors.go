package extcmd

import (
	"errors"
	"fmt"

	"github.com/technocoreai/extcmd/internal/integration/process"
)

// Error kinds reported by jobs. Test with errors.Is.
var (
	ErrSpawn       = process.ErrSpawn
	ErrIO          = process.ErrIO
	ErrCancelled   = process.ErrCancelled
	ErrNonZeroExit = process.ErrNonZeroExit
)

// Sentinel errors for the manager.
var (
	// ErrNoCommandLine is returned when starting with an empty command line.
	ErrNoCommandLine = errors.New("no command line")

	// ErrReadOnly is returned when the document cannot be edited.
	ErrReadOnly = errors.New("document is read-only")

	// ErrBusy is returned when a session of the other mode is live.
	ErrBusy = errors.New("another external command is running")

	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("manager is closed")
)

// JobError describes why one job did not produce an edit.
type JobError struct {
	// Kind is one of ErrSpawn, ErrIO, ErrCancelled or ErrNonZeroExit.
	Kind     error
	Region   Region
	ExitCode int
	Stderr   string
	Err      error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("external command on %s: %v", e.Region.Range, e.Err)
}

// Unwrap returns the underlying cause.
func (e *JobError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error's kind.
func (e *JobError) Is(target error) bool {
	return target == e.Kind
}

// Message returns the text shown to the user.
func (e *JobError) Message() string {
	if e.ExitCode > 0 {
		if e.Stderr == "" {
			return fmt.Sprintf("Shell returned %d", e.ExitCode)
		}
		return fmt.Sprintf("Shell returned %d:\n%s", e.ExitCode, e.Stderr)
	}
	return e.Err.Error()
}

func newJobError(region Region, res process.Result, err error) *JobError {
	je := &JobError{
		Region:   region,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
		Err:      err,
	}
	switch {
	case errors.Is(err, ErrCancelled):
		je.Kind = ErrCancelled
	case errors.Is(err, ErrSpawn):
		je.Kind = ErrSpawn
	case errors.Is(err, ErrNonZeroExit):
		je.Kind = ErrNonZeroExit
	default:
		je.Kind = ErrIO
	}
	return je
}

// IsCancelled reports whether err represents cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
