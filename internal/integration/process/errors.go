package process

import (
	"errors"
	"fmt"
)

// Sentinel errors for process package.
var (
	// ErrSpawn is returned when the command could not be started or the
	// shell could not find or execute it.
	ErrSpawn = errors.New("spawn failed")

	// ErrIO is returned when a pipe to or from the process fails.
	ErrIO = errors.New("process i/o failed")

	// ErrCancelled is returned by Wait after Cancel.
	ErrCancelled = errors.New("cancelled")

	// ErrNonZeroExit is returned when the process exits with a nonzero status.
	ErrNonZeroExit = errors.New("nonzero exit")

	// ErrProcessAlreadyStarted is returned when trying to start a process twice.
	ErrProcessAlreadyStarted = errors.New("process already started")

	// ErrSupervisorShutdown is returned when starting a process after Shutdown.
	ErrSupervisorShutdown = errors.New("supervisor is shut down")

	// ErrShutdownTimeout is returned when processes outlive the shutdown timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// ExitError describes a process that exited with a nonzero status.
type ExitError struct {
	Code   int
	Stderr string
	kind   error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns ErrNonZeroExit, or ErrSpawn when the shell reported that the
// command was not found (127) or not executable (126).
func (e *ExitError) Unwrap() error {
	return e.kind
}

// NewExitError returns the error for a process that exited with code.
func NewExitError(code int, stderr string) *ExitError {
	kind := ErrNonZeroExit
	if code == 126 || code == 127 {
		kind = ErrSpawn
	}
	return &ExitError{Code: code, Stderr: stderr, kind: kind}
}
