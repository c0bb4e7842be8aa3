// Package process runs external command lines for the editor.
//
// A Runner spawns each command line through the configured shell in its own
// process group, feeds it an input string on stdin, and drains stdout and
// stderr concurrently so a command that writes more than a pipe buffer holds
// cannot deadlock against its own input.
//
//	r := process.NewRunner(process.WithKillGrace(0))
//	p, err := r.Start(ctx, "sort", "3\n1\n2\n")
//	if err != nil {
//	    return err
//	}
//	res, err := p.Wait(ctx)
//
// # Cancellation
//
// Process.Cancel signals the whole process group and closes the pipes so a
// pending Wait returns ErrCancelled immediately. It may be called any number
// of times from any goroutine, before or after the process exits. The child
// is still reaped in the background.
//
// # Supervisor
//
// Every started Process is tracked by a Supervisor until it has been reaped.
// Supervisor.Shutdown cancels everything still running.
//
// # Errors
//
// Wait reports ErrSpawn, ErrIO, ErrCancelled or ErrNonZeroExit (wrapped, test
// with errors.Is). On a nonzero exit the captured output is still returned.
package process
