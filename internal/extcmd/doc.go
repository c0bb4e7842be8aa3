// Package extcmd runs external command lines over a document's selections
// and splices their output back into the document.
//
// A Manager owns at most one live Session per document (buffer). A Session
// snapshots the regions to operate on when it starts, runs one SelectionJob
// per region concurrently, and when every job has completed hands the
// complete set of PendingEdits to the document's EditCommitter in a single
// call. If any job fails or is cancelled, nothing is committed.
//
// # Generations
//
// Each document has a monotonically increasing generation. Starting a
// session takes the next generation and every job carries an
// InvocationToken for it. Results whose token is no longer current are
// discarded, so a process that finishes after its session was superseded can
// never reach the document.
//
// # Invalidation
//
// When given an event bus, the Manager cancels the live session for a
// buffer on:
//
//   - buffer.modified from any view of the buffer
//   - selection.changed from the session's view
//   - view.closed of the session's view
//
// # Modes
//
// FilterReplace feeds each region's text to the command and replaces the
// region with the command's stdout. With no non-empty selection the whole
// buffer is the region. InsertAtStart feeds the command empty input and
// inserts its stdout at the start of every selection.
package extcmd
