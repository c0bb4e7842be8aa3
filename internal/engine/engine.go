package engine

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/engine/cursor"
	"github.com/technocoreai/extcmd/internal/engine/history"
	"github.com/technocoreai/extcmd/internal/event"
)

// Re-export commonly used types for convenience.
type (
	ByteOffset = buffer.ByteOffset
	Range      = buffer.Range
	Edit       = buffer.Edit
	EditResult = buffer.EditResult
	Selection  = cursor.Selection
	RevisionID = buffer.RevisionID
)

// Engine combines a buffer with undo history and change notification.
type Engine struct {
	mu sync.Mutex // serializes writes

	id      string
	buf     *buffer.Buffer
	history *history.History
	bus     event.Bus

	maxUndoEntries int
	readOnly       bool
	initContent    string
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:             uuid.NewString(),
		maxUndoEntries: DefaultMaxUndoEntries,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.buf = buffer.NewBufferFromString(e.initContent)
	e.initContent = ""
	e.history = history.NewHistory(e.maxUndoEntries)
	return e
}

// NewFromReader creates an Engine from an io.Reader.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(append(opts, WithContent(string(data)))...), nil
}

// ID returns the buffer ID.
func (e *Engine) ID() string {
	return e.id
}

// IsReadOnly reports whether writes are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Read Operations

// Text returns the full buffer content.
func (e *Engine) Text() string {
	return e.buf.Text()
}

// TextRange returns text in the given byte range.
func (e *Engine) TextRange(start, end ByteOffset) string {
	return e.buf.TextRange(start, end)
}

// Len returns the total byte length of the buffer.
func (e *Engine) Len() ByteOffset {
	return e.buf.Len()
}

// FullLine expands r to whole lines.
func (e *Engine) FullLine(r Range) Range {
	return e.buf.FullLine(r)
}

// Snapshot returns an immutable view of the current content.
func (e *Engine) Snapshot() buffer.Snapshot {
	return e.buf.Snapshot()
}

// RevisionID returns the current buffer revision.
func (e *Engine) RevisionID() RevisionID {
	return e.buf.RevisionID()
}

// Write Operations

// Insert inserts text at offset on behalf of viewID and leaves the cursor
// after the inserted text.
func (e *Engine) Insert(viewID string, cursors *cursor.CursorSet, offset ByteOffset, text string) error {
	return e.Replace(viewID, cursors, offset, offset, text)
}

// Replace replaces [start, end) with text on behalf of viewID and leaves the
// cursor after the replacement.
func (e *Engine) Replace(viewID string, cursors *cursor.CursorSet, start, end ByteOffset, text string) error {
	return e.ApplyBatch(viewID, cursors, "Edit", []Edit{buffer.NewEdit(buffer.NewRange(start, end), text)},
		func(results []EditResult) []Selection {
			return []Selection{cursor.NewCursorSelection(results[0].NewRange.End)}
		})
}

// ApplyBatch applies edits (descending offset order, non-overlapping) as one
// undoable command named name. If selectionsAfter is non-nil its result
// replaces the view's selections.
func (e *Engine) ApplyBatch(viewID string, cursors *cursor.CursorSet, name string, edits []Edit,
	selectionsAfter func([]EditResult) []Selection) error {
	cmd := history.NewBatchCommand(name, edits)
	cmd.SelectionsAfter = selectionsAfter
	return e.execute(viewID, cursors, func() error {
		return e.history.Execute(cmd, e.buf, cursors)
	})
}

// Undo undoes the last command.
func (e *Engine) Undo(viewID string, cursors *cursor.CursorSet) error {
	return e.execute(viewID, cursors, func() error {
		return e.history.Undo(e.buf, cursors)
	})
}

// Redo re-applies the last undone command.
func (e *Engine) Redo(viewID string, cursors *cursor.CursorSet) error {
	return e.execute(viewID, cursors, func() error {
		return e.history.Redo(e.buf, cursors)
	})
}

// UndoCount returns the number of undoable commands.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// LastUndoDescription names the command Undo would revert.
func (e *Engine) LastUndoDescription() string {
	return e.history.LastDescription()
}

func (e *Engine) execute(viewID string, cursors *cursor.CursorSet, fn func() error) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if cursors == nil {
		return ErrNilCursors
	}

	e.mu.Lock()
	err := fn()
	rev := e.buf.RevisionID()
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publishModified(viewID, rev)
	return nil
}

func (e *Engine) publishModified(viewID string, rev RevisionID) {
	if e.bus == nil {
		return
	}
	ev := event.NewEvent(event.TopicBufferModified, event.BufferModified{
		BufferID: e.id,
		ViewID:   viewID,
		Revision: uint64(rev),
	}, "engine")
	// Handler failures belong to the subscribers; the edit already happened.
	_ = e.bus.Publish(context.Background(), ev)
}
