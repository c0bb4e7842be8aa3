package history

import (
	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/engine/cursor"
)

// Command is an undoable operation on a buffer and its cursors.
type Command interface {
	// Execute applies the command.
	Execute(buf *buffer.Buffer, cursors *cursor.CursorSet) error

	// Undo reverses a previously executed command.
	Undo(buf *buffer.Buffer, cursors *cursor.CursorSet) error

	// Description names the command for undo menus.
	Description() string
}

// BatchCommand applies a set of edits atomically.
type BatchCommand struct {
	name  string
	edits []buffer.Edit // highest offset first

	// SelectionsAfter computes the selections to install after Execute from
	// the applied results. Nil leaves the cursors untouched.
	SelectionsAfter func(results []buffer.EditResult) []cursor.Selection

	results       []buffer.EditResult
	cursorsBefore []cursor.Selection
	cursorsAfter  []cursor.Selection
}

// NewBatchCommand creates a batch command. Edits must be sorted by
// descending offset and must not overlap.
func NewBatchCommand(name string, edits []buffer.Edit) *BatchCommand {
	return &BatchCommand{name: name, edits: edits}
}

// Execute applies every edit in one buffer write.
func (c *BatchCommand) Execute(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	if c.cursorsAfter != nil {
		return c.redo(buf, cursors)
	}

	results, err := buf.ApplyEdits(c.edits)
	if err != nil {
		return err
	}
	c.results = results
	c.cursorsBefore = cursors.All()

	if c.SelectionsAfter != nil {
		cursors.SetAll(c.SelectionsAfter(results))
	}
	c.cursorsAfter = cursors.All()
	return nil
}

func (c *BatchCommand) redo(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	if _, err := buf.ApplyEdits(c.edits); err != nil {
		return err
	}
	cursors.SetAll(c.cursorsAfter)
	return nil
}

// Undo restores the replaced text and the selections from before Execute.
func (c *BatchCommand) Undo(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	inverse := make([]buffer.Edit, len(c.results))
	for i, res := range c.results {
		inverse[len(c.results)-1-i] = buffer.NewEdit(res.NewRange, res.OldText)
	}
	if _, err := buf.ApplyEdits(inverse); err != nil {
		return err
	}
	cursors.SetAll(c.cursorsBefore)
	return nil
}

// Description returns the batch name.
func (c *BatchCommand) Description() string {
	return c.name
}

// Results returns the applied edit results in document order.
func (c *BatchCommand) Results() []buffer.EditResult {
	return c.results
}
