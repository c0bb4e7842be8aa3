package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/engine"
	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/engine/cursor"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// result describes an applied edit: old is in pre-batch and new in
// post-batch coordinates.
func result(oldStart, oldEnd, newStart, newEnd engine.ByteOffset) engine.EditResult {
	return engine.EditResult{
		OldRange: buffer.NewRange(oldStart, oldEnd),
		NewRange: buffer.NewRange(newStart, newEnd),
		Delta:    int64((newEnd - newStart) - (oldEnd - oldStart)),
	}
}

func TestRepositionFilter(t *testing.T) {
	sels := []engine.Selection{
		cursor.NewRangeSelection(buffer.NewRange(0, 5)),
		cursor.NewRangeSelection(buffer.NewRange(6, 11)),
		cursor.NewCursorSelection(12),
	}
	// "hello" -> "HELLO!!", "world" -> "W"
	results := []engine.EditResult{result(0, 5, 0, 7), result(6, 11, 8, 9)}

	got := reposition(extcmd.FilterReplace, sels, results)
	require.Len(t, got, 3)
	assert.Equal(t, buffer.NewRange(0, 7), got[0].Range())
	assert.Equal(t, buffer.NewRange(8, 9), got[1].Range())
	assert.Equal(t, engine.ByteOffset(10), got[2].Head)
}

func TestRepositionFilterCursorClamped(t *testing.T) {
	sels := []engine.Selection{cursor.NewCursorSelection(4)}
	// whole line 0..6 replaced by two bytes
	got := reposition(extcmd.FilterReplace, sels, []engine.EditResult{result(0, 6, 0, 2)})
	assert.Equal(t, engine.ByteOffset(2), got[0].Head)
	assert.True(t, got[0].IsEmpty())
}

func TestRepositionInsert(t *testing.T) {
	sels := []engine.Selection{
		cursor.NewCursorSelection(1),
		cursor.NewRangeSelection(buffer.NewRange(4, 6)),
	}
	results := []engine.EditResult{result(1, 1, 1, 4), result(4, 4, 7, 10)}

	got := reposition(extcmd.InsertAtStart, sels, results)
	assert.Equal(t, engine.ByteOffset(4), got[0].Head)
	assert.Equal(t, buffer.NewRange(10, 12), got[1].Range())
}

func TestViewCommitFilter(t *testing.T) {
	doc := NewDocument("", []byte("b\na\nkeep"))
	v := NewView(doc, nil)
	require.NoError(t, v.Select(buffer.NewRange(0, 4)))

	err := v.Commit(extcmd.FilterReplace, []extcmd.PendingEdit{{
		Region: extcmd.Region{Range: buffer.NewRange(0, 4)},
		Mode:   extcmd.FilterReplace,
		Text:   "a\nb\n",
	}})
	require.NoError(t, err)

	assert.Equal(t, "a\nb\nkeep", doc.Content())
	assert.Equal(t, []engine.Range{buffer.NewRange(0, 4)}, v.Selections())
	assert.Equal(t, extcmd.UndoDescription, doc.Engine.LastUndoDescription())

	require.NoError(t, v.Undo())
	assert.Equal(t, "b\na\nkeep", doc.Content())
}

func TestViewCommitDescendingEdits(t *testing.T) {
	doc := NewDocument("", []byte("one two"))
	v := NewView(doc, nil)
	require.NoError(t, v.Select(buffer.NewRange(0, 3), buffer.NewRange(4, 7)))

	edits := []extcmd.PendingEdit{
		{Region: extcmd.Region{Range: buffer.NewRange(4, 7)}, Mode: extcmd.FilterReplace, Text: "2"},
		{Region: extcmd.Region{Range: buffer.NewRange(0, 3)}, Mode: extcmd.FilterReplace, Text: "1"},
	}
	require.NoError(t, v.Commit(extcmd.FilterReplace, edits))

	assert.Equal(t, "1 2", doc.Content())
	assert.Equal(t, []engine.Range{buffer.NewRange(0, 1), buffer.NewRange(2, 3)}, v.Selections())
	assert.Equal(t, 1, doc.Engine.UndoCount())
}

func TestViewCommitReadOnly(t *testing.T) {
	doc := NewDocument("", []byte("text"))
	doc.ReadOnly = true
	v := NewView(doc, nil)

	err := v.Commit(extcmd.FilterReplace, []extcmd.PendingEdit{{
		Region: extcmd.Region{Range: buffer.NewRange(0, 4)},
		Text:   "x",
	}})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, "text", doc.Content())
}

func TestViewCommitNothing(t *testing.T) {
	doc := NewDocument("", []byte("text"))
	v := NewView(doc, nil)

	require.NoError(t, v.Commit(extcmd.FilterReplace, nil))
	assert.Equal(t, 0, doc.Engine.UndoCount())
}
