package app

import (
	"github.com/technocoreai/extcmd/internal/engine"
	"github.com/technocoreai/extcmd/internal/engine/cursor"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// Commit applies a command session's edits as one undo step named
// extcmd.UndoDescription and repositions the view's selections.
func (v *View) Commit(mode extcmd.Mode, edits []extcmd.PendingEdit) error {
	if len(edits) == 0 {
		return nil
	}
	if v.ReadOnly() {
		return ErrReadOnly
	}

	bufEdits := make([]engine.Edit, len(edits))
	for i, e := range edits {
		bufEdits[i] = e.Edit()
	}

	return v.withCursors(func(cs *cursor.CursorSet) error {
		before := cs.All()
		return v.doc.Engine.ApplyBatch(v.id, cs, extcmd.UndoDescription, bufEdits,
			func(results []engine.EditResult) []engine.Selection {
				return reposition(mode, before, results)
			})
	})
}

// reposition maps selections across applied results (document order).
//
// In filter mode a selection inside a replaced region covers the replacement;
// a cursor inside one keeps its offset from the region start, clamped to the
// replacement. Every other selection moves by the length change of the edits
// ending at or before its start, so text inserted at a cursor lands before it.
func reposition(mode extcmd.Mode, sels []engine.Selection, results []engine.EditResult) []engine.Selection {
	out := make([]engine.Selection, len(sels))
	for i, s := range sels {
		if mode == extcmd.FilterReplace {
			if r, ok := containing(results, s.Range()); ok {
				out[i] = intoReplacement(s, r)
				continue
			}
		}
		out[i] = shift(s, results)
	}
	return out
}

func containing(results []engine.EditResult, sel engine.Range) (engine.EditResult, bool) {
	for _, r := range results {
		if r.OldRange.Start <= sel.Start && sel.End <= r.OldRange.End {
			return r, true
		}
	}
	return engine.EditResult{}, false
}

func intoReplacement(s engine.Selection, r engine.EditResult) engine.Selection {
	if !s.IsEmpty() {
		return s.WithRange(r.NewRange)
	}
	off := min(s.Head-r.OldRange.Start, r.NewRange.Len())
	return cursor.NewCursorSelection(r.NewRange.Start + off)
}

func shift(s engine.Selection, results []engine.EditResult) engine.Selection {
	var delta engine.ByteOffset
	for _, r := range results {
		if r.OldRange.End > s.Start() {
			break
		}
		delta += r.Delta
	}
	return s.MoveBy(delta)
}
