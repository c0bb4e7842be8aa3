package cursor

import (
	"fmt"

	"github.com/technocoreai/extcmd/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range.
type Range = buffer.Range

// Selection represents a range of selected text.
// Anchor is where the selection started; Head is the current cursor position.
// Selection is an immutable value type.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// NewCursorSelection creates a selection representing just a cursor.
func NewCursorSelection(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// NewRangeSelection creates a forward selection covering the given range.
func NewRangeSelection(r Range) Selection {
	return Selection{Anchor: r.Start, Head: r.End}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Range returns the selection as a range (always Start <= End).
func (s Selection) Range() Range {
	return Range{Start: s.Start(), End: s.End()}
}

// Start returns the lower bound of the selection.
func (s Selection) Start() ByteOffset {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() ByteOffset {
	return max(s.Anchor, s.Head)
}

// IsForward returns true if the selection extends forward (head >= anchor).
func (s Selection) IsForward() bool {
	return s.Head >= s.Anchor
}

// MoveBy returns a new selection shifted by delta bytes.
func (s Selection) MoveBy(delta ByteOffset) Selection {
	return Selection{Anchor: s.Anchor + delta, Head: s.Head + delta}
}

// WithRange returns a selection covering r that keeps the direction of s.
func (s Selection) WithRange(r Range) Selection {
	if s.IsForward() {
		return Selection{Anchor: r.Start, Head: r.End}
	}
	return Selection{Anchor: r.End, Head: r.Start}
}

// Merge returns the smallest selection covering both, keeping the direction of s.
func (s Selection) Merge(other Selection) Selection {
	return s.WithRange(s.Range().Union(other.Range()))
}

// Clamp returns a selection with both ends limited to [0, maxOffset].
func (s Selection) Clamp(maxOffset ByteOffset) Selection {
	c := func(o ByteOffset) ByteOffset { return max(0, min(o, maxOffset)) }
	return Selection{Anchor: c(s.Anchor), Head: c(s.Head)}
}

// String returns a human-readable representation.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
