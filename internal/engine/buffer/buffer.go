package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// Buffer holds document text and its revision.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	revisionID RevisionID
}

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{revisionID: NewRevisionID()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = s
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// Read Operations

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range.
// Offsets are clamped to the buffer bounds.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sliceClamped(b.text, start, end)
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(strings.Count(b.text, "\n")) + 1
}

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	prefix := sliceClamped(b.text, 0, offset)
	line := strings.Count(prefix, "\n")
	col := len(prefix) - (strings.LastIndexByte(prefix, '\n') + 1)
	return Point{Line: uint32(line), Column: uint32(col)}
}

// FullLine expands r to cover every line it touches, including the trailing
// newline of the last line when one exists. A non-empty range that ends
// exactly at the start of a line does not pull in that line.
func (b *Buffer) FullLine(r Range) Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fullLine(b.text, r)
}

func fullLine(text string, r Range) Range {
	n := ByteOffset(len(text))
	start := clamp(r.Start, n)
	end := clamp(r.End, n)

	start = ByteOffset(strings.LastIndexByte(text[:start], '\n') + 1)

	if end > start && text[end-1] == '\n' {
		return Range{Start: start, End: end}
	}
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		end += ByteOffset(i) + 1
	} else {
		end = n
	}
	return Range{Start: start, End: end}
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(len(b.text)) {
		return 0, ErrOffsetOutOfRange
	}

	b.text = b.text[:offset] + text + b.text[offset:]
	b.revisionID = NewRevisionID()
	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	_, err := b.Replace(start, end, "")
	return err
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return 0, ErrRangeInvalid
	}

	b.text = b.text[:start] + text + b.text[end:]
	b.revisionID = NewRevisionID()
	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	results, err := b.ApplyEdits([]Edit{edit})
	if err != nil {
		return EditResult{}, err
	}
	return results[0], nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) and must not overlap;
// zero-width edits may share an offset. Either every edit is applied or, on a
// validation error, none is.
//
// The returned results are in document order and their NewRange values are
// expressed in the coordinates of the buffer after the whole batch.
func (b *Buffer) ApplyEdits(edits []Edit) ([]EditResult, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return nil, ErrEditsOverlap
		}
	}

	n := ByteOffset(len(b.text))
	for _, edit := range edits {
		if !edit.Range.IsValid() || edit.Range.End > n {
			return nil, ErrRangeInvalid
		}
	}

	results := make([]EditResult, len(edits))
	var sb strings.Builder
	sb.Grow(len(b.text))

	// Walk the edits in document order, copying the untouched gaps between them.
	var cursor, delta ByteOffset
	for i := len(edits) - 1; i >= 0; i-- {
		edit := edits[i]
		sb.WriteString(b.text[cursor:edit.Range.Start])
		sb.WriteString(edit.NewText)
		cursor = edit.Range.End

		newStart := edit.Range.Start + delta
		results[len(edits)-1-i] = EditResult{
			OldRange: edit.Range,
			NewRange: Range{Start: newStart, End: newStart + ByteOffset(len(edit.NewText))},
			OldText:  b.text[edit.Range.Start:edit.Range.End],
			NewText:  edit.NewText,
			Delta:    edit.Delta(),
		}
		delta += edit.Delta()
	}
	sb.WriteString(b.text[cursor:])

	b.text = sb.String()
	b.revisionID = NewRevisionID()
	return results, nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// Snapshot returns an immutable view of the current content.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{text: b.text, revisionID: b.revisionID}
}

func clamp(offset, n ByteOffset) ByteOffset {
	return max(0, min(offset, n))
}

func sliceClamped(s string, start, end ByteOffset) string {
	n := ByteOffset(len(s))
	start, end = clamp(start, n), clamp(end, n)
	if start >= end {
		return ""
	}
	return s[start:end]
}
