package buffer

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("hello\nworld\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", b.Text())
	assert.Equal(t, ByteOffset(12), b.Len())
	assert.Equal(t, uint32(3), b.LineCount())
}

func TestTextRangeClamps(t *testing.T) {
	b := NewBufferFromString("abcdef")

	assert.Equal(t, "bcd", b.TextRange(1, 4))
	assert.Equal(t, "def", b.TextRange(3, 100))
	assert.Equal(t, "", b.TextRange(4, 2))
	assert.Equal(t, "ab", b.TextRange(-5, 2))
}

func TestInsertReplaceDelete(t *testing.T) {
	b := NewBufferFromString("Hello World")
	rev := b.RevisionID()

	end, err := b.Insert(5, ",")
	require.NoError(t, err)
	assert.Equal(t, ByteOffset(6), end)
	assert.Equal(t, "Hello, World", b.Text())
	assert.NotEqual(t, rev, b.RevisionID())

	end, err = b.Replace(7, 12, "Go")
	require.NoError(t, err)
	assert.Equal(t, ByteOffset(9), end)
	assert.Equal(t, "Hello, Go", b.Text())

	require.NoError(t, b.Delete(0, 7))
	assert.Equal(t, "Go", b.Text())

	_, err = b.Insert(10, "x")
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	_, err = b.Replace(1, 0, "x")
	assert.ErrorIs(t, err, ErrRangeInvalid)
}

func TestOffsetToPoint(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{7, Point{2, 0}},
		{8, Point{2, 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.OffsetToPoint(tt.offset), "offset %d", tt.offset)
	}
}

func TestFullLine(t *testing.T) {
	text := "one\ntwo\nthree"
	b := NewBufferFromString(text)

	tests := []struct {
		name string
		in   Range
		want Range
	}{
		{"cursor in first line", NewRange(1, 1), NewRange(0, 4)},
		{"selection within a line", NewRange(5, 6), NewRange(4, 8)},
		{"selection across lines", NewRange(2, 5), NewRange(0, 8)},
		{"last line without newline", NewRange(9, 10), NewRange(8, 13)},
		{"selection ends at line start", NewRange(0, 4), NewRange(0, 4)},
		{"cursor at line start", NewRange(4, 4), NewRange(4, 8)},
		{"cursor at end of buffer", NewRange(13, 13), NewRange(8, 13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.FullLine(tt.in))
			assert.Equal(t, tt.want, b.Snapshot().FullLine(tt.in))
		})
	}
}

func TestApplyEdits(t *testing.T) {
	b := NewBufferFromString("b a c")

	results, err := b.ApplyEdits([]Edit{
		NewEdit(NewRange(4, 5), "CCC"),
		NewEdit(NewRange(2, 3), "A"),
		NewEdit(NewRange(0, 1), ""),
	})
	require.NoError(t, err)
	assert.Equal(t, " A CCC", b.Text())

	require.Len(t, results, 3)
	assert.Equal(t, NewRange(0, 0), results[0].NewRange)
	assert.Equal(t, "b", results[0].OldText)
	assert.Equal(t, NewRange(1, 2), results[1].NewRange)
	assert.Equal(t, NewRange(3, 6), results[2].NewRange)
	assert.Equal(t, int64(2), results[2].Delta)
}

func TestApplyEditsInsertionsAtSameOffset(t *testing.T) {
	b := NewBufferFromString("xy")

	_, err := b.ApplyEdits([]Edit{
		NewInsert(2, "!"),
		NewInsert(1, "-"),
		NewInsert(1, "+"),
	})
	require.NoError(t, err)
	assert.Equal(t, "x+-y!", b.Text())
}

func TestApplyEditsRejectsWholeBatch(t *testing.T) {
	tests := []struct {
		name  string
		edits []Edit
		want  error
	}{
		{
			name:  "ascending order",
			edits: []Edit{NewEdit(NewRange(0, 1), "x"), NewEdit(NewRange(2, 3), "y")},
			want:  ErrEditsOverlap,
		},
		{
			name:  "overlapping",
			edits: []Edit{NewEdit(NewRange(2, 4), "x"), NewEdit(NewRange(1, 3), "y")},
			want:  ErrEditsOverlap,
		},
		{
			name:  "out of range",
			edits: []Edit{NewEdit(NewRange(3, 40), "x"), NewEdit(NewRange(0, 1), "y")},
			want:  ErrRangeInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString("abcdef")
			rev := b.RevisionID()

			_, err := b.ApplyEdits(tt.edits)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "abcdef", b.Text())
			assert.Equal(t, rev, b.RevisionID())
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := NewBufferFromString("abc")
	snap := b.Snapshot()

	_, err := b.Insert(0, "zzz")
	require.NoError(t, err)

	assert.Equal(t, "abc", snap.Text())
	assert.Equal(t, "bc", snap.TextRange(1, 3))
	assert.NotEqual(t, snap.RevisionID(), b.RevisionID())
}

func TestConcurrentAccess(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = b.Insert(0, "x")
		}()
		go func() {
			defer wg.Done()
			_ = b.Text()
		}()
	}
	wg.Wait()
	assert.Equal(t, ByteOffset(20), b.Len())
}
