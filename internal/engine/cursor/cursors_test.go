package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionRange(t *testing.T) {
	fwd := NewSelection(2, 5)
	back := NewSelection(5, 2)

	assert.Equal(t, Range{Start: 2, End: 5}, fwd.Range())
	assert.Equal(t, Range{Start: 2, End: 5}, back.Range())
	assert.True(t, fwd.IsForward())
	assert.False(t, back.IsForward())
	assert.True(t, NewCursorSelection(3).IsEmpty())
}

func TestSelectionWithRangeKeepsDirection(t *testing.T) {
	r := Range{Start: 10, End: 14}

	assert.Equal(t, NewSelection(10, 14), NewSelection(1, 2).WithRange(r))
	assert.Equal(t, NewSelection(14, 10), NewSelection(2, 1).WithRange(r))
}

func TestCursorSetNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Selection
		want []Selection
	}{
		{
			name: "sorted by start",
			in:   []Selection{NewSelection(4, 5), NewSelection(0, 1)},
			want: []Selection{NewSelection(0, 1), NewSelection(4, 5)},
		},
		{
			name: "overlapping merged",
			in:   []Selection{NewSelection(0, 3), NewSelection(2, 6)},
			want: []Selection{NewSelection(0, 6)},
		},
		{
			name: "adjacent kept apart",
			in:   []Selection{NewSelection(1, 2), NewSelection(0, 1)},
			want: []Selection{NewSelection(0, 1), NewSelection(1, 2)},
		},
		{
			name: "duplicate cursors collapse",
			in:   []Selection{NewCursorSelection(3), NewCursorSelection(3)},
			want: []Selection{NewCursorSelection(3)},
		},
		{
			name: "empty input",
			in:   nil,
			want: []Selection{NewCursorSelection(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewCursorSetFromSlice(tt.in)
			assert.Equal(t, tt.want, cs.All())
		})
	}
}

func TestCursorSetHasSelectionAndClamp(t *testing.T) {
	cs := NewCursorSetFromSlice([]Selection{NewCursorSelection(1), NewSelection(8, 20)})
	assert.True(t, cs.HasSelection())

	cs.Clamp(10)
	assert.Equal(t, []Range{{Start: 1, End: 1}, {Start: 8, End: 10}}, cs.Ranges())

	clone := cs.Clone()
	assert.True(t, clone.Equals(cs))
	clone.SetAll([]Selection{NewCursorSelection(0)})
	assert.False(t, clone.Equals(cs))
	assert.False(t, clone.HasSelection())
}
