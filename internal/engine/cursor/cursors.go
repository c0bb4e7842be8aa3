package cursor

import "sort"

// CursorSet manages the selections of one view.
// Selections are kept sorted by position and non-overlapping.
type CursorSet struct {
	selections []Selection
}

// NewCursorSetAt creates a cursor set with a single cursor at the given offset.
func NewCursorSetAt(offset ByteOffset) *CursorSet {
	return &CursorSet{selections: []Selection{NewCursorSelection(offset)}}
}

// NewCursorSetFromSlice creates a cursor set from a slice of selections.
// The selections are normalized; an empty slice yields a cursor at 0.
func NewCursorSetFromSlice(selections []Selection) *CursorSet {
	cs := &CursorSet{}
	cs.SetAll(selections)
	return cs
}

// Primary returns the first selection.
func (cs *CursorSet) Primary() Selection {
	if len(cs.selections) == 0 {
		return Selection{}
	}
	return cs.selections[0]
}

// All returns a copy of all selections in document order.
func (cs *CursorSet) All() []Selection {
	out := make([]Selection, len(cs.selections))
	copy(out, cs.selections)
	return out
}

// Count returns the number of selections.
func (cs *CursorSet) Count() int {
	return len(cs.selections)
}

// SetAll replaces all selections.
func (cs *CursorSet) SetAll(sels []Selection) {
	if len(sels) == 0 {
		cs.selections = []Selection{NewCursorSelection(0)}
		return
	}
	cs.selections = make([]Selection, len(sels))
	copy(cs.selections, sels)
	cs.normalize()
}

// HasSelection returns true if any selection is non-empty.
func (cs *CursorSet) HasSelection() bool {
	for _, sel := range cs.selections {
		if !sel.IsEmpty() {
			return true
		}
	}
	return false
}

// Ranges returns the range of every selection in document order.
func (cs *CursorSet) Ranges() []Range {
	ranges := make([]Range, len(cs.selections))
	for i, sel := range cs.selections {
		ranges[i] = sel.Range()
	}
	return ranges
}

// Clamp limits every selection to [0, maxOffset].
func (cs *CursorSet) Clamp(maxOffset ByteOffset) {
	for i, sel := range cs.selections {
		cs.selections[i] = sel.Clamp(maxOffset)
	}
	cs.normalize()
}

// Clone returns an independent copy.
func (cs *CursorSet) Clone() *CursorSet {
	return &CursorSet{selections: cs.All()}
}

// Equals returns true if two cursor sets have the same selections.
func (cs *CursorSet) Equals(other *CursorSet) bool {
	if other == nil || len(cs.selections) != len(other.selections) {
		return false
	}
	for i, sel := range cs.selections {
		if sel != other.selections[i] {
			return false
		}
	}
	return true
}

// normalize sorts selections and merges overlapping ones. Adjacent non-empty
// selections stay separate; identical cursors collapse into one.
func (cs *CursorSet) normalize() {
	if len(cs.selections) <= 1 {
		return
	}

	sort.SliceStable(cs.selections, func(i, j int) bool {
		si, sj := cs.selections[i].Start(), cs.selections[j].Start()
		if si != sj {
			return si < sj
		}
		return cs.selections[i].End() > cs.selections[j].End()
	})

	merged := cs.selections[:1]
	for _, sel := range cs.selections[1:] {
		last := &merged[len(merged)-1]
		switch {
		case sel.Start() < last.End():
			*last = last.Merge(sel)
		case sel.IsEmpty() && last.IsEmpty() && sel.Start() == last.Start():
		default:
			merged = append(merged, sel)
		}
	}
	cs.selections = merged
}
