package extcmd

import (
	"fmt"
	"sort"

	"github.com/technocoreai/extcmd/internal/engine/buffer"
)

// ByteOffset is a byte position in a document.
type ByteOffset = buffer.ByteOffset

// Range is a half-open byte range [Start, End).
type Range = buffer.Range

// Mode selects how a session's output is applied.
type Mode int

const (
	// FilterReplace replaces each region with the command's output.
	FilterReplace Mode = iota
	// InsertAtStart inserts the command's output at each region's start.
	InsertAtStart
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case FilterReplace:
		return "filter"
	case InsertAtStart:
		return "insert"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RegionKind tells where a region came from.
type RegionKind int

const (
	// RegionSelection is a user selection.
	RegionSelection RegionKind = iota
	// RegionWholeBuffer is the whole buffer, used when nothing is selected.
	RegionWholeBuffer
	// RegionInsertionPoint is a zero-width cursor position.
	RegionInsertionPoint
)

// String returns the kind name.
func (k RegionKind) String() string {
	switch k {
	case RegionSelection:
		return "selection"
	case RegionWholeBuffer:
		return "whole-buffer"
	case RegionInsertionPoint:
		return "insertion-point"
	default:
		return fmt.Sprintf("RegionKind(%d)", int(k))
	}
}

// Region is a range of the document a job reads from or writes to.
type Region struct {
	Range
	Kind RegionKind
}

// PendingEdit is the output of one completed job.
type PendingEdit struct {
	Region Region
	Mode   Mode
	Text   string
}

// Offset returns where the edit starts.
func (p PendingEdit) Offset() ByteOffset {
	return p.Region.Start
}

// Edit converts p to a buffer edit. FilterReplace replaces the region;
// InsertAtStart inserts at the region's start.
func (p PendingEdit) Edit() buffer.Edit {
	if p.Mode == InsertAtStart {
		return buffer.NewInsert(p.Region.Start, p.Text)
	}
	return buffer.NewEdit(p.Region.Range, p.Text)
}

// sortDescending orders edits by region start, last first. Insertions sort
// before a replacement starting at the same offset.
func sortDescending(edits []PendingEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i].Region, edits[j].Region
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		return a.End > b.End
	})
}

// ResolveRegions computes the regions a session operates on.
//
// FilterReplace uses every non-empty selection, or the whole buffer when
// there is none; with fullLine each region is first widened to whole lines
// and regions that then overlap are merged. InsertAtStart uses every
// selection, empty ones as insertion points. Regions are returned in
// document order.
func ResolveRegions(doc Document, mode Mode, fullLine bool) []Region {
	sels := doc.Selections()
	var regions []Region

	switch mode {
	case InsertAtStart:
		for _, r := range sels {
			kind := RegionSelection
			if r.IsEmpty() {
				kind = RegionInsertionPoint
			}
			regions = append(regions, Region{Range: r, Kind: kind})
		}
	default:
		for _, r := range sels {
			if !r.IsEmpty() {
				regions = append(regions, Region{Range: r, Kind: RegionSelection})
			}
		}
		if len(regions) == 0 {
			regions = []Region{{Range: buffer.NewRange(0, doc.Len()), Kind: RegionWholeBuffer}}
		}
		if fullLine {
			for i := range regions {
				regions[i].Range = doc.FullLine(regions[i].Range)
			}
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Start < regions[j].Start
	})
	if mode == FilterReplace {
		regions = mergeOverlapping(regions)
	}
	return regions
}

func mergeOverlapping(regions []Region) []Region {
	if len(regions) < 2 {
		return regions
	}
	out := regions[:1]
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if r.Start < last.End {
			last.Range = last.Range.Union(r.Range)
			continue
		}
		out = append(out, r)
	}
	return out
}
