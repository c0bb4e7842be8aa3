package extcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRegions(t *testing.T) {
	text := "one\ntwo\nthree\n"
	tests := []struct {
		name     string
		sels     []Range
		mode     Mode
		fullLine bool
		want     []Region
	}{
		{
			name: "filter without selection uses whole buffer",
			sels: []Range{rng(4, 4)},
			mode: FilterReplace,
			want: []Region{{Range: rng(0, 14), Kind: RegionWholeBuffer}},
		},
		{
			name: "filter skips empty selections",
			sels: []Range{rng(0, 0), rng(4, 7), rng(8, 10)},
			mode: FilterReplace,
			want: []Region{{Range: rng(4, 7), Kind: RegionSelection}, {Range: rng(8, 10), Kind: RegionSelection}},
		},
		{
			name:     "full line widens",
			sels:     []Range{rng(5, 6)},
			mode:     FilterReplace,
			fullLine: true,
			want:     []Region{{Range: rng(4, 8), Kind: RegionSelection}},
		},
		{
			name:     "full line merges selections on one line",
			sels:     []Range{rng(4, 5), rng(6, 7)},
			mode:     FilterReplace,
			fullLine: true,
			want:     []Region{{Range: rng(4, 8), Kind: RegionSelection}},
		},
		{
			name:     "full line keeps adjacent lines apart",
			sels:     []Range{rng(0, 1), rng(4, 5)},
			mode:     FilterReplace,
			fullLine: true,
			want:     []Region{{Range: rng(0, 4), Kind: RegionSelection}, {Range: rng(4, 8), Kind: RegionSelection}},
		},
		{
			name: "insert keeps every selection",
			sels: []Range{rng(8, 10), rng(2, 2)},
			mode: InsertAtStart,
			want: []Region{{Range: rng(2, 2), Kind: RegionInsertionPoint}, {Range: rng(8, 10), Kind: RegionSelection}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newFakeDoc(text, tt.sels...)
			assert.Equal(t, tt.want, ResolveRegions(doc, tt.mode, tt.fullLine))
		})
	}
}

func TestSortDescending(t *testing.T) {
	edits := []PendingEdit{
		{Region: Region{Range: rng(0, 1)}, Text: "a"},
		{Region: Region{Range: rng(10, 12)}, Text: "c"},
		{Region: Region{Range: rng(4, 5)}, Text: "b"},
	}
	sortDescending(edits)

	var got []string
	for _, e := range edits {
		got = append(got, e.Text)
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestPendingEditEdit(t *testing.T) {
	r := Region{Range: rng(2, 5), Kind: RegionSelection}

	filter := PendingEdit{Region: r, Mode: FilterReplace, Text: "x"}.Edit()
	assert.Equal(t, rng(2, 5), filter.Range)

	insert := PendingEdit{Region: r, Mode: InsertAtStart, Text: "x"}.Edit()
	assert.Equal(t, rng(2, 2), insert.Range)
	assert.Equal(t, "x", insert.NewText)
}
