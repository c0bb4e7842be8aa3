package buffer

// Snapshot is a read-only view of a buffer at a specific revision.
// It is a value type and safe to share between goroutines.
type Snapshot struct {
	text       string
	revisionID RevisionID
}

// Text returns the full snapshot content.
func (s Snapshot) Text() string {
	return s.text
}

// TextRange returns text in the given byte range, clamped to the snapshot bounds.
func (s Snapshot) TextRange(start, end ByteOffset) string {
	return sliceClamped(s.text, start, end)
}

// Len returns the byte length of the snapshot.
func (s Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.text))
}

// FullLine expands r to whole lines within the snapshot. See Buffer.FullLine.
func (s Snapshot) FullLine(r Range) Range {
	return fullLine(s.text, r)
}

// RevisionID returns the revision the snapshot was taken at.
func (s Snapshot) RevisionID() RevisionID {
	return s.revisionID
}
