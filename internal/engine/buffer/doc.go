// Package buffer provides the thread-safe text buffer that external command
// results are spliced into.
//
// The buffer stores its content as an immutable string that is swapped on
// every write, which makes Snapshot free and lets a command session capture
// its input text without holding a lock while the command runs.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("3\n1\n2\n")
//	snap := buf.Snapshot()
//
//	// ... run a command over snap.TextRange(0, snap.Len()) ...
//
//	err := buf.ApplyEdits([]buffer.Edit{
//	    buffer.NewEdit(buffer.NewRange(0, 6), "1\n2\n3\n"),
//	})
//
// Position Types:
//
//   - ByteOffset: raw byte position in the buffer
//   - Range: half-open byte range [Start, End)
//   - Point: line and column position (0-indexed, column in bytes)
//
// Thread Safety:
//
// All Buffer methods are thread-safe. ApplyEdits applies a whole batch under
// a single write lock, so readers never observe a partially applied batch.
package buffer
