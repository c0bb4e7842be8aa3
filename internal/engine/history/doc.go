// Package history provides undo/redo for the editor engine.
//
// Every change is recorded as a Command. A BatchCommand applies several
// non-overlapping edits through a single buffer write and is undone as one
// step, which is how the result of an external command appears in the undo
// stack.
package history
