// Package cursor provides selection management for the editor engine.
//
// A Selection is an anchor/head pair; when Anchor == Head it is a plain
// cursor. A CursorSet holds every selection of a view, kept sorted by start
// offset with overlapping selections merged, so callers can rely on
// document order and disjointness.
package cursor
