// Package engine provides the document engine that external command results
// are committed into.
//
// An Engine owns one text buffer and its undo history. Selections belong to
// views, so write operations take the CursorSet of the view performing the
// edit along with the view's ID; the engine moves those cursors as part of
// the undoable command and then publishes event.TopicBufferModified.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	e := engine.New(engine.WithContent("3\n1\n2\n"), engine.WithBus(bus))
//	cursors := cursor.NewCursorSetAt(0)
//
//	err := e.ApplyBatch("view-1", cursors, "External Command", []buffer.Edit{
//	    buffer.NewEdit(buffer.NewRange(0, 6), "1\n2\n3\n"),
//	}, nil)
//
//	e.Undo("view-1", cursors) // "3\n1\n2\n"
//
// # Thread Safety
//
// All Engine operations are thread-safe. Writes are serialized; events are
// published after the write lock is released so handlers may read the
// engine freely.
package engine
