package app

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/technocoreai/extcmd/internal/engine"
	"github.com/technocoreai/extcmd/internal/engine/cursor"
	"github.com/technocoreai/extcmd/internal/event"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// View shows a document with its own selections. It is the handle external
// commands operate on.
//
// Selection changes and Commit are expected on the main thread; the status
// and panel methods may be called from any goroutine.
type View struct {
	id  string
	doc *Document
	bus event.Bus
	dir string

	mu      sync.Mutex
	cursors *cursor.CursorSet
	status  map[string]string
	panels  map[string][]string
	closed  bool

	onStatus func(key, text string)
	onPanel  func(panel string, messages []string)
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithDir sets the working directory for commands run from the view.
func WithDir(dir string) ViewOption {
	return func(v *View) { v.dir = dir }
}

// WithStatusHook registers fn to observe status changes. An erased entry is
// reported with empty text.
func WithStatusHook(fn func(key, text string)) ViewOption {
	return func(v *View) { v.onStatus = fn }
}

// WithPanelHook registers fn to observe error panel output.
func WithPanelHook(fn func(panel string, messages []string)) ViewOption {
	return func(v *View) { v.onPanel = fn }
}

// NewView creates a view on doc with a cursor at offset 0.
func NewView(doc *Document, bus event.Bus, opts ...ViewOption) *View {
	v := &View{
		id:      uuid.NewString(),
		doc:     doc,
		bus:     bus,
		cursors: cursor.NewCursorSetAt(0),
		status:  make(map[string]string),
		panels:  make(map[string][]string),
	}
	if doc.Path != "" {
		v.dir = filepath.Dir(doc.Path)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Document returns the document shown in the view.
func (v *View) Document() *Document { return v.doc }

// BufferID returns the document's buffer ID.
func (v *View) BufferID() string { return v.doc.BufferID() }

// ViewID returns the view ID.
func (v *View) ViewID() string { return v.id }

// Text returns the text of r.
func (v *View) Text(r engine.Range) string {
	return v.doc.Engine.TextRange(r.Start, r.End)
}

// Len returns the buffer length in bytes.
func (v *View) Len() engine.ByteOffset { return v.doc.Engine.Len() }

// FullLine widens r to whole lines.
func (v *View) FullLine(r engine.Range) engine.Range { return v.doc.Engine.FullLine(r) }

// ReadOnly reports whether the document refuses edits.
func (v *View) ReadOnly() bool { return v.doc.IsReadOnly() }

// Dir is the working directory for commands.
func (v *View) Dir() string { return v.dir }

// Selections returns the view's selection ranges in document order.
func (v *View) Selections() []engine.Range {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursors.Ranges()
}

// Cursors returns the view's selections in document order.
func (v *View) Cursors() []engine.Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursors.All()
}

// SetSelections replaces the view's selections and publishes
// TopicSelectionChanged.
func (v *View) SetSelections(sels []engine.Selection) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.cursors.SetAll(sels)
	v.cursors.Clamp(v.doc.Engine.Len())
	v.mu.Unlock()

	v.publish(event.NewEvent(event.TopicSelectionChanged,
		event.SelectionChanged{BufferID: v.BufferID(), ViewID: v.id}, "view"))
	return nil
}

// Select replaces the view's selections with forward selections over ranges.
func (v *View) Select(ranges ...engine.Range) error {
	sels := make([]engine.Selection, len(ranges))
	for i, r := range ranges {
		sels[i] = cursor.NewRangeSelection(r)
	}
	return v.SetSelections(sels)
}

// Insert types text at every cursor as one undo step.
func (v *View) Insert(text string) error {
	return v.apply("Insert", func(sels []engine.Selection) []engine.Edit {
		edits := make([]engine.Edit, len(sels))
		for i, s := range sels {
			edits[len(sels)-1-i] = engine.Edit{Range: s.Range(), NewText: text}
		}
		return edits
	}, func(results []engine.EditResult) []engine.Selection {
		out := make([]engine.Selection, len(results))
		for i, r := range results {
			out[i] = cursor.NewCursorSelection(r.NewRange.End)
		}
		return out
	})
}

// Undo reverts the last edit of the document.
func (v *View) Undo() error {
	return v.withCursors(func(cs *cursor.CursorSet) error {
		return v.doc.Engine.Undo(v.id, cs)
	})
}

// Redo re-applies the last undone edit.
func (v *View) Redo() error {
	return v.withCursors(func(cs *cursor.CursorSet) error {
		return v.doc.Engine.Redo(v.id, cs)
	})
}

// Close closes the view and publishes TopicViewClosed.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.publish(event.NewEvent(event.TopicViewClosed,
		event.ViewClosed{BufferID: v.BufferID(), ViewID: v.id}, "view"))
}

// IsClosed reports whether Close was called.
func (v *View) IsClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// SetStatus shows text in the view's status area under key.
func (v *View) SetStatus(key, text string) {
	v.mu.Lock()
	v.status[key] = text
	hook := v.onStatus
	v.mu.Unlock()
	if hook != nil {
		hook(key, text)
	}
}

// EraseStatus removes the status entry under key.
func (v *View) EraseStatus(key string) {
	v.mu.Lock()
	delete(v.status, key)
	hook := v.onStatus
	v.mu.Unlock()
	if hook != nil {
		hook(key, "")
	}
}

// Status returns the status entry under key.
func (v *View) Status(key string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	text, ok := v.status[key]
	return text, ok
}

// ShowErrors replaces the contents of the named output panel.
func (v *View) ShowErrors(panel string, messages []string) {
	v.mu.Lock()
	v.panels[panel] = append([]string(nil), messages...)
	hook := v.onPanel
	v.mu.Unlock()
	if hook != nil {
		hook(panel, messages)
	}
}

// Panel returns the contents of the named output panel.
func (v *View) Panel(panel string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.panels[panel]...)
}

// withCursors runs fn on a copy of the view's cursors and installs the copy
// when fn succeeds. The engine publishes change events from inside fn, so
// the view lock is not held while it runs.
func (v *View) withCursors(fn func(cs *cursor.CursorSet) error) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	cs := v.cursors.Clone()
	v.mu.Unlock()

	if err := fn(cs); err != nil {
		return err
	}

	v.mu.Lock()
	v.cursors = cs
	v.mu.Unlock()
	return nil
}

func (v *View) apply(name string, edits func([]engine.Selection) []engine.Edit,
	after func([]engine.EditResult) []engine.Selection) error {
	return v.withCursors(func(cs *cursor.CursorSet) error {
		return v.doc.Engine.ApplyBatch(v.id, cs, name, edits(cs.All()), after)
	})
}

func (v *View) publish(ev any) {
	if v.bus == nil {
		return
	}
	_ = v.bus.Publish(context.Background(), ev)
}

var (
	_ extcmd.Document       = (*View)(nil)
	_ extcmd.StatusReporter = (*View)(nil)
	_ extcmd.ErrorPanel     = (*View)(nil)
)
