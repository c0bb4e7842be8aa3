package app

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/technocoreai/extcmd/internal/engine"
	"github.com/technocoreai/extcmd/internal/event"
)

// Document represents an open file with its associated editor state.
type Document struct {
	// Path is the absolute file path (empty for scratch buffers).
	Path string

	// Name is the display name (filename or "Untitled").
	Name string

	// Engine is the text buffer and editing engine.
	Engine *engine.Engine

	// ReadOnly indicates the document cannot be edited.
	ReadOnly bool

	modified atomic.Bool
}

// NewDocument creates a document for path holding content.
func NewDocument(path string, content []byte, opts ...engine.Option) *Document {
	name := filepath.Base(path)
	if path == "" {
		name = "Untitled"
	}

	return &Document{
		Path:   path,
		Name:   name,
		Engine: engine.New(append(opts, engine.WithContent(string(content)))...),
	}
}

// BufferID returns the engine's buffer ID.
func (d *Document) BufferID() string {
	return d.Engine.ID()
}

// IsModified returns true if the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified.Load()
}

// SetModified sets the modified flag.
func (d *Document) SetModified(modified bool) {
	d.modified.Store(modified)
}

// IsScratch returns true if this is a scratch buffer (no file path).
func (d *Document) IsScratch() bool {
	return d.Path == ""
}

// IsReadOnly reports whether edits are refused.
func (d *Document) IsReadOnly() bool {
	return d.ReadOnly || d.Engine.IsReadOnly()
}

// Content returns the full document content.
func (d *Document) Content() string {
	return d.Engine.Text()
}

// DocumentManager manages all open documents.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document // key -> document
	byBuffer  map[string]*Document // buffer ID -> document
	active    *Document
	order     []string // open order
	counter   int      // scratch buffer names

	bus event.Bus
}

// NewDocumentManager creates a document manager. Engines of documents it
// opens publish change events on bus when it is non-nil.
func NewDocumentManager(bus event.Bus) *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
		byBuffer:  make(map[string]*Document),
		bus:       bus,
	}
}

func (dm *DocumentManager) engineOptions(readOnly bool) []engine.Option {
	var opts []engine.Option
	if dm.bus != nil {
		opts = append(opts, engine.WithBus(dm.bus))
	}
	if readOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	return opts
}

// Open opens a document from a file. An already open document is returned
// as is.
func (dm *DocumentManager) Open(path string, readOnly bool) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.documents[absPath]; exists {
		dm.active = doc
		return doc, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(absPath, content, dm.engineOptions(readOnly)...)
	doc.ReadOnly = readOnly
	dm.add(absPath, doc)
	return doc, nil
}

// CreateScratch creates a scratch document holding content.
func (dm *DocumentManager) CreateScratch(content string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.counter++
	doc := NewDocument("", []byte(content), dm.engineOptions(false)...)
	if dm.counter > 1 {
		doc.Name = "Untitled-" + strconv.Itoa(dm.counter)
	}
	dm.add(scratchKey(dm.counter), doc)
	return doc
}

func (dm *DocumentManager) add(key string, doc *Document) {
	dm.documents[key] = doc
	dm.byBuffer[doc.BufferID()] = doc
	dm.order = append(dm.order, key)
	dm.active = doc
}

// Close closes a document.
func (dm *DocumentManager) Close(doc *Document) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	key := dm.keyOf(doc)
	if key == "" {
		return ErrDocumentNotFound
	}

	delete(dm.documents, key)
	delete(dm.byBuffer, doc.BufferID())
	for i, k := range dm.order {
		if k == key {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}

	if dm.active == doc {
		dm.active = nil
		if len(dm.order) > 0 {
			dm.active = dm.documents[dm.order[len(dm.order)-1]]
		}
	}
	return nil
}

func (dm *DocumentManager) keyOf(doc *Document) string {
	for k, d := range dm.documents {
		if d == doc {
			return k
		}
	}
	return ""
}

// Active returns the currently active document.
func (dm *DocumentManager) Active() *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.active
}

// SetActive sets the active document.
func (dm *DocumentManager) SetActive(doc *Document) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.active = doc
}

// Get returns a document by absolute path.
func (dm *DocumentManager) Get(path string) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, exists := dm.documents[path]
	return doc, exists
}

// ByBuffer returns the document owning a buffer.
func (dm *DocumentManager) ByBuffer(bufferID string) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, exists := dm.byBuffer[bufferID]
	return doc, exists
}

// All returns all open documents in open order.
func (dm *DocumentManager) All() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.order))
	for _, key := range dm.order {
		docs = append(docs, dm.documents[key])
	}
	return docs
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// HasDirty returns true if any document has unsaved changes.
func (dm *DocumentManager) HasDirty() bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	for _, doc := range dm.documents {
		if doc.IsModified() {
			return true
		}
	}
	return false
}

func scratchKey(n int) string {
	return "::scratch::" + strconv.Itoa(n)
}
