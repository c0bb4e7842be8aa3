package app

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
)

// OpenFile opens path and returns a new view on it. The document is shared
// when the file is already open.
func (app *Application) OpenFile(path string, opts ...ViewOption) (*View, error) {
	if app.IsShutdown() {
		return nil, ErrShutdown
	}
	doc, err := app.documents.Open(path, app.opts.ReadOnly)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	app.logger.Debug("opened %s", doc.Path)
	return app.NewView(doc, opts...), nil
}

// NewScratch creates a scratch document holding content and a view on it.
func (app *Application) NewScratch(content string, opts ...ViewOption) *View {
	return app.NewView(app.documents.CreateScratch(content), opts...)
}

// NewView creates and registers a view on doc. Commands run from the view
// in the configured working directory, or in the document's directory.
func (app *Application) NewView(doc *Document, opts ...ViewOption) *View {
	if dir := app.Config().WorkingDir; dir != "" {
		opts = append([]ViewOption{WithDir(dir)}, opts...)
	}
	v := NewView(doc, app.eventBus, opts...)

	app.mu.Lock()
	app.views[v.ViewID()] = v
	app.mu.Unlock()
	return v
}

// View returns the open view with the given ID.
func (app *Application) View(id string) (*View, bool) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	v, ok := app.views[id]
	return v, ok
}

// Views returns the open views of doc, or every open view when doc is nil.
func (app *Application) Views(doc *Document) []*View {
	app.mu.RLock()
	defer app.mu.RUnlock()

	var out []*View
	for _, v := range app.views {
		if doc == nil || v.doc == doc {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (app *Application) forgetView(id string) {
	app.mu.Lock()
	delete(app.views, id)
	app.mu.Unlock()
}

// CloseView closes v. A command running from v is cancelled.
func (app *Application) CloseView(v *View) {
	v.Close()
}

// SaveDocument writes doc to its file.
func (app *Application) SaveDocument(doc *Document) error {
	if doc == nil {
		return ErrNoActiveDocument
	}
	if doc.IsScratch() {
		return ErrNoFilePath
	}
	return app.save(doc, doc.Path)
}

// SaveDocumentAs writes doc to path and makes path the document's file.
func (app *Application) SaveDocumentAs(doc *Document, path string) error {
	if doc == nil {
		return ErrNoActiveDocument
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return NewOperationError("save", path, err)
	}
	if err := app.save(doc, abs); err != nil {
		return err
	}
	doc.Path = abs
	doc.Name = filepath.Base(abs)
	return nil
}

func (app *Application) save(doc *Document, path string) error {
	if doc.IsReadOnly() {
		return NewOperationError("save", path, ErrReadOnly)
	}
	if err := os.WriteFile(path, []byte(doc.Content()), 0o644); err != nil {
		return NewOperationError("save", path, err)
	}
	doc.SetModified(false)
	app.logger.Debug("saved %s", path)
	return nil
}

// CloseDocument closes doc and every view on it.
// Returns ErrUnsavedChanges if doc has unsaved changes and force is false.
func (app *Application) CloseDocument(doc *Document, force bool) error {
	if doc == nil {
		return ErrNoActiveDocument
	}
	if doc.IsModified() && !force {
		return ErrUnsavedChanges
	}
	for _, v := range app.Views(doc) {
		v.Close()
	}
	if err := app.documents.Close(doc); err != nil && !errors.Is(err, ErrDocumentNotFound) {
		return NewOperationError("close", doc.Name, err)
	}
	return nil
}

// Quit closes every view and shuts the application down.
// Returns ErrUnsavedChanges if there are unsaved changes and force is false.
func (app *Application) Quit(force bool) error {
	if !force && app.documents.HasDirty() {
		return ErrUnsavedChanges
	}
	for _, v := range app.Views(nil) {
		v.Close()
	}
	return app.Shutdown()
}
