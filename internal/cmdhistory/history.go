// Package cmdhistory keeps the command lines recently run, most recent
// first, and persists them between runs.
package cmdhistory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

// DefaultSize is used when a size of zero is given.
const DefaultSize = 100

// History is a bounded, deduplicated list of command lines.
//
// History is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []string
	size    int
	path    string
}

// file is the on-disk format.
type file struct {
	Commands []string `yaml:"commands"`
}

// New returns an empty in-memory history.
func New(size int) *History {
	if size <= 0 {
		size = DefaultSize
	}
	return &History{size: size}
}

// Open loads the history stored at path. A missing file yields an empty
// history that Save will create.
func Open(path string, size int) (*History, error) {
	h := New(size)
	h.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cmdhistory: read %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cmdhistory: parse %s: %w", path, err)
	}
	for i := len(f.Commands) - 1; i >= 0; i-- {
		h.add(f.Commands[i])
	}
	return h, nil
}

// Add records cmdline as the most recent entry. Empty lines are ignored and
// an existing identical entry moves to the front.
func (h *History) Add(cmdline string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.add(cmdline)
}

func (h *History) add(cmdline string) {
	if cmdline == "" {
		return
	}
	for i, e := range h.entries {
		if e == cmdline {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append([]string{cmdline}, h.entries...)
	if len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

// Resize changes the bound, dropping the oldest entries that no longer fit.
// A size of zero or less selects DefaultSize.
func (h *History) Resize(size int) {
	if size <= 0 {
		size = DefaultSize
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.size = size
	if len(h.entries) > size {
		h.entries = h.entries[:size]
	}
}

// Entries returns all entries, most recent first.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Search returns entries matching query by fuzzy match, best first. Equal
// scores keep recency order. An empty query returns every entry.
func (h *History) Search(query string) []string {
	entries := h.Entries()
	if query == "" {
		return entries
	}

	matches := fuzzy.Find(query, entries)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

// Complete returns the best match for prefix, preferring the most recent
// entry that starts with it and falling back to fuzzy search.
func (h *History) Complete(prefix string) (string, bool) {
	entries := h.Entries()
	for _, e := range entries {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return e, true
		}
	}
	if found := h.Search(prefix); len(found) > 0 {
		return found[0], true
	}
	return "", false
}

// Save writes the history to its file. It is a no-op for in-memory
// histories.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}

	data, err := yaml.Marshal(file{Commands: h.Entries()})
	if err != nil {
		return fmt.Errorf("cmdhistory: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("cmdhistory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".history-*")
	if err != nil {
		return fmt.Errorf("cmdhistory: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cmdhistory: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cmdhistory: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cmdhistory: %w", err)
	}
	return nil
}
