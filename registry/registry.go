// Package registry maps symbolic names to artifact locations.
//
// A [URIRegistry] stores name to URI entries. The in-memory registry in this
// package is the default; persistent backends live in the sqlite and leveldb
// subpackages. A [Populator] bulk loads entries from properties sources.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/gobwas/glob"
)

// ErrEntryNotFound is returned by Find for names that are not registered.
var ErrEntryNotFound = errors.New("registry entry not found")

// URIRegistry stores symbolic name to URI mappings.
type URIRegistry interface {
	// Find returns the URI registered for name or an error matching
	// ErrEntryNotFound.
	Find(ctx context.Context, name string) (string, error)
	// FindAll returns a snapshot of all entries.
	FindAll(ctx context.Context) (map[string]string, error)
	// Register stores uri under name, replacing an existing entry.
	Register(ctx context.Context, name, uri string) error
	// Unregister removes name. Removing an absent name is not an error.
	Unregister(ctx context.Context, name string) error
}

// NotFound returns an error for a missing name that matches ErrEntryNotFound.
func NotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
}

// InMemory is a URIRegistry held in process memory.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ URIRegistry = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]string)}
}

func (r *InMemory) Find(_ context.Context, name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uri, ok := r.entries[name]
	if !ok {
		return "", NotFound(name)
	}
	return uri, nil
}

func (r *InMemory) FindAll(context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entries), nil
}

func (r *InMemory) Register(_ context.Context, name, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = uri
	return nil
}

func (r *InMemory) Unregister(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
	return nil
}

// Filter returns the entries whose names match the glob pattern. An empty
// pattern matches everything.
func Filter(entries map[string]string, pattern string) (map[string]string, error) {
	if pattern == "" {
		return maps.Clone(entries), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	filtered := make(map[string]string)
	for name, uri := range entries {
		if g.Match(name) {
			filtered[name] = uri
		}
	}
	return filtered, nil
}
