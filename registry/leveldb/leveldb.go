// Package leveldb provides a URIRegistry persisted in a LevelDB directory.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"ocm.software/open-component-model/artifact/registry"
)

// Backend is the backend name used in metrics and configuration.
const Backend = "leveldb"

// Registry is a URIRegistry stored in a LevelDB database. Names are keys and
// URIs are values.
type Registry struct {
	db *leveldb.DB
}

var _ registry.URIRegistry = (*Registry)(nil)

// New opens or creates the database in the directory path.
func New(path string) (*Registry, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &Registry{db: db}, nil
}

// Close closes the database and releases its file lock.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) Find(_ context.Context, name string) (string, error) {
	value, err := r.db.Get([]byte(name), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return "", registry.NotFound(name)
	case err != nil:
		return "", fmt.Errorf("failed to look up %q: %w", name, err)
	}
	return string(value), nil
}

func (r *Registry) FindAll(ctx context.Context) (map[string]string, error) {
	entries := make(map[string]string)
	it := r.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// string conversion copies the iterator's reused buffers
		entries[string(it.Key())] = string(it.Value())
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *Registry) Register(_ context.Context, name, uri string) error {
	if err := r.db.Put([]byte(name), []byte(uri), nil); err != nil {
		return fmt.Errorf("failed to register %q: %w", name, err)
	}
	return nil
}

func (r *Registry) Unregister(_ context.Context, name string) error {
	if err := r.db.Delete([]byte(name), nil); err != nil {
		return fmt.Errorf("failed to unregister %q: %w", name, err)
	}
	return nil
}
