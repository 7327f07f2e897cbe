// Package sqlite provides a URIRegistry persisted in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// SQLite driver
	_ "modernc.org/sqlite"

	"ocm.software/open-component-model/artifact/registry"
)

// Backend is the backend name used in metrics and configuration.
const Backend = "sqlite"

const schema = `CREATE TABLE IF NOT EXISTS uri_registry (
	name TEXT PRIMARY KEY NOT NULL,
	uri  TEXT NOT NULL
)`

// Registry is a URIRegistry stored in a SQLite database file.
type Registry struct {
	db *sql.DB
}

var _ registry.URIRegistry = (*Registry)(nil)

// New opens or creates the database at path and ensures the schema exists.
func New(ctx context.Context, path string) (*Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping database: %w", err), db.Close())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create schema: %w", err), db.Close())
	}
	return &Registry{db: db}, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) Find(ctx context.Context, name string) (string, error) {
	var uri string
	err := r.db.QueryRowContext(ctx, `SELECT uri FROM uri_registry WHERE name = ?`, name).Scan(&uri)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", registry.NotFound(name)
	case err != nil:
		return "", fmt.Errorf("failed to look up %q: %w", name, err)
	}
	return uri, nil
}

func (r *Registry) FindAll(ctx context.Context) (_ map[string]string, err error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, uri FROM uri_registry`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	entries := make(map[string]string)
	for rows.Next() {
		var name, uri string
		if err := rows.Scan(&name, &uri); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries[name] = uri
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *Registry) Register(ctx context.Context, name, uri string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uri_registry (name, uri) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET uri = excluded.uri`, name, uri)
	if err != nil {
		return fmt.Errorf("failed to register %q: %w", name, err)
	}
	return nil
}

func (r *Registry) Unregister(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM uri_registry WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to unregister %q: %w", name, err)
	}
	return nil
}
