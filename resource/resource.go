// Package resource defines the contract shared by all artifact loaders: a
// [Resource] is a handle to byte content addressed by a URI that can be
// materialized to a local file on demand, and a [Loader] turns a location
// string into such a handle.
//
// Loaders for individual addressing schemes live in their own packages
// (maven, docker, download, filesystem). [Delegating] dispatches a location to
// the loader registered for its scheme.
package resource

import (
	"context"
	"io"
)

// Resource is a handle to artifact content.
//
// Creating a Resource never performs I/O. Content is fetched lazily by File or
// Open, and implementations memoize the materialized file so that repeated
// calls return the same path without fetching again.
type Resource interface {
	// URI returns the canonical location of the resource, e.g. "maven:g:a:jar:1.0"
	// or "docker:repo/image:tag".
	URI() string

	// Filename returns the file name of the content, or an empty string if the
	// resource has no natural file name.
	Filename() string

	// Exists reports whether the content is available. A resource that cannot be
	// found reports false without an error; other failures are returned.
	Exists(ctx context.Context) (bool, error)

	// Open returns a reader for the content. The caller must close it.
	Open(ctx context.Context) (io.ReadCloser, error)

	// File materializes the content to a local file and returns its path.
	// Resources that cannot be represented as a file return ErrNotMaterializable.
	File(ctx context.Context) (string, error)
}

// Loader creates resources for locations of the schemes it supports.
type Loader interface {
	// Supports reports whether the loader handles the given location.
	Supports(location string) bool
	// Load returns a resource for location. Load does not access the content.
	Load(location string) (Resource, error)
}

// LoaderFunc adapts a function to a Loader that supports every location.
type LoaderFunc func(location string) (Resource, error)

func (f LoaderFunc) Supports(string) bool { return true }

func (f LoaderFunc) Load(location string) (Resource, error) {
	return f(location)
}
