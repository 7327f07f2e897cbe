package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"ocm.software/open-component-model/artifact/resource"
)

// Loader loads "maven:" locations. Both "maven:g:a:v" and "maven://g:a:v" are
// accepted and normalized to the canonical coordinate URI.
type Loader struct {
	resolver *Resolver
}

var _ resource.Loader = (*Loader)(nil)

// NewLoader returns a loader resolving coordinates with resolver.
func NewLoader(resolver *Resolver) *Loader {
	return &Loader{resolver: resolver}
}

func (l *Loader) Name() string {
	return loaderName
}

func (l *Loader) Supports(location string) bool {
	_, ok := resource.TrimScheme(location, Scheme)
	return ok
}

// Load parses the coordinate of location. The artifact is not resolved until
// the content of the resource is accessed.
func (l *Loader) Load(location string) (resource.Resource, error) {
	rest, ok := resource.TrimScheme(location, Scheme)
	if !ok {
		scheme, _ := resource.Scheme(location)
		return nil, &resource.UnsupportedSchemeError{Scheme: scheme, Location: location}
	}
	c, err := ParseCoordinate(rest)
	if err != nil {
		return nil, err
	}
	return NewResource(c, l.resolver), nil
}

// Resource is an artifact addressed by a coordinate.
type Resource struct {
	coordinate Coordinate
	resolver   *Resolver

	mu   sync.Mutex
	file string
}

var _ resource.Resource = (*Resource)(nil)

// NewResource returns a resource for c.
func NewResource(c Coordinate, resolver *Resolver) *Resource {
	return &Resource{coordinate: c, resolver: resolver}
}

func (r *Resource) URI() string {
	return r.coordinate.URI()
}

func (r *Resource) Filename() string {
	return r.coordinate.Filename()
}

// Coordinate returns the coordinate of the resource.
func (r *Resource) Coordinate() Coordinate {
	return r.coordinate
}

// Exists resolves the artifact and reports whether it could be found.
func (r *Resource) Exists(ctx context.Context) (bool, error) {
	_, err := r.File(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrArtifactNotFound), errors.Is(err, ErrOffline), errors.Is(err, ErrNoVersionsFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *Resource) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := r.File(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	return f, nil
}

// File resolves the artifact and returns its path in the local repository.
// The path is memoized until Invalidate is called.
func (r *Resource) File(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != "" {
		return r.file, nil
	}
	file, err := r.resolver.Resolve(ctx, r.coordinate)
	if err != nil {
		return "", err
	}
	r.file = file
	return file, nil
}

// Versions lists the versions matching the coordinate's version range.
func (r *Resource) Versions(ctx context.Context) ([]string, error) {
	return r.resolver.ListVersions(ctx, r.coordinate)
}

// Invalidate removes the cached artifact so that the next access downloads it again.
func (r *Resource) Invalidate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file := r.file
	r.file = ""
	if file == "" {
		return r.resolver.Invalidate(r.coordinate)
	}
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to invalidate %s: %w", file, err)
	}
	return nil
}
