// Package filesystem loads "file:" locations.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"ocm.software/open-component-model/artifact/resource"
)

// Scheme is the location scheme handled by the loader.
const Scheme = "file"

// Loader maps "file:" URLs to local paths.
type Loader struct{}

var _ resource.Loader = Loader{}

// NewLoader returns a filesystem loader.
func NewLoader() Loader {
	return Loader{}
}

func (Loader) Name() string {
	return Scheme
}

func (Loader) Supports(location string) bool {
	scheme, ok := resource.Scheme(location)
	return ok && scheme == Scheme
}

// Load converts location to a local path. The path is not accessed.
func (l Loader) Load(location string) (resource.Resource, error) {
	if !l.Supports(location) {
		scheme, _ := resource.Scheme(location)
		return nil, &resource.UnsupportedSchemeError{Scheme: scheme, Location: location}
	}
	p, err := localPath(location)
	if err != nil {
		return nil, err
	}
	return &Resource{location: location, path: p}, nil
}

// localPath accepts file:///abs/path, file://localhost/abs/path and the
// opaque file:relative/path form.
func localPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %w", resource.ErrInvalidURI, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: %q refers to remote host %q", resource.ErrInvalidURI, location, u.Host)
	}
	p := u.Path
	if u.Opaque != "" {
		if p, err = url.PathUnescape(u.Opaque); err != nil {
			return "", fmt.Errorf("%w: %w", resource.ErrInvalidURI, err)
		}
	}
	if p == "" {
		return "", fmt.Errorf("%w: %q has no path", resource.ErrInvalidURI, location)
	}
	return filepath.FromSlash(p), nil
}

// Resource is a local file.
type Resource struct {
	location string
	path     string
}

var _ resource.Resource = (*Resource)(nil)

// URI returns the location unchanged.
func (r *Resource) URI() string {
	return r.location
}

func (r *Resource) Filename() string {
	return filepath.Base(r.path)
}

// Path returns the local path of the resource.
func (r *Resource) Path() string {
	return r.path
}

func (r *Resource) Exists(context.Context) (bool, error) {
	info, err := os.Stat(r.path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", r.path, err)
	}
}

func (r *Resource) Open(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	return f, nil
}

// File returns the local path after checking that it refers to a regular file.
func (r *Resource) File(context.Context) (string, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", r.path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", r.path)
	}
	return r.path, nil
}
