package resource

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"
)

// InMemory is a Resource backed by a byte slice. It is used for content that is
// produced in-process, such as generated registry sources.
type InMemory struct {
	uri string

	mu   sync.RWMutex
	data []byte
}

var _ Resource = (*InMemory)(nil)

// NewInMemory returns a resource with the given URI and content.
func NewInMemory(uri string, data []byte) *InMemory {
	return &InMemory{uri: uri, data: bytes.Clone(data)}
}

func (r *InMemory) URI() string {
	return r.uri
}

func (r *InMemory) Filename() string {
	if r.uri == "" {
		return ""
	}
	return path.Base(r.uri)
}

func (r *InMemory) Exists(context.Context) (bool, error) {
	return true, nil
}

func (r *InMemory) Open(context.Context) (io.ReadCloser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return io.NopCloser(bytes.NewReader(bytes.Clone(r.data))), nil
}

func (r *InMemory) File(context.Context) (string, error) {
	return "", ErrNotMaterializable
}

// SetData replaces the content of the resource.
func (r *InMemory) SetData(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = bytes.Clone(data)
}
