// Package docker loads container image references. Images have no local file
// representation; a resource only carries the validated reference and can
// check its existence against the registry.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	remotecredentials "oras.land/oras-go/v2/registry/remote/credentials"

	"ocm.software/open-component-model/artifact/internal/log"
	"ocm.software/open-component-model/artifact/resource"
)

// Scheme is the location scheme handled by the loader.
const Scheme = "docker"

// Options configures registry access of a Loader.
type Options struct {
	httpClient      *http.Client
	credentialStore remotecredentials.Store
	plainHTTP       bool
}

// Option configures a Loader.
type Option func(*Options)

// WithHTTPClient sets the client used to contact registries.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.httpClient = client
	}
}

// WithCredentialStore sets the store registry credentials are looked up in.
// Without it the docker configuration of the current user is used.
func WithCredentialStore(store remotecredentials.Store) Option {
	return func(o *Options) {
		o.credentialStore = store
	}
}

// WithPlainHTTP contacts registries over plain HTTP.
func WithPlainHTTP(plainHTTP bool) Option {
	return func(o *Options) {
		o.plainHTTP = plainHTTP
	}
}

// Loader loads "docker:" locations. It accepts "docker:ref", "docker://ref"
// and bare references, so it can serve as the fallback of a
// resource.Delegating loader.
type Loader struct {
	options Options
	client  func() (remote.Client, error)
}

var _ resource.Loader = (*Loader)(nil)

// NewLoader returns a docker loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(&l.options)
	}
	l.client = sync.OnceValues(l.newClient)
	return l
}

func (l *Loader) newClient() (remote.Client, error) {
	store := l.options.credentialStore
	if store == nil {
		var err error
		store, err = remotecredentials.NewStoreFromDocker(remotecredentials.StoreOptions{
			DetectDefaultNativeStore: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create docker config store: %w", err)
		}
	}
	httpClient := l.options.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &auth.Client{
		Client:     httpClient,
		Cache:      auth.NewCache(),
		Credential: remotecredentials.Credential(store),
	}, nil
}

func (l *Loader) Name() string {
	return Scheme
}

// Supports reports whether location is a docker location or a bare image reference.
func (l *Loader) Supports(location string) bool {
	_, err := l.reference(location)
	return err == nil
}

// Load validates the reference of location. The registry is not contacted.
func (l *Loader) Load(location string) (resource.Resource, error) {
	raw, err := l.reference(location)
	if err != nil {
		return nil, err
	}
	ref, err := ParseReference(raw)
	if err != nil {
		return nil, err
	}
	return &Resource{raw: raw, ref: ref, loader: l}, nil
}

// reference strips the scheme of location, if any.
func (l *Loader) reference(location string) (string, error) {
	if raw, ok := resource.TrimScheme(location, Scheme); ok {
		return raw, nil
	}
	if resource.IsHierarchical(location) {
		scheme, _ := resource.Scheme(location)
		return "", &resource.UnsupportedSchemeError{Scheme: scheme, Location: location}
	}
	if _, err := ParseReference(location); err != nil {
		return "", err
	}
	return location, nil
}

// Resource is a container image reference.
type Resource struct {
	raw    string
	ref    Reference
	loader *Loader
}

var _ resource.Resource = (*Resource)(nil)

// URI returns "docker:" followed by the reference, whichever form it was loaded from.
func (r *Resource) URI() string {
	return Scheme + ":" + r.raw
}

// Filename is empty, images are not files.
func (r *Resource) Filename() string {
	return ""
}

// Reference returns the parsed image reference.
func (r *Resource) Reference() Reference {
	return r.ref
}

// Exists reports whether the registry knows the reference.
func (r *Resource) Exists(ctx context.Context) (bool, error) {
	_, err := r.Descriptor(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errdef.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Descriptor resolves the reference against the registry.
func (r *Resource) Descriptor(ctx context.Context) (_ ocispec.Descriptor, err error) {
	ref := r.ref.Normalized()
	done := log.Operation(ctx, "resolve image reference", slog.String("reference", ref.String()))
	defer func() { done(err) }()

	client, err := r.loader.client()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	repo := &remote.Repository{
		Reference: ref,
		Client:    client,
		PlainHTTP: r.loader.options.plainHTTP,
	}
	desc, err := repo.Resolve(ctx, ref.Reference)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	log.FromContext(ctx).DebugContext(ctx, "resolved image reference",
		slog.String("mediaType", desc.MediaType), slog.String("digest", desc.Digest.String()))
	return desc, nil
}

// Open always fails with resource.ErrNotMaterializable.
func (r *Resource) Open(context.Context) (io.ReadCloser, error) {
	return nil, fmt.Errorf("%s: %w", r.URI(), resource.ErrNotMaterializable)
}

// File always fails with resource.ErrNotMaterializable.
func (r *Resource) File(context.Context) (string, error) {
	return "", fmt.Errorf("%s: %w", r.URI(), resource.ErrNotMaterializable)
}
