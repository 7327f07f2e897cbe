package resource

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"ocm.software/open-component-model/artifact/internal/log"
)

// Delegating is a Loader that dispatches a location to the loader registered
// for its scheme. Lookup is by exact scheme key, so the order in which loaders
// were registered never matters and two loaders cannot compete for a scheme.
type Delegating struct {
	loaders  map[string]Loader
	fallback Loader
}

var _ Loader = (*Delegating)(nil)

// DelegatingOption configures a Delegating loader.
type DelegatingOption func(*Delegating)

// WithFallback sets a loader for locations that carry no registered scheme and
// are not written in hierarchical "scheme://" form. A typical fallback is the
// docker loader, so that bare image references like "repo/image:tag" resolve.
func WithFallback(loader Loader) DelegatingOption {
	return func(d *Delegating) {
		d.fallback = loader
	}
}

// WithLoader registers loader for scheme, replacing any previous registration.
func WithLoader(scheme string, loader Loader) DelegatingOption {
	return func(d *Delegating) {
		d.loaders[strings.ToLower(scheme)] = loader
	}
}

// NewDelegating creates a Delegating loader from a scheme to loader mapping.
// Scheme keys are matched case-insensitively.
func NewDelegating(loaders map[string]Loader, opts ...DelegatingOption) *Delegating {
	d := &Delegating{loaders: make(map[string]Loader, len(loaders))}
	for scheme, loader := range loaders {
		d.loaders[strings.ToLower(scheme)] = loader
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schemes returns the registered schemes in sorted order.
func (d *Delegating) Schemes() []string {
	return slices.Sorted(maps.Keys(d.loaders))
}

// LoaderFor returns the loader responsible for location.
func (d *Delegating) LoaderFor(location string) (Loader, error) {
	scheme, ok := Scheme(location)
	if ok {
		if loader, registered := d.loaders[scheme]; registered {
			return loader, nil
		}
	}
	if d.fallback != nil && !IsHierarchical(location) {
		return d.fallback, nil
	}
	return nil, &UnsupportedSchemeError{Scheme: scheme, Location: location}
}

// Supports reports whether a loader is available for location.
func (d *Delegating) Supports(location string) bool {
	_, err := d.LoaderFor(location)
	return err == nil
}

// Load forwards location to the loader registered for its scheme.
func (d *Delegating) Load(location string) (Resource, error) {
	loader, err := d.LoaderFor(location)
	if err != nil {
		return nil, err
	}
	log.Base.Debug("delegating resource load", log.LocationAttr(location), slog.String("loader", loaderName(loader)))
	return loader.Load(location)
}

func loaderName(loader Loader) string {
	if named, ok := loader.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unnamed"
}
