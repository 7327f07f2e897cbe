package registry

import (
	"context"
	"errors"

	"ocm.software/open-component-model/artifact/metrics"
)

// Instrumented records lookups and writes of the wrapped registry.
type Instrumented struct {
	URIRegistry
	backend string
	metrics *metrics.Metrics
}

// Instrument wraps r so that Find and Register are counted under backend.
// A nil m returns r unchanged.
func Instrument(r URIRegistry, backend string, m *metrics.Metrics) URIRegistry {
	if m == nil {
		return r
	}
	return &Instrumented{URIRegistry: r, backend: backend, metrics: m}
}

func (i *Instrumented) Find(ctx context.Context, name string) (string, error) {
	uri, err := i.URIRegistry.Find(ctx, name)
	if err == nil || errors.Is(err, ErrEntryNotFound) {
		i.metrics.RecordRegistryLookup(i.backend, err == nil)
	}
	return uri, err
}

func (i *Instrumented) Register(ctx context.Context, name, uri string) error {
	if err := i.URIRegistry.Register(ctx, name, uri); err != nil {
		return err
	}
	i.metrics.RecordRegistryWrites(i.backend, 1)
	return nil
}
