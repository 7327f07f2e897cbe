package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/magiconair/properties"

	"ocm.software/open-component-model/artifact/internal/log"
	"ocm.software/open-component-model/artifact/resource"
)

// maxSourceSize bounds the size of a single properties source.
const maxSourceSize = 8 << 20

// Populator loads registry entries from properties sources.
type Populator struct {
	loader resource.Loader
}

// NewPopulator returns a populator that resolves source locations with loader.
func NewPopulator(loader resource.Loader) *Populator {
	return &Populator{loader: loader}
}

// PopulateRegistry reads every source location as "name=uri" properties and
// registers the entries in reg.
//
// Values that are not absolute URIs are skipped. With overwrite set every
// valid entry is written, otherwise only names not yet present are. The
// returned map holds exactly the entries written by this call.
//
// A source that cannot be read does not stop the remaining sources from being
// processed; its error is part of the returned joined error.
func (p *Populator) PopulateRegistry(ctx context.Context, overwrite bool, reg URIRegistry, locations ...string) (_ map[string]string, err error) {
	done := log.Operation(ctx, "populate registry", slog.Bool("overwrite", overwrite), slog.Int("sources", len(locations)))
	defer func() { done(err) }()

	written := make(map[string]string)
	var errs []error
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		props, err := p.read(ctx, location)
		if err != nil {
			log.FromContext(ctx).WarnContext(ctx, "skipping unreadable registry source", log.LocationAttr(location), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if err := populate(ctx, overwrite, reg, props, written); err != nil {
			errs = append(errs, fmt.Errorf("failed to populate registry from %s: %w", location, err))
		}
	}
	return written, errors.Join(errs...)
}

func populate(ctx context.Context, overwrite bool, reg URIRegistry, props *properties.Properties, written map[string]string) error {
	logger := log.FromContext(ctx)
	for _, name := range props.Keys() {
		uri, _ := props.Get(name)
		if err := resource.ValidateURI(uri); err != nil {
			logger.DebugContext(ctx, "skipping registry entry", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		if !overwrite {
			_, err := reg.Find(ctx, name)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, ErrEntryNotFound):
				return err
			}
		}
		if err := reg.Register(ctx, name, uri); err != nil {
			return err
		}
		written[name] = uri
	}
	return nil
}

func (p *Populator) read(ctx context.Context, location string) (*properties.Properties, error) {
	res, err := p.loader.Load(location)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry source %s: %w", location, err)
	}
	rc, err := res.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry source %s: %w", location, err)
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxSourceSize+1))
	if err = errors.Join(err, rc.Close()); err != nil {
		return nil, fmt.Errorf("failed to read registry source %s: %w", location, err)
	}
	if len(data) > maxSourceSize {
		return nil, fmt.Errorf("registry source %s exceeds %d bytes", location, maxSourceSize)
	}
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry source %s: %w", location, err)
	}
	return props, nil
}
