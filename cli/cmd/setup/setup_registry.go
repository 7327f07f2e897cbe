package setup

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	v1 "ocm.software/open-component-model/artifact/config/v1"
	"ocm.software/open-component-model/artifact/registry"
	"ocm.software/open-component-model/artifact/registry/leveldb"
	"ocm.software/open-component-model/artifact/registry/sqlite"
)

// Registry opens the configured URI registry and loads its configured
// sources. Unreadable sources are logged; they do not fail the command.
func Registry(cmd *cobra.Command) (registry.URIRegistry, error) {
	ctx := cmd.Context()
	ocmCtx := ocmctx.FromContext(ctx)
	cfg := ocmCtx.Configuration().Registry
	backend := cfg.BackendOrDefault()

	var reg registry.URIRegistry
	switch backend {
	case v1.BackendMemory:
		reg = registry.NewInMemory()
	case v1.BackendSQLite:
		db, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open registry: %w", err)
		}
		ctx = ocmctx.WithCloser(ctx, db)
		reg = db
	case v1.BackendLevelDB:
		db, err := leveldb.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open registry: %w", err)
		}
		ctx = ocmctx.WithCloser(ctx, db)
		reg = db
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
	cmd.SetContext(ctx)
	reg = registry.Instrument(reg, backend, ocmCtx.Metrics())

	if cfg != nil && len(cfg.Sources) > 0 {
		populator := registry.NewPopulator(ocmCtx.Loader())
		written, err := populator.PopulateRegistry(ctx, cfg.Overwrite, reg, cfg.Sources...)
		if err != nil {
			slog.WarnContext(ctx, "could not load all registry sources", slog.String("error", err.Error()))
		}
		slog.DebugContext(ctx, "loaded registry sources", slog.Int("written", len(written)))
	}
	return reg, nil
}
