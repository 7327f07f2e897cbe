package hooks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/artifact/cli/cmd/setup"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/log"
)

// PreRunE sets up the logger, configuration and loaders for all cli commands.
func PreRunE(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)

	ocmctx.Register(cmd)

	if err := setup.Config(cmd); err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	setup.HTTPConfig(cmd)
	if err := setup.Metrics(cmd); err != nil {
		return fmt.Errorf("could not setup metrics: %w", err)
	}
	if err := setup.Loaders(cmd); err != nil {
		return fmt.Errorf("could not setup loaders: %w", err)
	}

	if parent := cmd.Parent(); parent != nil {
		cmd.SetOut(parent.OutOrStdout())
		cmd.SetErr(parent.ErrOrStderr())
	}

	return nil
}

// PostRun writes collected metrics and releases resources opened for cmd. It
// runs whether or not the command succeeded.
func PostRun(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	return errors.Join(
		setup.WriteMetrics(cmd),
		ocmctx.FromContext(cmd.Context()).Close(),
	)
}
