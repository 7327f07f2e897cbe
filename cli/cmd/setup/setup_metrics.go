package setup

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/metrics"
)

// Metrics creates the collectors of this invocation in a fresh registry.
func Metrics(cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	cmd.SetContext(ocmctx.WithMetrics(cmd.Context(), reg, m))
	return nil
}

// WriteMetrics writes the collected metrics to the file named by the
// metrics-textfile flag, if set.
func WriteMetrics(cmd *cobra.Command) error {
	flag := cmd.Flags().Lookup(ocmcmd.MetricsTextfileFlag)
	if flag == nil || flag.Value.String() == "" {
		return nil
	}
	gatherer := ocmctx.FromContext(cmd.Context()).Gatherer()
	if gatherer == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(flag.Value.String(), gatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
