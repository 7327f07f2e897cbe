package setup

import (
	"log/slog"

	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/httpclient"
)

// HTTPConfig sets up the HTTP client configuration.
func HTTPConfig(cmd *cobra.Command) {
	cfg := ocmctx.FromContext(cmd.Context()).Configuration()
	httpCfg := httpclient.Merge(httpclient.DefaultConfig(), cfg.HTTP)

	// CLI flags take precedence over the config file values.
	overrideFromFlag(cmd, ocmcmd.TimeoutFlag, &httpCfg.Timeout)
	overrideFromFlag(cmd, ocmcmd.TCPDialTimeoutFlag, &httpCfg.TCPDialTimeout)
	overrideFromFlag(cmd, ocmcmd.ResponseHeaderTimeoutFlag, &httpCfg.ResponseHeaderTimeout)

	cmd.SetContext(ocmctx.WithHTTPConfig(cmd.Context(), httpCfg))
}

// overrideFromFlag overrides a timeout field from a CLI flag if it was explicitly set.
func overrideFromFlag(cmd *cobra.Command, flagName string, target **httpclient.Timeout) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil || !flag.Changed {
		return
	}

	ctx := cmd.Context()

	d, err := cmd.Flags().GetDuration(flagName)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse flag value",
			slog.String("flag", flagName),
			slog.String("error", err.Error()))
		return
	}

	original := "<nil>"
	if *target != nil {
		original = (*target).String()
	}

	slog.DebugContext(ctx, "overriding timeout from CLI flag",
		slog.String("flag", flagName),
		slog.String("original", original),
		slog.String("new", d.String()))

	*target = httpclient.NewTimeout(d)
}
