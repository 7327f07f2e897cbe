package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/artifact/cli/cmd/configuration"
	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	"ocm.software/open-component-model/artifact/cli/cmd/registry"
	"ocm.software/open-component-model/artifact/cli/cmd/resolve"
	"ocm.software/open-component-model/artifact/cli/cmd/setup/hooks"
	"ocm.software/open-component-model/artifact/cli/cmd/version"
	"ocm.software/open-component-model/artifact/cli/cmd/versions"
	"ocm.software/open-component-model/artifact/cli/internal/flags/log"
)

// Execute runs the command tree and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := Run(New()); err != nil {
		os.Exit(1)
	}
}

// Run executes root and runs the post-run hook of the executed command even
// if it failed.
func Run(root *cobra.Command) error {
	executed, err := root.ExecuteC()
	return errors.Join(err, hooks.PostRun(executed))
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact [sub-command]",
		Short: "Resolve artifacts from maven repositories, image registries, URLs and files",
		Long: `The artifact command line client turns artifact locations into local files.

Maven coordinates are resolved against a local repository and remote
repositories, http(s) URLs are downloaded into a cache, image references are
validated and checked against their registry. A URI registry maps symbolic
names to locations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: hooks.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	configuration.RegisterConfigFlag(cmd)

	cmd.PersistentFlags().Bool(ocmcmd.OfflineFlag, false, `Resolve from local caches only, overriding the config file value.`)
	cmd.PersistentFlags().String(ocmcmd.MetricsTextfileFlag, "", `Write resolution metrics in the Prometheus text format to this file on exit.`)
	cmd.PersistentFlags().Duration(ocmcmd.TimeoutFlag, 0, `HTTP client timeout, overriding the config file value (e.g. "30s", "5m"). Use "0" to disable the timeout.`)
	cmd.PersistentFlags().Duration(ocmcmd.TCPDialTimeoutFlag, 0, `TCP dial timeout for establishing connections (e.g. "30s"). Overrides config file value.`)
	cmd.PersistentFlags().Duration(ocmcmd.ResponseHeaderTimeoutFlag, 0, `HTTP response header timeout (e.g. "10s"). Overrides config file value.`)
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(resolve.New())
	cmd.AddCommand(versions.New())
	cmd.AddCommand(registry.New())
	cmd.AddCommand(configuration.New())
	cmd.AddCommand(version.New())
	return cmd
}
