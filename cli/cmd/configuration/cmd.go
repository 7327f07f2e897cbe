package configuration

import (
	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/file"
)

// RegisterConfigFlag adds the config flag to cmd.
func RegisterConfigFlag(cmd *cobra.Command) {
	file.Var(cmd.PersistentFlags(), ocmcmd.ConfigFlag, "", `configuration file (defaults to $XDG_CONFIG_HOME/artifact/config.yaml)`)
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "config",
		Short:             "Inspect the configuration",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:               "show",
		Short:             "Print the effective configuration as YAML",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ocmctx.FromContext(cmd.Context()).Configuration().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
