package setup

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/file"
	v1 "ocm.software/open-component-model/artifact/config/v1"
	"ocm.software/open-component-model/artifact/maven"
)

// Config loads the configuration file named by the config flag, or the
// default configuration file, and applies flag overrides.
func Config(cmd *cobra.Command) error {
	flag, changed, err := file.Get(cmd.Flags(), ocmcmd.ConfigFlag)
	if err != nil {
		return err
	}

	var cfg *v1.Config
	if changed {
		if !flag.Exists() {
			return fmt.Errorf("configuration file %q does not exist", flag.String())
		}
		cfg, err = v1.Load(flag.String())
	} else {
		cfg, err = v1.LoadDefault()
	}
	if err != nil {
		return err
	}

	offline, err := cmd.Flags().GetBool(ocmcmd.OfflineFlag)
	if err != nil {
		return err
	}
	if offline {
		if cfg.Maven == nil {
			cfg.Maven = &maven.Properties{}
		}
		cfg.Maven.Offline = true
		slog.DebugContext(cmd.Context(), "offline mode enabled from CLI flag")
	}

	cmd.SetContext(ocmctx.WithConfiguration(cmd.Context(), cfg))
	return nil
}
