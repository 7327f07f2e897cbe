package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/artifact/cli/internal/flags/enum"
)

const (
	FlagFormat            = "format"
	FlagFormatShortHand   = "f"
	FlagFormatShort       = "short"
	FlagFormatGoBuildInfo = "gobuildinfo"
)

var BuildVersion = "n/a"

// UserAgent identifies the CLI in outgoing HTTP requests.
func UserAgent() string {
	v := BuildVersion
	if v == "n/a" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			v = info.Main.Version
		}
	}
	return "artifact-cli/" + v
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Retrieve the version of the artifact CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := enum.Get(cmd.Flags(), FlagFormat)
			if err != nil {
				return err
			}
			ver, ok := debug.ReadBuildInfo()
			if !ok {
				return fmt.Errorf("no build info available")
			}
			if BuildVersion != "n/a" {
				// Override the version if specified
				ver.Main.Version = BuildVersion
			}
			switch format {
			case FlagFormatGoBuildInfo:
				_, err = io.Copy(cmd.OutOrStdout(), strings.NewReader(ver.String()))
			default:
				_, err = fmt.Fprintln(cmd.OutOrStdout(), ver.Main.Version)
			}
			return err
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	enum.VarP(cmd.Flags(), FlagFormat, FlagFormatShortHand, []string{FlagFormatShort, FlagFormatGoBuildInfo}, "format of the version information")
	return cmd
}
