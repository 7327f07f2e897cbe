package versions

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/enum"
	"ocm.software/open-component-model/artifact/cli/internal/render"
	"ocm.software/open-component-model/artifact/maven"
	"ocm.software/open-component-model/artifact/resource"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions COORDINATE",
		Short: "List the available versions of a maven artifact",
		Long: `List the versions of a maven artifact found in the local repository and the
enabled remote repositories, in ascending order. A version range such as
[1.0,2.0) restricts the result to matching versions.`,
		Example: `  # List all versions
  artifact versions maven://org.example:app:[0,)

  # List the 1.x versions
  artifact versions org.example:app:jar:[1.0,2.0)`,
		Args:              cobra.ExactArgs(1),
		RunE:              ListVersions,
		DisableAutoGenTag: true,
	}
	enum.VarP(cmd.Flags(), ocmcmd.OutputFlag, "o", render.Formats(), "output format")
	return cmd
}

func ListVersions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	resolver := ocmctx.FromContext(ctx).Resolver()
	if resolver == nil {
		return fmt.Errorf("no maven resolver configured")
	}
	output, err := enum.Get(cmd.Flags(), ocmcmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	raw, _ := resource.TrimScheme(args[0], maven.Scheme)
	coordinate, err := maven.ParseCoordinate(raw)
	if err != nil {
		return err
	}
	versions, err := resolver.ListVersions(ctx, coordinate)
	if err != nil {
		return err
	}
	return render.Render(cmd.OutOrStdout(), render.OutputFormat(output), versions, func(w io.Writer, v string) error {
		_, err := fmt.Fprintln(w, v)
		return err
	})
}
