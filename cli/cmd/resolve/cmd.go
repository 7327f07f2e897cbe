package resolve

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	"ocm.software/open-component-model/artifact/cli/cmd/setup"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/enum"
	"ocm.software/open-component-model/artifact/cli/internal/render"
	"ocm.software/open-component-model/artifact/resource"
)

const (
	FlagCheck = "check"
	FlagName  = "name"
)

// Result is the outcome of resolving one location.
type Result struct {
	Location string `json:"location"`
	URI      string `json:"uri"`
	File     string `json:"file,omitempty"`
	Exists   *bool  `json:"exists,omitempty"`
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve LOCATION...",
		Short: "Resolve artifact locations to local files",
		Long: `Resolve artifact locations to local files.

Supported locations are maven coordinates (maven://group:artifact[:extension[:classifier]]:version),
docker image references (docker:image:tag or a bare image reference), http(s) URLs and file URLs.
Image references cannot be materialized; their canonical URI is printed instead of a path.`,
		Example: `  # Resolve a maven artifact into the local repository
  artifact resolve maven://org.example:app:1.0.0

  # Check whether an image exists without downloading anything
  artifact resolve --check docker:library/ubuntu:22.04

  # Resolve an entry of the URI registry
  artifact resolve --name app`,
		Args:              cobra.MinimumNArgs(1),
		RunE:              Resolve,
		DisableAutoGenTag: true,
	}

	cmd.Flags().Bool(FlagCheck, false, "only check that the artifacts exist")
	cmd.Flags().Bool(FlagName, false, "treat arguments as names in the URI registry")
	enum.VarP(cmd.Flags(), ocmcmd.OutputFlag, "o", render.Formats(), "output format")
	return cmd
}

func Resolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	loader := ocmctx.FromContext(ctx).Loader()
	if loader == nil {
		return fmt.Errorf("no loader configured")
	}

	check, err := cmd.Flags().GetBool(FlagCheck)
	if err != nil {
		return err
	}
	byName, err := cmd.Flags().GetBool(FlagName)
	if err != nil {
		return err
	}
	output, err := enum.Get(cmd.Flags(), ocmcmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	locations := args
	if byName {
		if locations, err = lookup(cmd, args); err != nil {
			return err
		}
	}

	results := make([]Result, 0, len(locations))
	for _, location := range locations {
		res, err := loader.Load(location)
		if err != nil {
			return err
		}
		result := Result{Location: location, URI: res.URI()}
		if check {
			exists, err := res.Exists(ctx)
			if err != nil {
				return fmt.Errorf("could not check %s: %w", location, err)
			}
			result.Exists = &exists
		} else {
			file, err := res.File(ctx)
			switch {
			case errors.Is(err, resource.ErrNotMaterializable):
				slog.DebugContext(ctx, "resource has no local file", slog.String("location", location))
			case err != nil:
				return err
			default:
				result.File = file
			}
		}
		results = append(results, result)
	}

	format := render.OutputFormat(output)
	if check {
		return render.RenderTable(cmd.OutOrStdout(), format, results, table.Row{"URI", "Exists"}, func(r Result) table.Row {
			return table.Row{r.URI, *r.Exists}
		})
	}
	return render.Render(cmd.OutOrStdout(), format, results, func(w io.Writer, r Result) error {
		location := r.File
		if location == "" {
			location = r.URI
		}
		_, err := fmt.Fprintln(w, location)
		return err
	})
}

func lookup(cmd *cobra.Command, names []string) ([]string, error) {
	reg, err := setup.Registry(cmd)
	if err != nil {
		return nil, err
	}
	locations := make([]string, 0, len(names))
	for _, name := range names {
		uri, err := reg.Find(cmd.Context(), name)
		if err != nil {
			return nil, err
		}
		locations = append(locations, uri)
	}
	return locations, nil
}
