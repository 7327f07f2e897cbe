package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	ocmcmd "ocm.software/open-component-model/artifact/cli/cmd/internal/cmd"
	"ocm.software/open-component-model/artifact/cli/cmd/setup"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/cli/internal/flags/enum"
	"ocm.software/open-component-model/artifact/cli/internal/render"
	uriregistry "ocm.software/open-component-model/artifact/registry"
	"ocm.software/open-component-model/artifact/resource"
)

const (
	FlagOverwrite = "overwrite"
	FlagFilter    = "filter"
)

// Entry is a registry entry as rendered by the registry commands.
type Entry struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "registry",
		Short:             "Manage the URI registry mapping names to artifact locations",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newPopulate(), newFind(), newList(), newRegister(), newUnregister())
	return cmd
}

func newPopulate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate LOCATION...",
		Short: "Load registry entries from properties files",
		Long: `Load "name=uri" entries from properties files at the given locations.
Entries whose value is not an absolute URI are skipped. Without --overwrite
existing names are left untouched. The written entries are printed.`,
		Example: `  artifact registry populate https://example.com/apps.properties file:///etc/artifact/local.properties`,
		Args:              cobra.MinimumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite, err := cmd.Flags().GetBool(FlagOverwrite)
			if err != nil {
				return err
			}
			reg, err := setup.Registry(cmd)
			if err != nil {
				return err
			}
			populator := uriregistry.NewPopulator(ocmctx.FromContext(cmd.Context()).Loader())
			written, err := populator.PopulateRegistry(cmd.Context(), overwrite, reg, args...)
			if renderErr := renderEntries(cmd, written); renderErr != nil {
				return renderErr
			}
			return err
		},
	}
	cmd.Flags().Bool(FlagOverwrite, false, "replace existing entries")
	enum.VarP(cmd.Flags(), ocmcmd.OutputFlag, "o", render.Formats(), "output format")
	return cmd
}

func newFind() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "find NAME",
		Short:             "Print the URI registered for a name",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := setup.Registry(cmd)
			if err != nil {
				return err
			}
			uri, err := reg.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}
	return cmd
}

func newList() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "list",
		Short:             "List registry entries",
		Example:           `  artifact registry list --filter 'source.*' -o yaml`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := cmd.Flags().GetString(FlagFilter)
			if err != nil {
				return err
			}
			reg, err := setup.Registry(cmd)
			if err != nil {
				return err
			}
			entries, err := reg.FindAll(cmd.Context())
			if err != nil {
				return err
			}
			if entries, err = uriregistry.Filter(entries, pattern); err != nil {
				return err
			}
			return renderEntries(cmd, entries)
		},
	}
	cmd.Flags().String(FlagFilter, "", "only list names matching the glob pattern")
	enum.VarP(cmd.Flags(), ocmcmd.OutputFlag, "o", render.Formats(), "output format")
	return cmd
}

func newRegister() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "register NAME URI",
		Short:             "Register a URI under a name, replacing an existing entry",
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resource.ValidateURI(args[1]); err != nil {
				return err
			}
			reg, err := setup.Registry(cmd)
			if err != nil {
				return err
			}
			return reg.Register(cmd.Context(), args[0], args[1])
		},
	}
	return cmd
}

func newUnregister() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "unregister NAME",
		Short:             "Remove a registry entry",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := setup.Registry(cmd)
			if err != nil {
				return err
			}
			return reg.Unregister(cmd.Context(), args[0])
		},
	}
	return cmd
}

func renderEntries(cmd *cobra.Command, entries map[string]string) error {
	output, err := enum.Get(cmd.Flags(), ocmcmd.OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	list := make([]Entry, 0, len(entries))
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		list = append(list, Entry{Name: name, URI: entries[name]})
	}
	return render.RenderTable(cmd.OutOrStdout(), render.OutputFormat(output), list, table.Row{"Name", "URI"}, func(e Entry) table.Row {
		return table.Row{e.Name, e.URI}
	})
}
