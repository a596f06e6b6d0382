package module

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignitionstack/polytree/internal/di"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/spf13/cobra"
)

func NewModuleListCommand(configFn ConfigFunc, plainFn func() bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [namespace/name]",
		Aliases: []string{"ls"},
		Short:   "List modules in the registry",
		Long: `List every module version in the local registry, one row per tag.
With a namespace/name only that module is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var reg registry.Registry
			return di.Run(ctx, configFn(), func() error {
				var modules []registry.ModuleMetadata
				if len(args) == 1 {
					namespace, name, err := parseNamespaceAndName(args[0])
					if err != nil {
						return err
					}
					metadata, err := reg.Get(namespace, name)
					if err != nil {
						return err
					}
					modules = append(modules, *metadata)
				} else {
					var err error
					modules, err = reg.ListAll()
					if err != nil {
						return err
					}
				}

				rows := moduleRows(modules)
				if plainFn() {
					renderPlain(rows)
					return nil
				}
				if len(rows) == 0 {
					ui.PrintEmptyState("No modules in the registry")
					return nil
				}
				table := ui.NewTable([]string{"MODULE", "TAG", "DIGEST", "LANGUAGE", "SIZE"})
				for _, row := range rows {
					table.AddRow(row...)
				}
				fmt.Print(ui.RenderTable(table))
				return nil
			}, &reg)
		},
	}

	return cmd
}

// moduleRows flattens modules into one row per tag, untagged versions
// shown as <none>.
func moduleRows(modules []registry.ModuleMetadata) [][]string {
	var rows [][]string
	for _, metadata := range modules {
		repository := fmt.Sprintf("%s/%s", metadata.Namespace, metadata.Name)
		for _, version := range metadata.Versions {
			tags := append([]string(nil), version.Tags...)
			sort.Strings(tags)
			if len(tags) == 0 {
				tags = []string{"<none>"}
			}
			for _, tag := range tags {
				rows = append(rows, []string{
					repository,
					tag,
					version.Hash,
					version.Settings.Language,
					formatSize(version.Size),
				})
			}
		}
	}
	return rows
}

func renderPlain(rows [][]string) {
	const format = "%-30s\t%-15s\t%-14s\t%-10s\t%-10s\n"
	fmt.Printf(format, "MODULE", "TAG", "DIGEST", "LANGUAGE", "SIZE")
	for _, row := range rows {
		fmt.Printf(format, row[0], row[1], row[2], row[3], row[4])
	}
}

func parseNamespaceAndName(input string) (namespace, name string, err error) {
	namespace, name, ok := strings.Cut(strings.TrimSpace(input), "/")
	if !ok || namespace == "" || name == "" || strings.ContainsAny(name, "/:") {
		return "", "", fmt.Errorf("invalid format %q: expected namespace/name", input)
	}
	return namespace, name, nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
