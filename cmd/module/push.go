package module

import (
	"context"
	"fmt"
	"os"

	"github.com/ignitionstack/polytree/internal/di"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/config"
	"github.com/ignitionstack/polytree/pkg/manifest"
	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/spf13/cobra"
)

// ConfigFunc returns the loaded configuration once the root command ran.
type ConfigFunc func() *config.Config

func NewModulePushCommand(configFn ConfigFunc, plainFn func() bool) *cobra.Command {
	var (
		name         string
		tag          string
		settingsPath string
		language     string
		wasi         bool
		allowedHosts []string
	)

	cmd := &cobra.Command{
		Use:   "push <file.wasm>",
		Short: "Store a WebAssembly module in the local registry",
		Long: `Store a module under namespace/name and point a tag at it.

Settings can come from a module manifest (YAML or TOML) given with
--settings; flags override the manifest.`,
		Example: `  polytree module push middle.wasm --name demo/middle
  polytree module push middle.wasm --settings module.toml --tag v2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read module: %w", err)
			}

			settings := registry.ModuleSettings{Language: language, Wasi: wasi, AllowedHosts: allowedHosts}
			if settingsPath != "" {
				m, err := manifest.ParseModuleFile(settingsPath)
				if err != nil {
					return err
				}
				if name == "" {
					name = m.Module.Name
				}
				fromFlags := settings
				settings = m.Module.Settings
				if cmd.Flags().Changed("language") {
					settings.Language = fromFlags.Language
				}
				if cmd.Flags().Changed("wasi") {
					settings.Wasi = fromFlags.Wasi
				}
				if cmd.Flags().Changed("allow-host") {
					settings.AllowedHosts = fromFlags.AllowedHosts
				}
			}

			if name == "" {
				return fmt.Errorf("--name is required without a --settings manifest")
			}
			namespace, moduleName, err := parseNamespaceAndName(name)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var reg registry.Registry
			return di.Run(ctx, configFn(), func() error {
				digest, err := reg.Push(namespace, moduleName, payload, tag, settings)
				if err != nil {
					return fmt.Errorf("failed to push module: %w", err)
				}

				if plainFn() {
					fmt.Println(digest)
					return nil
				}
				ui.PrintSuccess(fmt.Sprintf("Pushed %s/%s:%s", namespace, moduleName, tag))
				ui.PrintInfo("Digest", registry.TruncateDigest(digest, registry.ShortDigestLength))
				ui.PrintInfo("Size", formatSize(int64(len(payload))))
				return nil
			}, &reg)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Module name as namespace/name")
	cmd.Flags().StringVarP(&tag, "tag", "t", registry.DefaultTag, "Tag to point at the pushed version")
	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "Module manifest with name and settings")
	cmd.Flags().StringVar(&language, "language", "", "Language the module was compiled from")
	cmd.Flags().BoolVar(&wasi, "wasi", true, "Enable WASI when the module is loaded")
	cmd.Flags().StringSliceVar(&allowedHosts, "allow-host", nil, "Host the module may reach over HTTP (repeatable)")

	return cmd
}
