package cmd

import (
	"github.com/ignitionstack/polytree/cmd/module"
	"github.com/spf13/cobra"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Manage WebAssembly modules in the local registry",
	Long: `Modules pushed to the registry can be loaded by the wasm backend with a
namespace/name[:tag|digest] reference in the bridge manifest.`,
	Example: `  polytree module push middle.wasm --name demo/middle --tag v1
  polytree module build ./leaf --language c --name demo/leaf
  polytree module list`,
	Aliases: []string{"mod"},
}

func init() {
	moduleCmd.AddCommand(module.NewModulePushCommand(currentConfig, isPlain))
	moduleCmd.AddCommand(module.NewModuleBuildCommand(currentConfig, isPlain))
	moduleCmd.AddCommand(module.NewModuleListCommand(currentConfig, isPlain))
	rootCmd.AddCommand(moduleCmd)
}

func isPlain() bool {
	return plain
}
