package cmd

import (
	"fmt"
	"os"

	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags
var (
	configPath   string
	manifestPath string
	logLevel     string
	plain        bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "polytree",
	Short: "Cross-language tree calls",
	Long: `polytree combines results of routines written in different languages over
an implicit binary tree: node n has children 2n and 2n+1.

The root is handled here; every child goes through the foreign call gateway,
which routes each language to a backend:
* native: routines bundled in the binary (the leaf and middle libraries)
* wasm: WebAssembly modules from files, URLs or the local module registry
* process: scripts run by an interpreter, one process per call`,
	Example: `  # Combine node 1 with the bundled libraries
  polytree root 1

  # Use a bridge manifest listing other sources
  polytree --manifest polytree.yaml root 1

  # Show how the tree is walked
  polytree traverse --values 1,2,3,4,5,6,7 --order inorder --animate`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		// flags given on the command line win over the file and environment
		cmd.Flags().Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "manifest":
				loaded.Manifest = config.ExpandHome(f.Value.String())
			case "log-level":
				loaded.Log.Level = f.Value.String()
			}
		})
		if err := config.Validate(loaded); err != nil {
			return err
		}

		if !ui.Interactive() {
			plain = true
		}

		cfg = loaded
		return nil
	},
}

func currentConfig() *config.Config {
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if plain {
			fmt.Fprintln(os.Stderr, "Error:", err)
		} else {
			ui.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "Bridge manifest listing the sources to load (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Plain output without colors, spinners or animation")
}
