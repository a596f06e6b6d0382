package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ignitionstack/polytree/internal/di"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/app"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/manifest"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <function> [args...]",
	Short: "Invoke a foreign routine through the gateway",
	Long: `Load every source of the bridge manifest and invoke one routine by name.

Arguments that parse as integers are passed as integers, anything else as a
string. String results are printed as is, other values as JSON.`,
	Example: `  polytree call process_leaf 4
  # Leaf(4)

  polytree call process_middle 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var (
			gw     *app.Gateway
			bridge *manifest.BridgeManifest
			logger logging.Logger
		)

		return di.Run(ctx, currentConfig(), func() error {
			if err := app.Init(ctx, gw, bridge, logger); err != nil {
				return err
			}

			result, err := gw.Invoke(ctx, args[0], parseCallArgs(args[1:])...)
			if err != nil {
				return err
			}

			out, err := formatResult(result)
			if err != nil {
				return err
			}
			if plain {
				fmt.Println(out)
			} else {
				ui.PrintSuccess(args[0])
				fmt.Println(out)
			}
			return nil
		}, &gw, &bridge, &logger)
	},
}

func parseCallArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			args[i] = n
		} else {
			args[i] = s
		}
	}
	return args
}

func formatResult(result any) (string, error) {
	if s, ok := gateway.AsString(result); ok {
		return s, nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}

func init() {
	rootCmd.AddCommand(callCmd)
}
