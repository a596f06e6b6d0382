package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ignitionstack/polytree/internal/di"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/internal/ui/operations"
	"github.com/ignitionstack/polytree/pkg/app"
	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/manifest"
	"github.com/ignitionstack/polytree/pkg/tree"
	"github.com/spf13/cobra"
)

var rootNodeCmd = &cobra.Command{
	Use:   "root <node>",
	Short: "Combine a node with the foreign results for its children",
	Long: `Load every source of the bridge manifest, then print
"Root(<node>) " followed by process_middle(2*node) and process_middle(2*node+1).

Without a manifest the bundled native libraries are used: leaf (C) and
middle (JavaScript).`,
	Example: `  polytree root 1
  # Root(1) Middle(2) Leaf(4) Leaf(5) Middle(3) Leaf(6) Leaf(7)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := parseNode(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var (
			processor *tree.RootProcessor
			gw        *app.Gateway
			bridge    *manifest.BridgeManifest
			logger    logging.Logger
		)

		return di.Run(ctx, currentConfig(), func() error {
			return operations.WithSpinner("Loading sources...", plain, func() (interface{}, error) {
				if err := app.Init(ctx, gw, bridge, logger); err != nil {
					return nil, err
				}
				return processor.ProcessRoot(ctx, node)
			}, func(result operations.Result) {
				out, _ := result.Data.(string)
				if plain {
					fmt.Println(out)
					return
				}
				fmt.Println(ui.BoxStyle.Render(out))
				ui.PrintInfo("Function", processor.Function())
				ui.PrintInfo("Took", result.ExecutionTime.String())
			})
		}, &processor, &gw, &bridge, &logger)
	},
}

func parseNode(s string) (int64, error) {
	node, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, perrors.InvalidArgument("node must be an integer, got %q", s).WithCause(err)
	}
	return node, nil
}

func init() {
	rootCmd.AddCommand(rootNodeCmd)
}
