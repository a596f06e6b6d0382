package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/internal/ui/models/traverse"
	"github.com/ignitionstack/polytree/pkg/traversal"
	"github.com/spf13/cobra"
)

var (
	traverseValues   string
	traverseOrder    string
	traverseAnimate  bool
	traverseInterval time.Duration
)

var traverseCmd = &cobra.Command{
	Use:   "traverse",
	Short: "Show a tree and its depth-first visiting orders",
	Long: `Lay the values out as a complete binary tree in level order and print the
preorder, inorder and postorder sequences.

The root level is drawn as Python, the deepest level as C and the levels in
between as JavaScript, the same split the bundled libraries use.`,
	Example: `  polytree traverse --values 1,2,3,4,5,6,7
  polytree traverse --order inorder --animate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		values, err := traversal.ParseValues(traverseValues)
		if err != nil {
			return err
		}
		tree := traversal.Build(values)

		orders := traversal.Orders
		if traverseOrder != "" {
			order, err := traversal.ParseOrder(traverseOrder)
			if err != nil {
				return err
			}
			orders = []traversal.Order{order}
		}

		if traverseAnimate && !plain {
			if len(orders) != 1 {
				return fmt.Errorf("--animate needs --order")
			}
			model, err := traverse.New(tree, orders[0], traverseInterval)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(model).Run()
			return err
		}

		if !plain {
			fmt.Println(ui.BoxStyle.Render(ui.RenderTree(tree, ui.NoActiveNode)))
			fmt.Println(ui.RenderLegend(tree))
			fmt.Println()
		}

		for _, order := range orders {
			seq, err := tree.Sequence(order)
			if err != nil {
				return err
			}
			if plain {
				fmt.Printf("%s: %s\n", order, traversal.FormatSequence(seq))
			} else {
				ui.PrintInfo(string(order), ui.RenderSequence(seq, len(seq)))
			}
		}
		return nil
	},
}

func init() {
	traverseCmd.Flags().StringVar(&traverseValues, "values", "1,2,3,4,5,6,7", "Comma separated node values in level order")
	traverseCmd.Flags().StringVarP(&traverseOrder, "order", "o", "", "preorder, inorder or postorder (all when empty)")
	traverseCmd.Flags().BoolVarP(&traverseAnimate, "animate", "a", false, "Step through the walk interactively")
	traverseCmd.Flags().DurationVar(&traverseInterval, "interval", traverse.DefaultInterval, "Delay between visited nodes when animating")

	rootCmd.AddCommand(traverseCmd)
}
