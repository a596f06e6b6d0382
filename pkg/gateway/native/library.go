package native

import (
	"context"
	"fmt"
	"math"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
)

// Names of the bundled libraries and routines
const (
	LeafLibraryName   = "leaf"
	MiddleLibraryName = "middle"

	LeafFunction   = "process_leaf"
	MiddleFunction = "process_middle"
)

// LeafLibrary labels a leaf node: process_leaf(n) = "Leaf(n) ".
func LeafLibrary() Library {
	return Library{
		Language: "c",
		Name:     LeafLibraryName,
		Functions: map[string]Func{
			LeafFunction: func(_ context.Context, args []any) (any, error) {
				node, err := gateway.IntArg(args, 0)
				if err != nil {
					return nil, perrors.MarshalFailure(LeafFunction, err)
				}
				return fmt.Sprintf("Leaf(%d) ", node), nil
			},
		},
	}
}

// MiddleLibrary labels a middle node and appends the leaves below it, which it
// reaches through gw: process_middle(n) = "Middle(n) " + process_leaf(2n) +
// process_leaf(2n+1).
func MiddleLibrary(gw gateway.Invoker) Library {
	return Library{
		Language: "js",
		Name:     MiddleLibraryName,
		Functions: map[string]Func{
			MiddleFunction: func(ctx context.Context, args []any) (any, error) {
				node, err := gateway.IntArg(args, 0)
				if err != nil {
					return nil, perrors.MarshalFailure(MiddleFunction, err)
				}
				if node < 0 || node > (math.MaxInt64-1)/2 {
					return nil, perrors.InvocationFailure(MiddleFunction, fmt.Errorf("node %d has no children", node))
				}

				out := fmt.Sprintf("Middle(%d) ", node)
				for _, child := range []int64{2 * node, 2*node + 1} {
					result, err := gw.Invoke(ctx, LeafFunction, child)
					if err != nil {
						return nil, err
					}
					text, ok := gateway.AsString(result)
					if !ok {
						return nil, perrors.MarshalFailure(LeafFunction, fmt.Errorf("unexpected %T result", result))
					}
					out += text
				}
				return out, nil
			},
		},
	}
}
