package tree

import (
	"math"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
)

// MaxNode is the largest identifier whose children still fit in an int64.
const MaxNode = (math.MaxInt64 - 1) / 2

// Children returns the identifiers 2n and 2n+1 of node n in the implicit
// binary tree.
func Children(node int64) (left, right int64, err error) {
	if node < 0 {
		return 0, 0, perrors.InvalidArgument("node identifier must be non-negative, got %d", node)
	}
	if node > MaxNode {
		return 0, 0, perrors.InvalidArgument("node identifier %d is too large to derive children", node)
	}
	return 2 * node, 2*node + 1, nil
}
