// Package traversal lays a value list out as a complete binary tree in
// level order and walks it depth first.
package traversal

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
)

// Languages assigned by level
const (
	LanguageRoot   = "python"
	LanguageMiddle = "javascript"
	LanguageLeaf   = "c"
)

// NoChild marks a missing child index
const NoChild = -1

// Node is one position of the tree.
type Node struct {
	Index    int
	Value    int64
	Language string
	Level    int
	Left     int
	Right    int
}

// Tree is a level-order node slice; node i has children 2i+1 and 2i+2.
type Tree struct {
	Nodes  []Node
	Levels int
}

// ParseValues parses a comma separated list. Empty items are skipped.
func ParseValues(input string) ([]int64, error) {
	var values []int64
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, perrors.InvalidArgument("%q is not an integer", item).WithCause(err)
		}
		values = append(values, v)
	}
	return values, nil
}

// Build lays values out in level order. The root level is python, the
// deepest level c and everything between javascript.
func Build(values []int64) *Tree {
	if len(values) == 0 {
		return &Tree{}
	}

	levels := levelOf(len(values)-1) + 1
	nodes := make([]Node, len(values))
	for i, v := range values {
		level := levelOf(i)
		left, right := 2*i+1, 2*i+2
		if left >= len(values) {
			left = NoChild
		}
		if right >= len(values) {
			right = NoChild
		}
		nodes[i] = Node{
			Index:    i,
			Value:    v,
			Language: languageFor(level, levels),
			Level:    level,
			Left:     left,
			Right:    right,
		}
	}
	return &Tree{Nodes: nodes, Levels: levels}
}

// levelOf returns floor(log2(i+1))
func levelOf(i int) int {
	return bits.Len(uint(i+1)) - 1
}

func languageFor(level, levels int) string {
	switch {
	case level == 0:
		return LanguageRoot
	case level == levels-1:
		return LanguageLeaf
	default:
		return LanguageMiddle
	}
}

// Level returns the nodes on one level, left to right.
func (t *Tree) Level(level int) []Node {
	if level < 0 || level >= t.Levels {
		return nil
	}
	start := 1<<level - 1
	end := 1<<(level+1) - 1
	if end > len(t.Nodes) {
		end = len(t.Nodes)
	}
	return t.Nodes[start:end]
}

// Order is a depth-first visiting order.
type Order string

const (
	PreOrder  Order = "preorder"
	InOrder   Order = "inorder"
	PostOrder Order = "postorder"
)

// Orders lists every supported order.
var Orders = []Order{PreOrder, InOrder, PostOrder}

// ParseOrder accepts the order names with or without a dash.
func ParseOrder(s string) (Order, error) {
	normalized := Order(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ""))
	for _, o := range Orders {
		if o == normalized {
			return o, nil
		}
	}
	return "", perrors.InvalidArgument("unknown traversal order %q", s)
}

// Walk returns node indexes in the given order.
func (t *Tree) Walk(order Order) ([]int, error) {
	switch order {
	case PreOrder, InOrder, PostOrder:
	default:
		return nil, perrors.InvalidArgument("unknown traversal order %q", order)
	}

	visited := make([]int, 0, len(t.Nodes))
	var walk func(i int)
	walk = func(i int) {
		if i == NoChild {
			return
		}
		n := t.Nodes[i]
		if order == PreOrder {
			visited = append(visited, i)
		}
		walk(n.Left)
		if order == InOrder {
			visited = append(visited, i)
		}
		walk(n.Right)
		if order == PostOrder {
			visited = append(visited, i)
		}
	}
	if len(t.Nodes) > 0 {
		walk(0)
	}
	return visited, nil
}

// Sequence returns the visited values in the given order.
func (t *Tree) Sequence(order Order) ([]int64, error) {
	indexes, err := t.Walk(order)
	if err != nil {
		return nil, err
	}
	values := make([]int64, len(indexes))
	for i, idx := range indexes {
		values[i] = t.Nodes[idx].Value
	}
	return values, nil
}

// FormatSequence joins values with " → ".
func FormatSequence(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, " → ")
}

func (n Node) String() string {
	return fmt.Sprintf("%d(%s)", n.Value, n.Language)
}
