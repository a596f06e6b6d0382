package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ignitionstack/polytree/pkg/traversal"
)

// cellWidth is the width of one node slot on the deepest level
const cellWidth = 6

// NoActiveNode renders a tree without highlighting.
const NoActiveNode = -1

// RenderTree draws the tree level by level, each node colored by its
// language. The node at index active is highlighted.
func RenderTree(tree *traversal.Tree, active int) string {
	if tree == nil || len(tree.Nodes) == 0 {
		return DimStyle.Render("(empty tree)")
	}

	lines := make([]string, 0, tree.Levels)
	for level := 0; level < tree.Levels; level++ {
		slot := cellWidth << (tree.Levels - 1 - level)
		cells := make([]string, 0, len(tree.Level(level)))
		for _, node := range tree.Level(level) {
			cells = append(cells, lipgloss.PlaceHorizontal(slot, lipgloss.Center, renderNode(node, active)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderNode(node traversal.Node, active int) string {
	label := strconv.FormatInt(node.Value, 10)
	if node.Index == active {
		return ActiveNodeStyle.Render(" " + label + " ")
	}
	return LanguageStyle(node.Language).Render(label)
}

// RenderLegend lists the languages used in the tree, root first.
func RenderLegend(tree *traversal.Tree) string {
	seen := make(map[string]bool)
	var parts []string
	for _, node := range tree.Nodes {
		if seen[node.Language] {
			continue
		}
		seen[node.Language] = true
		parts = append(parts, LanguageStyle(node.Language).Render("● "+node.Language))
	}
	return strings.Join(parts, "  ")
}

// RenderSequence renders values joined by arrows; the first visited ones
// are bright and the rest dimmed.
func RenderSequence(values []int64, visited int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		s := strconv.FormatInt(v, 10)
		if i < visited {
			parts[i] = HeaderStyle.Render(s)
		} else {
			parts[i] = DimStyle.Render(s)
		}
	}
	return strings.Join(parts, DimStyle.Render(" "+ArrowRightSymbol+" "))
}
