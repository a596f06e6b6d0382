// Package traverse animates a depth-first walk over a rendered tree.
package traverse

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/traversal"
)

// DefaultInterval between two visited nodes
const DefaultInterval = 700 * time.Millisecond

type tickMsg time.Time

type Model struct {
	tree     *traversal.Tree
	order    traversal.Order
	path     []int
	values   []int64
	step     int
	interval time.Duration
	paused   bool
	done     bool
}

func New(tree *traversal.Tree, order traversal.Order, interval time.Duration) (Model, error) {
	path, err := tree.Walk(order)
	if err != nil {
		return Model{}, err
	}
	values, err := tree.Sequence(order)
	if err != nil {
		return Model{}, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{
		tree:     tree,
		order:    order,
		path:     path,
		values:   values,
		interval: interval,
	}, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	if len(m.path) == 0 {
		return tea.Quit
	}
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case "right", "l":
			m.advance()
		case "left", "h":
			if m.step > 0 {
				m.step--
			}
		}
		return m, nil

	case tickMsg:
		if !m.paused {
			m.advance()
		}
		if m.step >= len(m.path) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	if m.step < len(m.path) {
		m.step++
	}
}

// Active is the index of the node being visited, or ui.NoActiveNode.
func (m Model) Active() int {
	if m.step == 0 {
		return ui.NoActiveNode
	}
	return m.path[m.step-1]
}

// Step is how many nodes have been visited.
func (m Model) Step() int {
	return m.step
}

func (m Model) Paused() bool {
	return m.paused
}

func (m Model) Done() bool {
	return m.done
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render(fmt.Sprintf("%s traversal", m.order)))
	b.WriteString("\n")
	b.WriteString(ui.BoxStyle.Render(ui.RenderTree(m.tree, m.Active())))
	b.WriteString("\n")
	b.WriteString(ui.RenderLegend(m.tree))
	b.WriteString("\n\n")
	b.WriteString(ui.RenderSequence(m.values, m.step))
	b.WriteString("\n")

	if !m.done {
		status := "space pause"
		if m.paused {
			status = "space resume"
		}
		b.WriteString(ui.DimStyle.Render(fmt.Sprintf("\n%d/%d  ←/→ step  %s  q quit", m.step, len(m.path), status)))
		b.WriteString("\n")
	}
	return b.String()
}
