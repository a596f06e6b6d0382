package traverse

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/pkg/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T, order traversal.Order) Model {
	t.Helper()
	m, err := New(traversal.Build([]int64{1, 2, 3, 4, 5, 6, 7}), order, time.Millisecond)
	require.NoError(t, err)
	return m
}

func TestModelFollowsInOrder(t *testing.T) {
	m := newModel(t, traversal.InOrder)
	assert.Equal(t, ui.NoActiveNode, m.Active())

	var visited []int64
	var model tea.Model = m
	for i := 0; i < 7; i++ {
		var cmd tea.Cmd
		model, cmd = model.Update(tickMsg(time.Now()))
		require.NotNil(t, cmd)
		cur := model.(Model)
		visited = append(visited, cur.tree.Nodes[cur.Active()].Value)
	}

	assert.Equal(t, []int64{4, 2, 5, 1, 6, 3, 7}, visited)
	assert.True(t, model.(Model).Done())
}

func TestModelPauseAndStep(t *testing.T) {
	var model tea.Model = newModel(t, traversal.PreOrder)

	model, _ = model.Update(key(" "))
	assert.True(t, model.(Model).Paused())

	model, _ = model.Update(tickMsg(time.Now()))
	assert.Equal(t, 0, model.(Model).Step())

	model, _ = model.Update(key("right"))
	model, _ = model.Update(key("right"))
	assert.Equal(t, 2, model.(Model).Step())
	assert.Equal(t, 1, model.(Model).Active())

	model, _ = model.Update(key("left"))
	assert.Equal(t, 0, model.(Model).Active())

	model, _ = model.Update(key(" "))
	assert.False(t, model.(Model).Paused())
}

func TestModelQuit(t *testing.T) {
	model, cmd := newModel(t, traversal.PostOrder).Update(key("q"))
	require.NotNil(t, cmd)
	assert.True(t, model.(Model).Done())
}

func TestModelView(t *testing.T) {
	view := newModel(t, traversal.InOrder).View()
	assert.Contains(t, view, "inorder traversal")
	assert.Contains(t, view, "0/7")
}

func TestNewRejectsUnknownOrder(t *testing.T) {
	_, err := New(traversal.Build([]int64{1}), traversal.Order("sideways"), 0)
	assert.Error(t, err)
}
