package cli

import (
	"context"
	"math"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/entitygraph/pkg/pipeline"
)

func newTestExplorer(t *testing.T) *exploreModel {
	t.Helper()
	opts := pipeline.DefaultOptions()
	opts.Data = twoEntities
	opts.Size = "400px,300px"
	l, _, err := pipeline.BuildLayout(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, l.Nodes, 4)
	return newExploreModel(l, opts)
}

func press(m *exploreModel, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestExploreCursor(t *testing.T) {
	m := newTestExplorer(t)
	assert.Equal(t, "A", m.ctrl.Hovered())
	assert.True(t, m.view.Tooltip.Visible)
	assert.Equal(t, "A", m.view.Tooltip.Text)

	press(m, "down")
	assert.Equal(t, "B", m.ctrl.Hovered())

	press(m, "enter")
	assert.Equal(t, "B", m.ctrl.Selected())
	assert.Contains(t, m.View(), "selected")

	press(m, "esc")
	assert.Empty(t, m.ctrl.Selected())
	assert.Empty(t, m.ctrl.Hovered())

	press(m, "up")
	press(m, "up")
	assert.Equal(t, "B_MIT", m.ctrl.Hovered(), "cursor wraps around")
}

func TestExploreGrab(t *testing.T) {
	m := newTestExplorer(t)
	require.True(t, m.sim.Settled())

	x0, y0, _ := m.sim.Position("A")
	require.NotNil(t, press(m, "g"), "grabbing starts the frame loop")
	assert.Equal(t, "A", m.grabbed)
	assert.True(t, m.ctrl.Dragging())

	press(m, "L")
	press(m, "J")
	assert.InDelta(t, math.Max(0, math.Min(m.layout.Width, x0+exploreNudge)), m.grabX, 1e-9)
	assert.InDelta(t, math.Max(0, math.Min(m.layout.Height, y0+exploreNudge)), m.grabY, 1e-9)

	_, cmd := m.Update(exploreTickMsg{})
	require.NotNil(t, cmd)
	x, y, _ := m.sim.Position("A")
	assert.InDelta(t, m.grabX, x, 1e-9)
	assert.InDelta(t, m.grabY, y, 1e-9)
	assert.Contains(t, m.View(), "dragging A")

	assert.Nil(t, press(m, "g"))
	assert.False(t, m.ctrl.Dragging())

	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 5000, "simulation never cooled")
		_, cmd = m.Update(exploreTickMsg{})
	}
	assert.False(t, m.ticking)
	assert.True(t, m.sim.Settled())
}

func TestExploreNudgeWithoutGrab(t *testing.T) {
	m := newTestExplorer(t)
	before := m.sim.Bodies()
	press(m, "L")
	assert.Equal(t, before, m.sim.Bodies())
	assert.False(t, m.ctrl.Dragging())
}

func TestExploreView(t *testing.T) {
	m := newTestExplorer(t)
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 198, m.cols)

	out := m.View()
	assert.Contains(t, out, "entitygraph explore")
	assert.Contains(t, out, "2 primary · 2 attributes · 3 links")
	assert.Contains(t, out, "◉")
	assert.Contains(t, out, `tooltip "A"`)
	assert.Contains(t, out, "grab/release")
	assert.NotContains(t, out, "move left")

	press(m, "?")
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "move left")
}

func TestExploreQuit(t *testing.T) {
	m := newTestExplorer(t)
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
