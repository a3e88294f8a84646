package force

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/entitygraph/pkg/graph"
)

func ptr[T any](v T) *T { return &v }

func pair(linked bool) graph.Graph {
	g := graph.Graph{Nodes: []graph.Node{graph.Primary("A", ""), graph.Primary("B", "")}}
	if linked {
		g.Links = []graph.Link{{Source: "A", Target: "B", Category: graph.CategoryNonAttribute, Visible: true}}
	}
	return g
}

func distance(s *Simulation, a, b string) float64 {
	ax, ay, _ := s.Position(a)
	bx, by, _ := s.Position(b)
	return math.Hypot(ax-bx, ay-by)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 0.5, c.Center.X)
	assert.Equal(t, 0.5, c.Center.Y)
	assert.True(t, c.Charge.Enabled)
	assert.Equal(t, -90.0, c.Charge.Strength)
	assert.Equal(t, 1.0, c.Charge.DistanceMin)
	assert.Equal(t, 0.0, c.Charge.DistanceMax)
	assert.Equal(t, 70.0, c.Link.Distance)
	assert.NoError(t, c.Validate())
}

func TestConfigUpdate(t *testing.T) {
	c := DefaultConfig()
	c.Update(ConfigUpdate{CenterX: ptr(0.25), Strength: ptr(-30.0)})

	assert.Equal(t, 0.25, c.Center.X)
	assert.Equal(t, 0.5, c.Center.Y, "unset fields keep their value")
	assert.Equal(t, -30.0, c.Charge.Strength)
	assert.Equal(t, 70.0, c.Link.Distance)

	c.Update(ConfigUpdate{CenterX: ptr(0.75), ChargeEnabled: ptr(false), LinkDistance: ptr(120.0)})
	assert.Equal(t, 0.75, c.Center.X, "last write wins")
	assert.False(t, c.Charge.Enabled)
	assert.Equal(t, 120.0, c.Link.Distance)
	assert.Equal(t, -30.0, c.Charge.Strength)

	c.Update(ConfigUpdate{})
	assert.Equal(t, 0.75, c.Center.X)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		update ConfigUpdate
	}{
		{"center out of range", ConfigUpdate{CenterX: ptr(1.5)}},
		{"negative center", ConfigUpdate{CenterY: ptr(-0.1)}},
		{"zero link distance", ConfigUpdate{LinkDistance: ptr(0.0)}},
		{"negative distanceMin", ConfigUpdate{DistanceMin: ptr(-1.0)}},
		{"max below min", ConfigUpdate{DistanceMin: ptr(10.0), DistanceMax: ptr(5.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			c.Update(tt.update)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLinkDistance(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 70.0, c.LinkDistance(graph.CategoryNonAttribute))
	assert.Equal(t, 35.0, c.LinkDistance(graph.CategoryAttribute))
}

func TestRunSettles(t *testing.T) {
	s := New(pair(true), 800, 600, DefaultConfig())
	ticks, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ticks, 299)
	assert.LessOrEqual(t, ticks, 301)
	assert.True(t, s.Settled())
	assert.False(t, s.Active())
}

func TestLinkedNodesApproachLinkDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Charge.Enabled = false
	s := New(pair(true), 800, 600, cfg)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	d := distance(s, "A", "B")
	assert.Greater(t, d, 40.0)
	assert.Less(t, d, 90.0)
}

func TestChargeRepels(t *testing.T) {
	off := DefaultConfig()
	off.Charge.Enabled = false
	calm := New(pair(false), 800, 600, off)
	_, _ = calm.Run(context.Background())

	charged := New(pair(false), 800, 600, DefaultConfig())
	_, _ = charged.Run(context.Background())

	assert.Greater(t, distance(charged, "A", "B"), distance(calm, "A", "B"))
}

func TestSingleNodeCentered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Center = Center{X: 0.25, Y: 0.75}
	g := graph.Graph{Nodes: []graph.Node{graph.Primary("only", "")}}
	s := New(g, 800, 600, cfg)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	x, y, ok := s.Position("only")
	require.True(t, ok)
	assert.InDelta(t, 200, x, 1)
	assert.InDelta(t, 450, y, 1)
}

func TestDeterministicForSeed(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{graph.Primary("A", ""), graph.Primary("B", ""), graph.Attribute("A", "k", "v")},
		Links: []graph.Link{
			{Source: "A", Target: "B", Category: graph.CategoryNonAttribute},
			{Source: "A", Target: "A_v", Category: graph.CategoryAttribute},
		},
	}
	run := func() []Body {
		s := New(g, 400, 400, DefaultConfig(), WithSeed(42))
		_, _ = s.Run(context.Background())
		return s.Bodies()
	}
	assert.Equal(t, run(), run())
}

func TestFixAndRelease(t *testing.T) {
	s := New(pair(true), 800, 600, DefaultConfig())
	require.True(t, s.Fix("A", 100, 120))
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	x, y, _ := s.Position("A")
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 120.0, y)

	require.True(t, s.Release("A"))
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	x, _, _ = s.Position("A")
	assert.NotEqual(t, 100.0, x)

	assert.False(t, s.Fix("missing", 0, 0))
	assert.False(t, s.Release("missing"))
}

func TestAlphaTargetKeepsSimulationWarm(t *testing.T) {
	s := New(pair(true), 800, 600, DefaultConfig())
	_, _ = s.Run(context.Background())
	require.True(t, s.Settled())

	s.SetAlphaTarget(DragAlphaTarget)
	s.Restart()
	assert.False(t, s.Settled())
	assert.True(t, s.Active())
	cold := s.Alpha()
	s.Tick()
	assert.Greater(t, s.Alpha(), cold, "a raised target warms the simulation")

	ticks, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTicks, ticks)
	assert.InDelta(t, DragAlphaTarget, s.Alpha(), 0.01)
	assert.True(t, s.Active())

	s.SetAlphaTarget(0)
	_, _ = s.Run(context.Background())
	assert.True(t, s.Settled())
	assert.False(t, s.Active())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(pair(true), 800, 600, DefaultConfig())
	ticks, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ticks)
}

func TestDanglingLinksIgnored(t *testing.T) {
	g := pair(false)
	g.Links = []graph.Link{{Source: "A", Target: "ghost", Category: graph.CategoryNonAttribute}}
	s := New(g, 800, 600, DefaultConfig())
	assert.NotPanics(t, func() { s.Tick() })
}

func TestNearest(t *testing.T) {
	s := New(pair(false), 800, 600, DefaultConfig())
	s.Fix("A", 10, 10)
	s.Fix("B", 100, 100)
	s.Tick()

	id, ok := s.Nearest(12, 9, 10)
	assert.True(t, ok)
	assert.Equal(t, "A", id)

	_, ok = s.Nearest(50, 50, 5)
	assert.False(t, ok)
}

func TestWithPositions(t *testing.T) {
	s := New(pair(false), 800, 600, DefaultConfig(), WithPositions(map[string][2]float64{"B": {5, 6}}))
	x, y, ok := s.Position("B")
	require.True(t, ok)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 6.0, y)
}
