package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
)

// Resume builds a cooled simulation seeded with the positions of l, so
// interactions continue from a settled layout instead of starting over.
func Resume(l graph.Layout, opts Options) *force.Simulation {
	pos := make(map[string][2]float64, len(l.Nodes))
	for _, n := range l.Nodes {
		pos[n.ID] = [2]float64{n.X, n.Y}
	}
	sim := force.New(l.Graph(), l.Width, l.Height, opts.Forces,
		force.WithSeed(opts.Seed),
		force.WithPositions(pos))
	sim.SetAlpha(0)
	return sim
}

// NewController returns an interaction controller over l driving sim. The
// resting radii are the layout's.
func NewController(l graph.Layout, opts Options, sim interaction.Simulation) *interaction.Controller {
	radii := make([]float64, len(l.Nodes))
	for i, n := range l.Nodes {
		radii[i] = n.Radius
	}
	ctrlOpts := []interaction.Option{
		interaction.WithHoverDetails(opts.ShowDetailsOnHover),
		interaction.WithRadii(radii),
	}
	if sim != nil {
		ctrlOpts = append(ctrlOpts, interaction.WithSimulation(sim))
	}
	return interaction.New(l.Graph(), ctrlOpts...)
}

// Interact replays pointer events against a settled layout. Each drag move
// advances the simulation one step; after the last event the simulation
// runs until it cools, and the returned layout carries the new positions.
// Without drags the layout is returned unchanged.
func Interact(ctx context.Context, l graph.Layout, opts Options, events []interaction.Event) (graph.Layout, interaction.View, error) {
	sim := Resume(l, opts)
	ctrl := NewController(l, opts, sim)

	moved := false
	for i, e := range events {
		if _, err := ctrl.Apply(e); err != nil {
			return graph.Layout{}, interaction.View{}, fmt.Errorf("event %d: %w", i, err)
		}
		if e.Type == interaction.EventDragMove {
			sim.Tick()
			moved = true
		}
	}
	if !moved {
		return l, ctrl.View(), nil
	}

	if _, err := sim.Run(ctx); err != nil {
		return graph.Layout{}, interaction.View{}, err
	}
	out := l
	out.Nodes = append([]graph.PlacedNode(nil), l.Nodes...)
	for i, b := range sim.Bodies() {
		out.Nodes[i].X, out.Nodes[i].Y = b.X, b.Y
	}
	return out, ctrl.View(), nil
}
