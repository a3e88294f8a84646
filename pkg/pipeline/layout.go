package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/observability"
	"github.com/matzehuels/entitygraph/pkg/style"
)

// Scene is a derived, styled graph with a live simulation. The terminal
// explorer and the server's live sessions keep a Scene; batch runs settle it
// once and capture a Layout.
type Scene struct {
	Graph      graph.Graph
	Styled     style.Styled
	Simulation *force.Simulation
	Width      float64
	Height     float64
	Inputs     Inputs
}

// NewScene transforms the inputs, resolves styles and sets up the
// simulation. It does not tick.
func NewScene(ctx context.Context, opts Options) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newScene(ctx, opts, DecodeInputs(opts)), nil
}

func newScene(ctx context.Context, opts Options, in Inputs) *Scene {
	w, h, _ := opts.Dimensions()
	logger := opts.logger()

	g := opts.Transformer().Transform(in.Entities, opts.Exclusions())
	primary, attrs, _ := g.Counts()
	observability.Pipeline().OnTransformComplete(ctx, len(in.Entities), len(g.Nodes), len(g.Links), in.Demo)
	logger.Debug("transformed entities",
		"entities", len(in.Entities),
		"primary", primary,
		"attributes", attrs,
		"links", len(g.Links))

	resolver := style.NewResolver(in.Configuration, logger, style.WithForces(opts.Forces))
	return &Scene{
		Graph:      g,
		Styled:     resolver.Resolve(g),
		Simulation: force.New(g, float64(w), float64(h), opts.Forces, force.WithSeed(opts.Seed)),
		Width:      float64(w),
		Height:     float64(h),
		Inputs:     in,
	}
}

// Settle runs the simulation, for at most ticks steps when ticks > 0, and
// returns the number of steps taken.
func (s *Scene) Settle(ctx context.Context, ticks int) (int, error) {
	observability.Pipeline().OnLayoutStart(ctx, len(s.Graph.Nodes))
	start := time.Now()

	var (
		n   int
		err error
	)
	if ticks > 0 {
		for n < ticks && !s.Simulation.Settled() {
			if err = ctx.Err(); err != nil {
				break
			}
			s.Simulation.Tick()
			n++
		}
	} else {
		n, err = s.Simulation.Run(ctx)
	}

	observability.Pipeline().OnLayoutComplete(ctx, n, time.Since(start), err)
	return n, err
}

// Layout captures the current positions with the resolved styles.
func (s *Scene) Layout(ticks int) graph.Layout {
	l := graph.Layout{
		Width:  s.Width,
		Height: s.Height,
		Nodes:  make([]graph.PlacedNode, len(s.Graph.Nodes)),
		Links:  make([]graph.PlacedLink, len(s.Graph.Links)),
		Legend: s.Styled.Legend,
		Ticks:  ticks,
	}
	bodies := s.Simulation.Bodies()
	for i, n := range s.Graph.Nodes {
		ns := s.Styled.Nodes[i]
		l.Nodes[i] = graph.PlacedNode{
			Node:   n,
			X:      bodies[i].X,
			Y:      bodies[i].Y,
			Color:  ns.Color,
			Radius: ns.Radius,
			Label:  ns.Label,
		}
	}
	for i, lk := range s.Graph.Links {
		ls := s.Styled.Links[i]
		l.Links[i] = graph.PlacedLink{
			Link:     lk,
			Color:    ls.Color,
			Marker:   ls.Marker,
			Distance: ls.Distance,
		}
	}
	return l
}

// BuildLayout runs transform and layout without caching.
func BuildLayout(ctx context.Context, opts Options) (graph.Layout, *Scene, error) {
	scene, err := NewScene(ctx, opts)
	if err != nil {
		return graph.Layout{}, nil, err
	}
	ticks, err := scene.Settle(ctx, opts.Ticks)
	if err != nil {
		return graph.Layout{}, nil, err
	}
	return scene.Layout(ticks), scene, nil
}
