// Package force implements a velocity Verlet force simulation for
// entity graphs.
//
// The integrator follows the conventions of browser force-layout libraries so
// that positions computed here match what the interactive page converges to:
// alpha starts at 1 and decays toward alphaTarget, velocities are damped by
// velocityDecay every tick, and three forces act on each node:
//
//   - link: springs pulling linked nodes to their preferred distance, with
//     strength 1/min(degree) and a bias toward moving the lighter end
//   - charge: pairwise repulsion (or attraction) bounded by distanceMin and
//     distanceMax
//   - center: independent x/y pulls toward the configured fraction of the
//     viewport
//
// Nodes without a position start on a phyllotaxis spiral around the center.
// Coincident nodes are separated by a seeded jiggle, so runs are
// reproducible for a given seed.
//
// A Simulation is owned by one goroutine; it is not safe for concurrent use.
package force

import (
	"context"
	"math"
	"math/rand"

	"github.com/matzehuels/entitygraph/pkg/graph"
)

// Integrator constants.
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultTicks         = 300
	PositionStrength     = 0.1

	// DragAlphaTarget is the alpha target held while a node is dragged.
	DragAlphaTarget = 0.3

	initialRadius = 10
)

var (
	initialAngle      = math.Pi * (3 - math.Sqrt(5))
	defaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/DefaultTicks)
)

// Body is a simulated node.
type Body struct {
	ID     string
	X, Y   float64
	VX, VY float64

	// Fixed pins the body at (FX, FY).
	Fixed  bool
	FX, FY float64
}

type spring struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64
}

// Simulation is a running force layout.
type Simulation struct {
	cfg           Config
	width, height float64

	bodies  []Body
	index   map[string]int
	springs []spring

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	running bool
	rng     *rand.Rand
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithSeed seeds the jiggle source.
func WithSeed(seed int64) Option {
	return func(s *Simulation) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithAlphaMin sets the alpha below which the simulation counts as settled.
func WithAlphaMin(v float64) Option {
	return func(s *Simulation) { s.alphaMin = v }
}

// WithAlphaDecay sets the per-tick alpha decay rate.
func WithAlphaDecay(v float64) Option {
	return func(s *Simulation) { s.alphaDecay = v }
}

// WithVelocityDecay sets the per-tick velocity damping.
func WithVelocityDecay(v float64) Option {
	return func(s *Simulation) { s.velocityDecay = v }
}

// WithPositions seeds initial positions by node id. Nodes not listed start
// on the spiral.
func WithPositions(pos map[string][2]float64) Option {
	return func(s *Simulation) {
		for id, p := range pos {
			if i, ok := s.index[id]; ok {
				s.bodies[i].X, s.bodies[i].Y = p[0], p[1]
			}
		}
	}
}

// New builds a simulation for g inside a width×height viewport. Links whose
// endpoints are missing from g are ignored.
func New(g graph.Graph, width, height float64, cfg Config, opts ...Option) *Simulation {
	s := &Simulation{
		cfg:           cfg,
		width:         width,
		height:        height,
		bodies:        make([]Body, len(g.Nodes)),
		index:         make(map[string]int, len(g.Nodes)),
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    defaultAlphaDecay,
		velocityDecay: DefaultVelocityDecay,
		running:       true,
		rng:           rand.New(rand.NewSource(1)),
	}

	cx, cy := s.center()
	for i, n := range g.Nodes {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i] = Body{ID: n.ID, X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
		if _, dup := s.index[n.ID]; !dup {
			s.index[n.ID] = i
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	degree := make([]int, len(s.bodies))
	for _, l := range g.Links {
		si, ok1 := s.index[l.Source]
		ti, ok2 := s.index[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		degree[si]++
		degree[ti]++
		s.springs = append(s.springs, spring{source: si, target: ti, distance: cfg.LinkDistance(l.Category)})
	}
	for i := range s.springs {
		sp := &s.springs[i]
		sp.strength = 1 / float64(min(degree[sp.source], degree[sp.target]))
		sp.bias = float64(degree[sp.source]) / float64(degree[sp.source]+degree[sp.target])
	}
	return s
}

func (s *Simulation) center() (float64, float64) {
	return s.width * s.cfg.Center.X, s.height * s.cfg.Center.Y
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current temperature.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// AlphaTarget returns the temperature alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the temperature alpha decays toward.
func (s *Simulation) SetAlphaTarget(a float64) { s.alphaTarget = a }

// Restart marks the simulation active again.
func (s *Simulation) Restart() { s.running = true }

// Stop marks the simulation inactive. Tick still advances it.
func (s *Simulation) Stop() { s.running = false }

// Active reports whether a driver should keep ticking: the simulation has
// not been stopped and it has not settled.
func (s *Simulation) Active() bool { return s.running && !s.Settled() }

// Settled reports whether alpha has cooled below alphaMin and the alpha
// target will not warm it again.
func (s *Simulation) Settled() bool { return s.alpha < s.alphaMin && s.alphaTarget < s.alphaMin }

// Config returns the force configuration in use.
func (s *Simulation) Config() Config { return s.cfg }

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	s.applyLinks()
	if s.cfg.Charge.Enabled {
		s.applyCharge()
	}
	s.applyPosition()

	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Fixed {
			b.X, b.Y = b.FX, b.FY
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= 1 - s.velocityDecay
		b.VY *= 1 - s.velocityDecay
		b.X += b.VX
		b.Y += b.VY
	}

	if s.Settled() {
		s.running = false
	}
}

// Run ticks until the simulation settles or ctx is done, returning the number
// of ticks taken. When alphaTarget keeps alpha above alphaMin, Run stops
// after DefaultTicks.
func (s *Simulation) Run(ctx context.Context) (int, error) {
	limit := math.MaxInt
	if s.alphaTarget >= s.alphaMin {
		limit = DefaultTicks
	}
	ticks := 0
	for !s.Settled() && ticks < limit {
		if err := ctx.Err(); err != nil {
			return ticks, err
		}
		s.Tick()
		ticks++
	}
	return ticks, nil
}

// Fix pins the node at (x, y). It reports whether the node exists.
func (s *Simulation) Fix(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	b := &s.bodies[i]
	b.Fixed, b.FX, b.FY = true, x, y
	return true
}

// Release unpins the node. It reports whether the node exists.
func (s *Simulation) Release(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bodies[i].Fixed = false
	return true
}

// Position returns the node's current position.
func (s *Simulation) Position(id string) (x, y float64, ok bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, 0, false
	}
	return s.bodies[i].X, s.bodies[i].Y, true
}

// Bodies returns a copy of all bodies in node order.
func (s *Simulation) Bodies() []Body {
	return append([]Body(nil), s.bodies...)
}

// Nearest returns the id of the node closest to (x, y) within radius.
func (s *Simulation) Nearest(x, y, radius float64) (string, bool) {
	best, bestD := -1, radius*radius
	for i, b := range s.bodies {
		dx, dy := b.X-x, b.Y-y
		if d := dx*dx + dy*dy; d <= bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return "", false
	}
	return s.bodies[best].ID, true
}
