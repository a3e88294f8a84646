// Package interaction holds the hover, selection and drag state of a graph
// view.
//
// Each node is Idle, Hovered or Selected. Hovering highlights the node and
// its structural neighbours and dims everything else; clicking pins that
// highlight until the same node is clicked again or a click lands outside
// every node. While a node is Selected, hovering other nodes only moves the
// tooltip. Dragging pins a node to the pointer and keeps the simulation warm
// until the last drag ends.
//
// The Controller owns this state explicitly and reports it as a [View], so
// the same logic drives the terminal explorer, the server's live sessions
// and tests. A Controller is not safe for concurrent use.
package interaction

import (
	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/style"
)

// Opacities and tooltip placement.
const (
	DimOpacity  = 0.1
	FullOpacity = 1.0

	TooltipOffsetX = 10
	TooltipOffsetY = -30
)

// Point is a pointer position in drawing-surface coordinates.
type Point struct {
	X, Y float64
}

// Simulation is the part of a force simulation the controller drives.
// *force.Simulation implements it.
type Simulation interface {
	SetAlphaTarget(float64)
	Restart()
	Fix(id string, x, y float64) bool
	Release(id string) bool
	Position(id string) (x, y float64, ok bool)
}

var _ Simulation = (*force.Simulation)(nil)

// NodeView is the rendered state of one node.
type NodeView struct {
	ID          string  `json:"id"`
	Opacity     float64 `json:"opacity"`
	Radius      float64 `json:"radius"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// LinkView is the rendered state of one link.
type LinkView struct {
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Tooltip is the hover label.
type Tooltip struct {
	Visible bool    `json:"visible"`
	Text    string  `json:"text,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// View is a snapshot of the interaction state. Nodes and Links are aligned
// with the graph the controller was built from.
type View struct {
	Nodes    []NodeView `json:"nodes"`
	Links    []LinkView `json:"links"`
	Tooltip  Tooltip    `json:"tooltip"`
	Hovered  string     `json:"hovered,omitempty"`
	Selected string     `json:"selected,omitempty"`
}

// Controller is the interaction state machine for one graph.
type Controller struct {
	g          graph.Graph
	index      map[string]int
	baseRadius []float64
	sim        Simulation

	hoverDetails bool
	hovered      string
	selected     string
	dragged      map[string]struct{}

	view View
}

// Option configures a Controller.
type Option func(*Controller)

// WithSimulation attaches the simulation that drags act on.
func WithSimulation(s Simulation) Option {
	return func(c *Controller) { c.sim = s }
}

// WithHoverDetails enables or disables hover highlighting and tooltips.
func WithHoverDetails(enabled bool) Option {
	return func(c *Controller) { c.hoverDetails = enabled }
}

// WithRadii overrides the resting radius of each node, aligned with the
// graph's nodes.
func WithRadii(radii []float64) Option {
	return func(c *Controller) {
		if len(radii) == len(c.baseRadius) {
			copy(c.baseRadius, radii)
		}
	}
}

// New returns a controller for g with every node Idle.
func New(g graph.Graph, opts ...Option) *Controller {
	c := &Controller{
		g:            g,
		index:        g.Index(),
		baseRadius:   make([]float64, len(g.Nodes)),
		hoverDetails: true,
		dragged:      make(map[string]struct{}),
	}
	for i, n := range g.Nodes {
		if n.IsAttribute() {
			c.baseRadius[i] = style.AttributeRadius
		} else {
			c.baseRadius[i] = style.PrimaryRadius
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.view = View{
		Nodes: make([]NodeView, len(g.Nodes)),
		Links: make([]LinkView, len(g.Links)),
	}
	c.reset()
	return c
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	v := c.view
	v.Nodes = append([]NodeView(nil), c.view.Nodes...)
	v.Links = append([]LinkView(nil), c.view.Links...)
	v.Hovered = c.hovered
	v.Selected = c.selected
	return v
}

// Selected returns the id of the selected node, or "".
func (c *Controller) Selected() string { return c.selected }

// Hovered returns the id of the hovered node, or "".
func (c *Controller) Hovered() string { return c.hovered }

// =============================================================================
// Pointer Events
// =============================================================================

// Hover enters node id with the pointer at p. Unknown ids are ignored.
func (c *Controller) Hover(id string, p Point) View {
	i, ok := c.index[id]
	if !ok || !c.hoverDetails {
		return c.View()
	}
	c.hovered = id
	c.view.Tooltip = Tooltip{
		Visible: true,
		Text:    c.g.Nodes[i].DisplayLabel(),
		X:       p.X + TooltipOffsetX,
		Y:       p.Y + TooltipOffsetY,
	}
	if c.selected == "" {
		c.highlight(id, false)
	}
	return c.View()
}

// Move follows the pointer with the tooltip.
func (c *Controller) Move(p Point) View {
	if c.view.Tooltip.Visible {
		c.view.Tooltip.X = p.X + TooltipOffsetX
		c.view.Tooltip.Y = p.Y + TooltipOffsetY
	}
	return c.View()
}

// Leave exits node id. The highlight is cleared unless a node is selected.
func (c *Controller) Leave(id string) View {
	if id != c.hovered {
		return c.View()
	}
	c.hovered = ""
	c.view.Tooltip = Tooltip{}
	if c.selected == "" {
		c.reset()
	}
	return c.View()
}

// Click toggles the selection of node id. Selecting a node replaces any
// previous selection. Unknown ids are ignored.
func (c *Controller) Click(id string) View {
	if _, ok := c.index[id]; !ok {
		return c.View()
	}
	if c.selected == id {
		c.selected = ""
		c.reset()
		if c.hovered != "" && c.hoverDetails {
			c.highlight(c.hovered, false)
		}
		return c.View()
	}
	c.selected = id
	c.reset()
	c.highlight(id, true)
	return c.View()
}

// ClickOutside clears the selection and restores every element.
func (c *Controller) ClickOutside() View {
	c.selected = ""
	c.hovered = ""
	c.view.Tooltip = Tooltip{}
	c.reset()
	return c.View()
}

// =============================================================================
// Drag
// =============================================================================

// DragStart pins node id where it currently is. The first active drag raises
// the simulation's alpha target and restarts it. Starting a drag on a node
// that is already dragged only re-pins it.
func (c *Controller) DragStart(id string) {
	if c.sim == nil {
		return
	}
	if _, ok := c.index[id]; !ok {
		return
	}
	if len(c.dragged) == 0 {
		c.sim.SetAlphaTarget(force.DragAlphaTarget)
		c.sim.Restart()
	}
	c.dragged[id] = struct{}{}
	if x, y, ok := c.sim.Position(id); ok {
		c.sim.Fix(id, x, y)
	}
}

// DragMove pins node id at the pointer.
func (c *Controller) DragMove(id string, p Point) {
	if c.sim == nil {
		return
	}
	c.sim.Fix(id, p.X, p.Y)
}

// DragEnd releases node id. The last active drag lets the simulation cool.
// Ids that are not being dragged are ignored.
func (c *Controller) DragEnd(id string) {
	if c.sim == nil {
		return
	}
	if _, ok := c.dragged[id]; !ok {
		return
	}
	delete(c.dragged, id)
	if len(c.dragged) == 0 {
		c.sim.SetAlphaTarget(0)
	}
	c.sim.Release(id)
}

// Dragging reports whether any drag is active.
func (c *Controller) Dragging() bool { return len(c.dragged) > 0 }

// =============================================================================
// Serialized Events
// =============================================================================

// Event types accepted by Apply.
const (
	EventHover        = "hover"
	EventMove         = "move"
	EventLeave        = "leave"
	EventClick        = "click"
	EventClickOutside = "clickOutside"
	EventDragStart    = "dragStart"
	EventDragMove     = "dragMove"
	EventDragEnd      = "dragEnd"
)

// Event is a pointer event in serialized form. X and Y are ignored by
// events that carry no position.
type Event struct {
	Type string  `json:"type"`
	ID   string  `json:"id,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

// Apply dispatches e to the matching method and returns the resulting view.
// Unknown event types are an INVALID_INPUT error.
func (c *Controller) Apply(e Event) (View, error) {
	p := Point{X: e.X, Y: e.Y}
	switch e.Type {
	case EventHover:
		return c.Hover(e.ID, p), nil
	case EventMove:
		return c.Move(p), nil
	case EventLeave:
		return c.Leave(e.ID), nil
	case EventClick:
		return c.Click(e.ID), nil
	case EventClickOutside:
		return c.ClickOutside(), nil
	case EventDragStart:
		c.DragStart(e.ID)
	case EventDragMove:
		c.DragMove(e.ID, p)
	case EventDragEnd:
		c.DragEnd(e.ID)
	default:
		return c.View(), errors.New(errors.ErrCodeInvalidInput, "unknown event type %q", e.Type)
	}
	return c.View(), nil
}

// =============================================================================
// Internal
// =============================================================================

func (c *Controller) reset() {
	for i, n := range c.g.Nodes {
		c.view.Nodes[i] = NodeView{ID: n.ID, Opacity: FullOpacity, Radius: c.baseRadius[i]}
	}
	for i := range c.g.Links {
		c.view.Links[i] = LinkView{Opacity: FullOpacity}
	}
}

// highlight dims everything except id, its structural neighbours and the
// structural links touching id. Pinned highlights also enlarge the nodes.
func (c *Controller) highlight(id string, pinned bool) {
	lit := map[string]bool{id: true}
	for _, n := range c.g.Neighbors(id) {
		lit[n] = true
	}

	for i, n := range c.g.Nodes {
		v := &c.view.Nodes[i]
		if lit[n.ID] {
			v.Opacity = FullOpacity
			v.Highlighted = true
			if pinned {
				v.Radius = style.HighlightRadius
			}
		} else {
			v.Opacity = DimOpacity
			v.Highlighted = false
			v.Radius = c.baseRadius[i]
		}
	}
	for i, l := range c.g.Links {
		v := &c.view.Links[i]
		if l.IsStructural() && (l.Source == id || l.Target == id) {
			v.Opacity = FullOpacity
			v.Highlighted = true
		} else {
			v.Opacity = DimOpacity
			v.Highlighted = false
		}
	}
}
