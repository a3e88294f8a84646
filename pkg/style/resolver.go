// Package style resolves colors, labels, radii and markers for a derived
// graph and builds its legend.
//
// # Precedence
//
// Attribute nodes are styled by their property key:
//
//  1. The first configuration entry naming the key in "properties".
//  2. The palette, keyed by the property key.
//
// Primary nodes are styled by their type:
//
//  1. The first "primaryNodeConfigurations" rule whose typeRegEx matches the
//     node's type.
//  2. When a configuration is present, the first entry's top-level color and
//     label ([DefaultPrimaryColor] and "Primary Node" when unset).
//  3. The palette, keyed by the node's type, or by its id when untyped.
//
// Empty strings in the configuration count as unset. Rules with an invalid
// regular expression and colors that fail validation are logged and
// ignored; the rest of the configuration still applies.
package style

import (
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
)

// Visual constants.
const (
	PrimaryRadius   = 10
	AttributeRadius = 7
	HighlightRadius = 20

	LinkColor           = "#d3d3d3"
	DefaultPrimaryColor = "#008080"
	DefaultPrimaryLabel = "Primary Node"
)

// NodeStyle is the visual encoding of one node.
type NodeStyle struct {
	Color  string
	Radius float64
	// Label is the text drawn next to the node.
	Label string
	// Group is the legend row the node belongs to.
	Group       string
	Description string
}

// LinkStyle is the visual encoding of one link.
type LinkStyle struct {
	Color    string
	Marker   string
	Distance float64
}

// Styled is a resolved graph: styles aligned with g.Nodes and g.Links.
type Styled struct {
	Nodes  []NodeStyle
	Links  []LinkStyle
	Legend []graph.LegendEntry
}

type typeRule struct {
	re          *regexp.Regexp
	label       string
	color       string
	description string
}

// Resolver applies a configuration to graphs. It keeps no state between
// calls, so resolving the same graph twice yields the same result.
type Resolver struct {
	rules     []typeRule
	attrs     map[string]PropertyStyle
	hasConfig bool

	primaryLabel       string
	primaryColor       string
	primaryDescription string

	forces force.Config
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithForces sets the force configuration used for link distances.
func WithForces(cfg force.Config) ResolverOption {
	return func(r *Resolver) { r.forces = cfg }
}

// NewResolver compiles cfg. Invalid rules and colors are reported to logger
// (which may be nil) and skipped.
func NewResolver(cfg Configuration, logger *log.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		attrs:        make(map[string]PropertyStyle),
		hasConfig:    len(cfg) > 0,
		primaryLabel: DefaultPrimaryLabel,
		primaryColor: DefaultPrimaryColor,
		forces:       force.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	color := func(c, where string) string {
		if c == "" {
			return ""
		}
		if err := errors.ValidateColor(c); err != nil {
			if logger != nil {
				logger.Warn("ignoring color", "where", where, "err", err)
			}
			return ""
		}
		return c
	}

	if r.hasConfig {
		top := cfg[0]
		if top.Label != "" {
			r.primaryLabel = top.Label
		}
		if c := color(top.Color, "top-level"); c != "" {
			r.primaryColor = c
		}
		r.primaryDescription = top.Description
	}

	for _, entry := range cfg {
		for _, props := range entry.Properties {
			for key, ps := range props {
				if _, dup := r.attrs[key]; dup {
					continue
				}
				ps.Color = color(ps.Color, "property "+key)
				r.attrs[key] = ps
			}
		}
		for _, rule := range entry.PrimaryNodeConfigurations {
			if rule.TypeRegEx == "" {
				continue
			}
			re, err := regexp.Compile(rule.TypeRegEx)
			if err != nil {
				if logger != nil {
					logger.Warn("ignoring type rule", "typeRegEx", rule.TypeRegEx, "err", err)
				}
				continue
			}
			r.rules = append(r.rules, typeRule{
				re:          re,
				label:       rule.NodeLabel,
				color:       color(rule.NodeColor, "rule "+rule.TypeRegEx),
				description: rule.Description,
			})
		}
	}
	return r
}

// Resolve styles every node and link of g and builds the legend.
func (r *Resolver) Resolve(g graph.Graph) Styled {
	p := NewPalette()
	out := Styled{
		Nodes: make([]NodeStyle, len(g.Nodes)),
		Links: make([]LinkStyle, len(g.Links)),
	}

	for i, n := range g.Nodes {
		if n.IsAttribute() {
			out.Nodes[i] = r.attributeStyle(n, p)
		} else {
			out.Nodes[i] = r.primaryStyle(n, p)
		}
	}

	for i, l := range g.Links {
		ls := LinkStyle{Color: LinkColor, Distance: r.forces.LinkDistance(l.Category)}
		if l.IsStructural() {
			ls.Marker = graph.MarkerArrow
		}
		out.Links[i] = ls
	}

	out.Legend = r.legend(g, out.Nodes, p)
	return out
}

func (r *Resolver) attributeStyle(n graph.Node, p *Palette) NodeStyle {
	s := NodeStyle{Radius: AttributeRadius, Label: n.DisplayLabel(), Group: n.Key}
	if ps, ok := r.attrs[n.Key]; ok {
		if ps.Label != "" {
			s.Group = ps.Label
		}
		s.Color = ps.Color
		s.Description = ps.Description
	}
	if s.Color == "" {
		s.Color = p.Color(n.Key)
	}
	return s
}

func (r *Resolver) primaryStyle(n graph.Node, p *Palette) NodeStyle {
	s := NodeStyle{Radius: PrimaryRadius, Label: n.DisplayLabel()}
	if n.Type != "" {
		for _, rule := range r.rules {
			if !rule.re.MatchString(n.Type) {
				continue
			}
			s.Group = rule.label
			s.Color = rule.color
			s.Description = rule.description
			if s.Group == "" {
				s.Group = r.primaryLabel
			}
			if s.Color == "" {
				s.Color = r.primaryColor
			}
			return s
		}
	}

	if r.hasConfig {
		s.Group = r.primaryLabel
		s.Color = r.primaryColor
		s.Description = r.primaryDescription
		return s
	}

	if n.Type != "" {
		s.Group = n.Type
		s.Color = p.Color(n.Type)
	} else {
		s.Group = DefaultPrimaryLabel
		s.Color = p.Color(n.ID)
	}
	return s
}

// PropertyStyle returns the configured styling for an attribute key.
func (r *Resolver) PropertyStyle(key string) (PropertyStyle, bool) {
	ps, ok := r.attrs[key]
	return ps, ok
}
