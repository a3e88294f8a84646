// Package transform converts entities into the node/link graph that the
// layout and render stages consume.
//
// # Classification
//
// Transform makes two passes over the input. The first emits one primary
// node per entity and collects all entity ids. The second walks every
// property in order:
//
//   - A string value equal to a known entity id becomes a structural link
//     from the entity to that id, tagged with the property key.
//   - Any other value becomes an attribute node "<entityId>_<value>" plus an
//     attribute link, unless the key is excluded or attributes are disabled.
//
// Identical (entity, value) pairs collapse onto one attribute node; the node
// keeps the key that produced it first, while every property still gets its
// own link. Structural links are emitted even for excluded keys. Cycles and
// self loops pass through unchanged.
//
// # Visibility
//
// Attribute links are always visible. Structural links are visible only when
// ShowPrimaryLinks is set. Invisible links are dropped before returning.
package transform

import (
	"strings"

	"github.com/matzehuels/entitygraph/pkg/entity"
	"github.com/matzehuels/entitygraph/pkg/graph"
)

// Transformer carries the toggles that shape the derived graph.
type Transformer struct {
	ShowPrimaryLinks bool
	ShowAttributes   bool
}

// New returns a Transformer with both toggles enabled.
func New() Transformer {
	return Transformer{ShowPrimaryLinks: true, ShowAttributes: true}
}

// Transform derives nodes and visible links from entities. Properties whose
// key is in excluded produce no attribute node or link. The result never
// shares memory with the input.
func (t Transformer) Transform(entities []entity.Entity, excluded []string) graph.Graph {
	out := graph.Graph{
		Nodes:          make([]graph.Node, 0, len(entities)),
		Links:          []graph.Link{},
		PrimaryNodeIDs: make([]string, 0, len(entities)),
	}

	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		out.Nodes = append(out.Nodes, graph.Primary(e.ID, e.Type()))
		out.PrimaryNodeIDs = append(out.PrimaryNodeIDs, e.ID)
		known[e.ID] = true
	}

	skip := make(map[string]bool, len(excluded))
	for _, k := range excluded {
		skip[k] = true
	}

	var all []graph.Link
	emitted := make(map[string]bool)
	for _, e := range entities {
		for _, p := range e.Properties {
			if p.Value.IsString() && known[p.Value.Text()] {
				all = append(all, graph.Link{
					Source:       e.ID,
					Target:       p.Value.Text(),
					Category:     graph.CategoryNonAttribute,
					RelationType: p.Key,
					Visible:      t.ShowPrimaryLinks,
				})
				continue
			}
			if skip[p.Key] || !t.ShowAttributes {
				continue
			}

			node := graph.Attribute(e.ID, p.Key, p.Value.Text())
			if !emitted[node.ID] && !known[node.ID] {
				emitted[node.ID] = true
				out.Nodes = append(out.Nodes, node)
			}
			all = append(all, graph.Link{
				Source:       e.ID,
				Target:       node.ID,
				Category:     graph.CategoryAttribute,
				RelationType: p.Key,
				Visible:      true,
			})
		}
	}

	for _, l := range all {
		if l.Visible {
			out.Links = append(out.Links, l)
		}
	}
	return out
}

// ParseExclusions splits a comma-separated key list, trimming whitespace and
// dropping empty entries.
func ParseExclusions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if k := strings.TrimSpace(part); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// EntitiesFromNodes turns derived nodes back into entities without
// properties, so a graph can be fed through Transform again.
func EntitiesFromNodes(nodes []graph.Node) []entity.Entity {
	out := make([]entity.Entity, len(nodes))
	for i, n := range nodes {
		out[i] = entity.Entity{ID: n.ID}
		if n.Type != "" {
			out[i].Properties = entity.Properties{{Key: entity.TypeKey, Value: entity.String(n.Type)}}
		}
	}
	return out
}
