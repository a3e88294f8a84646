package style

import "github.com/matzehuels/entitygraph/pkg/graph"

// legend builds one row per distinct (group, color) pair among primary nodes
// and one row per attribute key present in g, in order of first appearance.
// A primary row takes the description of its first node.
func (r *Resolver) legend(g graph.Graph, styles []NodeStyle, p *Palette) []graph.LegendEntry {
	var rows []graph.LegendEntry

	groups := make(map[string]bool)
	for i, n := range g.Nodes {
		if !n.IsPrimary() {
			continue
		}
		s := styles[i]
		group := s.Group + "\x00" + s.Color
		if groups[group] {
			continue
		}
		groups[group] = true
		rows = append(rows, graph.LegendEntry{
			Label:       s.Group,
			Color:       s.Color,
			Description: s.Description,
			Category:    graph.CategoryNonAttribute,
			Key:         n.Type,
		})
	}

	keys := make(map[string]bool)
	addKey := func(key string) {
		if keys[key] {
			return
		}
		keys[key] = true
		row := graph.LegendEntry{Label: key, Category: graph.CategoryAttribute, Key: key}
		if ps, ok := r.attrs[key]; ok {
			if ps.Label != "" {
				row.Label = ps.Label
			}
			row.Color = ps.Color
			row.Description = ps.Description
		}
		if row.Color == "" {
			row.Color = p.Color(key)
		}
		rows = append(rows, row)
	}
	for _, n := range g.Nodes {
		if n.IsAttribute() {
			addKey(n.Key)
		}
	}
	for _, l := range g.Links {
		if l.Category == graph.CategoryAttribute {
			addKey(l.RelationType)
		}
	}
	return rows
}
