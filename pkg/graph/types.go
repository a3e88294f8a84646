package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Category classifies nodes and links.
type Category string

// Node and link categories. Primary nodes and structural links share the
// non_attribute category.
const (
	CategoryNonAttribute Category = "non_attribute"
	CategoryAttribute    Category = "attribute"
)

// Marker names used on link ends.
const (
	MarkerNone  = ""
	MarkerArrow = "arrow"
)

// =============================================================================
// Graph - Derived Node/Link Set
// =============================================================================

// Graph is the node/link set derived from a batch of entities.
// Used for API responses, caching and as simulation input.
type Graph struct {
	Nodes          []Node   `json:"nodes" bson:"nodes"`
	Links          []Link   `json:"links" bson:"links"`
	PrimaryNodeIDs []string `json:"primaryNodeIds" bson:"primary_node_ids"`
}

// =============================================================================
// Node - Tagged Union
// =============================================================================

// Node is either a primary node (one per entity) or an attribute node (one
// per distinct entity/value pair). Check Category to tell them apart:
//
//	Primary ("non_attribute"):
//	  - ID: the entity id
//	  - Type: the entity's "type" property, when present
//
//	Attribute ("attribute"):
//	  - ID: "<entityId>_<value>"
//	  - Key, Value: the property that produced it
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Category Category `json:"category" bson:"category"`
	Type     string   `json:"type,omitempty" bson:"type,omitempty"`
	Key      string   `json:"key,omitempty" bson:"key,omitempty"`
	Value    string   `json:"value,omitempty" bson:"value,omitempty"`
}

// Primary returns a primary node.
func Primary(id, typ string) Node {
	return Node{ID: id, Category: CategoryNonAttribute, Type: typ}
}

// Attribute returns the attribute node for a property of entity entityID.
func Attribute(entityID, key, value string) Node {
	return Node{ID: AttributeID(entityID, value), Category: CategoryAttribute, Key: key, Value: value}
}

// AttributeID derives an attribute node id from its owning entity and the
// property value text.
func AttributeID(entityID, value string) string {
	return entityID + "_" + value
}

// IsPrimary returns true for entity nodes.
func (n Node) IsPrimary() bool { return n.Category == CategoryNonAttribute }

// IsAttribute returns true for attribute nodes.
func (n Node) IsAttribute() bool { return n.Category == CategoryAttribute }

// DisplayLabel returns the id for primary nodes and the value for attribute
// nodes.
func (n Node) DisplayLabel() string {
	if n.IsAttribute() {
		return n.Value
	}
	return n.ID
}

// =============================================================================
// Link - Directed Relationship
// =============================================================================

// Link is a directed edge. RelationType is the property key that produced it.
type Link struct {
	Source       string   `json:"source" bson:"source"`
	Target       string   `json:"target" bson:"target"`
	Category     Category `json:"category" bson:"category"`
	RelationType string   `json:"relationType" bson:"relation_type"`
	Visible      bool     `json:"visible" bson:"visible"`
}

// IsStructural returns true for links between two primary nodes.
func (l Link) IsStructural() bool { return l.Category == CategoryNonAttribute }

// =============================================================================
// Lookups
// =============================================================================

// Index maps node ids to their position in g.Nodes.
func (g Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Neighbors returns the ids of nodes connected to id by a structural link in
// either direction, in link order without duplicates.
func (g Graph) Neighbors(id string) []string {
	seen := map[string]bool{id: true}
	var out []string
	for _, l := range g.Links {
		if !l.IsStructural() {
			continue
		}
		var other string
		switch id {
		case l.Source:
			other = l.Target
		case l.Target:
			other = l.Source
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// Counts returns the number of primary nodes, attribute nodes and structural links.
func (g Graph) Counts() (primary, attribute, structural int) {
	for _, n := range g.Nodes {
		if n.IsAttribute() {
			attribute++
		} else {
			primary++
		}
	}
	for _, l := range g.Links {
		if l.IsStructural() {
			structural++
		}
	}
	return primary, attribute, structural
}

// Validate checks that every link endpoint names a node.
func (g Graph) Validate() error {
	idx := g.Index()
	for _, l := range g.Links {
		if _, ok := idx[l.Source]; !ok {
			return fmt.Errorf("link %s→%s: unknown source", l.Source, l.Target)
		}
		if _, ok := idx[l.Target]; !ok {
			return fmt.Errorf("link %s→%s: unknown target", l.Source, l.Target)
		}
	}
	return nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
