package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Positioned, Styled Graph
// =============================================================================

// Layout is the serialization format for a rendered view: every node with
// its resolved position and visual encoding, every visible link with its
// stroke, marker and preferred distance, and the legend rows.
//
// Layouts are produced by the pipeline and consumed by the render sinks, the
// HTTP API and the cache.
type Layout struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Nodes  []PlacedNode  `json:"nodes" bson:"nodes"`
	Links  []PlacedLink  `json:"links" bson:"links"`
	Legend []LegendEntry `json:"legend,omitempty" bson:"legend,omitempty"`

	// Ticks is the number of simulation steps run before the positions were
	// captured. Zero means positions are the initial placement.
	Ticks int `json:"ticks,omitempty" bson:"ticks,omitempty"`
}

// PlacedNode is a node with position and visual encoding.
type PlacedNode struct {
	Node   `bson:",inline"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Color  string  `json:"color" bson:"color"`
	Radius float64 `json:"radius" bson:"radius"`
	Label  string  `json:"label" bson:"label"`
}

// PlacedLink is a visible link with visual encoding.
type PlacedLink struct {
	Link     `bson:",inline"`
	Color    string  `json:"color" bson:"color"`
	Marker   string  `json:"marker,omitempty" bson:"marker,omitempty"`
	Distance float64 `json:"distance" bson:"distance"`
}

// LegendEntry is one legend row.
type LegendEntry struct {
	Label       string   `json:"label" bson:"label"`
	Color       string   `json:"color" bson:"color"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Category    Category `json:"category" bson:"category"`
	// Key is the attribute key for attribute rows and the node type for
	// typed primary rows.
	Key string `json:"key,omitempty" bson:"key,omitempty"`
}

// Node returns the placed node with the given id.
func (l *Layout) Node(id string) (PlacedNode, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PlacedNode{}, false
}

// Graph strips positions and encoding, returning the underlying node/link set.
func (l *Layout) Graph() Graph {
	g := Graph{
		Nodes: make([]Node, len(l.Nodes)),
		Links: make([]Link, len(l.Links)),
	}
	for i, n := range l.Nodes {
		g.Nodes[i] = n.Node
		if n.IsPrimary() {
			g.PrimaryNodeIDs = append(g.PrimaryNodeIDs, n.ID)
		}
	}
	for i, lk := range l.Links {
		g.Links[i] = lk.Link
	}
	return g
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	if l.Nodes == nil {
		l.Nodes = []PlacedNode{}
	}
	if l.Links == nil {
		l.Links = []PlacedLink{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates dimensions and link endpoints.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout must have positive dimensions")
	}
	if err := l.Graph().Validate(); err != nil {
		return Layout{}, fmt.Errorf("layout: %w", err)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
