package sink

import (
	"encoding/json"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	view    *interaction.View
	compact bool
}

// WithJSONView includes the interaction state in the output.
func WithJSONView(v interaction.View) JSONOption { return func(r *jsonRenderer) { r.view = &v } }

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type jsonOutput struct {
	graph.Layout
	View *interaction.View `json:"view,omitempty"`
}

// RenderJSON encodes the layout, and the view when given, as the view model
// consumed by external front ends.
func RenderJSON(l graph.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if l.Nodes == nil {
		l.Nodes = []graph.PlacedNode{}
	}
	if l.Links == nil {
		l.Links = []graph.PlacedLink{}
	}
	out := jsonOutput{Layout: l, View: r.view}
	if r.compact {
		return json.Marshal(out)
	}
	return json.MarshalIndent(out, "", "  ")
}
