// Package sink writes a positioned entity graph to output formats.
//
// Every renderer takes a [graph.Layout] and functional options:
//
//	svg := sink.RenderSVG(l, sink.WithLegend(true))
//	page, err := sink.RenderHTML(l, sink.WithTitle("Datasets"), sink.WithLiveURL("/ws"))
//	data, err := sink.RenderJSON(l, sink.WithJSONView(ctrl.View()))
//
// The SVG is static: it draws the settled positions and, optionally, the
// highlight state of an [interaction.View]. The HTML page re-runs the force
// simulation in the browser with D3 and implements hover, click and drag.
//
// [graph.Layout]: github.com/matzehuels/entitygraph/pkg/graph.Layout
// [interaction.View]: github.com/matzehuels/entitygraph/pkg/interaction.View
package sink
