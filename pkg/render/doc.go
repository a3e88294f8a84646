// Package render turns a positioned entity graph into output artifacts.
//
// # Overview
//
// The [sink] subpackage writes a [graph.Layout] as a static SVG, an
// interactive HTML page, or JSON. The [nodelink] subpackage emits Graphviz
// DOT with the simulated positions pinned, and renders it in-process.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// [sink]: github.com/matzehuels/entitygraph/pkg/render/sink
// [nodelink]: github.com/matzehuels/entitygraph/pkg/render/nodelink
// [graph.Layout]: github.com/matzehuels/entitygraph/pkg/graph.Layout
package render
