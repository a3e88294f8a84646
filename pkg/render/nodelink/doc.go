// Package nodelink exports entity graphs as Graphviz node-link diagrams.
//
// # Overview
//
// [ToDOT] writes a [graph.Layout] as DOT source: primary nodes are filled
// circles in their resolved color, attribute nodes are smaller circles, and
// structural links carry arrowheads. With [Options.Pinned] the simulated
// positions are written as pinned "pos" attributes, so the neato engine
// reproduces the force layout instead of computing its own.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{Pinned: true})
//	svg, err := nodelink.RenderSVG(dot, nodelink.EngineNeato)
//
// For PDF or PNG output, convert the SVG with [render.ToPDF] or
// [render.ToPNG].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [graph.Layout]: github.com/matzehuels/entitygraph/pkg/graph.Layout
// [render.ToPDF]: github.com/matzehuels/entitygraph/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/entitygraph/pkg/render.ToPNG
package nodelink
