package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
)

// Legend geometry.
const (
	legendWidth    = 250
	legendHeight   = 200
	legendRight    = 50
	legendRowH     = 24
	legendNodeSize = 8
	legendTextSize = 14
)

const arrowDefs = `<defs>
  <marker id="arrowhead" viewBox="0 -5 10 10" refX="18" refY="0" markerWidth="5" markerHeight="6" orient="auto-start-reverse">
    <path d="M0,-5L10,0L0,5" fill="#999"/>
  </marker>
</defs>
`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	legend bool
	labels bool
	view   *interaction.View
}

// WithLegend shows or hides the legend panel. The legend is shown by default.
func WithLegend(show bool) SVGOption { return func(r *svgRenderer) { r.legend = show } }

// WithLabels draws each node's label next to it.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithView applies the opacities and radii of an interaction view. The view
// must come from a controller built on the layout's graph.
func WithView(v interaction.View) SVGOption { return func(r *svgRenderer) { r.view = &v } }

// RenderSVG draws the layout as a standalone SVG document.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{legend: true}
	for _, opt := range opts {
		opt(&r)
	}

	pos := make(map[string]graph.PlacedNode, len(l.Nodes))
	for _, n := range l.Nodes {
		pos[n.ID] = n
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	buf.WriteString(arrowDefs)
	fmt.Fprintf(&buf, `<rect width="%.1f" height="%.1f" fill="white"/>`+"\n", l.Width, l.Height)

	r.renderLinks(&buf, l, pos)
	r.renderNodes(&buf, l)
	if r.legend && len(l.Legend) > 0 {
		renderLegend(&buf, l)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderLinks(buf *bytes.Buffer, l graph.Layout, pos map[string]graph.PlacedNode) {
	buf.WriteString(`<g class="links">` + "\n")
	for i, lk := range l.Links {
		src, ok1 := pos[lk.Source]
		dst, ok2 := pos[lk.Target]
		if !ok1 || !ok2 {
			continue
		}
		opacity := 1.0
		if r.view != nil && i < len(r.view.Links) {
			opacity = r.view.Links[i].Opacity
		}
		fmt.Fprintf(buf, `  <line class="link" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5" stroke-opacity="%s" data-relation="%s"`,
			src.X, src.Y, dst.X, dst.Y, attr(lk.Color), num(opacity), attr(lk.RelationType))
		if lk.Marker == graph.MarkerArrow {
			buf.WriteString(` marker-end="url(#arrowhead)"`)
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("</g>\n")
}

func (r *svgRenderer) renderNodes(buf *bytes.Buffer, l graph.Layout) {
	buf.WriteString(`<g class="nodes">` + "\n")
	for i, n := range l.Nodes {
		radius, opacity := n.Radius, 1.0
		if r.view != nil && i < len(r.view.Nodes) {
			radius, opacity = r.view.Nodes[i].Radius, r.view.Nodes[i].Opacity
		}
		fmt.Fprintf(buf, `  <circle class="node %s" id="node-%s" cx="%.2f" cy="%.2f" r="%s" fill="%s" opacity="%s"><title>%s</title></circle>`+"\n",
			n.Category, attr(n.ID), n.X, n.Y, num(radius), attr(n.Color), num(opacity), html.EscapeString(n.Label))
		if r.labels {
			fmt.Fprintf(buf, `  <text class="node-label" x="%.2f" y="%.2f" font-size="10" font-family="sans-serif" opacity="%s">%s</text>`+"\n",
				n.X+radius+2, n.Y+3, num(opacity), html.EscapeString(n.Label))
		}
	}
	buf.WriteString("</g>\n")
}

func renderLegend(buf *bytes.Buffer, l graph.Layout) {
	x := math.Max(0, l.Width-legendRight-legendWidth)
	y := math.Max(0, l.Height-legendHeight-30)
	fmt.Fprintf(buf, `<g class="legend" transform="translate(%.1f,%.1f)" font-family="sans-serif" font-size="%d">`+"\n", x, y, legendTextSize)
	for i, row := range l.Legend {
		cy := float64(i*legendRowH + legendNodeSize)
		fmt.Fprintf(buf, `  <g class="legend-item %s">`, row.Category)
		if row.Description != "" {
			fmt.Fprintf(buf, `<title>%s</title>`, html.EscapeString(row.Description))
		}
		fmt.Fprintf(buf, `<circle cx="%d" cy="%.1f" r="%d" fill="%s"/><text x="%d" y="%.1f">%s</text></g>`+"\n",
			legendNodeSize, cy, legendNodeSize, attr(row.Color), legendNodeSize*2+8, cy+5, html.EscapeString(row.Label))
	}
	buf.WriteString("</g>\n")
}

func attr(s string) string { return html.EscapeString(s) }

func num(f float64) string { return fmt.Sprintf("%g", math.Round(f*100)/100) }
