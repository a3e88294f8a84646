package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
	"github.com/matzehuels/entitygraph/pkg/style"
)

// D3URL is the script the HTML page loads D3 from.
const D3URL = "https://d3js.org/d3.v7.min.js"

// HTMLOption configures HTML rendering.
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title        string
	liveURL      string
	hoverDetails bool
	legend       bool
	forces       force.Config
}

// WithTitle sets the page title.
func WithTitle(t string) HTMLOption { return func(r *htmlRenderer) { r.title = t } }

// WithLiveURL makes the page reload when the websocket at url sends an update.
func WithLiveURL(url string) HTMLOption { return func(r *htmlRenderer) { r.liveURL = url } }

// WithHoverDetails enables or disables hover highlighting and tooltips.
func WithHoverDetails(enabled bool) HTMLOption {
	return func(r *htmlRenderer) { r.hoverDetails = enabled }
}

// WithHTMLLegend shows or hides the legend.
func WithHTMLLegend(show bool) HTMLOption { return func(r *htmlRenderer) { r.legend = show } }

// WithForces sets the parameters of the in-browser simulation.
func WithForces(cfg force.Config) HTMLOption { return func(r *htmlRenderer) { r.forces = cfg } }

type pageSettings struct {
	HoverDetails    bool         `json:"hoverDetails"`
	Legend          bool         `json:"legend"`
	LiveURL         string       `json:"liveUrl,omitempty"`
	Center          force.Center `json:"center"`
	Charge          force.Charge `json:"charge"`
	DragAlphaTarget float64      `json:"dragAlphaTarget"`
	HighlightRadius float64      `json:"highlightRadius"`
	DimOpacity      float64      `json:"dimOpacity"`
	TooltipOffsetX  float64      `json:"tooltipOffsetX"`
	TooltipOffsetY  float64      `json:"tooltipOffsetY"`
}

// RenderHTML produces a self-contained page that animates the layout with
// D3 and implements hover, click-to-select and drag.
func RenderHTML(l graph.Layout, opts ...HTMLOption) ([]byte, error) {
	r := htmlRenderer{
		title:        "Entity Graph",
		hoverDetails: true,
		legend:       true,
		forces:       force.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&r)
	}

	layoutJSON, err := RenderJSON(l, WithJSONCompact())
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	settingsJSON, err := json.Marshal(pageSettings{
		HoverDetails:    r.hoverDetails,
		Legend:          r.legend,
		LiveURL:         r.liveURL,
		Center:          r.forces.Center,
		Charge:          r.forces.Charge,
		DragAlphaTarget: force.DragAlphaTarget,
		HighlightRadius: style.HighlightRadius,
		DimOpacity:      interaction.DimOpacity,
		TooltipOffsetX:  interaction.TooltipOffsetX,
		TooltipOffsetY:  interaction.TooltipOffsetY,
	})
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	data := struct {
		Title        string
		D3URL        string
		Width        float64
		Height       float64
		LayoutJSON   template.JS
		SettingsJSON template.JS
	}{
		Title:        r.title,
		D3URL:        D3URL,
		Width:        l.Width,
		Height:       l.Height,
		LayoutJSON:   template.JS(layoutJSON),
		SettingsJSON: template.JS(settingsJSON),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(htmlTemplate))

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="{{.D3URL}}"></script>
    <style>
        body { margin: 0; font-family: sans-serif; }
        #graph { position: relative; width: {{.Width}}px; height: {{.Height}}px; }
        .tooltip { position: absolute; pointer-events: none; opacity: 0; background: lightgray; padding: 5px; border-radius: 5px; font-size: 12px; }
        .legend { position: absolute; right: 50px; bottom: 30px; width: 250px; max-height: 200px; overflow: auto; font-size: 14px; }
        .legend-item { display: flex; align-items: center; margin-bottom: 10px; cursor: pointer; }
        .legend-item span.swatch { width: 16px; height: 16px; border-radius: 50%; margin-right: 8px; flex: none; }
        .node { cursor: grab; stroke: #fff; stroke-width: 1.5px; }
    </style>
</head>
<body>
<div id="graph"></div>
<div class="tooltip" id="tooltip"></div>
<script>
const data = {{.LayoutJSON}};
const settings = {{.SettingsJSON}};
const width = data.width, height = data.height;

const nodes = data.nodes.map(d => Object.assign({}, d));
const links = data.links.map(d => Object.assign({}, d));

const neighbours = new Map(nodes.map(n => [n.id, new Set()]));
links.forEach(l => {
    if (l.category !== "non_attribute") return;
    neighbours.get(l.source)?.add(l.target);
    neighbours.get(l.target)?.add(l.source);
});

let selected = null;
let hovered = null;

const container = d3.select("#graph");
const tooltip = d3.select("#tooltip");
const svg = container.append("svg").attr("width", width).attr("height", height);

svg.append("defs").append("marker")
    .attr("id", "arrowhead")
    .attr("viewBox", [0, -5, 10, 10])
    .attr("refX", 18)
    .attr("refY", 0)
    .attr("markerWidth", 5)
    .attr("markerHeight", 6)
    .attr("orient", "auto-start-reverse")
    .append("path")
    .attr("d", "M0,-5L10,0L0,5")
    .attr("fill", "#999");

const charge = d3.forceManyBody().strength(settings.charge.strength).distanceMin(settings.charge.distanceMin);
if (settings.charge.distanceMax > 0) charge.distanceMax(settings.charge.distanceMax);

const simulation = d3.forceSimulation(nodes)
    .force("link", d3.forceLink(links).id(d => d.id).distance(d => d.distance))
    .force("charge", settings.charge.enabled ? charge : null)
    .force("x", d3.forceX(width * settings.center.x))
    .force("y", d3.forceY(height * settings.center.y));
if (data.ticks > 0) simulation.alpha(0.05);

const link = svg.append("g").attr("class", "links")
    .selectAll("line").data(links).join("line")
    .attr("class", "link")
    .attr("stroke", d => d.color)
    .attr("stroke-width", 1.5)
    .attr("marker-end", d => d.marker === "arrow" ? "url(#arrowhead)" : null);

const node = svg.append("g").attr("class", "nodes")
    .selectAll("circle").data(nodes).join("circle")
    .attr("class", "node")
    .attr("r", d => d.radius)
    .attr("fill", d => d.color)
    .call(d3.drag()
        .on("start", dragStarted)
        .on("drag", dragged)
        .on("end", dragEnded));

function lit(id) {
    const s = new Set(neighbours.get(id) || []);
    s.add(id);
    return s;
}

function highlight(id, pinned) {
    const on = lit(id);
    node.attr("opacity", d => on.has(d.id) ? 1 : settings.dimOpacity)
        .attr("r", d => pinned && on.has(d.id) ? settings.highlightRadius : d.radius);
    link.attr("stroke-opacity", d => d.category === "non_attribute" && (d.source.id === id || d.target.id === id) ? 1 : settings.dimOpacity);
}

function reset() {
    node.attr("opacity", 1).attr("r", d => d.radius);
    link.attr("stroke-opacity", 1);
}

function showTooltip(event, d) {
    tooltip.text(d.label)
        .style("left", (event.pageX + settings.tooltipOffsetX) + "px")
        .style("top", (event.pageY + settings.tooltipOffsetY) + "px")
        .style("opacity", 1);
}

node.on("mouseover", (event, d) => {
    if (!settings.hoverDetails) return;
    hovered = d.id;
    showTooltip(event, d);
    if (!selected) highlight(d.id, false);
}).on("mousemove", (event, d) => {
    if (hovered === d.id) showTooltip(event, d);
}).on("mouseout", (event, d) => {
    if (hovered !== d.id) return;
    hovered = null;
    tooltip.style("opacity", 0);
    if (!selected) reset();
}).on("click", (event, d) => {
    event.stopPropagation();
    if (selected === d.id) {
        selected = null;
        reset();
        if (hovered && settings.hoverDetails) highlight(hovered, false);
        return;
    }
    selected = d.id;
    highlight(d.id, true);
});

link.on("click", event => event.stopPropagation());

d3.select(document).on("click", () => {
    selected = null;
    hovered = null;
    tooltip.style("opacity", 0);
    reset();
});

function dragStarted(event, d) {
    if (!event.active) simulation.alphaTarget(settings.dragAlphaTarget).restart();
    d.fx = d.x;
    d.fy = d.y;
}

function dragged(event, d) {
    d.fx = event.x;
    d.fy = event.y;
}

function dragEnded(event, d) {
    if (!event.active) simulation.alphaTarget(0);
    d.fx = null;
    d.fy = null;
}

simulation.on("tick", () => {
    link.attr("x1", d => d.source.x)
        .attr("y1", d => d.source.y)
        .attr("x2", d => d.target.x)
        .attr("y2", d => d.target.y);
    node.attr("cx", d => d.x).attr("cy", d => d.y);
});

if (settings.legend && data.legend) {
    const legend = container.append("div").attr("class", "legend");
    data.legend.forEach(row => {
        const item = legend.append("div").attr("class", "legend-item").attr("title", row.description || null);
        item.append("span").attr("class", "swatch").style("background", row.color);
        item.append("span").text(row.label);
    });
}

if (settings.liveUrl) {
    const url = new URL(settings.liveUrl, window.location.href);
    url.protocol = url.protocol === "https:" ? "wss:" : "ws:";
    const ws = new WebSocket(url);
    ws.onmessage = () => window.location.reload();
}
</script>
</body>
</html>
`
