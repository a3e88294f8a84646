package sink

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Width:  400,
		Height: 300,
		Nodes: []graph.PlacedNode{
			{Node: graph.Primary("a", ""), X: 100, Y: 100, Color: "#1f77b4", Radius: 10, Label: "a"},
			{Node: graph.Primary("b", ""), X: 200, Y: 150, Color: "#ff7f0e", Radius: 10, Label: "b"},
			{Node: graph.Attribute("a", "license", "<MIT>"), X: 120, Y: 200, Color: "#2ca02c", Radius: 7, Label: "<MIT>"},
		},
		Links: []graph.PlacedLink{
			{Link: graph.Link{Source: "a", Target: "b", Category: graph.CategoryNonAttribute, RelationType: "hasPart", Visible: true}, Color: "#d3d3d3", Marker: graph.MarkerArrow, Distance: 70},
			{Link: graph.Link{Source: "a", Target: "a_<MIT>", Category: graph.CategoryAttribute, RelationType: "license", Visible: true}, Color: "#d3d3d3", Distance: 35},
		},
		Legend: []graph.LegendEntry{
			{Label: "Primary Node", Color: "#1f77b4", Category: graph.CategoryNonAttribute},
			{Label: "license", Color: "#2ca02c", Description: "SPDX id", Category: graph.CategoryAttribute, Key: "license"},
		},
		Ticks: 300,
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(sampleLayout()))

	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400.0 300.0"`))
	assert.Contains(t, svg, `<marker id="arrowhead"`)
	assert.Equal(t, 3, strings.Count(svg, `<circle class="node`))
	assert.Equal(t, 1, strings.Count(svg, `marker-end="url(#arrowhead)"`), "only structural links get arrows")
	assert.Contains(t, svg, `id="node-a"`)
	assert.Contains(t, svg, `<title>&lt;MIT&gt;</title>`)
	assert.Contains(t, svg, `<g class="legend"`)
	assert.Contains(t, svg, `<title>SPDX id</title>`)
	assert.NotContains(t, svg, "<MIT>")
}

func TestRenderSVGWithoutLegend(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithLegend(false)))
	assert.NotContains(t, svg, `class="legend"`)
}

func TestRenderSVGLabels(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithLabels()))
	assert.Equal(t, 3, strings.Count(svg, `class="node-label"`))
}

func TestRenderSVGWithView(t *testing.T) {
	l := sampleLayout()
	ctrl := interaction.New(l.Graph())
	ctrl.Click("a")

	svg := string(RenderSVG(l, WithView(ctrl.View())))
	assert.Contains(t, svg, `id="node-a" cx="100.00" cy="100.00" r="20"`)
	assert.Contains(t, svg, `id="node-a_&lt;MIT&gt;" cx="120.00" cy="200.00" r="7" fill="#2ca02c" opacity="0.1"`)
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(sampleLayout())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 400.0, out["width"])
	assert.Len(t, out["nodes"], 3)
	assert.NotContains(t, out, "view")

	l, err := graph.UnmarshalLayout(data)
	require.NoError(t, err)
	assert.Equal(t, sampleLayout().Nodes, l.Nodes)
}

func TestRenderJSONWithView(t *testing.T) {
	l := sampleLayout()
	ctrl := interaction.New(l.Graph())
	ctrl.Hover("b", interaction.Point{X: 1, Y: 2})

	data, err := RenderJSON(l, WithJSONView(ctrl.View()), WithJSONCompact())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	var out struct {
		View interaction.View `json:"view"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "b", out.View.Hovered)
	assert.Equal(t, "b", out.View.Tooltip.Text)
}

func TestRenderJSONEmpty(t *testing.T) {
	data, err := RenderJSON(graph.Layout{Width: 1, Height: 1})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodes": []`)
	assert.Contains(t, string(data), `"links": []`)
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(sampleLayout(), WithTitle("Catalog <1>"))
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "<title>Catalog &lt;1&gt;</title>")
	assert.Contains(t, html, D3URL)
	assert.Contains(t, html, `"relationType":"hasPart"`)
	assert.Contains(t, html, `"hoverDetails":true`)
	assert.Contains(t, html, `"dragAlphaTarget":0.3`)
	assert.Contains(t, html, `"strength":-90`)
	assert.NotContains(t, html, `"liveUrl":`)
	assert.Contains(t, html, `link.on("click", event => event.stopPropagation())`)
	assert.Contains(t, html, `d3.select(document).on("click"`)
}

func TestRenderHTMLOptions(t *testing.T) {
	cfg := force.DefaultConfig()
	cfg.Charge.Enabled = false

	page, err := RenderHTML(sampleLayout(),
		WithHoverDetails(false),
		WithHTMLLegend(false),
		WithLiveURL("/ws?dataset=abc"),
		WithForces(cfg),
	)
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `"hoverDetails":false`)
	assert.Contains(t, html, `"legend":false`)
	assert.Contains(t, html, `"enabled":false`)
	assert.Contains(t, html, `"liveUrl":"/ws?dataset=abc"`)
}
