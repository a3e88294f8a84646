package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/graph"
)

// Engine names a Graphviz layout engine.
type Engine string

// Supported engines.
const (
	EngineNeato Engine = "neato"
	EngineFDP   Engine = "fdp"
	EngineDot   Engine = "dot"
)

// ParseEngine validates an engine name. An empty name selects neato.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(s)) {
	case "", EngineNeato:
		return EngineNeato, nil
	case EngineFDP:
		return EngineFDP, nil
	case EngineDot:
		return EngineDot, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown graphviz engine %q", s)
}

func (e Engine) layout() graphviz.Layout {
	switch e {
	case EngineFDP:
		return graphviz.FDP
	case EngineDot:
		return graphviz.DOT
	default:
		return graphviz.NEATO
	}
}

// Options configures DOT generation.
type Options struct {
	// Pinned writes each node's simulated position as a fixed "pos".
	Pinned bool
	// Detailed labels attribute nodes with "key: value" instead of the value.
	Detailed bool
}

// ToDOT converts a layout to Graphviz DOT source.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=\"edgesfirst\";\n")
	if opts.Pinned {
		// Positions are in points; inputscale=72 stops neato reading them as inches.
		buf.WriteString("  inputscale=72;\n")
	}
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontsize=8, color=white];\n")
	buf.WriteString("  edge [arrowsize=0.5];\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		attrs := fmtAttrs(n, l.Height, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, lk := range l.Links {
		attrs := []string{
			fmt.Sprintf("color=%q", lk.Color),
			fmt.Sprintf("label=%q", lk.RelationType),
			"fontsize=7",
		}
		if lk.Marker != graph.MarkerArrow {
			attrs = append(attrs, "arrowhead=none")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", lk.Source, lk.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.PlacedNode, detailed bool) string {
	if detailed && n.IsAttribute() {
		return n.Key + ": " + n.Value
	}
	return n.Label
}

func fmtAttrs(n graph.PlacedNode, height float64, opts Options) []string {
	// Graphviz sizes are in inches.
	diameter := 2 * n.Radius / 72
	attrs := []string{
		fmt.Sprintf("xlabel=%q", fmtLabel(n, opts.Detailed)),
		`label=""`,
		fmt.Sprintf("fillcolor=%q", n.Color),
		fmt.Sprintf("width=%.3f", diameter),
	}
	if opts.Pinned {
		// Graphviz puts the origin bottom-left.
		attrs = append(attrs, fmt.Sprintf(`pos="%.2f,%.2f!"`, n.X, height-n.Y))
	}
	return attrs
}

// RenderSVG renders DOT source to SVG with the given engine.
func RenderSVG(dot string, engine Engine) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(engine.layout())

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
