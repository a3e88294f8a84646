package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/observability"
	"github.com/matzehuels/entitygraph/pkg/render/nodelink"
	"github.com/matzehuels/entitygraph/pkg/render/sink"
)

// RenderFormat writes a layout in one format without caching.
func RenderFormat(ctx context.Context, l graph.Layout, opts Options, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	observability.Pipeline().OnRenderStart(ctx, format)
	start := time.Now()

	data, err := renderFormat(l, opts, format)

	observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func renderFormat(l graph.Layout, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatHTML:
		return sink.RenderHTML(l, htmlOptions(opts)...)
	case FormatSVG:
		return sink.RenderSVG(l, svgOptions(opts)...), nil
	case FormatPNG:
		pngOpts := []sink.PNGOption{sink.WithPNGSVGOptions(svgOptions(opts)...)}
		if opts.Scale > 0 {
			pngOpts = append(pngOpts, sink.WithScale(opts.Scale))
		}
		return sink.RenderPNG(l, pngOpts...)
	case FormatPDF:
		return sink.RenderPDF(l, sink.WithPDFSVGOptions(svgOptions(opts)...))
	case FormatJSON:
		return sink.RenderJSON(l)
	case FormatGraph:
		return graph.MarshalGraph(l.Graph())
	case FormatDOT:
		return []byte(nodelink.ToDOT(l, nodelink.Options{Pinned: true, Detailed: opts.Labels})), nil
	case FormatGraphviz:
		engine := opts.GraphvizEngine()
		dot := nodelink.ToDOT(l, nodelink.Options{Pinned: engine == nodelink.EngineNeato, Detailed: opts.Labels})
		return nodelink.RenderSVG(dot, engine)
	}
	return nil, ValidateFormat(format)
}

func svgOptions(opts Options) []sink.SVGOption {
	out := []sink.SVGOption{sink.WithLegend(opts.ShowLegend)}
	if opts.Labels {
		out = append(out, sink.WithLabels())
	}
	return out
}

func htmlOptions(opts Options) []sink.HTMLOption {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	return []sink.HTMLOption{
		sink.WithTitle(title),
		sink.WithHoverDetails(opts.ShowDetailsOnHover),
		sink.WithHTMLLegend(opts.ShowLegend),
		sink.WithForces(opts.Forces),
		sink.WithLiveURL(opts.LiveURL),
	}
}
