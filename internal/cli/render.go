package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
)

// renderCommand creates the render command, which runs the whole pipeline
// or renders a layout written by 'layout'.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		fromLayout string
		noCache    bool
		in         inputFlags
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render [data.json]",
		Short: "Render entity data as HTML, SVG, PNG, PDF, JSON or Graphviz",
		Long: `Render entity data as HTML, SVG, PNG, PDF, JSON or Graphviz.

HTML pages are interactive: hovering shows a tooltip and highlights the
node's neighbours, clicking pins the highlight and nodes can be dragged.
SVG, PNG and PDF are static drawings of the settled layout. PNG and PDF
need rsvg-convert on the PATH.

With --from-layout the simulation is skipped and the positions of a
layout.json file are drawn as they are.

Formats: html (default), svg, png, pdf, json, graph, dot, graphviz.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			input := argOrEmpty(args)
			if fromLayout != "" {
				if input != "" {
					return fmt.Errorf("--from-layout and a data file are mutually exclusive")
				}
				opts.Logger = c.Logger
				return c.runRenderLayout(cmd.Context(), fromLayout, opts, formats, output, noCache)
			}
			if err := c.readInputs(&opts, input, in); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), input, opts, formats, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated (default: html)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&fromLayout, "from-layout", "", "render a layout.json file instead of entity data")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringVar(&opts.Title, "title", opts.Title, "HTML page title")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw labels next to nodes (svg, png, pdf, dot)")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "Graphviz engine for -f graphviz: neato (default), fdp, dot")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor")
	addOptionFlags(cmd, &opts, &in)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, formats []string, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	sp := newSpinner(ctx, c.stdout, "Rendering...")
	sp.Start()
	result, err := runner.Execute(ctx, opts, formats...)
	if err != nil {
		sp.StopWithError("Render failed")
		return err
	}
	sp.Stop()

	paths, err := writeArtifacts(result.Artifacts, formats, basePath(output, input), output)
	if err != nil {
		return err
	}
	printSuccess(c.stdout, "Render complete")
	for _, p := range paths {
		printFile(c.stdout, p)
	}
	printStats(c.stdout, result.Stats, result.Demo, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

func (c *CLI) runRenderLayout(ctx context.Context, input string, opts pipeline.Options, formats []string, output string, noCache bool) error {
	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	artifacts := make(map[string][]byte, len(formats))
	allCached := true
	for _, format := range formats {
		data, hit, err := runner.RenderWithCacheInfo(ctx, l, opts, format)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		allCached = allCached && hit
	}

	paths, err := writeArtifacts(artifacts, formats, basePath(output, trimLayoutExt(input)), output)
	if err != nil {
		return err
	}
	printSuccess(c.stdout, "Render complete")
	for _, p := range paths {
		printFile(c.stdout, p)
	}
	g := l.Graph()
	primary, attrs, _ := g.Counts()
	printStats(c.stdout, pipeline.Stats{Primary: primary, Attributes: attrs, Links: len(g.Links)}, false, allCached)
	return nil
}

// writeArtifacts writes each format to base.<ext>, or to output itself when
// there is exactly one format and output is set. It returns the paths
// written.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + fileExt(format)
		if len(formats) == 1 && output != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return paths, err
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// trimLayoutExt strips ".layout.json" so that rendering x.layout.json
// writes x.svg rather than x.layout.svg.
func trimLayoutExt(path string) string {
	if base, ok := strings.CutSuffix(path, ".layout.json"); ok && base != "" {
		return base + ".json"
	}
	return path
}
