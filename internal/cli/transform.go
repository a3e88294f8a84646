package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
)

// transformCommand creates the transform command, which derives the graph
// without laying it out.
func (c *CLI) transformCommand() *cobra.Command {
	var output string
	var in inputFlags
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "transform [data.json]",
		Short: "Derive nodes and links from entity data",
		Long: `Derive nodes and links from entity data.

The input is a JSON array of {"id", "properties"} objects, or "-" for stdin.
Without input the demo dataset is used. The output is a graph.json file with
primary nodes, attribute nodes and links, in the order they are derived.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := argOrEmpty(args)
			if err := c.readInputs(&opts, input, in); err != nil {
				return err
			}
			return c.runTransform(cmd.Context(), input, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	addOptionFlags(cmd, &opts, &in)

	return cmd
}

func (c *CLI) runTransform(_ context.Context, input string, opts pipeline.Options, output string) error {
	p := newProgress(c.Logger)
	in := pipeline.DecodeInputs(opts)
	g := opts.Transformer().Transform(in.Entities, opts.Exclusions())
	primary, attrs, structural := g.Counts()
	p.done("transformed entities", "nodes", len(g.Nodes), "links", len(g.Links))

	path := output
	if path == "" {
		path = basePath("", input) + "." + fileExt(pipeline.FormatGraph)
	}
	if err := graph.WriteGraphFile(g, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess(c.stdout, "Transform complete")
	printFile(c.stdout, path)
	printDetail(c.stdout, "%d entities · %d primary · %d attributes · %d links (%d structural)",
		len(in.Entities), primary, attrs, len(g.Links), structural)
	if in.Demo {
		printWarning(c.stdout, "No entities in input, used the demo dataset")
	}
	return nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
