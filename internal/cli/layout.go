package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing positioned graphs.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		in      inputFlags
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "layout [data.json]",
		Short: "Run the force simulation and write the positioned graph",
		Long: `Run the force simulation and write the positioned graph.

The output is a layout.json file with node positions, colors, radii, link
styles and the legend (the same document as 'render -f json'). It can be
rendered later with 'render --from-layout'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := argOrEmpty(args)
			if err := c.readInputs(&opts, input, in); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addOptionFlags(cmd, &opts, &in)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	sp := newSpinner(ctx, c.stdout, "Settling layout...")
	sp.Start()
	result, err := runner.Layout(ctx, opts)
	if err != nil {
		sp.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	sp.Stop()

	path := output
	if path == "" {
		path = basePath("", input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(result.Layout, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess(c.stdout, "Layout complete")
	printFile(c.stdout, path)
	printStats(c.stdout, result.Stats, result.Demo, result.CacheInfo.LayoutHit)
	printNextStep(c.stdout, "Render", appName+" render --from-layout "+path)
	return nil
}
