// Package cli implements the entitygraph command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/buildinfo"
	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
	"github.com/matzehuels/entitygraph/pkg/style"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "entitygraph"

	// stdinPath reads entity data from standard input.
	stdinPath = "-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// stdin and stdout are replaced in tests.
	stdin  io.Reader
	stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "entitygraph draws entities and their properties as force-directed graphs",
		Long: `entitygraph turns a JSON list of entities into a force-directed graph.

Each entity becomes a primary node. Each distinct property value becomes an
attribute node linked to its entity, and properties that name another entity
become structural links. Graphs are written as interactive HTML, SVG, PNG,
PDF, JSON or Graphviz, served over HTTP, or explored in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.transformCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory (~/.cache/entitygraph on Linux).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

// =============================================================================
// Options Flags
// =============================================================================

// inputFlags are the files named on the command line.
type inputFlags struct {
	config string
}

// addOptionFlags registers the widget attributes and layout settings on cmd.
func addOptionFlags(cmd *cobra.Command, opts *pipeline.Options, in *inputFlags) {
	f := cmd.Flags()
	f.StringVarP(&in.config, "config", "c", "", "style configurations file (.json, .yaml or .toml)")
	f.StringVar(&opts.Size, "size", opts.Size, `drawing surface as "<width>px,<height>px"`)
	f.BoolVar(&opts.ShowAttributes, "attributes", opts.ShowAttributes, "show attribute nodes")
	f.BoolVar(&opts.ShowPrimaryLinks, "primary-links", opts.ShowPrimaryLinks, "show links between entities")
	f.StringVarP(&opts.ExcludeProperties, "exclude", "x", opts.ExcludeProperties, "comma-separated property keys to hide")
	f.BoolVar(&opts.ShowDetailsOnHover, "hover-details", opts.ShowDetailsOnHover, "show a tooltip and highlight neighbours on hover")
	f.BoolVar(&opts.ShowLegend, "legend", opts.ShowLegend, "show the legend")
	f.IntVar(&opts.Ticks, "ticks", opts.Ticks, "cap simulation steps (0 runs until settled)")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "simulation seed")
}

// readInputs loads the entity data at dataPath ("-" for stdin) and the style
// configurations named by in into opts. An empty dataPath keeps the demo
// dataset.
func (c *CLI) readInputs(opts *pipeline.Options, dataPath string, in inputFlags) error {
	if dataPath != "" {
		data, err := c.readData(dataPath)
		if err != nil {
			return err
		}
		opts.Data = string(data)
	}
	if in.config != "" {
		cfg, err := style.LoadFile(in.config)
		if err != nil {
			return err
		}
		opts.Style = cfg
	}
	opts.Logger = c.Logger
	return opts.Validate()
}

func (c *CLI) readData(path string) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(c.stdin)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "entity data %s", path)
	}
	return data, err
}

// =============================================================================
// Paths
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatHTML}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// basePath derives the output base from the output flag and the input file.
// Without either it is the application name.
func basePath(output, input string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if input == "" || input == stdinPath {
		return appName
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// fileExt maps formats to file extensions.
func fileExt(format string) string {
	switch format {
	case pipeline.FormatGraph:
		return "graph.json"
	case pipeline.FormatGraphviz:
		return "graphviz.svg"
	}
	return format
}
