// Package pipeline turns entity data and options into positioned graphs and
// rendered artifacts.
//
// # Architecture
//
// The pipeline has three stages, shared by the CLI and the server:
//
//  1. Transform: decode the entity data (falling back to the demo dataset
//     when it is empty) and derive nodes and links.
//  2. Layout: resolve colors, labels and the legend, then run the force
//     simulation until it settles.
//  3. Render: write the layout as HTML, SVG, PNG, PDF, JSON or Graphviz.
//
// Malformed data or configurations never fail the pipeline: they are logged
// and replaced by empty values. A malformed size does fail, with
// INVALID_SIZE.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Data = string(data)
//	result, err := runner.Execute(ctx, opts, pipeline.FormatHTML)
//	page := result.Artifacts[pipeline.FormatHTML]
package pipeline

import (
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/render/nodelink"
	"github.com/matzehuels/entitygraph/pkg/style"
	"github.com/matzehuels/entitygraph/pkg/transform"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultData is an empty entity list, which selects the demo dataset.
	DefaultData = "[]"

	// DefaultSize is the drawing surface, "<width>px,<height>px".
	DefaultSize = "1350px,650px"

	// DefaultSeed seeds the simulation's jiggle.
	DefaultSeed = int64(1)

	// DefaultTitle is the HTML page title.
	DefaultTitle = "Entity Graph"
)

// Format constants for output formats.
const (
	FormatHTML     = "html"
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatGraph    = "graph"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz"
)

// Formats lists the supported output formats.
var Formats = []string{FormatHTML, FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatGraph, FormatDOT, FormatGraphviz}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatHTML:     "text/html; charset=utf-8",
	FormatSVG:      "image/svg+xml",
	FormatPNG:      "image/png",
	FormatPDF:      "application/pdf",
	FormatJSON:     "application/json",
	FormatGraph:    "application/json",
	FormatDOT:      "text/vnd.graphviz",
	FormatGraphviz: "image/svg+xml",
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options mirrors the widget attributes plus the settings of the Go
// renderers. Decode JSON into DefaultOptions() so that absent fields keep
// their defaults.
type Options struct {
	// Data is a JSON array of entities.
	Data string `json:"data"`
	// Size is "<width>px,<height>px".
	Size               string `json:"size" validate:"required"`
	ShowAttributes     bool   `json:"showAttributes"`
	ShowPrimaryLinks   bool   `json:"showPrimaryLinks"`
	ExcludeProperties  string `json:"excludeProperties"`
	ShowDetailsOnHover bool   `json:"showDetailsOnHover"`
	ShowLegend         bool   `json:"showLegend"`
	// Configurations is a JSON array of style entries.
	Configurations string `json:"configurations"`

	Forces force.Config `json:"forces"`
	// Ticks caps the simulation. Zero runs it until it settles.
	Ticks int   `json:"ticks,omitempty" validate:"gte=0,lte=100000"`
	Seed  int64 `json:"seed,omitempty"`

	Title   string  `json:"title,omitempty" validate:"max=200"`
	Labels  bool    `json:"labels,omitempty"`
	Engine  string  `json:"engine,omitempty" validate:"omitempty,oneof=neato fdp dot"`
	LiveURL string  `json:"liveUrl,omitempty"`
	Scale   float64 `json:"scale,omitempty" validate:"gte=0,lte=10"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" validate:"-"`
	// Style, when set, replaces Configurations.
	Style style.Configuration `json:"-" validate:"-"`
}

// DefaultOptions returns the widget defaults.
func DefaultOptions() Options {
	return Options{
		Data:               DefaultData,
		Size:               DefaultSize,
		ShowAttributes:     true,
		ShowPrimaryLinks:   true,
		ShowDetailsOnHover: true,
		ShowLegend:         true,
		Forces:             force.DefaultConfig(),
		Seed:               DefaultSeed,
		Title:              DefaultTitle,
	}
}

var validate = validator.New()

// Validate checks the size, field ranges and force configuration.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	if err := errors.ValidateSize(o.Size); err != nil {
		return err
	}
	if err := o.Forces.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid forces")
	}
	return nil
}

// Dimensions returns the parsed size.
func (o *Options) Dimensions() (width, height int, err error) {
	return errors.ParseSize(o.Size)
}

// Exclusions returns the excluded property keys.
func (o *Options) Exclusions() []string {
	return transform.ParseExclusions(o.ExcludeProperties)
}

// Transformer returns the transformer configured by the visibility toggles.
func (o *Options) Transformer() transform.Transformer {
	return transform.Transformer{
		ShowPrimaryLinks: o.ShowPrimaryLinks,
		ShowAttributes:   o.ShowAttributes,
	}
}

// GraphvizEngine returns the configured engine, neato by default.
func (o *Options) GraphvizEngine() nodelink.Engine {
	e, err := nodelink.ParseEngine(o.Engine)
	if err != nil {
		return nodelink.EngineNeato
	}
	return e
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	w, h, _ := o.Dimensions()
	forces, _ := json.Marshal(o.Forces)
	return cache.LayoutKeyOpts{
		Width:            w,
		Height:           h,
		ShowAttributes:   o.ShowAttributes,
		ShowPrimaryLinks: o.ShowPrimaryLinks,
		Exclude:          o.Exclusions(),
		ForcesHash:       cache.Hash(forces),
		Ticks:            o.Ticks,
		Seed:             o.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Legend: o.ShowLegend, Labels: o.Labels}
	switch format {
	case FormatHTML:
		k.HoverDetails = o.ShowDetailsOnHover
		k.Title = o.Title
		k.LiveURL = o.LiveURL
	case FormatGraphviz:
		k.Engine = string(o.GraphvizEngine())
	case FormatPNG:
		k.Scale = o.Scale
	}
	return k
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the positioned, styled graph.
	Layout graph.Layout

	// Graph is the derived graph without positions.
	Graph graph.Graph

	// InputHash addresses the entity data and configuration.
	InputHash string

	// Demo reports that the demo dataset replaced empty input.
	Demo bool

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Entities   int
	Primary    int
	Attributes int
	Links      int
	Ticks      int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
