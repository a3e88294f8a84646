package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/observability"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer uses the DefaultKeyer, a nil cache
// disables caching and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs transform, layout and render for each format.
func (r *Runner) Execute(ctx context.Context, opts Options, formats ...string) (*Result, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result, err := r.Layout(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	renderStart := time.Now()
	result.Artifacts = make(map[string][]byte, len(formats))
	result.CacheInfo.RenderHit = len(formats) > 0
	for _, format := range formats {
		data, hit, err := r.RenderWithCacheInfo(ctx, result.Layout, opts, format)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
		result.CacheInfo.RenderHit = result.CacheInfo.RenderHit && hit
	}
	result.Stats.RenderTime = time.Since(renderStart)

	if len(formats) > 0 {
		r.Logger.Info("rendered outputs",
			"formats", formats,
			"cached", result.CacheInfo.RenderHit,
			"duration", result.Stats.RenderTime)
	}
	return result, nil
}

// Layout runs transform and layout, reusing a cached layout for identical
// inputs and options.
func (r *Runner) Layout(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	in := DecodeInputs(opts)
	result := &Result{InputHash: in.Hash(), Demo: in.Demo}
	cacheKey := r.Keyer.LayoutKey(result.InputHash, opts.LayoutKeyOpts())

	start := time.Now()
	layout, hit := r.cachedLayout(ctx, cacheKey, opts.Refresh)
	if !hit {
		scene := newScene(ctx, opts, in)
		ticks, err := scene.Settle(ctx, opts.Ticks)
		if err != nil {
			return nil, err
		}
		layout = scene.Layout(ticks)
		if data, err := graph.MarshalLayout(layout); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
				r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}

	result.Layout = layout
	result.Graph = layout.Graph()
	result.CacheInfo.LayoutHit = hit
	result.Stats.Entities = len(in.Entities)
	result.Stats.Primary, result.Stats.Attributes, _ = result.Graph.Counts()
	result.Stats.Links = len(result.Graph.Links)
	result.Stats.Ticks = layout.Ticks
	result.Stats.LayoutTime = time.Since(start)

	r.Logger.Info("computed layout",
		"nodes", len(layout.Nodes),
		"links", len(layout.Links),
		"ticks", layout.Ticks,
		"cached", hit,
		"demo", in.Demo,
		"duration", result.Stats.LayoutTime)
	return result, nil
}

func (r *Runner) cachedLayout(ctx context.Context, key string, refresh bool) (graph.Layout, bool) {
	if refresh {
		return graph.Layout{}, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		r.Logger.Debug("discarding cached layout", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return l, true
}

// RenderWithCacheInfo renders one format and reports whether it came from
// the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options, format string) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	cacheKey := r.Keyer.ArtifactKey(cache.Hash(layoutData), opts.ArtifactKeyOpts(format))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := RenderFormat(ctx, l, opts, format)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options, format string) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, l, opts, format)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
