package cache

import "slices"

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey addresses a simulated layout of the inputs hashed into
	// inputHash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
	// ArtifactKey addresses a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that change a layout.
type LayoutKeyOpts struct {
	Width            int      `json:"w"`
	Height           int      `json:"h"`
	ShowAttributes   bool     `json:"attrs"`
	ShowPrimaryLinks bool     `json:"primary"`
	Exclude          []string `json:"exclude,omitempty"`
	ForcesHash       string   `json:"forces,omitempty"`
	Ticks            int      `json:"ticks,omitempty"`
	Seed             int64    `json:"seed,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Legend       bool    `json:"legend"`
	Labels       bool    `json:"labels,omitempty"`
	HoverDetails bool    `json:"hover,omitempty"`
	Engine       string  `json:"engine,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	Title        string  `json:"title,omitempty"`
	LiveURL      string  `json:"live,omitempty"`
}

// DefaultKeyer is the stock key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the stock key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>". Exclusions are order-insensitive.
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	if len(opts.Exclude) > 0 {
		opts.Exclude = slices.Clone(opts.Exclude)
		slices.Sort(opts.Exclude)
		opts.Exclude = slices.Compact(opts.Exclude)
	}
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
