package force

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/entitygraph/pkg/graph"
)

// Defaults for the force configuration.
const (
	DefaultCenter       = 0.5
	DefaultStrength     = -90
	DefaultDistanceMin  = 1
	DefaultLinkDistance = 70

	// AttributeDistanceFactor scales the link distance of attribute links.
	AttributeDistanceFactor = 0.5
)

// Config holds the simulation parameters that users may tune.
type Config struct {
	Center Center     `json:"center" yaml:"center" toml:"center"`
	Charge Charge     `json:"charge" yaml:"charge" toml:"charge"`
	Link   LinkConfig `json:"link" yaml:"link" toml:"link"`
}

// Center is the attraction point as a fraction of the viewport.
type Center struct {
	X float64 `json:"x" yaml:"x" toml:"x" validate:"gte=0,lte=1"`
	Y float64 `json:"y" yaml:"y" toml:"y" validate:"gte=0,lte=1"`
}

// Charge configures the many-body force. A DistanceMax of zero means unbounded.
type Charge struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Strength    float64 `json:"strength" yaml:"strength" toml:"strength"`
	DistanceMin float64 `json:"distanceMin" yaml:"distanceMin" toml:"distanceMin" validate:"gte=0"`
	DistanceMax float64 `json:"distanceMax" yaml:"distanceMax" toml:"distanceMax" validate:"gte=0"`
}

// LinkConfig configures the spring force.
type LinkConfig struct {
	Distance float64 `json:"distance" yaml:"distance" toml:"distance" validate:"gt=0"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		Center: Center{X: DefaultCenter, Y: DefaultCenter},
		Charge: Charge{Enabled: true, Strength: DefaultStrength, DistanceMin: DefaultDistanceMin},
		Link:   LinkConfig{Distance: DefaultLinkDistance},
	}
}

var validate = validator.New()

// Validate checks field ranges and that DistanceMax, when set, is not below
// DistanceMin.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("force config: %w", err)
	}
	if c.Charge.DistanceMax > 0 && c.Charge.DistanceMax < c.Charge.DistanceMin {
		return fmt.Errorf("force config: distanceMax %v below distanceMin %v", c.Charge.DistanceMax, c.Charge.DistanceMin)
	}
	return nil
}

// LinkDistance returns the preferred length for a link of the given category.
func (c Config) LinkDistance(cat graph.Category) float64 {
	if cat == graph.CategoryAttribute {
		return c.Link.Distance * AttributeDistanceFactor
	}
	return c.Link.Distance
}

func (c Config) distanceMax() float64 {
	if c.Charge.DistanceMax <= 0 {
		return math.Inf(1)
	}
	return c.Charge.DistanceMax
}

// ConfigUpdate is a partial configuration. Nil fields are left unchanged.
type ConfigUpdate struct {
	CenterX       *float64 `json:"centerX,omitempty"`
	CenterY       *float64 `json:"centerY,omitempty"`
	ChargeEnabled *bool    `json:"chargeEnabled,omitempty"`
	Strength      *float64 `json:"strength,omitempty"`
	DistanceMin   *float64 `json:"distanceMin,omitempty"`
	DistanceMax   *float64 `json:"distanceMax,omitempty"`
	LinkDistance  *float64 `json:"linkDistance,omitempty"`
}

// Update merges u into c; later updates overwrite earlier ones field by field.
func (c *Config) Update(u ConfigUpdate) {
	if u.CenterX != nil {
		c.Center.X = *u.CenterX
	}
	if u.CenterY != nil {
		c.Center.Y = *u.CenterY
	}
	if u.ChargeEnabled != nil {
		c.Charge.Enabled = *u.ChargeEnabled
	}
	if u.Strength != nil {
		c.Charge.Strength = *u.Strength
	}
	if u.DistanceMin != nil {
		c.Charge.DistanceMin = *u.DistanceMin
	}
	if u.DistanceMax != nil {
		c.Charge.DistanceMax = *u.DistanceMax
	}
	if u.LinkDistance != nil {
		c.Link.Distance = *u.LinkDistance
	}
}
