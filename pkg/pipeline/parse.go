package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/entity"
	"github.com/matzehuels/entitygraph/pkg/style"
	"github.com/matzehuels/entitygraph/pkg/transform"
)

// Inputs are the decoded data and configuration of a run.
type Inputs struct {
	Entities      []entity.Entity
	Configuration style.Configuration
	// Demo reports that the demo dataset replaced empty input.
	Demo bool
}

// ParseEntities decodes entity JSON. Malformed data is logged and treated as
// empty.
func ParseEntities(data string, logger *log.Logger) []entity.Entity {
	entities, err := entity.Parse([]byte(data))
	if err != nil {
		if logger != nil {
			logger.Warn("invalid data, using defaults", "err", err)
		}
		return nil
	}
	return entities
}

// DecodeInputs parses Data and the configuration leniently and applies the
// demo fallback.
func DecodeInputs(opts Options) Inputs {
	logger := opts.logger()

	entities, demo := transform.OrDefault(ParseEntities(opts.Data, logger))
	if demo {
		logger.Debug("no entities given, using demo dataset")
	}

	cfg := opts.Style
	if cfg == nil {
		cfg = style.ParseOrEmpty([]byte(opts.Configurations), logger)
	}
	return Inputs{Entities: entities, Configuration: cfg, Demo: demo}
}

// Hash addresses the inputs for caching. Entities and configuration are
// re-encoded so that formatting differences in the source JSON do not miss
// the cache.
func (in Inputs) Hash() string {
	data, _ := entity.Marshal(in.Entities)
	cfg, _ := in.Configuration.Marshal()
	return cache.HashParts(data, cfg)
}
