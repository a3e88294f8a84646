package style

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/entitygraph/pkg/errors"
)

// Configuration is the user-supplied styling, a list of entries. The first
// entry's top-level label, color and description describe primary nodes
// that no type rule matches.
//
//	[{
//	  "label": "FDO", "color": "#008080", "description": "Digital object",
//	  "properties": [{"license": {"label": "License", "color": "#e377c2"}}],
//	  "primaryNodeConfigurations": [
//	    {"typeRegEx": "ChemicalSpecies$", "nodeLabel": "Species", "nodeColor": "#2ca02c"}
//	  ]
//	}]
type Configuration []Entry

// Entry is one configuration block.
type Entry struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// Properties maps attribute keys to their styling. Each element usually
	// holds a single key.
	Properties []map[string]PropertyStyle `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`

	PrimaryNodeConfigurations []TypeRule `json:"primaryNodeConfigurations,omitempty" yaml:"primaryNodeConfigurations,omitempty" toml:"primaryNodeConfigurations,omitempty" validate:"dive"`
}

// PropertyStyle overrides the legend label, color and description of one
// attribute key.
type PropertyStyle struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// TypeRule styles primary nodes whose type matches TypeRegEx.
type TypeRule struct {
	TypeRegEx   string `json:"typeRegEx" yaml:"typeRegEx" toml:"typeRegEx" validate:"required"`
	NodeLabel   string `json:"nodeLabel,omitempty" yaml:"nodeLabel,omitempty" toml:"nodeLabel,omitempty"`
	NodeColor   string `json:"nodeColor,omitempty" yaml:"nodeColor,omitempty" toml:"nodeColor,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

var validate = validator.New()

// Validate checks structural requirements of every entry.
func (c Configuration) Validate() error {
	for i, e := range c {
		if err := validate.Struct(e); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "configuration entry %d", i)
		}
	}
	return nil
}

// Parse decodes a JSON configuration. Blank input yields an empty
// configuration. Anything other than an array of entries is an error.
// Incomplete rules are kept; the Resolver skips them. Use Validate to reject
// them instead.
func Parse(data []byte) (Configuration, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] != '[' {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "configurations must be a JSON array")
	}
	var c Configuration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configurations")
	}
	return c, nil
}

// ParseOrEmpty decodes a JSON configuration, logging and returning an empty
// configuration when it is malformed.
func ParseOrEmpty(data []byte, logger *log.Logger) Configuration {
	c, err := Parse(data)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid configurations, using defaults", "err", err)
		}
		return nil
	}
	return c
}

type tomlFile struct {
	Entries Configuration `toml:"entries"`
}

// LoadFile reads a configuration from a .json, .yaml/.yml or .toml file.
// TOML files hold the entries under [[entries]].
func LoadFile(path string) (Configuration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "configuration %s", path)
	}
	switch ext {
	case ".toml":
		var f tomlFile
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
		}
		if err := f.Entries.Validate(); err != nil {
			return nil, err
		}
		return f.Entries, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "configuration %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch ext {
	case ".yaml", ".yml":
		var c Configuration
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	case ".json", "":
		c, err := Parse(data)
		if err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported configuration format %q", ext)
	}
}

// Marshal encodes a configuration as compact JSON, the form accepted by Parse.
func (c Configuration) Marshal() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}
