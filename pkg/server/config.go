package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/matzehuels/entitygraph/pkg/errors"
)

// EnvPrefix prefixes the environment variables that override server
// settings, e.g. ENTITYGRAPH_ADDR or ENTITYGRAPH_CACHE_REDIS_URL.
const EnvPrefix = "ENTITYGRAPH"

// Config holds the server settings.
type Config struct {
	Addr string `mapstructure:"addr" validate:"required"`

	// AllowedOrigins lists origin prefixes accepted on websocket upgrades.
	// Requests without an Origin header are always accepted.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gt=0"`

	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	Watch     WatchConfig     `mapstructure:"watch"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	Backend  string `mapstructure:"backend" validate:"oneof=file redis none"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	// Scope prefixes every key so deployments can share one backend.
	Scope string `mapstructure:"scope"`
}

// StoreConfig selects the dataset store backend.
type StoreConfig struct {
	// Backend is "memory", "file" or "mongo".
	Backend    string `mapstructure:"backend" validate:"oneof=memory file mongo"`
	Dir        string `mapstructure:"dir"`
	MongoURI   string `mapstructure:"mongo_uri" validate:"required_if=Backend mongo"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// WatchConfig publishes a dataset from local files and republishes it
// whenever they change.
type WatchConfig struct {
	// DataFile holds the entity JSON. Watching is off when empty.
	DataFile string `mapstructure:"data_file"`
	// ConfigFile holds the style configuration (.json, .yaml or .toml).
	ConfigFile string `mapstructure:"config_file"`
	// DatasetID is the id the watched files are published under.
	DatasetID string        `mapstructure:"dataset_id"`
	Debounce  time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// RateLimitConfig throttles /api requests per client address.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// SetDefaults configures default values for all settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("max_body_bytes", 10<<20)

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.scope", "")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.dir", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.database", "entitygraph")
	v.SetDefault("store.collection", "datasets")

	v.SetDefault("watch.data_file", "")
	v.SetDefault("watch.config_file", "")
	v.SetDefault("watch.dataset_id", "live")
	v.SetDefault("watch.debounce", 250*time.Millisecond)

	v.SetDefault("rate_limit.requests_per_second", 0.0)
	v.SetDefault("rate_limit.burst", 20)
}

// NewViper returns a viper instance with defaults and environment binding.
// A non-empty path is read as a config file (TOML, YAML or JSON).
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read server config %s", path)
		}
	}
	return v, nil
}

// LoadConfig reads the server settings from defaults, the optional file at
// path and the environment, in increasing precedence.
func LoadConfig(path string) (Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return Config{}, err
	}
	return ConfigFrom(v)
}

var validate = validator.New()

// ConfigFrom decodes and validates the settings held by v.
func ConfigFrom(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode server config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the default settings without reading the
// environment.
func DefaultConfig() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := ConfigFrom(v)
	if err != nil {
		panic(fmt.Sprintf("default server config: %v", err))
	}
	return cfg
}

// Validate checks field requirements and the watched dataset id.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid server config")
	}
	if c.Watch.DataFile != "" {
		if err := errors.ValidateDatasetID(c.Watch.DatasetID); err != nil {
			return err
		}
	}
	return nil
}
