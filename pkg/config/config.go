// Package config loads foodweb settings from TOML files.
//
// A configuration file has one table per concern; every key is optional and
// falls back to the value from [Default]:
//
//	[layout]
//	epochs = 30
//	epsilon = 0.1
//	seed = 42
//	margin = 1.0
//
//	[trophic]
//	epsilon = 1e-9
//	max_iterations = 1000
//
//	[engine]
//	background = true
//
//	[cache]
//	backend = "file"      # none, file, lru or redis
//	dir = ""              # file backend, default ~/.cache/foodweb
//	size = 512            # lru backend
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	store = "file"        # memory, file or mongo
//	data_dir = ""
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "foodweb"
//	session_ttl = "30m"
//
// [Load] decodes a file on top of the defaults and validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/foodweb/pkg/core/layout"
	"github.com/matzehuels/foodweb/pkg/core/trophic"
	"github.com/matzehuels/foodweb/pkg/engine"
	errs "github.com/matzehuels/foodweb/pkg/errors"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Config is the complete foodweb configuration.
type Config struct {
	Layout  Layout  `toml:"layout"`
	Trophic Trophic `toml:"trophic"`
	Engine  Engine  `toml:"engine"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
}

// Layout configures the stress layout solver.
type Layout struct {
	Epochs  int     `toml:"epochs"`
	Epsilon float64 `toml:"epsilon"`
	Seed    uint64  `toml:"seed"`
	Margin  float64 `toml:"margin"`
}

// Trophic configures the trophic level solver.
type Trophic struct {
	Epsilon       float64 `toml:"epsilon"`
	MaxIterations int     `toml:"max_iterations"`
}

// Engine configures scheduling.
type Engine struct {
	Background bool `toml:"background"`
}

// Cache selects and configures the analysis cache.
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	Size     int    `toml:"size"`
	RedisURL string `toml:"redis_url"`
}

// Server configures `foodweb serve`.
type Server struct {
	Addr          string   `toml:"addr"`
	Store         string   `toml:"store"`
	DataDir       string   `toml:"data_dir"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	SessionTTL    Duration `toml:"session_ttl"`
}

// Duration is a time.Duration written as a Go duration string ("30m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{
			Epochs:  layout.DefaultEpochs,
			Epsilon: layout.DefaultEpsilon,
			Seed:    layout.DefaultSeed,
			Margin:  layout.DefaultMargin,
		},
		Trophic: Trophic{
			Epsilon:       trophic.DefaultEpsilon,
			MaxIterations: trophic.DefaultMaxIterations,
		},
		Engine: Engine{Background: true},
		Cache: Cache{
			Backend: CacheFile,
			Size:    512,
		},
		Server: Server{
			Addr:          ":8080",
			Store:         StoreFile,
			MongoDatabase: "foodweb",
			SessionTTL:    Duration{30 * time.Minute},
		},
	}
}

// Load reads path on top of [Default]. Unknown keys are rejected so typos
// do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault loads path when it exists and returns [Default] otherwise.
func LoadDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns ~/.config/foodweb/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "foodweb", "config.toml")
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.Layout.Epochs < 0:
		return invalid("layout.epochs must not be negative")
	case c.Layout.Epsilon < 0:
		return invalid("layout.epsilon must not be negative")
	case c.Layout.Margin < 0:
		return invalid("layout.margin must not be negative")
	case c.Trophic.Epsilon < 0:
		return invalid("trophic.epsilon must not be negative")
	case c.Trophic.MaxIterations < 0:
		return invalid("trophic.max_iterations must not be negative")
	case c.Cache.Size < 0:
		return invalid("cache.size must not be negative")
	case c.Server.SessionTTL.Duration < 0:
		return invalid("server.session_ttl must not be negative")
	}
	if !slices.Contains([]string{CacheNone, CacheFile, CacheLRU, CacheRedis}, c.Cache.Backend) {
		return invalid(fmt.Sprintf("cache.backend %q is not one of none, file, lru, redis", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return invalid("cache.redis_url is required for the redis backend")
	}
	if !slices.Contains([]string{StoreMemory, StoreFile, StoreMongo}, c.Server.Store) {
		return invalid(fmt.Sprintf("server.store %q is not one of memory, file, mongo", c.Server.Store))
	}
	if c.Server.Store == StoreMongo && c.Server.MongoURI == "" {
		return invalid("server.mongo_uri is required for the mongo store")
	}
	return nil
}

func invalid(msg string) error {
	return errs.New(errs.ErrCodeInvalidConfig, "%s", msg)
}

// EngineOptions converts the layout, trophic and engine tables.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Layout: layout.Options{
			Epochs:  c.Layout.Epochs,
			Epsilon: c.Layout.Epsilon,
			Seed:    c.Layout.Seed,
			Margin:  c.Layout.Margin,
		},
		Trophic: trophic.Options{
			Epsilon:       c.Trophic.Epsilon,
			MaxIterations: c.Trophic.MaxIterations,
		},
		Background: c.Engine.Background,
	}
}

// Encode writes c as TOML.
func (c Config) Encode(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
