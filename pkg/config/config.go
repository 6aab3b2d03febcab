// Package config loads generation settings from TOML.
//
// Every constant that shapes a batch lives here: page geometry and
// transform chances ([layout.Config]), bubble placement and sampling,
// render parameters ([render.Config]), dataset locations, worker limits
// and the artifact cache. [Default] returns the built-in values and
// [Load] overlays a file onto them, so a file only needs the keys it
// changes:
//
//	[layout]
//	page_width = 1654
//	transform_chance = 0.5
//
//	[bubbles]
//	count_max = 3
//
//	[cache]
//	url = "redis://localhost:6379/0"
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/dataset"
	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/layout"
	"github.com/matzehuels/mangaforge/pkg/metadata"
	"github.com/matzehuels/mangaforge/pkg/render"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "mangaforge.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full set of settings.
type Config struct {
	Layout  layout.Config `toml:"layout"`
	Bubbles Bubbles       `toml:"bubbles"`
	Render  render.Config `toml:"render"`
	Dataset Dataset       `toml:"dataset"`
	Output  Output        `toml:"output"`
	Workers Workers       `toml:"workers"`
	Cache   Cache         `toml:"cache"`
}

// Bubbles controls how many bubbles a panel gets and how they are placed.
// Font sizes and writing-area padding come from the render section.
type Bubbles struct {
	AreaRatio        float64 `toml:"area_ratio"`
	MaxAttempts      int     `toml:"max_attempts"`
	CountMin         int     `toml:"count_min"`
	CountMax         int     `toml:"count_max"`
	BackgroundChance float64 `toml:"background_chance"`
}

// Dataset names the input lists and the bubble language.
type Dataset struct {
	Language string          `toml:"language"`
	Sources  dataset.Sources `toml:"sources"`
}

// Output controls generated file names and formats.
type Output struct {
	MetadataFormat string `toml:"metadata_format"`
	// DeterministicNames derives page names from the seed instead of
	// drawing random UUIDs.
	DeterministicNames bool `toml:"deterministic_names"`
}

// Workers bounds concurrency.
type Workers struct {
	Count      int  `toml:"count"`
	IntervalMS int  `toml:"interval_ms"`
	FailFast   bool `toml:"fail_fast"`
}

// Cache selects the rendered-page cache.
type Cache struct {
	Backend  string `toml:"backend"`
	URL      string `toml:"url"`
	Dir      string `toml:"dir"`
	TTLHours int    `toml:"ttl_hours"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Bubbles: Bubbles{
			AreaRatio:        bubble.DefaultAreaRatio,
			MaxAttempts:      bubble.DefaultMaxAttempts,
			CountMin:         dataset.DefaultBubblesMin,
			CountMax:         dataset.DefaultBubblesMax,
			BackgroundChance: dataset.DefaultBackgroundChance,
		},
		Render:  render.DefaultConfig(),
		Dataset: Dataset{Language: bubble.English},
		Output:  Output{MetadataFormat: string(metadata.FormatJSON)},
		Workers: Workers{},
		Cache:   Cache{Backend: CacheFile, TTLHours: 24 * 7},
	}
}

// Load reads path over the defaults. Unknown keys are an error so typos
// do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config not found: %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// LoadOrDefault loads path when it is set, else DefaultFile when it
// exists, else the defaults.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Default(), nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateProbability("area_ratio", c.Bubbles.AreaRatio); err != nil {
		return err
	}
	if err := errors.ValidateProbability("background_chance", c.Bubbles.BackgroundChance); err != nil {
		return err
	}
	if err := errors.ValidatePositive("max_attempts", float64(c.Bubbles.MaxAttempts)); err != nil {
		return err
	}
	if c.Bubbles.CountMin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "count_min must not be negative")
	}
	if err := errors.ValidateRange("bubble count", c.Bubbles.CountMin, c.Bubbles.CountMax); err != nil {
		return err
	}
	if err := errors.ValidateFormat("language", c.Dataset.Language, bubble.English, bubble.Japanese); err != nil {
		return err
	}
	if err := errors.ValidateFormat("metadata format", c.Output.MetadataFormat, metadata.Formats...); err != nil {
		return err
	}
	if c.Workers.Count < 0 || c.Workers.IntervalMS < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "worker count and interval must not be negative")
	}
	return errors.ValidateFormat("cache backend", c.Cache.Backend, CacheFile, CacheRedis, CacheNone)
}

// PlacerConfig returns the bubble placement settings for the configured
// page size.
func (c Config) PlacerConfig() bubble.Config {
	return bubble.Config{
		PageWidth:   c.Layout.PageWidth,
		PageHeight:  c.Layout.PageHeight,
		AreaRatio:   c.Bubbles.AreaRatio,
		MaxAttempts: c.Bubbles.MaxAttempts,
		FontSizeMin: c.Render.FontSizeMin,
		FontSizeMax: c.Render.FontSizeMax,
	}
}

// PoolConfig returns the per-page sampling settings.
func (c Config) PoolConfig() dataset.PoolConfig {
	return dataset.PoolConfig{
		BubblesMin:       c.Bubbles.CountMin,
		BubblesMax:       c.Bubbles.CountMax,
		BackgroundChance: c.Bubbles.BackgroundChance,
	}
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WriteFile writes c to path, refusing to overwrite an existing file
// unless force is set.
func (c Config) WriteFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s already exists", path)
		}
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
