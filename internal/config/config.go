package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration: an optional YAML file overlaid by
// environment variables, with defaults for anything left unset.
type Config struct {
	AssetDir       string        `yaml:"asset_dir"`
	MaxInputBytes  int           `yaml:"max_input_bytes"`
	MaxDimension   int           `yaml:"max_dimension"`
	MaxPixelBytes  int64         `yaml:"max_pixel_bytes"`
	MaxOutputBytes int           `yaml:"max_output_bytes"`
	Quality        int           `yaml:"jpeg_quality"`
	MinQuality     int           `yaml:"min_quality"`
	MaxCount       int           `yaml:"max_count"`
	Workers        int           `yaml:"workers"`
	StatsInterval  time.Duration `yaml:"stats_interval"`
	LogFile        string        `yaml:"log_file"`
	Dev            bool          `yaml:"dev"`
}

func Default() *Config {
	e := engine.DefaultConfig()
	return &Config{
		AssetDir:       "./assets/smiles",
		MaxInputBytes:  e.MaxInputBytes,
		MaxDimension:   e.MaxDimension,
		MaxPixelBytes:  e.MaxPixelBytes,
		MaxOutputBytes: e.MaxOutputBytes,
		Quality:        e.Quality,
		MinQuality:     e.MinQuality,
		MaxCount:       e.MaxCount,
		Workers:        4,
		StatsInterval:  time.Minute,
	}
}

// Load reads path (skipped when empty) on top of the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("ASSET_DIR", &c.AssetDir)
	str("LOG_FILE", &c.LogFile)
	num("MAX_INPUT_BYTES", &c.MaxInputBytes)
	num("MAX_DIMENSION", &c.MaxDimension)
	num("MAX_OUTPUT_BYTES", &c.MaxOutputBytes)
	num("JPEG_QUALITY", &c.Quality)
	num("MIN_QUALITY", &c.MinQuality)
	num("MAX_COUNT", &c.MaxCount)
	num("WORKERS", &c.Workers)

	if v, ok := lookup("MAX_PIXEL_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_PIXEL_BYTES: %w", err))
		} else {
			c.MaxPixelBytes = n
		}
	}
	if v, ok := lookup("STATS_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("STATS_INTERVAL: %w", err))
		} else {
			c.StatsInterval = d
		}
	}
	if v, ok := lookup("DEV"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("DEV: %w", err))
		} else {
			c.Dev = b
		}
	}

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	positive("max_input_bytes", int64(c.MaxInputBytes))
	positive("max_dimension", int64(c.MaxDimension))
	positive("max_pixel_bytes", c.MaxPixelBytes)
	positive("max_output_bytes", int64(c.MaxOutputBytes))
	positive("max_count", int64(c.MaxCount))
	positive("workers", int64(c.Workers))
	positive("stats_interval", int64(c.StatsInterval))

	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be within [1, 100], got %d", c.Quality))
	}
	if c.MinQuality < 1 || c.MinQuality > c.Quality {
		errs = append(errs, fmt.Errorf("min_quality must be within [1, %d], got %d", c.Quality, c.MinQuality))
	}

	return errors.Join(errs...)
}

func (c *Config) Engine() engine.Config {
	return engine.Config{
		MaxInputBytes:  c.MaxInputBytes,
		MaxDimension:   c.MaxDimension,
		MaxPixelBytes:  c.MaxPixelBytes,
		MaxOutputBytes: c.MaxOutputBytes,
		Quality:        c.Quality,
		MinQuality:     c.MinQuality,
		MaxCount:       c.MaxCount,
	}
}
