package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, engine.DefaultConfig(), cfg.Engine())
	assert.Equal(t, 20<<20, cfg.MaxInputBytes)
	assert.Equal(t, 50, cfg.MaxCount)
	assert.Equal(t, "./assets/smiles", cfg.AssetDir)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
asset_dir: /srv/smiles
max_output_bytes: 2097152
jpeg_quality: 90
workers: 8
stats_interval: 30s
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/smiles", cfg.AssetDir)
	assert.Equal(t, 2<<20, cfg.MaxOutputBytes)
	assert.Equal(t, 90, cfg.Quality)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	// untouched keys keep their defaults
	assert.Equal(t, 12000, cfg.MaxDimension)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [nope"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		cfg := Default()
		err := cfg.applyEnv(env(map[string]string{
			"ASSET_DIR":       "/tmp/assets",
			"MAX_COUNT":       "10",
			"MAX_PIXEL_BYTES": "1024",
			"STATS_INTERVAL":  "5m",
			"DEV":             "true",
			"WORKERS":         "",
		}))
		require.NoError(t, err)
		assert.Equal(t, "/tmp/assets", cfg.AssetDir)
		assert.Equal(t, 10, cfg.MaxCount)
		assert.Equal(t, int64(1024), cfg.MaxPixelBytes)
		assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
		assert.True(t, cfg.Dev)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("reports every bad value", func(t *testing.T) {
		cfg := Default()
		err := cfg.applyEnv(env(map[string]string{
			"MAX_COUNT": "lots",
			"DEV":       "maybe",
		}))
		assert.ErrorContains(t, err, "MAX_COUNT")
		assert.ErrorContains(t, err, "DEV")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "quality too high", mutate: func(c *Config) { c.Quality = 101 }, wantErr: "jpeg_quality"},
		{name: "floor above quality", mutate: func(c *Config) { c.MinQuality = 99 }, wantErr: "min_quality"},
		{name: "negative pixel limit", mutate: func(c *Config) { c.MaxPixelBytes = -1 }, wantErr: "max_pixel_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
