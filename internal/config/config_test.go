package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNavMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadNav(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultNav(), cfg)
}

func TestLoadNavOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	content := `
cell_size: 2
world_extent: 256
cache_ttl_seconds: 30
max_per_tick: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadNav(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.CellSize)
	assert.Equal(t, 256.0, cfg.WorldExtent)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, 25, cfg.MaxPerTick)
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultNav().SmoothLookahead, cfg.SmoothLookahead)
}

func TestLoadNavRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero cell size", "cell_size: 0"},
		{"extent under cell", "cell_size: 8\nworld_extent: 4"},
		{"zero lookahead", "smooth_lookahead: 0"},
		{"zero per tick", "max_per_tick: 0"},
		{"bad quantize", "quantize_size: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nav.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadNav(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadSim(t *testing.T) {
	cfg, err := LoadSim(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSim(), cfg)

	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ticks: 5\nseed: 9"), 0o644))
	cfg, err = LoadSim(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Ticks)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, DefaultSim().Entities, cfg.Entities)
}
