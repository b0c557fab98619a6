package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Nav holds all tunables of the path planning service. Every constant that
// affects search output is named here so client and server agree on it via
// shared config rather than compiled-in literals.
type Nav struct {
	// Mesh geometry
	CellSize    float64 `yaml:"cell_size"`    // world units per grid cell
	WorldExtent float64 `yaml:"world_extent"` // full world width/depth, mesh is centered at origin
	BakeWorkers int     `yaml:"bake_workers"` // parallel rows during mesh bake

	// Path cache
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	CacheMaxEntries int     `yaml:"cache_max_entries"`
	QuantizeSize    float64 `yaml:"quantize_size"` // cache key bucket size, world units

	// Smoother
	SmoothLookahead int `yaml:"smooth_lookahead"` // max waypoints skipped per jump

	// Scheduler
	MaxPerTick  int `yaml:"max_per_tick"`  // requests serviced per tick
	MaxQueueLen int `yaml:"max_queue_len"` // bounded queue, worst request dropped when full

	// Data
	TerrainFile string `yaml:"terrain_file"`
}

// CacheTTL returns the path cache entry lifetime.
func (c Nav) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// DefaultNav returns Nav config with sensible defaults.
func DefaultNav() Nav {
	return Nav{
		CellSize:        4,
		WorldExtent:     1024,
		BakeWorkers:     4,
		CacheTTLSeconds: 10,
		CacheMaxEntries: 512,
		QuantizeSize:    50,
		SmoothLookahead: 8,
		MaxPerTick:      100,
		MaxQueueLen:     1024,
		TerrainFile:     "config/terrain.yaml",
	}
}

// LoadNav loads nav config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadNav(path string) (Nav, error) {
	cfg := DefaultNav()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Nav) validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("cell_size must be positive, got %v", c.CellSize)
	}
	if c.WorldExtent < c.CellSize {
		return fmt.Errorf("world_extent %v smaller than cell_size %v", c.WorldExtent, c.CellSize)
	}
	if c.QuantizeSize <= 0 {
		return fmt.Errorf("quantize_size must be positive, got %v", c.QuantizeSize)
	}
	if c.SmoothLookahead < 1 {
		return fmt.Errorf("smooth_lookahead must be at least 1, got %d", c.SmoothLookahead)
	}
	if c.MaxPerTick < 1 {
		return fmt.Errorf("max_per_tick must be at least 1, got %d", c.MaxPerTick)
	}
	return nil
}

// Sim holds configuration for the navsim lockstep harness.
type Sim struct {
	Ticks           int    `yaml:"ticks"`
	Entities        int    `yaml:"entities"`
	RequestsPerTick int    `yaml:"requests_per_tick"`
	Seed            int64  `yaml:"seed"`
	LogLevel        string `yaml:"log_level"`
}

// DefaultSim returns Sim config with sensible defaults.
func DefaultSim() Sim {
	return Sim{
		Ticks:           200,
		Entities:        64,
		RequestsPerTick: 150,
		Seed:            1,
		LogLevel:        "info",
	}
}

// LoadSim loads harness config from a YAML file, defaults if absent.
func LoadSim(path string) (Sim, error) {
	cfg := DefaultSim()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
