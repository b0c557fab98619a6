package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tacsim/navgrid/internal/config"
	"github.com/tacsim/navgrid/internal/nav"
	"github.com/tacsim/navgrid/internal/terrain"
)

const (
	NavConfigPath = "config/navgrid.yaml"
	SimConfigPath = "config/navsim.yaml"
)

// navsim runs the lockstep check: two independent path planning instances
// (an authoritative "server" and a predicting "client") are fed an
// identical request schedule and must produce identical results on every
// tick. Any digest mismatch is a desync and exits non-zero.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	simCfgPath := SimConfigPath
	if p := os.Getenv("NAVGRID_SIM_CONFIG"); p != "" {
		simCfgPath = p
	}
	simCfg, err := config.LoadSim(simCfgPath)
	if err != nil {
		return fmt.Errorf("loading sim config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(simCfg.LogLevel),
	})))

	navCfgPath := NavConfigPath
	if p := os.Getenv("NAVGRID_CONFIG"); p != "" {
		navCfgPath = p
	}
	navCfg, err := config.LoadNav(navCfgPath)
	if err != nil {
		return fmt.Errorf("loading nav config: %w", err)
	}

	reg, err := loadTerrain(navCfg.TerrainFile)
	if err != nil {
		return fmt.Errorf("loading terrain: %w", err)
	}

	slog.Info("navsim starting",
		"ticks", simCfg.Ticks,
		"entities", simCfg.Entities,
		"requests_per_tick", simCfg.RequestsPerTick,
		"seed", simCfg.Seed,
		"terrain_types", reg.Count())

	// Both instances share one logical clock driven by the tick counter,
	// so cache expiry can never depend on wall time.
	clock := &logicalClock{}
	server := newInstance("server", navCfg, reg, clock)
	client := newInstance("client", navCfg, reg, clock)

	rng := rand.New(rand.NewSource(simCfg.Seed))
	half := navCfg.WorldExtent / 2

	for tick := 0; tick < simCfg.Ticks; tick++ {
		clock.tick = int64(tick)
		if err := ctx.Err(); err != nil {
			slog.Info("interrupted", "tick", tick)
			return nil
		}

		// The classifier comes online a few ticks in, exercising the
		// deferred-bake retry on both sides.
		if tick == 3 {
			server.field.ready = true
			client.field.ready = true
		}

		for i := 0; i < simCfg.RequestsPerTick; i++ {
			entity := fmt.Sprintf("unit-%04d", rng.Intn(simCfg.Entities))
			sx := rng.Float64()*navCfg.WorldExtent - half
			sz := rng.Float64()*navCfg.WorldExtent - half
			ex := rng.Float64()*navCfg.WorldExtent - half
			ez := rng.Float64()*navCfg.WorldExtent - half
			prio := rng.Intn(3)

			server.svc.RequestPath(entity, sx, sz, ex, ez, prio)
			client.svc.RequestPath(entity, sx, sz, ex, ez, prio)
		}

		// Each instance stays single-threaded internally; the two
		// instances tick in parallel like real peers would.
		var g errgroup.Group
		g.Go(func() error { server.svc.Tick(); return nil })
		g.Go(func() error { client.svc.Tick(); return nil })
		if err := g.Wait(); err != nil {
			return err
		}

		if server.digest.Sum64() != client.digest.Sum64() {
			return fmt.Errorf("desync at tick %d: server=%016x client=%016x",
				tick, server.digest.Sum64(), client.digest.Sum64())
		}

		if tick%50 == 0 {
			slog.Debug("tick checkpoint",
				"tick", tick,
				"digest", fmt.Sprintf("%016x", server.digest.Sum64()),
				"queued", server.svc.QueueLen())
		}
	}

	slog.Info("lockstep verified",
		"ticks", simCfg.Ticks,
		"deliveries", server.delivered,
		"failures", server.failed,
		"final_digest", fmt.Sprintf("%016x", server.digest.Sum64()))
	return nil
}

// instance bundles one simulation side: its service, its private copy of
// the terrain field, and its running result digest.
type instance struct {
	svc       *nav.Service
	field     *terrainField
	digest    *nav.Digest
	delivered int
	failed    int
}

func newInstance(name string, cfg config.Nav, reg *terrain.Registry, clock *logicalClock) *instance {
	in := &instance{
		digest: nav.NewDigest(),
		field:  newTerrainField(reg, cfg.CellSize),
	}
	in.svc = nav.New(cfg, reg, in.field, in, nav.WithClock(clock.now))
	slog.Info("instance created", "name", name)
	return in
}

// logicalClock maps the simulation tick to a timestamp, one second per
// tick. Written only between ticks, read only inside them.
type logicalClock struct {
	tick int64
}

func (c *logicalClock) now() time.Time {
	return time.Unix(c.tick, 0)
}

// SetPath implements nav.Consumer.
func (in *instance) SetPath(entityID string, path []nav.Waypoint) {
	in.digest.WritePath(entityID, path)
	in.delivered++
	if path == nil {
		in.failed++
	}
}

// loadTerrain reads terrain definitions from the configured file, or falls
// back to a small built-in table so the harness runs out of the box.
func loadTerrain(path string) (*terrain.Registry, error) {
	reg, err := terrain.LoadRegistry(path)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	slog.Warn("terrain file missing, using built-in definitions", "file", path)
	return terrain.NewRegistry([]terrain.Type{
		{Index: 0, Name: "grass", WalkableNeighbors: []uint32{0, 1, 3}},
		{Index: 1, Name: "forest", WalkableNeighbors: []uint32{1, 0}},
		{Index: 2, Name: "water", WalkableNeighbors: []uint32{2}},
		// One-way drop: units step off a cliff onto grass, never back up.
		{Index: 3, Name: "cliff", WalkableNeighbors: []uint32{0}},
	})
}

// terrainField is a procedural terrain classifier: a pure integer hash of
// coarse cell coordinates picks the type, so every instance derives the
// same field with no shared state and no stored map data.
type terrainField struct {
	indices  []uint32
	cellSize float64
	ready    bool
}

func newTerrainField(reg *terrain.Registry, cellSize float64) *terrainField {
	return &terrainField{
		indices:  reg.Indices(),
		cellSize: cellSize,
	}
}

func (f *terrainField) Ready() bool { return f.ready }

func (f *terrainField) IndexAt(worldX, worldZ float64) (uint32, bool) {
	// Coarse patches, 8 cells across, keep regions contiguous enough for
	// interesting routes.
	px := int64(worldX / (8 * f.cellSize))
	pz := int64(worldZ / (8 * f.cellSize))

	h := uint64(px)*0x9E3779B97F4A7C15 ^ uint64(pz)*0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31

	// One patch in sixteen has no classification at all.
	if h%16 == 0 {
		return 0, false
	}
	return f.indices[h%uint64(len(f.indices))], true
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
