package nav

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tacsim/navgrid/internal/config"
	"github.com/tacsim/navgrid/internal/terrain"
)

// Consumer receives finished paths. Implemented by the movement layer:
// SetPath replaces the entity's current route and resets its path index
// to the first waypoint. A nil path means planning failed outright.
type Consumer interface {
	SetPath(entityID string, path []Waypoint)
}

// Service is one independent path planning instance. All state — mesh,
// walkability matrix, cache, queue — is owned by the instance; a client
// and a server simulation can run side by side in one process without
// sharing anything. Single-threaded by contract: every method is called
// from the owning simulation's tick loop.
type Service struct {
	cfg      config.Nav
	matrix   *terrain.WalkMatrix
	src      terrain.Source
	consumer Consumer

	mesh  *Mesh
	cache *pathCache
	queue *requestQueue
	tick  uint64
}

// Option customizes a Service at construction.
type Option func(*Service)

// WithClock overrides the cache clock. The lockstep harness and tests feed
// a tick-derived clock so expiry never depends on wall time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.cache = newPathCache(s.cfg.CacheTTL(), s.cfg.CacheMaxEntries, now)
	}
}

// WithoutCache disables the path cache (every request runs a full search).
// Exists to demonstrate the cache changes latency, never destinations.
func WithoutCache() Option {
	return func(s *Service) { s.cache = nil }
}

// New creates a path planning service. The mesh is not baked yet; Tick
// retries the bake until the terrain source is ready.
func New(cfg config.Nav, reg *terrain.Registry, src terrain.Source, consumer Consumer, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		matrix:   terrain.NewWalkMatrix(reg),
		src:      src,
		consumer: consumer,
		cache:    newPathCache(cfg.CacheTTL(), cfg.CacheMaxEntries, time.Now),
		queue:    newRequestQueue(cfg.MaxQueueLen),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Baked reports whether the navigation mesh has been built.
func (s *Service) Baked() bool { return s.mesh != nil }

// Mesh returns the baked navigation mesh, nil before the bake succeeds.
func (s *Service) Mesh() *Mesh { return s.mesh }

// Tick advances the service by one simulation tick: retry a deferred bake,
// then drain up to MaxPerTick queued requests in deterministic order.
func (s *Service) Tick() {
	s.tick++

	if s.mesh == nil {
		mesh, err := BakeMesh(s.src, s.cfg.CellSize, s.cfg.WorldExtent, s.cfg.BakeWorkers)
		if err != nil {
			if !errors.Is(err, ErrSourceNotReady) {
				slog.Warn("mesh bake failed", "err", err)
			}
			return // retry next tick, queue keeps waiting
		}
		s.mesh = mesh
	}

	s.drain(s.cfg.MaxPerTick)
}

// RequestPath submits a path query. A cache hit resolves synchronously:
// the path is delivered to the consumer and returned. Otherwise the
// request is queued for a later drain and nil is returned for now.
func (s *Service) RequestPath(entityID string, startX, startZ, endX, endZ float64, priority int) []Waypoint {
	key := cacheKey(startX, startZ, endX, endZ, s.cfg.QuantizeSize)

	if s.cache != nil {
		if path, ok := s.cache.get(key); ok {
			s.consumer.SetPath(entityID, path)
			return path
		}
	}

	req := &Request{
		EntityID:     entityID,
		StartX:       startX,
		StartZ:       startZ,
		EndX:         endX,
		EndZ:         endZ,
		Priority:     priority,
		cacheKey:     key,
		enqueuedTick: s.tick,
	}
	if dropped := s.queue.push(req); dropped != nil {
		slog.Warn("request queue full, dropping lowest priority request",
			"dropped_entity", dropped.EntityID,
			"dropped_priority", dropped.Priority,
			"max_len", s.cfg.MaxQueueLen)
		if dropped != req {
			s.consumer.SetPath(dropped.EntityID, nil)
		}
	}
	return nil
}

// drain services up to max queued requests in drain order and delivers
// every result, fallback paths and failures included.
func (s *Service) drain(max int) {
	if s.queue.len() == 0 {
		return
	}

	for _, req := range s.queue.popN(max) {
		path := s.FindPath(req.StartX, req.StartZ, req.EndX, req.EndZ)
		if path != nil && req.cacheKey != "" && s.cache != nil {
			s.cache.put(req.cacheKey, path)
		}
		s.consumer.SetPath(req.EntityID, path)
	}

	if waiting := s.queue.len(); waiting > 0 {
		slog.Debug("requests carried to next tick", "waiting", waiting)
	}
}

// QueueLen returns the number of requests waiting for a future tick.
func (s *Service) QueueLen() int { return s.queue.len() }

// IsPositionWalkable reports whether the world position maps to a cell an
// agent can stand on. Always false before the mesh is baked.
func (s *Service) IsPositionWalkable(worldX, worldZ float64) bool {
	if s.mesh == nil {
		return false
	}
	cx, cz, ok := s.mesh.CellOf(worldX, worldZ)
	if !ok {
		return false
	}
	return s.IsCellWalkable(cx, cz)
}

// IsCellWalkable reports whether the grid cell holds standable terrain.
func (s *Service) IsCellWalkable(cx, cz int32) bool {
	if s.mesh == nil {
		return false
	}
	t := s.mesh.CellAt(cx, cz)
	return t != CellImpassable && s.matrix.IsWalkable(uint32(t))
}

// ClosestWalkableCell scans outward in fixed ring order for the nearest
// standable cell. Callers use it when a query start lands on impassable
// terrain (an agent pushed into a cliff cell by external forces).
// Scan order is fixed, so both lockstep peers resolve the same cell.
func (s *Service) ClosestWalkableCell(cx, cz int32) (int32, int32, bool) {
	if s.mesh == nil {
		return 0, 0, false
	}
	if s.IsCellWalkable(cx, cz) {
		return cx, cz, true
	}

	maxRadius := int32(s.mesh.Width())
	if h := int32(s.mesh.Height()); h > maxRadius {
		maxRadius = h
	}

	for r := int32(1); r < maxRadius; r++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if abs32(dx) != r && abs32(dz) != r {
					continue // interior of the ring, already scanned
				}
				if s.IsCellWalkable(cx+dx, cz+dz) {
					return cx + dx, cz + dz, true
				}
			}
		}
	}
	return 0, 0, false
}
