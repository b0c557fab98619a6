package nav

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacsim/navgrid/internal/config"
	"github.com/tacsim/navgrid/internal/terrain"
)

// Test terrain table. Marsh can be left only onto marsh: grass→marsh is
// permitted while marsh→grass is not, which exercises the directed
// walkability rules.
const (
	terrGrass  uint32 = 0
	terrForest uint32 = 1
	terrMarsh  uint32 = 2
)

func testRegistry(t *testing.T) *terrain.Registry {
	t.Helper()
	reg, err := terrain.NewRegistry([]terrain.Type{
		{Index: terrGrass, Name: "grass", WalkableNeighbors: []uint32{terrGrass, terrForest, terrMarsh}},
		{Index: terrForest, Name: "forest", WalkableNeighbors: []uint32{terrForest, terrGrass}},
		{Index: terrMarsh, Name: "marsh", WalkableNeighbors: []uint32{terrMarsh}},
	})
	require.NoError(t, err)
	return reg
}

// gridSource is an in-memory terrain classifier over an ASCII map.
// '.' grass, 'f' forest, 'm' marsh, '#' unclassified (impassable).
type gridSource struct {
	rows       []string
	cellSize   float64
	halfExtent float64
	ready      bool
}

func newGridSource(rows []string, cellSize float64) *gridSource {
	return &gridSource{
		rows:       rows,
		cellSize:   cellSize,
		halfExtent: float64(len(rows)) * cellSize / 2,
		ready:      true,
	}
}

func (g *gridSource) Ready() bool { return g.ready }

func (g *gridSource) IndexAt(worldX, worldZ float64) (uint32, bool) {
	cx := int((worldX + g.halfExtent) / g.cellSize)
	cz := int((worldZ + g.halfExtent) / g.cellSize)
	if cz < 0 || cz >= len(g.rows) || cx < 0 || cx >= len(g.rows[cz]) {
		return 0, false
	}
	switch g.rows[cz][cx] {
	case '.':
		return terrGrass, true
	case 'f':
		return terrForest, true
	case 'm':
		return terrMarsh, true
	default:
		return 0, false
	}
}

// pathRecorder collects consumer deliveries in arrival order.
type pathRecorder struct {
	deliveries []delivery
}

type delivery struct {
	entity string
	path   []Waypoint
}

func (r *pathRecorder) SetPath(entityID string, path []Waypoint) {
	r.deliveries = append(r.deliveries, delivery{entity: entityID, path: path})
}

func (r *pathRecorder) last() delivery {
	return r.deliveries[len(r.deliveries)-1]
}

func testNavConfig(rows []string, cellSize float64) config.Nav {
	cfg := config.DefaultNav()
	cfg.CellSize = cellSize
	cfg.WorldExtent = float64(len(rows)) * cellSize
	cfg.BakeWorkers = 2
	cfg.CacheTTLSeconds = 60
	cfg.CacheMaxEntries = 64
	cfg.QuantizeSize = 50
	cfg.SmoothLookahead = 8
	cfg.MaxPerTick = 100
	cfg.MaxQueueLen = 1024
	return cfg
}

// newTestService bakes a service over an ASCII map on the first tick.
func newTestService(t *testing.T, rows []string, opts ...Option) (*Service, *pathRecorder) {
	t.Helper()
	cfg := testNavConfig(rows, 4)
	rec := &pathRecorder{}
	svc := New(cfg, testRegistry(t), newGridSource(rows, 4), rec, opts...)
	svc.Tick()
	require.True(t, svc.Baked(), "mesh should bake from a ready source")
	return svc, rec
}

// cellCenterWorld returns the world position of a cell center for a map
// built by newTestService.
func cellCenterWorld(rows []string, cellSize float64, cx, cz int) (float64, float64) {
	half := float64(len(rows)) * cellSize / 2
	return float64(cx)*cellSize - half + cellSize/2, float64(cz)*cellSize - half + cellSize/2
}

// requireLegalPath audits a returned path: every segment between
// consecutive waypoints must be straight-line walkable, which includes the
// flanking-cell rule for diagonal steps.
func requireLegalPath(t *testing.T, svc *Service, path []Waypoint) {
	t.Helper()
	require.NotEmpty(t, path)
	for i := 1; i < len(path); i++ {
		require.True(t,
			svc.CanMoveBetween(path[i-1].X, path[i-1].Z, path[i].X, path[i].Z),
			"segment %d: (%v) -> (%v) is not walkable", i, path[i-1], path[i])
	}
}
