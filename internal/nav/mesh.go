package nav

import (
	"errors"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tacsim/navgrid/internal/terrain"
)

// CellImpassable marks mesh cells with no terrain classification.
// Terrain indices therefore top out at terrain.MaxIndex (254).
const CellImpassable uint8 = 255

// ErrSourceNotReady is returned by BakeMesh when the terrain classifier
// cannot be sampled yet. The caller defers and retries on a later tick.
var ErrSourceNotReady = errors.New("terrain source not ready")

// Mesh is the baked navigation grid: one terrain index per cell, row-major,
// covering the world extent centered at the origin. Read-only after bake.
type Mesh struct {
	cellSize   float64
	halfExtent float64
	width      uint32
	height     uint32
	cells      []uint8
}

// BakeMesh samples the terrain source at every cell center and freezes the
// result. The bake is pure: same source, same geometry, same mesh — both
// lockstep peers bake independently from shared terrain data instead of
// transmitting the grid. Rows are sampled in parallel but write disjoint
// slices, so worker scheduling cannot change the output. The source must
// tolerate concurrent reads.
func BakeMesh(src terrain.Source, cellSize, worldExtent float64, workers int) (*Mesh, error) {
	if !src.Ready() {
		return nil, ErrSourceNotReady
	}

	side := uint32(math.Ceil(worldExtent / cellSize))
	if side == 0 {
		side = 1
	}
	m := &Mesh{
		cellSize:   cellSize,
		halfExtent: worldExtent / 2,
		width:      side,
		height:     side,
		cells:      make([]uint8, side*side),
	}

	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)

	for z := uint32(0); z < m.height; z++ {
		row := m.cells[z*m.width : (z+1)*m.width]
		wz := m.cellCenterZ(z)
		g.Go(func() error {
			for x := uint32(0); x < m.width; x++ {
				idx, ok := src.IndexAt(m.cellCenterX(x), wz)
				if !ok || idx > terrain.MaxIndex {
					row[x] = CellImpassable
					continue
				}
				row[x] = uint8(idx)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("navigation mesh baked",
		"width", m.width,
		"height", m.height,
		"cell_size", cellSize)
	return m, nil
}

// Width returns the mesh width in cells.
func (m *Mesh) Width() uint32 { return m.width }

// Height returns the mesh height in cells.
func (m *Mesh) Height() uint32 { return m.height }

// CellSize returns the world size of one cell.
func (m *Mesh) CellSize() float64 { return m.cellSize }

// InBounds reports whether the cell coordinates fall inside the grid.
func (m *Mesh) InBounds(cx, cz int32) bool {
	return cx >= 0 && cz >= 0 && uint32(cx) < m.width && uint32(cz) < m.height
}

// CellAt returns the terrain index stored at a cell, or CellImpassable
// for out-of-bounds coordinates.
func (m *Mesh) CellAt(cx, cz int32) uint8 {
	if !m.InBounds(cx, cz) {
		return CellImpassable
	}
	return m.cells[uint32(cz)*m.width+uint32(cx)]
}

// CellOf converts a world position to cell coordinates.
// Positions outside the world extent report false.
func (m *Mesh) CellOf(worldX, worldZ float64) (int32, int32, bool) {
	cx := int32(math.Floor((worldX + m.halfExtent) / m.cellSize))
	cz := int32(math.Floor((worldZ + m.halfExtent) / m.cellSize))
	if !m.InBounds(cx, cz) {
		return 0, 0, false
	}
	return cx, cz, true
}

// CellCenter returns the world position at the center of a cell.
func (m *Mesh) CellCenter(cx, cz int32) (float64, float64) {
	return m.cellCenterX(uint32(cx)), m.cellCenterZ(uint32(cz))
}

func (m *Mesh) cellCenterX(cx uint32) float64 {
	return float64(cx)*m.cellSize - m.halfExtent + m.cellSize/2
}

func (m *Mesh) cellCenterZ(cz uint32) float64 {
	return float64(cz)*m.cellSize - m.halfExtent + m.cellSize/2
}
