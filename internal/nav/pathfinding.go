package nav

import (
	"container/heap"
	"math"
)

// Waypoint is one point of a planned path in world coordinates.
// Height is not part of a path; consumers resolve it from live terrain.
type Waypoint struct {
	X, Z float64
}

// FindPath plans a route between two world positions.
// Returns nil when no mesh is baked yet, when either endpoint lies outside
// the mesh, or when the start cell cannot produce a single legal move.
// An unreachable destination is not a failure: the result then ends at the
// visited cell closest to the goal so agents approach instead of freezing.
func (s *Service) FindPath(startX, startZ, endX, endZ float64) []Waypoint {
	if s.mesh == nil {
		return nil
	}

	sx, sz, ok := s.mesh.CellOf(startX, startZ)
	if !ok {
		return nil
	}
	ex, ez, ok := s.mesh.CellOf(endX, endZ)
	if !ok {
		return nil
	}

	// Same cell — already there, head to the exact destination.
	if sx == ex && sz == ez {
		return []Waypoint{{X: endX, Z: endZ}}
	}

	goal, reached := s.astar(sx, sz, ex, ez)
	if goal == nil {
		return nil
	}

	// Walk parent pointers back to the start, then reverse.
	path := make([]Waypoint, 0, 32)
	for n := goal; n != nil; n = n.parent {
		wx, wz := s.mesh.CellCenter(n.x, n.z)
		path = append(path, Waypoint{X: wx, Z: wz})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	// When the goal cell was actually reached, the final waypoint is the
	// requested destination, not the cell center under it.
	if reached {
		path[len(path)-1] = Waypoint{X: endX, Z: endZ}
	}

	return s.smoothPath(path)
}

// pathNode is a node in the A* search graph.
type pathNode struct {
	x, z   int32
	parent *pathNode
	gCost  float64 // actual cost from start
	hCost  float64 // heuristic cost to goal
	fCost  float64 // gCost + hCost
	seq    uint64  // insertion order, f-score tie-break
	index  int     // heap index
}

type cellKey struct {
	x, z int32
}

// astar runs the bounded 8-connected search. Returns the goal node when the
// goal cell was reached, otherwise the expanded node with the smallest
// heuristic distance to the goal, or nil when the start yields no move.
// Expansion order is fully determined by (fCost, insertion seq); map state
// is only ever used for membership, never for ordering.
func (s *Service) astar(sx, sz, ex, ez int32) (*pathNode, bool) {
	var seq uint64
	start := &pathNode{x: sx, z: sz}
	start.hCost = cellHeuristic(sx, sz, ex, ez)
	start.fCost = start.hCost

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, start)

	closed := make(map[cellKey]struct{}, 256)
	gScore := map[cellKey]float64{{sx, sz}: 0}

	best := start
	pushed := 0

	// Worst case the search floods the whole grid once.
	maxExpansions := int(s.mesh.Width()) * int(s.mesh.Height())

	for expansions := 0; expansions < maxExpansions && open.Len() > 0; {
		current := heap.Pop(open).(*pathNode)

		key := cellKey{current.x, current.z}
		if _, seen := closed[key]; seen {
			continue
		}
		closed[key] = struct{}{}
		expansions++

		if current.x == ex && current.z == ez {
			return current, true
		}

		if current.hCost < best.hCost {
			best = current
		}

		pushed += s.expandNeighbors(current, ex, ez, open, closed, gScore, &seq)
	}

	if pushed == 0 {
		return nil, false // start cell is stranded
	}
	return best, false
}

// cardinalOffsets and diagonalOffsets fix the neighbor visit order.
// Each diagonal names the two flanking cardinals it passes between; both
// must be enterable from the current cell or the diagonal cuts a corner.
var cardinalOffsets = [4]struct {
	dx, dz int32
}{
	{0, -1}, // north
	{1, 0},  // east
	{0, 1},  // south
	{-1, 0}, // west
}

var diagonalOffsets = [4]struct {
	dx, dz int32
	flankA int
	flankB int
}{
	{1, -1, 0, 1},  // NE: north and east
	{1, 1, 1, 2},   // SE: east and south
	{-1, 1, 2, 3},  // SW: south and west
	{-1, -1, 3, 0}, // NW: west and north
}

// expandNeighbors pushes every legal move from current onto the open list.
// Returns the number of nodes pushed.
func (s *Service) expandNeighbors(
	current *pathNode,
	ex, ez int32,
	open *nodeHeap,
	closed map[cellKey]struct{},
	gScore map[cellKey]float64,
	seq *uint64,
) int {
	curTerrain := uint32(s.mesh.CellAt(current.x, current.z))
	pushed := 0

	// enterable[i] caches whether the i-th cardinal neighbor can be
	// stepped onto from the current cell; diagonals reuse it for the
	// corner-cut check regardless of whether the cardinal was pushed.
	var enterable [4]bool

	for i, d := range cardinalOffsets {
		nx := current.x + d.dx
		nz := current.z + d.dz
		if !s.cellEnterableFrom(curTerrain, nx, nz) {
			continue
		}
		enterable[i] = true
		pushed += s.pushNode(current, nx, nz, 1, ex, ez, open, closed, gScore, seq)
	}

	for _, d := range diagonalOffsets {
		if !enterable[d.flankA] || !enterable[d.flankB] {
			continue
		}
		nx := current.x + d.dx
		nz := current.z + d.dz
		if !s.cellEnterableFrom(curTerrain, nx, nz) {
			continue
		}
		pushed += s.pushNode(current, nx, nz, math.Sqrt2, ex, ez, open, closed, gScore, seq)
	}

	return pushed
}

// cellEnterableFrom reports whether an agent on fromTerrain may step onto
// the cell at (cx, cz): inside the mesh, classified, standable, and
// permitted by the directed walkability relation.
func (s *Service) cellEnterableFrom(fromTerrain uint32, cx, cz int32) bool {
	t := s.mesh.CellAt(cx, cz)
	if t == CellImpassable {
		return false
	}
	return s.matrix.IsWalkable(uint32(t)) && s.matrix.CanWalk(fromTerrain, uint32(t))
}

func (s *Service) pushNode(
	current *pathNode,
	nx, nz int32,
	stepCost float64,
	ex, ez int32,
	open *nodeHeap,
	closed map[cellKey]struct{},
	gScore map[cellKey]float64,
	seq *uint64,
) int {
	key := cellKey{nx, nz}
	if _, seen := closed[key]; seen {
		return 0
	}

	g := current.gCost + stepCost
	if prev, ok := gScore[key]; ok && g >= prev {
		return 0
	}
	gScore[key] = g

	*seq++
	node := &pathNode{
		x: nx, z: nz,
		parent: current,
		gCost:  g,
		hCost:  cellHeuristic(nx, nz, ex, ez),
		seq:    *seq,
	}
	node.fCost = node.gCost + node.hCost
	heap.Push(open, node)
	return 1
}

// cellHeuristic is the Euclidean distance between cells, admissible for
// the 1 / √2 step cost model.
func cellHeuristic(x, z, tx, tz int32) float64 {
	dx := float64(x - tx)
	dz := float64(z - tz)
	return math.Sqrt(dx*dx + dz*dz)
}

// nodeHeap implements container/heap for the A* open list.
// Min-heap by fCost; equal scores pop in insertion order so expansion
// order never depends on heap internals.
type nodeHeap []*pathNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].fCost != h[j].fCost {
		return h[i].fCost < h[j].fCost
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
