package terrain

// WalkMatrix is the precomputed pairwise walkability table. Built once from
// a Registry and read-only afterwards; both the A* core and the smoother's
// line-of-sight walk answer every edge check through it in O(1).
type WalkMatrix struct {
	stride   uint32
	can      []bool
	walkable []bool
}

// NewWalkMatrix derives the dense (from, to) table from registry data.
// can[from*stride+to] == true iff to ∈ WalkableNeighbors(from).
func NewWalkMatrix(r *Registry) *WalkMatrix {
	stride := r.Max() + 1
	m := &WalkMatrix{
		stride:   stride,
		can:      make([]bool, stride*stride),
		walkable: make([]bool, stride),
	}

	for _, from := range r.Indices() {
		t, _ := r.Get(from)
		for _, to := range t.WalkableNeighbors {
			m.can[from*stride+to] = true
		}
		// A type with no permitted neighbors is unwalkable terrain:
		// nothing can stand on it and plan a move.
		m.walkable[from] = len(t.WalkableNeighbors) > 0
	}

	return m
}

// CanWalk reports whether an agent on terrain from may step onto terrain to.
func (m *WalkMatrix) CanWalk(from, to uint32) bool {
	if from >= m.stride || to >= m.stride {
		return false
	}
	return m.can[from*m.stride+to]
}

// IsWalkable reports whether the terrain index permits standing at all.
func (m *WalkMatrix) IsWalkable(idx uint32) bool {
	if idx >= m.stride {
		return false
	}
	return m.walkable[idx]
}
