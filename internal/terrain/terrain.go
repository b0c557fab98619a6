package terrain

import (
	"fmt"
	"slices"
)

// MaxIndex is the highest terrain index a Registry accepts. Index 255 is
// reserved by the navigation mesh as its impassable sentinel.
const MaxIndex uint32 = 254

// Type describes one terrain classification. Walkability is directed:
// an agent standing on this type may step onto index B iff B is listed
// in WalkableNeighbors. The relation is not required to be symmetric.
type Type struct {
	Index             uint32
	Name              string
	WalkableNeighbors []uint32
}

// Source is the terrain classifier collaborator. The mesh bake samples it
// once per cell; it is never consulted after the bake succeeds.
type Source interface {
	// IndexAt returns the terrain index at a world position, or false
	// when the position has no classification.
	IndexAt(worldX, worldZ float64) (uint32, bool)

	// Ready reports whether the classifier can answer IndexAt. A bake
	// attempted before Ready is deferred, never partially applied.
	Ready() bool
}

// Registry holds the immutable terrain type table.
type Registry struct {
	types map[uint32]Type
	max   uint32
}

// NewRegistry validates and indexes a set of terrain type definitions.
func NewRegistry(types []Type) (*Registry, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("no terrain types defined")
	}

	r := &Registry{types: make(map[uint32]Type, len(types))}
	for _, t := range types {
		if t.Index > MaxIndex {
			return nil, fmt.Errorf("terrain %q: index %d exceeds max %d", t.Name, t.Index, MaxIndex)
		}
		if _, dup := r.types[t.Index]; dup {
			return nil, fmt.Errorf("terrain %q: duplicate index %d", t.Name, t.Index)
		}
		t.WalkableNeighbors = slices.Clone(t.WalkableNeighbors)
		r.types[t.Index] = t
		if t.Index > r.max {
			r.max = t.Index
		}
	}

	// Neighbor references must resolve within the registry.
	for _, t := range types {
		for _, n := range t.WalkableNeighbors {
			if _, ok := r.types[n]; !ok {
				return nil, fmt.Errorf("terrain %q: walkable neighbor %d is not defined", t.Name, n)
			}
		}
	}

	return r, nil
}

// Get returns the terrain type for an index.
func (r *Registry) Get(idx uint32) (Type, bool) {
	t, ok := r.types[idx]
	return t, ok
}

// Count returns the number of defined terrain types.
func (r *Registry) Count() int { return len(r.types) }

// Max returns the highest defined terrain index.
func (r *Registry) Max() uint32 { return r.max }

// Indices returns all defined terrain indices in ascending order.
func (r *Registry) Indices() []uint32 {
	out := make([]uint32, 0, len(r.types))
	for idx := range r.types {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}
