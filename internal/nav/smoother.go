package nav

// smoothPath collapses a raw grid-aligned waypoint sequence into a shorter
// polyline. Greedy forward scan: from the current anchor, the farthest
// candidate within the lookahead window that has a clear line of walk wins
// and the intermediate waypoints are dropped. The window is deliberately
// bounded — scanning the whole remainder produces paths that hug obstacle
// corners. Passes repeat until a pass removes nothing, so smoothing an
// already-smoothed path returns it unchanged.
func (s *Service) smoothPath(path []Waypoint) []Waypoint {
	for {
		if len(path) <= 2 {
			return path
		}

		changed := false
		smoothed := make([]Waypoint, 0, len(path))
		smoothed = append(smoothed, path[0])

		i := 0
		for i < len(path)-1 {
			next := i + 1
			last := min(i+s.cfg.SmoothLookahead, len(path)-1)
			for j := last; j > i+1; j-- {
				if s.lineClear(path[i], path[j]) {
					next = j
					break
				}
			}
			if next > i+1 {
				changed = true
			}
			smoothed = append(smoothed, path[next])
			i = next
		}

		path = smoothed
		if !changed {
			return path
		}
	}
}

// lineClear reports whether an agent can walk straight from a to b.
// The segment is traced cell by cell with integer Bresenham stepping; every
// visited cell must be enterable from the previous one, and diagonal steps
// must pass the same flanking-cell check as the A* mover so smoothing never
// reintroduces a corner cut.
func (s *Service) lineClear(a, b Waypoint) bool {
	ax, az, ok := s.mesh.CellOf(a.X, a.Z)
	if !ok {
		return false
	}
	bx, bz, ok := s.mesh.CellOf(b.X, b.Z)
	if !ok {
		return false
	}

	it := newLineIterator(ax, az, bx, bz)
	it.Next() // skip start cell

	prevX, prevZ := ax, az
	for it.Next() {
		curX, curZ := it.X(), it.Z()
		if curX == prevX && curZ == prevZ {
			continue
		}

		prevTerrain := uint32(s.mesh.CellAt(prevX, prevZ))
		if !s.cellEnterableFrom(prevTerrain, curX, curZ) {
			return false
		}

		if curX != prevX && curZ != prevZ {
			if !s.cellEnterableFrom(prevTerrain, prevX, curZ) {
				return false
			}
			if !s.cellEnterableFrom(prevTerrain, curX, prevZ) {
				return false
			}
		}

		prevX, prevZ = curX, curZ
	}

	return true
}

// CanMoveBetween reports whether a straight walk between two world
// positions stays on legal terrain the whole way.
func (s *Service) CanMoveBetween(startX, startZ, endX, endZ float64) bool {
	if s.mesh == nil {
		return false
	}
	return s.lineClear(Waypoint{X: startX, Z: startZ}, Waypoint{X: endX, Z: endZ})
}
