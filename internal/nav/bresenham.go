package nav

// lineIterator steps through grid cells along a 2D line using integer
// Bresenham arithmetic. Identical inputs always visit identical cells,
// which the lockstep determinism requirement depends on.
type lineIterator struct {
	currentX, currentZ int32
	targetX, targetZ   int32
	deltaX, deltaZ     int32
	stepX, stepZ       int32
	err                int32
	xDominant          bool
	started            bool
}

// newLineIterator creates a cell iterator from (sx,sz) to (ex,ez) inclusive.
func newLineIterator(sx, sz, ex, ez int32) *lineIterator {
	it := &lineIterator{
		currentX: sx, currentZ: sz,
		targetX: ex, targetZ: ez,
	}

	it.deltaX = abs32(ex - sx)
	it.deltaZ = abs32(ez - sz)

	if sx < ex {
		it.stepX = 1
	} else {
		it.stepX = -1
	}
	if sz < ez {
		it.stepZ = 1
	} else {
		it.stepZ = -1
	}

	it.xDominant = it.deltaX >= it.deltaZ
	if it.xDominant {
		it.err = it.deltaX / 2
	} else {
		it.err = it.deltaZ / 2
	}

	return it
}

// Next advances the iterator to the next cell.
// Returns false once the target has been yielded.
func (it *lineIterator) Next() bool {
	if !it.started {
		it.started = true
		return true // yield start cell
	}

	if it.currentX == it.targetX && it.currentZ == it.targetZ {
		return false
	}

	if it.xDominant {
		it.currentX += it.stepX
		it.err += it.deltaZ
		if it.err >= it.deltaX {
			it.currentZ += it.stepZ
			it.err -= it.deltaX
		}
	} else {
		it.currentZ += it.stepZ
		it.err += it.deltaX
		if it.err >= it.deltaZ {
			it.currentX += it.stepX
			it.err -= it.deltaZ
		}
	}

	return true
}

// X returns the current cell X coordinate.
func (it *lineIterator) X() int32 { return it.currentX }

// Z returns the current cell Z coordinate.
func (it *lineIterator) Z() int32 { return it.currentZ }

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
