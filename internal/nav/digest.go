package nav

import (
	"encoding/binary"
	"math"
)

// FNV-1a parameters.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// Digest accumulates a cheap FNV-1a fingerprint of delivered paths.
// Two instances fed the same request schedule must produce equal sums
// every tick; any difference is a desynchronization bug.
type Digest struct {
	h   uint64
	buf [8]byte
}

// NewDigest returns an empty path digest.
func NewDigest() *Digest {
	return &Digest{h: fnvOffset}
}

// Reset restores the digest to its initial state.
func (d *Digest) Reset() {
	d.h = fnvOffset
}

// WritePath folds one delivery into the digest: the entity, a nil/present
// marker, and every waypoint's exact float bits.
func (d *Digest) WritePath(entityID string, path []Waypoint) {
	for i := 0; i < len(entityID); i++ {
		d.writeByte(entityID[i])
	}
	if path == nil {
		d.writeByte(0)
		return
	}
	d.writeByte(1)
	for _, wp := range path {
		d.writeUint64(math.Float64bits(wp.X))
		d.writeUint64(math.Float64bits(wp.Z))
	}
}

// Sum64 returns the current fingerprint.
func (d *Digest) Sum64() uint64 { return d.h }

func (d *Digest) writeByte(b byte) {
	d.h = (d.h ^ uint64(b)) * fnvPrime
}

func (d *Digest) writeUint64(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	for _, b := range d.buf {
		d.writeByte(b)
	}
}
