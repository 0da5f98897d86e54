package atom

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// hashCombine folds a new value into a running hash using the classic
// boost::hash_combine shape: seed XOR (value + magic + rotate(seed)).
// xxhash supplies the underlying per-value hash; the combinator shape
// keeps independent fields (kind tag, payload) from mixing away to zero.
func hashCombine(seed uint64, h uint64) uint64 {
	return seed ^ (h + 0x9e3779b97f4a7c15 + (seed << 6) + (seed >> 2))
}

func hashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

func hashUint64(n uint64) uint64 {
	var b [8]byte
	b[0] = byte(n)
	b[1] = byte(n >> 8)
	b[2] = byte(n >> 16)
	b[3] = byte(n >> 24)
	b[4] = byte(n >> 32)
	b[5] = byte(n >> 40)
	b[6] = byte(n >> 48)
	b[7] = byte(n >> 56)
	return hashBytes(b[:])
}

func hashInt64(n int64) uint64 {
	return hashUint64(uint64(n))
}

// hashMachineReal chops the low 8 mantissa bits before combining, so two
// near-equal doubles hash identically.
func hashMachineReal(f float64) uint64 {
	bits := math.Float64bits(f)
	bits &^= 0xFF // clear the low 8 mantissa bits
	return hashUint64(bits)
}

// kindSeedFor gives each atom kind a distinct starting seed so that, e.g., the
// integer 0 and the real 0.0 never collide purely by payload coincidence
// (their Hash still differs because MachineReal takes the chopped-mantissa
// path above, but other kinds benefit from this separation too).
func kindSeedFor(tag byte) uint64 {
	return hashCombine(0xcbf29ce484222325, uint64(tag))
}
