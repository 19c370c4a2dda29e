package key

import (
	"fmt"

	"github.com/coreindex/spatial3d/spatial/geom"
)

// MortonKey is a cubic-octree cell identity: a bit-interleaved quantized
// coordinate path from the root, plus an explicit level. Level is carried
// as a separate struct field rather than packed into the low nibble of a
// single 64-bit word, which preserves the usual semantics (parent clears
// the low 3 bits and decrements level; comparison is level-first) while
// being unambiguous to read back.
type MortonKey struct {
	code  uint64 // level*3 bits used, MSB-first from the root
	level uint8
}

var _ SpatialKey[MortonKey] = MortonKey{}

// RootMortonKey returns the level-0 root key.
func RootMortonKey() MortonKey {
	return MortonKey{}
}

// NewMortonKey locates the cell at the given level containing p.
func NewMortonKey(p geom.Point, level uint8) (MortonKey, error) {
	if err := ValidateLevel(level); err != nil {
		return MortonKey{}, err
	}
	if err := p.Validate(); err != nil {
		return MortonKey{}, err
	}
	gx, gy, gz := quantizePoint(p)
	gx >>= uint(Lmax - level)
	gy >>= uint(Lmax - level)
	gz >>= uint(Lmax - level)

	var code uint64
	for i := uint8(0); i < level; i++ {
		bit := level - 1 - i
		xb := uint64((gx >> bit) & 1)
		yb := uint64((gy >> bit) & 1)
		zb := uint64((gz >> bit) & 1)
		code = code<<3 | (zb<<2 | yb<<1 | xb)
	}
	return MortonKey{code: code, level: level}, nil
}

// Level implements SpatialKey.
func (k MortonKey) Level() uint8 { return k.level }

// Parent implements SpatialKey.
func (k MortonKey) Parent() (MortonKey, bool) {
	if k.level == 0 {
		return MortonKey{}, false
	}
	return MortonKey{code: k.code >> 3, level: k.level - 1}, true
}

// Child implements SpatialKey.
func (k MortonKey) Child(i uint8) MortonKey {
	if i >= Fanout {
		panic(fmt.Errorf("key.MortonKey.Child: index %d out of range", i))
	}
	if k.level >= Lmax {
		panic(fmt.Errorf("key.MortonKey.Child: level %d already at Lmax", k.level))
	}
	return MortonKey{code: k.code<<3 | uint64(i), level: k.level + 1}
}

// CubeID returns the octant bit-triple (MSB-first zyx) of p at level.
func (k MortonKey) CubeID(p geom.Point, level uint8) uint8 {
	if level == 0 {
		return 0
	}
	gx, gy, gz := quantizePoint(p)
	bit := Lmax - level
	xb := (gx >> bit) & 1
	yb := (gy >> bit) & 1
	zb := (gz >> bit) & 1
	return uint8(zb<<2 | yb<<1 | xb)
}

// bounds returns the cell's min corner and edge length in grid units.
func (k MortonKey) bounds() (min [3]uint32, length uint32) {
	length = CellLength(k.level)
	var x, y, z uint32
	for i := uint8(0); i < k.level; i++ {
		shift := (k.level - 1 - i) * 3
		triple := uint8(k.code>>shift) & 0b111
		bit := Lmax - 1 - i
		x |= uint32(triple&0b001) << bit
		y |= uint32((triple>>1)&0b001) << bit
		z |= uint32((triple>>2)&0b001) << bit
	}
	return [3]uint32{x, y, z}, length
}

// ContainsPoint implements SpatialKey; cells are half-open [min, min+len).
func (k MortonKey) ContainsPoint(p geom.Point) bool {
	if err := p.Validate(); err != nil {
		return false
	}
	gx, gy, gz := quantizePoint(p)
	min, length := k.bounds()
	return gx >= min[0] && gx < min[0]+length &&
		gy >= min[1] && gy < min[1]+length &&
		gz >= min[2] && gz < min[2]+length
}

// Bounds returns the geometric bounds of the cell.
func (k MortonKey) Bounds() geom.Bounds {
	min, length := k.bounds()
	return geom.Bounds{
		Min: geom.Point{X: float32(min[0]), Y: float32(min[1]), Z: float32(min[2])},
		Max: geom.Point{X: float32(min[0] + length), Y: float32(min[1] + length), Z: float32(min[2] + length)},
	}
}

// Compare implements SpatialKey: level first, then code bits unsigned.
func (k MortonKey) Compare(other MortonKey) int {
	if k.level != other.level {
		if k.level < other.level {
			return -1
		}
		return 1
	}
	switch {
	case k.code < other.code:
		return -1
	case k.code > other.code:
		return 1
	default:
		return 0
	}
}

func (k MortonKey) String() string {
	return fmt.Sprintf("Morton(level=%d, code=%#x)", k.level, k.code)
}
