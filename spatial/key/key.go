// Package key defines the SpatialKey capability and its two realizations:
// MortonKey (cubic octree) and TetreeKey (tetrahedral tree over Bey
// refinement). Both encode (level, path-from-root) in a total order
// compatible with SFC traversal.
package key

import (
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/spatialerr"
)

// Lmax is the maximum level, chosen so that Lmax*3 = 63 bits of coordinate
// range are addressable.
const Lmax uint8 = 21

// Fanout is the number of children of any cell, for both realizations.
const Fanout = 8

// SpatialKey is the capability set every key realization provides. Self is
// the concrete realization type (MortonKey or TetreeKey); this is an
// F-bounded interface so that generic engines (spatial/query, spatial/store)
// can be parameterized over "some SpatialKey realization" without losing
// the concrete type across Parent/Child calls.
type SpatialKey[Self any] interface {
	// Level returns the key's depth, in [0, Lmax].
	Level() uint8

	// Parent returns the key one level up, or ok=false at the root.
	Parent() (Self, bool)

	// Child returns child i, i in [0, Fanout). Panics if i is out of range.
	Child(i uint8) Self

	// ContainsPoint reports geometric containment of the underlying cell.
	ContainsPoint(p geom.Point) bool

	// Bounds returns the geometric bounds of the circumscribing cube,
	// used by spatial/store to enumerate the cells a bounded entity
	// overlaps under a spanning policy.
	Bounds() geom.Bounds

	// CubeID returns the octant (child index) of p at the given level,
	// which must be this key's level + 1. Used by spatial/store during
	// subdivision to place an entity into the correct child.
	CubeID(p geom.Point, level uint8) uint8

	// Compare gives a total order: level compares first, then key bits
	// unsigned.
	Compare(other Self) int

	// String renders a short debug form.
	String() string
}

// quantizeAxis floors a non-negative coordinate to an integer grid index in
// [0, 2^Lmax).
func quantizeAxis(c float32) uint32 {
	if c < 0 {
		return 0
	}
	v := uint64(c)
	const max = uint64(1)<<uint(Lmax) - 1
	if v > max {
		v = max
	}
	return uint32(v)
}

func quantizePoint(p geom.Point) (x, y, z uint32) {
	return quantizeAxis(p.X), quantizeAxis(p.Y), quantizeAxis(p.Z)
}

// ValidateLevel rejects a level outside [0, Lmax].
func ValidateLevel(level uint8) error {
	if level > Lmax {
		return spatialerr.Newf(spatialerr.InvalidInput, "level %d exceeds Lmax %d", level, Lmax)
	}
	return nil
}

// CellLength returns the edge length of a cell at the given level: the
// domain is 2^Lmax units wide, halved once per level.
func CellLength(level uint8) uint32 {
	return uint32(1) << uint(Lmax-level)
}
