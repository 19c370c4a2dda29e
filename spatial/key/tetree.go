package key

import (
	"fmt"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/tet"
)

// compactLevelLimit is the highest level whose packed TM-index fits in a
// single 64-bit word (6 bits/level * 10 = 60 bits); levels 11-21 need the
// "extended" 128-bit (two-word) form.
const compactLevelLimit uint8 = 10

// TetreeKey is a tetrahedral-tree cell identity: an anchor grid coordinate,
// a level, and a Bey type in [0,6). Equality (==) and hashing of a TetreeKey
// never need the packed TM-index; the index is computed on demand by Pack,
// via an O(level) ancestor walk, by Compare (and so by the ordered store)
// and by the hot cache in spatial/tmindex.
type TetreeKey struct {
	anchor tet.Coord
	level  uint8
	typ    uint8 // Bey type, [0, tet.NumTypes)
}

var _ SpatialKey[TetreeKey] = TetreeKey{}

// RootTetreeKey returns the level-0 root key of the given type (the cube is
// split into six root tetrahedra, types 0..5, sharing the same anchor).
func RootTetreeKey(typ uint8) TetreeKey {
	if typ >= tet.NumTypes {
		panic(fmt.Errorf("key.RootTetreeKey: type %d out of range", typ))
	}
	return TetreeKey{typ: typ}
}

// NewTetreeKey locates the tetrahedron at the given level and type
// containing p. The Freudenthal triangulation assigns a type to every
// point of the containing cube at a given level; callers choose the type
// directly rather than this constructor deriving it from a fixed rule.
func NewTetreeKey(p geom.Point, level uint8, typ uint8) (TetreeKey, error) {
	if err := ValidateLevel(level); err != nil {
		return TetreeKey{}, err
	}
	if err := p.Validate(); err != nil {
		return TetreeKey{}, err
	}
	if typ >= tet.NumTypes {
		return TetreeKey{}, fmt.Errorf("type %d out of range: %w", typ, errInvalidType)
	}
	gx, gy, gz := quantizePoint(p)
	anchor := tet.Coord{X: gx, Y: gy, Z: gz}
	// Anchor only the bits significant at this level; finer bits are part
	// of the point's position within the cell, not the cell's identity.
	mask := ^(uint32(1)<<(Lmax-level) - 1)
	anchor.X &= mask
	anchor.Y &= mask
	anchor.Z &= mask
	return TetreeKey{anchor: anchor, level: level, typ: typ}, nil
}

var errInvalidType = fmt.Errorf("type must be in [0, %d)", tet.NumTypes)

// Level implements SpatialKey.
func (k TetreeKey) Level() uint8 { return k.level }

// Type returns the Bey type of the cell, [0, tet.NumTypes).
func (k TetreeKey) Type() uint8 { return k.typ }

// Anchor returns the cell's anchor grid coordinate.
func (k TetreeKey) Anchor() tet.Coord { return k.anchor }

// Parent implements SpatialKey. This is O(1): tet.ParentCoord clears a
// single bit per axis, and the parent type comes from the fixed
// child-type-to-parent-type table indexed by this cell's cube-id among its
// siblings.
func (k TetreeKey) Parent() (TetreeKey, bool) {
	if k.level == 0 {
		return TetreeKey{}, false
	}
	cubeID := tet.CubeID(k.anchor, k.level-1, Lmax)
	parentType := tet.ParentType(cubeID, k.typ)
	parentAnchor := tet.ParentCoord(k.anchor, k.level, Lmax)
	return TetreeKey{anchor: parentAnchor, level: k.level - 1, typ: parentType}, true
}

// Child implements SpatialKey. i is the Bey child index / cube-id.
func (k TetreeKey) Child(i uint8) TetreeKey {
	if i >= Fanout {
		panic(fmt.Errorf("key.TetreeKey.Child: index %d out of range", i))
	}
	if k.level >= Lmax {
		panic(fmt.Errorf("key.TetreeKey.Child: level %d already at Lmax", k.level))
	}
	childAnchor := tet.ChildCoord(k.anchor, k.level, Lmax, i)
	childType := tet.ChildType(k.typ, i)
	return TetreeKey{anchor: childAnchor, level: k.level + 1, typ: childType}
}

// CubeID returns the octant bit-triple (MSB-first z y x) of p at level,
// which is this key's level + 1.
func (k TetreeKey) CubeID(p geom.Point, level uint8) uint8 {
	if level == 0 {
		return 0
	}
	gx, gy, gz := quantizePoint(p)
	c := tet.Coord{X: gx, Y: gy, Z: gz}
	return tet.CubeID(c, level-1, Lmax)
}

// ContainsPoint implements SpatialKey. It tests containment within the
// cell's circumscribing cube rather than the exact simplex (see
// DESIGN.md); exact for the grid tests elsewhere in this package, and a
// superset for point-in-tet queries.
func (k TetreeKey) ContainsPoint(p geom.Point) bool {
	if err := p.Validate(); err != nil {
		return false
	}
	gx, gy, gz := quantizePoint(p)
	length := CellLength(k.level)
	return gx >= k.anchor.X && gx < k.anchor.X+length &&
		gy >= k.anchor.Y && gy < k.anchor.Y+length &&
		gz >= k.anchor.Z && gz < k.anchor.Z+length
}

// Bounds returns the geometric bounds of the cell's circumscribing cube.
func (k TetreeKey) Bounds() geom.Bounds {
	length := CellLength(k.level)
	return geom.Bounds{
		Min: geom.Point{X: float32(k.anchor.X), Y: float32(k.anchor.Y), Z: float32(k.anchor.Z)},
		Max: geom.Point{
			X: float32(k.anchor.X + length),
			Y: float32(k.anchor.Y + length),
			Z: float32(k.anchor.Z + length),
		},
	}
}

// PackedIndex is the materialized TM-index: 6 bits per level along the
// ancestor chain, packed low-to-high. Compact keys (level <= 10) use only
// Lo; extended keys (level 11-21) spill into Hi.
type PackedIndex struct {
	Lo       uint64
	Hi       uint64
	Extended bool
	Level    uint8
	// RootType identifies which of the six primitive root tetrahedra this
	// index descends from. It is carried alongside the packed bits rather
	// than folded into them, since the ancestor-chain packing only has
	// slots for levels 1..Level.
	RootType uint8
}

// Pack performs an O(level) ancestor-chain walk, producing the packed
// TM-index. Materialization is never required for equality or hashing;
// Compare (and through it the ordered node store) and the TM-index hot
// cache (spatial/tmindex) call Pack on demand.
//
// Each level beyond the root contributes a 6-bit slot (cube-id in the top
// 3 bits, type in the low 3) packed low-to-high: compactLevelLimit slots
// fit in Lo, the next compactLevelLimit in Hi. Two full words only have
// room for 2*compactLevelLimit slots, one short of Lmax; the 21st level's
// slot has no room for its type nibble, so only its cube-id is packed,
// into the otherwise-unused top 3 bits of Hi.
func (k TetreeKey) Pack() PackedIndex {
	type step struct {
		cubeID uint8
		typ    uint8
	}
	steps := make([]step, 0, k.level)
	cur := k
	for cur.level > 0 {
		cubeID := tet.CubeID(cur.anchor, cur.level-1, Lmax)
		steps = append(steps, step{cubeID: cubeID, typ: cur.typ})
		parent, _ := cur.Parent()
		cur = parent
	}
	rootType := cur.typ // cur is now the level-0 root

	extended := k.level > compactLevelLimit
	var hiRegularCount uint8
	if extended {
		hiRegularCount = k.level - compactLevelLimit
		if hiRegularCount > compactLevelLimit {
			hiRegularCount = compactLevelLimit
		}
	}

	// steps is leaf-to-root; pack root-to-leaf so that clearing the low 6
	// bits and decrementing level yields the parent's packed index.
	var lo, hi uint64
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		depthFromRoot := uint8(len(steps) - 1 - i)
		switch {
		case depthFromRoot < compactLevelLimit:
			lo = lo<<6 | uint64(s.cubeID)<<3 | uint64(s.typ&0b111)
		case depthFromRoot < compactLevelLimit+hiRegularCount:
			hi = hi<<6 | uint64(s.cubeID)<<3 | uint64(s.typ&0b111)
		default:
			hi |= uint64(s.cubeID&0b111) << 60
		}
	}
	return PackedIndex{Lo: lo, Hi: hi, Extended: extended, Level: k.level, RootType: rootType}
}

// Unpack reverses Pack, reconstructing the TetreeKey from its packed form.
// Round-trips with Pack: Unpack(k.Pack()) == k.
func UnpackTetreeKey(p PackedIndex) TetreeKey {
	cur := RootTetreeKey(p.RootType)
	var hiRegularCount uint8
	if p.Extended {
		hiRegularCount = p.Level - compactLevelLimit
		if hiRegularCount > compactLevelLimit {
			hiRegularCount = compactLevelLimit
		}
	}
	for depth := uint8(0); depth < p.Level; depth++ {
		var cubeID uint8
		switch {
		case depth < compactLevelLimit:
			loSlotCount := minU8(p.Level, compactLevelLimit)
			shift := (uint64(loSlotCount) - 1 - uint64(depth)) * 6
			cubeID = uint8((p.Lo >> shift) & 0b111111 >> 3)
		case depth < compactLevelLimit+hiRegularCount:
			hiDepth := depth - compactLevelLimit
			shift := (uint64(hiRegularCount) - 1 - uint64(hiDepth)) * 6
			cubeID = uint8((p.Hi >> shift) & 0b111111 >> 3)
		default:
			cubeID = uint8((p.Hi >> 60) & 0b111)
		}
		cur = cur.Child(cubeID)
	}
	return cur
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// Compare implements SpatialKey: level first, then packed bits unsigned
// (extended keys compare Hi before Lo, since Hi holds the more-significant,
// deeper-in-the-chain slots for levels beyond the compact limit).
func (k TetreeKey) Compare(other TetreeKey) int {
	if k.level != other.level {
		if k.level < other.level {
			return -1
		}
		return 1
	}
	a, b := k.Pack(), other.Pack()
	if a.Hi != b.Hi {
		if a.Hi < b.Hi {
			return -1
		}
		return 1
	}
	switch {
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	default:
		return 0
	}
}

func (k TetreeKey) String() string {
	return fmt.Sprintf("Tetree(level=%d, type=%d, anchor=%v)", k.level, k.typ, k.anchor)
}
