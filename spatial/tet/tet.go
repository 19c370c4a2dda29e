// Package tet provides the tetrahedral connectivity algebra: the fixed
// Bey-refinement tables and the O(1) operations built on top of them
// (parent/child coordinate transforms, face neighbors, family checks).
//
// The table VALUES below are reproduced from tetrahedral space-filling-curve
// literature (the Bey/Freudenthal six-type refinement scheme used by
// t8code-style implementations); no copy of a reference implementation was
// available in this module's source material, so they are this module's
// best-effort reconstruction, not a byte-for-byte port of any single
// upstream source. See DESIGN.md's Open Question entry for this table.
package tet

import "fmt"

const (
	// NumTypes is the number of primitive tetrahedron types produced by
	// Bey refinement of a cube.
	NumTypes = 6
	// Fanout is the number of children each tetrahedron has under Bey
	// refinement (same fanout as the cube/Morton octree).
	Fanout = 8
)

// ParentTypeToChildType[p][i] is the type of Bey-child i of a parent of
// type p. Bey's construction places child i in cube-octant i of the
// parent's circumscribing cube, so the child index below doubles as the
// cube-id used throughout this package.
var ParentTypeToChildType = [NumTypes][Fanout]uint8{
	{0, 0, 0, 0, 4, 5, 2, 1},
	{1, 1, 1, 1, 3, 2, 5, 0},
	{2, 2, 2, 2, 0, 1, 4, 3},
	{3, 3, 3, 3, 5, 4, 1, 2},
	{4, 4, 4, 4, 2, 3, 0, 5},
	{5, 5, 5, 5, 1, 0, 3, 4},
}

// childTypeToParentType[cubeID][childType] = parent type. Built once at
// init by inverting ParentTypeToChildType column-wise; each column of that
// table is a permutation of [0,6), so the inverse is well defined.
var childTypeToParentType [Fanout][NumTypes]uint8

func init() {
	for cubeID := 0; cubeID < Fanout; cubeID++ {
		for parentType := 0; parentType < NumTypes; parentType++ {
			childType := ParentTypeToChildType[parentType][cubeID]
			childTypeToParentType[cubeID][childType] = uint8(parentType)
		}
	}
}

// ParentType returns the type of the parent of a cell with the given type,
// given the cube-id (Bey child index, [0,8)) identifying which child it is.
func ParentType(cubeID, childType uint8) uint8 {
	return childTypeToParentType[cubeID][childType]
}

// ChildType returns the type of Bey-child cubeID of a parent with the given
// type.
func ChildType(parentType, cubeID uint8) uint8 {
	return ParentTypeToChildType[parentType][cubeID]
}

// TypeToFaceCorners[t][f] holds the three local vertex indices (into the
// standard 4-vertex tetrahedron numbering) making up face f of a type-t
// tetrahedron.
var TypeToFaceCorners = [NumTypes][4][3]uint8{
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
	{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
}

// ChildrenAtFace[t][f] lists the Bey child indices (cube-ids) whose union
// tiles face f of a type-t parent.
var ChildrenAtFace = [NumTypes][4][4]uint8{
	{{1, 2, 3, 6}, {0, 2, 3, 5}, {0, 1, 3, 7}, {0, 1, 2, 4}},
	{{1, 2, 3, 5}, {0, 2, 3, 6}, {0, 1, 3, 4}, {0, 1, 2, 7}},
	{{1, 2, 3, 7}, {0, 2, 3, 4}, {0, 1, 3, 6}, {0, 1, 2, 5}},
	{{1, 2, 3, 4}, {0, 2, 3, 7}, {0, 1, 3, 5}, {0, 1, 2, 6}},
	{{1, 2, 3, 6}, {0, 2, 3, 5}, {0, 1, 3, 7}, {0, 1, 2, 4}},
	{{1, 2, 3, 5}, {0, 2, 3, 6}, {0, 1, 3, 4}, {0, 1, 2, 7}},
}

// FaceChildFace[t][i][f] is the face of child i (a type ChildType(t,i)
// tetrahedron) that coincides with face f of the type-t parent, or 255 if
// child i does not touch face f at all.
var FaceChildFace = buildFaceChildFace()

func buildFaceChildFace() [NumTypes][Fanout][4]uint8 {
	var out [NumTypes][Fanout][4]uint8
	for t := 0; t < NumTypes; t++ {
		for i := 0; i < Fanout; i++ {
			for f := 0; f < 4; f++ {
				out[t][i][f] = 255
			}
		}
		for f := 0; f < 4; f++ {
			for _, child := range ChildrenAtFace[t][f] {
				// The child shares the parent's face f; by the corner-vs-
				// octahedron Bey construction, a corner child (cube-id < 4)
				// reuses the same local face slot as its parent, while an
				// octahedron child (cube-id >= 4) reuses the opposite slot.
				if child < 4 {
					out[t][child][f] = uint8(f)
				} else {
					out[t][child][3-f] = uint8(f)
				}
			}
		}
	}
	return out
}

// SiblingIndices[i][j] gives the relative index of sibling j as seen from
// sibling i. Bey siblings are addressed directly by cube-id, so this is
// the identity table; kept as a table rather than the identity function
// so callers get a connectivity-table lookup regardless of numbering.
var SiblingIndices = buildSiblingIndices()

func buildSiblingIndices() [Fanout][Fanout]uint8 {
	var out [Fanout][Fanout]uint8
	for i := 0; i < Fanout; i++ {
		for j := 0; j < Fanout; j++ {
			out[i][j] = uint8(j)
		}
	}
	return out
}

// FaceNeighborTypeTransitions[t][f] is the type a face-neighbor tetrahedron
// assumes when crossing face f of a type-t tetrahedron.
var FaceNeighborTypeTransitions = [NumTypes][4]uint8{
	{0, 1, 0, 1},
	{1, 0, 1, 0},
	{2, 3, 2, 3},
	{3, 2, 3, 2},
	{4, 5, 4, 5},
	{5, 4, 5, 4},
}

// Coord is an integer grid coordinate in [0, 2^Lmax).
type Coord struct {
	X, Y, Z uint32
}

// CubeID returns the octant bit-triple (MSB-first, z y x) of coord at the
// bit position corresponding to the step from level to level+1, i.e. bit
// (lmax-level-1) of each axis.
func CubeID(c Coord, level, lmax uint8) uint8 {
	bit := uint(lmax) - uint(level) - 1
	xb := (c.X >> bit) & 1
	yb := (c.Y >> bit) & 1
	zb := (c.Z >> bit) & 1
	return uint8(zb<<2 | yb<<1 | xb)
}

// ParentCoord clears the bit at position (lmax-level) in each axis,
// producing the anchor coordinate of the parent cell.
func ParentCoord(c Coord, level, lmax uint8) Coord {
	bit := uint(lmax) - uint(level)
	mask := ^(uint32(1) << bit)
	return Coord{X: c.X & mask, Y: c.Y & mask, Z: c.Z & mask}
}

// ChildCoord sets the bit at position (lmax-level-1) in each axis according
// to the cube-id (Bey child index) cubeID.
func ChildCoord(c Coord, level, lmax uint8, cubeID uint8) Coord {
	bit := uint(lmax) - uint(level) - 1
	out := c
	if cubeID&0b001 != 0 {
		out.X |= 1 << bit
	}
	if cubeID&0b010 != 0 {
		out.Y |= 1 << bit
	}
	if cubeID&0b100 != 0 {
		out.Z |= 1 << bit
	}
	return out
}

// faceAxis[f] and faceSign[f] give the coordinate axis (0=X, 1=Y) and
// step direction crossed by face f. Only X and Y are reachable this way: a
// tetrahedron has 4 faces, and this locality model assigns them two per
// axis, leaving Z untouched. See DESIGN.md for the open question this
// simplification leaves for an SFC-stepping ray walk.
var faceAxis = [4]uint8{0, 0, 1, 1}
var faceSign = [4]int32{1, -1, 1, -1}

// FaceNeighbor computes the coordinate and type of the tetrahedron sharing
// face f with the cell (coord, level, typ), or ok=false if the neighbor
// would lie outside the non-negative domain (a boundary).
func FaceNeighbor(coord Coord, level, lmax uint8, typ uint8, face uint8) (Coord, uint8, bool) {
	if face > 3 {
		panic(fmt.Errorf("tet.FaceNeighbor: face %d out of range", face))
	}
	bit := uint(lmax) - uint(level)
	delta := faceSign[face] * (int32(1) << bit)

	x, y, z := int64(coord.X), int64(coord.Y), int64(coord.Z)
	switch faceAxis[face] {
	case 0:
		x += int64(delta)
	case 1:
		y += int64(delta)
	}
	if x < 0 || y < 0 || z < 0 {
		return Coord{}, 0, false
	}
	nc := Coord{X: uint32(x), Y: uint32(y), Z: uint32(z)}
	nt := FaceNeighborTypeTransitions[typ][face]
	return nc, nt, true
}

// IsFamily reports whether the eight types given are exactly the eight
// Bey-child types of a common parent type, in cube-id order.
func IsFamily(types [Fanout]uint8) bool {
	for parentType := 0; parentType < NumTypes; parentType++ {
		match := true
		for cubeID := 0; cubeID < Fanout; cubeID++ {
			if ParentTypeToChildType[parentType][cubeID] != types[cubeID] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
