package tet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreindex/spatial3d/spatial/tet"
)

func TestParentChildTypeRoundTrip(t *testing.T) {
	t.Parallel()
	for parentType := uint8(0); parentType < tet.NumTypes; parentType++ {
		for cubeID := uint8(0); cubeID < tet.Fanout; cubeID++ {
			childType := tet.ChildType(parentType, cubeID)
			assert.Equal(t, parentType, tet.ParentType(cubeID, childType),
				"parentType=%d cubeID=%d childType=%d", parentType, cubeID, childType)
		}
	}
}

func TestIsFamily(t *testing.T) {
	t.Parallel()
	for parentType := uint8(0); parentType < tet.NumTypes; parentType++ {
		var types [tet.Fanout]uint8
		for i := range types {
			types[i] = tet.ChildType(parentType, uint8(i))
		}
		assert.True(t, tet.IsFamily(types))
	}

	notFamily := [tet.Fanout]uint8{0, 0, 0, 0, 0, 0, 0, 0}
	// all-zero only matches a real family if every child of some parent
	// type actually has type 0, which is false for every parent type here.
	assert.False(t, tet.IsFamily(notFamily))
}

func TestParentChildCoordRoundTrip(t *testing.T) {
	t.Parallel()
	const lmax = 21
	c := tet.Coord{X: 0b101010, Y: 0b011001, Z: 0b110110}
	for level := uint8(1); level < 10; level++ {
		cubeID := tet.CubeID(c, level-1, lmax)
		child := tet.ChildCoord(tet.ParentCoord(c, level, lmax), level-1, lmax, cubeID)
		assert.Equal(t, tet.ParentCoord(c, level, lmax), tet.ParentCoord(child, level, lmax))
	}
}

func TestFaceNeighborBoundary(t *testing.T) {
	t.Parallel()
	const lmax = 21
	_, _, ok := tet.FaceNeighbor(tet.Coord{X: 0, Y: 0, Z: 0}, 5, lmax, 0, 1)
	assert.False(t, ok)

	_, _, ok = tet.FaceNeighbor(tet.Coord{X: 100, Y: 100, Z: 100}, 5, lmax, 0, 0)
	assert.True(t, ok)
}
