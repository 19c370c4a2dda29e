package key_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/tet"
)

func TestMortonParentChildRoundTrip(t *testing.T) {
	t.Parallel()
	root := key.RootMortonKey()
	for i := uint8(0); i < key.Fanout; i++ {
		child := root.Child(i)
		parent, ok := child.Parent()
		require.True(t, ok)
		assert.Equal(t, root, parent)
	}
}

func TestMortonRootHasNoParent(t *testing.T) {
	t.Parallel()
	_, ok := key.RootMortonKey().Parent()
	assert.False(t, ok)
}

func TestMortonLevelFirstOrdering(t *testing.T) {
	t.Parallel()
	root := key.RootMortonKey()
	child := root.Child(0)
	grandchild := child.Child(0)
	assert.Equal(t, -1, root.Compare(child))
	assert.Equal(t, -1, child.Compare(grandchild))
	assert.Equal(t, 1, grandchild.Compare(root))
}

func TestMortonRootChildOrderMatchesIndex(t *testing.T) {
	t.Parallel()
	root := key.RootMortonKey()
	for i := uint8(0); i < key.Fanout-1; i++ {
		a := root.Child(i)
		b := root.Child(i + 1)
		assert.Equal(t, -1, a.Compare(b))
	}
}

func TestMortonContainsPoint(t *testing.T) {
	t.Parallel()
	k, err := key.NewMortonKey(geom.Point{X: 100, Y: 200, Z: 300}, 10)
	require.NoError(t, err)
	assert.True(t, k.ContainsPoint(geom.Point{X: 100, Y: 200, Z: 300}))
}

func TestMortonRejectsNegative(t *testing.T) {
	t.Parallel()
	_, err := key.NewMortonKey(geom.Point{X: -1}, 10)
	assert.Error(t, err)
}

func TestTetreeParentChildRoundTrip(t *testing.T) {
	t.Parallel()
	for typ := uint8(0); typ < 6; typ++ {
		root := key.RootTetreeKey(typ)
		for i := uint8(0); i < key.Fanout; i++ {
			child := root.Child(i)
			parent, ok := child.Parent()
			require.True(t, ok)
			assert.Equal(t, root, parent)
		}
	}
}

func TestTetreeLevelFirstOrdering(t *testing.T) {
	t.Parallel()
	root := key.RootTetreeKey(0)
	child := root.Child(0)
	assert.Equal(t, -1, root.Compare(child))
	assert.Equal(t, 1, child.Compare(root))
}

func TestTetreePackRecordsLevelAndFormAcrossLevels(t *testing.T) {
	t.Parallel()
	cur := key.RootTetreeKey(0)
	for level := uint8(1); level <= 12; level++ {
		cur = cur.Child(uint8(level) % key.Fanout)
		assert.Equal(t, level, cur.Level())
		packed := cur.Pack()
		assert.Equal(t, level, packed.Level)
		assert.Equal(t, level > 10, packed.Extended)
	}
}

func TestTetreePackUnpackRoundTrip(t *testing.T) {
	t.Parallel()
	cur := key.RootTetreeKey(3)
	for level := uint8(1); level <= key.Lmax; level++ {
		cur = cur.Child(uint8(level*3) % key.Fanout)
		got := key.UnpackTetreeKey(cur.Pack())
		assert.Equal(t, cur, got)
	}
}

func TestTetreeFamilyOfRootChildren(t *testing.T) {
	t.Parallel()
	root := key.RootTetreeKey(2)
	var types [8]uint8
	for i := uint8(0); i < key.Fanout; i++ {
		types[i] = root.Child(i).Type()
	}
	assert.True(t, tet.IsFamily(types))
	// Spot check: every child's Parent() must report back the root type.
	for i := uint8(0); i < key.Fanout; i++ {
		parent, ok := root.Child(i).Parent()
		require.True(t, ok)
		assert.Equal(t, root, parent)
	}
}
