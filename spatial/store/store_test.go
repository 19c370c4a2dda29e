package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

func mortonFactory(p geom.Point, level uint8) (key.MortonKey, error) {
	return key.NewMortonKey(p, level)
}

func TestInsertLookupRemove(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, 4, store.None, 0)

	id, err := m.Insert(geom.Point{X: 10, Y: 20, Z: 30}, "widget", nil)
	require.NoError(t, err)

	ent, ok := m.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "widget", ent.Content)
	assert.Len(t, ent.Keys, 1)

	for k := range ent.Keys {
		node, ok := s.Lookup(k)
		require.True(t, ok)
		assert.True(t, node.Entities.Has(id))
	}

	require.NoError(t, m.Remove(id))
	_, ok = m.Lookup(id)
	assert.False(t, ok)
}

func TestInsertRejectsNegativePosition(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, 4, store.None, 0)

	_, err := m.Insert(geom.Point{X: -1, Y: 0, Z: 0}, "bad", nil)
	assert.Error(t, err)
}

func TestUpdateMovesBetweenNodes(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, 6, store.None, 0)

	id, err := m.Insert(geom.Point{X: 0, Y: 0, Z: 0}, "mover", nil)
	require.NoError(t, err)
	before, _ := m.Lookup(id)
	var beforeKey key.MortonKey
	for k := range before.Keys {
		beforeKey = k
	}

	require.NoError(t, m.Update(id, geom.Point{X: 100000, Y: 100000, Z: 100000}, nil))
	after, _ := m.Lookup(id)
	var afterKey key.MortonKey
	for k := range after.Keys {
		afterKey = k
	}
	assert.NotEqual(t, beforeKey, afterKey)

	beforeNode, ok := s.Lookup(beforeKey)
	if ok {
		assert.False(t, beforeNode.Entities.Has(id))
	}
	afterNode, ok := s.Lookup(afterKey)
	require.True(t, ok)
	assert.True(t, afterNode.Entities.Has(id))
}

func TestUpdateMissingIDIsNotFound(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, 4, store.None, 0)
	err := m.Update(999, geom.Point{}, nil)
	assert.Error(t, err)
}

func TestSubdivisionRedistributesEntities(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, int](
		s, store.NewSequentialIDs(), mortonFactory, 2, store.None, 2)

	// Insert entities spread across distinct child octants at level 3 so
	// that subdivision pushes them down rather than leaving them as
	// straddlers.
	positions := []geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 600000, Y: 0, Z: 0},
		{X: 0, Y: 600000, Z: 0},
	}
	var ids []uint64
	for _, p := range positions {
		id, err := m.Insert(p, 0, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// All three should still be reachable regardless of which node they
	// ended up in after subdivision.
	for _, id := range ids {
		ent, ok := m.Lookup(id)
		require.True(t, ok)
		found := false
		for k := range ent.Keys {
			if node, ok := s.Lookup(k); ok && node.Entities.Has(id) {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestRangePrefixOnlyReturnsDescendants(t *testing.T) {
	t.Parallel()
	s := store.New[key.MortonKey, uint64]()
	root := key.RootMortonKey()
	childA := root.Child(0)
	childB := root.Child(1)
	grandchild := childA.Child(3)

	s.InsertIfAbsent(childA)
	s.InsertIfAbsent(childB)
	s.InsertIfAbsent(grandchild)

	var seen []key.MortonKey
	s.RangePrefix(childA, func(k key.MortonKey, n *store.Node[key.MortonKey, uint64]) bool {
		seen = append(seen, k)
		return true
	})
	assert.Contains(t, seen, childA)
	assert.Contains(t, seen, grandchild)
	assert.NotContains(t, seen, childB)
}
