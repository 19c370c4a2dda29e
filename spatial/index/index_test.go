package index_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/bulk"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/index"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/query"
	"github.com/coreindex/spatial3d/spatial/store"
)

func mortonFactory(p geom.Point, level uint8) (key.MortonKey, error) {
	return key.NewMortonKey(p, level)
}

func idLess(a, b uint64) bool { return a < b }

func newIndex(t *testing.T, level uint8, maxPerNode int) *index.Index[key.MortonKey, uint64, string] {
	t.Helper()
	ix, err := index.New[key.MortonKey, uint64, string](
		store.NewSequentialIDs(), mortonFactory, idLess,
		index.Config{Level: level, MaxEntitiesPerNode: maxPerNode, Policy: store.None})
	require.NoError(t, err)
	return ix
}

func TestConfigValidateRejectsZeroMaxEntitiesPerNode(t *testing.T) {
	t.Parallel()
	_, err := index.New[key.MortonKey, uint64, string](
		store.NewSequentialIDs(), mortonFactory, idLess,
		index.Config{Level: 4, MaxEntitiesPerNode: 0})
	assert.Error(t, err)
}

func TestInsertViewRemove(t *testing.T) {
	t.Parallel()
	ix := newIndex(t, 8, 100)

	id, err := ix.Insert(geom.Point{X: 10, Y: 20, Z: 30}, "widget", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())

	var found bool
	ix.View(func(q *query.Engine[key.MortonKey, uint64, string]) {
		results, _ := q.RangeAABB(nil, geom.Bounds{Min: geom.Point{}, Max: geom.Point{X: 100, Y: 100, Z: 100}}, query.IntersectingMode)
		for _, r := range results {
			if r == id {
				found = true
			}
		}
	})
	assert.True(t, found)

	require.NoError(t, ix.Remove(id))
	assert.Equal(t, 0, ix.Len())
}

func TestBulkInsertUnderWriterLease(t *testing.T) {
	t.Parallel()
	ix := newIndex(t, 8, 100)
	ctx := context.Background()

	inputs := []bulk.Input[string]{
		{Position: geom.Point{X: 1, Y: 1, Z: 1}, Content: "a"},
		{Position: geom.Point{X: 2, Y: 2, Z: 2}, Content: "b"},
	}
	ids, err := ix.BulkInsert(ctx, inputs, bulk.Options{Level: 8})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, 2, ix.Len())
}

func TestPauseBlocksNewWriters(t *testing.T) {
	t.Parallel()
	ix := newIndex(t, 8, 100)

	ix.Pause()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = ix.Insert(geom.Point{X: 1, Y: 1, Z: 1}, "late", nil)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("writer proceeded while paused")
	default:
	}
	ix.Resume()
	wg.Wait()
	assert.Equal(t, 1, ix.Len())
}

func TestRebuildRunsUnderExclusiveAccess(t *testing.T) {
	t.Parallel()
	ix := newIndex(t, 8, 100)
	_, err := ix.Insert(geom.Point{X: 1, Y: 1, Z: 1}, "a", nil)
	require.NoError(t, err)

	var sawOne bool
	ix.Rebuild(func(s *store.Store[key.MortonKey, uint64], m *store.EntityManager[key.MortonKey, uint64, string]) {
		sawOne = m.Len() == 1
		_ = s
	})
	assert.True(t, sawOne)
}
