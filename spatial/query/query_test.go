package query_test

import (
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/query"
	"github.com/coreindex/spatial3d/spatial/store"
)

func mortonFactory(p geom.Point, level uint8) (key.MortonKey, error) {
	return key.NewMortonKey(p, level)
}

func idLess(a, b uint64) bool { return a < b }

func newEngine(level uint8) (*store.Store[key.MortonKey, uint64], *store.EntityManager[key.MortonKey, uint64, string], *query.Engine[key.MortonKey, uint64, string]) {
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, level, store.None, 0)
	e := query.NewEngine[key.MortonKey, uint64, string](s, m, idLess)
	return s, m, e
}

func newSpanningEngine(level uint8) (*store.Store[key.MortonKey, uint64], *store.EntityManager[key.MortonKey, uint64, string], *query.Engine[key.MortonKey, uint64, string]) {
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, level, store.SpanBounds, 0)
	e := query.NewEngine[key.MortonKey, uint64, string](s, m, idLess)
	return s, m, e
}
