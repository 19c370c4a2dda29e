package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/query"
)

func TestRayCastVisitsInAscendingDistanceOrder(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	far, err := m.Insert(geom.Point{X: 900000, Y: 0, Z: 0}, "far", nil)
	require.NoError(t, err)
	near, err := m.Insert(geom.Point{X: 100, Y: 0, Z: 0}, "near", nil)
	require.NoError(t, err)

	r := geom.Ray{Origin: geom.Point{X: 0, Y: 0, Z: 0}, Direction: geom.Point{X: 1, Y: 0, Z: 0}}
	var order []uint64
	status := e.RayCast(nil, r, 0, func(h query.RayHit[uint64]) bool {
		order = append(order, h.ID)
		return true
	})
	assert.Equal(t, query.OK, status)
	require.Len(t, order, 2)
	assert.Equal(t, near, order[0])
	assert.Equal(t, far, order[1])
}

func TestRayCastStopsWhenVisitReturnsFalse(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	_, err := m.Insert(geom.Point{X: 100, Y: 0, Z: 0}, "a", nil)
	require.NoError(t, err)
	_, err = m.Insert(geom.Point{X: 200, Y: 0, Z: 0}, "b", nil)
	require.NoError(t, err)

	r := geom.Ray{Origin: geom.Point{X: 0, Y: 0, Z: 0}, Direction: geom.Point{X: 1, Y: 0, Z: 0}}
	visits := 0
	_ = e.RayCast(nil, r, 0, func(h query.RayHit[uint64]) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}

func TestRayCastRespectsMaxDistance(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	_, err := m.Insert(geom.Point{X: 900000, Y: 0, Z: 0}, "far", nil)
	require.NoError(t, err)

	r := geom.Ray{Origin: geom.Point{X: 0, Y: 0, Z: 0}, Direction: geom.Point{X: 1, Y: 0, Z: 0}}
	visits := 0
	_ = e.RayCast(nil, r, 100, func(h query.RayHit[uint64]) bool {
		visits++
		return true
	})
	assert.Equal(t, 0, visits)
}
