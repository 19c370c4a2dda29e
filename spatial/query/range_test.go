package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/query"
)

func TestRangeAABBIntersectingMode(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	inside, err := m.Insert(geom.Point{X: 10, Y: 10, Z: 10}, "in", nil)
	require.NoError(t, err)
	outside, err := m.Insert(geom.Point{X: 900000, Y: 900000, Z: 900000}, "out", nil)
	require.NoError(t, err)

	region := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 100, Y: 100, Z: 100}}
	results, status := e.RangeAABB(nil, region, query.IntersectingMode)
	assert.Equal(t, query.OK, status)
	assert.Contains(t, results, inside)
	assert.NotContains(t, results, outside)
}

func TestRangeAABBContainedModeExcludesStraddlers(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	straddleBounds := &geom.Bounds{Min: geom.Point{X: 50, Y: 0, Z: 0}, Max: geom.Point{X: 150, Y: 10, Z: 10}}
	straddler, err := m.Insert(geom.Point{X: 100, Y: 5, Z: 5}, "straddle", straddleBounds)
	require.NoError(t, err)

	region := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 100, Y: 100, Z: 100}}
	inter, _ := e.RangeAABB(nil, region, query.IntersectingMode)
	assert.Contains(t, inter, straddler)

	contained, _ := e.RangeAABB(nil, region, query.ContainedMode)
	assert.NotContains(t, contained, straddler)
}

func TestRangeAABBDedupesSpanningEntities(t *testing.T) {
	t.Parallel()
	_, m, e := newSpanningEngine(4)

	spanBounds := &geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 200000, Y: 0, Z: 0}}
	id, err := m.Insert(geom.Point{X: 100000, Y: 0, Z: 0}, "spanner", spanBounds)
	require.NoError(t, err)

	region := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 300000, Y: 10, Z: 10}}
	results, _ := e.RangeAABB(nil, region, query.IntersectingMode)

	count := 0
	for _, r := range results {
		if r == id {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRangeSphereFiltersByDistance(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	near, err := m.Insert(geom.Point{X: 10, Y: 0, Z: 0}, "near", nil)
	require.NoError(t, err)
	far, err := m.Insert(geom.Point{X: 900000, Y: 0, Z: 0}, "far", nil)
	require.NoError(t, err)

	results, status := e.RangeSphere(nil, geom.Point{X: 0, Y: 0, Z: 0}, 50, query.IntersectingMode)
	assert.Equal(t, query.OK, status)
	assert.Contains(t, results, near)
	assert.NotContains(t, results, far)
}
