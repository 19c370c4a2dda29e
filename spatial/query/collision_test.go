package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/query"
)

func TestDetectCollisionsFindsOverlappingBounds(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(4)

	a, err := m.Insert(geom.Point{X: 10, Y: 10, Z: 10}, "a",
		&geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 20, Y: 20, Z: 20}})
	require.NoError(t, err)
	b, err := m.Insert(geom.Point{X: 15, Y: 15, Z: 15}, "b",
		&geom.Bounds{Min: geom.Point{X: 10, Y: 10, Z: 10}, Max: geom.Point{X: 30, Y: 30, Z: 30}})
	require.NoError(t, err)
	_, err = m.Insert(geom.Point{X: 900000, Y: 900000, Z: 900000}, "far",
		&geom.Bounds{Min: geom.Point{X: 900000, Y: 900000, Z: 900000}, Max: geom.Point{X: 900010, Y: 900010, Z: 900010}})
	require.NoError(t, err)

	pairs, status := e.DetectCollisions(nil, nil)
	assert.Equal(t, query.OK, status)

	found := false
	for _, p := range pairs {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			found = true
		}
	}
	assert.True(t, found)
	for _, p := range pairs {
		assert.True(t, p.A < p.B, "pairs must be reported in ascending id order")
	}
}

func TestDetectCollisionsAppliesNarrowPhase(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(4)

	_, err := m.Insert(geom.Point{X: 10, Y: 10, Z: 10}, "a",
		&geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 20, Y: 20, Z: 20}})
	require.NoError(t, err)
	_, err = m.Insert(geom.Point{X: 15, Y: 15, Z: 15}, "b",
		&geom.Bounds{Min: geom.Point{X: 10, Y: 10, Z: 10}, Max: geom.Point{X: 30, Y: 30, Z: 30}})
	require.NoError(t, err)

	pairs, _ := e.DetectCollisions(nil, func(a, b string) bool { return false })
	assert.Empty(t, pairs)
}
