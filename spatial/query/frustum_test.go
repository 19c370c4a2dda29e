package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/geom"
)

func TestClassifyFrustumExcludesFarOutsideEntities(t *testing.T) {
	t.Parallel()
	_, m, e := newEngine(8)

	insideID, err := m.Insert(geom.Point{X: 50, Y: 50, Z: 50}, "in", nil)
	require.NoError(t, err)
	outsideID, err := m.Insert(geom.Point{X: 900000, Y: 900000, Z: 900000}, "out", nil)
	require.NoError(t, err)

	// A box-shaped frustum: six inward-facing planes bounding [0,1000]^3.
	f := geom.Frustum{Planes: [6]geom.Plane{
		{Normal: geom.Point{X: 1, Y: 0, Z: 0}, D: 0},
		{Normal: geom.Point{X: -1, Y: 0, Z: 0}, D: -1000},
		{Normal: geom.Point{X: 0, Y: 1, Z: 0}, D: 0},
		{Normal: geom.Point{X: 0, Y: -1, Z: 0}, D: -1000},
		{Normal: geom.Point{X: 0, Y: 0, Z: 1}, D: 0},
		{Normal: geom.Point{X: 0, Y: 0, Z: -1}, D: -1000},
	}}

	results, _ := e.ClassifyFrustum(nil, f)
	var ids []uint64
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, insideID)
	assert.NotContains(t, ids, outsideID)
}
