package geom_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/spatialerr"
)

func TestPointValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, geom.Point{X: 1, Y: 2, Z: 3}.Validate())
	assert.True(t, errors.Is(geom.Point{X: -1}.Validate(), spatialerr.InvalidInput))
	assert.True(t, errors.Is(geom.Point{X: float32(math.NaN())}.Validate(), spatialerr.InvalidInput))
}

func TestBoundsValidate(t *testing.T) {
	t.Parallel()
	valid := geom.Bounds{Min: geom.Point{X: 1, Y: 1, Z: 1}, Max: geom.Point{X: 2, Y: 2, Z: 2}}
	assert.NoError(t, valid.Validate())

	inverted := geom.Bounds{Min: geom.Point{X: 2}, Max: geom.Point{X: 1}}
	assert.True(t, errors.Is(inverted.Validate(), spatialerr.InvalidInput))
}

func TestBoundsIntersects(t *testing.T) {
	t.Parallel()
	a := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 10, Y: 10, Z: 10}}
	b := geom.Bounds{Min: geom.Point{X: 5, Y: 5, Z: 5}, Max: geom.Point{X: 15, Y: 15, Z: 15}}
	c := geom.Bounds{Min: geom.Point{X: 20, Y: 20, Z: 20}, Max: geom.Point{X: 30, Y: 30, Z: 30}}
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestBoundsDistanceSquaredToPoint(t *testing.T) {
	t.Parallel()
	b := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 10, Y: 10, Z: 10}}
	assert.Equal(t, 0.0, b.DistanceSquaredToPoint(geom.Point{X: 5, Y: 5, Z: 5}))
	assert.Equal(t, 25.0, b.DistanceSquaredToPoint(geom.Point{X: 15, Y: 0, Z: 0}))
}

func TestFrustumClassify(t *testing.T) {
	t.Parallel()
	// A frustum that is simply the half-space x >= 5 repeated six times
	// (degenerate, but enough to exercise Inside/Outside/Intersecting).
	inwardX := geom.Plane{Normal: geom.Point{X: 1, Y: 0, Z: 0}, D: 5}
	f := geom.Frustum{Planes: [6]geom.Plane{inwardX, inwardX, inwardX, inwardX, inwardX, inwardX}}

	inside := geom.Bounds{Min: geom.Point{X: 10, Y: 0, Z: 0}, Max: geom.Point{X: 20, Y: 1, Z: 1}}
	assert.Equal(t, geom.Inside, f.ClassifyBounds(inside))

	outside := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 1, Y: 1, Z: 1}}
	assert.Equal(t, geom.Outside, f.ClassifyBounds(outside))

	straddle := geom.Bounds{Min: geom.Point{X: 0, Y: 0, Z: 0}, Max: geom.Point{X: 10, Y: 1, Z: 1}}
	assert.Equal(t, geom.Intersecting, f.ClassifyBounds(straddle))
}
