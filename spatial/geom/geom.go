// Package geom defines the geometric primitives shared by every spatial3d
// key realization and query: points, axis-aligned bounds, and the rays and
// planes used by the traversal engine.
package geom

import (
	"fmt"
	"math"

	"github.com/coreindex/spatial3d/spatial/spatialerr"
)

// Point is a triple of f32 components. All coordinates are required to be
// non-negative; the origin is the single anchor corner of the indexed
// domain.
type Point struct {
	X, Y, Z float32
}

// Validate checks the non-negative, non-NaN, non-infinite invariant.
func (p Point) Validate() error {
	for i, c := range [3]float32{p.X, p.Y, p.Z} {
		if math.IsNaN(float64(c)) {
			return spatialerr.Newf(spatialerr.InvalidInput, "coord[%d] is NaN", i)
		}
		if math.IsInf(float64(c), 0) {
			return spatialerr.Newf(spatialerr.InvalidInput, "coord[%d] is infinite", i)
		}
		if c < 0 {
			return spatialerr.Newf(spatialerr.InvalidInput, "coord[%d]=%v is negative", i, c)
		}
	}
	return nil
}

// DistanceSquared returns the squared Euclidean distance to q, avoiding the
// sqrt for callers that only need to compare distances.
func (p Point) DistanceSquared(q Point) float64 {
	dx := float64(p.X) - float64(q.X)
	dy := float64(p.Y) - float64(q.Y)
	dz := float64(p.Z) - float64(q.Z)
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Sqrt(p.DistanceSquared(q))
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Bounds is a closed axis-aligned bounding box: Min <= Max componentwise.
type Bounds struct {
	Min, Max Point
}

// BoundsOf returns the degenerate (zero-volume) Bounds of a single point;
// unbounded entities are treated as points at their position.
func BoundsOf(p Point) Bounds {
	return Bounds{Min: p, Max: p}
}

// Validate checks Min <= Max componentwise, and that both corners validate
// as Points.
func (b Bounds) Validate() error {
	if err := b.Min.Validate(); err != nil {
		return err
	}
	if err := b.Max.Validate(); err != nil {
		return err
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		return spatialerr.Newf(spatialerr.InvalidInput, "bounds min %v exceeds max %v", b.Min, b.Max)
	}
	return nil
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Contains reports whether p lies within the closed box.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether two boxes overlap (touching faces count as
// intersecting for box/box; callers doing collision-touching semantics use
// a separate, strictly-positive-penetration narrow phase).
func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Min: Point{
			X: minf(b.Min.X, o.Min.X),
			Y: minf(b.Min.Y, o.Min.Y),
			Z: minf(b.Min.Z, o.Min.Z),
		},
		Max: Point{
			X: maxf(b.Max.X, o.Max.X),
			Y: maxf(b.Max.Y, o.Max.Y),
			Z: maxf(b.Max.Z, o.Max.Z),
		},
	}
}

// DistanceSquaredToPoint returns the squared distance from p to the nearest
// point on (or in) the box; zero if p is inside.
func (b Bounds) DistanceSquaredToPoint(p Point) float64 {
	dx := clampDelta(p.X, b.Min.X, b.Max.X)
	dy := clampDelta(p.Y, b.Min.Y, b.Max.Y)
	dz := clampDelta(p.Z, b.Min.Z, b.Max.Z)
	return float64(dx)*float64(dx) + float64(dy)*float64(dy) + float64(dz)*float64(dz)
}

func clampDelta(v, lo, hi float32) float32 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// IntersectsSphere reports whether b overlaps the sphere centered at
// center with the given radius.
func (b Bounds) IntersectsSphere(center Point, radius float64) bool {
	return b.DistanceSquaredToPoint(center) <= radius*radius
}

// Ray is a half-line: Origin + t*Direction for t >= 0.
type Ray struct {
	Origin    Point
	Direction Point // not required to be normalized
}

// Plane is the set of points p with Normal . p == D (Hesse normal form;
// Normal need not be unit length, callers that need signed distance in true
// units should normalize it themselves).
type Plane struct {
	Normal Point
	D      float32
}

// SignedDistance returns Normal . p - D.
func (pl Plane) SignedDistance(p Point) float64 {
	return float64(pl.Normal.X)*float64(p.X) +
		float64(pl.Normal.Y)*float64(p.Y) +
		float64(pl.Normal.Z)*float64(p.Z) -
		float64(pl.D)
}

// IntersectRay reports whether r intersects b using the standard slab
// method, and the distance along the ray to the entry point (0 if the
// origin is already inside b).
func (b Bounds) IntersectRay(r Ray) (tEntry float64, hit bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float32{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (float64(lo[i]) - float64(origin[i])) / float64(dir[i])
		t2 := (float64(hi[i]) - float64(origin[i])) / float64(dir[i])
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, true
}

// ClassifyPlane reports whether b lies entirely on the positive side of pl
// (Inside), entirely on the negative side (Outside, reusing the Frustum
// classification enum since the geometric question is identical), or
// straddles it (Intersecting).
func (b Bounds) ClassifyPlane(pl Plane) Classification {
	corners := [8]Point{
		{b.Min.X, b.Min.Y, b.Min.Z}, {b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z}, {b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z}, {b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z}, {b.Max.X, b.Max.Y, b.Max.Z},
	}
	pos, neg := false, false
	for _, c := range corners {
		d := pl.SignedDistance(c)
		if d >= 0 {
			pos = true
		}
		if d <= 0 {
			neg = true
		}
	}
	switch {
	case pos && neg:
		return Intersecting
	case pos:
		return Inside
	default:
		return Outside
	}
}

// Frustum is six planes whose inward half-spaces' intersection defines the
// visible volume.
type Frustum struct {
	Planes [6]Plane
}

// Classification is the result of classifying a Bounds against a Plane or
// Frustum.
type Classification int

const (
	Outside Classification = iota
	Inside
	Intersecting
)

// ClassifyBounds classifies b against the frustum: Outside if any plane has
// the whole box strictly on its outer side, Inside if every plane has the
// whole box on or inside its inner side, Intersecting otherwise.
func (f Frustum) ClassifyBounds(b Bounds) Classification {
	allInside := true
	for _, pl := range f.Planes {
		// Positive/negative extents of the box along the plane normal.
		var nx, px float32
		if pl.Normal.X >= 0 {
			nx, px = b.Min.X, b.Max.X
		} else {
			nx, px = b.Max.X, b.Min.X
		}
		var ny, py float32
		if pl.Normal.Y >= 0 {
			ny, py = b.Min.Y, b.Max.Y
		} else {
			ny, py = b.Max.Y, b.Min.Y
		}
		var nz, pz float32
		if pl.Normal.Z >= 0 {
			nz, pz = b.Min.Z, b.Max.Z
		} else {
			nz, pz = b.Max.Z, b.Min.Z
		}
		negCorner := Point{X: nx, Y: ny, Z: nz}
		posCorner := Point{X: px, Y: py, Z: pz}
		if pl.SignedDistance(posCorner) < 0 {
			return Outside
		}
		if pl.SignedDistance(negCorner) < 0 {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersecting
}
