package query

import (
	"sort"

	"github.com/coreindex/spatial3d/spatial/geom"
)

// RayHit is one ray-query result: an entity id and the parametric distance
// along the ray to its nearest intersected surface. Bounded entities report
// the slab-method entry distance to their Bounds; point entities are
// treated as zero-volume boxes, so one is reported only when the ray passes
// through its Position, with the parametric distance to that point.
type RayHit[ID comparable] struct {
	ID       ID
	Distance float64
}

// RayCast walks every occupied node whose bounds the ray intersects, in
// ascending entry-distance order, invoking visit for each candidate entity
// in ascending (distance, id) order within ties. visit returns false to
// stop the walk early, supporting first-hit early termination; RayCast
// itself does not decide what "first hit" means since that is
// narrow-phase geometry the caller owns.
func (e *Engine[K, ID, C]) RayCast(token CancellationToken, r geom.Ray, maxDistance float64, visit func(RayHit[ID]) bool) Status {
	token = orNoToken(token)

	type nodeHit struct {
		t  float64
		on occupiedNode[K, ID]
	}
	var nodeHits []nodeHit
	for _, on := range e.occupiedNodes() {
		t, hit := on.key.Bounds().IntersectRay(r)
		if !hit {
			continue
		}
		if maxDistance > 0 && t > maxDistance {
			continue
		}
		nodeHits = append(nodeHits, nodeHit{t: t, on: on})
	}
	sort.Slice(nodeHits, func(i, j int) bool { return nodeHits[i].t < nodeHits[j].t })

	visited := 0
	for _, nh := range nodeHits {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			return Cancelled
		}
		var hits []RayHit[ID]
		for id := range nh.on.node.Entities {
			pos, bounds, ok := e.entityPoint(id)
			if !ok {
				continue
			}
			var dist float64
			var hit bool
			if bounds != nil {
				dist, hit = bounds.IntersectRay(r)
			} else {
				dist, hit = pointRayDistance(r, pos)
			}
			if !hit {
				continue
			}
			if maxDistance > 0 && dist > maxDistance {
				continue
			}
			hits = append(hits, RayHit[ID]{ID: id, Distance: dist})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Distance != hits[j].Distance {
				return hits[i].Distance < hits[j].Distance
			}
			return e.idLess(hits[i].ID, hits[j].ID)
		})
		for _, h := range hits {
			if !visit(h) {
				return OK
			}
		}
	}
	return OK
}

// pointRayDistance reports whether the ray passes through p exactly (within
// float32 rounding, via the degenerate zero-radius Bounds case), and if so
// the parametric distance. Point entities are treated as zero-volume boxes
// so this simply delegates to the same slab method as bounded entities.
func pointRayDistance(r geom.Ray, p geom.Point) (float64, bool) {
	return geom.BoundsOf(p).IntersectRay(r)
}
