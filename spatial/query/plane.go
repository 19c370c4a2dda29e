package query

import (
	"github.com/coreindex/spatial3d/spatial/geom"
)

// PlaneSide reports which side of a plane a bounds or entity classified to;
// Intersecting means the plane straddles it.
type PlaneSide = geom.Classification

// ClassifyPlane returns every entity whose own position or bounds straddles
// pl (Intersecting) together with every entity strictly on the positive
// side (Inside), using
// the same classification semantics as geom.Bounds.ClassifyPlane. Results
// are grouped by classification and, within each group, ordered by
// ascending key then ascending id. Entities entirely on the negative side
// are omitted; callers that want the other half query with pl's negation.
func (e *Engine[K, ID, C]) ClassifyPlane(token CancellationToken, pl geom.Plane) (inside, intersecting []ID, status Status) {
	token = orNoToken(token)
	seenInside := make(map[ID]struct{})
	seenIntersecting := make(map[ID]struct{})
	visited := 0

	for _, on := range e.occupiedNodes() {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			return inside, intersecting, Cancelled
		}
		class := on.key.Bounds().ClassifyPlane(pl)
		if class == geom.Outside {
			continue
		}
		ids := e.sortedIDs(setIDs(on.node.Entities))
		for _, id := range ids {
			pos, bounds, ok := e.entityPoint(id)
			if !ok {
				continue
			}
			entClass := classifyEntityPlane(pos, bounds, pl)
			switch entClass {
			case geom.Inside:
				if _, dup := seenInside[id]; !dup {
					seenInside[id] = struct{}{}
					inside = append(inside, id)
				}
			case geom.Intersecting:
				if _, dup := seenIntersecting[id]; !dup {
					seenIntersecting[id] = struct{}{}
					intersecting = append(intersecting, id)
				}
			}
		}
	}
	return inside, intersecting, OK
}

func classifyEntityPlane(pos geom.Point, bounds *geom.Bounds, pl geom.Plane) geom.Classification {
	if bounds == nil {
		d := pl.SignedDistance(pos)
		switch {
		case d > 0:
			return geom.Inside
		case d < 0:
			return geom.Outside
		default:
			return geom.Intersecting
		}
	}
	return bounds.ClassifyPlane(pl)
}
