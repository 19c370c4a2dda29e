package query

import (
	"github.com/coreindex/spatial3d/spatial/geom"
)

// RangeAABB returns every entity overlapping (IntersectingMode) or fully
// contained in (ContainedMode) the given box. Results are ordered by
// ascending node key, then ascending id within a node; a seen-set dedupes
// entities registered under more than one key by a spanning policy.
func (e *Engine[K, ID, C]) RangeAABB(token CancellationToken, region geom.Bounds, mode RangeMode) ([]ID, Status) {
	token = orNoToken(token)
	var out []ID
	seen := make(map[ID]struct{})
	visited := 0
	status := OK

	for _, on := range e.occupiedNodes() {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			status = Cancelled
			break
		}
		if !on.key.Bounds().Intersects(region) {
			continue
		}
		ids := e.sortedIDs(setIDs(on.node.Entities))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			pos, bounds, ok := e.entityPoint(id)
			if !ok {
				continue
			}
			if !passesRangeMode(pos, bounds, region, mode) {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, status
}

// RangeSphere returns every entity overlapping (IntersectingMode) or fully
// contained in (ContainedMode) the sphere of the given center and radius.
func (e *Engine[K, ID, C]) RangeSphere(token CancellationToken, center geom.Point, radius float64, mode RangeMode) ([]ID, Status) {
	token = orNoToken(token)
	var out []ID
	seen := make(map[ID]struct{})
	visited := 0
	status := OK
	radiusSq := radius * radius

	for _, on := range e.occupiedNodes() {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			status = Cancelled
			break
		}
		if !on.key.Bounds().IntersectsSphere(center, radius) {
			continue
		}
		ids := e.sortedIDs(setIDs(on.node.Entities))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			pos, bounds, ok := e.entityPoint(id)
			if !ok {
				continue
			}
			if !passesSphereMode(pos, bounds, center, radiusSq, mode) {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, status
}

func passesRangeMode(pos geom.Point, bounds *geom.Bounds, region geom.Bounds, mode RangeMode) bool {
	if bounds == nil {
		return region.Contains(pos)
	}
	switch mode {
	case ContainedMode:
		return region.Contains(bounds.Min) && region.Contains(bounds.Max)
	default:
		return bounds.Intersects(region)
	}
}

func passesSphereMode(pos geom.Point, bounds *geom.Bounds, center geom.Point, radiusSq float64, mode RangeMode) bool {
	if bounds == nil {
		return pos.DistanceSquared(center) <= radiusSq
	}
	switch mode {
	case ContainedMode:
		corners := [8]geom.Point{
			{X: bounds.Min.X, Y: bounds.Min.Y, Z: bounds.Min.Z},
			{X: bounds.Max.X, Y: bounds.Min.Y, Z: bounds.Min.Z},
			{X: bounds.Min.X, Y: bounds.Max.Y, Z: bounds.Min.Z},
			{X: bounds.Max.X, Y: bounds.Max.Y, Z: bounds.Min.Z},
			{X: bounds.Min.X, Y: bounds.Min.Y, Z: bounds.Max.Z},
			{X: bounds.Max.X, Y: bounds.Min.Y, Z: bounds.Max.Z},
			{X: bounds.Min.X, Y: bounds.Max.Y, Z: bounds.Max.Z},
			{X: bounds.Max.X, Y: bounds.Max.Y, Z: bounds.Max.Z},
		}
		for _, c := range corners {
			if c.DistanceSquared(center) > radiusSq {
				return false
			}
		}
		return true
	default:
		return bounds.DistanceSquaredToPoint(center) <= radiusSq
	}
}

func setIDs[ID comparable](m map[ID]struct{}) []ID {
	out := make([]ID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
