package query

import (
	"github.com/coreindex/spatial3d/spatial/geom"
)

// FrustumResult is one entity's classification against a frustum.
type FrustumResult[ID comparable] struct {
	ID    ID
	Class geom.Classification
}

// ClassifyFrustum returns every entity whose node the frustum does not
// wholly exclude, each tagged Inside or Intersecting, ordered by ascending
// key then ascending id. Reporting fully-visible vs partially-visible lets
// a renderer skip further culling on a fully-visible subtree. A node
// classified Outside short-circuits
// further descent into its entities, since no entity inside it can be
// anything but Outside too.
func (e *Engine[K, ID, C]) ClassifyFrustum(token CancellationToken, f geom.Frustum) ([]FrustumResult[ID], Status) {
	token = orNoToken(token)
	var out []FrustumResult[ID]
	seen := make(map[ID]struct{})
	visited := 0

	for _, on := range e.occupiedNodes() {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			return out, Cancelled
		}
		nodeClass := f.ClassifyBounds(on.key.Bounds())
		if nodeClass == geom.Outside {
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
			var class geom.Classification
			if nodeClass == geom.Inside {
				class = geom.Inside
			} else if bounds != nil {
				class = f.ClassifyBounds(*bounds)
			} else {
				class = f.ClassifyBounds(geom.BoundsOf(pos))
			}
			if class == geom.Outside {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, FrustumResult[ID]{ID: id, Class: class})
		}
	}
	return out, OK
}
