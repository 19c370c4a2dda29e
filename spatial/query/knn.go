package query

import (
	"container/heap"
	"sort"

	"github.com/coreindex/spatial3d/spatial/geom"
)

// Neighbor is one kNN result: an entity id and its squared distance to the
// query point (squared, to match the rest of this package's avoid-sqrt
// convention; callers that need linear distance take math.Sqrt of it).
type Neighbor[ID comparable] struct {
	ID               ID
	DistanceSquared float64
}

type nodeCandidate[K any, ID comparable] struct {
	lowerBound float64
	key        K
	node       *nodeEntities[ID]
}

type nodeEntities[ID comparable] struct {
	ids map[ID]struct{}
}

type nodeMinHeap[K any, ID comparable] []nodeCandidate[K, ID]

func (h nodeMinHeap[K, ID]) Len() int            { return len(h) }
func (h nodeMinHeap[K, ID]) Less(i, j int) bool  { return h[i].lowerBound < h[j].lowerBound }
func (h nodeMinHeap[K, ID]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeMinHeap[K, ID]) Push(x any)         { *h = append(*h, x.(nodeCandidate[K, ID])) }
func (h *nodeMinHeap[K, ID]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type resultEntry[ID comparable] struct {
	id              ID
	distanceSquared float64
}

// resultMaxHeap is a bounded max-heap (largest distance at the root), so
// the worst current candidate can be evicted in O(log k) once more than k
// results have been seen.
type resultMaxHeap[ID comparable] []resultEntry[ID]

func (h resultMaxHeap[ID]) Len() int           { return len(h) }
func (h resultMaxHeap[ID]) Less(i, j int) bool { return h[i].distanceSquared > h[j].distanceSquared }
func (h resultMaxHeap[ID]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultMaxHeap[ID]) Push(x any)        { *h = append(*h, x.(resultEntry[ID])) }
func (h *resultMaxHeap[ID]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// KNN returns up to k entities nearest to q, ascending by distance then by
// id. maxDistance <= 0 means unbounded. The traversal is best-first: nodes
// are visited in order of their lower-bound distance to q (the distance
// from q to the nearest point of the node's cell), and the search stops
// once every remaining node's lower bound is no better than the current
// kth-best candidate.
func (e *Engine[K, ID, C]) KNN(token CancellationToken, q geom.Point, k int, maxDistance float64) ([]Neighbor[ID], Status) {
	token = orNoToken(token)
	if k <= 0 {
		return nil, OK
	}
	maxDistSq := maxDistance * maxDistance

	nh := &nodeMinHeap[K, ID]{}
	heap.Init(nh)
	for _, on := range e.occupiedNodes() {
		lb := on.key.Bounds().DistanceSquaredToPoint(q)
		if maxDistance > 0 && lb > maxDistSq {
			continue
		}
		heap.Push(nh, nodeCandidate[K, ID]{lowerBound: lb, key: on.key, node: &nodeEntities[ID]{ids: map[ID]struct{}(on.node.Entities)}})
	}

	rh := &resultMaxHeap[ID]{}
	heap.Init(rh)
	visited := 0
	status := OK
	for nh.Len() > 0 {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			status = Cancelled
			break
		}
		top := (*nh)[0]
		if rh.Len() >= k && top.lowerBound >= (*rh)[0].distanceSquared {
			break
		}
		cand := heap.Pop(nh).(nodeCandidate[K, ID])
		for id := range cand.node.ids {
			pos, bounds, ok := e.entityPoint(id)
			if !ok {
				continue
			}
			var d float64
			if bounds != nil {
				d = bounds.DistanceSquaredToPoint(q)
			} else {
				d = pos.DistanceSquared(q)
			}
			if maxDistance > 0 && d > maxDistSq {
				continue
			}
			heap.Push(rh, resultEntry[ID]{id: id, distanceSquared: d})
			if rh.Len() > k {
				heap.Pop(rh)
			}
		}
	}

	out := make([]Neighbor[ID], rh.Len())
	for i := range out {
		popped := heap.Pop(rh).(resultEntry[ID])
		out[i] = Neighbor[ID]{ID: popped.id, DistanceSquared: popped.distanceSquared}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceSquared != out[j].DistanceSquared {
			return out[i].DistanceSquared < out[j].DistanceSquared
		}
		return e.idLess(out[i].ID, out[j].ID)
	})
	return out, status
}
