package query

import (
	"github.com/coreindex/spatial3d/spatial/geom"
)

// Pair is one unordered collision candidate or confirmed collision, always
// reported with A ordered before B by the engine's idLess so a caller never
// sees both (x,y) and (y,x) for the same pair.
type Pair[ID comparable] struct {
	A, B ID
}

// NarrowPhase tests whether two entities' actual shapes overlap, given
// their broad-phase-overlapping content. Callers own shape representation
// entirely; the query engine only ever calls this after its own broad phase
// (node co-occupancy or bounds overlap) has already kept the pair as a
// candidate. Shapes that only touch (zero penetration depth) are not a
// collision: a NarrowPhase reports true only for strictly positive
// penetration.
type NarrowPhase[C any] func(a, b C) bool

func (e *Engine[K, ID, C]) entityBounds(id ID) (geom.Bounds, bool) {
	ent, ok := e.ents.Lookup(id)
	if !ok {
		return geom.Bounds{}, false
	}
	if ent.Bounds != nil {
		return *ent.Bounds, true
	}
	return geom.BoundsOf(ent.Position), true
}

// DetectCollisions runs the broad phase (entities sharing a node, or whose
// node-level bounds overlap) followed by test as the narrow phase. Pairs
// are deduplicated and returned in ascending (A, B) order using the
// engine's idLess. test may be
// nil, in which case every broad-phase candidate is reported (useful when
// the broad phase alone is the desired precision, e.g. AABB-only collision);
// that includes pairs whose boxes only touch, since geom.Bounds.Intersects
// counts touching faces as overlap.
func (e *Engine[K, ID, C]) DetectCollisions(token CancellationToken, test NarrowPhase[C]) ([]Pair[ID], Status) {
	token = orNoToken(token)
	nodes := e.occupiedNodes()
	seen := make(map[Pair[ID]]struct{})
	var out []Pair[ID]
	visited := 0

	considerPair := func(a, b ID) {
		if a == b {
			return
		}
		lo, hi := a, b
		if !e.idLess(lo, hi) {
			lo, hi = hi, lo
		}
		p := Pair[ID]{A: lo, B: hi}
		if _, dup := seen[p]; dup {
			return
		}
		boundsA, okA := e.entityBounds(lo)
		boundsB, okB := e.entityBounds(hi)
		if !okA || !okB || !boundsA.Intersects(boundsB) {
			return
		}
		if test != nil {
			entA, okA2 := e.ents.Lookup(lo)
			entB, okB2 := e.ents.Lookup(hi)
			if !okA2 || !okB2 || !test(entA.Content, entB.Content) {
				return
			}
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for i, ni := range nodes {
		visited++
		if visited%cancellationCheckGranularity == 0 && token.Done() {
			return out, Cancelled
		}
		idsI := setIDs(ni.node.Entities)
		for a := 0; a < len(idsI); a++ {
			for b := a + 1; b < len(idsI); b++ {
				considerPair(idsI[a], idsI[b])
			}
		}
		for j := i + 1; j < len(nodes); j++ {
			nj := nodes[j]
			if !ni.key.Bounds().Intersects(nj.key.Bounds()) {
				continue
			}
			idsJ := setIDs(nj.node.Entities)
			for _, a := range idsI {
				for _, b := range idsJ {
					considerPair(a, b)
				}
			}
		}
	}

	sortPairs(out, e.idLess)
	return out, OK
}

func sortPairs[ID comparable](pairs []Pair[ID], less func(a, b ID) bool) {
	// Insertion sort: collision result sets are typically small relative to
	// the entity count, and this avoids pulling in sort.Slice's reflection
	// path for a comparator keyed on two fields.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairLess(pairs[j], pairs[j-1], less); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}

func pairLess[ID comparable](x, y Pair[ID], less func(a, b ID) bool) bool {
	if x.A != y.A {
		return less(x.A, y.A)
	}
	return less(x.B, y.B)
}
