// Package query implements the generic traversal/search engine: kNN, range
// (AABB/sphere), ray, plane, frustum, and collision queries, all built
// from the same small set of cell-geometry primitives (Bounds,
// ContainsPoint, distance-to-point) that both MortonKey and TetreeKey
// already expose. There is no query code specific to cubes vs tetrahedra
// above this package.
//
// Each query walks the occupied nodes of a spatial/store.Store in
// ascending key order (or, for kNN, best-first by lower-bound distance),
// scanning the store's existing nodes and filtering geometrically rather
// than computing SFC-seek endpoints to locate candidate key ranges
// directly. Only occupied nodes can hold results, so the two approaches
// are result-equivalent; the seek-based variant is a pure performance
// optimization left for later (see DESIGN.md).
package query

import (
	"context"
	"sort"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/store"
)

// CancellationToken is the capability query APIs accept for cooperative
// cancellation.
type CancellationToken interface {
	Done() bool
	Err() error
}

// ContextToken adapts a context.Context to CancellationToken.
type ContextToken struct {
	ctx context.Context
}

// NewContextToken wraps ctx as a CancellationToken.
func NewContextToken(ctx context.Context) ContextToken {
	return ContextToken{ctx: ctx}
}

func (t ContextToken) Done() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

func (t ContextToken) Err() error { return t.ctx.Err() }

// noToken is used internally when the caller passes a nil token.
type noToken struct{}

func (noToken) Done() bool { return false }
func (noToken) Err() error { return nil }

func orNoToken(t CancellationToken) CancellationToken {
	if t == nil {
		return noToken{}
	}
	return t
}

// cancellationCheckGranularity is how many entities (or node visits) a
// worker processes between cancellation checks.
const cancellationCheckGranularity = 1024

// Status reports whether a query ran to completion or was cancelled
// partway through.
type Status int

const (
	OK Status = iota
	Cancelled
)

// RangeMode selects whether a range query wants entities fully contained
// in the region, or merely intersecting it.
type RangeMode int

const (
	IntersectingMode RangeMode = iota
	ContainedMode
)

// Engine is the generic traversal/search engine, parameterized by a
// SpatialKey realization K, an entity id type ID, and an entity content
// type C. idLess provides the ascending-id tie-break used for every
// query's result ordering; ID is kept a plain comparable (not an
// ordered constraint) so both store.SequentialIDs (uint64, naturally
// ordered) and store.UUID (ordered via its own Compare) can supply one
// without forcing every id type to implement a shared interface.
type Engine[K store.NodeKey[K], ID comparable, C any] struct {
	store  *store.Store[K, ID]
	ents   *store.EntityManager[K, ID, C]
	idLess func(a, b ID) bool
}

// NewEngine constructs an Engine over s/m, using idLess to break ties.
func NewEngine[K store.NodeKey[K], ID comparable, C any](
	s *store.Store[K, ID],
	m *store.EntityManager[K, ID, C],
	idLess func(a, b ID) bool,
) *Engine[K, ID, C] {
	return &Engine[K, ID, C]{store: s, ents: m, idLess: idLess}
}

type occupiedNode[K any, ID comparable] struct {
	key  K
	node *store.Node[K, ID]
}

func (e *Engine[K, ID, C]) occupiedNodes() []occupiedNode[K, ID] {
	var out []occupiedNode[K, ID]
	e.store.Range(func(k K, n *store.Node[K, ID]) bool {
		if len(n.Entities) > 0 {
			out = append(out, occupiedNode[K, ID]{key: k, node: n})
		}
		return true
	})
	return out
}

func (e *Engine[K, ID, C]) entityPoint(id ID) (geom.Point, *geom.Bounds, bool) {
	ent, ok := e.ents.Lookup(id)
	if !ok {
		return geom.Point{}, nil, false
	}
	return ent.Position, ent.Bounds, true
}

func (e *Engine[K, ID, C]) sortedIDs(ids []ID) []ID {
	out := append([]ID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return e.idLess(out[i], out[j]) })
	return out
}
