// Package store implements the node store and entity manager: an ordered
// map of SpatialKey to Node, and a second mapping of EntityId to Entity,
// kept consistent under insert/update/remove and subdivided when a node's
// occupancy exceeds a configured threshold.
package store

import (
	"github.com/coreindex/spatial3d/lib/containers"
	"github.com/coreindex/spatial3d/spatial/key"
)

// NodeKey is the constraint store is generic over: a comparable realization
// of key.SpatialKey. MortonKey and TetreeKey both satisfy it (each is a
// small struct of comparable fields). The constraint embeds comparable
// purely as a type-parameter bound, never to declare an ordinary variable,
// so it stays compatible with the generics rules in effect for this
// module's Go version floor.
type NodeKey[K any] interface {
	comparable
	key.SpatialKey[K]
}

// Node is a store cell: the set of entity ids it directly holds, plus a
// bitmap of which of its Fanout children currently exist in the store. A
// Node exists iff it holds >=1 entity, or has >=1 non-empty descendant
// (reflected by a nonzero ChildBitmap bit set by the child's own
// creation).
type Node[K NodeKey[K], ID comparable] struct {
	Key         K
	Entities    containers.Set[ID]
	ChildBitmap uint8
}

func newNode[K NodeKey[K], ID comparable](k K) *Node[K, ID] {
	return &Node[K, ID]{Key: k, Entities: containers.NewSet[ID]()}
}

// ordKey adapts a NodeKey to containers.Ordered so it can be used as the
// key type of a containers.SortedMap.
type ordKey[K NodeKey[K]] struct{ k K }

func (o ordKey[K]) Cmp(other ordKey[K]) int { return o.k.Compare(other.k) }

// Store is the ordered Key->Node map. It is deliberately unsynchronized;
// spatial/index is responsible for the reader/writer lease discipline that
// guards a plain data structure underneath a lock-holding façade.
type Store[K NodeKey[K], ID comparable] struct {
	nodes containers.SortedMap[ordKey[K], *Node[K, ID]]
	count int
}

// New creates an empty store.
func New[K NodeKey[K], ID comparable]() *Store[K, ID] {
	return &Store[K, ID]{}
}

// InsertIfAbsent returns the node at k, creating (and linking it into its
// parent's child bitmap) if absent.
func (s *Store[K, ID]) InsertIfAbsent(k K) *Node[K, ID] {
	if n, ok := s.nodes.Load(ordKey[K]{k}); ok {
		return n
	}
	n := newNode[K, ID](k)
	s.nodes.Store(ordKey[K]{k}, n)
	s.count++
	s.linkToParent(k)
	return n
}

func (s *Store[K, ID]) linkToParent(k K) {
	parent, ok := k.Parent()
	if !ok {
		return
	}
	pn, exists := s.nodes.Load(ordKey[K]{parent})
	if !exists {
		pn = s.InsertIfAbsent(parent)
	}
	// child index is this key's CubeID relative to its own point set; we
	// don't have a point here, so derive the bitmap bit from the bounds
	// center instead, which always lands back in this exact child cell.
	center := k.Bounds().Center()
	childIdx := parent.CubeID(center, k.Level())
	pn.ChildBitmap |= 1 << childIdx
}

// Lookup returns the node at k, if present.
func (s *Store[K, ID]) Lookup(k K) (*Node[K, ID], bool) {
	return s.nodes.Load(ordKey[K]{k})
}

// Delete removes the node at k unconditionally (used by the balancer when
// merging leaves empty shells behind).
func (s *Store[K, ID]) Delete(k K) {
	if _, ok := s.nodes.Load(ordKey[K]{k}); ok {
		s.nodes.Delete(ordKey[K]{k})
		s.count--
	}
}

// Len returns the number of nodes currently in the store.
func (s *Store[K, ID]) Len() int { return s.count }

// Range iterates all nodes in ascending key order (level-first, then key
// bits), stopping early if f returns false.
func (s *Store[K, ID]) Range(f func(k K, n *Node[K, ID]) bool) {
	s.nodes.Range(func(ok ordKey[K], n *Node[K, ID]) bool {
		return f(ok.k, n)
	})
}

// RangePrefix iterates every node whose key is prefix or a descendant of
// prefix, in ascending order.
func (s *Store[K, ID]) RangePrefix(prefix K, f func(k K, n *Node[K, ID]) bool) {
	// Keys order level-first, so a subtree's nodes are not one contiguous
	// run of the map; every node is tested.
	s.nodes.Range(func(ok ordKey[K], n *Node[K, ID]) bool {
		if subtreeCompare(prefix, ok.k) != 0 {
			return true
		}
		return f(ok.k, n)
	})
}

// subtreeCompare reports the containers.RBTree.SearchRange-style direction
// of candidate relative to the subtree rooted at prefix: negative if
// candidate sorts strictly after the subtree (search toward smaller keys),
// positive if candidate sorts strictly before it (search toward bigger
// keys), zero if candidate is prefix itself or one of its descendants.
// Descent is tested by repeated Parent() walks up to prefix's level, the
// same O(level) ancestor-walk cost paid elsewhere in this package.
func subtreeCompare[K NodeKey[K]](prefix, candidate K) int {
	if candidate.Level() < prefix.Level() {
		if candidate.Compare(prefix) < 0 {
			return 1
		}
		return -1
	}
	cur := candidate
	for cur.Level() > prefix.Level() {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		cur = p
	}
	switch cur.Compare(prefix) {
	case 0:
		return 0
	case -1:
		return 1
	default:
		return -1
	}
}

// BulkRebuild replaces the store's contents with the given node set,
// presorted into ascending key order by the caller (spatial/bulk does
// this as the "pre-sort" pipeline stage). Existing nodes are discarded.
func (s *Store[K, ID]) BulkRebuild(nodes []*Node[K, ID]) {
	s.nodes = containers.SortedMap[ordKey[K], *Node[K, ID]]{}
	s.count = 0
	for _, n := range nodes {
		s.nodes.Store(ordKey[K]{n.Key}, n)
		s.count++
	}
}

// insertEntity adds id to the node at k (creating it if absent) and
// returns the node.
func (s *Store[K, ID]) insertEntity(k K, id ID) *Node[K, ID] {
	n := s.InsertIfAbsent(k)
	n.Entities.Insert(id)
	return n
}

// removeEntity removes id from the node at k, if present. The node itself
// is left in place even if it becomes empty, since a node with non-empty
// descendants must persist per the existence invariant; pruning empty
// childless nodes is the balancer's job, not the store's.
func (s *Store[K, ID]) removeEntity(k K, id ID) {
	if n, ok := s.nodes.Load(ordKey[K]{k}); ok {
		n.Entities.Delete(id)
	}
}
