// Package balance implements the tree balancer: a queue of nodes touched
// by insert/remove, and a commit pass that splits overfull nodes and
// merges underfull sibling groups. Balancing runs
// entirely through spatial/store's public API (CoveringKeys, Node.Entities,
// Entity.Keys), the same entry points spatial/bulk's merge step uses, so it
// carries no privileged access into store internals.
package balance

import (
	"github.com/coreindex/spatial3d/lib/containers"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

// DefaultBalancingStrategy queues affected nodes on insert/remove, then at
// commit time splits any queued node that exceeds its manager's
// MaxEntitiesPerNode and merges any queued node's full sibling group back
// into their parent once the group's combined count falls at or under
// mergeThreshold and the merge would not itself recreate an overfull node.
type DefaultBalancingStrategy[K store.NodeKey[K], ID comparable, C any] struct {
	mergeThreshold int
	affected       containers.Set[K]
}

// NewDefaultBalancingStrategy constructs a strategy with the given merge
// threshold. A threshold <= 0 defaults to maxEntitiesPerNode/4.
func NewDefaultBalancingStrategy[K store.NodeKey[K], ID comparable, C any](maxEntitiesPerNode, mergeThreshold int) *DefaultBalancingStrategy[K, ID, C] {
	if mergeThreshold <= 0 {
		mergeThreshold = maxEntitiesPerNode / 4
	}
	return &DefaultBalancingStrategy[K, ID, C]{
		mergeThreshold: mergeThreshold,
		affected:       containers.NewSet[K](),
	}
}

// QueueInsert marks k as touched by an insert, a candidate for the next
// Commit's split pass.
func (b *DefaultBalancingStrategy[K, ID, C]) QueueInsert(k K) {
	b.affected.Insert(k)
}

// QueueRemove marks k as touched by a remove, a candidate for the next
// Commit's merge pass (via its parent's sibling group).
func (b *DefaultBalancingStrategy[K, ID, C]) QueueRemove(k K) {
	b.affected.Insert(k)
}

// Result reports what a Commit pass actually did.
type Result struct {
	Split  int
	Merged int
}

// Commit runs one balancing pass over every queued node and clears the
// queue. It must run under the same writer section that performed the
// queued inserts/removes.
//
// This enforces the 2:1 invariant locally, at the exact parent/child
// boundary a split or merge touches, rather than by walking the full
// face-neighbor graph. See DESIGN.md.
func (b *DefaultBalancingStrategy[K, ID, C]) Commit(s *store.Store[K, ID], m *store.EntityManager[K, ID, C]) Result {
	queued := b.affected.Slice()
	b.affected = containers.NewSet[K]()
	var result Result

	maxPerNode := m.MaxEntitiesPerNode()
	if maxPerNode > 0 {
		for _, k := range queued {
			if split(s, m, k, maxPerNode) {
				result.Split++
			}
		}
	}

	if b.mergeThreshold > 0 {
		parents := containers.NewSet[K]()
		for _, k := range queued {
			if p, ok := k.Parent(); ok {
				parents.Insert(p)
			}
		}
		for p := range parents {
			if tryMerge(s, m, p, b.mergeThreshold, maxPerNode) {
				result.Merged++
			}
		}
	}

	return result
}

// split redistributes k's entities to its children, mirroring
// spatial/store's at-insert subdivision (see EntityManager.subdivideIfNeeded
// in spatial/store/entity.go) but run as a deferred, queued pass instead of
// inline on every insert.
func split[K store.NodeKey[K], ID comparable, C any](s *store.Store[K, ID], m *store.EntityManager[K, ID, C], k K, maxPerNode int) bool {
	node, ok := s.Lookup(k)
	if !ok || len(node.Entities) <= maxPerNode || k.Level() >= key.Lmax {
		return false
	}
	childLevel := k.Level() + 1
	moved := false
	for _, id := range node.Entities.Slice() {
		ent, ok := m.Lookup(id)
		if !ok {
			continue
		}
		childKeys, err := m.CoveringKeys(ent.Position, ent.Bounds, childLevel)
		if err != nil || len(childKeys) != 1 {
			continue
		}
		childKey := childKeys[0]
		child := s.InsertIfAbsent(childKey)
		child.Entities.Insert(id)
		node.Entities.Delete(id)
		ent.Keys.Delete(k)
		ent.Keys.Insert(childKey)
		moved = true
	}
	return moved
}

// tryMerge merges parent's full sibling group (all key.Fanout children, if
// every one of them exists in the store) back into parent, provided the
// group's combined entity count is at or under mergeThreshold and doing so
// would not leave parent itself overfull.
func tryMerge[K store.NodeKey[K], ID comparable, C any](s *store.Store[K, ID], m *store.EntityManager[K, ID, C], parentKey K, mergeThreshold, maxPerNode int) bool {
	parentNode, ok := s.Lookup(parentKey)
	if !ok {
		return false
	}
	children := make([]*store.Node[K, ID], key.Fanout)
	childKeys := make([]K, key.Fanout)
	total := 0
	for i := uint8(0); i < key.Fanout; i++ {
		ck := parentKey.Child(i)
		cn, exists := s.Lookup(ck)
		if !exists {
			return false
		}
		if cn.ChildBitmap != 0 {
			// A grandchild exists; merging here would orphan it.
			return false
		}
		children[i] = cn
		childKeys[i] = ck
		total += len(cn.Entities)
	}
	if total > mergeThreshold {
		return false
	}
	if maxPerNode > 0 && len(parentNode.Entities)+total > maxPerNode {
		return false
	}

	parentLevel := parentKey.Level()
	for i, cn := range children {
		ck := childKeys[i]
		for _, id := range cn.Entities.Slice() {
			ent, ok := m.Lookup(id)
			if !ok {
				continue
			}
			parentKeys, err := m.CoveringKeys(ent.Position, ent.Bounds, parentLevel)
			if err != nil || len(parentKeys) != 1 || parentKeys[0] != parentKey {
				continue
			}
			parentNode.Entities.Insert(id)
			cn.Entities.Delete(id)
			ent.Keys.Delete(ck)
			ent.Keys.Insert(parentKey)
		}
	}

	merged := false
	for i, cn := range children {
		if len(cn.Entities) == 0 {
			s.Delete(childKeys[i])
			parentNode.ChildBitmap &^= uint8(1) << uint(i)
			merged = true
		}
	}
	return merged
}
