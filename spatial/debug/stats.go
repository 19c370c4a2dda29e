// Package debug provides a structural statistics snapshot, an ASCII dump
// sink (level, key, bbox, entity-id list records in traversal order), and
// an OBJ export sink (v/l wireframe cubes for each occupied cell).
package debug

import (
	"github.com/coreindex/spatial3d/spatial/store"
)

// Stats is a one-shot structural snapshot of a store/entity-manager pair,
// computed by a single traversal. Callers run Compute inside
// spatial/index.Rebuild, the Index method that hands out the store (under
// its exclusive lease), so the traversal sees a consistent snapshot.
type Stats struct {
	NodeCount         int
	EntityCount       int
	MaxDepth          uint8
	LevelHistogram    map[uint8]int
	BalanceViolations int
}

// Compute walks every node in s once, tallying node/entity counts, the
// maximum occupied depth, a per-level histogram, and a count of local
// balance violations.
//
// BalanceViolations counts internal nodes whose existing children's
// subtree depths differ by more than one level from each other. This is
// the same local, per-parent notion of "2:1 balance" spatial/balance's
// merge pass enforces, not a full face-neighbor-graph walk across
// different parents.
func Compute[K store.NodeKey[K], ID comparable](s *store.Store[K, ID], entityCount int) Stats {
	type record struct {
		key         K
		level       uint8
		childBitmap uint8
	}
	var nodes []record
	hist := make(map[uint8]int)
	var maxDepth uint8

	s.Range(func(k K, n *store.Node[K, ID]) bool {
		nodes = append(nodes, record{key: k, level: k.Level(), childBitmap: n.ChildBitmap})
		hist[k.Level()]++
		if k.Level() > maxDepth {
			maxDepth = k.Level()
		}
		return true
	})

	// Process deepest-first so each node's children have already had
	// their own subtree depth computed by the time the node itself is
	// visited. store.Range yields ascending (shallow-first) order, so
	// walk the collected slice in reverse.
	depth := make(map[K]uint8, len(nodes))
	violations := 0
	for i := len(nodes) - 1; i >= 0; i-- {
		rec := nodes[i]
		if rec.childBitmap == 0 {
			depth[rec.key] = rec.level
			continue
		}
		var lo, hi uint8
		first := true
		for i := uint8(0); i < 8; i++ {
			if rec.childBitmap&(1<<i) == 0 {
				continue
			}
			childKey := rec.key.Child(i)
			childDepth, ok := depth[childKey]
			if !ok {
				continue
			}
			if first {
				lo, hi = childDepth, childDepth
				first = false
				continue
			}
			if childDepth < lo {
				lo = childDepth
			}
			if childDepth > hi {
				hi = childDepth
			}
		}
		if !first && hi-lo > 1 {
			violations++
		}
		depth[rec.key] = hi
	}

	return Stats{
		NodeCount:         s.Len(),
		EntityCount:       entityCount,
		MaxDepth:          maxDepth,
		LevelHistogram:    hist,
		BalanceViolations: violations,
	}
}
