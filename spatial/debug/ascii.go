package debug

import (
	"io"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/coreindex/spatial3d/lib/fmtutil"
	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/store"
)

// childBitNames labels each of a node's up-to-8 existing children by
// octant index, for fmtutil.BitfieldString's rendering of ChildBitmap.
var childBitNames = []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}

// ASCIIDump writes one line per occupied node, in traversal order: level,
// key, bbox, and the node's entity-id list. idLess breaks ties for a
// deterministic id ordering within each line.
//
// When ents is non-nil, each listed entity id is followed by a go-spew
// dump of its Content payload. DisablePointerAddresses is set so dumps
// stay reproducible across runs.
func ASCIIDump[K store.NodeKey[K], ID comparable, C any](
	w io.Writer,
	s *store.Store[K, ID],
	ents *store.EntityManager[K, ID, C],
	idLess func(a, b ID) bool,
) error {
	cfg := spew.NewDefaultConfig()
	cfg.DisablePointerAddresses = true
	cfg.Indent = "  "

	var outerErr error
	s.Range(func(k K, n *store.Node[K, ID]) bool {
		ids := n.Entities.Slice()
		sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })
		b := k.Bounds()
		children := fmtutil.BitfieldString(n.ChildBitmap, childBitNames, fmtutil.HexNone)
		if _, err := textui.Fprintf(w, "level=%v key=%v bbox=[%v,%v,%v]-[%v,%v,%v] children=%v entities=%v\n",
			k.Level(), k.String(),
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z, children, len(ids)); err != nil {
			outerErr = err
			return false
		}
		if ents == nil {
			return true
		}
		for _, id := range ids {
			ent, ok := ents.Lookup(id)
			if !ok {
				continue
			}
			if _, err := textui.Fprintf(w, "  entity %v:\n", id); err != nil {
				outerErr = err
				return false
			}
			cfg.Fdump(w, ent.Content)
		}
		return true
	})
	return outerErr
}
