package debug

import (
	"fmt"
	"io"

	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/store"
)

// cubeEdges lists the 12 edges of a unit cube by corner index, corner
// indices ordered the same way geom.Bounds' 8-corner enumeration
// (ClassifyPlane) already uses elsewhere in this module:
// bit 0 = X, bit 1 = Y, bit 2 = Z, each set selecting Max over Min.
var cubeEdges = [12][2]int{
	{0, 1}, {0, 2}, {0, 4}, {1, 3},
	{1, 5}, {2, 3}, {2, 6}, {3, 7},
	{4, 5}, {4, 6}, {5, 7}, {6, 7},
}

func corners(b geom.Bounds) [8]geom.Point {
	var c [8]geom.Point
	for i := 0; i < 8; i++ {
		p := geom.Point{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		c[i] = p
	}
	return c
}

// OBJExport writes every occupied node's bounding cube as an 8-vertex
// wireframe cube: Wavefront-compatible `v`/`l` records only, no materials,
// no faces. Vertex indices are 1-based per the OBJ format and accumulate
// across nodes in traversal order.
func OBJExport[K store.NodeKey[K], ID comparable](w io.Writer, s *store.Store[K, ID]) error {
	base := 0
	var outerErr error
	s.Range(func(k K, _ *store.Node[K, ID]) bool {
		c := corners(k.Bounds())
		for _, p := range c {
			if _, err := fmt.Fprintf(w, "v %v %v %v\n", p.X, p.Y, p.Z); err != nil {
				outerErr = err
				return false
			}
		}
		for _, e := range cubeEdges {
			if _, err := fmt.Fprintf(w, "l %d %d\n", base+e[0]+1, base+e[1]+1); err != nil {
				outerErr = err
				return false
			}
		}
		base += 8
		return true
	})
	return outerErr
}
