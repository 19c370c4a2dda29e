package debug

import (
	"io"

	"github.com/coreindex/spatial3d/lib/maps"
	"github.com/coreindex/spatial3d/lib/textui"
)

// liveMem is shared across all Report calls in the process so its internal
// rate-limiting (see textui.LiveMemUse) applies process-wide rather than
// re-sampling runtime.MemStats on every Report.
var liveMem textui.LiveMemUse

// Report writes a human-readable rendering of s to w, with node/entity
// counts humanized (thousands separators) via textui.Fprintf/Humanized.
func (s Stats) Report(w io.Writer) error {
	if _, err := textui.Fprintf(w, "nodes:    %v\n", textui.Humanized(s.NodeCount)); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "entities: %v\n", textui.Humanized(s.EntityCount)); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "maxDepth: %v\n", s.MaxDepth); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "balanceViolations: %v\n", textui.Humanized(s.BalanceViolations)); err != nil {
		return err
	}
	for _, lvl := range maps.SortedKeys(s.LevelHistogram) {
		if _, err := textui.Fprintf(w, "  level %v: %v nodes\n", lvl, textui.Humanized(s.LevelHistogram[lvl])); err != nil {
			return err
		}
	}
	if _, err := textui.Fprintf(w, "memory:   %v\n", liveMem.String()); err != nil {
		return err
	}
	return nil
}
