package index

import (
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/spatialerr"
	"github.com/coreindex/spatial3d/spatial/store"
)

// Config is the construction-time configuration for an Index.
type Config struct {
	// Level is the default insertion level new entities are keyed at.
	Level uint8
	// MaxEntitiesPerNode is the occupancy threshold both the store's
	// at-insert subdivision and the balancer's split pass use.
	MaxEntitiesPerNode int
	// MergeThreshold overrides the balancer's default
	// (MaxEntitiesPerNode/4) merge threshold; 0 keeps the default.
	MergeThreshold int
	// Policy is the spanning policy bounded entities use to compute
	// their covering key set.
	Policy store.SpanningPolicy
}

// Validate checks the invariants a configuration must satisfy before it
// can back a live Index: Level must address a real level, and
// MaxEntitiesPerNode must be positive. A non-positive threshold would mean
// "never subdivide," which is instead expressed by choosing a large
// MaxEntitiesPerNode rather than special-casing zero/negative as
// "disabled."
func (c Config) Validate() error {
	if err := key.ValidateLevel(c.Level); err != nil {
		return err
	}
	if c.MaxEntitiesPerNode <= 0 {
		return spatialerr.New(spatialerr.InvalidInput, "MaxEntitiesPerNode must be > 0")
	}
	if c.MergeThreshold < 0 {
		return spatialerr.New(spatialerr.InvalidInput, "MergeThreshold must be >= 0")
	}
	return nil
}
