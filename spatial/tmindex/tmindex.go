// Package tmindex provides the TM-index engine and hot cache: given a
// TetreeKey it returns the packed TM-index (an O(l) ancestor-chain walk,
// cached so repeated encodes of nearby cells are cheap), and given a
// packed index it recovers the key.
package tmindex

import (
	"github.com/coreindex/spatial3d/lib/containers"
	"github.com/coreindex/spatial3d/spatial/key"
)

// DefaultCacheCapacity is the default number of hot entries kept per Engine.
const DefaultCacheCapacity = 4096

type cacheKey struct {
	x, y, z uint32
	level   uint8
	typ     uint8
}

func cacheKeyOf(k key.TetreeKey) cacheKey {
	a := k.Anchor()
	return cacheKey{x: a.X, y: a.Y, z: a.Z, level: k.Level(), typ: k.Type()}
}

// Engine is a per-process, thread-safe TM-index encoder/decoder with a
// bounded hot cache. The cache is OPTIONAL for correctness: every miss
// falls through to the O(level) walk performed by key.TetreeKey.Pack.
//
// A zero Engine is usable (every call misses the cache and always performs
// the full walk); use NewEngine for the cached, fast-path form.
type Engine struct {
	cache *containers.SimpleLRUCache[cacheKey, key.PackedIndex]
}

// NewEngine creates an Engine with a bounded ARC-backed hot cache of the
// given capacity.
func NewEngine(capacity int) *Engine {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Engine{cache: containers.NewSimpleLRUCache[cacheKey, key.PackedIndex](capacity)}
}

// Encode returns the packed TM-index for k, consulting (and populating) the
// hot cache when present.
func (e *Engine) Encode(k key.TetreeKey) key.PackedIndex {
	if e == nil || e.cache == nil {
		return k.Pack()
	}
	ck := cacheKeyOf(k)
	if v, ok := e.cache.Get(ck); ok {
		return v
	}
	packed := k.Pack()
	e.cache.Add(ck, packed)
	return packed
}

// Decode recovers the TetreeKey from a packed index.
func (e *Engine) Decode(p key.PackedIndex) key.TetreeKey {
	return key.UnpackTetreeKey(p)
}

// LevelOf returns the level encoded in a packed index. Level is carried
// alongside the packed bits (see key.PackedIndex), so this is already O(1)
// without needing a second cache.
func (e *Engine) LevelOf(p key.PackedIndex) uint8 {
	return p.Level
}
