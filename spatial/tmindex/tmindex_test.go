package tmindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/tmindex"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	e := tmindex.NewEngine(16)
	cur := key.RootTetreeKey(1)
	for level := uint8(1); level <= 12; level++ {
		cur = cur.Child(uint8(level*5) % key.Fanout)
		packed := e.Encode(cur)
		assert.Equal(t, level, e.LevelOf(packed))
		assert.Equal(t, cur, e.Decode(packed))
	}
}

func TestEncodeCacheHitMatchesMiss(t *testing.T) {
	t.Parallel()
	e := tmindex.NewEngine(4)
	k := key.RootTetreeKey(0).Child(2).Child(5)
	first := e.Encode(k)
	second := e.Encode(k) // should be served from cache
	assert.Equal(t, first, second)
}

func TestZeroEngineUsable(t *testing.T) {
	t.Parallel()
	var e tmindex.Engine
	k := key.RootTetreeKey(4).Child(1)
	packed := e.Encode(k)
	assert.Equal(t, k, e.Decode(packed))
}
