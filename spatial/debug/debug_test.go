package debug_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreindex/spatial3d/spatial/debug"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/store"
)

func mortonFactory(p geom.Point, level uint8) (key.MortonKey, error) {
	return key.NewMortonKey(p, level)
}

func idLess(a, b uint64) bool { return a < b }

func buildStore(t *testing.T) (*store.Store[key.MortonKey, uint64], *store.EntityManager[key.MortonKey, uint64, string]) {
	t.Helper()
	s := store.New[key.MortonKey, uint64]()
	m := store.NewEntityManager[key.MortonKey, uint64, string](
		s, store.NewSequentialIDs(), mortonFactory, 4, store.None, 100)
	_, err := m.Insert(geom.Point{X: 1, Y: 1, Z: 1}, "alpha", nil)
	require.NoError(t, err)
	_, err = m.Insert(geom.Point{X: 900000, Y: 900000, Z: 900000}, "beta", nil)
	require.NoError(t, err)
	return s, m
}

func TestComputeCountsNodesAndEntities(t *testing.T) {
	t.Parallel()
	s, m := buildStore(t)
	stats := debug.Compute(s, m.Len())
	assert.Equal(t, s.Len(), stats.NodeCount)
	assert.Equal(t, 2, stats.EntityCount)
	assert.Equal(t, 0, stats.BalanceViolations)
}

func TestStatsReportIsHumanReadable(t *testing.T) {
	t.Parallel()
	s, m := buildStore(t)
	stats := debug.Compute(s, m.Len())
	var buf bytes.Buffer
	require.NoError(t, stats.Report(&buf))
	out := buf.String()
	assert.Contains(t, out, "nodes:")
	assert.Contains(t, out, "entities:")
	assert.Contains(t, out, "maxDepth:")
}

func TestASCIIDumpListsEntitiesPerNode(t *testing.T) {
	t.Parallel()
	s, m := buildStore(t)
	var buf bytes.Buffer
	require.NoError(t, debug.ASCIIDump(&buf, s, m, idLess))
	out := buf.String()
	assert.True(t, strings.Contains(out, "level="))
	assert.True(t, strings.Contains(out, "children="))
	assert.True(t, strings.Contains(out, "entities="))
}

func TestOBJExportEmitsVertexAndLineRecords(t *testing.T) {
	t.Parallel()
	s, _ := buildStore(t)
	var buf bytes.Buffer
	require.NoError(t, debug.OBJExport(&buf, s))
	out := buf.String()
	vCount := strings.Count(out, "v ")
	lCount := strings.Count(out, "l ")
	assert.Equal(t, 8*s.Len(), vCount)
	assert.Equal(t, 12*s.Len(), lCount)
}
