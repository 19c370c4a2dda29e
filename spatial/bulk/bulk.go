// Package bulk implements the bulk insert pipeline: validate, choose a
// level, compute keys in parallel, sort by key, partition into chunks, and
// merge each chunk's private delta into the store under a single writer
// section, with deferred subdivision running once after the merge.
package bulk

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"

	"github.com/coreindex/spatial3d/lib/containers"
	"github.com/coreindex/spatial3d/lib/textui"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/spatialerr"
	"github.com/coreindex/spatial3d/spatial/store"
)

// progressInterval gates how often a running Insert call logs its commit
// progress; batches that finish faster than this never log at all.
var progressInterval = textui.Tunable(2 * time.Second)

// mergeProgress is the Stats value textui.Progress logs while stage 6a's
// chunk goroutines build their private deltas.
type mergeProgress struct {
	done, total int
}

func (p mergeProgress) String() string {
	return fmt.Sprintf("bulk insert: computed %d/%d entity deltas", p.done, p.total)
}

// Input is one entity to insert as part of a batch.
type Input[C any] struct {
	Position geom.Point
	Content  C
	Bounds   *geom.Bounds
}

// Options configures a single Insert pipeline run.
type Options struct {
	// Level is the fixed insertion level used when Adaptive is false.
	Level uint8
	// Adaptive enables per-batch level selection: binary-search the
	// coarsest level whose predicted occupancy still falls at or under
	// OccupancyHi.
	Adaptive                 bool
	OccupancyLo, OccupancyHi int
	// Threads bounds worker concurrency for stages 3 and 6; 0 means
	// runtime.GOMAXPROCS(0).
	Threads int
	// ChunkThreshold is the floor on stage 5's chunk size; the actual
	// chunk size is max(ChunkThreshold, len(inputs)/(threads*4)).
	ChunkThreshold int
}

func (o Options) resolveThreads() int {
	if o.Threads > 0 {
		return o.Threads
	}
	return runtime.GOMAXPROCS(0)
}

type keyedEntry[K any, C any] struct {
	idx  int
	keys []K
	in   Input[C]
}

// Insert runs the full pipeline against m, returning ids in input order.
// On any invalid input, or any id collision at commit time, the batch is
// aborted and no entity is added to m. The returned error identifies the
// offending input's index via spatialerr.InvalidInput. Concurrent calls to
// Insert against the same manager must be serialized by the caller
// (spatial/index's writer lease does this).
func Insert[K store.NodeKey[K], ID comparable, C any](
	ctx context.Context,
	m *store.EntityManager[K, ID, C],
	inputs []Input[C],
	opts Options,
) ([]ID, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	// Stage 1: validate all inputs before doing any other work.
	stageCtx := dlog.WithField(ctx, "spatial.bulk.stage", "validate")
	for i, in := range inputs {
		if err := in.Position.Validate(); err != nil {
			return nil, spatialerr.Newf(spatialerr.InvalidInput, "bulk input %d: %s", i, err)
		}
		if in.Bounds != nil {
			if err := in.Bounds.Validate(); err != nil {
				return nil, spatialerr.Newf(spatialerr.InvalidInput, "bulk input %d: %s", i, err)
			}
		}
	}
	dlog.Debugf(stageCtx, "validated %d inputs", len(inputs))

	// Stage 2: choose the per-insert level.
	level := opts.Level
	if opts.Adaptive {
		level = chooseAdaptiveLevel(inputs, opts.OccupancyLo, opts.OccupancyHi)
	}
	threads := opts.resolveThreads()

	// Stage 3: compute covering keys for every input in parallel.
	computeCtx := dlog.WithField(ctx, "spatial.bulk.stage", "compute-keys")
	entries := make([]keyedEntry[K, C], len(inputs))
	if err := parallelChunks(computeCtx, len(inputs), threads, func(chunkCtx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			ks, err := m.CoveringKeys(inputs[i].Position, inputs[i].Bounds, level)
			if err != nil {
				return spatialerr.Newf(spatialerr.InvalidInput, "bulk input %d: %s", i, err)
			}
			entries[i] = keyedEntry[K, C]{idx: i, keys: ks, in: inputs[i]}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Stage 4: sort the (key, input) pairs by key, using each entry's
	// first covering key as its sort representative.
	sorted := append([]keyedEntry[K, C](nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].keys[0].Compare(sorted[j].keys[0]) < 0
	})

	// Stage 5: partition into chunks by contiguous key ranges.
	chunkLen := opts.ChunkThreshold
	if target := len(sorted) / (threads * 4); target > chunkLen {
		chunkLen = target
	}
	if chunkLen <= 0 {
		chunkLen = len(sorted)
	}

	// Stage 6a: each chunk computes a private delta (ids reserved and
	// entries built, but not yet applied to the store).
	mergeCtx := dlog.WithField(ctx, "spatial.bulk.stage", "merge")
	type committed struct {
		idx   int
		entry store.BulkEntry[K, ID, C]
	}
	numChunks := (len(sorted) + chunkLen - 1) / chunkLen
	chunkResults := make([][]committed, numChunks)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs derror.MultiError
	// chunkPool lets the numChunks goroutines below share a backing-array
	// pool for their private "committed" scratch slices: one Get per
	// chunk, one Put once stage 6b has copied that chunk's entries into
	// the flattened `all` slice, so a batch with many chunks reuses
	// freed scratch arrays instead of allocating one per chunk.
	var chunkPool containers.SlicePool[committed]
	var completed int64
	progress := textui.NewProgress[mergeProgress](mergeCtx, dlog.LogLevelInfo, progressInterval)
	for c := 0; c < numChunks; c++ {
		start := c * chunkLen
		end := start + chunkLen
		if end > len(sorted) {
			end = len(sorted)
		}
		wg.Add(1)
		go func(chunkIdx, start, end int) {
			defer wg.Done()
			defer func() {
				if perr := derror.PanicToError(recover()); perr != nil {
					mu.Lock()
					errs = append(errs, perr)
					mu.Unlock()
				}
			}()
			local := chunkPool.Get(end - start)
			for i := start; i < end; i++ {
				e := sorted[i]
				local[i-start] = committed{
					idx: e.idx,
					entry: store.BulkEntry[K, ID, C]{
						ID:       m.ReserveID(),
						Position: e.in.Position,
						Content:  e.in.Content,
						Bounds:   e.in.Bounds,
						Keys:     e.keys,
					},
				}
			}
			chunkResults[chunkIdx] = local
			done := atomic.AddInt64(&completed, int64(len(local)))
			progress.Set(mergeProgress{done: int(done), total: len(sorted)})
			dlog.Debugf(dlog.WithField(mergeCtx, "spatial.bulk.chunk", chunkIdx), "built delta: %d entities", len(local))
		}(c, start, end)
	}
	wg.Wait()
	progress.Done()
	if len(errs) > 0 {
		return nil, errs
	}

	// Stage 6b: merge every chunk's delta into the store under a single
	// writer section, then run one deferred subdivision pass.
	all := make([]store.BulkEntry[K, ID, C], 0, len(sorted))
	idxByOffset := make([]int, 0, len(sorted))
	for _, chunk := range chunkResults {
		for _, c := range chunk {
			all = append(all, c.entry)
			idxByOffset = append(idxByOffset, c.idx)
		}
		chunkPool.Put(chunk)
	}
	if err := m.CommitBulk(all); err != nil {
		return nil, err
	}

	ids := make([]ID, len(inputs))
	for offset, idx := range idxByOffset {
		ids[idx] = all[offset].ID
	}
	return ids, nil
}

// parallelChunks splits [0,n) into up to threads contiguous chunks and runs
// fn on each concurrently, converting any worker panic into a normal error
// via derror.PanicToError and aggregating every error via
// derror.MultiError.
func parallelChunks(ctx context.Context, n, threads int, fn func(ctx context.Context, start, end int) error) error {
	if n == 0 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}
	chunkLen := (n + threads - 1) / threads
	numChunks := (n + chunkLen - 1) / chunkLen
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs derror.MultiError
	for c := 0; c < numChunks; c++ {
		start := c * chunkLen
		end := start + chunkLen
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(chunkIdx, start, end int) {
			defer wg.Done()
			defer func() {
				if perr := derror.PanicToError(recover()); perr != nil {
					mu.Lock()
					errs = append(errs, perr)
					mu.Unlock()
				}
			}()
			chunkCtx := dlog.WithField(ctx, "spatial.bulk.chunk", chunkIdx)
			if err := fn(chunkCtx, start, end); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(c, start, end)
	}
	wg.Wait()
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// chooseAdaptiveLevel binary-searches the coarsest level whose predicted
// occupancy (input count / estimated cell count over the input set's
// bounding box) is at or under hi. lo is accepted for API symmetry with
// OccupancyLo/OccupancyHi but not separately enforced: any level coarse
// enough to satisfy hi is, by construction, the coarsest level that does.
func chooseAdaptiveLevel[C any](inputs []Input[C], lo, hi int) uint8 {
	if len(inputs) == 0 || hi <= 0 {
		return 0
	}
	minP, maxP := boundingBox(inputs)
	extent := boxExtent(minP, maxP)
	n := float64(len(inputs))

	low, high := uint8(0), key.Lmax
	for low < high {
		mid := low + (high-low)/2
		occ := predictedOccupancy(n, extent, mid)
		if occ <= float64(hi) {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return low
}

func predictedOccupancy(n, extent float64, level uint8) float64 {
	cell := float64(key.CellLength(level))
	cells := extent / (cell * cell * cell)
	if cells < 1 {
		cells = 1
	}
	return n / cells
}

func boundingBox[C any](inputs []Input[C]) (min, max geom.Point) {
	min, max = inputs[0].Position, inputs[0].Position
	for _, in := range inputs[1:] {
		if in.Position.X < min.X {
			min.X = in.Position.X
		}
		if in.Position.Y < min.Y {
			min.Y = in.Position.Y
		}
		if in.Position.Z < min.Z {
			min.Z = in.Position.Z
		}
		if in.Position.X > max.X {
			max.X = in.Position.X
		}
		if in.Position.Y > max.Y {
			max.Y = in.Position.Y
		}
		if in.Position.Z > max.Z {
			max.Z = in.Position.Z
		}
	}
	return min, max
}

func boxExtent(min, max geom.Point) float64 {
	dx := float64(max.X-min.X) + 1
	dy := float64(max.Y-min.Y) + 1
	dz := float64(max.Z-min.Z) + 1
	return dx * dy * dz
}
