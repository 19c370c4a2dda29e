// Package index wires spatial/store, spatial/query, and spatial/balance
// into a single façade: a thread-safe index with reader/writer lease
// discipline, a pause+barrier protocol for long-running rebuild
// operations, and snapshot-consistent query results.
package index

import (
	"context"
	"sync"

	"github.com/coreindex/spatial3d/spatial/balance"
	"github.com/coreindex/spatial3d/spatial/bulk"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/query"
	"github.com/coreindex/spatial3d/spatial/store"
)

// Index is the concurrency-safe façade over one store.Store/
// store.EntityManager pair. Readers acquire a shared lease (mu.RLock);
// writers acquire an exclusive lease (mu.Lock), additionally gated by
// barrierMu so Pause can drain in-flight writers and block new ones
// without disturbing concurrent readers; see acquireWriter/Pause.
type Index[K store.NodeKey[K], ID comparable, C any] struct {
	mu        sync.RWMutex
	barrierMu sync.RWMutex

	store    *store.Store[K, ID]
	ents     *store.EntityManager[K, ID, C]
	balancer *balance.DefaultBalancingStrategy[K, ID, C]
	idLess   func(a, b ID) bool
}

// New constructs an Index. idLess breaks ties in query result ordering;
// callers with uint64 ids can pass a plain "<", callers with store.UUID
// ids can pass
// func(a, b store.UUID) bool { return a.Compare(b) < 0 }.
func New[K store.NodeKey[K], ID comparable, C any](
	idGen store.IDGenerator[ID],
	newKey store.KeyFactory[K],
	idLess func(a, b ID) bool,
	cfg Config,
) (*Index[K, ID, C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := store.New[K, ID]()
	m := store.NewEntityManager[K, ID, C](s, idGen, newKey, cfg.Level, cfg.Policy, cfg.MaxEntitiesPerNode)
	b := balance.NewDefaultBalancingStrategy[K, ID, C](cfg.MaxEntitiesPerNode, cfg.MergeThreshold)
	return &Index[K, ID, C]{store: s, ents: m, balancer: b, idLess: idLess}, nil
}

// acquireWriter/releaseWriter implement the writer lease: barrierMu.RLock
// is the "admission" gate Pause closes by taking barrierMu.Lock, and mu is
// the exclusive store/entity-manager lease itself.
func (ix *Index[K, ID, C]) acquireWriter() {
	ix.barrierMu.RLock()
	ix.mu.Lock()
}

func (ix *Index[K, ID, C]) releaseWriter() {
	ix.mu.Unlock()
	ix.barrierMu.RUnlock()
}

// Pause blocks until every in-flight writer lease has released, and holds
// off any new writer lease from being acquired until Resume is called.
// Readers are unaffected throughout; this supports long-running balance or
// rebuild operations that must not race a concurrent writer.
func (ix *Index[K, ID, C]) Pause() {
	ix.barrierMu.Lock()
}

// Resume releases a barrier started by Pause.
func (ix *Index[K, ID, C]) Resume() {
	ix.barrierMu.Unlock()
}

// Insert adds a new entity, then runs one balancer pass over the nodes it
// touched, all under a single writer lease.
func (ix *Index[K, ID, C]) Insert(pos geom.Point, content C, bounds *geom.Bounds) (ID, error) {
	ix.acquireWriter()
	defer ix.releaseWriter()

	id, err := ix.ents.Insert(pos, content, bounds)
	if err != nil {
		return id, err
	}
	ix.queueEntityKeys(id)
	ix.balancer.Commit(ix.store, ix.ents)
	return id, nil
}

// Update relocates an existing entity and runs one balancer pass.
func (ix *Index[K, ID, C]) Update(id ID, pos geom.Point, bounds *geom.Bounds) error {
	ix.acquireWriter()
	defer ix.releaseWriter()

	if err := ix.ents.Update(id, pos, bounds); err != nil {
		return err
	}
	ix.queueEntityKeys(id)
	ix.balancer.Commit(ix.store, ix.ents)
	return nil
}

// Remove deletes an entity and runs one balancer pass over the nodes it
// vacated.
func (ix *Index[K, ID, C]) Remove(id ID) error {
	ix.acquireWriter()
	defer ix.releaseWriter()

	ent, ok := ix.ents.Lookup(id)
	if !ok {
		return ix.ents.Remove(id) // returns the same NotFound error Remove would
	}
	keys := ent.Keys.Slice()
	if err := ix.ents.Remove(id); err != nil {
		return err
	}
	for _, k := range keys {
		ix.balancer.QueueRemove(k)
	}
	ix.balancer.Commit(ix.store, ix.ents)
	return nil
}

// BulkInsert runs the bulk pipeline (spatial/bulk) under a single writer
// lease, then queues every inserted entity's keys for one balancer pass.
// Stages 1-5 of the pipeline (validate, choose level, compute keys, sort,
// partition) do not themselves need the store lease; only the final
// single-writer merge does. Holding the lease for bulk.Insert's full
// duration keeps this façade's locking discipline simple; splitting the
// lease window to match the pipeline's own internal staging is left as a
// refinement (see DESIGN.md).
func (ix *Index[K, ID, C]) BulkInsert(ctx context.Context, inputs []bulk.Input[C], opts bulk.Options) ([]ID, error) {
	ix.acquireWriter()
	defer ix.releaseWriter()

	ids, err := bulk.Insert(ctx, ix.ents, inputs, opts)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		ix.queueEntityKeys(id)
	}
	ix.balancer.Commit(ix.store, ix.ents)
	return ids, nil
}

func (ix *Index[K, ID, C]) queueEntityKeys(id ID) {
	ent, ok := ix.ents.Lookup(id)
	if !ok {
		return
	}
	for k := range ent.Keys {
		ix.balancer.QueueInsert(k)
	}
}

// View acquires a shared reader lease, builds a query engine over the
// current state, and runs fn with it. Query results are all materialized
// slices, so fn does not need to outlive View for its results to remain
// valid.
func (ix *Index[K, ID, C]) View(fn func(q *query.Engine[K, ID, C])) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	q := query.NewEngine[K, ID, C](ix.store, ix.ents, ix.idLess)
	fn(q)
}

// Snapshot acquires a reader lease that is held until the returned
// Snapshot's Close is called, for callers that need a query.Engine to
// outlive a single function call (e.g. to run several queries back to
// back without allowing an interleaved writer).
func (ix *Index[K, ID, C]) Snapshot() *Snapshot[K, ID, C] {
	ix.mu.RLock()
	return &Snapshot[K, ID, C]{
		engine: query.NewEngine[K, ID, C](ix.store, ix.ents, ix.idLess),
		mu:     &ix.mu,
	}
}

// Rebuild pauses new writer leases, drains in-flight ones, then runs fn
// with exclusive access to the store and entity manager, for operations
// like a full bulk re-key or a forced balancer sweep that must see no
// concurrent mutation.
func (ix *Index[K, ID, C]) Rebuild(fn func(s *store.Store[K, ID], m *store.EntityManager[K, ID, C])) {
	ix.Pause()
	defer ix.Resume()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	fn(ix.store, ix.ents)
}

// Len returns the current entity count under a reader lease.
func (ix *Index[K, ID, C]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ents.Len()
}

// Snapshot is a read lease held open across multiple query calls; Close
// must be called exactly once to release it.
type Snapshot[K store.NodeKey[K], ID comparable, C any] struct {
	engine *query.Engine[K, ID, C]
	mu     *sync.RWMutex
	closed bool
}

// Engine returns the snapshot's query engine.
func (sn *Snapshot[K, ID, C]) Engine() *query.Engine[K, ID, C] {
	return sn.engine
}

// Close releases the snapshot's reader lease. Calling Close more than
// once is a no-op.
func (sn *Snapshot[K, ID, C]) Close() {
	if sn.closed {
		return
	}
	sn.closed = true
	sn.mu.RUnlock()
}
