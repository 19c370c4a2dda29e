package store

import (
	"github.com/coreindex/spatial3d/lib/containers"
	"github.com/coreindex/spatial3d/spatial/geom"
	"github.com/coreindex/spatial3d/spatial/key"
	"github.com/coreindex/spatial3d/spatial/spatialerr"
)

// Entity is a stored record: id, position, content, optional bounds, and
// the set of keys it currently occupies.
type Entity[K NodeKey[K], ID comparable, C any] struct {
	ID       ID
	Position geom.Point
	Content  C
	Bounds   *geom.Bounds
	Keys     containers.Set[K]
}

// KeyFactory locates the cell at the given level containing p, for one
// SpatialKey realization. Callers supply a closure over key.NewMortonKey
// or a fixed-type partial application of key.NewTetreeKey, keeping
// EntityManager decoupled from the choice of realization.
type KeyFactory[K any] func(p geom.Point, level uint8) (K, error)

// EntityManager maps EntityId -> Entity, kept consistent with the node
// store as entities are inserted, updated, and removed.
type EntityManager[K NodeKey[K], ID comparable, C any] struct {
	store      *Store[K, ID]
	idGen      IDGenerator[ID]
	newKey     KeyFactory[K]
	entities   map[ID]*Entity[K, ID, C]
	level      uint8
	policy     SpanningPolicy
	maxPerNode int
}

// NewEntityManager constructs a manager over store, using idGen to mint
// ids and newKey to locate cells at the configured insertion level.
func NewEntityManager[K NodeKey[K], ID comparable, C any](
	s *Store[K, ID],
	idGen IDGenerator[ID],
	newKey KeyFactory[K],
	level uint8,
	policy SpanningPolicy,
	maxEntitiesPerNode int,
) *EntityManager[K, ID, C] {
	return &EntityManager[K, ID, C]{
		store:      s,
		idGen:      idGen,
		newKey:     newKey,
		entities:   make(map[ID]*Entity[K, ID, C]),
		level:      level,
		policy:     policy,
		maxPerNode: maxEntitiesPerNode,
	}
}

// Insert creates a new entity at pos with the given content and optional
// bounds, computes its covering key(s) by the configured spanning policy,
// and inserts it into every covering node, subdividing nodes that exceed
// maxEntitiesPerNode. Returns the newly minted id.
func (m *EntityManager[K, ID, C]) Insert(pos geom.Point, content C, bounds *geom.Bounds) (ID, error) {
	var zero ID
	if err := pos.Validate(); err != nil {
		return zero, spatialerr.New(spatialerr.InvalidInput, err.Error())
	}
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			return zero, spatialerr.New(spatialerr.InvalidInput, err.Error())
		}
	}
	id := m.idGen.Next()
	if _, exists := m.entities[id]; exists {
		return zero, spatialerr.New(spatialerr.Conflict, "duplicate entity id")
	}
	keys, err := m.coveringKeys(pos, bounds, m.level)
	if err != nil {
		return zero, err
	}
	ent := &Entity[K, ID, C]{ID: id, Position: pos, Content: content, Bounds: bounds, Keys: containers.NewSet(keys...)}
	m.entities[id] = ent
	for _, k := range keys {
		m.store.insertEntity(k, id)
		m.subdivideIfNeeded(k)
	}
	return id, nil
}

// Update re-locates an entity to a new position/bounds, recomputing its
// covering keys; if the key set changes, the id is removed from departed
// nodes and inserted into new ones.
func (m *EntityManager[K, ID, C]) Update(id ID, pos geom.Point, bounds *geom.Bounds) error {
	ent, ok := m.entities[id]
	if !ok {
		return spatialerr.New(spatialerr.NotFound, "entity not found")
	}
	if err := pos.Validate(); err != nil {
		return spatialerr.New(spatialerr.InvalidInput, err.Error())
	}
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			return spatialerr.New(spatialerr.InvalidInput, err.Error())
		}
	}
	newKeys, err := m.coveringKeys(pos, bounds, m.level)
	if err != nil {
		return err
	}
	newSet := containers.NewSet(newKeys...)
	for k := range ent.Keys {
		if !newSet.Has(k) {
			m.store.removeEntity(k, id)
		}
	}
	for k := range newSet {
		if !ent.Keys.Has(k) {
			m.store.insertEntity(k, id)
			m.subdivideIfNeeded(k)
		}
	}
	ent.Position = pos
	ent.Bounds = bounds
	ent.Keys = newSet
	return nil
}

// Remove removes id from every node it occupies, then deletes the entity.
func (m *EntityManager[K, ID, C]) Remove(id ID) error {
	ent, ok := m.entities[id]
	if !ok {
		return spatialerr.New(spatialerr.NotFound, "entity not found")
	}
	for k := range ent.Keys {
		m.store.removeEntity(k, id)
	}
	delete(m.entities, id)
	return nil
}

// Lookup returns the entity by id.
func (m *EntityManager[K, ID, C]) Lookup(id ID) (*Entity[K, ID, C], bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Len returns the number of entities currently tracked.
func (m *EntityManager[K, ID, C]) Len() int { return len(m.entities) }

// Level returns the manager's configured default insertion level.
func (m *EntityManager[K, ID, C]) Level() uint8 { return m.level }

// Policy returns the manager's configured spanning policy.
func (m *EntityManager[K, ID, C]) Policy() SpanningPolicy { return m.policy }

// MaxEntitiesPerNode returns the configured subdivision threshold.
func (m *EntityManager[K, ID, C]) MaxEntitiesPerNode() int { return m.maxPerNode }

// ReserveID mints a fresh id without registering an entity. Used by
// spatial/bulk's pipeline, which computes keys (and may discard an id on
// a validation failure) before any entity is actually committed. Callers
// using a non-atomic IDGenerator must reserve ids from a single goroutine
// at a time.
func (m *EntityManager[K, ID, C]) ReserveID() ID { return m.idGen.Next() }

// CoveringKeys exposes the spanning-policy-driven key computation that
// Insert/Update use internally, for pipelines (spatial/bulk) that compute
// keys ahead of committing the entity.
func (m *EntityManager[K, ID, C]) CoveringKeys(pos geom.Point, bounds *geom.Bounds, level uint8) ([]K, error) {
	return m.coveringKeys(pos, bounds, level)
}

// BulkEntry is one precomputed entity ready for CommitBulk: an id already
// reserved via ReserveID, and the covering keys already computed via
// CoveringKeys.
type BulkEntry[K NodeKey[K], ID comparable, C any] struct {
	ID       ID
	Position geom.Point
	Content  C
	Bounds   *geom.Bounds
	Keys     []K
}

// CommitBulk is the single-writer merge step of the bulk pipeline: it
// registers every entry's entity record and node membership, then runs one
// deferred subdivision pass over every node touched. CommitBulk is not
// itself concurrency-safe against other Store/EntityManager mutators;
// callers (spatial/bulk, under spatial/index's writer lease) are
// responsible for serializing it against concurrent writers. No entry is
// committed if any id in the batch is already in use, so no partial state
// is ever committed at the merge step.
func (m *EntityManager[K, ID, C]) CommitBulk(entries []BulkEntry[K, ID, C]) error {
	for _, e := range entries {
		if _, exists := m.entities[e.ID]; exists {
			return spatialerr.New(spatialerr.Conflict, "duplicate entity id in bulk commit")
		}
	}
	touched := containers.NewSet[K]()
	for _, e := range entries {
		ent := &Entity[K, ID, C]{ID: e.ID, Position: e.Position, Content: e.Content, Bounds: e.Bounds, Keys: containers.NewSet(e.Keys...)}
		m.entities[e.ID] = ent
		for _, k := range e.Keys {
			m.store.insertEntity(k, e.ID)
			touched.Insert(k)
		}
	}
	for k := range touched {
		m.subdivideIfNeeded(k)
	}
	return nil
}

// coveringKeys computes the key set an entity at pos/bounds occupies under
// the configured spanning policy, at the requested level.
func (m *EntityManager[K, ID, C]) coveringKeys(pos geom.Point, bounds *geom.Bounds, level uint8) ([]K, error) {
	if bounds == nil || m.policy == None {
		k, err := m.newKey(pos, level)
		if err != nil {
			return nil, spatialerr.New(spatialerr.InvalidInput, err.Error())
		}
		return []K{k}, nil
	}
	targetLevel := level
	if m.policy == ReplicateAtLeaves {
		targetLevel = key.Lmax
	}
	keys, err := m.enumerateCovering(*bounds, targetLevel)
	if err != nil {
		return nil, err
	}
	if m.policy == ClampedSpan && len(keys) > MaxSpanKeys {
		k, err := m.newKey(pos, level)
		if err != nil {
			return nil, spatialerr.New(spatialerr.InvalidInput, err.Error())
		}
		return []K{k}, nil
	}
	return keys, nil
}

// enumerateCovering walks the cell grid at level, stepping by the cell
// edge length, and collects one key per distinct cell overlapping b.
func (m *EntityManager[K, ID, C]) enumerateCovering(b geom.Bounds, level uint8) ([]K, error) {
	step := float32(key.CellLength(level))
	seen := make(map[K]struct{})
	var out []K
	for x := floorToStep(b.Min.X, step); x <= b.Max.X; x += step {
		for y := floorToStep(b.Min.Y, step); y <= b.Max.Y; y += step {
			for z := floorToStep(b.Min.Z, step); z <= b.Max.Z; z += step {
				k, err := m.newKey(geom.Point{X: x, Y: y, Z: z}, level)
				if err != nil {
					return nil, spatialerr.New(spatialerr.InvalidInput, err.Error())
				}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out, nil
}

func floorToStep(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	n := float32(int64(v / step))
	if n*step > v {
		n--
	}
	return n * step
}

// subdivideIfNeeded redistributes the entities of the node at k to its
// children once its entity count exceeds maxPerNode and its level allows.
// An entity "straddles" children (multi-cell at the finer level) when its
// covering-key computation at the child level yields more
// than one key; straddling entities stay at the parent rather than being
// pushed down, and the parent node is kept whenever any entity straddles.
// Subdivision that would exceed Lmax is skipped, leaving an oversize node
// rather than silently splitting past the domain's finest level.
func (m *EntityManager[K, ID, C]) subdivideIfNeeded(k K) {
	if m.maxPerNode <= 0 {
		return
	}
	node, ok := m.store.Lookup(k)
	if !ok || len(node.Entities) <= m.maxPerNode || k.Level() >= key.Lmax {
		return
	}
	childLevel := k.Level() + 1
	moved := make([]ID, 0, len(node.Entities))
	for id := range node.Entities {
		ent, ok := m.entities[id]
		if !ok {
			continue
		}
		childKeys, err := m.coveringKeys(ent.Position, ent.Bounds, childLevel)
		if err != nil || len(childKeys) != 1 {
			continue // straddles, or failed to relocate: keep at parent
		}
		childKey := childKeys[0]
		m.store.insertEntity(childKey, id)
		ent.Keys.Delete(k)
		ent.Keys.Insert(childKey)
		moved = append(moved, id)
	}
	for _, id := range moved {
		node.Entities.Delete(id)
	}
}
