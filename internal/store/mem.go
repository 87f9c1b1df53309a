package store

import (
	"encoding/binary"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/stork-lang/stork/internal/value"
)

// ErrNoEntity is returned when writing to an entity that does not exist.
var ErrNoEntity = errors.New("entity does not exist")

// MemStore is an in-memory Store. Live entities are kept in a btree so
// iteration follows entity ID order; each component kind keeps a bitmap of
// the entities that have it.
type MemStore struct {
	mu sync.RWMutex

	componentIDs   map[string]ComponentID
	componentNames []string
	resourceIDs    map[string]ResourceID
	resourceNames  []string

	next    value.EntityID
	live    *btree.BTreeG[value.EntityID]
	values  []map[value.EntityID]value.Value
	members []*roaring.Bitmap

	resources map[ResourceID]value.Value

	// gen changes whenever entity membership changes.
	gen     uint64
	queries map[uint64]*memQuery

	builtins Builtins
}

// NewMemStore creates an empty store exposing b to scripts.
func NewMemStore(b Builtins) *MemStore {
	return &MemStore{
		componentIDs: make(map[string]ComponentID),
		resourceIDs:  make(map[string]ResourceID),
		live:         btree.NewG[value.EntityID](16, func(a, b value.EntityID) bool { return a < b }),
		resources:    make(map[ResourceID]value.Value),
		queries:      make(map[uint64]*memQuery),
		builtins:     b,
	}
}

func (s *MemStore) Builtins() Builtins { return s.builtins }

func (s *MemStore) RegisterComponent(name string) ComponentID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.componentIDs[name]; ok {
		return id
	}
	id := ComponentID(len(s.componentNames))
	s.componentIDs[name] = id
	s.componentNames = append(s.componentNames, name)
	s.values = append(s.values, make(map[value.EntityID]value.Value))
	s.members = append(s.members, roaring.NewBitmap())
	return id
}

func (s *MemStore) RegisterResource(name string) ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.resourceIDs[name]; ok {
		return id
	}
	id := ResourceID(len(s.resourceNames))
	s.resourceIDs[name] = id
	s.resourceNames = append(s.resourceNames, name)
	return id
}

// LookupComponent finds a registered component by name.
func (s *MemStore) LookupComponent(name string) (ComponentID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.componentIDs[name]
	return id, ok
}

// LookupResource finds a registered resource by name.
func (s *MemStore) LookupResource(name string) (ResourceID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.resourceIDs[name]
	return id, ok
}

func (s *MemStore) ComponentName(c ComponentID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.componentNames[c]
}

func (s *MemStore) ResourceName(r ResourceID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resourceNames[r]
}

// Spawn creates an entity with the given components.
func (s *MemStore) Spawn(components map[ComponentID]value.Value) value.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.next
	s.next++
	s.live.ReplaceOrInsert(e)
	for c, v := range components {
		s.values[c][e] = v.Clone()
		s.members[c].Add(uint32(e))
	}
	s.gen++
	return e
}

// Despawn removes an entity and all its components.
func (s *MemStore) Despawn(e value.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live.Delete(e); !ok {
		return
	}
	for c := range s.values {
		delete(s.values[c], e)
		s.members[c].Remove(uint32(e))
	}
	s.gen++
}

// Entities lists live entities in ID order.
func (s *MemStore) Entities() []value.EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]value.EntityID, 0, s.live.Len())
	s.live.Ascend(func(e value.EntityID) bool {
		out = append(out, e)
		return true
	})
	return out
}

// ComponentsOf lists the components e has, in registration order.
func (s *MemStore) ComponentsOf(e value.EntityID) []ComponentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ComponentID
	for c, m := range s.members {
		if m.Contains(uint32(e)) {
			out = append(out, ComponentID(c))
		}
	}
	return out
}

// Resources lists resources that currently hold a value.
func (s *MemStore) Resources() []ResourceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ResourceID
	for id := range s.resourceNames {
		if _, ok := s.resources[ResourceID(id)]; ok {
			out = append(out, ResourceID(id))
		}
	}
	return out
}

func (s *MemStore) Component(e value.EntityID, c ComponentID) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(c) >= len(s.values) {
		return value.Value{}, false
	}
	v, ok := s.values[c][e]
	return v.Clone(), ok
}

func (s *MemStore) SetComponent(e value.EntityID, c ComponentID, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live.Has(e) {
		return errors.Wrapf(ErrNoEntity, "entity %d", e)
	}
	if int(c) >= len(s.values) {
		return errors.Errorf("component %d is not registered", c)
	}
	if _, ok := s.values[c][e]; !ok {
		s.members[c].Add(uint32(e))
		s.gen++
	}
	s.values[c][e] = v.Clone()
	return nil
}

func (s *MemStore) RemoveComponent(e value.EntityID, c ComponentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(c) >= len(s.values) {
		return
	}
	if _, ok := s.values[c][e]; ok {
		delete(s.values[c], e)
		s.members[c].Remove(uint32(e))
		s.gen++
	}
}

func (s *MemStore) Resource(r ResourceID) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.resources[r]
	return v.Clone(), ok
}

func (s *MemStore) SetResource(r ResourceID, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r] = v.Clone()
}

func (s *MemStore) RemoveResource(r ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, r)
}

// Query returns the cached state for f. Equal filters share a state.
func (s *MemStore) Query(f Filter) QueryState {
	key := fingerprint(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queries[key]; ok {
		return q
	}
	q := &memQuery{s: s, filter: append(Filter(nil), f...)}
	s.queries[key] = q
	return q
}

func fingerprint(f Filter) uint64 {
	buf := make([]byte, 4*len(f))
	for i, c := range f {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(c))
	}
	return xxhash.Sum64(buf)
}

type memQuery struct {
	s      *MemStore
	filter Filter

	mu     sync.Mutex
	gen    uint64
	valid  bool
	cached []value.EntityID
}

func (q *memQuery) Entities() []value.EntityID {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.valid || q.gen != q.s.gen {
		q.cached = q.s.match(q.filter)
		q.gen = q.s.gen
		q.valid = true
	}
	return append([]value.EntityID(nil), q.cached...)
}

// match must be called with s.mu held.
func (s *MemStore) match(f Filter) []value.EntityID {
	var out []value.EntityID
	if len(f) == 0 {
		s.live.Ascend(func(e value.EntityID) bool {
			out = append(out, e)
			return true
		})
		return out
	}

	bms := make([]*roaring.Bitmap, 0, len(f))
	for _, c := range f {
		if int(c) >= len(s.members) {
			return nil
		}
		bms = append(bms, s.members[c])
	}
	var set *roaring.Bitmap
	if len(bms) == 1 {
		set = bms[0]
	} else {
		set = roaring.FastAnd(bms...)
	}
	for it := set.Iterator(); it.HasNext(); {
		out = append(out, value.EntityID(it.Next()))
	}
	return out
}
