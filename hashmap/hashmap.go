// Package hashmap implements the hybrid hashmap: an open-addressed
// bucket array over string keys where each bucket starts life as a
// short chain and self-promotes to a skiplist.SkipList once its
// length crosses HashmapThreshold, self-demoting back to a chain when
// it shrinks to HashmapThreshold keys or fewer. Chain storage is packed into a shared entry
// slice owned by the map (indices, not pointers); promoted buckets
// are backed by a per-map secondary pool.Arena lazily created on
// first promotion.
//
// Map is not safe for concurrent use; callers requiring concurrent
// access must serialize externally.
package hashmap

import (
	"github.com/mattkeenan/hybridmap/hashfn"
	"github.com/mattkeenan/hybridmap/pool"
	"github.com/mattkeenan/hybridmap/prng"
	"github.com/mattkeenan/hybridmap/skiplist"
)

const (
	// HashmapMinSize is the smallest capacity Map will round up to.
	HashmapMinSize = 16
	// HashmapMaxSize is the largest capacity Map will accept.
	HashmapMaxSize = 1 << 24
	// HashmapThreshold is the chain-length bound at which promotion
	// (exceeding it) and demotion (falling to or below it) occur.
	HashmapThreshold = 8
)

type bucketKind uint8

const (
	bucketEmpty bucketKind = iota
	bucketList
	bucketSkip
)

// entry is a chain element, stored by index rather than pointer in
// Map.entries so that a bucket's chain is a sequence of int32 links
// into a single shared slice.
type entry[V any] struct {
	k    string
	v    V
	hash uint32
	next int32 // -1 terminates the chain
}

// bucket is the tagged union described in SPEC_FULL.md's data model:
// Empty | List(head index) | Skip(*SkipList).
type bucket[V any] struct {
	kind bucketKind
	head int32 // valid when kind == bucketList; -1 means empty chain
	skip *skiplist.SkipList[string, V]
}

// Options configures Map construction. The zero value is valid: it
// yields a default-hashed, default-equal, null-pool, process-clock
// seeded map of HashmapMinSize capacity.
type Options[V any] struct {
	// CapacityHint is rounded up to the next power of two and clamped
	// into [HashmapMinSize, HashmapMaxSize].
	CapacityHint uint32
	// HashFunc defaults to hashfn.Default (BKDR) when nil.
	HashFunc hashfn.Func
	// EqualFunc defaults to == when nil.
	EqualFunc func(string, string) bool
	// Pool is the caller-supplied primary pool, matching
	// original_source/hashmap.c's map->__pool. The map holds a
	// non-owning reference and never allocates bucket/entry storage
	// from it: unlike the C original, where a byte arena can back any
	// struct, Map's buckets/entries hold a generic V that may itself
	// contain Go pointers, and this module's pool.Pool is restricted to
	// pointer-free payloads (see pool.Arena's doc comment, and
	// DESIGN.md). Pool is carried for API parity and for callers who
	// want one pool shared across several maps' own byte-oriented
	// scratch use; a nil Pool is the common case.
	Pool *pool.Pool
	// RNG supplies level assignment for any bucket this map promotes.
	// Defaults to a process-clock-seeded prng.MathRand when nil.
	RNG prng.Source
}

// Map is the hybrid hashmap.
type Map[V any] struct {
	size     uint32
	capacity uint32
	buckets  []bucket[V]
	entries  []entry[V]
	current  uint32
	freelist int32

	primaryPool   *pool.Pool
	secondaryPool *skiplist.Arena[string, V]

	hashFn  hashfn.Func
	equalFn func(string, string) bool
	rng     prng.Source
}

func capacityFor(hint uint32) uint32 {
	if hint < HashmapMinSize {
		return HashmapMinSize
	}
	c := hint - 1
	c |= c >> 1
	c |= c >> 2
	c |= c >> 4
	c |= c >> 8
	c |= c >> 16
	return c + 1
}

func loadMax(capacity uint32) uint32 {
	return (capacity >> 1) + (capacity >> 2)
}

// New constructs a Map per opts.
func New[V any](opts Options[V]) *Map[V] {
	capacity := uint32(HashmapMaxSize)
	if opts.CapacityHint < HashmapMaxSize {
		capacity = capacityFor(opts.CapacityHint)
	}
	hashFn := opts.HashFunc
	if hashFn == nil {
		hashFn = hashfn.Default
	}
	equalFn := opts.EqualFunc
	if equalFn == nil {
		equalFn = func(a, b string) bool { return a == b }
	}
	rng := opts.RNG
	if rng == nil {
		rng = prng.NewDefaultMathRand()
	}
	return &Map[V]{
		capacity:    capacity,
		buckets:     make([]bucket[V], capacity),
		entries:     make([]entry[V], capacity),
		freelist:    -1,
		primaryPool: opts.Pool,
		hashFn:      hashFn,
		equalFn:     equalFn,
		rng:         rng,
	}
}

// Size returns the number of live keys.
func (m *Map[V]) Size() uint32 { return m.size }

// Capacity returns the current bucket array length (a power of two).
func (m *Map[V]) Capacity() uint32 { return m.capacity }

func (m *Map[V]) bucketIndex(hash uint32) uint32 {
	return hash & (m.capacity - 1)
}

func (m *Map[V]) ensureSecondaryPool() {
	if m.secondaryPool == nil {
		m.secondaryPool = skiplist.NewArena[string, V](8)
	}
}

// newSkipList constructs a promoted bucket's skip list, drawing its
// nodes from the map's one shared secondary pool so that Clear,
// Release, and Destroy reclaim every promoted bucket's nodes in bulk
// rather than one arena per bucket.
func (m *Map[V]) newSkipList() *skiplist.SkipList[string, V] {
	m.ensureSecondaryPool()
	compare := func(a, b string) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return skiplist.New(compare, m.secondaryPool, m.rng)
}

// Exists reports whether key is present.
func (m *Map[V]) Exists(key string) bool {
	b := &m.buckets[m.bucketIndex(m.hashFn(key))]
	switch b.kind {
	case bucketList:
		return m.listExists(b, key)
	case bucketSkip:
		return b.skip.Exists(key)
	default:
		return false
	}
}

func (m *Map[V]) listExists(b *bucket[V], key string) bool {
	for i := b.head; i >= 0; i = m.entries[i].next {
		if m.equalFn(m.entries[i].k, key) {
			return true
		}
	}
	return false
}

// Get returns the value for key, or def if key is absent.
func (m *Map[V]) Get(key string, def V) V {
	b := &m.buckets[m.bucketIndex(m.hashFn(key))]
	switch b.kind {
	case bucketList:
		for i := b.head; i >= 0; i = m.entries[i].next {
			if m.equalFn(m.entries[i].k, key) {
				return m.entries[i].v
			}
		}
		return def
	case bucketSkip:
		return b.skip.Get(key, def)
	default:
		return def
	}
}

// Set updates the value for an existing key. Returns ErrKeyNotFound
// if key is absent.
func (m *Map[V]) Set(key string, value V) error {
	b := &m.buckets[m.bucketIndex(m.hashFn(key))]
	switch b.kind {
	case bucketList:
		for i := b.head; i >= 0; i = m.entries[i].next {
			if m.equalFn(m.entries[i].k, key) {
				m.entries[i].v = value
				return nil
			}
		}
		return ErrKeyNotFound
	case bucketSkip:
		return translateSkipErr(b.skip.Set(key, value))
	default:
		return ErrKeyNotFound
	}
}

func translateSkipErr(err error) error {
	switch err {
	case nil:
		return nil
	case skiplist.ErrKeyNotFound:
		return ErrKeyNotFound
	case skiplist.ErrDuplicateKey:
		return ErrDuplicateKey
	default:
		return err
	}
}

// Insert adds key/value, resizing the table first if the load factor
// would otherwise be exceeded. With update true, an existing key's
// value is overwritten and nil is returned; with update false,
// ErrDuplicateKey is returned for an existing key.
func (m *Map[V]) Insert(key string, value V, update bool) error {
	if m.size > loadMax(m.capacity) {
		if err := m.resize(m.capacity << 1); err != nil {
			return err
		}
	}
	return m.insert(key, value, m.hashFn(key), update)
}

func (m *Map[V]) insert(key string, value V, hash uint32, update bool) error {
	b := &m.buckets[m.bucketIndex(hash)]
	switch b.kind {
	case bucketEmpty:
		b.kind = bucketList
		b.head = -1
		return m.listInsert(b, key, value, hash)
	case bucketList:
		return m.tryListInsert(b, key, value, hash, update)
	case bucketSkip:
		before := b.skip.Size()
		err := translateSkipErr(b.skip.Insert(key, value, update))
		m.size += uint32(b.skip.Size() - before)
		return err
	default:
		return ErrCapacityExceeded
	}
}

func (m *Map[V]) listInsert(b *bucket[V], key string, value V, hash uint32) error {
	var idx int32
	if m.freelist >= 0 {
		idx = m.freelist
		m.freelist = m.entries[idx].next
	} else {
		idx = int32(m.current)
		m.current++
	}
	m.entries[idx] = entry[V]{k: key, v: value, hash: hash, next: b.head}
	b.head = idx
	m.size++
	return nil
}

func (m *Map[V]) tryListInsert(b *bucket[V], key string, value V, hash uint32, update bool) error {
	var count uint32
	for i := b.head; i >= 0; i = m.entries[i].next {
		if m.equalFn(m.entries[i].k, key) {
			if !update {
				return ErrDuplicateKey
			}
			m.entries[i].v = value
			return nil
		}
		count++
	}
	if count < HashmapThreshold {
		return m.listInsert(b, key, value, hash)
	}
	m.promote(b)
	err := translateSkipErr(b.skip.Insert(key, value, update))
	if err == nil {
		m.size++
	}
	return err
}

// promote converts b from LIST to SKIPLIST, moving every chain entry
// into a fresh skip list and returning every vacated chain index to
// the freelist in sequence (spec.md §9's third open question: the
// original C implementation splices the whole chain tail onto the
// freelist in one assignment; this port walks it explicitly so the
// invariant is trivially checkable).
func (m *Map[V]) promote(b *bucket[V]) {
	sl := m.newSkipList()
	var indices []int32
	for i := b.head; i >= 0; i = m.entries[i].next {
		_ = sl.Insert(m.entries[i].k, m.entries[i].v, false)
		indices = append(indices, i)
	}
	for _, idx := range indices {
		m.entries[idx].next = m.freelist
		m.freelist = idx
	}
	b.kind = bucketSkip
	b.head = -1
	b.skip = sl
}

// Remove deletes key. Removing from an EMPTY bucket is defined as
// success (the key was and remains absent); callers distinguishing
// "removed" from "was not there" must Exists first.
func (m *Map[V]) Remove(key string) error {
	b := &m.buckets[m.bucketIndex(m.hashFn(key))]
	switch b.kind {
	case bucketList:
		return m.listRemove(b, key)
	case bucketSkip:
		return m.trySkipRemove(b, key)
	default:
		return nil
	}
}

func (m *Map[V]) listRemove(b *bucket[V], key string) error {
	prev := int32(-1)
	for curr := b.head; curr >= 0; curr = m.entries[curr].next {
		if m.equalFn(m.entries[curr].k, key) {
			if prev == -1 {
				b.head = m.entries[curr].next
			} else {
				m.entries[prev].next = m.entries[curr].next
			}
			m.entries[curr].next = m.freelist
			m.freelist = curr
			m.size--
			return nil
		}
		prev = curr
	}
	return ErrKeyNotFound
}

func (m *Map[V]) trySkipRemove(b *bucket[V], key string) error {
	if err := translateSkipErr(b.skip.Remove(key)); err != nil {
		return err
	}
	m.size--
	if uint32(b.skip.Size()) <= HashmapThreshold {
		m.demote(b)
	}
	return nil
}

// demote converts b from SKIPLIST back to LIST. The map's size is
// decremented by the skip list's size before the demotion's
// list-reinsertions run, then list-insert increments it back — the
// net effect is size-neutral, matching spec.md §4.3's chosen
// resolution (a) for the demotion size-accounting hazard.
func (m *Map[V]) demote(b *bucket[V]) {
	sl := b.skip
	m.size -= uint32(sl.Size())
	b.kind = bucketList
	b.head = -1
	b.skip = nil
	sl.ForEach(func(k string, v V) {
		_ = m.listInsert(b, k, v, m.hashFn(k))
	})
}

// Clear empties the map, reusing its backing arrays, and releases the
// secondary pool (every promoted bucket becomes unreachable).
func (m *Map[V]) Clear() {
	m.size = 0
	m.current = 0
	m.freelist = -1
	if m.secondaryPool != nil {
		m.secondaryPool.Release()
		m.secondaryPool = nil
	}
	for i := range m.buckets {
		m.buckets[i] = bucket[V]{}
	}
}

// Release drops this map's backing arrays and owned secondary pool.
// The primary pool, being non-owning, is left untouched.
func (m *Map[V]) Release() {
	m.buckets = nil
	m.entries = nil
	if m.secondaryPool != nil {
		m.secondaryPool.Release()
		m.secondaryPool = nil
	}
}

// Destroy releases the map and zeroes every field, matching
// original_source/hashmap.c's hashmap_destroy.
func (m *Map[V]) Destroy() {
	m.Release()
	m.size, m.capacity, m.current = 0, 0, 0
	m.freelist = -1
	m.hashFn, m.equalFn, m.rng, m.primaryPool = nil, nil, nil, nil
}

// Resize rebuilds the table at the given capacity (rounded up to a
// power of two, clamped into [HashmapMinSize, HashmapMaxSize]).
// Returns ErrCapacityExceeded if capacity is below the current size
// or above HashmapMaxSize. On success every live pair is preserved;
// on failure the map is left untouched (strong exception guarantee).
func (m *Map[V]) Resize(capacity uint32) error {
	if capacity < m.size || capacity > HashmapMaxSize {
		return ErrCapacityExceeded
	}
	return m.resize(capacityFor(capacity))
}

func (m *Map[V]) resize(capacity uint32) error {
	if capacity > HashmapMaxSize {
		return ErrCapacityExceeded
	}
	next := &Map[V]{
		capacity:    capacity,
		buckets:     make([]bucket[V], capacity),
		entries:     make([]entry[V], capacity),
		freelist:    -1,
		primaryPool: m.primaryPool,
		hashFn:      m.hashFn,
		equalFn:     m.equalFn,
		rng:         m.rng,
	}
	var insertErr error
	m.forEachRaw(func(k string, v V, hash uint32) bool {
		if err := next.insert(k, v, hash, false); err != nil {
			insertErr = err
			return false
		}
		return true
	})
	if insertErr != nil {
		next.Release()
		return insertErr
	}
	m.Release()
	*m = *next
	return nil
}

// forEachRaw walks every live pair along with its hash — used by
// resize. For LIST buckets it passes the entry's cached hash without
// recomputing it, the same way original_source/hashmap.c's
// __hm_resize reuses map->__entries[j].hash; skip-list nodes carry no
// cached hash, so for SKIPLIST buckets the hash is recomputed with
// hashFn.
func (m *Map[V]) forEachRaw(f func(k string, v V, hash uint32) bool) {
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.kind {
		case bucketList:
			for j := b.head; j >= 0; j = m.entries[j].next {
				if !f(m.entries[j].k, m.entries[j].v, m.entries[j].hash) {
					return
				}
			}
		case bucketSkip:
			cont := true
			b.skip.ForEach(func(k string, v V) {
				if !cont {
					return
				}
				if !f(k, v, m.hashFn(k)) {
					cont = false
				}
			})
			if !cont {
				return
			}
		}
	}
}

// ForEach walks every live pair. Bucket visitation is in index order;
// within a LIST bucket, newest-first (inserts prepend); within a
// SKIPLIST bucket, ascending key order. No global order is promised.
func (m *Map[V]) ForEach(f func(string, V)) {
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.kind {
		case bucketList:
			for j := b.head; j >= 0; j = m.entries[j].next {
				f(m.entries[j].k, m.entries[j].v)
			}
		case bucketSkip:
			b.skip.ForEach(f)
		}
	}
}

// Clone builds a fresh Map with the same configuration and every
// live pair re-inserted. Adopted from the teacher repo's own Copy()
// (zerocopyskiplist.go); original_source/hashmap.c has no analogous
// operation and spec.md does not exclude one.
func (m *Map[V]) Clone() *Map[V] {
	clone := New[V](Options[V]{
		CapacityHint: m.capacity,
		HashFunc:     m.hashFn,
		EqualFunc:    m.equalFn,
		Pool:         m.primaryPool,
		RNG:          m.rng,
	})
	m.ForEach(func(k string, v V) {
		_ = clone.Insert(k, v, true)
	})
	return clone
}

// BucketStat is one row of Map.BucketStats' census.
type BucketStat struct {
	Index uint32
	Kind  string
	Len   int
}

// BucketStats reports, per bucket, whether it is empty, a chain, or a
// promoted skip list, and how many keys it holds. It exists for
// diagnostic tooling (see cmd/hybridbench's dump subcommand, the
// structured-log descendant of original_source/test-hashmap.c's
// print_hashmap) and is not part of the core contract.
func (m *Map[V]) BucketStats() []BucketStat {
	stats := make([]BucketStat, len(m.buckets))
	for i := range m.buckets {
		b := &m.buckets[i]
		s := BucketStat{Index: uint32(i)}
		switch b.kind {
		case bucketList:
			s.Kind = "list"
			for j := b.head; j >= 0; j = m.entries[j].next {
				s.Len++
			}
		case bucketSkip:
			s.Kind = "skiplist"
			s.Len = b.skip.Size()
		default:
			s.Kind = "empty"
		}
		stats[i] = s
	}
	return stats
}
