// Package skiplist provides an ordered, pool-backed associative
// structure with probabilistic level assignment. It is used both
// standalone and as the promoted form of a hybrid hashmap bucket (see
// package hashmap).
package skiplist

import "github.com/mattkeenan/hybridmap/pool"

// MaxLevel bounds how tall a node's forward tower can grow.
const MaxLevel = 32

// node is a skip list element. The header node (SkipList.head) has
// level == MaxLevel and a zero key/value; its forward[i] begins the
// i-th level list.
type node[K any, V any] struct {
	k       K
	v       V
	level   int
	forward []*node[K, V]
}

// SkipList is an ordered map keyed by a user-supplied comparator,
// with nodes allocated from a pool.Arena so that clearing or
// releasing the list reclaims every node in bulk. Duplicate keys are
// disallowed: Insert without update fails, and Set only updates an
// existing key.
//
// SkipList is not safe for concurrent use; callers requiring
// concurrent access must serialize externally.
type SkipList[K any, V any] struct {
	size    int
	level   int
	head    *node[K, V]
	arena   *Arena[K, V]
	compare func(K, K) int
	rng     Source
}

// Source is the contract SkipList draws level assignments through.
// It has the same method set as prng.Source, so any prng.Source
// satisfies it; skiplist only needs the method, not the package, and
// does not import prng.
type Source interface {
	Uint32() uint32
}

// Arena wraps the pool.Arena flavor this package's nodes require.
// node is unexported, so callers outside this package (such as
// package hashmap, which needs one secondary pool shared across every
// promoted bucket) hold an *Arena rather than naming
// pool.Arena[node[K,V]] directly; Release and Clear forward to the
// underlying pool.Arena so the owner can still manage its lifecycle.
type Arena[K any, V any] struct {
	inner *pool.Arena[node[K, V]]
}

// NewArena constructs an empty node arena. maxTries is forwarded to
// the backing pool.Arena's small-page search window.
func NewArena[K any, V any](maxTries int) *Arena[K, V] {
	return &Arena[K, V]{inner: pool.NewArena[node[K, V]](maxTries)}
}

// Release drops every page this arena owns.
func (a *Arena[K, V]) Release() {
	if a == nil {
		return
	}
	a.inner.Release()
}

// Clear resets this arena to empty without releasing small pages.
func (a *Arena[K, V]) Clear() {
	if a == nil {
		return
	}
	a.inner.Clear()
}

func (a *Arena[K, V]) alloc() *node[K, V] {
	if a == nil {
		return new(node[K, V])
	}
	return a.inner.Alloc()
}

func (a *Arena[K, V]) free(n *node[K, V]) {
	if a == nil {
		return
	}
	a.inner.Free(n)
}

// New constructs an empty skip list. arena may be nil, in which case
// nodes are allocated directly (null-pool mode, see package pool).
// rng supplies the level-assignment coin flips.
//
// The header node is deliberately NOT drawn from arena: arena's
// backing pages are bulk-reclaimed by Clear, and a header allocated
// from page 0 would be zeroed out from under the list on the very
// next Clear. The header is a one-per-list fixed cost, not part of
// the reclaimable node population, so it gets its own allocation.
func New[K any, V any](compare func(K, K) int, arena *Arena[K, V], rng Source) *SkipList[K, V] {
	return &SkipList[K, V]{
		level:   1,
		head:    newHead[K, V](),
		arena:   arena,
		compare: compare,
		rng:     rng,
	}
}

func newHead[K any, V any]() *node[K, V] {
	return &node[K, V]{level: MaxLevel, forward: make([]*node[K, V], MaxLevel)}
}

// Size returns the number of live keys.
func (sl *SkipList[K, V]) Size() int { return sl.size }

// Level returns the current highest populated level (>= 1).
func (sl *SkipList[K, V]) Level() int { return sl.level }

// descend walks from the header down to level 0, recording in
// updates[lv] the last node at each level whose key compares strictly
// less than k. It returns the first node whose key compares >= k (nil
// if none), mirroring original_source/skiplist.c's inlined search.
func (sl *SkipList[K, V]) descend(k K, updates []*node[K, V]) *node[K, V] {
	prev := sl.head
	var curr *node[K, V]
	for lv := sl.level - 1; lv >= 0; lv-- {
		curr = prev.forward[lv]
		for curr != nil && sl.compare(curr.k, k) < 0 {
			prev = curr
			curr = curr.forward[lv]
		}
		updates[lv] = prev
	}
	return prev.forward[0]
}

// Exists reports whether k is present.
func (sl *SkipList[K, V]) Exists(k K) bool {
	prev := sl.head
	for lv := sl.level - 1; lv >= 0; lv-- {
		curr := prev.forward[lv]
		for curr != nil {
			cmp := sl.compare(curr.k, k)
			if cmp < 0 {
				prev = curr
				curr = curr.forward[lv]
				continue
			}
			if cmp == 0 {
				return true
			}
			break
		}
	}
	return false
}

// Get returns the value stored for k, or def if k is absent.
func (sl *SkipList[K, V]) Get(k K, def V) V {
	prev := sl.head
	for lv := sl.level - 1; lv >= 0; lv-- {
		curr := prev.forward[lv]
		for curr != nil {
			cmp := sl.compare(curr.k, k)
			if cmp < 0 {
				prev = curr
				curr = curr.forward[lv]
				continue
			}
			if cmp == 0 {
				return curr.v
			}
			break
		}
	}
	return def
}

// randomLevel draws a geometric(p=0.5) level in [1, MaxLevel], the
// same distribution as original_source/skiplist.c's
// __skiplist_rand_level: repeatedly sample while the draw is below
// RandMax/2 and the level hasn't hit MaxLevel.
func (sl *SkipList[K, V]) randomLevel() int {
	level := 1
	for level < MaxLevel && sl.rng.Uint32() < randMaxHalf {
		level++
	}
	return level
}

const randMaxHalf = 0x7FFFFFFF / 2

// Set updates the value for an existing key k. Returns
// ErrKeyNotFound if k is absent; size is never affected by Set.
func (sl *SkipList[K, V]) Set(k K, v V) error {
	prev := sl.head
	for lv := sl.level - 1; lv >= 0; lv-- {
		curr := prev.forward[lv]
		for curr != nil {
			cmp := sl.compare(curr.k, k)
			if cmp < 0 {
				prev = curr
				curr = curr.forward[lv]
				continue
			}
			if cmp == 0 {
				curr.v = v
				return nil
			}
			break
		}
	}
	return ErrKeyNotFound
}

// Insert adds k/v. If k already exists: with update true, the value
// is overwritten and size is left unchanged (the reference C
// implementation increments size on this path — a documented bug
// this port does not reproduce, see DESIGN.md); with update false,
// ErrDuplicateKey is returned. Otherwise a new node is spliced in at a
// freshly drawn level and size is incremented.
func (sl *SkipList[K, V]) Insert(k K, v V, update bool) error {
	updates := make([]*node[K, V], MaxLevel)
	found := sl.descend(k, updates)
	if found != nil && sl.compare(found.k, k) == 0 {
		if !update {
			return ErrDuplicateKey
		}
		found.v = v
		return nil
	}

	level := sl.randomLevel()
	for sl.level < level {
		updates[sl.level] = sl.head
		sl.level++
	}

	n := sl.arena.alloc()
	n.k, n.v, n.level = k, v, level
	n.forward = make([]*node[K, V], level)
	for lv := 0; lv < level; lv++ {
		n.forward[lv] = updates[lv].forward[lv]
		updates[lv].forward[lv] = n
	}
	sl.size++
	return nil
}

// Remove deletes k. Returns ErrKeyNotFound if k is absent.
func (sl *SkipList[K, V]) Remove(k K) error {
	updates := make([]*node[K, V], MaxLevel)
	found := sl.descend(k, updates)
	if found == nil || sl.compare(found.k, k) != 0 {
		return ErrKeyNotFound
	}
	for lv := 0; lv < found.level; lv++ {
		updates[lv].forward[lv] = found.forward[lv]
	}
	for sl.level > 1 && sl.head.forward[sl.level-1] == nil {
		sl.level--
	}
	sl.arena.free(found)
	sl.size--
	return nil
}

// Clear removes every key, releasing all nodes in bulk via the
// backing arena, and resets level to 1.
func (sl *SkipList[K, V]) Clear() {
	sl.arena.Clear()
	sl.size = 0
	sl.level = 1
	for i := range sl.head.forward {
		sl.head.forward[i] = nil
	}
}

// ForEach walks every key in strictly ascending comparator order —
// the only ordered enumeration this type offers.
func (sl *SkipList[K, V]) ForEach(f func(K, V)) {
	for n := sl.head.forward[0]; n != nil; n = n.forward[0] {
		f(n.k, n.v)
	}
}

// Levels returns the number of nodes observable at each populated
// level, level 0 first. It exists for diagnostic tooling (a per-level
// census in the spirit of original_source/test-hashmap.c's
// print_skiplist) and is not part of the core contract. hashmap.Map
// does not expose its promoted skip lists, so cmd/hybridbench's dump
// subcommand does not call it.
func (sl *SkipList[K, V]) Levels() []int {
	counts := make([]int, sl.level)
	for lv := 0; lv < sl.level; lv++ {
		n := 0
		for node := sl.head.forward[lv]; node != nil; node = node.forward[lv] {
			n++
		}
		counts[lv] = n
	}
	return counts
}

// Release returns this skip list's backing arena pages to the system
// allocator. The skip list must not be used afterward.
func (sl *SkipList[K, V]) Release() {
	sl.arena.Release()
	sl.head = nil
}

// Destroy releases the skip list and zeroes every field, matching
// spec.md §4.2's distinct free/destroy pair (hashmap.Map has the same
// Release/Destroy split, see hashmap.Map.Destroy).
func (sl *SkipList[K, V]) Destroy() {
	sl.Release()
	sl.size, sl.level = 0, 0
	sl.arena, sl.compare, sl.rng = nil, nil, nil
}
