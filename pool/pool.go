// Package pool provides a bump-allocating memory arena with bulk
// reclamation, used to back the skip list and hybrid hashmap storage
// in the sibling packages of this module.
//
// Pool implements the byte-oriented arena: a small-block freelist of
// fixed-size pages served by bump allocation, and a large-block list
// of individually freeable oversize allocations. A nil *Pool routes
// every call through the system allocator, making pools optional for
// callers who don't need bulk reclamation or locality.
package pool

import "unsafe"

// PageSize is the payload size of each small block page.
const PageSize = 4096

// alignment is the byte boundary every allocation is rounded up to.
const alignment = 16

// DefaultMaxTries bounds how many small pages Pool.Allocate will
// inspect before giving up and allocating a fresh page.
const DefaultMaxTries = 8

type smallBlock struct {
	next *smallBlock
	used int
	data [PageSize]byte
}

type largeBlock struct {
	next *largeBlock
	data []byte
}

// Pool is a bump-allocating arena. The zero value is not usable;
// construct one with NewPool. A nil *Pool is valid and operates in
// null-pool mode, falling through to the system allocator.
type Pool struct {
	maxTries int
	small    *smallBlock
	large    *largeBlock
}

// NewPool creates an empty pool. maxTries bounds the small-block
// search window used by Allocate.
func NewPool(maxTries int) *Pool {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &Pool{maxTries: maxTries}
}

func alignUp(size int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// Allocate returns size bytes valid until the next Clear or Release.
// Requests that fit within a page (after 16-byte alignment) are
// served from a small block; larger requests get a dedicated large
// block. A nil receiver delegates to make([]byte, size).
//
// The returned slice is never individually reclaimed unless it came
// from a large allocation — see Free.
func (p *Pool) Allocate(size int) []byte {
	if p == nil {
		return make([]byte, size)
	}
	aligned := alignUp(size)
	if aligned <= PageSize {
		for block, tries := p.small, 0; block != nil && tries < p.maxTries; block, tries = block.next, tries+1 {
			if block.used+aligned <= PageSize {
				ptr := block.data[block.used : block.used+aligned : block.used+aligned]
				block.used += aligned
				return ptr[:size]
			}
		}
		block := &smallBlock{used: aligned, next: p.small}
		p.small = block
		return block.data[:aligned][:size]
	}
	block := &largeBlock{next: p.large, data: make([]byte, size)}
	p.large = block
	return block.data
}

// Free releases ptr back to the system allocator if it was returned
// by a large allocation; it is a no-op otherwise (in particular, it
// never reclaims any part of a small block — small allocations are
// only ever released in bulk, via Clear or Release). Returns true iff
// a large block was found and released.
func (p *Pool) Free(ptr []byte) bool {
	if p == nil || len(ptr) == 0 {
		return false
	}
	target := unsafe.Pointer(&ptr[0])
	var prev *largeBlock
	for curr := p.large; curr != nil; prev, curr = curr, curr.next {
		if len(curr.data) == 0 {
			continue
		}
		if unsafe.Pointer(&curr.data[0]) == target {
			if prev == nil {
				p.large = curr.next
			} else {
				prev.next = curr.next
			}
			return true
		}
	}
	return false
}

// Clear releases every large block and resets every small block to
// empty, making its capacity available for reuse without returning
// the backing pages to the system allocator.
func (p *Pool) Clear() {
	if p == nil {
		return
	}
	p.large = nil
	for block := p.small; block != nil; block = block.next {
		block.used = 0
	}
}

// Release drops every block this pool owns, small and large alike.
// After Release the pool behaves as if freshly constructed.
func (p *Pool) Release() {
	if p == nil {
		return
	}
	p.small = nil
	p.large = nil
}
