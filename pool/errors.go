package pool

import "errors"

// ErrAllocationFailed is reserved for the underlying system allocator
// refusing a request. Go's allocator does not return a recoverable
// failure on the paths Pool and Arena exercise (it panics instead), so
// this sentinel is never actually returned; it exists only for
// interface completeness with the C original's mpalloc, which does
// return NULL on failure.
var ErrAllocationFailed = errors.New("pool: allocation failed")
