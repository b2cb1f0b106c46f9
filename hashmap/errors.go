package hashmap

import "errors"

var (
	// ErrDuplicateKey is returned by Insert(update=false) when the key
	// already exists.
	ErrDuplicateKey = errors.New("hashmap: duplicate key")
	// ErrKeyNotFound is returned by Set when the key is absent, and by
	// Remove when the key is absent from a non-empty bucket (Remove on
	// an empty bucket succeeds).
	ErrKeyNotFound = errors.New("hashmap: key not found")
	// ErrCapacityExceeded is returned by Resize when the requested
	// capacity is below the current size or above HashmapMaxSize, and
	// by Insert/resize if growth would cross HashmapMaxSize.
	ErrCapacityExceeded = errors.New("hashmap: capacity exceeded")
)
