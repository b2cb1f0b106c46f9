package skiplist

import "errors"

var (
	// ErrDuplicateKey is returned by Insert(update=false) when the key
	// already exists.
	ErrDuplicateKey = errors.New("skiplist: duplicate key")
	// ErrKeyNotFound is returned by Set and Remove when the key is
	// absent.
	ErrKeyNotFound = errors.New("skiplist: key not found")
)
