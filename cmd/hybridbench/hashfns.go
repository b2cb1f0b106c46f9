package main

import (
	"fmt"

	"github.com/mattkeenan/hybridmap/hashfn"
)

var namedHashFns = map[string]hashfn.Func{
	"sdbm": hashfn.SDBM,
	"rs":   hashfn.RS,
	"js":   hashfn.JS,
	"pjw":  hashfn.PJW,
	"elf":  hashfn.ELF,
	"bkdr": hashfn.BKDR,
	"djb":  hashfn.DJB,
	"ap":   hashfn.AP,
}

func lookupHashFn(name string) (hashfn.Func, error) {
	if name == "" {
		return hashfn.Default, nil
	}
	fn, ok := namedHashFns[name]
	if !ok {
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
	return fn, nil
}
