package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mattkeenan/hybridmap/hashmap"
)

func newBenchCmd() *cobra.Command {
	var n int
	var hashName string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Insert, remove every odd key, and look up every key",
		Long: "Reproduces original_source/test-hashmap.c's benchmark(): insert N " +
			"string keys \"0\".. \"N-1\", remove every odd-indexed one, then verify " +
			"Get for every key, timing the whole run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			hashFn, err := lookupHashFn(hashName)
			if err != nil {
				return err
			}
			runBench(n, hashFn)
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 1024*1024, "number of keys to insert")
	cmd.Flags().StringVar(&hashName, "hash", "", "hash function (sdbm|rs|js|pjw|elf|bkdr|djb|ap), default bkdr")
	return cmd
}

func runBench(n int, hashFn func(string) uint32) {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	start := time.Now()

	m := hashmap.New[string](hashmap.Options[string]{
		CapacityHint: uint32(n),
		HashFunc:     hashFn,
	})
	for i, k := range keys {
		_ = m.Insert(k, k, true)
		if i%2 == 1 {
			_ = m.Remove(k)
		}
	}

	var mismatches int
	for i, k := range keys {
		v := m.Get(k, "")
		if i%2 == 1 {
			if v != "" {
				mismatches++
			}
		} else if v != k {
			mismatches++
		}
	}
	m.Destroy()

	elapsed := time.Since(start)
	log.Info().
		Int("n", n).
		Dur("elapsed", elapsed).
		Float64("elapsed_ms", float64(elapsed.Microseconds())/1000).
		Int("mismatches", mismatches).
		Msg("benchmark run complete")

	if mismatches > 0 {
		fmt.Printf("!!![ERROR]!!! %d mismatches\n", mismatches)
	}
}
