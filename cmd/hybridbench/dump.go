package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/mattkeenan/hybridmap/hashmap"
)

// defaultDumpKeys is original_source/test-hashmap.c's test_hashmap()
// key set: 5 groups of 4, chosen so a custom hash (grouping by first
// digit) would land each group in its own bucket.
var defaultDumpKeys = []string{
	"0A", "0B", "0C", "0D", "1A", "1B", "1C", "1D", "2A", "2B",
	"2C", "2D", "3A", "3B", "3C", "3D", "4A", "4B", "4C", "4D",
}

func newDumpCmd() *cobra.Command {
	var keysFlag string
	var hashName string
	var capacity uint32
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Insert a key set and log the resulting bucket census",
		Long: "Builds a map, inserts the given keys, and logs a per-bucket census " +
			"via BucketStats, the structured-log descendant of " +
			"print_hashmap/print_skiplist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			hashFn, err := lookupHashFn(hashName)
			if err != nil {
				return err
			}
			keys := defaultDumpKeys
			if keysFlag != "" {
				keys = strings.Split(keysFlag, ",")
			}
			return runDump(keys, hashFn, capacity, snapshotPath)
		},
	}
	cmd.Flags().StringVar(&keysFlag, "keys", "", "comma-separated keys to insert (default: the original 20-key test set)")
	cmd.Flags().StringVar(&hashName, "hash", "", "hash function (sdbm|rs|js|pjw|elf|bkdr|djb|ap), default bkdr")
	cmd.Flags().Uint32Var(&capacity, "capacity", hashmap.HashmapMinSize, "initial capacity hint")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "write the census lines to this file via a single writev(2), in addition to logging it")
	return cmd
}

func runDump(keys []string, hashFn func(string) uint32, capacity uint32, snapshotPath string) error {
	m := hashmap.New[string](hashmap.Options[string]{
		CapacityHint: capacity,
		HashFunc:     hashFn,
	})
	defer m.Destroy()

	for _, k := range keys {
		_ = m.Insert(k, k, true)
	}

	log.Info().
		Uint32("capacity", m.Capacity()).
		Uint32("size", m.Size()).
		Msg("dump: map built")

	var lines [][]byte
	for _, stat := range m.BucketStats() {
		log.Info().
			Uint32("bucket", stat.Index).
			Str("kind", stat.Kind).
			Int("len", stat.Len).
			Msg("dump: bucket")
		lines = append(lines, []byte(fmt.Sprintf("bucket=%d kind=%s len=%d\n", stat.Index, stat.Kind, stat.Len)))
	}

	if snapshotPath == "" {
		return nil
	}
	return writeSnapshot(snapshotPath, lines)
}

// writeSnapshot writes every census line to path in a single writev(2)
// call, the same bulk zero-copy-write idiom the teacher's
// ToPwritevSliceRaw exists to feed into unix.Pwritev; a plain log dump
// has no natural analogue of a skip-list's already-contiguous node
// payloads, so this snapshot path builds its own []byte slices instead
// of borrowing storage the way the teacher does.
func writeSnapshot(path string, lines [][]byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("hybridbench: open snapshot: %w", err)
	}
	defer f.Close()

	n, err := unix.Writev(int(f.Fd()), lines)
	if err != nil {
		return fmt.Errorf("hybridbench: writev snapshot: %w", err)
	}
	log.Info().Str("path", path).Int("bytes", n).Msg("dump: snapshot written")
	return nil
}
