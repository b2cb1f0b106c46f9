// Command hybridbench is a demo and benchmark driver for the hybrid
// hashmap, the structured-logging descendant of
// original_source/test-hashmap.c's bare main()/benchmark()/
// print_hashmap() trio.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "hybridbench",
		Short: "Exercise and inspect the hybrid hashmap",
	}
	root.AddCommand(newBenchCmd())
	root.AddCommand(newDumpCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("hybridbench failed")
	}
}
