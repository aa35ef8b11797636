// Command stm simulates a translated stack-language program: it loads the
// instruction and data binaries and an input schedule, then runs the
// fetch-execute loop and prints the final output buffer. Grounded on the
// teacher's cmd/vm in shape (open file, run to halt, report) generalized
// from a single-file machine-code load to the two-binary + schedule
// contract of spec.md §6, and from `log.Printf` tracing to zerolog per
// SPEC_FULL.md §2.2.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/timur1516/stacklang/internal/driver"
)

func main() {
	log.SetFlags(0)

	var tickLimit int
	var verbose bool

	root := &cobra.Command{
		Use:   "stm <instructions.bin> <data.bin> <input-schedule>",
		Short: "simulate a translated stack-language program",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate(args[0], args[1], args[2], tickLimit, verbose)
		},
		SilenceUsage: true,
	}
	root.Flags().IntVar(&tickLimit, "tick-limit", 1_000_000, "maximum number of ticks to run before terminating")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable per-tick trace logging")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func simulate(insnPath, dataPath, schedulePath string, tickLimit int, verbose bool) error {
	insnFile, err := os.Open(insnPath)
	if err != nil {
		return err
	}
	defer insnFile.Close()

	dataFile, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer dataFile.Close()

	scheduleFile, err := os.Open(schedulePath)
	if err != nil {
		return err
	}
	defer scheduleFile.Close()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	trace := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	output, err := driver.Run(insnFile, dataFile, scheduleFile, tickLimit, trace)
	if err != nil {
		return fmt.Errorf("stm: %w", err)
	}

	for _, v := range output {
		fmt.Printf("%c", rune(v))
	}
	return nil
}
