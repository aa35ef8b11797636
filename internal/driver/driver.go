// Package driver wires the binary decoder, the schedule parser, and the
// data path + control unit together into the simulator's fetch-execute
// loop, per spec.md §4.7. Grounded on the teacher's cmd/vm/main.go and
// cmd/interp/main.go loops (`for { ci, err := machine.Fetch(); ...;
// machine.Execute(ci) }`), adapted from their single-step Fetch/Execute
// pair to the multi-step Tick model and wired to zerolog instead of
// log.Printf for the per-tick trace.
package driver

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/timur1516/stacklang/internal/binfmt"
	"github.com/timur1516/stacklang/internal/isa"
	"github.com/timur1516/stacklang/internal/machine"
	"github.com/timur1516/stacklang/internal/schedule"
)

// Run loads the instruction and data binaries and the input schedule,
// builds a fresh data path and control unit, and runs the fetch loop until
// halt, a tick limit, or a fatal invariant breach. It returns the final
// output buffer. Recoverable simulation errors (spec.md §7: empty input
// buffer, writes to INPUT_ADDRESS, reads from OUTPUT_ADDRESS) are logged
// and terminate the loop without being returned; invariant breaches
// (out-of-range address/PC) are bugs and are returned as errors.
func Run(insnBin, dataBin, scheduleFile io.Reader, tickLimit int, trace zerolog.Logger) ([]int32, error) {
	insnRaw, err := io.ReadAll(insnBin)
	if err != nil {
		return nil, err
	}
	dataRaw, err := io.ReadAll(dataBin)
	if err != nil {
		return nil, err
	}

	instructions, err := binfmt.DecodeInstructions(insnRaw)
	if err != nil {
		return nil, err
	}
	data, err := binfmt.DecodeData(dataRaw)
	if err != nil {
		return nil, err
	}

	sched, err := schedule.Parse(scheduleFile)
	if err != nil {
		return nil, err
	}

	dp := machine.NewDataPath(isa.DataMemorySize)
	dp.LoadData(dataSliceFromMap(data))
	cu := machine.NewControlUnit(instructions, isa.InstructionMemorySize, isa.InterruptsHandlerAddress, dp)

	for tick := 0; tick < tickLimit; tick++ {
		err := cu.Tick(sched)
		if err == nil {
			trace.Debug().Int("tick", tick).Uint32("pc", cu.PC()).Msg("tick")
			continue
		}
		if errors.Is(err, machine.ErrHalted) {
			trace.Info().Int("tick", tick).Ints32("output", dp.OutputBuffer()).Msg("halted")
			return dp.OutputBuffer(), nil
		}
		if isRecoverable(err) {
			trace.Error().Int("tick", tick).Err(err).Ints32("output", dp.OutputBuffer()).Msg("simulation error, terminating")
			return dp.OutputBuffer(), nil
		}
		return dp.OutputBuffer(), err
	}

	trace.Warn().Int("tick_limit", tickLimit).Ints32("output", dp.OutputBuffer()).Msg("tick limit exceeded, terminating simulation")
	return dp.OutputBuffer(), nil
}

func isRecoverable(err error) bool {
	return errors.Is(err, machine.ErrWritingToInput) ||
		errors.Is(err, machine.ErrReadingFromOutput) ||
		errors.Is(err, machine.ErrEmptyInputBuffer)
}

// dataSliceFromMap converts the sparse decoded data map into the
// contiguous, DataAreaStart-relative slice DataPath.LoadData expects.
func dataSliceFromMap(data map[uint32]int32) []int32 {
	if len(data) == 0 {
		return nil
	}
	maxAddr := uint32(0)
	for addr := range data {
		if addr > maxAddr {
			maxAddr = addr
		}
	}
	out := make([]int32, maxAddr-isa.DataAreaStart+1)
	for addr, v := range data {
		out[addr-isa.DataAreaStart] = v
	}
	return out
}
