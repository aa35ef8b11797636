package machine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timur1516/stacklang/internal/isa"
)

func runUntilHalt(t *testing.T, cu *ControlUnit, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		err := cu.Tick(nil)
		if err == ErrHalted {
			return
		}
		require.NoError(t, err)
	}
	t.Fatalf("did not halt within %d ticks", limit)
}

func TestAddiAndHalt(t *testing.T) {
	dp := NewDataPath(64)
	instrs := map[uint32]isa.Instruction{
		0: isa.NewI(isa.ADDI, isa.T0, isa.Zero, 41),
		1: isa.NewI(isa.ADDI, isa.T0, isa.T0, 1),
		2: isa.NewPlain(isa.HALT),
	}
	cu := NewControlUnit(instrs, 64, 48, dp)
	runUntilHalt(t, cu, 10)
	require.EqualValues(t, 42, dp.Register(isa.T0))
}

func TestPrintWritesOutputBuffer(t *testing.T) {
	dp := NewDataPath(64)
	instrs := map[uint32]isa.Instruction{
		0: isa.NewI(isa.ADDI, isa.T0, isa.Zero, 7),
		1: isa.NewI(isa.ADDI, isa.T1, isa.Zero, isa.OutputAddress),
		2: isa.NewS(isa.SW, isa.T1, isa.T0),
		3: isa.NewPlain(isa.HALT),
	}
	cu := NewControlUnit(instrs, 64, 48, dp)
	runUntilHalt(t, cu, 10)
	require.Equal(t, []int32{7}, dp.OutputBuffer())
}

func TestWritingToInputIsFatal(t *testing.T) {
	dp := NewDataPath(64)
	instrs := map[uint32]isa.Instruction{
		0: isa.NewI(isa.ADDI, isa.T0, isa.Zero, 7),
		1: isa.NewI(isa.ADDI, isa.T1, isa.Zero, isa.InputAddress),
		2: isa.NewS(isa.SW, isa.T1, isa.T0),
		3: isa.NewPlain(isa.HALT),
	}
	cu := NewControlUnit(instrs, 64, 48, dp)
	var lastErr error
	for i := 0; i < 10; i++ {
		lastErr = cu.Tick(nil)
		if lastErr != nil {
			break
		}
	}
	require.ErrorIs(t, lastErr, ErrWritingToInput)
}

func TestBranchLoop(t *testing.T) {
	dp := NewDataPath(64)
	// t0 = 3; loop: t0 = t0 - 1; bne t0, zero, loop; halt
	instrs := map[uint32]isa.Instruction{
		0: isa.NewI(isa.ADDI, isa.T0, isa.Zero, 3),
		1: isa.NewI(isa.ADDI, isa.T0, isa.T0, -1),
		2: isa.NewB(isa.BNE, isa.T0, isa.Zero, -1),
		3: isa.NewPlain(isa.HALT),
	}
	cu := NewControlUnit(instrs, 64, 48, dp)
	runUntilHalt(t, cu, 50)
	require.EqualValues(t, 0, dp.Register(isa.T0))
}

func TestFloorDivAndMod(t *testing.T) {
	dp := NewDataPath(64)
	result, err := dp.ALU(isa.DIV, -7, 2)
	require.NoError(t, err)
	require.EqualValues(t, -4, result)
	result, err = dp.ALU(isa.REM, -7, 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, result)
}

func TestInterruptEntryAndExit(t *testing.T) {
	dp := NewDataPath(64)
	instrs := map[uint32]isa.Instruction{
		0:  isa.NewPlain(isa.EINT),
		1:  isa.NewI(isa.ADDI, isa.T0, isa.T0, 0), // spin
		48: isa.NewI(isa.ADDI, isa.T1, isa.Zero, isa.InputAddress),
		49: isa.NewI(isa.LW, isa.T2, isa.T1, 0),
		50: isa.NewPlain(isa.RINT),
	}
	cu := NewControlUnit(instrs, 64, 48, dp)
	schedule := fakeSchedule{1: 9}

	require.NoError(t, cu.Tick(schedule)) // eint, pc=1
	require.NoError(t, cu.Tick(schedule)) // tick 1 delivers 9: enter the interrupt, saving pc=1
	require.Equal(t, IntEnter, cu.state)
	for i := 0; i < 20 && cu.state != Normal; i++ {
		require.NoError(t, cu.Tick(nil))
	}
	require.Equal(t, Normal, cu.state)
	require.EqualValues(t, 1, cu.PC()) // rint restored the saved pc
	require.Empty(t, dp.inputBuffer)   // the handler consumed the delivered value
}

type fakeSchedule map[int]int32

func (f fakeSchedule) ValueAt(tick int) (int32, bool) {
	v, ok := f[tick]
	return v, ok
}
