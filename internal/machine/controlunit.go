package machine

import (
	"errors"
	"fmt"

	"github.com/timur1516/stacklang/internal/isa"
)

// ErrHalted is returned by Tick once the processor has executed halt;
// further ticks are no-ops that keep returning this error.
var ErrHalted = errors.New("machine: halted")

// State is one of the control unit's processor states (spec.md §4.6).
type State int

const (
	Normal State = iota
	IntEnter
	IntBody
	IntExit
)

// Schedule maps a tick number to the input value scheduled for it, per
// spec.md §4.7's input schedule file.
type Schedule interface {
	ValueAt(tick int) (int32, bool)
}

// ControlUnit fetches instructions from a fixed instruction memory and
// drives a DataPath one micro-step per Tick call, implementing the
// multi-step instruction state machine and the single vectored interrupt
// protocol of spec.md §4.6. Grounded on the teacher's vm.Execute opcode
// switch and original_source/src/machine/control_unit.py's
// process_next_tick step machine, extended with the INT_ENTER/INT_BODY/
// INT_EXIT states that variant lacks.
type ControlUnit struct {
	instructions []isa.Instruction
	dp           *DataPath

	pc                       uint32
	tick                     int
	step                     int
	state                    State
	interruptEnabled         bool
	interruptRequested       bool
	pcSave                   uint32
	interruptsHandlerAddress uint32

	halted bool
}

// NewControlUnit builds a control unit over instructions (indexed by
// address — gaps default to a no-op per spec.md's memory layout) and dp.
func NewControlUnit(instructions map[uint32]isa.Instruction, instructionMemorySize int, interruptsHandlerAddress uint32, dp *DataPath) *ControlUnit {
	flat := make([]isa.Instruction, instructionMemorySize)
	noop := isa.NewI(isa.ADDI, isa.Zero, isa.Zero, 0)
	for i := range flat {
		flat[i] = noop
	}
	for addr, instr := range instructions {
		if int(addr) < len(flat) {
			flat[addr] = instr
		}
	}
	return &ControlUnit{
		instructions:             flat,
		dp:                       dp,
		interruptsHandlerAddress: interruptsHandlerAddress,
	}
}

// PC returns the current program counter.
func (cu *ControlUnit) PC() uint32 { return cu.pc }

// Tick advances the simulation by exactly one micro-step, per spec.md
// §4.6. It returns ErrHalted once halt has executed.
func (cu *ControlUnit) Tick(schedule Schedule) error {
	if cu.halted {
		return ErrHalted
	}

	if schedule != nil {
		if value, ok := schedule.ValueAt(cu.tick); ok {
			if cu.interruptEnabled && cu.state == Normal {
				cu.dp.PushInput(value)
				cu.interruptRequested = true
			}
		}
	}
	if cu.interruptRequested && cu.step == 0 && cu.state == Normal {
		cu.state = IntEnter
		cu.interruptRequested = false
	}

	switch cu.state {
	case IntEnter:
		return cu.tickIntEnter()
	case IntExit:
		return cu.tickIntExit()
	default:
		return cu.tickNormal()
	}
}

func (cu *ControlUnit) tickIntEnter() error {
	switch cu.step {
	case 0:
		cu.dp.StoreRegisters()
		cu.pcSave = cu.pc
		cu.step = 1
	case 1:
		cu.pc = cu.interruptsHandlerAddress
		cu.step = 0
		cu.state = IntBody
	}
	cu.tick++
	return nil
}

func (cu *ControlUnit) tickIntExit() error {
	cu.dp.RestoreRegisters()
	cu.pc = cu.pcSave
	cu.state = Normal
	cu.tick++
	return nil
}

func (cu *ControlUnit) tickNormal() error {
	if int(cu.pc) >= len(cu.instructions) {
		return fmt.Errorf("machine: program counter out of range: %d", cu.pc)
	}
	instr := cu.instructions[cu.pc]

	switch instr.Opcode() {
	case isa.HALT:
		cu.halted = true
		cu.tick++
		return ErrHalted
	case isa.RINT:
		cu.state = IntExit
		return nil
	case isa.EINT:
		cu.interruptEnabled = true
		cu.pc++
		cu.tick++
		return nil
	case isa.DINT:
		cu.interruptEnabled = false
		cu.pc++
		cu.tick++
		return nil
	case isa.LUI:
		u := instr.(*isa.U)
		cu.dp.WriteReg(u.Rd, u.Imm<<12)
		cu.pc++
		cu.tick++
		return nil
	case isa.ADDI:
		i := instr.(*isa.I)
		cu.dp.WriteReg(i.Rd, cu.dp.Register(i.Rs1)+i.Imm)
		cu.pc++
		cu.tick++
		return nil
	case isa.LW:
		return cu.tickLoad(instr.(*isa.I))
	case isa.SW:
		return cu.tickStore(instr.(*isa.S))
	case isa.J:
		j := instr.(*isa.J)
		cu.pc = uint32(int64(cu.pc) + int64(j.Imm))
		cu.tick++
		return nil
	case isa.JR:
		jr := instr.(*isa.JR)
		cu.pc = uint32(cu.dp.Register(jr.Rs1) + jr.Imm)
		cu.tick++
		return nil
	case isa.BEQ, isa.BNE, isa.BGT, isa.BLT:
		return cu.tickBranch(instr.(*isa.B))
	default:
		return cu.tickALU(instr)
	}
}

func (cu *ControlUnit) tickLoad(i *isa.I) error {
	switch cu.step {
	case 0:
		if err := cu.dp.LatchDataAddress(cu.dp.Register(i.Rs1) + i.Imm); err != nil {
			return err
		}
		cu.step = 1
	case 1:
		v, err := cu.dp.MemoryLoad()
		if err != nil {
			return err
		}
		cu.dp.WriteReg(i.Rd, v)
		cu.pc++
		cu.step = 0
	}
	cu.tick++
	return nil
}

func (cu *ControlUnit) tickStore(s *isa.S) error {
	switch cu.step {
	case 0:
		if err := cu.dp.LatchDataAddress(cu.dp.Register(s.Rs1)); err != nil {
			return err
		}
		cu.step = 1
	case 1:
		if err := cu.dp.MemoryStore(cu.dp.Register(s.Rs2)); err != nil {
			return err
		}
		cu.pc++
		cu.step = 0
	}
	cu.tick++
	return nil
}

func (cu *ControlUnit) tickBranch(b *isa.B) error {
	switch cu.step {
	case 0:
		if _, err := cu.dp.ALU(isa.SUB, cu.dp.Register(b.Rs1), cu.dp.Register(b.Rs2)); err != nil {
			return err
		}
		cu.step = 1
	case 1:
		taken := false
		switch b.Opcode() {
		case isa.BEQ:
			taken = cu.dp.Zero
		case isa.BNE:
			taken = !cu.dp.Zero
		case isa.BGT:
			taken = !cu.dp.Zero && cu.dp.Negative == cu.dp.Overflow
		case isa.BLT:
			taken = cu.dp.Negative != cu.dp.Overflow
		}
		if taken {
			cu.pc = uint32(int64(cu.pc) + int64(b.Imm))
		} else {
			cu.pc++
		}
		cu.step = 0
	}
	cu.tick++
	return nil
}

func (cu *ControlUnit) tickALU(instr isa.Instruction) error {
	r, ok := instr.(*isa.R)
	if !ok {
		return fmt.Errorf("machine: opcode %s is not an R-shape ALU instruction", instr.Opcode())
	}
	result, err := cu.dp.ALU(r.Opcode(), cu.dp.Register(r.Rs1), cu.dp.Register(r.Rs2))
	if err != nil {
		return err
	}
	cu.dp.WriteReg(r.Rd, result)
	cu.pc++
	cu.tick++
	return nil
}
