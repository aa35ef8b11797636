// Package machine implements the simulator: a passive data path driven by
// signal methods, and a control unit that drives it one tick at a time.
// Grounded on the teacher's pkg/vm.Memory/Execute (register file, flags,
// opcode dispatch) and on original_source/src/machine/data_path.py's
// signal_* naming convention, generalized to the full ALU op set and to
// every op updating the zero/negative/overflow flags per spec.md §9's
// Open Questions.
package machine

import (
	"errors"
	"fmt"

	"github.com/timur1516/stacklang/internal/isa"
)

// ErrWritingToInput is fatal: a store targeted the memory-mapped input
// address.
var ErrWritingToInput = errors.New("machine: write to input address")

// ErrReadingFromOutput is fatal: a load targeted the memory-mapped output
// address.
var ErrReadingFromOutput = errors.New("machine: read from output address")

// ErrEmptyInputBuffer is fatal: a load from the input address found no
// pending value.
var ErrEmptyInputBuffer = errors.New("machine: input buffer is empty")

// ErrAddressOutOfRange is fatal: a data address fell outside data memory.
var ErrAddressOutOfRange = errors.New("machine: data address out of range")

// DataPath holds all architectural state the control unit mutates through
// signal methods: data memory, the latched address register, the
// memory-mapped I/O buffers, the register file and its shadow, and the
// ALU's condition flags. There is no separate carry flag: `adc` computes
// the carry-out of an addition directly as its result value (see
// operations.go's multi-word add/negate producers), rather than latching
// a flag for a later carry-in.
type DataPath struct {
	memory      []int32
	dataAddress uint32

	inputBuffer  []int32
	outputBuffer []int32

	registers [isa.NumRegisters]int32
	shadow    [isa.NumRegisters]int32

	Zero, Negative, Overflow bool
}

// NewDataPath allocates a data path with dataMemorySize cells. sp is
// initialized to dataMemorySize per spec.md §4.5; all other registers
// start at zero.
func NewDataPath(dataMemorySize int) *DataPath {
	dp := &DataPath{memory: make([]int32, dataMemorySize)}
	dp.registers[isa.SP] = int32(dataMemorySize)
	return dp
}

// LoadData seeds data memory starting at DataAreaStart with the code
// generator's output, per spec.md §4.4's output contract.
func (dp *DataPath) LoadData(cells []int32) {
	for i, v := range cells {
		addr := isa.DataAreaStart + i
		if addr < len(dp.memory) {
			dp.memory[addr] = v
		}
	}
}

// Register reads a register's current value.
func (dp *DataPath) Register(r isa.Register) int32 { return dp.registers[r] }

// OutputBuffer returns every value stored to OUTPUT_ADDRESS, in store
// order.
func (dp *DataPath) OutputBuffer() []int32 { return dp.outputBuffer }

// PushInput enqueues a value for the next read of INPUT_ADDRESS, used by
// the control unit's interrupt protocol to deliver scheduled values.
func (dp *DataPath) PushInput(v int32) { dp.inputBuffer = append(dp.inputBuffer, v) }

// LatchDataAddress sets the current data address for the next
// MemoryStore/MemoryLoad.
func (dp *DataPath) LatchDataAddress(addr int32) error {
	if addr < 0 || int(addr) >= len(dp.memory) {
		return fmt.Errorf("%w: %d", ErrAddressOutOfRange, addr)
	}
	dp.dataAddress = uint32(addr)
	return nil
}

// StoreRegisters snapshots every non-zero register into the shadow file,
// for interrupt entry.
func (dp *DataPath) StoreRegisters() {
	for r := isa.Register(0); int(r) < isa.NumRegisters; r++ {
		if r == isa.Zero {
			continue
		}
		dp.shadow[r] = dp.registers[r]
	}
}

// RestoreRegisters copies the shadow file back into the register file, for
// interrupt exit.
func (dp *DataPath) RestoreRegisters() {
	for r := isa.Register(0); int(r) < isa.NumRegisters; r++ {
		if r == isa.Zero {
			continue
		}
		dp.registers[r] = dp.shadow[r]
	}
}

// MemoryStore writes value at the latched data address, routing
// memory-mapped I/O per spec.md §4.5.
func (dp *DataPath) MemoryStore(value int32) error {
	switch dp.dataAddress {
	case isa.InputAddress:
		return ErrWritingToInput
	case isa.OutputAddress:
		dp.outputBuffer = append(dp.outputBuffer, value)
	default:
		dp.memory[dp.dataAddress] = value
	}
	return nil
}

// MemoryLoad reads from the latched data address, routing memory-mapped
// I/O per spec.md §4.5.
func (dp *DataPath) MemoryLoad() (int32, error) {
	switch dp.dataAddress {
	case isa.OutputAddress:
		return 0, ErrReadingFromOutput
	case isa.InputAddress:
		if len(dp.inputBuffer) == 0 {
			return 0, ErrEmptyInputBuffer
		}
		v := dp.inputBuffer[0]
		dp.inputBuffer = dp.inputBuffer[1:]
		return v, nil
	default:
		return dp.memory[dp.dataAddress], nil
	}
}

// WriteReg assigns value to rd, except that writes to the zero register
// are silently dropped.
func (dp *DataPath) WriteReg(rd isa.Register, value int32) {
	if rd == isa.Zero {
		return
	}
	dp.registers[rd] = value
}

// ALU computes op(left, right), setting zero/negative/overflow per
// spec.md §4.5 and returning the (possibly truncated) 32-bit result.
func (dp *DataPath) ALU(op isa.Opcode, left, right int32) (int32, error) {
	var wide int64
	switch op {
	case isa.ADD, isa.ADC:
		wide = int64(left) + int64(right)
	case isa.SUB:
		wide = int64(left) - int64(right)
	case isa.MUL:
		wide = int64(left) * int64(right)
	case isa.MULH:
		wide = int64(left) * int64(right)
	case isa.DIV:
		if right == 0 {
			return 0, fmt.Errorf("machine: division by zero")
		}
		wide = floorDiv(int64(left), int64(right))
	case isa.REM:
		if right == 0 {
			return 0, fmt.Errorf("machine: division by zero")
		}
		wide = floorMod(int64(left), int64(right))
	case isa.SLL:
		wide = int64(left) << uint(uint32(right)&31)
	case isa.SRL:
		wide = int64(int32(uint32(left) >> uint(uint32(right)&31)))
	case isa.AND:
		wide = int64(left & right)
	case isa.OR:
		wide = int64(left | right)
	case isa.XOR:
		wide = int64(left ^ right)
	default:
		return 0, fmt.Errorf("machine: unsupported ALU opcode %s", op)
	}

	var result int32
	if op == isa.ADC {
		sum := uint64(uint32(left)) + uint64(uint32(right))
		carry := sum > 0xFFFFFFFF
		result = boolToInt32(carry)
	} else if op == isa.MULH {
		result = int32(wide >> 32)
	} else {
		result = int32(wide)
	}

	dp.Zero = result == 0
	dp.Negative = result < 0
	dp.Overflow = wide < -(1<<31) || wide > (1<<31)-1
	return result, nil
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// floorDiv implements floor division (rounding toward negative infinity),
// matching Python's `//`.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod implements Python's `%`, which always carries the divisor's
// sign.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
