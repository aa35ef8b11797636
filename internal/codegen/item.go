// Package codegen lowers an AST to typed instructions, following the
// producer-table and two-pass stub-resolution design of spec.md §4.4,
// grounded on original_source/src/translator/code_generator/{code_generator,
// instruction_producers,stubs}.py and on the teacher's Instruction interface
// in pkg/asm/instruction.go (here generalized from "Instruction|error" to an
// Item that may also be a zero-size label or a not-yet-sized stub).
package codegen

import "github.com/timur1516/stacklang/internal/isa"

// Item is one element of the instruction stream produced before linking: a
// concrete instruction, a zero-size label, or an unsized branch/jump stub.
// Labels and stubs are "addresses without instruction" per spec.md §9.
type Item interface {
	// Size is the item's current estimate of how many instruction words
	// it will occupy once resolved.
	Size() int
	// SetAddr records the address pass 1 assigned to this item.
	SetAddr(addr uint32)
	// Addr returns the address last assigned by SetAddr.
	Addr() uint32
}

// InstrItem wraps an already-concrete instruction.
type InstrItem struct {
	Instr isa.Instruction
}

func (i *InstrItem) Size() int          { return 1 }
func (i *InstrItem) SetAddr(a uint32)   { i.Instr.SetAddress(a) }
func (i *InstrItem) Addr() uint32       { return i.Instr.Address() }

// Label is a zero-size placeholder that branch/jump stubs reference. It
// occupies no instructions of its own.
type Label struct {
	addr uint32
}

func NewLabel() *Label            { return &Label{} }
func (l *Label) Size() int        { return 0 }
func (l *Label) SetAddr(a uint32) { l.addr = a }
func (l *Label) Addr() uint32     { return l.addr }

// BranchStub stands in for a conditional branch whose final size (1, 3, or
// 5 instructions) depends on how far its target label ends up from it; see
// spec.md §4.4's stub replacement policies.
type BranchStub struct {
	Op       isa.Opcode
	Rs1, Rs2 isa.Register
	Target   *Label

	size int // starts at 1, grows to 3 or 5 as resolution converges
	addr uint32
}

func NewBranchStub(op isa.Opcode, rs1, rs2 isa.Register, target *Label) *BranchStub {
	return &BranchStub{Op: op, Rs1: rs1, Rs2: rs2, Target: target, size: 1}
}

func (b *BranchStub) Size() int        { return b.size }
func (b *BranchStub) SetAddr(a uint32) { b.addr = a }
func (b *BranchStub) Addr() uint32     { return b.addr }

// JumpStub stands in for an unconditional jump whose size (1 or 3
// instructions) depends on its target's distance.
type JumpStub struct {
	Target *Label

	size int
	addr uint32
}

func NewJumpStub(target *Label) *JumpStub {
	return &JumpStub{Target: target, size: 1}
}

func (j *JumpStub) Size() int        { return j.size }
func (j *JumpStub) SetAddr(a uint32) { j.addr = a }
func (j *JumpStub) Addr() uint32     { return j.addr }
