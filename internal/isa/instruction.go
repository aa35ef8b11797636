package isa

import (
	"fmt"

	"github.com/timur1516/stacklang/internal/bitutil"
)

// Instruction is any of the machine's eight encodable instruction shapes.
// An Instruction is immutable once constructed, except for its Address,
// which the code generator's link pass assigns once and for all.
type Instruction interface {
	Opcode() Opcode
	Address() uint32
	SetAddress(addr uint32)
	// Encode packs the instruction into its 32-bit big-endian word.
	Encode() uint32
	String() string
}

const (
	opcodeBits = 7
	regBits    = 5
	uImmBits   = 20
	iImmBits   = 15
	bImmBits   = 15
	jImmBits   = 25
	jrImmBits  = 20
)

// base holds the fields every instruction carries.
type base struct {
	op   Opcode
	addr uint32
}

func (b *base) Opcode() Opcode { return b.op }
func (b *base) Address() uint32 { return b.addr }
func (b *base) SetAddress(a uint32) { b.addr = a }

// Plain is the no-operand shape: opcode[6:0]. Used by halt, rint, eint, dint.
type Plain struct{ base }

func NewPlain(op Opcode) *Plain { return &Plain{base{op: op}} }

func (i *Plain) Encode() uint32 {
	return uint32(i.op) & mask(opcodeBits)
}

func (i *Plain) String() string { return i.op.String() }

// U is the opcode[6:0], rd[11:7], imm[31:12] shape. Used by lui.
type U struct {
	base
	Rd  Register
	Imm int32 // 20-bit signed
}

func NewU(op Opcode, rd Register, imm int32) *U {
	return &U{base: base{op: op}, Rd: rd, Imm: imm}
}

func (i *U) Encode() uint32 {
	return uint32(i.op)&mask(opcodeBits) |
		(uint32(i.Rd)&mask(regBits))<<7 |
		bitutil.ExtractBits(uint32(i.Imm), uImmBits)<<12
}

func (i *U) String() string { return fmt.Sprintf("%s %s, %d", i.op, i.Rd, i.Imm) }

// I is the opcode[6:0], rd[11:7], rs1[16:12], imm[31:17] shape. Used by
// addi, lw.
type I struct {
	base
	Rd  Register
	Rs1 Register
	Imm int32 // 15-bit signed
}

func NewI(op Opcode, rd, rs1 Register, imm int32) *I {
	return &I{base: base{op: op}, Rd: rd, Rs1: rs1, Imm: imm}
}

func (i *I) Encode() uint32 {
	return uint32(i.op)&mask(opcodeBits) |
		(uint32(i.Rd)&mask(regBits))<<7 |
		(uint32(i.Rs1)&mask(regBits))<<12 |
		bitutil.ExtractBits(uint32(i.Imm), iImmBits)<<17
}

func (i *I) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.op, i.Rd, i.Rs1, i.Imm)
}

// R is the opcode[6:0], rd[11:7], rs1[16:12], rs2[21:17] shape. Used by the
// register-register ALU operations.
type R struct {
	base
	Rd, Rs1, Rs2 Register
}

func NewR(op Opcode, rd, rs1, rs2 Register) *R {
	return &R{base: base{op: op}, Rd: rd, Rs1: rs1, Rs2: rs2}
}

func (i *R) Encode() uint32 {
	return uint32(i.op)&mask(opcodeBits) |
		(uint32(i.Rd)&mask(regBits))<<7 |
		(uint32(i.Rs1)&mask(regBits))<<12 |
		(uint32(i.Rs2)&mask(regBits))<<17
}

func (i *R) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.op, i.Rd, i.Rs1, i.Rs2)
}

// S is the opcode[6:0], rs1[16:12], rs2[21:17] shape (rd slot zero). Used by
// sw.
type S struct {
	base
	Rs1, Rs2 Register
}

func NewS(op Opcode, rs1, rs2 Register) *S {
	return &S{base: base{op: op}, Rs1: rs1, Rs2: rs2}
}

func (i *S) Encode() uint32 {
	return uint32(i.op)&mask(opcodeBits) |
		(uint32(i.Rs1)&mask(regBits))<<12 |
		(uint32(i.Rs2)&mask(regBits))<<17
}

func (i *S) String() string { return fmt.Sprintf("%s %s, %s", i.op, i.Rs1, i.Rs2) }

// B is the branch shape: opcode[6:0], imm-low[11:7], rs1[16:12],
// rs2[21:17], imm-high[31:22]. Used by beq, bne, bgt, blt.
type B struct {
	base
	Rs1, Rs2 Register
	Imm      int32 // 15-bit signed
}

func NewB(op Opcode, rs1, rs2 Register, imm int32) *B {
	return &B{base: base{op: op}, Rs1: rs1, Rs2: rs2, Imm: imm}
}

func (i *B) Encode() uint32 {
	u := bitutil.ExtractBits(uint32(i.Imm), bImmBits)
	low := u & mask(regBits)
	high := u >> regBits
	return uint32(i.op)&mask(opcodeBits) |
		low<<7 |
		(uint32(i.Rs1)&mask(regBits))<<12 |
		(uint32(i.Rs2)&mask(regBits))<<17 |
		high<<22
}

func (i *B) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.op, i.Rs1, i.Rs2, i.Imm)
}

// J is the unconditional jump shape: opcode[6:0], imm[31:7]. Used by j.
type J struct {
	base
	Imm int32 // 25-bit signed
}

func NewJ(op Opcode, imm int32) *J { return &J{base: base{op: op}, Imm: imm} }

func (i *J) Encode() uint32 {
	return uint32(i.op)&mask(opcodeBits) |
		bitutil.ExtractBits(uint32(i.Imm), jImmBits)<<7
}

func (i *J) String() string { return fmt.Sprintf("%s %d", i.op, i.Imm) }

// JR is the register-indirect jump shape: opcode[6:0], imm-low[11:7],
// rs1[16:12], imm-high[31:17]. Used by jr.
type JR struct {
	base
	Rs1 Register
	Imm int32 // 20-bit signed
}

func NewJR(op Opcode, rs1 Register, imm int32) *JR {
	return &JR{base: base{op: op}, Rs1: rs1, Imm: imm}
}

func (i *JR) Encode() uint32 {
	u := bitutil.ExtractBits(uint32(i.Imm), jrImmBits)
	low := u & mask(regBits)
	high := u >> regBits
	return uint32(i.op)&mask(opcodeBits) |
		low<<7 |
		(uint32(i.Rs1)&mask(regBits))<<12 |
		high<<17
}

func (i *JR) String() string { return fmt.Sprintf("%s %s, %d", i.op, i.Rs1, i.Imm) }

func mask(bits int) uint32 { return bitutil.ExtractBits(^uint32(0), bits) }

// Decode decodes a 32-bit word into its Instruction, dispatching on the low
// 7 opcode bits and the opcode's declared shape.
func Decode(word uint32) (Instruction, error) {
	opBits := bitutil.ExtractBits(word, opcodeBits)
	op := Opcode(opBits)
	shape, ok := ShapeOf(op)
	if !ok {
		return nil, fmt.Errorf("isa: unknown opcode %d", opBits)
	}
	// rd/rs1/rs2 below are raw 5-bit field extractions; which ones are
	// actual register fields (as opposed to immediate bits sharing the same
	// position, e.g. the B/J/JR shapes' imm-low) depends on shape, so each
	// case below validates only the fields it actually uses as registers.
	rd := Register(bitutil.ExtractBits(word>>7, regBits))
	rs1 := Register(bitutil.ExtractBits(word>>12, regBits))
	rs2 := Register(bitutil.ExtractBits(word>>17, regBits))
	switch shape {
	case ShapePlain:
		return NewPlain(op), nil
	case ShapeU:
		if !ValidRegister(uint32(rd)) {
			return nil, fmt.Errorf("%w: rd=%d decoding opcode %s", ErrInvalidRegister, rd, op)
		}
		imm := bitutil.SignExtend(word>>12, uImmBits)
		return NewU(op, rd, imm), nil
	case ShapeI:
		if !ValidRegister(uint32(rd)) || !ValidRegister(uint32(rs1)) {
			return nil, fmt.Errorf("%w: decoding opcode %s", ErrInvalidRegister, op)
		}
		imm := bitutil.SignExtend(word>>17, iImmBits)
		return NewI(op, rd, rs1, imm), nil
	case ShapeR:
		if !ValidRegister(uint32(rd)) || !ValidRegister(uint32(rs1)) || !ValidRegister(uint32(rs2)) {
			return nil, fmt.Errorf("%w: decoding opcode %s", ErrInvalidRegister, op)
		}
		return NewR(op, rd, rs1, rs2), nil
	case ShapeS:
		if !ValidRegister(uint32(rs1)) || !ValidRegister(uint32(rs2)) {
			return nil, fmt.Errorf("%w: decoding opcode %s", ErrInvalidRegister, op)
		}
		return NewS(op, rs1, rs2), nil
	case ShapeB:
		if !ValidRegister(uint32(rs1)) || !ValidRegister(uint32(rs2)) {
			return nil, fmt.Errorf("%w: decoding opcode %s", ErrInvalidRegister, op)
		}
		low := bitutil.ExtractBits(word>>7, regBits)
		high := bitutil.ExtractBits(word>>22, bImmBits-regBits)
		imm := bitutil.SignExtend(high<<regBits|low, bImmBits)
		return NewB(op, rs1, rs2, imm), nil
	case ShapeJ:
		imm := bitutil.SignExtend(word>>7, jImmBits)
		return NewJ(op, imm), nil
	case ShapeJR:
		if !ValidRegister(uint32(rs1)) {
			return nil, fmt.Errorf("%w: decoding opcode %s", ErrInvalidRegister, op)
		}
		low := bitutil.ExtractBits(word>>7, regBits)
		high := bitutil.ExtractBits(word>>17, jrImmBits-regBits)
		imm := bitutil.SignExtend(high<<regBits|low, jrImmBits)
		return NewJR(op, rs1, imm), nil
	default:
		return nil, fmt.Errorf("isa: unhandled shape for opcode %s", op)
	}
}
