package codegen

import "github.com/timur1516/stacklang/internal/isa"

// emit appends one instruction item to the generator's current stream.
func (g *Generator) emit(instr isa.Instruction) {
	g.append(&InstrItem{Instr: instr})
}

// append appends an arbitrary item (instruction, label, or stub) to the
// generator's current stream.
func (g *Generator) append(it Item) {
	*g.cur = append(*g.cur, it)
}

// pushRegister emits push-register r per spec.md §4.4: addi sp, sp, -1; sw
// [sp], r.
func (g *Generator) pushRegister(r isa.Register) {
	g.emit(isa.NewI(isa.ADDI, isa.SP, isa.SP, -1))
	g.emit(isa.NewS(isa.SW, isa.SP, r))
}

// popToRegister emits pop-to-register r: lw r, [sp]; addi sp, sp, 1.
func (g *Generator) popToRegister(r isa.Register) {
	g.emit(isa.NewI(isa.LW, r, isa.SP, 0))
	g.emit(isa.NewI(isa.ADDI, isa.SP, isa.SP, 1))
}

// peekRegister emits lw r, [sp, offset] without adjusting sp, used by dup,
// over, and the double-width variants.
func (g *Generator) peekRegister(r isa.Register, offset int32) {
	g.emit(isa.NewI(isa.LW, r, isa.SP, offset))
}

// immFits12 reports whether n fits the addi immediate width used by
// push_number_instructions_producer in the original source (12 bits, a
// narrower sub-range of the ISA's 15-bit I-immediate, kept to match the
// original's decomposition threshold).
func immFits12(n int32) bool {
	return n >= -(1<<11) && n < 1<<11
}

// splitImm32 decomposes n into the lower 12 sign-extended bits and an upper
// value that, shifted left 12 and added to the lower bits, reconstructs n;
// used by pushNumber's lui+addi fallback and by the jump/branch absolute
// trampoline.
func splitImm32(n int64) (upper, lower int32) {
	low12 := uint32(n) & 0xFFF
	if low12&0x800 != 0 {
		lower = int32(low12) - 0x1000
	} else {
		lower = int32(low12)
	}
	upper = int32((n - int64(lower)) >> 12)
	return upper, lower
}

// pushNumber emits the Number node's producer sequence (spec.md §4.4).
func (g *Generator) pushNumber(n int32) {
	if immFits12(n) {
		g.emit(isa.NewI(isa.ADDI, isa.T0, isa.Zero, n))
		g.pushRegister(isa.T0)
		return
	}
	upper, lower := splitImm32(int64(n))
	g.emit(isa.NewU(isa.LUI, isa.T0, upper))
	g.emit(isa.NewI(isa.ADDI, isa.T0, isa.T0, lower))
	g.pushRegister(isa.T0)
}

// pushExtendedNumber emits the ExtendedNumber node's producer sequence: the
// low 32 bits pushed first, the high 32 bits pushed second (ending on top),
// per spec.md §4.4.
func (g *Generator) pushExtendedNumber(n int64) {
	low := int32(n)
	high := int32(n >> 32)
	g.pushNumber(low)
	g.pushNumber(high)
}

// pushAddress emits the Symbol node's producer: addi t0, zero, addr; push
// t0.
func (g *Generator) pushAddress(addr uint32) {
	g.emit(isa.NewI(isa.ADDI, isa.T0, isa.Zero, int32(addr)))
	g.pushRegister(isa.T0)
}
