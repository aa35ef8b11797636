package codegen

import (
	"github.com/timur1516/stacklang/internal/ast"
	"github.com/timur1516/stacklang/internal/isa"
)

// operationTable maps every keyword operation kind to its producer, the
// generalized equivalent of original_source's OPERATION_TRANSLATION map
// (instruction_producers.py), extended to the full keyword set of spec.md
// §3's Token section and to spec.md §9's comparison stack-order resolution
// (top of stack is the right-hand operand).
var operationTable = map[ast.OpKind]func(*Generator){
	"+":   (*Generator).opAdd,
	"-":   (*Generator).opSub,
	"*":   (*Generator).opMul,
	"/":   (*Generator).opDiv,
	"mod": (*Generator).opMod,
	"neg": (*Generator).opNeg,
	"abs": (*Generator).opAbs,

	"2+":   (*Generator).opDAdd,
	"2*":   (*Generator).opDMul,
	"2-":   (*Generator).opDSub,
	"2neg": (*Generator).negateTopDouble,
	"2abs": (*Generator).opDAbs,

	"and": (*Generator).opAnd,
	"or":  (*Generator).opOr,
	"xor": (*Generator).opXor,
	"not": (*Generator).opNot,

	"=":  (*Generator).opEquals,
	"!=": (*Generator).opNotEquals,
	"<":  (*Generator).opLess,
	">":  (*Generator).opGreater,
	"<=": (*Generator).opLessEqual,
	">=": (*Generator).opGreaterEqual,

	"dup":  (*Generator).opDup,
	"drop": (*Generator).opDrop,
	"swap": (*Generator).opSwap,
	"over": (*Generator).opOver,

	"2dup":  (*Generator).opDDup,
	"2drop": (*Generator).opDDrop,
	"2swap": (*Generator).opDSwap,
	"2over": (*Generator).opDOver,

	"store":  (*Generator).opStore,
	"load":   (*Generator).opLoad,
	"2store": (*Generator).opDStore,
	"2load":  (*Generator).opDLoad,

	"print": (*Generator).opPrint,
	"read":  (*Generator).opRead,

	"en_int": (*Generator).opEnableInt,
	"di_int": (*Generator).opDisableInt,
}

func (g *Generator) opAdd() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.ADD, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opSub() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.SUB, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opMul() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.MUL, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opDiv() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.DIV, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opMod() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.REM, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opNeg() {
	g.popToRegister(isa.T0)
	g.emit(isa.NewR(isa.SUB, isa.T0, isa.Zero, isa.T0))
	g.pushRegister(isa.T0)
}

// opAbs pushes |top|, branching around a negation performed only when the
// popped value is negative.
func (g *Generator) opAbs() {
	g.popToRegister(isa.T0)
	negLabel := NewLabel()
	endLabel := NewLabel()
	g.append(NewBranchStub(isa.BLT, isa.T0, isa.Zero, negLabel))
	g.pushRegister(isa.T0)
	g.append(NewJumpStub(endLabel))
	g.append(negLabel)
	g.emit(isa.NewR(isa.SUB, isa.T0, isa.Zero, isa.T0))
	g.pushRegister(isa.T0)
	g.append(endLabel)
}

// opDAdd adds the top two double-width (2-cell) values, each stored low
// cell first with the high cell on top. B_high is spilled back onto the
// stack momentarily to free a temporary while the low-word carry is
// computed, since only four scratch registers are available.
func (g *Generator) opDAdd() {
	g.popToRegister(isa.T0) // B_high
	g.popToRegister(isa.T1) // B_low
	g.popToRegister(isa.T2) // A_high
	g.popToRegister(isa.T3) // A_low
	g.pushRegister(isa.T0)  // spill B_high, freeing t0
	g.emit(isa.NewR(isa.ADC, isa.T0, isa.T1, isa.T3)) // t0 = carry(B_low + A_low)
	g.emit(isa.NewR(isa.ADD, isa.T1, isa.T1, isa.T3)) // t1 = low sum
	g.popToRegister(isa.T3)                           // reload B_high into t3
	g.emit(isa.NewR(isa.ADD, isa.T2, isa.T2, isa.T3)) // t2 = A_high + B_high
	g.emit(isa.NewR(isa.ADD, isa.T2, isa.T2, isa.T0)) // t2 = high sum + carry
	g.pushRegister(isa.T1)                            // low
	g.pushRegister(isa.T2)                             // high
}

// opDMul widens two single-word operands into a double-width product, per
// original_source's D_MUL producer.
func (g *Generator) opDMul() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.MUL, isa.T2, isa.T1, isa.T0))
	g.emit(isa.NewR(isa.MULH, isa.T3, isa.T1, isa.T0))
	g.pushRegister(isa.T2)
	g.pushRegister(isa.T3)
}

// opDSub computes the double-width A - B as A + (-B).
func (g *Generator) opDSub() {
	g.negateTopDouble()
	g.opDAdd()
}

// negateTopDouble two's-complements the top double-width value in place:
// ~low + 1 with carry rippled into ~high, using xor-with-all-ones as the
// bitwise NOT (the same idiom as the single-word `not` operation).
func (g *Generator) negateTopDouble() {
	g.popToRegister(isa.T0) // high
	g.popToRegister(isa.T1) // low
	g.emit(isa.NewI(isa.ADDI, isa.T2, isa.Zero, -1))
	g.emit(isa.NewR(isa.XOR, isa.T3, isa.T1, isa.T2)) // t3 = ~low
	g.emit(isa.NewI(isa.ADDI, isa.T2, isa.Zero, 1))
	g.emit(isa.NewR(isa.ADC, isa.T1, isa.T3, isa.T2)) // t1 = carry(~low + 1)
	g.emit(isa.NewR(isa.ADD, isa.T3, isa.T3, isa.T2)) // t3 = ~low + 1 = low_neg
	g.emit(isa.NewI(isa.ADDI, isa.T2, isa.Zero, -1))
	g.emit(isa.NewR(isa.XOR, isa.T0, isa.T0, isa.T2)) // t0 = ~high
	g.emit(isa.NewR(isa.ADD, isa.T0, isa.T0, isa.T1)) // t0 = ~high + carry = high_neg
	g.pushRegister(isa.T3)                            // low
	g.pushRegister(isa.T0)                             // high
}

// opDAbs negates the top double-width value iff its high word is negative.
func (g *Generator) opDAbs() {
	g.peekRegister(isa.T0, 0) // high word, without popping
	negLabel := NewLabel()
	endLabel := NewLabel()
	g.append(NewBranchStub(isa.BLT, isa.T0, isa.Zero, negLabel))
	g.append(NewJumpStub(endLabel))
	g.append(negLabel)
	g.negateTopDouble()
	g.append(endLabel)
}

func (g *Generator) opAnd() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.AND, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opOr() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.OR, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opXor() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.emit(isa.NewR(isa.XOR, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opNot() {
	g.popToRegister(isa.T0)
	g.emit(isa.NewI(isa.ADDI, isa.T1, isa.Zero, -1))
	g.emit(isa.NewR(isa.XOR, isa.T0, isa.T1, isa.T0))
	g.pushRegister(isa.T0)
}

// comparison emits the fixed-offset 0/1-producing sequence common to all
// six comparison operators, ported from original_source's EQUALS/GREATER
// producers: a branch over a "false" literal to a "true" literal.
func (g *Generator) comparison(op isa.Opcode, rs1, rs2 isa.Register) {
	g.emit(isa.NewB(op, rs1, rs2, 3))
	g.emit(isa.NewI(isa.ADDI, isa.T3, isa.Zero, 0))
	g.emit(isa.NewJ(isa.J, 2))
	g.emit(isa.NewI(isa.ADDI, isa.T3, isa.Zero, 1))
	g.pushRegister(isa.T3)
}

func (g *Generator) opEquals() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.comparison(isa.BEQ, isa.T0, isa.T1)
}

func (g *Generator) opNotEquals() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.comparison(isa.BNE, isa.T0, isa.T1)
}

func (g *Generator) opGreater() {
	g.popToRegister(isa.T1) // B (right, top)
	g.popToRegister(isa.T0) // A (left)
	g.comparison(isa.BGT, isa.T0, isa.T1)
}

func (g *Generator) opLess() {
	g.popToRegister(isa.T1)
	g.popToRegister(isa.T0)
	g.comparison(isa.BLT, isa.T0, isa.T1)
}

// orEqualComparison emits `op`'s true case, falling through to a plain
// equality check, matching original_source's GREATER_EQUAL/LESS_EQUAL
// two-branch producers.
func (g *Generator) orEqualComparison(op isa.Opcode, rs1, rs2 isa.Register) {
	g.emit(isa.NewB(op, rs1, rs2, 4))
	g.emit(isa.NewB(isa.BEQ, rs1, rs2, 3))
	g.emit(isa.NewI(isa.ADDI, isa.T3, isa.Zero, 0))
	g.emit(isa.NewJ(isa.J, 2))
	g.emit(isa.NewI(isa.ADDI, isa.T3, isa.Zero, 1))
	g.pushRegister(isa.T3)
}

func (g *Generator) opGreaterEqual() {
	g.popToRegister(isa.T1)
	g.popToRegister(isa.T0)
	g.orEqualComparison(isa.BGT, isa.T0, isa.T1)
}

func (g *Generator) opLessEqual() {
	g.popToRegister(isa.T1)
	g.popToRegister(isa.T0)
	g.orEqualComparison(isa.BLT, isa.T0, isa.T1)
}

func (g *Generator) opDup() {
	g.peekRegister(isa.T0, 0)
	g.pushRegister(isa.T0)
}

func (g *Generator) opDrop() {
	g.emit(isa.NewI(isa.ADDI, isa.SP, isa.SP, 1))
}

func (g *Generator) opSwap() {
	g.popToRegister(isa.T0)
	g.popToRegister(isa.T1)
	g.pushRegister(isa.T0)
	g.pushRegister(isa.T1)
}

func (g *Generator) opOver() {
	g.peekRegister(isa.T0, 1)
	g.pushRegister(isa.T0)
}

func (g *Generator) opDDup() {
	g.peekRegister(isa.T0, 1) // low
	g.peekRegister(isa.T1, 0) // high
	g.pushRegister(isa.T0)
	g.pushRegister(isa.T1)
}

func (g *Generator) opDDrop() {
	g.emit(isa.NewI(isa.ADDI, isa.SP, isa.SP, 2))
}

// opDSwap exchanges the top two double-width pairs.
func (g *Generator) opDSwap() {
	g.popToRegister(isa.T0) // B_high
	g.popToRegister(isa.T1) // B_low
	g.popToRegister(isa.T2) // A_high
	g.popToRegister(isa.T3) // A_low
	g.pushRegister(isa.T1)  // low B
	g.pushRegister(isa.T0)  // high B
	g.pushRegister(isa.T3)  // low A
	g.pushRegister(isa.T2)  // high A
}

func (g *Generator) opDOver() {
	g.peekRegister(isa.T0, 3) // low of second pair
	g.peekRegister(isa.T1, 2) // high of second pair
	g.pushRegister(isa.T0)
	g.pushRegister(isa.T1)
}

// opStore implements `addr value store`: address pushed first (deeper),
// value pushed second (top), per original_source's STORE producer.
func (g *Generator) opStore() {
	g.popToRegister(isa.T0) // value
	g.popToRegister(isa.T1) // addr
	g.emit(isa.NewS(isa.SW, isa.T1, isa.T0))
}

func (g *Generator) opLoad() {
	g.popToRegister(isa.T0)
	g.emit(isa.NewI(isa.LW, isa.T0, isa.T0, 0))
	g.pushRegister(isa.T0)
}

// opDStore implements `addr value 2store`: stores the low cell at addr and
// the high cell at addr+1.
func (g *Generator) opDStore() {
	g.popToRegister(isa.T0) // high
	g.popToRegister(isa.T1) // low
	g.popToRegister(isa.T2) // addr
	g.emit(isa.NewS(isa.SW, isa.T2, isa.T1))
	g.emit(isa.NewI(isa.ADDI, isa.T2, isa.T2, 1))
	g.emit(isa.NewS(isa.SW, isa.T2, isa.T0))
}

func (g *Generator) opDLoad() {
	g.popToRegister(isa.T0) // addr
	g.emit(isa.NewI(isa.LW, isa.T1, isa.T0, 0))
	g.emit(isa.NewI(isa.LW, isa.T2, isa.T0, 1))
	g.pushRegister(isa.T1) // low
	g.pushRegister(isa.T2) // high
}

func (g *Generator) opPrint() {
	g.popToRegister(isa.T0)
	g.emit(isa.NewI(isa.ADDI, isa.T1, isa.Zero, int32(isa.OutputAddress)))
	g.emit(isa.NewS(isa.SW, isa.T1, isa.T0))
}

func (g *Generator) opRead() {
	g.emit(isa.NewI(isa.ADDI, isa.T1, isa.Zero, int32(isa.InputAddress)))
	g.emit(isa.NewI(isa.LW, isa.T0, isa.T1, 0))
	g.pushRegister(isa.T0)
}

func (g *Generator) opEnableInt() {
	g.emit(isa.NewPlain(isa.EINT))
}

func (g *Generator) opDisableInt() {
	g.emit(isa.NewPlain(isa.DINT))
}
