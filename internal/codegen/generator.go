package codegen

import (
	"fmt"

	"github.com/timur1516/stacklang/internal/ast"
	"github.com/timur1516/stacklang/internal/isa"
)

// Generator walks an AST and emits a main instruction stream, a separate
// interrupt-handler stream, and a data segment, following the producer
// conventions of spec.md §4.4. It implements ast.Visitor.
type Generator struct {
	main       []Item
	interrupts []Item
	cur        *[]Item

	data       []int32
	symbolAddr map[string]uint32
	literals   []string

	err error
}

// NewGenerator constructs an empty Generator ready to visit a program.
// literals is the parser's literal pool, indexed by ast.Literal.ValueID.
func NewGenerator(literals []string) *Generator {
	g := &Generator{symbolAddr: make(map[string]uint32), literals: literals}
	g.cur = &g.main
	return g
}

// Result is the fully linked output of Generate.
type Result struct {
	MainInstructions       []isa.Instruction
	InterruptInstructions  []isa.Instruction
	Data                   []int32
}

// Generate lowers program to linked instructions and a data segment.
// literals is the parser's literal pool, indexed by ast.Literal.ValueID.
func Generate(program *ast.Block, literals []string) (*Result, error) {
	g := NewGenerator(literals)
	if err := program.Accept(g); err != nil {
		return nil, err
	}
	if g.err != nil {
		return nil, g.err
	}
	// Every program has exactly one halt, terminating normal execution
	// (spec.md §3 Invariants); the source language has no halt keyword, so
	// the generator appends it once the user's code has run to completion.
	g.main = append(g.main, &InstrItem{Instr: isa.NewPlain(isa.HALT)})
	mainInstr, err := Resolve(g.main, 0)
	if err != nil {
		return nil, fmt.Errorf("codegen: linking main stream: %w", err)
	}
	if len(mainInstr) > 0 {
		last := mainInstr[len(mainInstr)-1]
		if last.Address() >= isa.InterruptsHandlerAddress {
			return nil, fmt.Errorf("%w: main code reaches interrupt handler address", ErrInstructionOverflow)
		}
	}
	interruptInstr, err := Resolve(g.interrupts, isa.InterruptsHandlerAddress)
	if err != nil {
		return nil, fmt.Errorf("codegen: linking interrupt stream: %w", err)
	}
	if len(interruptInstr) > 0 {
		last := interruptInstr[len(interruptInstr)-1]
		if last.Address() >= isa.InstructionMemorySize {
			return nil, fmt.Errorf("%w: interrupt handler exceeds instruction memory", ErrInstructionOverflow)
		}
	}
	return &Result{MainInstructions: mainInstr, InterruptInstructions: interruptInstr, Data: g.data}, nil
}

// fail records the first error seen during a visit; later visits become
// no-ops once an error is recorded (mirroring a recursive descent that
// would otherwise have returned early at every call site).
func (g *Generator) fail(err error) error {
	if g.err == nil {
		g.err = err
	}
	return err
}

// capture redirects emission into a fresh item slice for the duration of
// fn, then restores the generator's previous stream and returns what fn
// produced. Used by the if and while bodies.
func (g *Generator) capture(fn func()) []Item {
	saved := g.cur
	var items []Item
	g.cur = &items
	fn()
	g.cur = saved
	return items
}

// allocData appends n zero-initialized cells to the data segment and
// returns their base address.
func (g *Generator) allocData(n int) (uint32, error) {
	base := isa.DataAreaStart + uint32(len(g.data))
	if int(base)+n > isa.DataMemorySize {
		return 0, ErrDataOverflow
	}
	for i := 0; i < n; i++ {
		g.data = append(g.data, 0)
	}
	return base, nil
}

func (g *Generator) VisitBlock(n *ast.Block) error {
	for _, child := range n.Children {
		if err := child.Accept(g); err != nil {
			return err
		}
		if g.err != nil {
			return g.err
		}
	}
	return nil
}

func (g *Generator) VisitOperation(n *ast.Operation) error {
	producer, ok := operationTable[n.Kind]
	if !ok {
		return g.fail(fmt.Errorf("%w: %q", ErrUnknownOperation, n.Kind))
	}
	producer(g)
	return g.err
}

func (g *Generator) VisitNumber(n *ast.Number) error {
	g.pushNumber(n.Value)
	return nil
}

func (g *Generator) VisitExtendedNumber(n *ast.ExtendedNumber) error {
	g.pushExtendedNumber(n.Value)
	return nil
}

func (g *Generator) VisitSymbol(n *ast.Symbol) error {
	addr, ok := g.symbolAddr[n.Name]
	if !ok {
		return g.fail(fmt.Errorf("codegen: %q declared but never allocated", n.Name))
	}
	g.pushAddress(addr)
	return nil
}

func (g *Generator) VisitLiteral(n *ast.Literal) error {
	// Literal nodes are only reachable through a StrDecl in the current
	// grammar; VisitStrDecl handles the literal's data directly and never
	// visits it as an independent node.
	return nil
}

func (g *Generator) VisitVarDecl(n *ast.VarDecl) error {
	addr, err := g.allocData(1)
	if err != nil {
		return g.fail(err)
	}
	g.symbolAddr[n.Name] = addr
	return nil
}

func (g *Generator) VisitDVarDecl(n *ast.DVarDecl) error {
	addr, err := g.allocData(2)
	if err != nil {
		return g.fail(err)
	}
	g.symbolAddr[n.Name] = addr
	return nil
}

// VisitStrDecl allocates a Pascal string (length cell followed by one cell
// per byte) per the GLOSSARY's literal-pool definition.
func (g *Generator) VisitStrDecl(n *ast.StrDecl) error {
	if n.Literal.ValueID < 0 || n.Literal.ValueID >= len(g.literals) {
		return g.fail(fmt.Errorf("codegen: %q: literal id %d out of range", n.Name, n.Literal.ValueID))
	}
	text := g.literals[n.Literal.ValueID]
	addr, err := g.allocData(len(text) + 1)
	if err != nil {
		return g.fail(err)
	}
	g.data[addr-isa.DataAreaStart] = int32(len(text))
	for i, b := range []byte(text) {
		g.data[addr-isa.DataAreaStart+uint32(i)+1] = int32(b)
	}
	g.symbolAddr[n.Name] = addr
	return nil
}

func (g *Generator) VisitAllocDecl(n *ast.AllocDecl) error {
	addr, err := g.allocData(n.Size)
	if err != nil {
		return g.fail(err)
	}
	g.symbolAddr[n.Name] = addr
	return nil
}

// VisitIfStmt emits: pop condition; branch-if-zero to else-label; if-body;
// jump to end-label; else-label; else-body; end-label.
func (g *Generator) VisitIfStmt(n *ast.IfStmt) error {
	thenErr := error(nil)
	thenItems := g.capture(func() {
		if err := n.Then.Accept(g); err != nil {
			thenErr = err
		}
	})
	if thenErr != nil {
		return thenErr
	}
	var elseItems []Item
	if n.Else != nil {
		elseErr := error(nil)
		elseItems = g.capture(func() {
			if err := n.Else.Accept(g); err != nil {
				elseErr = err
			}
		})
		if elseErr != nil {
			return elseErr
		}
	}

	elseLabel := NewLabel()
	endLabel := NewLabel()
	g.popToRegister(isa.T0)
	g.append(NewBranchStub(isa.BEQ, isa.T0, isa.Zero, elseLabel))
	for _, it := range thenItems {
		g.append(it)
	}
	g.append(NewJumpStub(endLabel))
	g.append(elseLabel)
	for _, it := range elseItems {
		g.append(it)
	}
	g.append(endLabel)
	return nil
}

// VisitWhileStmt emits: head-label; body; pop t0; branch-if-non-zero to
// head-label.
func (g *Generator) VisitWhileStmt(n *ast.WhileStmt) error {
	var bodyErr error
	bodyItems := g.capture(func() {
		if err := n.Body.Accept(g); err != nil {
			bodyErr = err
		}
	})
	if bodyErr != nil {
		return bodyErr
	}
	headLabel := NewLabel()
	g.append(headLabel)
	for _, it := range bodyItems {
		g.append(it)
	}
	g.popToRegister(isa.T0)
	g.append(NewBranchStub(isa.BNE, isa.T0, isa.Zero, headLabel))
	return nil
}

// VisitInterrupt redirects emission to the separate interrupt stream and
// appends a closing rint.
func (g *Generator) VisitInterrupt(n *ast.Interrupt) error {
	saved := g.cur
	g.cur = &g.interrupts
	err := n.Body.Accept(g)
	if err == nil {
		g.emit(isa.NewPlain(isa.RINT))
	}
	g.cur = saved
	return err
}
