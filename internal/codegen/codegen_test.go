package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timur1516/stacklang/internal/ast"
	"github.com/timur1516/stacklang/internal/isa"
)

func TestResolveSingleBranch(t *testing.T) {
	label := NewLabel()
	items := []Item{
		&InstrItem{Instr: isa.NewI(isa.ADDI, isa.T0, isa.Zero, 1)},
		NewBranchStub(isa.BEQ, isa.T0, isa.Zero, label),
		label,
		&InstrItem{Instr: isa.NewPlain(isa.HALT)},
	}
	out, err := Resolve(items, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	b, ok := out[1].(*isa.B)
	require.True(t, ok)
	require.EqualValues(t, 1, b.Imm) // branch at addr 1, label at addr 2: offset = 2 - 1
}

func TestResolveLongBranchTrampoline(t *testing.T) {
	label := NewLabel()
	items := []Item{NewBranchStub(isa.BNE, isa.T0, isa.Zero, label)}
	for i := 0; i < 20000; i++ {
		items = append(items, &InstrItem{Instr: isa.NewPlain(isa.HALT)})
	}
	items = append(items, label)

	out, err := Resolve(items, 0)
	require.NoError(t, err)
	require.Len(t, out, 20000+3) // offset doesn't fit B-immediate but fits J-immediate: 3-instruction trampoline
}

func TestGenerateSimpleArithmetic(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.Number{Value: 2},
		&ast.Number{Value: 3},
		&ast.Operation{Kind: "+"},
	}}
	result, err := Generate(program, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.MainInstructions)
	require.Empty(t, result.InterruptInstructions)
}

func TestGenerateVarDeclAssignsAddress(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.VarDecl{Name: "x"},
		&ast.Symbol{Name: "x"},
	}}
	result, err := Generate(program, nil)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
}

func TestGenerateUndefinedSymbolErrors(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.Symbol{Name: "nope"},
	}}
	_, err := Generate(program, nil)
	require.Error(t, err)
}

func TestGenerateIfStatement(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.Number{Value: 1},
		&ast.IfStmt{
			Then: &ast.Block{Children: []ast.Node{&ast.Number{Value: 42}, &ast.Operation{Kind: "drop"}}},
		},
	}}
	result, err := Generate(program, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.MainInstructions)
}

func TestGenerateWhileStatement(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.WhileStmt{
			Body: &ast.Block{Children: []ast.Node{&ast.Number{Value: 0}}},
		},
	}}
	result, err := Generate(program, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.MainInstructions)
}

func TestGenerateInterruptSeparatesStream(t *testing.T) {
	program := &ast.Block{Children: []ast.Node{
		&ast.Interrupt{Body: &ast.Block{Children: []ast.Node{&ast.Operation{Kind: "read"}, &ast.Operation{Kind: "drop"}}}},
	}}
	result, err := Generate(program, nil)
	require.NoError(t, err)
	require.Len(t, result.MainInstructions, 1) // just the trailing halt
	require.NotEmpty(t, result.InterruptInstructions)
	last := result.InterruptInstructions[len(result.InterruptInstructions)-1]
	require.Equal(t, isa.RINT, last.Opcode())
}
