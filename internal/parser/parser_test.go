package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timur1516/stacklang/internal/ast"
	"github.com/timur1516/stacklang/internal/lexer"
)

func parse(t *testing.T, text string) (*ast.Block, *Parser) {
	t.Helper()
	p := New(lexer.New(text))
	block, err := p.Parse()
	require.NoError(t, err)
	return block, p
}

func TestParsesWordSequence(t *testing.T) {
	block, _ := parse(t, "2 3 + print")
	require.Len(t, block.Children, 4)
	require.IsType(t, &ast.Number{}, block.Children[0])
	require.IsType(t, &ast.Operation{}, block.Children[2])
}

func TestVarDeclThenSymbolUse(t *testing.T) {
	block, _ := parse(t, "var x x load")
	require.Len(t, block.Children, 3)
	require.IsType(t, &ast.VarDecl{}, block.Children[0])
	sym, ok := block.Children[1].(*ast.Symbol)
	require.True(t, ok)
	require.Equal(t, "x", sym.Name)
}

func TestTopLevelIfStatement(t *testing.T) {
	block, _ := parse(t, "0 if 1 else 2 then print")
	require.Len(t, block.Children, 3)
	ifStmt, ok := block.Children[1].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Then)
	require.NotNil(t, ifStmt.Else)
}

func TestTopLevelBeginStatement(t *testing.T) {
	block, _ := parse(t, "5 begin dup print 1 - dup until drop")
	require.Len(t, block.Children, 3)
	_, ok := block.Children[1].(*ast.WhileStmt)
	require.True(t, ok)
}

func TestDefinitionInlinesCloneAtEachUse(t *testing.T) {
	block, _ := parse(t, ": double dup + ; 3 double 4 double")
	// the definition itself produces no node: two numbers, two inlined clones
	require.Len(t, block.Children, 4)
	firstCall, ok := block.Children[1].(*ast.Block)
	require.True(t, ok)
	require.Len(t, firstCall.Children, 2)
	require.Equal(t, ast.OpKind("dup"), firstCall.Children[0].(*ast.Operation).Kind)

	secondCall, ok := block.Children[3].(*ast.Block)
	require.True(t, ok)

	// clones must be distinct node instances so resolving one call site's
	// stubs later never mutates the other's.
	require.NotSame(t, firstCall, secondCall)
	require.NotSame(t, firstCall.Children[0], secondCall.Children[0])
}

func TestStrDeclCollectsLiteral(t *testing.T) {
	_, p := parse(t, `str msg " Hello, World!"`)
	require.Equal(t, []string{"Hello, World!"}, p.Literals())
}

func TestUndefinedSymbolErrors(t *testing.T) {
	_, err := New(lexer.New("nope load")).Parse()
	require.ErrorIs(t, err, ErrUndefinedSymbol)
}

func TestRedeclaredNameErrors(t *testing.T) {
	_, err := New(lexer.New("var x var x")).Parse()
	require.ErrorIs(t, err, ErrNameInUse)
}

func TestUnexpectedTokenErrors(t *testing.T) {
	_, err := New(lexer.New("until")).Parse()
	require.ErrorIs(t, err, ErrUnexpectedToken)
}

func TestInterruptBodyParsesAsBlock(t *testing.T) {
	block, _ := parse(t, "begin_int read print end_int en_int")
	require.Len(t, block.Children, 2)
	intr, ok := block.Children[0].(*ast.Interrupt)
	require.True(t, ok)
	require.Len(t, intr.Body.Children, 2)
}
