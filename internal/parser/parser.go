// Package parser implements the LL(1) recursive-descent parser of
// spec.md §4.3, building an AST of the types in internal/ast. Grounded on
// original_source/src/translator/parser.py's term/word/statement structure,
// generalized to the fuller grammar (string/alloc declarations, else
// branches) spec.md names.
package parser

import (
	"errors"
	"fmt"

	"github.com/timur1516/stacklang/internal/ast"
	"github.com/timur1516/stacklang/internal/lexer"
)

// ErrUnexpectedToken is returned when the current token does not match
// what the grammar production expects.
var ErrUnexpectedToken = errors.New("parser: unexpected token")

// ErrUndefinedSymbol is returned when a symbol token names neither a
// definition nor a declared variable.
var ErrUndefinedSymbol = errors.New("parser: undefined symbol")

// ErrNameInUse is returned when a declaration or definition reuses a name
// already bound by another declaration or definition.
var ErrNameInUse = errors.New("parser: name already in use")

// operationKeywords is the subset of lexer keywords that become
// ast.Operation nodes rather than driving dedicated grammar productions.
var operationKeywords = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "mod": true,
	"neg": true, "abs": true, "2+": true, "2*": true, "2-": true,
	"2neg": true, "2abs": true,
	"and": true, "or": true, "xor": true, "not": true,
	"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"dup": true, "drop": true, "swap": true, "over": true,
	"2dup": true, "2drop": true, "2swap": true, "2over": true,
	"store": true, "load": true, "2store": true, "2load": true,
	"print": true, "read": true,
	"en_int": true, "di_int": true,
}

// Parser produces an AST from a token stream.
type Parser struct {
	lex *lexer.Lexer
	cur lexer.Token

	symbols     map[string]bool
	definitions map[string]*ast.Block
	literals    []string
}

// New constructs a Parser over lex, priming the lookahead token.
func New(lex *lexer.Lexer) *Parser {
	p := &Parser{
		lex:         lex,
		symbols:     make(map[string]bool),
		definitions: make(map[string]*ast.Block),
	}
	p.cur = p.lex.Next()
	return p
}

// Literals returns the literal pool collected while parsing, indexed by
// literal id.
func (p *Parser) Literals() []string { return p.literals }

// Symbols returns the set of declared variable names (addresses are
// assigned later, during code generation).
func (p *Parser) Symbols() map[string]bool { return p.symbols }

func (p *Parser) advance() { p.cur = p.lex.Next() }

func (p *Parser) expect(kind lexer.Kind, lexeme string) error {
	if p.cur.Kind != kind || (lexeme != "" && p.cur.Lexeme != lexeme) {
		return p.unexpected(lexeme)
	}
	p.advance()
	return nil
}

func (p *Parser) unexpected(expected string) error {
	if expected != "" {
		return fmt.Errorf("%w: got %q on line %d, expected %q", ErrUnexpectedToken, p.cur.Lexeme, p.cur.Line, expected)
	}
	return fmt.Errorf("%w: %q on line %d", ErrUnexpectedToken, p.cur.Lexeme, p.cur.Line)
}

func (p *Parser) is(kind lexer.Kind, lexeme string) bool {
	return p.cur.Kind == kind && (lexeme == "" || p.cur.Lexeme == lexeme)
}

func (p *Parser) isKeyword(lexeme string) bool { return p.is(lexer.Keyword, lexeme) }

// Parse runs the top-level `program` production: a run of words, control
// statements (if/begin, which nest arbitrarily deep via stmtBody), and
// top-level declarations/definitions, in any order.
func (p *Parser) Parse() (*ast.Block, error) {
	var children []ast.Node
	for {
		switch {
		case p.isWordStart():
			n, err := p.word()
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		case p.isKeyword("if"):
			n, err := p.ifStatement()
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		case p.isKeyword("begin"):
			n, err := p.whileStatement()
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		case p.isStatementStart():
			n, err := p.statement()
			if err != nil {
				return nil, err
			}
			if n != nil {
				children = append(children, n)
			}
		default:
			if err := p.expect(lexer.EOF, ""); err != nil {
				return nil, err
			}
			return &ast.Block{Children: children}, nil
		}
	}
}

func (p *Parser) isWordStart() bool {
	switch p.cur.Kind {
	case lexer.Number, lexer.ExtendedNumber, lexer.Symbol:
		return true
	case lexer.Keyword:
		return operationKeywords[p.cur.Lexeme]
	}
	return false
}

func (p *Parser) isStatementStart() bool {
	return p.isKeyword("var") || p.isKeyword("2var") || p.isKeyword("str") ||
		p.isKeyword("alloc") || p.isKeyword(":") || p.isKeyword("begin_int")
}

func (p *Parser) word() (ast.Node, error) {
	switch {
	case p.is(lexer.Number, ""):
		return p.number()
	case p.is(lexer.ExtendedNumber, ""):
		return p.extendedNumber()
	case p.is(lexer.Symbol, ""):
		return p.symbol()
	case p.isKeyword("\""):
		return p.literal()
	case p.cur.Kind == lexer.Keyword && operationKeywords[p.cur.Lexeme]:
		return p.operation()
	}
	return nil, p.unexpected("")
}

func (p *Parser) number() (*ast.Number, error) {
	lexeme := p.cur.Lexeme
	if err := p.expect(lexer.Number, ""); err != nil {
		return nil, err
	}
	var v int32
	if _, err := fmt.Sscanf(lexeme, "%d", &v); err != nil {
		return nil, fmt.Errorf("parser: invalid number %q: %w", lexeme, err)
	}
	return &ast.Number{Value: v}, nil
}

func (p *Parser) extendedNumber() (*ast.ExtendedNumber, error) {
	lexeme := p.cur.Lexeme
	if err := p.expect(lexer.ExtendedNumber, ""); err != nil {
		return nil, err
	}
	var v int64
	if _, err := fmt.Sscanf(lexeme, "%d", &v); err != nil {
		return nil, fmt.Errorf("parser: invalid extended number %q: %w", lexeme, err)
	}
	return &ast.ExtendedNumber{Value: v}, nil
}

// symbol resolves an identifier: a definition name is inlined (a cloned
// copy of its block is returned in place of a Symbol node), a declared
// variable becomes an ast.Symbol, anything else is an undefined-symbol
// error.
func (p *Parser) symbol() (ast.Node, error) {
	name := p.cur.Lexeme
	if err := p.expect(lexer.Symbol, ""); err != nil {
		return nil, err
	}
	if def, ok := p.definitions[name]; ok {
		return ast.Clone(def), nil
	}
	if p.symbols[name] {
		return &ast.Symbol{Name: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUndefinedSymbol, name)
}

func (p *Parser) operation() (*ast.Operation, error) {
	kind := ast.OpKind(p.cur.Lexeme)
	p.advance()
	return &ast.Operation{Kind: kind}, nil
}

func (p *Parser) literal() (*ast.Literal, error) {
	if err := p.expect(lexer.Keyword, "\""); err != nil {
		return nil, err
	}
	value := p.cur.Lexeme
	if err := p.expect(lexer.StringLiteral, ""); err != nil {
		return nil, err
	}
	p.literals = append(p.literals, value)
	return &ast.Literal{ValueID: len(p.literals) - 1}, nil
}

func (p *Parser) statement() (ast.Node, error) {
	switch {
	case p.isKeyword("var"):
		return p.varDecl()
	case p.isKeyword("2var"):
		return p.dvarDecl()
	case p.isKeyword("str"):
		return p.strDecl()
	case p.isKeyword("alloc"):
		return p.allocDecl()
	case p.isKeyword(":"):
		return p.definition()
	case p.isKeyword("begin_int"):
		return p.interrupt()
	}
	return nil, p.unexpected("")
}

func (p *Parser) declareName(name string) error {
	if p.symbols[name] {
		return fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	if _, ok := p.definitions[name]; ok {
		return fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	p.symbols[name] = true
	return nil
}

func (p *Parser) expectName() (string, error) {
	name := p.cur.Lexeme
	if err := p.expect(lexer.Symbol, ""); err != nil {
		return "", err
	}
	return name, nil
}

func (p *Parser) varDecl() (*ast.VarDecl, error) {
	if err := p.expect(lexer.Keyword, "var"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.declareName(name); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Name: name}, nil
}

func (p *Parser) dvarDecl() (*ast.DVarDecl, error) {
	if err := p.expect(lexer.Keyword, "2var"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.declareName(name); err != nil {
		return nil, err
	}
	return &ast.DVarDecl{Name: name}, nil
}

func (p *Parser) strDecl() (*ast.StrDecl, error) {
	if err := p.expect(lexer.Keyword, "str"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.declareName(name); err != nil {
		return nil, err
	}
	lit, err := p.literal()
	if err != nil {
		return nil, err
	}
	return &ast.StrDecl{Name: name, Literal: lit}, nil
}

func (p *Parser) allocDecl() (*ast.AllocDecl, error) {
	if err := p.expect(lexer.Keyword, "alloc"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.declareName(name); err != nil {
		return nil, err
	}
	sizeLexeme := p.cur.Lexeme
	if err := p.expect(lexer.Number, ""); err != nil {
		return nil, err
	}
	var size int
	if _, err := fmt.Sscanf(sizeLexeme, "%d", &size); err != nil {
		return nil, fmt.Errorf("parser: invalid alloc size %q: %w", sizeLexeme, err)
	}
	return &ast.AllocDecl{Name: name, Size: size}, nil
}

func (p *Parser) interrupt() (*ast.Interrupt, error) {
	if err := p.expect(lexer.Keyword, "begin_int"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Keyword, "end_int"); err != nil {
		return nil, err
	}
	return &ast.Interrupt{Body: body}, nil
}

// block reads a maximal run of words (no nested statements).
func (p *Parser) block() (*ast.Block, error) {
	var children []ast.Node
	for p.isWordStart() {
		n, err := p.word()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return &ast.Block{Children: children}, nil
}

func (p *Parser) ifStatement() (*ast.IfStmt, error) {
	if err := p.expect(lexer.Keyword, "if"); err != nil {
		return nil, err
	}
	thenBlock, err := p.stmtBody()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.isKeyword("else") {
		p.advance()
		elseBlock, err = p.stmtBody()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(lexer.Keyword, "then"); err != nil {
		return nil, err
	}
	return &ast.IfStmt{Then: thenBlock, Else: elseBlock}, nil
}

func (p *Parser) whileStatement() (*ast.WhileStmt, error) {
	if err := p.expect(lexer.Keyword, "begin"); err != nil {
		return nil, err
	}
	body, err := p.stmtBody()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Keyword, "until"); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Body: body}, nil
}

// stmtBody reads `( block | if_stmt | loop_stmt )*`, flattening consecutive
// plain-word runs and nested control statements into one block.
func (p *Parser) stmtBody() (*ast.Block, error) {
	var children []ast.Node
	for {
		switch {
		case p.isWordStart():
			blk, err := p.block()
			if err != nil {
				return nil, err
			}
			children = append(children, blk.Children...)
		case p.isKeyword("if"):
			n, err := p.ifStatement()
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		case p.isKeyword("begin"):
			n, err := p.whileStatement()
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		default:
			return &ast.Block{Children: children}, nil
		}
	}
}

func (p *Parser) definition() (ast.Node, error) {
	if err := p.expect(lexer.Keyword, ":"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if p.symbols[name] {
		return nil, fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	if _, ok := p.definitions[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	body, err := p.stmtBody()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Keyword, ";"); err != nil {
		return nil, err
	}
	p.definitions[name] = body
	return nil, nil
}
