package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, text string) []Token {
	t.Helper()
	l := New(text)
	var out []Token
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			out = append(out, tok)
			return out
		}
		out = append(out, tok)
	}
}

func TestClassifiesNumberKeywordSymbol(t *testing.T) {
	toks := tokens(t, "42 dup foo")
	require.Len(t, toks, 4)
	require.Equal(t, Number, toks[0].Kind)
	require.Equal(t, "42", toks[0].Lexeme)
	require.Equal(t, Keyword, toks[1].Kind)
	require.Equal(t, Symbol, toks[2].Kind)
	require.Equal(t, "foo", toks[2].Lexeme)
	require.Equal(t, EOF, toks[3].Kind)
}

func TestClassifiesExtendedNumber(t *testing.T) {
	toks := tokens(t, "123.")
	require.Equal(t, ExtendedNumber, toks[0].Kind)
	require.Equal(t, "123", toks[0].Lexeme)
}

func TestLiteralModeSkipsOneSeparatorSpace(t *testing.T) {
	toks := tokens(t, `str msg " Hello, World!"`)
	require.Equal(t, Keyword, toks[0].Kind)
	require.Equal(t, Symbol, toks[1].Kind)
	require.Equal(t, Keyword, toks[2].Kind) // the opening quote
	require.Equal(t, `"`, toks[2].Lexeme)
	require.Equal(t, StringLiteral, toks[3].Kind)
	require.Equal(t, "Hello, World!", toks[3].Lexeme)
}

func TestCommentRunsToEndOfLine(t *testing.T) {
	toks := tokens(t, "1 \\ this is a comment\n2")
	require.Equal(t, Number, toks[0].Kind)
	require.Equal(t, "1", toks[0].Lexeme)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, "2", toks[1].Lexeme)
}

func TestEOFRepeatsForever(t *testing.T) {
	l := New("1")
	require.Equal(t, Number, l.Next().Kind)
	require.Equal(t, EOF, l.Next().Kind)
	require.Equal(t, EOF, l.Next().Kind)
}

func TestTracksLineNumbers(t *testing.T) {
	toks := tokens(t, "1\n2\n3")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 3, toks[2].Line)
}
