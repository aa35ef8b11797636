package preprocess

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openerFor(files map[string]string) Opener {
	return func(path string) (io.Reader, error) {
		text, ok := files[path]
		if !ok {
			return nil, errors.New("not found")
		}
		return strings.NewReader(text), nil
	}
}

func TestExpandSplicesInclude(t *testing.T) {
	files := map[string]string{
		"main.stk": "before\n#include \"lib.stk\"\nafter",
		"lib.stk":  "middle",
	}
	out, err := Expand("main.stk", openerFor(files))
	require.NoError(t, err)
	require.Equal(t, "before\nmiddle\nafter", out)
}

func TestExpandVisitsEachPathOnce(t *testing.T) {
	files := map[string]string{
		"main.stk": "#include \"lib.stk\"\n#include \"lib.stk\"",
		"lib.stk":  "once",
	}
	out, err := Expand("main.stk", openerFor(files))
	require.NoError(t, err)
	require.Equal(t, "once\n", out)
}

func TestExpandBreaksCycles(t *testing.T) {
	files := map[string]string{
		"a.stk": "#include \"b.stk\"",
		"b.stk": "#include \"a.stk\"",
	}
	out, err := Expand("a.stk", openerFor(files))
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestExpandIncludeNotFound(t *testing.T) {
	files := map[string]string{
		"main.stk": "#include \"missing.stk\"",
	}
	_, err := Expand("main.stk", openerFor(files))
	require.ErrorIs(t, err, ErrIncludeNotFound)
}

func TestExpandIdempotentOnRepeatedInclude(t *testing.T) {
	files := map[string]string{
		"once.stk":  "#include \"lib.stk\"",
		"twice.stk": "#include \"lib.stk\"\n#include \"lib.stk\"",
		"lib.stk":   "body",
	}
	once, err := Expand("once.stk", openerFor(files))
	require.NoError(t, err)
	twice, err := Expand("twice.stk", openerFor(files))
	require.NoError(t, err)
	require.Equal(t, once, strings.TrimSuffix(twice, "\n"))
}
