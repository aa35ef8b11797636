package driver_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/timur1516/stacklang/internal/binfmt"
	"github.com/timur1516/stacklang/internal/codegen"
	"github.com/timur1516/stacklang/internal/driver"
	"github.com/timur1516/stacklang/internal/isa"
	"github.com/timur1516/stacklang/internal/lexer"
	"github.com/timur1516/stacklang/internal/parser"
	"github.com/timur1516/stacklang/internal/preprocess"
)

// translate runs the full stc pipeline over a testdata fixture and returns
// the encoded instruction and data binaries, mirroring cmd/stc's translate
// function without depending on the main package.
func translate(t *testing.T, path string) (insnBin, dataBin []byte) {
	t.Helper()
	opener := func(p string) (io.Reader, error) { return os.Open(p) }
	text, err := preprocess.Expand(path, opener)
	require.NoError(t, err)

	lex := lexer.New(text)
	p := parser.New(lex)
	program, err := p.Parse()
	require.NoError(t, err)

	result, err := codegen.Generate(program, p.Literals())
	require.NoError(t, err)

	instructions := append(append([]isa.Instruction{}, result.MainInstructions...), result.InterruptInstructions...)
	return binfmt.EncodeInstructions(instructions), binfmt.EncodeData(result.Data)
}

func runFixture(t *testing.T, path, scheduleText string, tickLimit int) []int32 {
	t.Helper()
	insnBin, dataBin := translate(t, path)
	out, err := driver.Run(bytes.NewReader(insnBin), bytes.NewReader(dataBin), bytes.NewReader([]byte(scheduleText)), tickLimit, zerolog.Nop())
	require.NoError(t, err)
	return out
}

func outputString(out []int32) string {
	b := make([]byte, len(out))
	for i, v := range out {
		b[i] = byte(v)
	}
	return string(b)
}

func TestGoldenHello(t *testing.T) {
	out := runFixture(t, "../../testdata/hello.stk", "", 10000)
	require.Equal(t, "Hello, World!", outputString(out))
}

func TestGoldenAddTwoNumbers(t *testing.T) {
	out := runFixture(t, "../../testdata/add_two_numbers.stk", "", 1000)
	require.Equal(t, []int32{5}, out)
}

func TestGoldenIfElse(t *testing.T) {
	out := runFixture(t, "../../testdata/if_else.stk", "", 1000)
	require.Equal(t, []int32{2}, out)
}

func TestGoldenLoop(t *testing.T) {
	out := runFixture(t, "../../testdata/loop.stk", "", 1000)
	require.Equal(t, []int32{5, 4, 3, 2, 1}, out)
}

func TestGoldenCat(t *testing.T) {
	out := runFixture(t, "../../testdata/cat.stk", "10 H\n40 i\n70 10\n", 500)
	require.Equal(t, "Hi\n", outputString(out))
}

func TestGoldenLongBranchUsesTrampoline(t *testing.T) {
	out := runFixture(t, "../../testdata/long_branch.stk", "", 5_000_000)
	require.Equal(t, []int32{5, 4, 3, 2, 1}, out)
}
