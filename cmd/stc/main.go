// Command stc translates stack-language source into the instruction and
// data binaries spec.md §6 describes, following the teacher's cmd/asm in
// shape (read source, run the pipeline, write machine code) generalized
// from a single assembler pass to preprocess -> lex -> parse -> generate ->
// encode, and from flag to cobra per SPEC_FULL.md §2.1.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timur1516/stacklang/internal/binfmt"
	"github.com/timur1516/stacklang/internal/codegen"
	"github.com/timur1516/stacklang/internal/isa"
	"github.com/timur1516/stacklang/internal/lexer"
	"github.com/timur1516/stacklang/internal/parser"
	"github.com/timur1516/stacklang/internal/preprocess"
)

func main() {
	log.SetFlags(0)

	var includeDir string
	var out string
	var dataOut string

	root := &cobra.Command{
		Use:   "stc <source>",
		Short: "translate stack-language source into machine code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return translate(args[0], includeDir, out, dataOut)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&includeDir, "include-dir", "", "base directory for resolving #include paths")
	root.Flags().StringVarP(&out, "out", "o", "out.bin", "instructions output path")
	root.Flags().StringVar(&dataOut, "data-out", "data.bin", "data output path")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func translate(source, includeDir, out, dataOut string) error {
	opener := func(path string) (io.Reader, error) {
		if includeDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(includeDir, path)
		}
		return os.Open(path)
	}

	text, err := preprocess.Expand(source, opener)
	if err != nil {
		return fmt.Errorf("stc: preprocessing: %w", err)
	}

	lex := lexer.New(text)
	p := parser.New(lex)
	program, err := p.Parse()
	if err != nil {
		return fmt.Errorf("stc: parsing: %w", err)
	}

	result, err := codegen.Generate(program, p.Literals())
	if err != nil {
		return fmt.Errorf("stc: code generation: %w", err)
	}

	instructions := append(append([]isa.Instruction{}, result.MainInstructions...), result.InterruptInstructions...)

	if strings.HasSuffix(out, ".bin") {
		if err := writeFile(out, binfmt.EncodeInstructions(instructions)); err != nil {
			return err
		}
		if err := writeFile(dataOut, binfmt.EncodeData(result.Data)); err != nil {
			return err
		}
		return writeHexCompanion(out, result.Data, instructions)
	}

	insnFile, err := os.Create(out)
	if err != nil {
		return err
	}
	defer insnFile.Close()
	if err := binfmt.WriteJSONInstructions(insnFile, instructions); err != nil {
		return err
	}

	dataFile, err := os.Create(dataOut)
	if err != nil {
		return err
	}
	defer dataFile.Close()
	return binfmt.WriteJSONData(dataFile, result.Data)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func writeHexCompanion(out string, data []int32, instructions []isa.Instruction) error {
	f, err := os.Create(strings.TrimSuffix(out, ".bin") + ".hex")
	if err != nil {
		return err
	}
	defer f.Close()
	return binfmt.WriteHexDump(f, data, instructions)
}
