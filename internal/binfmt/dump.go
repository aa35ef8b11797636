package binfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/timur1516/stacklang/internal/isa"
)

// WriteHexDump writes the human-readable companion to a translated binary:
// first one `<address:3d> - <hex:08X> - <bin:032b>` line per data cell (no
// mnemonic), then one `<address:3d> - <hex:08X> - <bin:032b> - <mnemonic>`
// line per instruction, per spec.md §6. Grounded on
// original_source/src/isa/util/data_translators.py's to_hex, minus its
// header lines (is_interrupts_enabled/interrupt_handler_address), which
// spec.md's binary format carries no room for.
func WriteHexDump(w io.Writer, data []int32, instructions []isa.Instruction) error {
	for i, v := range data {
		addr := isa.DataAreaStart + i
		word := uint32(v)
		if _, err := fmt.Fprintf(w, "%3d - %08X - %032b\n", addr, word, word); err != nil {
			return err
		}
	}
	for _, instr := range instructions {
		word := instr.Encode()
		if _, err := fmt.Fprintf(w, "%3d - %08X - %032b - %s\n", instr.Address(), word, word, instr.String()); err != nil {
			return err
		}
	}
	return nil
}

// jsonInstruction mirrors spec.md §6's JSON dump shape for one instruction:
// {address, opcode, rd?, rs1?, rs2?, imm?}. Register/immediate fields are
// omitted (via omitempty) for shapes that don't carry them.
type jsonInstruction struct {
	Address uint32  `json:"address"`
	Opcode  string  `json:"opcode"`
	Rd      *string `json:"rd,omitempty"`
	Rs1     *string `json:"rs1,omitempty"`
	Rs2     *string `json:"rs2,omitempty"`
	Imm     *int32  `json:"imm,omitempty"`
}

func regPtr(r isa.Register) *string {
	s := r.String()
	return &s
}

func immPtr(n int32) *int32 { return &n }

func toJSONInstruction(instr isa.Instruction) jsonInstruction {
	out := jsonInstruction{Address: instr.Address(), Opcode: instr.Opcode().String()}
	switch v := instr.(type) {
	case *isa.U:
		out.Rd = regPtr(v.Rd)
		out.Imm = immPtr(v.Imm)
	case *isa.I:
		out.Rd = regPtr(v.Rd)
		out.Rs1 = regPtr(v.Rs1)
		out.Imm = immPtr(v.Imm)
	case *isa.R:
		out.Rd = regPtr(v.Rd)
		out.Rs1 = regPtr(v.Rs1)
		out.Rs2 = regPtr(v.Rs2)
	case *isa.S:
		out.Rs1 = regPtr(v.Rs1)
		out.Rs2 = regPtr(v.Rs2)
	case *isa.B:
		out.Rs1 = regPtr(v.Rs1)
		out.Rs2 = regPtr(v.Rs2)
		out.Imm = immPtr(v.Imm)
	case *isa.J:
		out.Imm = immPtr(v.Imm)
	case *isa.JR:
		out.Rs1 = regPtr(v.Rs1)
		out.Imm = immPtr(v.Imm)
	}
	return out
}

// jsonDataCell mirrors spec.md §6's JSON dump shape for one data cell:
// {address, word}.
type jsonDataCell struct {
	Address uint32 `json:"address"`
	Word    int32  `json:"word"`
}

// WriteJSONInstructions writes the instructions stream as a JSON array,
// used by the translator CLI when the output path doesn't end in `.bin`.
func WriteJSONInstructions(w io.Writer, instructions []isa.Instruction) error {
	out := make([]jsonInstruction, len(instructions))
	for i, instr := range instructions {
		out[i] = toJSONInstruction(instr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteJSONData writes the data stream as a JSON array of {address, word}.
func WriteJSONData(w io.Writer, data []int32) error {
	out := make([]jsonDataCell, len(data))
	for i, v := range data {
		out[i] = jsonDataCell{Address: uint32(isa.DataAreaStart + i), Word: v}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
