// Package binfmt encodes and decodes the instruction/data binary files and
// their human-readable companions, per spec.md §6. Grounded on
// original_source/src/isa/util/data_translators.py's to_bytes/from_bytes
// pair, re-expressed against spec.md's flat (address, value) pair layout
// (the original prefixes a header of interrupt flag/handler address/data
// length that spec.md's format has no room for — spec.md is normative).
package binfmt

import (
	"fmt"

	"github.com/timur1516/stacklang/internal/bitutil"
	"github.com/timur1516/stacklang/internal/isa"
)

// Record is one (address, value) pair as stored in a binary file.
type Record struct {
	Address uint32
	Value   uint32
}

// EncodeInstructions packs instructions into the binary (address, word)
// pair format, addresses taken from each Instruction's own Address field.
func EncodeInstructions(instructions []isa.Instruction) []byte {
	records := make([]Record, len(instructions))
	for i, instr := range instructions {
		records[i] = Record{Address: instr.Address(), Value: instr.Encode()}
	}
	return EncodeRecords(records)
}

// EncodeData packs data cells into the binary (address, value) pair
// format, addresses starting at isa.DataAreaStart.
func EncodeData(data []int32) []byte {
	records := make([]Record, len(data))
	for i, v := range data {
		records[i] = Record{Address: uint32(isa.DataAreaStart + i), Value: uint32(v)}
	}
	return EncodeRecords(records)
}

// EncodeRecords serializes records as pairs of big-endian 32-bit words, per
// spec.md §6's binary format.
func EncodeRecords(records []Record) []byte {
	out := make([]byte, 0, len(records)*8)
	for _, r := range records {
		addrBytes := bitutil.WordToBytes(r.Address)
		valBytes := bitutil.WordToBytes(r.Value)
		out = append(out, addrBytes[:]...)
		out = append(out, valBytes[:]...)
	}
	return out
}

// DecodeRecords parses the binary (address, value) pair format, silently
// dropping a trailing partial record per spec.md §6.
func DecodeRecords(raw []byte) []Record {
	words := bitutil.BytesToWords(raw)
	n := len(words) / 2
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Record{Address: words[2*i], Value: words[2*i+1]})
	}
	return out
}

// DecodeInstructions parses a binary instructions file into an
// address-indexed instruction map, suitable for machine.NewControlUnit.
func DecodeInstructions(raw []byte) (map[uint32]isa.Instruction, error) {
	records := DecodeRecords(raw)
	out := make(map[uint32]isa.Instruction, len(records))
	for _, r := range records {
		instr, err := isa.Decode(r.Value)
		if err != nil {
			return nil, fmt.Errorf("binfmt: decoding instruction at address %d: %w", r.Address, err)
		}
		instr.SetAddress(r.Address)
		out[r.Address] = instr
	}
	return out, nil
}

// DecodeData parses a binary data file into a sparse cell map keyed by
// absolute data-memory address (EncodeData's records start at
// isa.DataAreaStart).
func DecodeData(raw []byte) (map[uint32]int32, error) {
	records := DecodeRecords(raw)
	out := make(map[uint32]int32, len(records))
	for _, r := range records {
		out[r.Address] = int32(r.Value)
	}
	return out, nil
}
