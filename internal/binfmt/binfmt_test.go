package binfmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timur1516/stacklang/internal/isa"
)

func TestEncodeDecodeRecordsRoundTrip(t *testing.T) {
	instr := isa.NewI(isa.ADDI, isa.T0, isa.Zero, 41)
	instr.SetAddress(3)
	raw := EncodeInstructions([]isa.Instruction{instr})

	decoded, err := DecodeInstructions(raw)
	require.NoError(t, err)
	require.Contains(t, decoded, uint32(3))
	require.Equal(t, instr.Encode(), decoded[3].Encode())
}

func TestDecodeRecordsDropsTrailingPartial(t *testing.T) {
	raw := EncodeRecords([]Record{{Address: 0, Value: 7}})
	raw = append(raw, 0x01, 0x02) // trailing partial record

	records := DecodeRecords(raw)
	require.Len(t, records, 1)
	require.EqualValues(t, 7, records[0].Value)
}

func TestEncodeDataRoundTrip(t *testing.T) {
	raw := EncodeData([]int32{10, -20})
	decoded, err := DecodeData(raw)
	require.NoError(t, err)
	require.EqualValues(t, 10, decoded[isa.DataAreaStart])
	require.EqualValues(t, -20, decoded[isa.DataAreaStart+1])
}

func TestWriteHexDumpFormat(t *testing.T) {
	instr := isa.NewPlain(isa.HALT)
	instr.SetAddress(5)
	var buf bytes.Buffer
	require.NoError(t, WriteHexDump(&buf, []int32{99}, []isa.Instruction{instr}))
	require.Contains(t, buf.String(), "  5 -")
	require.Contains(t, buf.String(), "halt")
}

func TestWriteJSONInstructionsIncludesOperands(t *testing.T) {
	instr := isa.NewR(isa.ADD, isa.T0, isa.T1, isa.T2)
	instr.SetAddress(2)
	var buf bytes.Buffer
	require.NoError(t, WriteJSONInstructions(&buf, []isa.Instruction{instr}))
	require.Contains(t, buf.String(), `"address": 2`)
	require.Contains(t, buf.String(), `"rd"`)
}
