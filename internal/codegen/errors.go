package codegen

import "errors"

// ErrUnknownOperation indicates an ast.Operation node whose kind has no
// entry in the operation producer table.
var ErrUnknownOperation = errors.New("codegen: unknown operation")

// ErrAddressOverflow indicates a symbol address, literal address, or
// computed immediate could not be represented in its target field.
var ErrAddressOverflow = errors.New("codegen: address does not fit target field")

// ErrDataOverflow indicates the data segment grew past data memory size.
var ErrDataOverflow = errors.New("codegen: data segment exceeds data memory size")

// ErrInstructionOverflow indicates a resolved instruction stream exceeds
// its allotted address range (the main/interrupt boundary, or instruction
// memory itself).
var ErrInstructionOverflow = errors.New("codegen: instruction stream exceeds its allotted range")
