package isa

// Compile-time memory-layout constants, per SPEC_FULL.md module 5/13.
const (
	// InstructionMemorySize is the number of 32-bit instruction slots. Sized
	// well above the B-shape immediate's 15-bit range (spec.md §3) so that a
	// single backward branch can still legitimately overflow it and exercise
	// the trampoline/absolute-jump fallbacks (spec.md §8's long-branch case)
	// without the loop itself exceeding the main code budget.
	InstructionMemorySize = 1 << 17

	// DataMemorySize is the number of 32-bit data words.
	DataMemorySize = 1 << 14

	// InterruptsHandlerAddress is where the interrupt handler's code is
	// placed in instruction memory. Main code must not reach this address.
	InterruptsHandlerAddress = InstructionMemorySize - 256

	// DataAreaStart is the first data-memory address available to
	// variables and the literal pool.
	DataAreaStart = 2

	// InputAddress is the memory-mapped address read by the interrupt
	// handler and the `read` operation.
	InputAddress = 0

	// OutputAddress is the memory-mapped address written by the `print`
	// operation.
	OutputAddress = 1
)
