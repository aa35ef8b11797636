package isa

import "errors"

// ErrInvalidRegister is returned by Decode when a decoded register field
// names no architectural register.
var ErrInvalidRegister = errors.New("isa: invalid register")

// Register identifies one of the machine's general-purpose registers.
// Zero is hardwired to the value 0: writes to it are always dropped.
type Register uint32

const (
	Zero Register = iota
	T0
	T1
	T2
	T3
	SP
)

// NumRegisters is the number of architectural registers, including Zero.
const NumRegisters = 6

var registerNames = [NumRegisters]string{"zero", "t0", "t1", "t2", "t3", "sp"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return "<unknown register>"
}

// ValidRegister reports whether r names an architectural register.
func ValidRegister(r uint32) bool {
	return r < NumRegisters
}
