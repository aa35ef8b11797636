package codegen

import (
	"fmt"

	"github.com/timur1516/stacklang/internal/bitutil"
	"github.com/timur1516/stacklang/internal/isa"
)

// Resolve performs the two-pass fixed-point address/size resolution of
// spec.md §4.4: pass 1 lays out addresses treating every stub at its
// current estimated size; pass 2 recomputes each stub's size against its
// label's address and, if any size changed, restarts the sweep. Growth is
// monotone (1 -> 3 -> 5 for branches, 1 -> 3 for jumps) so the loop always
// terminates.
func Resolve(items []Item, startAddr uint32) ([]isa.Instruction, error) {
	for {
		addr := startAddr
		for _, it := range items {
			it.SetAddr(addr)
			addr += uint32(it.Size())
		}

		changed := false
		for _, it := range items {
			switch stub := it.(type) {
			case *BranchStub:
				size, err := branchSize(stub)
				if err != nil {
					return nil, err
				}
				if size != stub.size {
					stub.size = size
					changed = true
				}
			case *JumpStub:
				size, err := jumpSize(stub)
				if err != nil {
					return nil, err
				}
				if size != stub.size {
					stub.size = size
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	var out []isa.Instruction
	for _, it := range items {
		switch v := it.(type) {
		case *InstrItem:
			out = append(out, v.Instr)
		case *Label:
			// zero-size, nothing emitted
		case *BranchStub:
			expanded, err := expandBranch(v)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		case *JumpStub:
			expanded, err := expandJump(v)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		default:
			return nil, fmt.Errorf("codegen: unhandled item type %T", it)
		}
	}
	return out, nil
}

func branchSize(stub *BranchStub) (int, error) {
	offset := int64(stub.Target.addr) - int64(stub.addr)
	if bitutil.FitsSigned(offset, 15) {
		return 1, nil
	}
	if bitutil.FitsSigned(offset-2, 25) {
		return 3, nil
	}
	return 5, nil
}

func jumpSize(stub *JumpStub) (int, error) {
	offset := int64(stub.Target.addr) - int64(stub.addr)
	if bitutil.FitsSigned(offset, 25) {
		return 1, nil
	}
	return 3, nil
}

// expandBranch replaces a resolved BranchStub with its final instruction
// sequence, per spec.md §4.4's stub replacement policies.
func expandBranch(stub *BranchStub) ([]isa.Instruction, error) {
	offset := int64(stub.Target.addr) - int64(stub.addr)
	switch stub.size {
	case 1:
		instr := isa.NewB(stub.Op, stub.Rs1, stub.Rs2, int32(offset))
		instr.SetAddress(stub.addr)
		return []isa.Instruction{instr}, nil
	case 3:
		b0 := isa.NewB(stub.Op, stub.Rs1, stub.Rs2, 2)
		b0.SetAddress(stub.addr)
		j1 := isa.NewJ(isa.J, 2)
		j1.SetAddress(stub.addr + 1)
		j2 := isa.NewJ(isa.J, int32(offset-2))
		j2.SetAddress(stub.addr + 2)
		return []isa.Instruction{b0, j1, j2}, nil
	case 5:
		b0 := isa.NewB(stub.Op, stub.Rs1, stub.Rs2, 2)
		b0.SetAddress(stub.addr)
		j1 := isa.NewJ(isa.J, 4)
		j1.SetAddress(stub.addr + 1)
		upper, lower := splitImm32(int64(stub.Target.addr))
		lui := isa.NewU(isa.LUI, isa.T0, upper)
		lui.SetAddress(stub.addr + 2)
		addi := isa.NewI(isa.ADDI, isa.T0, isa.T0, lower)
		addi.SetAddress(stub.addr + 3)
		jr := isa.NewJR(isa.JR, isa.T0, 0)
		jr.SetAddress(stub.addr + 4)
		return []isa.Instruction{b0, j1, lui, addi, jr}, nil
	default:
		return nil, fmt.Errorf("codegen: invalid branch stub size %d", stub.size)
	}
}

// expandJump replaces a resolved JumpStub with its final instruction
// sequence.
func expandJump(stub *JumpStub) ([]isa.Instruction, error) {
	offset := int64(stub.Target.addr) - int64(stub.addr)
	switch stub.size {
	case 1:
		instr := isa.NewJ(isa.J, int32(offset))
		instr.SetAddress(stub.addr)
		return []isa.Instruction{instr}, nil
	case 3:
		upper, lower := splitImm32(int64(stub.Target.addr))
		lui := isa.NewU(isa.LUI, isa.T0, upper)
		lui.SetAddress(stub.addr)
		addi := isa.NewI(isa.ADDI, isa.T0, isa.T0, lower)
		addi.SetAddress(stub.addr + 1)
		jr := isa.NewJR(isa.JR, isa.T0, 0)
		jr.SetAddress(stub.addr + 2)
		return []isa.Instruction{lui, addi, jr}, nil
	default:
		return nil, fmt.Errorf("codegen: invalid jump stub size %d", stub.size)
	}
}
