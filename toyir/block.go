package toyir

import (
	"fmt"
	"strings"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// BasicBlock is toyir's implementation of ir.BasicBlock.
type BasicBlock struct {
	id     uint32
	fn     *Function
	instrs []*Instruction
	preds  []*BasicBlock
	succs  []*BasicBlock
}

// ID implements ir.BasicBlock.
func (b *BasicBlock) ID() uint32 { return b.id }

// Instructions implements ir.BasicBlock.
func (b *BasicBlock) Instructions() []ir.Instruction {
	out := make([]ir.Instruction, len(b.instrs))
	for i, instr := range b.instrs {
		if instr.opcode == OpPhi {
			out[i] = Phi{instr}
			continue
		}
		out[i] = instr
	}
	return out
}

// Phis implements ir.BasicBlock.
func (b *BasicBlock) Phis() []ir.Instruction {
	var out []ir.Instruction
	for _, instr := range b.instrs {
		if instr.opcode != OpPhi {
			break
		}
		out = append(out, Phi{instr})
	}
	return out
}

// FirstNonPhi implements ir.BasicBlock.
func (b *BasicBlock) FirstNonPhi() ir.Instruction {
	for _, instr := range b.instrs {
		if instr.opcode != OpPhi {
			return instr
		}
	}
	return b.Terminator()
}

// Terminator implements ir.BasicBlock.
func (b *BasicBlock) Terminator() ir.Instruction {
	if len(b.instrs) == 0 {
		return nil
	}
	return b.instrs[len(b.instrs)-1]
}

// Preds implements ir.BasicBlock.
func (b *BasicBlock) Preds() []ir.BasicBlock {
	out := make([]ir.BasicBlock, len(b.preds))
	for i, p := range b.preds {
		out[i] = p
	}
	return out
}

// Succs implements ir.BasicBlock.
func (b *BasicBlock) Succs() []ir.BasicBlock {
	out := make([]ir.BasicBlock, len(b.succs))
	for i, s := range b.succs {
		out[i] = s
	}
	return out
}

func (b *BasicBlock) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "block%d:\n", b.id)
	for _, instr := range b.instrs {
		fmt.Fprintf(&sb, "  %s\n", instr.String())
	}
	return sb.String()
}

func (b *BasicBlock) indexOf(i *Instruction) int {
	for idx, instr := range b.instrs {
		if instr == i {
			return idx
		}
	}
	panic("toyir: BUG: instruction not found in its own block")
}
