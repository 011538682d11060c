package toyir

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// Instruction is toyir's implementation of ir.Instruction. A Phi is the
// same struct with opcode OpPhi; the Phi wrapper below adds AddIncoming.
type Instruction struct {
	id        uint32
	opcode    ir.Opcode
	typ       Type
	operands  []ir.Value
	predicate ir.Predicate
	block     *BasicBlock
	result    Value

	// attached is false for a Clone()'d-but-not-yet-InsertBefore'd
	// instruction: Users()/ReplaceAllUsesWith walk the block list of the
	// function the instruction belongs to, which only exists once attached.
	attached bool
}

var nextInstrID uint32 = 1

func freshInstrID() uint32 {
	id := nextInstrID
	nextInstrID++
	return id
}

func newInstruction(opcode ir.Opcode, typ Type, operands []ir.Value) *Instruction {
	i := &Instruction{
		id:       freshInstrID(),
		opcode:   opcode,
		typ:      typ,
		operands: operands,
	}
	if typ != Invalid {
		i.result = valueOfInstr(i)
	}
	return i
}

// ID implements ir.Instruction.
func (i *Instruction) ID() uint32 { return i.id }

// Opcode implements ir.Instruction.
func (i *Instruction) Opcode() ir.Opcode { return i.opcode }

// Type implements ir.Instruction.
func (i *Instruction) Type() ir.Type { return i.typ }

// Result implements ir.Instruction.
func (i *Instruction) Result() ir.Value {
	if i.typ == Invalid {
		return Value{}
	}
	return i.result
}

// Operands implements ir.Instruction.
func (i *Instruction) Operands() []ir.Value { return i.operands }

// SetOperand implements ir.Instruction.
func (i *Instruction) SetOperand(idx int, v ir.Value) { i.operands[idx] = v }

// Predicate implements ir.Instruction.
func (i *Instruction) Predicate() ir.Predicate { return i.predicate }

// SetPredicate implements ir.Instruction.
func (i *Instruction) SetPredicate(p ir.Predicate) { i.predicate = p }

// Block implements ir.Instruction.
func (i *Instruction) Block() ir.BasicBlock { return i.block }

// IsTerminator implements ir.Instruction.
func (i *Instruction) IsTerminator() bool {
	switch i.opcode {
	case OpJump, OpBranch, OpReturn:
		return true
	default:
		return false
	}
}

// SwapOperands implements ir.Instruction.
func (i *Instruction) SwapOperands() {
	i.operands[0], i.operands[1] = i.operands[1], i.operands[0]
	if theOpcodeInfo.IsCompare(i.opcode) {
		i.predicate = i.predicate.Swapped()
	}
}

// Clone implements ir.Instruction: a detached copy with a fresh result
// identity, not yet attached to any block.
func (i *Instruction) Clone() ir.Instruction {
	c := &Instruction{
		id:        freshInstrID(),
		opcode:    i.opcode,
		typ:       i.typ,
		operands:  append([]ir.Value(nil), i.operands...),
		predicate: i.predicate,
	}
	if c.typ != Invalid {
		c.result = valueOfInstr(c)
	}
	return c
}

// InsertBefore implements ir.Instruction.
func (i *Instruction) InsertBefore(mark ir.Instruction) {
	m := mark.(*Instruction)
	b := m.block
	idx := b.indexOf(m)
	b.instrs = append(b.instrs[:idx], append([]*Instruction{i}, b.instrs[idx:]...)...)
	i.block = b
	i.attached = true
}

// EraseFromParent implements ir.Instruction.
func (i *Instruction) EraseFromParent() {
	b := i.block
	idx := b.indexOf(i)
	b.instrs = append(b.instrs[:idx], b.instrs[idx+1:]...)
	i.attached = false
}

// DropAllReferences implements ir.Instruction.
func (i *Instruction) DropAllReferences() {
	for idx := range i.operands {
		i.operands[idx] = Value{}
	}
}

// ReplaceAllUsesWith implements ir.Instruction.
func (i *Instruction) ReplaceAllUsesWith(v ir.Value) {
	if i.typ == Invalid || i.block == nil {
		return
	}
	fn := i.block.fn
	mine := i.Result()
	for _, b := range fn.blocks {
		for _, instr := range b.instrs {
			for idx, op := range instr.operands {
				if op.Valid() && op.Equal(mine) {
					instr.operands[idx] = v
				}
			}
		}
	}
}

// Users implements ir.Instruction.
func (i *Instruction) Users() []ir.Instruction {
	if i.typ == Invalid || i.block == nil {
		return nil
	}
	mine := i.Result()
	var users []ir.Instruction
	fn := i.block.fn
	for _, b := range fn.blocks {
		for _, instr := range b.instrs {
			for _, op := range instr.operands {
				if op.Valid() && op.Equal(mine) {
					users = append(users, instr)
					break
				}
			}
		}
	}
	return users
}

func (i *Instruction) String() string {
	name := opcodeNames[i.opcode]
	var res string
	if i.typ != Invalid {
		res = fmt.Sprintf("%s = ", i.Result())
	}
	ops := ""
	for idx, o := range i.operands {
		if idx > 0 {
			ops += ", "
		}
		ops += o.String()
	}
	return fmt.Sprintf("%s%s %s", res, name, ops)
}

// Phi adapts an OpPhi Instruction to ir.Phi.
type Phi struct {
	*Instruction
}

// AddIncoming implements ir.Phi: fills the still-empty operand slot that
// lines up with pred in the owning block's predecessor list, or, if there
// is no such slot, grows the operand list by one.
func (p Phi) AddIncoming(v ir.Value, pred ir.BasicBlock) {
	b := p.block
	for idx, pr := range b.preds {
		if pr.ID() == pred.ID() && idx < len(p.operands) && !p.operands[idx].Valid() {
			p.operands[idx] = v
			return
		}
	}
	p.operands = append(p.operands, v)
}
