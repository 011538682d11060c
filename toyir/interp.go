package toyir

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// Interp is a trivial interpreter over toyir functions, used by tests to
// check behavioral equivalence (P1) between a function before and after
// the pass runs. It does not model memory: Load always returns zero,
// Store is a no-op, and Call panics — toyir functions under test stick
// to arithmetic, compares and control flow.
type Interp struct {
	fn  *Function
	env map[uint64]uint64
}

// NewInterp returns an interpreter for fn with the given argument values
// (bit patterns, positional, matching fn.Args()).
func NewInterp(fn *Function, args []uint64) *Interp {
	env := make(map[uint64]uint64)
	for i, a := range fn.args {
		if i < len(args) {
			env[a.Key()] = args[i]
		}
	}
	return &Interp{fn: fn, env: env}
}

// Run executes fn from its entry block and returns the bit pattern
// returned by the first Return instruction reached, or (0, false) if
// execution falls off the end without returning.
func (it *Interp) Run() (uint64, bool) {
	b := it.fn.entry
	var prev *BasicBlock
	for {
		// Phis read from prev, the block execution is arriving from.
		for _, instr := range b.instrs {
			if instr.opcode != OpPhi {
				break
			}
			idx := predIndexOf(b, prev)
			it.env[instr.Result().Key()] = it.eval(instr.operands[idx])
		}

		var next *BasicBlock
		for _, instr := range b.instrs {
			switch instr.opcode {
			case OpPhi:
				continue
			case OpIAdd:
				it.set(instr, it.eval(instr.operands[0])+it.eval(instr.operands[1]))
			case OpISub:
				it.set(instr, it.eval(instr.operands[0])-it.eval(instr.operands[1]))
			case OpIMul:
				it.set(instr, it.eval(instr.operands[0])*it.eval(instr.operands[1]))
			case OpICmp:
				l, r := int64(it.eval(instr.operands[0])), int64(it.eval(instr.operands[1]))
				it.set(instr, boolBits(evalCmp(instr.predicate, l, r)))
			case OpNot:
				it.set(instr, boolBits(it.eval(instr.operands[0]) == 0))
			case OpLoad:
				it.set(instr, 0)
			case OpStore:
				// no-op: toyir has no memory model.
			case OpSelect:
				if it.eval(instr.operands[0]) != 0 {
					it.set(instr, it.eval(instr.operands[1]))
				} else {
					it.set(instr, it.eval(instr.operands[2]))
				}
			case OpJump:
				next = b.succs[0]
			case OpBranch:
				if it.eval(instr.operands[0]) != 0 {
					next = b.succs[0]
				} else {
					next = b.succs[1]
				}
			case OpReturn:
				if len(instr.operands) > 0 {
					return it.eval(instr.operands[0]), true
				}
				return 0, true
			case OpCall:
				panic("toyir: interp: calls are not modeled")
			}
		}

		if next == nil {
			return 0, false
		}
		prev, b = b, next
	}
}

func predIndexOf(b, pred *BasicBlock) int {
	for i, p := range b.preds {
		if p == pred {
			return i
		}
	}
	panic(fmt.Sprintf("toyir: interp: block%d is not a predecessor of block%d", pred.id, b.id))
}

func (it *Interp) eval(v ir.Value) uint64 {
	val := v.(Value)
	if val.IsConstant() {
		return val.ConstantBits()
	}
	return it.env[val.Key()]
}

func (it *Interp) set(instr *Instruction, bits uint64) {
	it.env[instr.Result().Key()] = bits
}
