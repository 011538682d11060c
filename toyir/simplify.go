package toyir

import "github.com/m4yers/llvm-opt-ssapre/ir"

// Simplifier is toyir's implementation of ir.Simplifier: constant-folds
// arithmetic/compare instructions with two constant operands, and
// collapses an obvious identity (x+0, x*1, x-0) to the other operand —
// the toy equivalent of the teacher's InstructionSimplify pass, scaled
// down to the handful of opcodes toyir has.
type Simplifier struct{}

// Simplify implements ir.Simplifier.
func (Simplifier) Simplify(instr ir.Instruction) (ir.Value, bool) {
	ops := instr.Operands()
	if len(ops) != 2 {
		return nil, false
	}
	lhs, rhs := ops[0], ops[1]

	if lhs.IsConstant() && rhs.IsConstant() {
		l, r := int64(lhs.ConstantBits()), int64(rhs.ConstantBits())
		switch instr.Opcode() {
		case OpIAdd:
			return NewConst(instr.Type().(Type), uint64(l+r)), true
		case OpISub:
			return NewConst(instr.Type().(Type), uint64(l-r)), true
		case OpIMul:
			return NewConst(instr.Type().(Type), uint64(l*r)), true
		case OpICmp:
			return NewConst(Bool, boolBits(evalCmp(instr.Predicate(), l, r))), true
		}
	}

	switch instr.Opcode() {
	case OpIAdd:
		if rhs.IsConstant() && rhs.ConstantBits() == 0 {
			return lhs, true
		}
		if lhs.IsConstant() && lhs.ConstantBits() == 0 {
			return rhs, true
		}
	case OpISub:
		if rhs.IsConstant() && rhs.ConstantBits() == 0 {
			return lhs, true
		}
	case OpIMul:
		if rhs.IsConstant() && rhs.ConstantBits() == 1 {
			return lhs, true
		}
		if lhs.IsConstant() && lhs.ConstantBits() == 1 {
			return rhs, true
		}
	}

	return nil, false
}

func evalCmp(p ir.Predicate, l, r int64) bool {
	switch p {
	case ir.PredEQ:
		return l == r
	case ir.PredNE:
		return l != r
	case ir.PredLT:
		return l < r
	case ir.PredLE:
		return l <= r
	case ir.PredGT:
		return l > r
	case ir.PredGE:
		return l >= r
	default:
		return false
	}
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
