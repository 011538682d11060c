// Component C4: the token-propagation solver shared by Factor insertion
// (accurate mode) and rename cleanup (approximate mode).
package ssapre

import "github.com/m4yers/llvm-opt-ssapre/ir"

// meet implements the §4.4 lattice: x∧x=x, ⊤∧x=x, ⊥∧x=⊥, and two distinct
// real PEs meet to ⊥.
func (p *pass) meet(a, b ExprID) ExprID {
	if a == b {
		return a
	}
	if p.isTop(a) {
		return b
	}
	if p.isTop(b) {
		return a
	}
	return exprBottom
}

// solveToken computes the token for phi: ⊤ if every operand is a
// self-loop, ⊥ if any operand can't be attributed to a single PE, or the
// PE every operand agrees on. accurate selects which way constants and
// variables round: accurate (used by Factor insertion, which must not
// mis-materialize a Φ) counts them as ⊥; approximate (used by rename
// cleanup, which must not miss a legitimate match) counts them as ⊤.
func (p *pass) solveToken(phi ir.Instruction, accurate bool) ExprID {
	return p.solveTokenRec(phi, accurate, map[uint32]bool{phi.ID(): true})
}

func (p *pass) solveTokenRec(phi ir.Instruction, accurate bool, inProgress map[uint32]bool) ExprID {
	result := exprTop
	backBranches := 0

	for _, operand := range phi.Operands() {
		result = p.meet(result, p.tokenOfOperand(operand, phi, accurate, inProgress, &backBranches))
	}

	if backBranches > 1 {
		panic("ssapre: BUG: Φ has more than one back-branch predecessor carrying a pending token")
	}

	return result
}

func (p *pass) tokenOfOperand(operand ir.Value, phi ir.Instruction, accurate bool, inProgress map[uint32]bool, backBranches *int) ExprID {
	if instr, ok := operand.Instr(); ok && instr.ID() == phi.ID() {
		return exprTop // self-loop
	}

	if operand.IsConstant() || operand.IsArg() {
		if accurate {
			return exprBottom
		}
		return exprTop
	}

	instr, ok := operand.Instr()
	if !ok {
		return exprBottom
	}

	switch p.opc.Class(instr.Opcode()) {
	case ir.ClassIgnored, ir.ClassUnknown:
		return exprBottom
	case ir.ClassPhi:
		if inProgress[instr.ID()] {
			*backBranches++
			return exprTop
		}
		inProgress[instr.ID()] = true
		tok := p.solveTokenRec(instr, accurate, inProgress)
		delete(inProgress, instr.ID())
		return tok
	default:
		ve, ok := p.instrToVExpr[instr.ID()]
		if !ok {
			return exprBottom
		}
		return p.peOf(ve)
	}
}
