// Component C9: Finalize.
package ssapre

import "github.com/m4yers/llvm-opt-ssapre/ir"

type availKey struct {
	pe      ExprID
	version int64
}

// finalize implements §4.8: a DT walk that, per (PE, version), tracks the
// dominating definition currently in scope and either installs a fresh
// occurrence as that definition or substitutes it with the existing one.
// The table is a plain map rather than a push/pop stack: an entry that no
// longer dominates the current block is simply overwritten by the next
// installer, which is exactly the self-correcting behavior the dominance
// check below produces.
func (p *pass) finalize() {
	avail := make(map[availKey]ExprID)

	for _, b := range p.dtDFSOrder() {
		for _, f := range p.blockToFactors[b.ID()] {
			fe := p.view(f)
			if fe.WillBeAvail() || fe.IsMaterialized || p.hasAnyCycle(fe) {
				avail[availKey{fe.PE, fe.Version}] = f
			}
		}

		for _, instr := range b.Instructions() {
			ve, ok := p.instrToVExpr[instr.ID()]
			if !ok {
				continue
			}
			e := p.view(ve)
			if e.Kind == ExprIgnored {
				continue
			}

			for _, opVal := range e.Operands {
				p.view(p.resolveIncoming(opVal)).SaveCount++
			}

			if e.Kind == ExprPhi && len(e.Operands) == 1 {
				p.substitute(p.peOf(ve), ve, p.resolveIncoming(e.Operands[0]))
				continue
			}
			if e.Kind == ExprFactor || e.Kind == ExprVariable || e.Kind == ExprConstant {
				continue
			}

			pe := p.peOf(ve)
			key := availKey{pe, e.Version}
			cur, have := avail[key]

			if !have || p.isBottom(cur) || p.isVarOrConst(cur) || !p.dominatesUse(cur, b, instr) {
				avail[key] = ve
				continue
			}
			p.substitute(pe, ve, cur)
		}
	}
}

func (p *pass) hasAnyCycle(fe *Expression) bool {
	for _, op := range fe.FactorOps {
		if op.IsCycle {
			return true
		}
	}
	return false
}

func (p *pass) isVarOrConst(id ExprID) bool {
	k := p.view(id).Kind
	return k == ExprVariable || k == ExprConstant
}

// dominatesUse reports whether def's definition point strictly precedes
// use (in useBlock) on every path — same-block defs count if they precede
// use in program order, which is what makes straight-line CSE (two
// occurrences of a+b in one block) resolve to a substitution rather than
// two independent definitions.
func (p *pass) dominatesUse(def ExprID, useBlock ir.BasicBlock, use ir.Instruction) bool {
	de := p.view(def)

	var defBlock ir.BasicBlock
	var defPos int64
	if de.Kind == ExprFactor {
		defBlock = de.Block
		defPos = p.blockFirstDFS[de.Block.ID()] - 1
	} else if de.Instr != nil {
		defBlock = de.Instr.Block()
		defPos = p.instrDFS[de.Instr.ID()]
	} else {
		return true
	}

	if defBlock.ID() == useBlock.ID() {
		return defPos < p.instrDFS[use.ID()]
	}
	return p.dt.Dominates(defBlock, useBlock)
}
