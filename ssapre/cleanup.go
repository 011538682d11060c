// Component C7: Rename cleanup and the induction pass.
package ssapre

// renameCleanup implements §4.6's "Rename cleanup": a non-materialized
// Factor whose proto-expression the approximate solver also attributes to
// an existing Φ in the same block is redundant with that Φ — kill it and
// record "use the Φ as-is" (⊤) so later phases skip straight past it.
func (p *pass) renameCleanup() {
	for _, b := range p.fn.RPO() {
		for _, f := range append([]ExprID(nil), p.blockToFactors[b.ID()]...) {
			fe := p.view(f)
			if fe.IsMaterialized {
				continue
			}
			for _, phi := range b.Phis() {
				if p.solveToken(phi, false) == fe.PE {
					p.substitute(fe.PE, f, exprTop)
					p.removeFactor(f)
					break
				}
			}
		}
	}
	p.inductionPass()
}

func (p *pass) removeFactor(f ExprID) {
	fe := p.view(f)
	list := p.blockToFactors[fe.Block.ID()]
	for i, x := range list {
		if x == f {
			p.blockToFactors[fe.Block.ID()] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func (p *pass) allFactors() []ExprID {
	var all []ExprID
	for _, list := range p.blockToFactors {
		all = append(all, list...)
	}
	return all
}

// inductionPass kills Factors SSAPRE cannot safely hoist or lower because
// doing so would move an induction variable's own recurrence: a Factor is
// inductive if one of its operands is an expression that itself consumes
// the Factor's bound Φ's result. Every Factor in the same block sharing
// that PE is killed alongside it (the documented simplification from the
// spec's "transitively depending" clause: this handles the common single-
// header case without chasing dependency edges across loop nests).
func (p *pass) inductionPass() {
	killed := make(map[ExprID]bool)
	for _, f := range p.allFactors() {
		fe := p.view(f)
		if !fe.IsMaterialized || fe.Phi == nil {
			continue
		}
		if p.isInductive(f) {
			p.killInductionGroup(f, killed)
		}
	}
}

func (p *pass) isInductive(f ExprID) bool {
	fe := p.view(f)
	result := fe.Phi.Result()
	for _, op := range fe.FactorOps {
		target := p.chase(fe.PE, op.VE)
		ve := p.view(target)
		if ve.Instr == nil {
			continue
		}
		for _, operand := range ve.Operands {
			if operand.Equal(result) {
				return true
			}
		}
	}
	return false
}

func (p *pass) killInductionGroup(f ExprID, killed map[ExprID]bool) {
	if killed[f] {
		return
	}
	killed[f] = true

	fe := p.view(f)
	blk := fe.Block.ID()
	pe := fe.PE
	if fe.IsMaterialized {
		p.substitute(pe, f, exprTop)
	} else {
		p.substitute(pe, f, exprBottom)
	}

	for _, other := range append([]ExprID(nil), p.blockToFactors[blk]...) {
		if other != f && p.view(other).PE == pe {
			p.killInductionGroup(other, killed)
		}
	}

	if !fe.IsMaterialized {
		p.removeFactor(f)
	}
}
