// Component C5: Factor insertion.
package ssapre

import "github.com/m4yers/llvm-opt-ssapre/ir"

// insertFactors implements §4.5: materialize existing Φ's that the
// accurate solver identifies as expression merges, then insert a
// non-materialized Factor at every remaining IDF block of every
// proto-expression.
func (p *pass) insertFactors() {
	p.materializeExistingPhis()
	p.insertIDFFactors()
}

func (p *pass) materializeExistingPhis() {
	var phis []ir.Instruction
	for _, b := range p.fn.RPO() {
		phis = append(phis, b.Phis()...)
	}

	tokens := make(map[uint32]ExprID, len(phis))
	for _, phi := range phis {
		tokens[phi.ID()] = p.solveToken(phi, true)
	}

	for _, phi := range phis {
		peID := tokens[phi.ID()]
		if p.isTop(peID) || p.isBottom(peID) {
			continue
		}

		id := p.createFactor(peID, phi.Block())
		e := p.view(id)
		e.IsMaterialized = true
		e.Phi, _ = phi.(ir.Phi)
		e.Instr = phi
		p.phiToFactor[phi.ID()] = id
		p.factorToPhi[id] = e.Phi

		// Every later lookup of this instruction must see the Factor, not
		// the plain PHI expression Init registered for it.
		p.instrToVExpr[phi.ID()] = id
		p.vExprToInstr[id] = phi
	}

	// Second pass: operand wiring happens after every Φ has been
	// classified, since a materialized Φ's own Factor ID is only
	// resolvable through instrToVExpr once the first pass above has run —
	// this is how a back-branch to another materialized Factor gets wired
	// instead of resolving to a plain VE.
	for _, phi := range phis {
		id, ok := p.phiToFactor[phi.ID()]
		if !ok {
			continue
		}
		e := p.view(id)
		preds := phi.Block().Preds()
		ops := phi.Operands()
		for i := range preds {
			e.FactorOps[i].VE = p.resolveIncoming(ops[i])
		}
	}
}

// resolveIncoming maps a Φ incoming Value to the VE or Factor naming it.
func (p *pass) resolveIncoming(v ir.Value) ExprID {
	if instr, ok := v.Instr(); ok {
		if id, ok := p.instrToVExpr[instr.ID()]; ok {
			return id
		}
		return exprBottom
	}
	if v.IsConstant() {
		return p.createConstant(v)
	}
	return p.createVariable(v)
}

func (p *pass) insertIDFFactors() {
	df := p.computeDominanceFrontier()

	for peID, blocks := range p.pExprToBlocks {
		if p.view(peID).Kind != ExprBasic {
			continue
		}
		for _, b := range p.iteratedDominanceFrontier(df, blocks) {
			if p.factorAt(b.ID(), peID) != exprInvalid {
				continue
			}
			p.createFactor(peID, b)
		}
	}
}

func (p *pass) factorAt(blockID uint32, peID ExprID) ExprID {
	for _, f := range p.blockToFactors[blockID] {
		if p.view(f).PE == peID {
			return f
		}
	}
	return exprInvalid
}

// computeDominanceFrontier is the standard Cytron-et-al construction,
// walking each block's idom chain from every predecessor of a join block.
func (p *pass) computeDominanceFrontier() map[uint32][]ir.BasicBlock {
	df := make(map[uint32][]ir.BasicBlock)
	for _, b := range p.fn.Blocks() {
		preds := b.Preds()
		if len(preds) < 2 {
			continue
		}
		idomB := p.dt.IDom(b)
		for _, pred := range preds {
			for runner := pred; runner.ID() != idomB.ID(); runner = p.dt.IDom(runner) {
				df[runner.ID()] = appendUniqueBlock(df[runner.ID()], b)
			}
		}
	}
	return df
}

func (p *pass) iteratedDominanceFrontier(df map[uint32][]ir.BasicBlock, seed []ir.BasicBlock) []ir.BasicBlock {
	seen := make(map[uint32]bool)
	var result []ir.BasicBlock
	worklist := append([]ir.BasicBlock(nil), seed...)

	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		for _, f := range df[b.ID()] {
			if seen[f.ID()] {
				continue
			}
			seen[f.ID()] = true
			result = append(result, f)
			worklist = append(worklist, f)
		}
	}
	return result
}

func appendUniqueBlock(blocks []ir.BasicBlock, b ir.BasicBlock) []ir.BasicBlock {
	for _, existing := range blocks {
		if existing.ID() == b.ID() {
			return blocks
		}
	}
	return append(blocks, b)
}
