// Component C10: CodeMotion.
package ssapre

import "github.com/m4yers/llvm-opt-ssapre/ir"

// codeMotion implements §4.9: a bottom-up walk resolving cycled and
// DownSafe Factors (inserting or lowering computations as it goes),
// factorCleanup closing substitution chains, a top-down pass closing the
// chains factorCleanup's bottom-up order couldn't see yet, real-Φ
// materialization for whatever Factor is still standing, then applying
// every resolved substitution to the IR and killing what's left unused.
func (p *pass) codeMotion() {
	for _, b := range p.bottomUpBlocks() {
		for _, f := range append([]ExprID(nil), p.blockToFactors[b.ID()]...) {
			p.bottomUpFactor(f)
		}
	}

	for _, b := range p.dtDFSOrder() {
		for _, f := range p.blockToFactors[b.ID()] {
			if !p.view(f).IsMaterialized {
				p.factorCleanup(f)
			}
		}
	}

	p.materializeRemainingFactors()
	p.applySubstitutions()
	p.processKillList()
}

func (p *pass) bottomUpBlocks() []ir.BasicBlock {
	order := p.dtDFSOrder()
	rev := make([]ir.BasicBlock, len(order))
	for i, b := range order {
		rev[len(order)-1-i] = b
	}
	return rev
}

func (p *pass) bottomUpFactor(f ExprID) {
	fe := p.view(f)
	if p.anyCycleOp(fe) {
		p.handleCycledFactor(f)
	} else if fe.DownSafe {
		p.handleDownSafeFactor(f)
	}
	p.factorCleanup(f)
}

func (p *pass) anyCycleOp(fe *Expression) bool {
	for _, op := range fe.FactorOps {
		if op.IsCycle {
			return true
		}
	}
	return false
}

// handleCycledFactor is the loop-invariant hoist: a Factor with exactly
// one non-cycled operand that is ⊥ or a real computation (not a
// Variable/Constant/another Factor — we don't know whether the loop body
// executes, so we can't assume its value is even defined) gets a clone of
// its proto-expression inserted at the end of the non-cycled predecessor,
// ahead of the loop. A Factor that is not DownSafe and has no real use on
// a cycled edge is set to ⊥ instead.
func (p *pass) handleCycledFactor(f ExprID) {
	fe := p.view(f)

	var nonCycled []FactorOperand
	cycledRealUse := false
	for _, op := range fe.FactorOps {
		if op.IsCycle {
			if op.HasRealUse {
				cycledRealUse = true
			}
		} else {
			nonCycled = append(nonCycled, op)
		}
	}

	if len(nonCycled) != 1 {
		return // more than one non-cycled operand: F must stay as-is
	}

	v := nonCycled[0]
	if !v.VE.Valid() {
		return
	}
	if !p.isBottom(v.VE) {
		ve := p.view(v.VE)
		if ve.Kind == ExprVariable || ve.Kind == ExprConstant || ve.Kind == ExprFactor {
			return // conservative: loop may never execute
		}
	}

	if !cycledRealUse && !fe.DownSafe {
		p.substitute(fe.PE, f, exprBottom)
		return
	}

	if !p.protoOperandsDominate(fe.PE, v.Pred) {
		return
	}

	instr := p.cloneProto(fe.PE, v.Pred.Terminator())
	newVE := p.installNewVE(fe.PE, instr, fe.Version)
	p.chargeProtoOperandSaves(fe.PE)
	p.substitute(fe.PE, f, newVE)
}

// handleDownSafeFactor implements the non-cycled DownSafe branch: either
// insert the missing computation on every predecessor that doesn't
// already have it available (making F a real merge of equal values), or
// — if F is already a materialized Φ and availability can be deferred —
// lower the computation from F's predecessors down into F's own block.
func (p *pass) handleDownSafeFactor(f ExprID) {
	fe := p.view(f)

	if fe.WillBeAvail() && !fe.IsMaterialized {
		for i := range fe.FactorOps {
			op := &fe.FactorOps[i]
			missing := p.isBottom(op.VE) ||
				(!op.HasRealUse && op.VE.Valid() && p.view(op.VE).Kind == ExprFactor && !p.view(op.VE).WillBeAvail())
			if !missing || !p.protoOperandsDominate(fe.PE, op.Pred) {
				continue
			}
			instr := p.cloneProto(fe.PE, op.Pred.Terminator())
			newVE := p.installNewVE(fe.PE, instr, fe.Version)
			p.chargeProtoOperandSaves(fe.PE)
			op.VE = newVE
			op.HasRealUse = true
		}
		return
	}

	if fe.IsMaterialized && fe.Later && p.protoOperandsDominate(fe.PE, fe.Block) {
		instr := p.cloneProto(fe.PE, fe.Block.FirstNonPhi())
		newVE := p.installNewVE(fe.PE, instr, fe.Version)
		p.chargeProtoOperandSaves(fe.PE)
		p.substitute(fe.PE, f, newVE)
	}
}

// factorCleanup closes a Factor's fate once its operands are known: a
// unanimous operand wins outright, disagreement touching ⊥/⊤ collapses to
// ⊤, and a non-materialized Factor that never earned DownSafe/WillBeAvail
// falls back to ⊥/⊤ respectively. What's left standing after this (for a
// non-materialized Factor) is exactly what needs a real Φ.
func (p *pass) factorCleanup(f ExprID) {
	fe := p.view(f)
	if p.chase(fe.PE, f) != f {
		return // already resolved by the bottom-up handling above
	}

	agree := true
	sole := exprInvalid
	anyBottomOrTop := false
	for _, op := range fe.FactorOps {
		target := op.VE
		if target.Valid() {
			target = p.chase(fe.PE, target)
		}
		if p.isBottom(target) || p.isTop(target) {
			anyBottomOrTop = true
		}
		if !sole.Valid() {
			sole = target
		} else if sole != target {
			agree = false
		}
	}

	switch {
	case agree && sole.Valid():
		p.substitute(fe.PE, f, sole)
	case anyBottomOrTop:
		p.substitute(fe.PE, f, exprTop)
	case !fe.IsMaterialized && !fe.DownSafe:
		p.substitute(fe.PE, f, exprBottom)
	case !fe.IsMaterialized && !fe.WillBeAvail():
		p.substitute(fe.PE, f, exprTop)
	}
}

// materializeRemainingFactors binds a real Φ to every Factor factorCleanup
// left unresolved — necessarily DownSafe and WillBeAvail with genuinely
// disagreeing operands, i.e. a real partial-redundancy merge point. Φ's
// are created first and wired second so that two Factors mutually
// referencing each other (a join shared by two expressions merging at the
// same point) can still resolve each other's incoming values.
func (p *pass) materializeRemainingFactors() {
	var pending []ExprID
	for _, b := range p.fn.RPO() {
		for _, f := range p.blockToFactors[b.ID()] {
			fe := p.view(f)
			if !fe.IsMaterialized && p.chase(fe.PE, f) == f {
				pending = append(pending, f)
			}
		}
	}

	for _, f := range pending {
		fe := p.view(f)
		phi := p.fn.NewPhi(fe.Block, fe.Type)
		fe.IsMaterialized = true
		fe.Phi = phi
		fe.Instr = phi
		p.factorToPhi[f] = phi
		p.phiToFactor[phi.ID()] = f
		p.vExprToInstr[f] = phi
		p.instrToVExpr[phi.ID()] = f
		p.stats.PHIInserted++
	}

	for _, f := range pending {
		fe := p.view(f)
		for _, op := range fe.FactorOps {
			target := op.VE
			if target.Valid() {
				target = p.chase(fe.PE, target)
			}
			fe.Phi.AddIncoming(p.valueOf(target), op.Pred)
		}
	}
}

// applySubstitutions walks every real instruction with a VE, replaces its
// uses with whatever it finally chased to (skipping ⊤, which means "keep
// using this as-is"), and schedules the now-dead original for killing.
func (p *pass) applySubstitutions() {
	for _, b := range p.fn.RPO() {
		for _, instr := range append([]ir.Instruction(nil), b.Instructions()...) {
			ve, ok := p.instrToVExpr[instr.ID()]
			if !ok {
				continue
			}
			e := p.view(ve)
			if e.Kind == ExprFactor && !e.IsMaterialized {
				continue
			}

			pe := p.peOf(ve)
			s := p.chase(pe, ve)
			if s == ve || p.isTop(s) {
				continue
			}
			if p.isBottom(s) {
				if len(instr.Users()) == 0 {
					p.enqueueKill(instr)
				}
				continue
			}

			target := p.valueOf(s)
			usersBefore := len(instr.Users())
			instr.ReplaceAllUsesWith(target)
			p.view(s).SaveCount += usersBefore
			p.stats.InstrSubstituted++
			p.enqueueKill(instr)
		}
	}
}

func (p *pass) enqueueKill(instr ir.Instruction) {
	if p.killed[instr.ID()] {
		return
	}
	p.killed[instr.ID()] = true
	p.killList = append(p.killList, instr)
}

// processKillList implements §4.9's Kill: a worklist over instructions to
// erase, decrementing operand save-counts and cascading to any operand
// that reaches zero. The visited set (p.killed) guards against the
// documented re-enqueue hazard in the design notes.
func (p *pass) processKillList() {
	worklist := append([]ir.Instruction(nil), p.killList...)
	for len(worklist) > 0 {
		instr := worklist[0]
		worklist = worklist[1:]

		if ve, ok := p.instrToVExpr[instr.ID()]; ok {
			e := p.view(ve)
			for _, opVal := range e.Operands {
				opID := p.resolveIncoming(opVal)
				oe := p.view(opID)
				oe.SaveCount--
				if oe.SaveCount <= 0 && oe.Kind != ExprIgnored && oe.Instr != nil && !p.killed[oe.Instr.ID()] {
					p.killed[oe.Instr.ID()] = true
					worklist = append(worklist, oe.Instr)
				}
			}
		}

		wasPHI := p.isPhiInstr(instr)
		instr.DropAllReferences()
		instr.EraseFromParent()
		if wasPHI {
			p.stats.PHIKilled++
		} else {
			p.stats.InstrKilled++
		}
	}
}

func (p *pass) valueOf(id ExprID) ir.Value {
	e := p.view(id)
	if e.Kind == ExprVariable || e.Kind == ExprConstant {
		return e.Val
	}
	if e.Instr != nil {
		return e.Instr.Result()
	}
	panic("ssapre: BUG: expression has no representable value")
}

func (p *pass) cloneProto(peID ExprID, at ir.Instruction) ir.Instruction {
	instr := p.view(peID).Proto.Clone()
	instr.InsertBefore(at)
	return instr
}

func (p *pass) installNewVE(peID ExprID, instr ir.Instruction, version int64) ExprID {
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	pe := p.view(peID)
	e.Kind = ExprBasic
	e.Opcode = pe.Opcode
	e.Type = pe.Type
	e.Predicate = pe.Predicate
	e.Operands = pe.Operands
	e.Instr = instr
	e.Version = version
	p.exprToPExpr[id] = peID
	p.registerVExpr(instr, id, peID)
	p.stats.InstrInserted++
	return id
}

func (p *pass) chargeProtoOperandSaves(peID ExprID) {
	for _, opVal := range p.view(peID).Operands {
		p.view(p.resolveIncoming(opVal)).SaveCount++
	}
}

// protoOperandsDominate reports whether every operand of pe's template
// instruction is available (strictly dominates, or is itself defined in)
// block — the precondition §4.9 puts on every clone-and-insert site.
func (p *pass) protoOperandsDominate(peID ExprID, block ir.BasicBlock) bool {
	for _, opVal := range p.view(peID).Operands {
		opID := p.resolveIncoming(opVal)
		ope := p.view(opID)
		if ope.Kind == ExprVariable || ope.Kind == ExprConstant {
			continue
		}

		target := p.chase(p.peOf(opID), opID)
		te := p.view(target)

		var db ir.BasicBlock
		if te.Kind == ExprFactor {
			db = te.Block
		} else if te.Instr != nil {
			db = te.Instr.Block()
		} else {
			continue
		}

		if db.ID() == block.ID() {
			continue
		}
		if !p.dt.Dominates(db, block) {
			return false
		}
	}
	return true
}
