// Component C6: Rename.
package ssapre

import "github.com/m4yers/llvm-opt-ssapre/ir"

// stackEntry is one per-PE frame of the DT-DFS walk: the SDFS position at
// which it was pushed (so a later block entry knows whether to pop it) and
// whether a genuine instruction occurrence has been seen while it was on
// top (feeds HasRealUse / DownSafe clearing).
type stackEntry struct {
	sdfs       int64
	ve         ExprID
	sawRealUse bool
}

// rename implements §4.6's DT-DFS walk. It is written as an explicit
// block-ordered loop rather than the source's recursive per-block call —
// equivalent because a preorder DT walk never interleaves a block's own
// instructions with its children's, so "pop on block entry" against the
// new block's first-instruction SDFS is exactly as precise as popping
// before every individual instruction would be.
func (p *pass) rename() {
	stacks := make(map[ExprID][]stackEntry)

	for _, b := range p.dtDFSOrder() {
		threshold := p.blockFirstSDFS[b.ID()]
		for pe, stack := range stacks {
			for len(stack) > 0 && stack[len(stack)-1].sdfs > threshold {
				stack = stack[:len(stack)-1]
			}
			stacks[pe] = stack
		}

		p.pushBlockFactors(b, stacks)

		for _, instr := range b.Instructions() {
			if p.isPhiInstr(instr) {
				continue
			}
			p.renameInstruction(instr, stacks)
		}

		p.wireTerminator(b, stacks)
	}

	p.markCycles()
}

// markCycles flags every Factor operand whose substitution chain leads
// back to the Factor itself — the glossary's "cycled operand", i.e. a
// loop back-edge.
func (p *pass) markCycles() {
	for _, f := range p.allFactors() {
		fe := p.view(f)
		for i := range fe.FactorOps {
			op := &fe.FactorOps[i]
			if op.VE.Valid() && p.chase(fe.PE, op.VE) == f {
				op.IsCycle = true
			}
		}
	}
}

func (p *pass) isPhiInstr(instr ir.Instruction) bool {
	return p.opc.Class(instr.Opcode()) == ir.ClassPhi
}

func (p *pass) pushBlockFactors(b ir.BasicBlock, stacks map[ExprID][]stackEntry) {
	var nonMaterialized, materialized []ExprID
	for _, f := range p.blockToFactors[b.ID()] {
		if p.view(f).IsMaterialized {
			materialized = append(materialized, f)
		} else {
			nonMaterialized = append(nonMaterialized, f)
		}
	}

	sdfs := p.blockFirstSDFS[b.ID()]
	for _, f := range append(nonMaterialized, materialized...) {
		fe := p.view(f)
		pe := fe.PE
		fe.Version = p.nextVersionFor(pe)
		stacks[pe] = append(stacks[pe], stackEntry{sdfs: sdfs, ve: f, sawRealUse: false})
	}
}

func (p *pass) nextVersionFor(pe ExprID) int64 {
	v := p.pExprToVersions[pe]
	p.pExprToVersions[pe] = v + 1
	return v
}

func (p *pass) renameInstruction(instr ir.Instruction, stacks map[ExprID][]stackEntry) {
	ve, ok := p.instrToVExpr[instr.ID()]
	if !ok {
		return // Factor-materialized Φ already handled by pushBlockFactors
	}
	e := p.view(ve)
	pe := p.peOf(ve)

	if e.Kind != ExprBasic && e.Kind != ExprUnknown && e.Kind != ExprIgnored {
		return // Variable/Constant carry their pseudo-version permanently
	}

	stack := stacks[pe]
	sdfs := p.instrSDFS[instr.ID()]

	if len(stack) == 0 {
		e.Version = p.nextVersionFor(pe)
		stacks[pe] = append(stack, stackEntry{sdfs: sdfs, ve: ve, sawRealUse: true})
		return
	}

	top := &stack[len(stack)-1]
	topE := p.view(top.ve)

	if topE.Kind == ExprFactor {
		if p.operandsDominateFactor(ve, top.ve) {
			e.Version = topE.Version
			p.substitute(pe, ve, top.ve)
			top.sawRealUse = true
		} else {
			hadRealUse := top.sawRealUse
			e.Version = p.nextVersionFor(pe)
			stacks[pe] = append(stack, stackEntry{sdfs: sdfs, ve: ve, sawRealUse: true})
			if !hadRealUse {
				topE.DownSafe = false
			}
		}
		return
	}

	if p.sameOperandVersions(e, topE) {
		e.Version = topE.Version
		p.substitute(pe, ve, top.ve)
		top.sawRealUse = true
	} else {
		e.Version = p.nextVersionFor(pe)
		stacks[pe] = append(stack, stackEntry{sdfs: sdfs, ve: ve, sawRealUse: true})
	}
}

// operandsDominateFactor reports whether every operand of ve's instruction
// strictly dominates f's block (non-strict when the operand's resolved
// substitution target is itself a Factor in the same block) — the
// "opportunistic substitution" chase from §4.6's key subtlety: operands
// are resolved through their current substitution target, not their
// static identity, which is what lets a loop-invariant computation prove
// domination through a cycled Factor.
func (p *pass) operandsDominateFactor(ve, f ExprID) bool {
	e := p.view(ve)
	fblk := p.view(f).Block

	for _, opVal := range e.Operands {
		opID := p.resolveIncoming(opVal)
		ope := p.view(opID)

		switch ope.Kind {
		case ExprVariable, ExprConstant:
			continue
		case ExprBottom:
			return false
		}

		target := p.chase(p.peOf(opID), opID)
		te := p.view(target)

		if te.Kind == ExprFactor {
			if te.Block.ID() == fblk.ID() {
				continue
			}
			if !p.dt.Dominates(te.Block, fblk) {
				return false
			}
			continue
		}

		if te.Instr == nil {
			continue // Variable/Constant reached via substitution
		}
		if !p.strictlyDominates(te.Instr.Block(), fblk) {
			return false
		}
	}
	return true
}

func (p *pass) strictlyDominates(a, b ir.BasicBlock) bool {
	return a.ID() != b.ID() && p.dt.Dominates(a, b)
}

// sameOperandVersions compares two VEs of the same PE by their operands'
// *current* Rename versions, not by chasing substitutions — two
// occurrences of a structurally-identical PE are interchangeable exactly
// when each operand position currently carries the same version.
func (p *pass) sameOperandVersions(a, b *Expression) bool {
	if len(a.Operands) != len(b.Operands) {
		return false
	}
	for i := range a.Operands {
		if p.operandVersion(a.Operands[i]) != p.operandVersion(b.Operands[i]) {
			return false
		}
	}
	return true
}

func (p *pass) operandVersion(v ir.Value) int64 {
	return p.view(p.resolveIncoming(v)).Version
}

// wireTerminator implements §4.6 step 4/5: every Factor in a CFG
// successor gets its operand for this predecessor edge set to whatever is
// on top of its PE's stack right now (⊥ if the stack is empty), and exit
// blocks clear DownSafe on any Factor left on top of its stack with no
// real use recorded on this path.
func (p *pass) wireTerminator(b ir.BasicBlock, stacks map[ExprID][]stackEntry) {
	for _, succ := range b.Succs() {
		predIdx := predIndex(succ, b)
		if predIdx < 0 {
			continue
		}
		for _, f := range p.blockToFactors[succ.ID()] {
			fe := p.view(f)
			stack := stacks[fe.PE]
			op := FactorOperand{Pred: b}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				op.VE = top.ve
				op.HasRealUse = top.sawRealUse
			} else {
				op.VE = exprBottom
			}
			fe.FactorOps[predIdx] = op
		}
	}

	if len(b.Succs()) == 0 {
		for _, stack := range stacks {
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			topE := p.view(top.ve)
			if topE.Kind == ExprFactor && !top.sawRealUse {
				topE.DownSafe = false
			}
		}
	}
}

func predIndex(succ, pred ir.BasicBlock) int {
	for i, p2 := range succ.Preds() {
		if p2.ID() == pred.ID() {
			return i
		}
	}
	return -1
}

// dtDFSOrder returns blocks in the same dominator-tree preorder used to
// compute instrDFS (children in CFG RPO).
func (p *pass) dtDFSOrder() []ir.BasicBlock {
	rpoIndex := make(map[uint32]int)
	for i, b := range p.fn.RPO() {
		rpoIndex[b.ID()] = i
	}

	var order []ir.BasicBlock
	var walk func(b ir.BasicBlock)
	walk = func(b ir.BasicBlock) {
		order = append(order, b)
		children := append([]ir.BasicBlock(nil), p.dt.Children(b)...)
		sortByRPO(children, rpoIndex, false)
		for _, c := range children {
			walk(c)
		}
	}
	walk(p.fn.EntryBlock())
	return order
}
