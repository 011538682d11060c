package ssapre

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// Verify is a post-CodeMotion sanity gate, not a full verifier: it checks
// the two properties CodeMotion could plausibly violate (P2: every use
// dominated by its def; P3: every Φ has exactly one incoming value per
// predecessor, and matching types) at block granularity. Same-block
// def/use ordering is trusted to the IR's own instruction list rather
// than re-derived here.
func Verify(fn ir.Function, dt ir.DominatorTree) error {
	defBlock := make(map[uint64]ir.BasicBlock)
	for _, b := range fn.Blocks() {
		for _, instr := range b.Instructions() {
			if r := instr.Result(); r.Valid() {
				defBlock[r.Key()] = b
			}
		}
	}
	for _, a := range fn.Args() {
		defBlock[a.Key()] = fn.EntryBlock()
	}

	for _, b := range fn.Blocks() {
		for _, instr := range b.Instructions() {
			if phi, ok := instr.(ir.Phi); ok {
				if err := verifyPhiArity(b, phi); err != nil {
					return err
				}
				for i, v := range instr.Operands() {
					if v.Valid() && !v.Type().Equal(instr.Type()) {
						return fmt.Errorf("phi %d operand %d has type %s, phi has type %s",
							instr.ID(), i, v.Type().String(), instr.Type().String())
					}
					if err := verifyOperandDefined(v, defBlock, b.Preds()[i], dt); err != nil {
						return fmt.Errorf("phi %d operand %d: %w", instr.ID(), i, err)
					}
				}
				continue
			}
			for i, v := range instr.Operands() {
				if err := verifyOperandDefined(v, defBlock, b, dt); err != nil {
					return fmt.Errorf("instruction %d operand %d: %w", instr.ID(), i, err)
				}
			}
		}
	}
	return nil
}

func verifyPhiArity(b ir.BasicBlock, phi ir.Phi) error {
	if len(phi.Operands()) != len(b.Preds()) {
		return fmt.Errorf("phi %d has %d operands, block has %d predecessors",
			phi.ID(), len(phi.Operands()), len(b.Preds()))
	}
	return nil
}

func verifyOperandDefined(v ir.Value, defBlock map[uint64]ir.BasicBlock, useBlock ir.BasicBlock, dt ir.DominatorTree) error {
	if !v.Valid() || v.IsConstant() || v.IsArg() {
		return nil
	}
	db, ok := defBlock[v.Key()]
	if !ok {
		return fmt.Errorf("value %s has no recorded definition", v.String())
	}
	if db.ID() == useBlock.ID() {
		return nil
	}
	if !dt.Dominates(db, useBlock) {
		return fmt.Errorf("value %s defined in block %d does not dominate use in block %d",
			v.String(), db.ID(), useBlock.ID())
	}
	return nil
}
