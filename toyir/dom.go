package toyir

import "github.com/m4yers/llvm-opt-ssapre/ir"

// DominatorTree is toyir's implementation of ir.DominatorTree, computed
// with the Cooper-Harvey-Kennedy "Simple, Fast Dominance Algorithm" —
// the same algorithm and structure as the teacher's calculateDominators/
// intersect, generalized from the teacher's *basicBlock-keyed slice to a
// map keyed by block ID so it can run over any toyir.Function.
type DominatorTree struct {
	fn       *Function
	rpoIndex map[uint32]int
	idom     map[uint32]*BasicBlock
	children map[uint32][]*BasicBlock
}

// BuildDominatorTree computes the dominator tree of fn. fn's RPO must
// already be stable (BuildDominatorTree calls RPO() itself, so this is
// just a reminder that blocks must all be reachable from the entry).
func BuildDominatorTree(fn *Function) *DominatorTree {
	rpo := fn.RPO()
	blocks := make([]*BasicBlock, len(rpo))
	rpoIndex := make(map[uint32]int, len(rpo))
	for i, b := range rpo {
		blocks[i] = b.(*BasicBlock)
		rpoIndex[blocks[i].id] = i
	}

	idom := make(map[uint32]*BasicBlock, len(blocks))
	entry := blocks[0]
	idom[entry.id] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range blocks[1:] {
			var newIdom *BasicBlock
			for _, pred := range b.preds {
				if idom[pred.id] == nil {
					continue // not yet reached by the fixpoint
				}
				if newIdom == nil {
					newIdom = pred
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, pred)
			}
			if idom[b.id] != newIdom {
				idom[b.id] = newIdom
				changed = true
			}
		}
	}

	dt := &DominatorTree{fn: fn, rpoIndex: rpoIndex, idom: idom, children: make(map[uint32][]*BasicBlock)}
	for _, b := range blocks[1:] {
		p := idom[b.id]
		dt.children[p.id] = append(dt.children[p.id], b)
	}
	return dt
}

func intersect(idom map[uint32]*BasicBlock, rpoIndex map[uint32]int, a, b *BasicBlock) *BasicBlock {
	for a.id != b.id {
		for rpoIndex[a.id] > rpoIndex[b.id] {
			a = idom[a.id]
		}
		for rpoIndex[b.id] > rpoIndex[a.id] {
			b = idom[b.id]
		}
	}
	return a
}

// IDom implements ir.DominatorTree.
func (dt *DominatorTree) IDom(b ir.BasicBlock) ir.BasicBlock {
	return dt.idom[b.ID()]
}

// Dominates implements ir.DominatorTree.
func (dt *DominatorTree) Dominates(a, b ir.BasicBlock) bool {
	cur := b.(*BasicBlock)
	for {
		if cur.id == a.ID() {
			return true
		}
		p := dt.idom[cur.id]
		if p.id == cur.id {
			return false // reached entry without finding a
		}
		cur = p
	}
}

// Children implements ir.DominatorTree: in CFG reverse-postorder, as
// required by spec.md §4.3 step 3.
func (dt *DominatorTree) Children(b ir.BasicBlock) []ir.BasicBlock {
	kids := append([]*BasicBlock(nil), dt.children[b.ID()]...)
	out := make([]ir.BasicBlock, len(kids))
	for i, k := range kids {
		out[i] = k
	}
	return out
}
