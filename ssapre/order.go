// Component C2: DFS/SDFS ordering indices over the dominator tree.
package ssapre

import (
	"sort"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// dfsGap is the per-instruction growth constant (§4.2): numbers are
// spaced out so a later phase can assign an intermediate number to a
// newly cloned instruction without renumbering the whole function.
const dfsGap = 1 << 8

// computeOrder assigns every instruction a DFS number (DT walk, siblings
// in CFG reverse-postorder) and an SDFS number (same walk, siblings in
// *reverse* RPO). SDFS exists purely to let Rename detect "traversal just
// ascended the dominator tree" by comparing against a stack entry's
// recorded SDFS — see rename.go.
func (p *pass) computeOrder() {
	rpoIndex := make(map[uint32]int)
	for i, b := range p.fn.RPO() {
		rpoIndex[b.ID()] = i
	}

	p.instrDFS = make(map[uint32]int64)
	p.instrSDFS = make(map[uint32]int64)
	p.blockFirstSDFS = make(map[uint32]int64)
	p.blockFirstDFS = make(map[uint32]int64)

	dfsCounter := int64(0)
	p.walkDT(p.fn.EntryBlock(), rpoIndex, false, p.instrDFS, &dfsCounter, p.blockFirstDFS)

	sdfsCounter := int64(0)
	p.walkDT(p.fn.EntryBlock(), rpoIndex, true, p.instrSDFS, &sdfsCounter, p.blockFirstSDFS)
}

func (p *pass) walkDT(b ir.BasicBlock, rpoIndex map[uint32]int, reverse bool, out map[uint32]int64, counter *int64, firstOf map[uint32]int64) {
	if firstOf != nil {
		firstOf[b.ID()] = *counter
	}
	for _, instr := range b.Instructions() {
		out[instr.ID()] = *counter
		*counter += dfsGap
	}

	children := append([]ir.BasicBlock(nil), p.dt.Children(b)...)
	sortByRPO(children, rpoIndex, reverse)
	for _, c := range children {
		p.walkDT(c, rpoIndex, reverse, out, counter, firstOf)
	}
}

func sortByRPO(blocks []ir.BasicBlock, rpoIndex map[uint32]int, reverse bool) {
	sort.Slice(blocks, func(i, j int) bool {
		ri, rj := rpoIndex[blocks[i].ID()], rpoIndex[blocks[j].ID()]
		if reverse {
			return ri > rj
		}
		return ri < rj
	})
}

func (p *pass) argOrdinals() {
	p.argIndex = make(map[uint64]int)
	for i, a := range p.fn.Args() {
		p.argIndex[a.Key()] = i
	}
}
