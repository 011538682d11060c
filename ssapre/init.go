// Component C3: Init.
package ssapre

// init implements §4.3: number arguments as Variable expressions, compute
// DFS/SDFS, then walk blocks in RPO building PE/VE tables and the
// join-block set.
//
// Ordering is computed *before* the scan: createBasic's commutative
// canonicalization calls rank(), which reads instrDFS, so every
// instruction already has its DFS number when its expression is built.
// The numbering depends only on the dominator tree and the instruction
// lists, not on any expression table.
func (p *pass) init() {
	p.argOrdinals()
	p.computeOrder()

	for _, b := range p.fn.RPO() {
		if len(b.Preds()) > 1 {
			p.joinBlocks[b.ID()] = true
		}
		for _, instr := range b.Instructions() {
			p.createExpression(instr)
		}
	}
}

func (p *pass) isJoin(blockID uint32) bool { return p.joinBlocks[blockID] }
