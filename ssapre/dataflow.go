// Component C8: the DownSafe, CanBeAvail and Later fixpoints.
package ssapre

// factorUse is a reverse edge: g uses f as the operand at index idx.
type factorUse struct {
	g   ExprID
	idx int
}

// runDataflow implements §4.7's three monotone fixpoints, each seeded from
// whatever Rename already established and propagated to a worklist-driven
// closure (equivalent to, but faster than, the teacher's "changed := true;
// for changed { ... }" iterate-to-fixpoint shape, since only Factors whose
// state actually changed need to be revisited).
func (p *pass) runDataflow() {
	p.propagateDownSafe()
	p.propagateCanBeAvail()
	p.propagateLater()
}

func (p *pass) buildFactorUsers() map[ExprID][]factorUse {
	users := make(map[ExprID][]factorUse)
	for _, g := range p.allFactors() {
		ge := p.view(g)
		for i, op := range ge.FactorOps {
			if op.VE.Valid() && !p.isTop(op.VE) && !p.isBottom(op.VE) && p.view(op.VE).Kind == ExprFactor {
				users[op.VE] = append(users[op.VE], factorUse{g: g, idx: i})
			}
		}
	}
	return users
}

// propagateDownSafe starts from the Factors Rename already cleared
// DownSafe on (no real use reaching a terminator/fresh-version split) and
// pushes the clearing to any Factor operand reached through a no-real-use
// edge.
func (p *pass) propagateDownSafe() {
	var worklist []ExprID
	for _, f := range p.allFactors() {
		if !p.view(f).DownSafe {
			worklist = append(worklist, f)
		}
	}

	for len(worklist) > 0 {
		f := worklist[0]
		worklist = worklist[1:]
		for _, op := range p.view(f).FactorOps {
			if op.HasRealUse || !op.VE.Valid() || p.isTop(op.VE) || p.isBottom(op.VE) {
				continue
			}
			oe := p.view(op.VE)
			if oe.Kind == ExprFactor && oe.DownSafe {
				oe.DownSafe = false
				worklist = append(worklist, op.VE)
			}
		}
	}
}

// propagateCanBeAvail clears CanBeAvail on any Factor that is not
// DownSafe and reaches ⊥ on some edge, then pushes the clearing to every
// Factor that uses it through a no-real-use edge — rewriting that edge to
// ⊥ and dropping any cycle flag it carried, since a cycle through a
// not-available Factor isn't a real cycle anymore.
func (p *pass) propagateCanBeAvail() {
	users := p.buildFactorUsers()

	var worklist []ExprID
	for _, f := range p.allFactors() {
		fe := p.view(f)
		if !fe.DownSafe && p.anyOperandBottom(fe) {
			fe.CanBeAvail = false
			worklist = append(worklist, f)
		}
	}

	for len(worklist) > 0 {
		f := worklist[0]
		worklist = worklist[1:]
		for _, u := range users[f] {
			ge := p.view(u.g)
			op := &ge.FactorOps[u.idx]
			if op.HasRealUse || !ge.CanBeAvail {
				continue
			}
			ge.CanBeAvail = false
			op.VE = exprBottom
			op.IsCycle = false
			worklist = append(worklist, u.g)
		}
	}
}

func (p *pass) anyOperandBottom(fe *Expression) bool {
	for _, op := range fe.FactorOps {
		if op.VE.Valid() && p.isBottom(op.VE) {
			return true
		}
	}
	return false
}

// propagateLater initializes Later to CanBeAvail, clears it on any Factor
// with a real or cycled non-⊥ operand (availability can't be deferred
// past an actual use), then propagates the clearing to users.
func (p *pass) propagateLater() {
	for _, f := range p.allFactors() {
		fe := p.view(f)
		fe.Later = fe.CanBeAvail
	}

	users := p.buildFactorUsers()

	var worklist []ExprID
	for _, f := range p.allFactors() {
		fe := p.view(f)
		if fe.Later && p.anyRealOrCycleOperand(fe) {
			fe.Later = false
			worklist = append(worklist, f)
		}
	}

	for len(worklist) > 0 {
		f := worklist[0]
		worklist = worklist[1:]
		for _, u := range users[f] {
			ge := p.view(u.g)
			if ge.Later {
				ge.Later = false
				worklist = append(worklist, u.g)
			}
		}
	}
}

func (p *pass) anyRealOrCycleOperand(fe *Expression) bool {
	for _, op := range fe.FactorOps {
		if (op.HasRealUse || op.IsCycle) && op.VE.Valid() && !p.isBottom(op.VE) {
			return true
		}
	}
	return false
}
