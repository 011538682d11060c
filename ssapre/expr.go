// Component C1: the Expression model and arena.
package ssapre

import (
	"fmt"
	"strings"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// ExprKind is the tag of the closed sum type Expression realizes.
type ExprKind uint8

const (
	ExprIgnored ExprKind = iota
	ExprUnknown
	ExprVariable
	ExprConstant
	ExprBasic
	ExprPhi
	ExprFactor
	ExprTop
	ExprBottom
)

func (k ExprKind) String() string {
	switch k {
	case ExprIgnored:
		return "Ignored"
	case ExprUnknown:
		return "Unknown"
	case ExprVariable:
		return "Variable"
	case ExprConstant:
		return "Constant"
	case ExprBasic:
		return "Basic"
	case ExprPhi:
		return "PHI"
	case ExprFactor:
		return "Factor"
	case ExprTop:
		return "Top"
	case ExprBottom:
		return "Bottom"
	default:
		return "?"
	}
}

// ExprID names an Expression. Non-negative values index the pass's
// expression arena; exprTop and exprBottom are reserved, arena-external
// singletons (spec's "Global sentinels" note: pointer-comparable in O(1),
// immortal, never owning anything).
type ExprID int32

const (
	exprInvalid ExprID = -1
	exprTop     ExprID = -2
	exprBottom  ExprID = -3
)

// Valid reports whether id names a real expression (arena slot or
// sentinel), as opposed to the zero value of an uninitialized ExprID.
func (id ExprID) Valid() bool { return id != exprInvalid }

// Pseudo-version ranges: disjoint, descending, far enough apart that a
// pass that somehow allocated millions of constants still can't wrap into
// the next band. Real per-PE Rename versions start at 0 and only increase,
// so none of these can ever collide with a real version.
const (
	versionUnset    = int64(-1)
	firstVariable   = int64(-2)
	firstConstant   = -(int64(1) << 20)
	firstIgnored    = -(int64(1) << 40)
	versionTop      = int64(1) << 62
	versionBottom   = -(int64(1) << 62)
)

// Expression is the tagged-variant node described by the data model:
// common header fields (opcode, type, operand list, version, save-count)
// reused across every tag instead of a Go interface hierarchy per-kind —
// the same flattened-struct-many-opcodes shape the host IR's own
// instruction representation uses.
type Expression struct {
	Kind ExprKind

	Opcode ir.Opcode
	Type   ir.Type

	// Operands is the operand Value list, canonicalized (commutative swap
	// applied) at construction time and never re-resolved afterward — PE
	// identity is static raw-value identity, sound because SSA forbids
	// redefining a value.
	Operands []ir.Value

	Predicate ir.Predicate

	// Version is this VE's Rename-assigned version (>=0), one of the
	// pseudo-version sentinels above for Variable/Constant, or versionUnset
	// for a PE that hasn't yet been the target of Rename. Ignored/Unknown
	// start with a pseudo-version that Rename then replaces with a
	// per-PE version like any Basic occurrence.
	Version int64

	SaveCount int

	// Instr is the source instruction this VE is bound to. nil for a bare
	// PE that has never itself been an occurrence, and for Variable/
	// Constant (which have no defining instruction at all).
	Instr ir.Instruction

	// Proto is the PE's cloned instruction template, used by CodeMotion to
	// synthesize new computations at insertion points. Only set on PEs.
	Proto ir.Instruction

	// Val is the original argument or constant Value this expression
	// names. Only set for Variable/Constant, which have no Instr of their
	// own — CodeMotion's Φ materialization and substitution application
	// need the raw Value back to wire it as an incoming edge or a
	// replacement use.
	Val ir.Value

	// PE is set only on a Factor: the proto-expression being merged. Every
	// other kind leaves it zero; their proto-expression is looked up
	// through exprToPExpr (see peOf).
	PE ExprID

	// --- Factor-only fields ---
	Block     ir.BasicBlock
	FactorOps []FactorOperand

	DownSafe       bool
	CanBeAvail     bool
	Later          bool
	IsMaterialized bool
	Phi            ir.Phi
}

// WillBeAvail is the derived flag from §4.7: CanBeAvail ∧ ¬Later.
func (e *Expression) WillBeAvail() bool { return e.CanBeAvail && !e.Later }

// FactorOperand is one predecessor-edge slot of a Factor.
type FactorOperand struct {
	Pred       ir.BasicBlock
	VE         ExprID
	HasRealUse bool
	IsCycle    bool
}

func (p *pass) view(id ExprID) *Expression {
	switch id {
	case exprTop:
		return &p.topExpr
	case exprBottom:
		return &p.bottomExpr
	case exprInvalid:
		panic("ssapre: BUG: view of an invalid ExprID")
	default:
		return p.exprs.View(int(id))
	}
}

func (p *pass) isTop(id ExprID) bool    { return id == exprTop }
func (p *pass) isBottom(id ExprID) bool { return id == exprBottom }

// peOf returns id's owning proto-expression, uniformly across every kind
// (a PE is its own peOf).
func (p *pass) peOf(id ExprID) ExprID {
	if pe, ok := p.exprToPExpr[id]; ok {
		return pe
	}
	return id
}

func peKeyOf(opcode ir.Opcode, typ ir.Type, pred ir.Predicate, ops []ir.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%d|", opcode, typ.String(), pred)
	for _, o := range ops {
		fmt.Fprintf(&b, "%d,", o.Key())
	}
	return b.String()
}

// rank implements §4.2: constants sort before arguments, arguments before
// instructions (ordered by DFS position), with the value's Key as a
// deterministic tiebreak so the order is a strict weak order regardless
// of allocation order.
func (p *pass) rank(v ir.Value) (int64, uint64) {
	switch {
	case v.IsConstant():
		return 1, v.Key()
	case v.IsArg():
		return int64(2 + p.argIndex[v.Key()]), v.Key()
	default:
		instr, ok := v.Instr()
		if !ok {
			return int64(1) << 61, v.Key() // unreachable def: sort last
		}
		return 3 + int64(len(p.fn.Args())) + p.instrDFS[instr.ID()], v.Key()
	}
}

func (p *pass) shouldSwapOperands(a, b ir.Value) bool {
	ra, ka := p.rank(a)
	rb, kb := p.rank(b)
	if ra != rb {
		return ra > rb
	}
	return ka > kb
}

func (p *pass) createVariable(v ir.Value) ExprID {
	k := v.Key()
	if id, ok := p.varByKey[k]; ok {
		return id
	}
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprVariable
	e.Type = v.Type()
	e.Val = v
	e.Version = p.nextVariableVersion
	p.nextVariableVersion--
	p.varByKey[k] = id
	p.exprToPExpr[id] = id
	return id
}

func (p *pass) createConstant(v ir.Value) ExprID {
	k := v.Key()
	if id, ok := p.constByKey[k]; ok {
		return id
	}
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprConstant
	e.Type = v.Type()
	e.Val = v
	e.Version = p.nextConstantVersion
	p.nextConstantVersion--
	p.constByKey[k] = id
	p.exprToPExpr[id] = id
	return id
}

func (p *pass) createIgnored(i ir.Instruction) ExprID {
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprIgnored
	e.Opcode = i.Opcode()
	e.Type = i.Type()
	e.Instr = i
	e.Version = p.nextIgnoredVersion
	p.nextIgnoredVersion--
	p.exprToPExpr[id] = id
	p.registerVExpr(i, id, id)
	return id
}

func (p *pass) createUnknown(i ir.Instruction) ExprID {
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprUnknown
	e.Opcode = i.Opcode()
	e.Type = i.Type()
	e.Operands = append([]ir.Value(nil), i.Operands()...)
	e.Instr = i
	e.Version = p.nextIgnoredVersion
	p.nextIgnoredVersion--
	p.exprToPExpr[id] = id
	p.registerVExpr(i, id, id)
	return id
}

func (p *pass) createPhi(i ir.Instruction) ExprID {
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprPhi
	e.Opcode = i.Opcode()
	e.Type = i.Type()
	e.Operands = append([]ir.Value(nil), i.Operands()...)
	e.Instr = i
	e.Proto = i.Clone()
	e.Version = versionUnset
	p.exprToPExpr[id] = id
	p.registerVExpr(i, id, id)
	return id
}

// createBasic implements §4.1's createBasic: canonicalize commutative
// operands and compare predicates, opportunistically simplify, then
// structurally dedup against the PE table.
func (p *pass) createBasic(i ir.Instruction) ExprID {
	opcode := i.Opcode()
	pred := i.Predicate()
	ops := append([]ir.Value(nil), i.Operands()...)

	if len(ops) == 2 && p.opc.Commutative(opcode) && p.shouldSwapOperands(ops[0], ops[1]) {
		ops[0], ops[1] = ops[1], ops[0]
		if p.opc.IsCompare(opcode) {
			pred = pred.Swapped()
		}
	}

	if v, ok := p.simplify(i); ok {
		return p.createFromSimplified(v)
	}

	key := peKeyOf(opcode, i.Type(), pred, ops)
	peID, existed := p.peByKey[key]

	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	e.Kind = ExprBasic
	e.Opcode = opcode
	e.Type = i.Type()
	e.Predicate = pred
	e.Operands = ops
	e.Instr = i

	if !existed {
		peID = id
		p.peByKey[key] = peID
		e.Proto = i.Clone()
		e.Version = versionUnset
		p.exprToPExpr[id] = id
	} else {
		p.exprToPExpr[id] = peID
	}

	p.registerVExpr(i, id, peID)
	return id
}

func (p *pass) createFromSimplified(v ir.Value) ExprID {
	if v.IsConstant() {
		return p.createConstant(v)
	}
	return p.createVariable(v)
}

func (p *pass) simplify(i ir.Instruction) (ir.Value, bool) {
	if p.simp == nil {
		return nil, false
	}
	return p.simp.Simplify(i)
}

// createFactor materializes a non-materialized Factor for pe at the head
// of block b, one operand slot per predecessor (order fixed at
// construction per invariant 2). Operands default to Bottom; Rename fills
// them in from the traversal.
func (p *pass) createFactor(peID ExprID, b ir.BasicBlock) ExprID {
	e, idx := p.exprs.Allocate()
	id := ExprID(idx)
	pe := p.view(peID)
	e.Kind = ExprFactor
	e.Opcode = pe.Opcode
	e.Type = pe.Type
	e.PE = peID
	e.Block = b
	e.DownSafe = true
	e.CanBeAvail = true
	e.Later = true

	for _, pred := range b.Preds() {
		e.FactorOps = append(e.FactorOps, FactorOperand{Pred: pred, VE: exprBottom})
	}

	p.exprToPExpr[id] = peID
	p.addFactor(id, b)
	return id
}

func (p *pass) addFactor(id ExprID, b ir.BasicBlock) {
	p.factorToBlock[id] = b
	p.blockToFactors[b.ID()] = append(p.blockToFactors[b.ID()], id)
}

func (p *pass) registerVExpr(i ir.Instruction, veID, peID ExprID) {
	p.instrToVExpr[i.ID()] = veID
	p.vExprToInstr[veID] = i
	p.pExprToVExprs[peID] = append(p.pExprToVExprs[peID], veID)
	p.pExprToInstrs[peID] = append(p.pExprToInstrs[peID], i)

	blk := i.Block()
	found := false
	for _, b := range p.pExprToBlocks[peID] {
		if b.ID() == blk.ID() {
			found = true
			break
		}
	}
	if !found {
		p.pExprToBlocks[peID] = append(p.pExprToBlocks[peID], blk)
	}
}

// createExpression dispatches an instruction to the right constructor per
// §4.9's CreateExpression switch: terminators are Ignored, real Φ's get
// their own PHI expression, whitelisted opcodes become Basic, everything
// else is Unknown.
func (p *pass) createExpression(i ir.Instruction) ExprID {
	if i.IsTerminator() {
		return p.createIgnored(i)
	}
	switch p.opc.Class(i.Opcode()) {
	case ir.ClassPhi:
		return p.createPhi(i)
	case ir.ClassBasic:
		return p.createBasic(i)
	default:
		return p.createUnknown(i)
	}
}

// substitute records a direct VE→VE substitution edge for pe (invariant 4:
// chase must always terminate; absence of an edge is treated as the
// implicit self-edge the invariant requires).
func (p *pass) substitute(peID, from, to ExprID) {
	m := p.substitutions[peID]
	if m == nil {
		m = make(map[ExprID]ExprID)
		p.substitutions[peID] = m
	}
	m[from] = to
}

// chase walks pe's substitution chain from ve to its fixpoint (property
// P7). Direct edges only — no path compression, so save-count accounting
// on the first link stays exact per the design notes.
func (p *pass) chase(peID, ve ExprID) ExprID {
	seen := map[ExprID]bool{ve: true}
	cur := ve
	for {
		m := p.substitutions[peID]
		next, ok := m[cur]
		if !ok || next == cur {
			return cur
		}
		if seen[next] {
			panic("ssapre: BUG: substitution chain does not terminate")
		}
		seen[next] = true
		cur = next
	}
}
