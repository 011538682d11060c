package toyir

import "github.com/m4yers/llvm-opt-ssapre/ir"

// Function is toyir's implementation of ir.Function. Unlike the teacher's
// Builder, which defers Phi placement to sealed-block variable tracking,
// toyir functions are built with Phis placed explicitly by the caller —
// test fixtures for an SSA pass are clearer written directly in SSA than
// lowered from an imperative variable model.
type Function struct {
	name   string
	args   []ir.Value
	blocks []*BasicBlock
	entry  *BasicBlock
	rpo    []*BasicBlock
}

// NewFunction starts a new, empty function with the given argument types.
func NewFunction(name string, argTypes ...Type) *Function {
	fn := &Function{name: name}
	for i, t := range argTypes {
		fn.args = append(fn.args, NewArg(i, t))
	}
	return fn
}

// NewBlock appends a fresh, unreachable-until-wired block.
func (fn *Function) NewBlock() *BasicBlock {
	b := &BasicBlock{id: uint32(len(fn.blocks)), fn: fn}
	fn.blocks = append(fn.blocks, b)
	if fn.entry == nil {
		fn.entry = b
	}
	return b
}

// AddEdge wires from->to as a CFG edge: appends to from's successor list
// and to's predecessor list, in call order (the order test fixtures add
// edges in is the order Preds()/Succs() reports them).
func AddEdge(from, to *BasicBlock) {
	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
}

func (fn *Function) emit(b *BasicBlock, opcode ir.Opcode, typ Type, operands ...ir.Value) Value {
	i := newInstruction(opcode, typ, operands)
	i.block = b
	i.attached = true
	b.instrs = append(b.instrs, i)
	return i.Result().(Value)
}

// Add emits an IAdd instruction at the end of b.
func (fn *Function) Add(b *BasicBlock, typ Type, lhs, rhs ir.Value) Value {
	return fn.emit(b, OpIAdd, typ, lhs, rhs)
}

// Sub emits an ISub instruction at the end of b.
func (fn *Function) Sub(b *BasicBlock, typ Type, lhs, rhs ir.Value) Value {
	return fn.emit(b, OpISub, typ, lhs, rhs)
}

// Mul emits an IMul instruction at the end of b.
func (fn *Function) Mul(b *BasicBlock, typ Type, lhs, rhs ir.Value) Value {
	return fn.emit(b, OpIMul, typ, lhs, rhs)
}

// ICmp emits a compare instruction at the end of b.
func (fn *Function) ICmp(b *BasicBlock, pred ir.Predicate, lhs, rhs ir.Value) Value {
	v := fn.emit(b, OpICmp, Bool, lhs, rhs)
	instr, _ := v.Instr()
	instr.(*Instruction).predicate = pred
	return v
}

// Not emits a Not instruction at the end of b.
func (fn *Function) Not(b *BasicBlock, v ir.Value) Value {
	return fn.emit(b, OpNot, Bool, v)
}

// Load emits an opaque, never-redundant Load instruction at the end of b.
func (fn *Function) Load(b *BasicBlock, typ Type, addr ir.Value) Value {
	return fn.emit(b, OpLoad, typ, addr)
}

// Store emits a Store instruction (no result) at the end of b.
func (fn *Function) Store(b *BasicBlock, addr, val ir.Value) {
	fn.emit(b, OpStore, Invalid, addr, val)
}

// Jump terminates b with an unconditional jump to target. The CFG edge
// must already exist (via AddEdge) — building a loop header's Phi needs
// every predecessor edge, including back edges, wired before the Phi is
// created, so edge wiring is the caller's job throughout toyir, not an
// automatic side effect of emitting a terminator.
func (fn *Function) Jump(b *BasicBlock, target *BasicBlock) {
	fn.emit(b, OpJump, Invalid)
}

// Branch terminates b with a conditional branch. See Jump: edges must
// already be wired with AddEdge.
func (fn *Function) Branch(b *BasicBlock, cond ir.Value, ifTrue, ifFalse *BasicBlock) {
	fn.emit(b, OpBranch, Invalid, cond)
}

// Return terminates b, optionally carrying a result value.
func (fn *Function) Return(b *BasicBlock, v ir.Value) {
	if v.Valid() {
		fn.emit(b, OpReturn, Invalid, v)
	} else {
		fn.emit(b, OpReturn, Invalid)
	}
}

// NewPhiAt places a Phi at the front of b's instruction list with one
// (initially invalid) incoming slot per b.Preds(), to be filled with
// SetOperand/AddIncoming. Used by test fixtures building Phis by hand;
// NewPhi (below) is the same operation exposed through ir.Function for
// CodeMotion's own Factor materialization.
func (fn *Function) NewPhiAt(b *BasicBlock, typ Type) Phi {
	operands := make([]ir.Value, len(b.preds))
	for idx := range operands {
		operands[idx] = ValueInvalid
	}
	i := newInstruction(OpPhi, typ, operands)
	i.block = b
	i.attached = true
	b.instrs = append([]*Instruction{i}, b.instrs...)
	return Phi{i}
}

// Name implements ir.Function.
func (fn *Function) Name() string { return fn.name }

// Args implements ir.Function.
func (fn *Function) Args() []ir.Value { return fn.args }

// EntryBlock implements ir.Function.
func (fn *Function) EntryBlock() ir.BasicBlock { return fn.entry }

// Blocks implements ir.Function.
func (fn *Function) Blocks() []ir.BasicBlock {
	out := make([]ir.BasicBlock, len(fn.blocks))
	for i, b := range fn.blocks {
		out[i] = b
	}
	return out
}

// RPO implements ir.Function: reverse postorder of the CFG from the entry
// block, computed the same iterative way as the teacher's
// passCalculateImmediateDominators (explore stack with a three-state
// visited marker, postorder collection reversed at the end).
func (fn *Function) RPO() []ir.BasicBlock {
	fn.computeRPO()
	out := make([]ir.BasicBlock, len(fn.rpo))
	for i, b := range fn.rpo {
		out[i] = b
	}
	return out
}

const (
	visitUnseen = 0
	visitSeen   = 1
	visitDone   = 2
)

func (fn *Function) computeRPO() {
	visited := make(map[uint32]int)
	var postorder []*BasicBlock
	stack := []*BasicBlock{fn.entry}

	for len(stack) > 0 {
		tail := len(stack) - 1
		b := stack[tail]
		stack = stack[:tail]
		switch visited[b.id] {
		case visitUnseen:
			// First pop: push back, then push unvisited successors so
			// they're popped (and fully explored) before b's second pop.
			visited[b.id] = visitSeen
			stack = append(stack, b)
			for _, s := range b.succs {
				if visited[s.id] == visitUnseen {
					stack = append(stack, s)
				}
			}
		case visitSeen:
			// Second pop: every successor has been fully explored.
			visited[b.id] = visitDone
			postorder = append(postorder, b)
		}
		// visitDone: a leftover duplicate entry of a finished block.
	}

	fn.rpo = make([]*BasicBlock, len(postorder))
	for i, b := range postorder {
		fn.rpo[len(postorder)-1-i] = b
	}
}

// Opcodes implements ir.Function.
func (fn *Function) Opcodes() ir.OpcodeInfo { return theOpcodeInfo }

// NewPhi implements ir.Function: used by ssapre's CodeMotion to
// materialize a Factor as a real Φ.
func (fn *Function) NewPhi(blk ir.BasicBlock, typ ir.Type) ir.Phi {
	b := blk.(*BasicBlock)
	t, _ := typ.(Type)
	return fn.NewPhiAt(b, t)
}
