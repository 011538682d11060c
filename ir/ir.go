// Package ir is the collaborator contract of spec.md §6: the abstract
// surface the SSAPRE pass consumes from whatever IR/pass-manager it is
// embedded in. Nothing in this package performs analysis or transform on
// its own — it only names the shapes the ssapre package needs.
//
// The split mirrors the teacher's ssa.Builder/ssa.BasicBlock interfaces
// sitting in front of its concrete builder/basicBlock structs: ssapre only
// ever imports this package, never a concrete implementation, so it can
// run against the toyir test IR today and a production IR tomorrow without
// caring which one it got.
package ir

// Type is an opaque, comparable SSA type.
type Type interface {
	Equal(Type) bool
	String() string
}

// Predicate is the comparison kind carried by an ICmp/FCmp instruction.
// PRE's commutative canonicalization (spec.md §4.1) needs to know how
// swapping operands affects the predicate.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredNE
	PredLT
	PredLE
	PredGT
	PredGE
)

// Swapped returns the predicate that keeps the comparison's meaning when
// its two operands are exchanged (a < b  ==  b > a).
func (p Predicate) Swapped() Predicate {
	switch p {
	case PredLT:
		return PredGT
	case PredLE:
		return PredGE
	case PredGT:
		return PredLT
	case PredGE:
		return PredLE
	default:
		return p // EQ, NE are symmetric.
	}
}

// Opcode identifies the operation an Instruction performs. The SSAPRE core
// only cares which bucket an opcode falls into (see Opcode.Class below);
// concrete IRs are free to define their own opcode space as long as they
// answer Class() honestly.
type Opcode uint32

// Class buckets an Opcode per spec.md §4.1: which instructions are
// PRE-eligible ("Basic"), which are value-producing merges ("Phi"), and
// which are out of scope for this pass (aggregate/call/load/store PRE are
// explicit Non-goals; terminators can never be redundant computations).
type Class uint8

const (
	// ClassIgnored covers terminators: never a candidate expression, but
	// still walked for CFG/Factor-operand bookkeeping.
	ClassIgnored Class = iota
	// ClassUnknown covers opcodes outside the whitelist (calls, loads,
	// stores, allocas): treated as opaque, never participates in
	// redundancy claims, but still occupies a slot in program order.
	ClassUnknown
	// ClassPhi is a real Φ-node already in the IR.
	ClassPhi
	// ClassBasic is PRE-eligible: casts, arithmetic/logical ops, compares,
	// select, extract/insert-element, shufflevector, GEP.
	ClassBasic
)

// OpcodeInfo is queried once per distinct Opcode value and is expected to
// be cheap/pure.
type OpcodeInfo interface {
	// Class returns which bucket this opcode falls into.
	Class(Opcode) Class
	// Commutative reports whether operand order doesn't matter (so PRE may
	// canonicalize it). Only meaningful for ClassBasic opcodes.
	Commutative(Opcode) bool
	// IsCompare reports whether this opcode carries a Predicate that must
	// be flipped when operands are swapped.
	IsCompare(Opcode) bool
}

// Value is an SSA value: either a function argument, a constant, or the
// single result produced by some Instruction.
type Value interface {
	// Valid reports whether this handle names a real value. The zero Value
	// of a concrete IR's Value type must be invalid.
	Valid() bool
	// Equal reports whether two handles name the same value.
	Equal(Value) bool
	// Key returns a value stable for use as a map key. Concrete Value
	// implementations are not guaranteed to be native-comparable (a struct
	// holding a slice, say), so ssapre never relies on Go's `==` or uses a
	// Value directly as a map key — it always goes through Key().
	Key() uint64
	Type() Type
	// IsConstant reports whether this value is a compile-time constant.
	IsConstant() bool
	// ConstantBits returns the bit-pattern of a constant value; behavior
	// is undefined if IsConstant is false.
	ConstantBits() uint64
	// IsArg reports whether this value is a function argument (has no
	// defining Instruction within the function).
	IsArg() bool
	// Instr returns the Instruction defining this value, and false if this
	// value is an argument or constant.
	Instr() (Instruction, bool)
	String() string
}

// Instruction is a single IR instruction: at most one result Value, an
// ordered operand list, and a position within exactly one BasicBlock's
// instruction list.
type Instruction interface {
	// ID is a stable, dense-ish identifier assigned at creation time, used
	// as a map key by ssapre's instruction-to-versioned-expression tables
	// instead of pointer identity (so a Clone()'d-but-not-yet-inserted
	// instruction can still be told apart from its template).
	ID() uint32
	Opcode() Opcode
	Type() Type
	// Result returns the Value this instruction defines. Invalid for
	// instructions with no result (terminators, stores).
	Result() Value
	// Operands returns the instruction's operands in order. For a Phi,
	// Operands()[i] is the incoming value from Block().Preds()[i].
	Operands() []Value
	SetOperand(i int, v Value)
	// Predicate returns the comparison predicate; meaningless for
	// non-compare opcodes.
	Predicate() Predicate
	SetPredicate(Predicate)
	Block() BasicBlock
	IsTerminator() bool
	// SwapOperands exchanges the two operands in place (and, for a
	// compare, flips the predicate) — spec.md §4.1 canonicalization.
	SwapOperands()
	// Clone returns a detached copy (fresh Result identity, same opcode,
	// operands and predicate, not yet attached to any block). Used to
	// materialize a proto-expression's template at a new program point.
	Clone() Instruction
	// InsertBefore splices this (detached) instruction into mark's block,
	// immediately before mark.
	InsertBefore(mark Instruction)
	// EraseFromParent removes this instruction from its block's
	// instruction list. The instruction must have no remaining users.
	EraseFromParent()
	// DropAllReferences clears this instruction's operand list so it no
	// longer counts as a user of anything, without unlinking it from its
	// block. Called immediately before EraseFromParent.
	DropAllReferences()
	// ReplaceAllUsesWith rewrites every operand slot across the function
	// that currently holds this instruction's Result to hold v instead.
	ReplaceAllUsesWith(v Value)
	// Users returns the instructions that reference this instruction's
	// Result as an operand.
	Users() []Instruction
}

// Phi is a real Φ-node: a BasicBlock-Instruction whose Operands() line up
// 1:1 with Block().Preds(), plus the ability to grow when a new
// predecessor edge appears during CodeMotion's Factor materialization.
type Phi interface {
	Instruction
	AddIncoming(v Value, pred BasicBlock)
}

// BasicBlock is a node of the CFG: an ordered instruction list (Φ-nodes
// first), predecessors and successors.
type BasicBlock interface {
	ID() uint32
	// Instructions returns every instruction in program order, Φ-nodes
	// first.
	Instructions() []Instruction
	// Phis returns the leading Φ-nodes, in instruction order. Each
	// Φ-node here and in Instructions() is an ir.Phi.
	Phis() []Instruction
	// FirstNonPhi returns the first non-Φ instruction, or the terminator
	// if the block has no other instructions.
	FirstNonPhi() Instruction
	Terminator() Instruction
	Preds() []BasicBlock
	Succs() []BasicBlock
	String() string
}

// Function is the unit SSAPRE operates on: already in SSA form, with
// critical edges pre-split (spec.md §1 Non-goals).
type Function interface {
	Name() string
	Args() []Value
	EntryBlock() BasicBlock
	// Blocks returns every block in creation order (stable across runs,
	// used only for deterministic iteration when order doesn't otherwise
	// matter).
	Blocks() []BasicBlock
	// RPO returns the blocks in reverse post-order of the CFG, entry
	// first. Provided by the collaborator per spec.md §6.
	RPO() []BasicBlock
	Opcodes() OpcodeInfo
	// NewPhi allocates a Φ-node of the given type with one (initially
	// ValueInvalid) incoming slot per blk.Preds(), and splices it at the
	// front of blk's Φ list. Used by CodeMotion to materialize a Factor.
	NewPhi(blk BasicBlock, typ Type) Phi
}

// DominatorTree is the precomputed dominance relation over Function's
// blocks (spec.md §1: "whose basic blocks have a dominator tree").
type DominatorTree interface {
	// IDom returns b's immediate dominator, or b itself for the entry
	// block.
	IDom(b BasicBlock) BasicBlock
	// Dominates reports whether a dominates b (a==b counts as dominating).
	Dominates(a, b BasicBlock) bool
	// Children returns b's children in the dominator tree, in CFG
	// reverse-post-order (spec.md §4.3 step 3: "Sort DT children by CFG
	// RPO").
	Children(b BasicBlock) []BasicBlock
}

// Simplifier is the opportunistic constant-folding/instruction-simplifying
// collaborator named in spec.md §6 ("simplifyCmp/Select/BinOp/GEP/
// Instruction", "constantFoldInstOperands").
type Simplifier interface {
	// Simplify returns a Value that makes instr redundant (a constant, an
	// argument, or another instruction's existing result), and true, if
	// one exists. Returns (nil, false) otherwise.
	Simplify(instr Instruction) (Value, bool)
}

// FactCache is the AssumptionCache-equivalent collaborator (spec.md §6).
// Run accepts and stores one, but nothing in the current pipeline reads
// it, and the Simplifier interface does not receive it; kept as an
// interface (rather than omitted) so a real assume-intrinsic-aware IR can
// supply a non-trivial implementation without changing ssapre's signature
// (see DESIGN.md OQ-1).
type FactCache interface {
	AssumeTrue(v Value) bool
}
