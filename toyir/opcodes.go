package toyir

import "github.com/m4yers/llvm-opt-ssapre/ir"

// Opcode values. Grouped the way the teacher's instructions.go groups its
// Opcode constants: terminators first, then the real payload, with Phi
// and the call/load/store family singled out since they get special
// treatment from OpcodeInfo.Class.
const (
	OpJump ir.Opcode = iota
	OpBranch
	OpReturn

	OpPhi

	OpIAdd
	OpISub
	OpIMul
	OpICmp
	OpNot
	OpSelect

	OpLoad
	OpStore
	OpCall
)

var opcodeNames = map[ir.Opcode]string{
	OpJump:   "jump",
	OpBranch: "branch",
	OpReturn: "return",
	OpPhi:    "phi",
	OpIAdd:   "iadd",
	OpISub:   "isub",
	OpIMul:   "imul",
	OpICmp:   "icmp",
	OpNot:    "not",
	OpSelect: "select",
	OpLoad:   "load",
	OpStore:  "store",
	OpCall:   "call",
}

// opcodeInfo is the singleton ir.OpcodeInfo for every toyir function.
type opcodeInfo struct{}

var theOpcodeInfo = opcodeInfo{}

// Class implements ir.OpcodeInfo per spec.md §4.1's opcode whitelist:
// arithmetic/compare/select are PRE-eligible, Phi is its own class,
// load/store/call are explicitly out of scope (Non-goals: no load/store
// or call PRE), terminators are Ignored.
func (opcodeInfo) Class(op ir.Opcode) ir.Class {
	switch op {
	case OpJump, OpBranch, OpReturn:
		return ir.ClassIgnored
	case OpPhi:
		return ir.ClassPhi
	case OpIAdd, OpISub, OpIMul, OpICmp, OpNot, OpSelect:
		return ir.ClassBasic
	default:
		return ir.ClassUnknown
	}
}

// Commutative implements ir.OpcodeInfo. ICmp counts as commutative too:
// its operands may be swapped as long as the predicate is flipped to
// match, which IsCompare below signals to the caller.
func (opcodeInfo) Commutative(op ir.Opcode) bool {
	switch op {
	case OpIAdd, OpIMul, OpICmp:
		return true
	default:
		return false
	}
}

// IsCompare implements ir.OpcodeInfo.
func (opcodeInfo) IsCompare(op ir.Opcode) bool {
	return op == OpICmp
}
