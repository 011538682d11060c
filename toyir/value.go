package toyir

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// valueKind tags which of the three things a Value names.
type valueKind uint8

const (
	valueInvalid valueKind = iota
	valueArg
	valueConst
	valueInstr
)

// Value is toyir's implementation of ir.Value. Unlike the teacher's
// tightly packed uint64 (type in the high bits, id in the low ones), this
// carries its fields unpacked — toyir favors directness over density,
// since it exists to be read by test authors, not optimized.
type Value struct {
	kind  valueKind
	id    uint64
	typ   Type
	bits  uint64
	instr *Instruction
	argIx int
}

// ValueInvalid is the zero Value, matching ir.Value's invalid-zero-value
// requirement. Use it where an operand slot legitimately has nothing in
// it (a Return with no result, a not-yet-wired Phi incoming).
var ValueInvalid = Value{}

var nextValueID uint64 = 1

func freshValueID() uint64 {
	id := nextValueID
	nextValueID++
	return id
}

// NewArg returns the i-th argument value of a function, of type typ.
func NewArg(i int, typ Type) Value {
	return Value{kind: valueArg, id: freshValueID(), typ: typ, argIx: i}
}

// NewConst returns a constant value carrying the given bit pattern.
func NewConst(typ Type, bits uint64) Value {
	return Value{kind: valueConst, id: freshValueID(), typ: typ, bits: bits}
}

func valueOfInstr(i *Instruction) Value {
	return Value{kind: valueInstr, id: freshValueID(), typ: i.typ, instr: i}
}

// Valid implements ir.Value.
func (v Value) Valid() bool { return v.kind != valueInvalid }

// Equal implements ir.Value.
func (v Value) Equal(o ir.Value) bool {
	other, ok := o.(Value)
	return ok && v.kind == other.kind && v.id == other.id
}

// Key implements ir.Value.
func (v Value) Key() uint64 { return v.id }

// Type implements ir.Value.
func (v Value) Type() ir.Type { return v.typ }

// IsConstant implements ir.Value.
func (v Value) IsConstant() bool { return v.kind == valueConst }

// ConstantBits implements ir.Value.
func (v Value) ConstantBits() uint64 { return v.bits }

// IsArg implements ir.Value.
func (v Value) IsArg() bool { return v.kind == valueArg }

// Instr implements ir.Value.
func (v Value) Instr() (ir.Instruction, bool) {
	if v.kind != valueInstr {
		return nil, false
	}
	return v.instr, true
}

// String implements ir.Value.
func (v Value) String() string {
	switch v.kind {
	case valueArg:
		return fmt.Sprintf("arg%d", v.argIx)
	case valueConst:
		return fmt.Sprintf("%s(%d)", v.typ, int64(v.bits))
	case valueInstr:
		return fmt.Sprintf("v%d", v.instr.id)
	default:
		return "<invalid>"
	}
}
