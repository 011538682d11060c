// Package toyir is a minimal concrete SSA IR used to exercise the ssapre
// package end to end: a builder for constructing test functions directly
// in SSA form, a dominator-tree pass, a trivial peephole simplifier, and
// an interpreter for behavioral-equivalence checks.
package toyir

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// Type is toyir's implementation of ir.Type: a handful of fixed-width
// integer and boolean kinds, enough to exercise arithmetic and compares
// without needing a real type system.
type Type struct {
	kind typeKind
}

type typeKind uint8

const (
	typeInvalid typeKind = iota
	typeI32
	typeI64
	typeBool
)

var (
	I32     = Type{typeI32}
	I64     = Type{typeI64}
	Bool    = Type{typeBool}
	Invalid = Type{typeInvalid}
)

// Equal implements ir.Type.
func (t Type) Equal(o ir.Type) bool {
	other, ok := o.(Type)
	return ok && t.kind == other.kind
}

// String implements ir.Type.
func (t Type) String() string {
	switch t.kind {
	case typeI32:
		return "i32"
	case typeI64:
		return "i64"
	case typeBool:
		return "bool"
	default:
		return "<invalid>"
	}
}

var _ fmt.Stringer = Type{}
