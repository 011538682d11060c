package toyir

import "github.com/m4yers/llvm-opt-ssapre/ir"

// NoFacts is the degenerate ir.FactCache: nothing is ever known to be
// true. Exists so callers have a concrete zero-cost value to pass where
// the pass's facts parameter is non-optional in their own code, mirroring
// spec.md §6's note that the collaborator may supply a trivial
// implementation.
type NoFacts struct{}

// AssumeTrue implements ir.FactCache.
func (NoFacts) AssumeTrue(ir.Value) bool { return false }
