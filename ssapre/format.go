package ssapre

import (
	"fmt"
	"strings"

	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// FormatFunction renders fn block-by-block for the ssapreapi.PrintIR debug
// dump. It defers entirely to BasicBlock.String()/Instruction identity —
// ssapre carries no opcode-name table of its own, since the concrete IR
// already owns that formatting.
func FormatFunction(fn ir.Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s {\n", fn.Name())
	for _, b := range fn.Blocks() {
		fmt.Fprintf(&sb, "%s\n", b.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}
