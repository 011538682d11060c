// Package ssapreapi holds the debug/validation toggles of the ssapre
// package, kept separate so nothing else has to import the core package
// just to flip a trace flag.
//
// The tracing consts in the first block stay disabled by default; flip
// them by hand when debugging a specific failure locally. Never gate
// behavior that affects correctness on them.
package ssapreapi

const (
	// LoggingEnabled is not read anywhere yet; setting it produces no
	// output.
	LoggingEnabled = false
	// PrintIR dumps the function to stdout before and after the pass runs.
	PrintIR = false
	// PrintFactors is not read anywhere yet; setting it produces no
	// output.
	PrintFactors = false
)

const (
	// ValidationEnabled runs the post-CodeMotion self-checks (SSA
	// dominance, Phi arity) described in SPEC_FULL.md §5. Should stay on
	// until the pass has seen enough fuzzing to disable by default.
	ValidationEnabled = true
)
