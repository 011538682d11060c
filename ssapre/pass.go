// Package ssapre implements SSA-form Partial Redundancy Elimination: the
// Chow-Chan-Kennedy-Liu-Lo-Tu "SSAPRE" algorithm. Given a function already
// in SSA form with a precomputed dominator tree and pre-split critical
// edges, Run identifies computations redundant on some but not all paths
// and rewrites the function so each is computed exactly once per path,
// hoisting or lowering as the dataflow analysis permits.
//
// The package never touches anything outside the ir collaborator
// contract: no file, wire, or persisted state, and no cross-invocation
// state beyond the two immortal sentinel expressions.
package ssapre

import (
	"fmt"

	"github.com/m4yers/llvm-opt-ssapre/internal/arena"
	"github.com/m4yers/llvm-opt-ssapre/internal/ssapreapi"
	"github.com/m4yers/llvm-opt-ssapre/ir"
)

// Options configures a single Run invocation.
type Options struct {
	// Verify runs the post-CodeMotion self-checks (SSA dominance, Φ arity)
	// before returning. Defaults to ssapreapi.ValidationEnabled.
	Verify bool
}

// DefaultOptions returns the options a bare Run() call would use.
func DefaultOptions() Options {
	return Options{Verify: ssapreapi.ValidationEnabled}
}

// Stats counts the substitute/insert/kill/Φ-insert/Φ-kill events named by
// the end-to-end scenarios. Per-run, not cumulative across invocations —
// a fresh Stats is returned in every Result.
type Stats struct {
	InstrSubstituted int
	InstrInserted    int
	InstrKilled      int
	PHIInserted      int
	PHIKilled        int
}

// Result is what Run returns: whether anything changed, and the event
// counts for this invocation.
type Result struct {
	Changed bool
	Stats   Stats
}

// pass owns every table named in the data model for the duration of one
// Run call. Nothing here outlives that call.
type pass struct {
	fn    ir.Function
	dt    ir.DominatorTree
	opc   ir.OpcodeInfo
	simp  ir.Simplifier
	facts ir.FactCache
	opts  Options
	stats Stats

	exprs      arena.Pool[Expression]
	topExpr    Expression
	bottomExpr Expression

	nextVariableVersion int64
	nextConstantVersion int64
	nextIgnoredVersion  int64

	peByKey   map[string]ExprID
	varByKey  map[uint64]ExprID
	constByKey map[uint64]ExprID

	instrToVExpr map[uint32]ExprID
	vExprToInstr map[ExprID]ir.Instruction

	exprToPExpr map[ExprID]ExprID

	pExprToVExprs   map[ExprID][]ExprID
	pExprToInstrs   map[ExprID][]ir.Instruction
	pExprToBlocks   map[ExprID][]ir.BasicBlock
	pExprToVersions map[ExprID]int64

	factorToBlock  map[ExprID]ir.BasicBlock
	blockToFactors map[uint32][]ExprID

	phiToFactor map[uint32]ExprID
	factorToPhi map[ExprID]ir.Phi

	substitutions map[ExprID]map[ExprID]ExprID

	killList []ir.Instruction
	killed   map[uint32]bool

	instrDFS       map[uint32]int64
	instrSDFS      map[uint32]int64
	blockFirstDFS  map[uint32]int64
	blockFirstSDFS map[uint32]int64
	argIndex       map[uint64]int

	joinBlocks map[uint32]bool
}

// Run executes the pass once on fn and reports what it did. dt must be the
// precomputed dominator tree of fn; simp and facts may be nil (the
// simplifier and fact-cache collaborators are optional — their absence
// just means less opportunistic folding, never unsound behavior).
func Run(fn ir.Function, dt ir.DominatorTree, simp ir.Simplifier, facts ir.FactCache, opts Options) Result {
	p := &pass{
		fn:    fn,
		dt:    dt,
		opc:   fn.Opcodes(),
		simp:  simp,
		facts: facts,
		opts:  opts,

		nextVariableVersion: firstVariable,
		nextConstantVersion: firstConstant,
		nextIgnoredVersion:  firstIgnored,

		peByKey:    make(map[string]ExprID),
		varByKey:   make(map[uint64]ExprID),
		constByKey: make(map[uint64]ExprID),

		instrToVExpr: make(map[uint32]ExprID),
		vExprToInstr: make(map[ExprID]ir.Instruction),
		exprToPExpr:  make(map[ExprID]ExprID),

		pExprToVExprs:   make(map[ExprID][]ExprID),
		pExprToInstrs:   make(map[ExprID][]ir.Instruction),
		pExprToBlocks:   make(map[ExprID][]ir.BasicBlock),
		pExprToVersions: make(map[ExprID]int64),

		factorToBlock:  make(map[ExprID]ir.BasicBlock),
		blockToFactors: make(map[uint32][]ExprID),

		phiToFactor: make(map[uint32]ExprID),
		factorToPhi: make(map[ExprID]ir.Phi),

		substitutions: make(map[ExprID]map[ExprID]ExprID),
		killed:        make(map[uint32]bool),

		joinBlocks: make(map[uint32]bool),
	}
	p.topExpr = Expression{Kind: ExprTop, Version: versionTop}
	p.bottomExpr = Expression{Kind: ExprBottom, Version: versionBottom}
	p.exprs = arena.NewPool[Expression]()

	p.run()

	changed := p.stats.InstrSubstituted+p.stats.InstrInserted+p.stats.InstrKilled+
		p.stats.PHIInserted+p.stats.PHIKilled > 0

	return Result{Changed: changed, Stats: p.stats}
}

func (p *pass) run() {
	if ssapreapi.PrintIR {
		fmt.Println("ssapre: before:")
		fmt.Println(FormatFunction(p.fn))
	}

	p.init()
	p.insertFactors()
	p.rename()
	p.renameCleanup()
	p.runDataflow()
	p.finalize()
	p.codeMotion()

	if p.opts.Verify {
		if err := Verify(p.fn, p.dt); err != nil {
			panic("ssapre: BUG: " + err.Error())
		}
	}

	if ssapreapi.PrintIR {
		fmt.Println("ssapre: after:")
		fmt.Println(FormatFunction(p.fn))
	}
}
