package ssapre_test

import (
	"testing"

	"github.com/m4yers/llvm-opt-ssapre/ir"
	"github.com/m4yers/llvm-opt-ssapre/ssapre"
	"github.com/m4yers/llvm-opt-ssapre/toyir"
	"github.com/stretchr/testify/require"
)

// TestRun_StraightLineCSE is S1: two identical a+b occurrences in one
// block collapse to one computation, and the second instruction is gone.
func TestRun_StraightLineCSE(t *testing.T) {
	fn := toyir.NewFunction("straight_line_cse", toyir.I32, toyir.I32)
	entry := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	t1 := fn.Add(entry, toyir.I32, a, b)
	t2 := fn.Add(entry, toyir.I32, a, b)
	fn.Store(entry, t1, t1)
	fn.Store(entry, t2, t2)
	fn.Return(entry, toyir.ValueInvalid)

	dt := toyir.BuildDominatorTree(fn)
	result := ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	require.True(t, result.Changed)
	require.Equal(t, 1, result.Stats.InstrSubstituted)
	require.Equal(t, 1, result.Stats.InstrKilled)

	require.NoError(t, ssapre.Verify(fn, dt))
	require.Len(t, entry.Instructions(), 4) // add, store, store, return: the second add is gone
}

// TestRun_Diamond is S2: a+b computed on the left arm only, used after
// the join. PRE must insert a matching computation on the right arm and
// materialize a Phi at the join so the post-join use always sees a+b.
func TestRun_Diamond(t *testing.T) {
	fn := toyir.NewFunction("diamond", toyir.I32, toyir.I32)
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	toyir.AddEdge(entry, left)
	toyir.AddEdge(entry, right)
	toyir.AddEdge(left, join)
	toyir.AddEdge(right, join)

	cond := fn.ICmp(entry, ir.PredLT, a, b)
	fn.Branch(entry, cond, left, right)

	fn.Add(left, toyir.I32, a, b)
	fn.Jump(left, join)

	fn.Jump(right, join)

	y := fn.Add(join, toyir.I32, a, b)
	fn.Store(join, y, y)
	fn.Return(join, y)

	dt := toyir.BuildDominatorTree(fn)
	result := ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	require.True(t, result.Changed)
	require.GreaterOrEqual(t, result.Stats.InstrInserted, 1)
	require.GreaterOrEqual(t, result.Stats.PHIInserted, 1)
	require.NoError(t, ssapre.Verify(fn, dt))

	for _, res := range []struct{ a, b uint64 }{{1, 5}, {5, 1}, {3, 3}} {
		after := toyir.NewInterp(fn, []uint64{res.a, res.b})
		got, ok := after.Run()
		require.True(t, ok)
		require.Equal(t, res.a+res.b, got)
	}
}

// TestRun_LoopInvariant is S3: a+b inside a loop body, with a and b
// defined before the loop, hoists to the preheader.
func TestRun_LoopInvariant(t *testing.T) {
	fn := toyir.NewFunction("loop_invariant", toyir.I32, toyir.I32)
	preheader := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	toyir.AddEdge(preheader, header)
	toyir.AddEdge(body, header)
	toyir.AddEdge(header, body)
	toyir.AddEdge(header, exit)

	zero := toyir.NewConst(toyir.I32, 0)
	fn.Jump(preheader, header)

	i := fn.NewPhiAt(header, toyir.I32)
	cond := fn.ICmp(header, ir.PredLT, i.Result(), toyir.NewConst(toyir.I32, 3))
	fn.Branch(header, cond, body, exit)

	x := fn.Add(body, toyir.I32, a, b)
	one := toyir.NewConst(toyir.I32, 1)
	next := fn.Add(body, toyir.I32, i.Result(), one)
	fn.Store(body, x, x)
	fn.Jump(body, header)

	i.SetOperand(0, zero)
	i.SetOperand(1, next)

	fn.Return(exit, toyir.ValueInvalid)

	dt := toyir.BuildDominatorTree(fn)
	result := ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	require.NoError(t, ssapre.Verify(fn, dt))
	require.True(t, result.Changed)
	require.GreaterOrEqual(t, result.Stats.InstrInserted, 1)

	foundHoisted := false
	for _, instr := range preheader.Instructions() {
		if instr.Opcode() == toyir.OpIAdd {
			foundHoisted = true
		}
	}
	require.True(t, foundHoisted, "a+b should have been cloned into the preheader")

	for _, res := range []struct{ a, b uint64 }{{1, 5}, {5, 1}, {3, 3}} {
		in := toyir.NewInterp(fn, []uint64{res.a, res.b})
		_, ok := in.Run()
		require.True(t, ok)
	}
}

// TestRun_InductionSuppression is S4: i=Phi(0, i+1) in the header, body
// recomputes i+1 as t. t must not be hoisted out of the loop (i isn't
// available before the loop starts), and the pass must not panic on the
// self-referential Factor this induction pattern creates.
func TestRun_InductionSuppression(t *testing.T) {
	fn := toyir.NewFunction("induction")
	preheader := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()

	toyir.AddEdge(preheader, header)
	toyir.AddEdge(body, header)
	toyir.AddEdge(header, body)
	toyir.AddEdge(header, exit)

	zero := toyir.NewConst(toyir.I32, 0)
	fn.Jump(preheader, header)

	i := fn.NewPhiAt(header, toyir.I32)
	cond := fn.ICmp(header, ir.PredLT, i.Result(), toyir.NewConst(toyir.I32, 3))
	fn.Branch(header, cond, body, exit)

	one := toyir.NewConst(toyir.I32, 1)
	tv := fn.Add(body, toyir.I32, i.Result(), one)
	fn.Store(body, tv, tv)
	fn.Jump(body, header)

	i.SetOperand(0, zero)
	i.SetOperand(1, tv)

	fn.Return(exit, toyir.ValueInvalid)

	dt := toyir.BuildDominatorTree(fn)
	require.NotPanics(t, func() {
		ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())
	})
	require.NoError(t, ssapre.Verify(fn, dt))
}

// TestRun_Idempotent is P8: running the pass a second time over its own
// output changes nothing further.
func TestRun_Idempotent(t *testing.T) {
	fn := toyir.NewFunction("diamond_idempotent", toyir.I32, toyir.I32)
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	toyir.AddEdge(entry, left)
	toyir.AddEdge(entry, right)
	toyir.AddEdge(left, join)
	toyir.AddEdge(right, join)

	cond := fn.ICmp(entry, ir.PredLT, a, b)
	fn.Branch(entry, cond, left, right)
	fn.Add(left, toyir.I32, a, b)
	fn.Jump(left, join)
	fn.Jump(right, join)
	y := fn.Add(join, toyir.I32, a, b)
	fn.Store(join, y, y)
	fn.Return(join, toyir.ValueInvalid)

	dt := toyir.BuildDominatorTree(fn)
	ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	dt2 := toyir.BuildDominatorTree(fn)
	result := ssapre.Run(fn, dt2, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	require.False(t, result.Changed)
}
