package main

import (
	"github.com/m4yers/llvm-opt-ssapre/ir"
	"github.com/m4yers/llvm-opt-ssapre/toyir"
)

// scenarios mirrors spec.md §8's S1-S4 end-to-end scenarios, built
// directly with the toyir construction API rather than parsed from text.
var scenarios = map[string]func() *toyir.Function{
	"straight-line-cse": buildStraightLineCSE,
	"diamond":           buildDiamond,
	"loop-invariant":    buildLoopInvariant,
	"induction":         buildInduction,
}

// buildStraightLineCSE is S1: t1=a+b; t2=a+b; use(t1); use(t2) in one
// block, expected to CSE to a single computation.
func buildStraightLineCSE() *toyir.Function {
	fn := toyir.NewFunction("straight_line_cse", toyir.I32, toyir.I32)
	entry := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	t1 := fn.Add(entry, toyir.I32, a, b)
	t2 := fn.Add(entry, toyir.I32, a, b)
	fn.Store(entry, t1, t1)
	fn.Store(entry, t2, t2)
	fn.Return(entry, toyir.ValueInvalid)
	return fn
}

// buildDiamond is S2: entry -> {left, right} -> join, left computes a+b,
// right doesn't, join uses a+b. Expected: PRE inserts a+b on the right
// edge and a Phi at join.
func buildDiamond() *toyir.Function {
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
	fn.Return(join, toyir.ValueInvalid)
	return fn
}

// buildLoopInvariant is S3: a preheader computes nothing, a loop header
// merges the preheader and the body's back edge, and the body computes
// a+b where a, b are defined in the preheader's dominating scope.
// Expected: a+b hoists to the preheader.
func buildLoopInvariant() *toyir.Function {
	fn := toyir.NewFunction("loop_invariant", toyir.I32, toyir.I32)
	preheader := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	toyir.AddEdge(preheader, header)
	toyir.AddEdge(body, header) // back edge, wired before the header's Phi is sized
	toyir.AddEdge(header, body)
	toyir.AddEdge(header, exit)

	zero := toyir.NewConst(toyir.I32, 0)
	fn.Jump(preheader, header)

	i := fn.NewPhiAt(header, toyir.I32)
	cond := fn.ICmp(header, ir.PredLT, i.Result(), toyir.NewConst(toyir.I32, 10))
	fn.Branch(header, cond, body, exit)

	x := fn.Add(body, toyir.I32, a, b)
	one := toyir.NewConst(toyir.I32, 1)
	next := fn.Add(body, toyir.I32, i.Result(), one)
	fn.Store(body, x, x)
	fn.Jump(body, header)

	i.SetOperand(0, zero)
	i.SetOperand(1, next)

	fn.Return(exit, toyir.ValueInvalid)
	return fn
}

// buildInduction is S4: i=Phi(0, i+1) in the header, body computes
// t=i+1 again. Expected: no hoist, the induction Factor gets killed, t
// is left as its own computation (trivially substitutable with the
// Phi's own back-edge operand, but never pulled out of the loop).
func buildInduction() *toyir.Function {
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
	cond := fn.ICmp(header, ir.PredLT, i.Result(), toyir.NewConst(toyir.I32, 10))
	fn.Branch(header, cond, body, exit)

	one := toyir.NewConst(toyir.I32, 1)
	t := fn.Add(body, toyir.I32, i.Result(), one)
	fn.Store(body, t, t)
	fn.Jump(body, header)

	i.SetOperand(0, zero)
	i.SetOperand(1, t)

	fn.Return(exit, toyir.ValueInvalid)
	return fn
}
