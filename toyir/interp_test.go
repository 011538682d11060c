package toyir

import (
	"testing"

	"github.com/m4yers/llvm-opt-ssapre/ir"
	"github.com/stretchr/testify/require"
)

func TestInterp_StraightLine(t *testing.T) {
	fn := NewFunction("add_twice", I32, I32)
	entry := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	t1 := fn.Add(entry, I32, a, b)
	fn.Return(entry, t1)

	res, ok := NewInterp(fn, []uint64{3, 4}).Run()
	require.True(t, ok)
	require.Equal(t, uint64(7), res)
}

func TestInterp_Diamond(t *testing.T) {
	fn := NewFunction("diamond", I32, I32)
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	a, b := fn.Args()[0], fn.Args()[1]

	AddEdge(entry, left)
	AddEdge(entry, right)
	AddEdge(left, join)
	AddEdge(right, join)

	cond := fn.ICmp(entry, ir.PredLT, a, b)
	fn.Branch(entry, cond, left, right)

	x := fn.Add(left, I32, a, b)
	fn.Jump(left, join)

	fn.Jump(right, join)

	phi := fn.NewPhiAt(join, I32)
	phi.SetOperand(0, x)
	phi.SetOperand(1, NewConst(I32, 0))
	fn.Return(join, phi.Result())

	res, ok := NewInterp(fn, []uint64{1, 5}).Run() // 1 < 5: takes left, x=6
	require.True(t, ok)
	require.Equal(t, uint64(6), res)

	res, ok = NewInterp(fn, []uint64{5, 1}).Run() // 5 < 1 false: takes right, phi=0
	require.True(t, ok)
	require.Equal(t, uint64(0), res)
}
