package toyir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDominatorTree_Diamond(t *testing.T) {
	fn := NewFunction("diamond")
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()

	AddEdge(entry, left)
	AddEdge(entry, right)
	AddEdge(left, join)
	AddEdge(right, join)

	fn.Jump(entry, left) // placeholder terminators; RPO/dom only need the CFG edges
	fn.Jump(left, join)
	fn.Jump(right, join)
	fn.Return(join, ValueInvalid)

	dt := BuildDominatorTree(fn)

	require.True(t, dt.Dominates(entry, entry))
	require.True(t, dt.Dominates(entry, left))
	require.True(t, dt.Dominates(entry, right))
	require.True(t, dt.Dominates(entry, join))
	require.False(t, dt.Dominates(left, join))
	require.False(t, dt.Dominates(right, join))
	require.Equal(t, entry.ID(), dt.IDom(join).ID())
	require.Equal(t, entry.ID(), dt.IDom(left).ID())
}

func TestBuildDominatorTree_Loop(t *testing.T) {
	fn := NewFunction("loop")
	preheader := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()

	AddEdge(preheader, header)
	AddEdge(body, header)
	AddEdge(header, body)
	AddEdge(header, exit)

	fn.Jump(preheader, header)
	fn.Branch(header, ValueInvalid, body, exit)
	fn.Jump(body, header)
	fn.Return(exit, ValueInvalid)

	dt := BuildDominatorTree(fn)

	require.Equal(t, preheader.ID(), dt.IDom(header).ID())
	require.Equal(t, header.ID(), dt.IDom(body).ID())
	require.Equal(t, header.ID(), dt.IDom(exit).ID())
	require.True(t, dt.Dominates(header, body))
	require.False(t, dt.Dominates(body, header))
}
