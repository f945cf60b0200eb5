package firm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderSingleReturn(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeIs}, nil)
	seven := b.Const(ModeIs, 7)
	ret := b.Return(b.StartBlock(), b.InitialMem(), seven)

	g, err := b.Finish()
	require.NoError(t, err)

	require.Equal(t, "foo", g.Method().Name)
	require.Equal(t, KindReturn, ret.Kind())
	require.Equal(t, 2, ret.PredCount())
	require.Same(t, seven, ret.Pred(1))
	require.Same(t, g.StartBlock(), ret.Block())

	// Returns enter the end block and keep End alive.
	require.Equal(t, 1, g.EndBlock().PredCount())
	require.Same(t, ret, g.EndBlock().Pred(0))
	require.Same(t, ret, g.End().Pred(0))
}

func TestBuilderParams(t *testing.T) {
	b := NewBuilder(&Method{Name: "bar", ParamModes: []Mode{ModeIs, ModeP}, ReturnMode: ModeIs}, nil)

	a0 := b.Param(0)
	a1 := b.Param(1)
	require.Equal(t, ModeIs, a0.Mode())
	require.Equal(t, ModeP, a1.Mode())
	require.Equal(t, 0, a0.Num)
	require.Equal(t, 1, a1.Num)
	require.Same(t, a0, b.Param(0), "parameter projections are unique")

	require.Panics(t, func() { b.Param(2) })
}

func TestBackEdges(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeIs}, nil)
	c := b.Const(ModeIs, 3)
	sum := b.Binary(KindAdd, ModeIs, b.StartBlock(), c, c)
	b.Return(b.StartBlock(), b.InitialMem(), sum)

	g, err := b.Finish()
	require.NoError(t, err)

	require.Panics(t, func() { g.Outs(c) }, "back edges start disabled")

	g.EnableBackEdges()
	outs := g.Outs(c)
	require.Equal(t, []*Node{sum, sum}, outs, "one entry per operand edge")

	require.Panics(t, func() { g.EnableBackEdges() })

	g.DisableBackEdges()
	require.False(t, g.BackEdgesEnabled())
	require.Panics(t, func() { g.Outs(c) })
}

func TestBackEdgesSeeBlockSuccessors(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeNone}, nil)
	jmp := b.Jmp(b.StartBlock())
	next := b.NewBlock(jmp)
	b.Return(next, b.InitialMem(), nil)

	g, err := b.Finish()
	require.NoError(t, err)
	g.EnableBackEdges()
	defer g.DisableBackEdges()

	var blockUser *Node
	for _, out := range g.Outs(jmp) {
		if out.Kind() == KindBlock {
			blockUser = out
		}
	}
	require.NotNil(t, blockUser)
	require.Same(t, next, blockUser.Block())
}

func TestFinishRejectsOpenPhi(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeIs}, nil)
	jmp := b.Jmp(b.StartBlock())
	blk := b.NewBlock(jmp)
	b.Phi(blk, ModeIs, b.Const(ModeIs, 1), b.Const(ModeIs, 2))
	b.Return(blk, b.InitialMem(), b.Const(ModeIs, 0))

	_, err := b.Finish()
	require.Error(t, err, "phi operand count must match block predecessors")
}

func TestFinishRejectsDataPredOnBlock(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeIs}, nil)
	c := b.Const(ModeIs, 1)
	b.NewBlock(c)

	_, err := b.Finish()
	require.Error(t, err)
}

func TestNodeIDsAreMonotonic(t *testing.T) {
	b := NewBuilder(&Method{Name: "foo", ReturnMode: ModeIs}, nil)
	prev := -1
	for i := 0; i < 5; i++ {
		n := b.Const(ModeIs, int64(i))
		require.Greater(t, n.ID(), prev)
		prev = n.ID()
	}
}
