package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/llir"
)

func TestSelectFoldsLoadAddress(t *testing.T) {
	b := firm.NewBuilder(&firm.Method{
		Name:       "field",
		ParamModes: []firm.Mode{firm.ModeP},
		ReturnMode: firm.ModeIs,
	}, nil)

	addr := b.Binary(firm.KindAdd, firm.ModeP, b.StartBlock(), b.Param(0), b.Const(firm.ModeLs, 8))
	load := b.Load(b.StartBlock(), b.InitialMem(), addr, firm.ModeIs)
	m, v := b.LoadResults(load)
	b.Return(b.StartBlock(), m, v)

	g, _ := lowerMethod(t, b, nil, Options{Optimize: true})
	loads := nodesOf[*llir.MovLoad](g.StartBlock())
	require.Len(t, loads, 1)
	require.EqualValues(t, 8, loads[0].Addr.Offset)
	require.Same(t, llir.RegisterNode(g.StartBlock().Inputs()[0]), loads[0].Addr.Base,
		"the base folds to the pointer parameter")
}

func TestSelectFoldsStoreAddressWithSwappedOperands(t *testing.T) {
	b := firm.NewBuilder(&firm.Method{
		Name:       "fieldset",
		ParamModes: []firm.Mode{firm.ModeP},
		ReturnMode: firm.ModeNone,
	}, nil)

	addr := b.Binary(firm.KindAdd, firm.ModeP, b.StartBlock(), b.Const(firm.ModeLs, 16), b.Param(0))
	store := b.Store(b.StartBlock(), b.InitialMem(), addr, b.Const(firm.ModeIs, 5))
	m := b.StoreMem(store)
	b.Return(b.StartBlock(), m, nil)

	g, _ := lowerMethod(t, b, nil, Options{Optimize: true})
	stores := nodesOf[*llir.MovStore](g.StartBlock())
	require.Len(t, stores, 1)
	require.EqualValues(t, 16, stores[0].Addr.Offset)
}

func TestSelectFoldsCompareImmediate(t *testing.T) {
	b := firm.NewBuilder(&firm.Method{
		Name:       "iszero",
		ParamModes: []firm.Mode{firm.ModeIs},
		ReturnMode: firm.ModeIs,
	}, nil)

	cmp := b.Cmp(b.StartBlock(), firm.RelationEqual, b.Param(0), b.Const(firm.ModeIs, 0))
	cond := b.Cond(b.StartBlock(), cmp)
	falseProj, trueProj := b.CondProjs(cond)
	thenBlk := b.NewBlock(trueProj)
	b.Return(thenBlk, b.InitialMem(), b.Const(firm.ModeIs, 1))
	elseBlk := b.NewBlock(falseProj)
	b.Return(elseBlk, b.InitialMem(), b.Const(firm.ModeIs, 0))

	g, _ := lowerMethod(t, b, nil, Options{Optimize: true})
	branch := g.StartBlock().Terminator().(*llir.Branch)

	imm, ok := branch.Cmp.Rhs.(llir.ImmediateOperand)
	require.True(t, ok, "constant comparison operand folds into the compare")
	require.EqualValues(t, 0, imm.Value)
	require.Empty(t, branch.Cmp.Rhs.Registers())
}

func TestSelectInheritsPhiLogic(t *testing.T) {
	baseline, _ := lowerMethod(t, buildIfElse(t), nil, Options{})
	optimized, _ := lowerMethod(t, buildIfElse(t), nil, Options{Optimize: true})

	// No foldable pattern in this graph: the selector must lower it the
	// same way, phi copies and all.
	require.Equal(t, baseline.String(), optimized.String())

	g, _ := lowerMethod(t, buildCriticalEdge(t), nil, Options{Optimize: true})
	require.Len(t, g.Blocks(), 4, "critical-edge splitting is inherited")
}
