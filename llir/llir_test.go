package llir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterGenerator(t *testing.T) {
	var gen RegisterGenerator
	r0 := gen.Next(Bit32)
	r1 := gen.Next(Bit64)
	r2 := gen.Next(Bit8)

	require.Equal(t, 0, r0.ID)
	require.Equal(t, 1, r1.ID)
	require.Equal(t, 2, r2.ID)
	require.Equal(t, Bit64, r1.Width)
	require.Equal(t, "v1:b64", r1.String())
}

func TestBlockStateMachine(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()
	require.False(t, b.Finished())

	ret := b.NewReturn(nil)
	b.Finish(ret)
	require.True(t, b.Finished())
	require.Same(t, Terminator(ret), b.Terminator())

	require.Panics(t, func() { b.Finish(b.NewReturn(nil)) }, "second terminator")

	other := g.NewBasicBlock()
	jmp := other.NewJump(b)
	require.Panics(t, func() { g.NewBasicBlock().Finish(jmp) }, "foreign terminator")
}

func TestInputUniquePerRegister(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()
	reg := g.Registers().Next(Bit32)

	in1 := b.NewInput(reg)
	in2 := b.NewInput(reg)
	require.Same(t, in1, in2)
	require.Len(t, b.Inputs(), 1)
	require.Same(t, in1, b.InputForRegister(reg))

	other := g.Registers().Next(Bit32)
	require.Nil(t, b.InputForRegister(other))
	b.NewInput(other)
	require.Len(t, b.Inputs(), 2)
}

func TestMemoryInputIsLazyAndUnique(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()
	require.False(t, b.HasMemoryInput())

	m1 := b.MemoryInput()
	m2 := b.MemoryInput()
	require.Same(t, m1, m2)
	require.True(t, b.HasMemoryInput())
	require.Nil(t, m1.MemoryDep())
}

func TestOutputsAreIDOrderedSet(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()

	n1 := b.NewMovImmediate(1, Bit32)
	n2 := b.NewMovImmediate(2, Bit32)
	n3 := b.NewMovImmediate(3, Bit32)

	b.AddOutput(n3)
	b.AddOutput(n1)
	b.AddOutput(n2)
	b.AddOutput(n1)

	outs := b.Outputs()
	require.Equal(t, []Node{n1, n2, n3}, outs)
	require.True(t, b.HasOutput(n2))
}

func TestScheduleDependenciesDeduplicate(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()
	n1 := b.NewMovImmediate(1, Bit32)
	n2 := b.NewMovImmediate(2, Bit32)

	b.AddScheduleDependency(n2, n1)
	b.AddScheduleDependency(n2, n1)
	require.Len(t, b.ScheduleDependencies(), 1)
}

func TestMovSignExtendRequires32BitSource(t *testing.T) {
	g := NewGraph()
	b := g.StartBlock()

	src32 := b.NewMovImmediate(5, Bit32)
	sx := b.NewMovSignExtend(src32)
	require.Equal(t, Bit64, sx.TargetRegister().Width)

	src64 := b.NewMovImmediate(5, Bit64)
	require.Panics(t, func() { b.NewMovSignExtend(src64) })
}

func TestPredicateInvert(t *testing.T) {
	pairs := map[Predicate]Predicate{
		PredicateEqual:        PredicateNotEqual,
		PredicateLessThan:     PredicateGreaterEqual,
		PredicateLessEqual:    PredicateGreaterThan,
		PredicateGreaterThan:  PredicateLessEqual,
		PredicateGreaterEqual: PredicateLessThan,
	}
	for p, inv := range pairs {
		require.Equal(t, inv, p.Invert())
		require.Equal(t, p, p.Invert().Invert())
	}
}

func TestListingIsDeterministic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		b := g.StartBlock()
		mem := b.MemoryInput()
		mov := b.NewMovImmediate(7, Bit32)
		b.NewMovStore(BaseAddress(mov), mov, mem, Bit32)
		b.AddOutput(mov)
		b.Finish(b.NewReturn(mov))
		return g
	}
	first := build().String()
	second := build().String()
	require.Equal(t, first, second)
	require.True(t, strings.HasPrefix(first, ".L0:\n"))
	require.Contains(t, first, "movi $7")
	require.Contains(t, first, "ret")
}

func TestVerifyCatchesCrossBlockOperand(t *testing.T) {
	g := NewGraph()
	b1 := g.StartBlock()
	b2 := g.NewBasicBlock()

	val := b1.NewMovImmediate(1, Bit32)
	b1.Finish(b1.NewJump(b2))
	// Illegal: b2 reads b1's node directly instead of through an input.
	b2.NewMovRegisterInto(g.Registers().Next(Bit32), val)
	b2.Finish(b2.NewReturn(nil))

	errs := g.Verify()
	require.NotEmpty(t, errs)
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	g := NewGraph()
	errs := g.Verify()
	require.NotEmpty(t, errs)
}

func TestVerifyCatchesUncoveredInput(t *testing.T) {
	g := NewGraph()
	b1 := g.StartBlock()
	b2 := g.NewBasicBlock()
	b1.Finish(b1.NewJump(b2))

	in := b2.NewInput(g.Registers().Next(Bit32))
	b2.Finish(b2.NewReturn(in))

	errs := g.Verify()
	require.NotEmpty(t, errs, "no predecessor outputs the register")
}

func TestVerifyAcceptsWellFormedGraph(t *testing.T) {
	g := NewGraph()
	b1 := g.StartBlock()
	b2 := g.NewBasicBlock()

	val := b1.NewMovImmediate(1, Bit32)
	b1.AddOutput(val)
	b1.Finish(b1.NewJump(b2))

	in := b2.NewInput(val.TargetRegister())
	b2.Finish(b2.NewReturn(in))

	require.Empty(t, g.Verify())
}
