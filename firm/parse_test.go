package firm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const ifElseSource = `
# if (a < b) x = 1; else x = 2; return x;
method max Is Is -> Is

c1 = Const Is value=1
c2 = Const Is value=2
cmp = Cmp b @start arg0 arg1 rel=Less
cond = Cond T @start cmp
f = Proj X @start cond num=0
tr = Proj X @start cond num=1
block then tr
block else f
jt = Jmp X @then
je = Jmp X @else
block join jt je
x = Phi Is @join c1 c2
ret = Return X @join mem x
`

func TestParseIfElse(t *testing.T) {
	program, err := Parse([]byte(ifElseSource))
	require.NoError(t, err)
	require.Len(t, program.Methods, 1)

	m := program.Methods[0]
	require.Equal(t, "max", m.Name)
	require.Equal(t, []Mode{ModeIs, ModeIs}, m.ParamModes)
	require.Equal(t, ModeIs, m.ReturnMode)

	g := program.Graphs[m]
	require.NotNil(t, g)
	// start, end and the three declared blocks
	require.Len(t, g.Blocks(), 5)

	var phi *Node
	g.WalkNodes(func(n *Node) {
		if n.Kind() == KindPhi {
			phi = n
		}
	})
	require.NotNil(t, phi)
	require.Equal(t, 2, phi.PredCount())
	require.Equal(t, KindConst, phi.Pred(0).Kind())
	require.EqualValues(t, 1, phi.Pred(0).Value)
	require.Equal(t, 2, phi.Block().PredCount())
}

func TestParseLoopForwardReferences(t *testing.T) {
	src := `
method count Is -> Is
c0 = Const Is value=0
c1 = Const Is value=1
j0 = Jmp X @start
block header j0 jback
i = Phi Is @header c0 inext
cmp = Cmp b @header i arg0 rel=Less
cond = Cond T @header cmp
f = Proj X @header cond num=0
tr = Proj X @header cond num=1
block body tr
inext = Add Is @body i c1
jback = Jmp X @body
block exit f
ret = Return X @exit mem i
`
	program, err := Parse([]byte(src))
	require.NoError(t, err)

	g := program.Graphs[program.Methods[0]]
	var phi, add *Node
	g.WalkNodes(func(n *Node) {
		switch n.Kind() {
		case KindPhi:
			phi = n
		case KindAdd:
			add = n
		}
	})
	require.NotNil(t, phi)
	require.Same(t, add, phi.Pred(1), "forward phi operand is backpatched")
	require.Equal(t, 2, phi.Block().PredCount())
}

func TestParseCallees(t *testing.T) {
	src := `
method callee Is -> Is
r0 = Return X @start mem arg0

method caller -> Is
c3 = Const Is value=3
addr = Address P ident=callee
call = Call T @start mem addr c3 callee=callee
cm = Proj M @start call
cv = Proj Is @start call num=1
ret = Return X @start cm cv
`
	program, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, program.Methods, 2)

	var call *Node
	g := program.Graphs[program.Methods[1]]
	g.WalkNodes(func(n *Node) {
		if n.Kind() == KindCall {
			call = n
		}
	})
	require.NotNil(t, call)
	require.Same(t, program.Methods[0], program.MethodReferences[call])
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"node outside method":  "c1 = Const Is value=1",
		"unknown kind":         "method m -> Is\nc = Klonst Is value=1",
		"unknown operand":      "method m -> Is\nr = Return X @start mem nope",
		"duplicate node":       "method m -> Is\nc = Const Is value=1\nc = Const Is value=2",
		"duplicate block":      "method m -> Is\nblock b\nblock b",
		"unknown block":        "method m -> Is\nc = Const Is @nowhere value=1",
		"unknown attribute":    "method m -> Is\nc = Const Is wat=1",
		"unknown callee":       "method m -> Is\na = Address P ident=x\ncall = Call T @start mem a callee=ghost",
		"bad relation":         "method m -> Is\nc = Const Is value=1\nk = Cmp b @start c c rel=Sideways",
		"callee on non-call":   "method m -> Is\nc = Const Is callee=m",
		"duplicate method":     "method m -> Is\nmethod m -> Is",
		"return without mem":   "method m -> Is\nr = Return X @start",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
		})
	}
}
