package lower

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/llir"
)

// TestLowerParsedGraph drives the whole pipeline the CLI uses: textual
// graph in, verified LLIR out.
func TestLowerParsedGraph(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "maxdiff.fir"))
	require.NoError(t, err)

	program, err := firm.Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Methods, 1)

	result := Lower(program, Options{})
	require.Empty(t, result.Errors)

	method := program.Methods[0]
	g := result.Graphs[method]
	require.Empty(t, g.Verify())
	require.Len(t, result.Params[method], 2)
	require.Len(t, g.Blocks(), 4)

	// Both arms compute a difference and write the phi accumulator.
	branch := g.StartBlock().Terminator().(*llir.Branch)
	for _, arm := range []*llir.BasicBlock{branch.TrueTarget(), branch.FalseTarget()} {
		subs := nodesOf[*llir.BinaryInstruction](arm)
		require.Len(t, subs, 1)
		require.Equal(t, llir.BinarySub, subs[0].Kind)
		movs := nodesOf[*llir.MovRegister](arm)
		require.Len(t, movs, 1)
		require.Same(t, llir.RegisterNode(subs[0]), movs[0].Src)
	}

	listing := g.String()
	require.Equal(t, listing, result.Graphs[method].String())
	require.Contains(t, listing, "sub")
	require.Contains(t, listing, "ret")
}
