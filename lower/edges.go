package lower

import "github.com/Schaback/Compiler/firm"

// blockEdges records how many control edges enter and leave a block. An
// edge is critical when its head has more than one incoming and its tail
// more than one outgoing edge; phi copies for such an edge need a block of
// their own.
type blockEdges struct {
	incoming int
	outgoing int
}

// analyzeBlockEdges counts the control edges of every block. Back edges
// must be enabled on g. The map is read-only afterwards.
func analyzeBlockEdges(g *firm.Graph) map[*firm.Block]*blockEdges {
	edges := make(map[*firm.Block]*blockEdges)
	g.WalkBlocks(func(b *firm.Block) {
		edges[b] = &blockEdges{incoming: b.PredCount()}
	})
	g.WalkNodes(func(n *firm.Node) {
		if n.Mode() != firm.ModeX {
			return
		}
		for _, succ := range g.Outs(n) {
			if succ.Kind() == firm.KindBlock {
				edges[n.Block()].outgoing++
			}
		}
	})
	return edges
}

// isCriticalEdge reports whether the control edge entering head through
// tail needs an inserted block. tail is the control-flow node, not its
// block.
func (f *FirmToLlir) isCriticalEdge(head *firm.Block, tail *firm.Node) bool {
	return f.edges[head].incoming > 1 && f.edges[tail.Block()].outgoing > 1
}

// temporariedPhis finds the phis caught in the swap problem: a phi used as
// operand by another phi of the same block must be read into a temporary
// before the block's own phi copies overwrite it. The pass is conservative;
// a superfluous mark costs one extra copy, never correctness. Memory phis
// lower to the block's memory input and are exempt.
func temporariedPhis(g *firm.Graph) map[*firm.Node]bool {
	marked := make(map[*firm.Node]bool)
	g.WalkNodes(func(n *firm.Node) {
		if n.Kind() != firm.KindPhi || n.Mode() == firm.ModeM {
			return
		}
		for _, op := range n.Preds() {
			if op.Kind() == firm.KindPhi && op.Mode() != firm.ModeM && op.Block() == n.Block() {
				marked[op] = true
			}
		}
	})
	return marked
}
