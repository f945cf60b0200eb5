package llir

// Graph is the LLIR of a single method: its basic blocks and the register
// generator that numbered their values.
type Graph struct {
	startBlock *BasicBlock
	blocks     []*BasicBlock
	regs       RegisterGenerator

	nodeIDs   int
	blockIDs  int
	finalized bool
}

// NewGraph creates a graph with a fresh start block.
func NewGraph() *Graph {
	g := &Graph{}
	g.startBlock = g.NewBasicBlock()
	return g
}

// StartBlock returns the method's entry block.
func (g *Graph) StartBlock() *BasicBlock { return g.startBlock }

// NewBasicBlock creates a block owned by this graph.
func (g *Graph) NewBasicBlock() *BasicBlock {
	b := newBasicBlock(g, g.blockIDs)
	g.blockIDs++
	g.blocks = append(g.blocks, b)
	return b
}

// Blocks returns all blocks in creation order. Callers must not mutate the
// slice.
func (g *Graph) Blocks() []*BasicBlock { return g.blocks }

// Registers returns the graph's virtual register generator.
func (g *Graph) Registers() *RegisterGenerator { return &g.regs }

// Finalized reports whether outputs and schedule dependencies are closed.
func (g *Graph) Finalized() bool { return g.finalized }

// MarkFinalized transitions every finished block to its terminal state.
func (g *Graph) MarkFinalized() { g.finalized = true }

func (g *Graph) nextNodeID() int {
	id := g.nodeIDs
	g.nodeIDs++
	return id
}
