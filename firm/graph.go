package firm

import (
	"fmt"
	"sort"
)

// Graph holds one method's sea-of-nodes representation.
type Graph struct {
	method *Method

	nodes  []*Node  // in id order
	blocks []*Block // in creation order

	startBlock *Block
	endBlock   *Block
	start      *Node
	end        *Node

	nextID int

	// outs is the reverse adjacency (uses of each node), keyed by node id.
	// It is built by EnableBackEdges and torn down by DisableBackEdges.
	outs map[int][]*Node
}

// Method describes a callable the graphs and call sites refer to.
type Method struct {
	Name       string
	ParamModes []Mode
	// ReturnMode is ModeNone for void methods.
	ReturnMode Mode
}

func (m *Method) String() string { return m.Name }

// Program is the unit the backend lowers: every method's graph plus the
// call-site resolution map. A Call node with no MethodReferences entry is an
// allocation call.
type Program struct {
	Methods          []*Method
	Graphs           map[*Method]*Graph
	MethodReferences map[*Node]*Method
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{
		Graphs:           make(map[*Method]*Graph),
		MethodReferences: make(map[*Node]*Method),
	}
}

// AddGraph registers a method and its graph, preserving declaration order.
func (p *Program) AddGraph(g *Graph) {
	p.Methods = append(p.Methods, g.method)
	p.Graphs[g.method] = g
}

// Method returns the method this graph belongs to.
func (g *Graph) Method() *Method { return g.method }

// StartBlock returns the unique entry block.
func (g *Graph) StartBlock() *Block { return g.startBlock }

// EndBlock returns the unique exit block containing the End node.
func (g *Graph) EndBlock() *Block { return g.endBlock }

// Start returns the Start node.
func (g *Graph) Start() *Node { return g.start }

// End returns the End node.
func (g *Graph) End() *Node { return g.end }

// Nodes returns all nodes in id order. Callers must not mutate the slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Blocks returns all blocks in creation order. Callers must not mutate it.
func (g *Graph) Blocks() []*Block { return g.blocks }

// WalkBlocks calls fn for every block in creation order.
func (g *Graph) WalkBlocks(fn func(*Block)) {
	for _, b := range g.blocks {
		fn(b)
	}
}

// WalkNodes calls fn for every non-block node in id order.
func (g *Graph) WalkNodes(fn func(*Node)) {
	for _, n := range g.nodes {
		if n.kind == KindBlock {
			continue
		}
		fn(n)
	}
}

// EnableBackEdges builds the uses adjacency for the whole graph. The upstream
// library exposes this as mutable per-graph state; here it is computed once
// from the predecessor edges. Uses are ordered by user id.
func (g *Graph) EnableBackEdges() {
	if g.outs != nil {
		panic("firm: back edges already enabled")
	}
	g.outs = make(map[int][]*Node, len(g.nodes))
	for _, n := range g.nodes {
		for _, pred := range n.preds {
			g.outs[pred.id] = append(g.outs[pred.id], n)
		}
	}
	for _, b := range g.blocks {
		for _, pred := range b.preds {
			g.outs[pred.id] = append(g.outs[pred.id], b.node)
		}
	}
	for _, users := range g.outs {
		sort.Slice(users, func(i, j int) bool { return users[i].id < users[j].id })
	}
}

// DisableBackEdges tears the adjacency down again. Lowering of the next
// method must not observe the previous method's state.
func (g *Graph) DisableBackEdges() {
	g.outs = nil
}

// BackEdgesEnabled reports whether the uses adjacency is available.
func (g *Graph) BackEdgesEnabled() bool { return g.outs != nil }

// Outs returns the users of n in user-id order. Back edges must be enabled.
func (g *Graph) Outs(n *Node) []*Node {
	if g.outs == nil {
		panic("firm: back edges not enabled")
	}
	return g.outs[n.id]
}

func (g *Graph) newNode(kind Kind, mode Mode, block *Block, preds ...*Node) *Node {
	n := &Node{
		id:    g.nextID,
		kind:  kind,
		mode:  mode,
		block: block,
		preds: preds,
	}
	g.nextID++
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) newBlock() *Block {
	b := &Block{id: g.nextID, graph: g}
	g.nextID++
	b.node = &Node{id: g.nextID, kind: KindBlock, mode: ModeNone, block: b}
	g.nextID++
	g.blocks = append(g.blocks, b)
	return b
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%s, %d nodes, %d blocks)", g.method.Name, len(g.nodes), len(g.blocks))
}
