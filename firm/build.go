package firm

import "fmt"

// Projection numbers of the Start node's tuple.
const (
	ProjStartMem  = 0
	ProjStartArgs = 1
)

// Projection numbers of a Cond node's tuple.
const (
	ProjCondFalse = 0
	ProjCondTrue  = 1
)

// Builder constructs a method graph. It is the producer side of the input
// contract: the front end and the tests build graphs through it, the reader
// drives it from text.
//
// The start block, end block, Start node, End node and the Start projections
// exist from the beginning; everything else is wired explicitly. Loop phis
// are built with placeholder operands and closed with SetPred.
type Builder struct {
	graph    *Graph
	program  *Program
	argsProj *Node
	memProj  *Node
	params   map[int]*Node
}

// NewBuilder creates a graph for method and a builder over it. program may be
// nil when no call-site resolution is needed.
func NewBuilder(method *Method, program *Program) *Builder {
	g := &Graph{method: method}
	g.startBlock = g.newBlock()
	g.endBlock = g.newBlock()
	g.start = g.newNode(KindStart, ModeT, g.startBlock)
	g.end = g.newNode(KindEnd, ModeNone, g.endBlock)

	b := &Builder{graph: g, program: program, params: make(map[int]*Node)}
	b.memProj = g.newNode(KindProj, ModeM, g.startBlock, g.start)
	b.memProj.Num = ProjStartMem
	b.argsProj = g.newNode(KindProj, ModeT, g.startBlock, g.start)
	b.argsProj.Num = ProjStartArgs
	return b
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *Graph { return b.graph }

// StartBlock returns the graph's entry block.
func (b *Builder) StartBlock() *Block { return b.graph.startBlock }

// EndBlock returns the graph's exit block.
func (b *Builder) EndBlock() *Block { return b.graph.endBlock }

// InitialMem returns the memory projection off Start.
func (b *Builder) InitialMem() *Node { return b.memProj }

// Param returns the i-th parameter projection, creating it on first use.
func (b *Builder) Param(i int) *Node {
	if p, ok := b.params[i]; ok {
		return p
	}
	if i < 0 || i >= len(b.graph.method.ParamModes) {
		panic(fmt.Sprintf("firm: method %s has no parameter %d", b.graph.method.Name, i))
	}
	p := b.graph.newNode(KindProj, b.graph.method.ParamModes[i], b.graph.startBlock, b.argsProj)
	p.Num = i
	b.params[i] = p
	return p
}

// NewBlock creates a block with the given incoming control-flow nodes.
func (b *Builder) NewBlock(preds ...*Node) *Block {
	blk := b.graph.newBlock()
	blk.preds = append(blk.preds, preds...)
	return blk
}

// AddBlockPred appends an incoming control edge to blk. Used to close loop
// back edges after the jump exists.
func (b *Builder) AddBlockPred(blk *Block, pred *Node) {
	blk.preds = append(blk.preds, pred)
}

// Const creates a constant. Constants live in the start block.
func (b *Builder) Const(mode Mode, value int64) *Node {
	n := b.graph.newNode(KindConst, mode, b.graph.startBlock)
	n.Value = value
	return n
}

// Unknown creates an Unknown value of the given mode in the start block.
func (b *Builder) Unknown(mode Mode) *Node {
	return b.graph.newNode(KindUnknown, mode, b.graph.startBlock)
}

// Address creates an Address node naming a symbol.
func (b *Builder) Address(ident string) *Node {
	n := b.graph.newNode(KindAddress, ModeP, b.graph.startBlock)
	n.Ident = ident
	return n
}

// Binary creates a two-operand arithmetic node of the given kind.
func (b *Builder) Binary(kind Kind, mode Mode, blk *Block, left, right *Node) *Node {
	switch kind {
	case KindAdd, KindSub, KindMul, KindAnd, KindEor, KindShl, KindShr, KindShrs:
	default:
		panic(fmt.Sprintf("firm: %s is not a binary kind", kind))
	}
	return b.graph.newNode(kind, mode, blk, left, right)
}

// Minus creates an arithmetic negation.
func (b *Builder) Minus(blk *Block, op *Node) *Node {
	return b.graph.newNode(KindMinus, op.mode, blk, op)
}

// Not creates a boolean negation.
func (b *Builder) Not(blk *Block, op *Node) *Node {
	return b.graph.newNode(KindNot, ModeB, blk, op)
}

// Conv creates a mode conversion.
func (b *Builder) Conv(blk *Block, op *Node, to Mode) *Node {
	return b.graph.newNode(KindConv, to, blk, op)
}

// Cmp creates a comparison producing the internal boolean mode.
func (b *Builder) Cmp(blk *Block, rel Relation, left, right *Node) *Node {
	n := b.graph.newNode(KindCmp, ModeB, blk, left, right)
	n.Relation = rel
	return n
}

// Cond creates a conditional branch on the given selector.
func (b *Builder) Cond(blk *Block, selector *Node) *Node {
	return b.graph.newNode(KindCond, ModeT, blk, selector)
}

// CondProjs creates the false and true control projections of a Cond.
func (b *Builder) CondProjs(cond *Node) (falseProj, trueProj *Node) {
	falseProj = b.graph.newNode(KindProj, ModeX, cond.block, cond)
	falseProj.Num = ProjCondFalse
	trueProj = b.graph.newNode(KindProj, ModeX, cond.block, cond)
	trueProj.Num = ProjCondTrue
	return falseProj, trueProj
}

// Jmp creates an unconditional jump out of blk. The target is wired by
// listing the jump in the target block's predecessors.
func (b *Builder) Jmp(blk *Block) *Node {
	return b.graph.newNode(KindJmp, ModeX, blk)
}

// Return creates a return, appends it to the end block's control
// predecessors and keeps it alive through the End node. value may be nil.
func (b *Builder) Return(blk *Block, mem *Node, value *Node) *Node {
	preds := []*Node{mem}
	if value != nil {
		preds = append(preds, value)
	}
	ret := b.graph.newNode(KindReturn, ModeX, blk, preds...)
	b.graph.endBlock.preds = append(b.graph.endBlock.preds, ret)
	b.graph.end.preds = append(b.graph.end.preds, ret)
	return ret
}

// KeepAlive adds a keep-alive edge from End to blk, so blocks of infinite
// loops stay reachable during traversal.
func (b *Builder) KeepAlive(blk *Block) {
	b.graph.end.preds = append(b.graph.end.preds, blk.node)
}

// Phi creates a phi in blk. The number of operands must eventually equal the
// block's predecessor count; loop operands may be filled in later via SetPred.
func (b *Builder) Phi(blk *Block, mode Mode, operands ...*Node) *Node {
	return b.graph.newNode(KindPhi, mode, blk, operands...)
}

// AddPhiOperand appends an operand to a phi, for back edges wired after the
// phi was created.
func (b *Builder) AddPhiOperand(phi *Node, operand *Node) {
	if phi.kind != KindPhi {
		panic("firm: AddPhiOperand on non-phi")
	}
	phi.preds = append(phi.preds, operand)
}

// SetPred replaces predecessor i of n. Used to close placeholder operands.
func (b *Builder) SetPred(n *Node, i int, def *Node) {
	n.preds[i] = def
}

// Load creates a load tuple node; use LoadResults for its projections.
func (b *Builder) Load(blk *Block, mem, ptr *Node, loadMode Mode) *Node {
	n := b.graph.newNode(KindLoad, ModeT, blk, mem, ptr)
	n.LoadMode = loadMode
	return n
}

// LoadResults creates the memory and value projections of a load.
func (b *Builder) LoadResults(load *Node) (memProj, valueProj *Node) {
	memProj = b.graph.newNode(KindProj, ModeM, load.block, load)
	valueProj = b.graph.newNode(KindProj, load.LoadMode, load.block, load)
	valueProj.Num = 1
	return memProj, valueProj
}

// Div creates a division tuple node; use DivResults for its projections.
func (b *Builder) Div(blk *Block, mem, dividend, divisor *Node) *Node {
	return b.graph.newNode(KindDiv, ModeT, blk, mem, dividend, divisor)
}

// Mod creates a remainder tuple node; use DivResults for its projections.
func (b *Builder) Mod(blk *Block, mem, dividend, divisor *Node) *Node {
	return b.graph.newNode(KindMod, ModeT, blk, mem, dividend, divisor)
}

// DivResults creates the memory and value projections of a Div or Mod.
func (b *Builder) DivResults(div *Node, resultMode Mode) (memProj, valueProj *Node) {
	memProj = b.graph.newNode(KindProj, ModeM, div.block, div)
	valueProj = b.graph.newNode(KindProj, resultMode, div.block, div)
	valueProj.Num = 1
	return memProj, valueProj
}

// Store creates a store tuple node; use StoreMem for its memory projection.
func (b *Builder) Store(blk *Block, mem, ptr, value *Node) *Node {
	return b.graph.newNode(KindStore, ModeT, blk, mem, ptr, value)
}

// StoreMem creates the memory projection of a store.
func (b *Builder) StoreMem(store *Node) *Node {
	return b.graph.newNode(KindProj, ModeM, store.block, store)
}

// Call creates a call tuple node. callee may be nil for allocation calls,
// which are identified downstream by the missing MethodReferences entry.
func (b *Builder) Call(blk *Block, mem *Node, address *Node, callee *Method, args ...*Node) *Node {
	preds := append([]*Node{mem, address}, args...)
	call := b.graph.newNode(KindCall, ModeT, blk, preds...)
	if callee != nil && b.program != nil {
		b.program.MethodReferences[call] = callee
	}
	return call
}

// CallResults creates the memory projection and, for non-void callees, the
// value projection of a call.
func (b *Builder) CallResults(call *Node, resultMode Mode) (memProj, valueProj *Node) {
	memProj = b.graph.newNode(KindProj, ModeM, call.block, call)
	if resultMode != ModeNone {
		valueProj = b.graph.newNode(KindProj, resultMode, call.block, call)
		valueProj.Num = 1
	}
	return memProj, valueProj
}

// NewNode creates a node of an arbitrary kind with preds already resolved.
// It is the raw form the graph reader builds on; code prefers the typed
// constructors above.
func (b *Builder) NewNode(kind Kind, mode Mode, blk *Block, preds ...*Node) *Node {
	return b.graph.newNode(kind, mode, blk, preds...)
}

// Finish runs structural checks and hands out the graph.
func (b *Builder) Finish() (*Graph, error) {
	for _, blk := range b.graph.blocks {
		for i, pred := range blk.preds {
			if pred == nil {
				return nil, fmt.Errorf("firm: %s predecessor %d is unset", blk, i)
			}
			if pred.mode != ModeX {
				return nil, fmt.Errorf("firm: %s predecessor %d is %s, want a control-flow node", blk, i, pred)
			}
		}
	}
	for _, n := range b.graph.nodes {
		if n.kind != KindPhi {
			continue
		}
		if len(n.preds) != n.block.PredCount() {
			return nil, fmt.Errorf("firm: %s has %d operands, block has %d predecessors",
				n, len(n.preds), n.block.PredCount())
		}
		for i, pred := range n.preds {
			if pred == nil {
				return nil, fmt.Errorf("firm: %s operand %d is unset", n, i)
			}
		}
	}
	return b.graph, nil
}
