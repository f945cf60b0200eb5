package lower

import (
	"io"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/llir"
)

// Options configure the lowering of a program.
type Options struct {
	// Dump writes each firm graph to DumpWriter before lowering it.
	Dump bool
	// DumpWriter receives graph dumps; defaults to stderr.
	DumpWriter io.Writer
	// Optimize lowers through the pattern-matching instruction selector
	// instead of the 1:1 baseline.
	Optimize bool
	// Logger receives progress (V(2)) and per-node tracing (V(4)).
	Logger logr.Logger
}

// Result is the output contract towards instruction scheduling and register
// allocation: one LLIR graph per successfully lowered method, plus the
// parameter registers in declaration order.
type Result struct {
	Graphs map[*firm.Method]*llir.Graph
	Params map[*firm.Method][]llir.VirtualRegister
	// Errors holds the failure per method whose lowering was aborted. Its
	// partial graph is discarded.
	Errors map[*firm.Method]error
}

// Lower translates every method graph of the program into LLIR. A method
// that violates the lowering contract is reported in Result.Errors; the
// remaining methods are still lowered.
func Lower(program *firm.Program, opts Options) *Result {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	dumpWriter := opts.DumpWriter
	if dumpWriter == nil {
		dumpWriter = os.Stderr
	}

	result := &Result{
		Graphs: make(map[*firm.Method]*llir.Graph),
		Params: make(map[*firm.Method][]llir.VirtualRegister),
		Errors: make(map[*firm.Method]error),
	}

	for _, method := range program.Methods {
		graph := program.Graphs[method]
		if graph == nil {
			continue
		}
		if opts.Dump {
			spew.Fdump(dumpWriter, graph)
		}
		log.V(2).Info("lowering method", "method", method.Name)

		f := newFirmToLlir(program, graph, log)
		if opts.Optimize {
			f.visitor = &InstructionSelection{f}
		}
		if err := f.lower(); err != nil {
			result.Errors[method] = errors.Wrapf(err, "lowering %s", method.Name)
			continue
		}
		result.Graphs[method] = f.llir
		result.Params[method] = f.params
	}

	return result
}

// nodeVisitor is the overridable part of the per-node lowering. The
// instruction selector replaces these hooks; everything else, in particular
// the phi, critical-edge and memory logic, is shared.
type nodeVisitor interface {
	visitLoad(n *firm.Node) error
	visitStore(n *firm.Node) error
	visitCond(n *firm.Node) error
}

// outMark remembers that a firm node's value must become an output of its
// block, and under which register. Ordered by source-node id.
type outMark struct {
	node *firm.Node
	reg  llir.VirtualRegister
}

// phiRecord is a value phi with its accumulator register, recorded during
// the main traversal and resolved afterwards. Ordered by source-node id.
type phiRecord struct {
	phi   *firm.Node
	accum llir.VirtualRegister
}

// phiMove is one emitted phi copy; the finalizer turns overwrites of still
// live inputs into schedule dependencies.
type phiMove struct {
	mov   llir.RegisterNode
	block *llir.BasicBlock
}

// edgeKey identifies a control edge by the phi's block and the predecessor
// index, the key under which inserted blocks are cached.
type edgeKey struct {
	target *firm.Block
	idx    int
}

// FirmToLlir lowers a single method's sea-of-nodes graph into LLIR. All
// state is confined to one instance; methods are lowered sequentially.
type FirmToLlir struct {
	program *firm.Program
	graph   *firm.Graph
	llir    *llir.Graph
	log     logr.Logger

	blockMap    map[*firm.Block]*llir.BasicBlock
	edges       map[*firm.Block]*blockEdges
	inserted    map[edgeKey]*llir.BasicBlock
	nodeMap     map[*firm.Node]llir.Node
	visited     map[*firm.Node]bool
	temporaried map[*firm.Node]bool

	markedOut   *btree.BTreeG[outMark]
	phis        *btree.BTreeG[phiRecord]
	phiRegMoves []phiMove

	params  []llir.VirtualRegister
	visitor nodeVisitor
}

func newFirmToLlir(program *firm.Program, graph *firm.Graph, log logr.Logger) *FirmToLlir {
	f := &FirmToLlir{
		program:   program,
		graph:     graph,
		llir:      llir.NewGraph(),
		log:       log,
		blockMap:  make(map[*firm.Block]*llir.BasicBlock),
		inserted:  make(map[edgeKey]*llir.BasicBlock),
		nodeMap:   make(map[*firm.Node]llir.Node),
		visited:   make(map[*firm.Node]bool),
		markedOut: btree.NewG[outMark](8, func(a, b outMark) bool { return a.node.ID() < b.node.ID() }),
		phis:      btree.NewG[phiRecord](8, func(a, b phiRecord) bool { return a.phi.ID() < b.phi.ID() }),
	}
	f.visitor = f
	f.blockMap[graph.StartBlock()] = f.llir.StartBlock()
	return f
}

// lower runs the full pipeline for one method: edge analysis, the phi
// pre-pass, parameter binding, the main traversal seeded at End, phi
// resolution and finalization.
func (f *FirmToLlir) lower() error {
	f.graph.EnableBackEdges()
	defer f.graph.DisableBackEdges()

	f.graph.WalkBlocks(func(b *firm.Block) {
		if b == f.graph.StartBlock() || b == f.graph.EndBlock() {
			return
		}
		if _, ok := f.blockMap[b]; !ok {
			f.blockMap[b] = f.llir.NewBasicBlock()
		}
	})
	f.edges = analyzeBlockEdges(f.graph)
	f.temporaried = temporariedPhis(f.graph)

	f.lowerParams()

	if err := f.visitNode(f.graph.End()); err != nil {
		return err
	}
	if err := f.resolvePhis(); err != nil {
		return err
	}
	return f.finalize()
}

// lowerParams binds every parameter projection to an input node of the
// start block on a pre-allocated register. Registers are assigned in
// parameter order.
func (f *FirmToLlir) lowerParams() {
	start := f.llir.StartBlock()

	var args []*firm.Node
	for _, proj := range f.graph.Outs(f.graph.Start()) {
		if proj.Kind() != firm.KindProj || proj.Mode() != firm.ModeT {
			continue
		}
		for _, arg := range f.graph.Outs(proj) {
			if arg.Kind() == firm.KindProj && arg.Mode().IsValue() {
				args = append(args, arg)
			}
		}
	}
	sort.Slice(args, func(i, j int) bool { return args[i].Num < args[j].Num })

	for _, arg := range args {
		reg := f.llir.Registers().Next(llir.WidthOfMode(arg.Mode()))
		in := start.NewInput(reg)
		f.nodeMap[arg] = in
		f.params = append(f.params, reg)
	}
}

// visitNode is the depth-first traversal: data predecessors before the node
// itself, so every node finds its operands lowered. Phis are the exception
// and lower before their operands; their copies are deferred to the
// resolution pass, which breaks the operand cycles phis sit on. Keep-alive
// edges referencing blocks are flattened to the blocks' control
// predecessors.
func (f *FirmToLlir) visitNode(n *firm.Node) error {
	if f.visited[n] {
		return nil
	}
	f.visited[n] = true
	f.log.V(4).Info("visit", "node", n.String())

	if n.Kind() == firm.KindPhi {
		if err := f.dispatch(n); err != nil {
			return err
		}
	}

	for _, pred := range n.Preds() {
		if pred.Kind() == firm.KindBlock {
			for _, ctrl := range pred.Block().Preds() {
				if err := f.visitNode(ctrl); err != nil {
					return err
				}
			}
			continue
		}
		if err := f.visitNode(pred); err != nil {
			return err
		}
		if pred.Mode() == firm.ModeM && pred.Block() != n.Block() {
			if ln, ok := f.nodeMap[pred]; ok {
				f.lookupBlock(pred.Block()).AddOutput(ln)
			}
		}
	}

	if n.Kind() != firm.KindPhi {
		if err := f.dispatch(n); err != nil {
			return err
		}
	}

	// Control-flow nodes pull in the rest of the graph: every block is
	// reachable through the control predecessors of the blocks its
	// control-flow nodes live in.
	switch n.Kind() {
	case firm.KindEnd, firm.KindReturn, firm.KindJmp, firm.KindCond:
		for _, ctrl := range n.Block().Preds() {
			if err := f.visitNode(ctrl); err != nil {
				return err
			}
		}
	}
	if n.Kind() == firm.KindReturn {
		mem := n.Pred(0)
		ln, ok := f.nodeMap[mem]
		if !ok {
			return &InvariantViolationError{Node: mem, Detail: "return memory operand was not lowered"}
		}
		f.lookupBlock(mem.Block()).AddOutput(ln)
	}
	return nil
}

func (f *FirmToLlir) dispatch(n *firm.Node) error {
	switch n.Kind() {
	case firm.KindStart, firm.KindConst, firm.KindEnd, firm.KindAddress, firm.KindCmp:
		// Constants are materialized at their use sites, comparisons at
		// their consuming Cond; Start, End and Address have no lowering.
		return nil
	case firm.KindProj:
		return f.visitProj(n)
	case firm.KindAdd, firm.KindSub, firm.KindMul, firm.KindAnd, firm.KindEor,
		firm.KindShl, firm.KindShr, firm.KindShrs:
		return f.visitBinary(n)
	case firm.KindMinus:
		return f.visitMinus(n)
	case firm.KindNot:
		return f.visitNot(n)
	case firm.KindConv:
		return f.visitConv(n)
	case firm.KindCond:
		return f.visitor.visitCond(n)
	case firm.KindJmp:
		return f.visitJmp(n)
	case firm.KindReturn:
		return f.visitReturn(n)
	case firm.KindLoad:
		return f.visitor.visitLoad(n)
	case firm.KindStore:
		return f.visitor.visitStore(n)
	case firm.KindDiv, firm.KindMod:
		return f.visitDivMod(n)
	case firm.KindCall:
		return f.visitCall(n)
	case firm.KindPhi:
		return f.visitPhi(n)
	case firm.KindUnknown:
		return f.visitUnknown(n)
	default:
		return &UnsupportedNodeKindError{Kind: n.Kind(), Block: n.Block()}
	}
}

func (f *FirmToLlir) register(n *firm.Node, ln llir.Node) {
	f.nodeMap[n] = ln
}

func (f *FirmToLlir) lookupBlock(b *firm.Block) *llir.BasicBlock {
	bb, ok := f.blockMap[b]
	if !ok {
		panic("lower: no LLIR block for " + b.String())
	}
	return bb
}

func (f *FirmToLlir) markedOutReg(n *firm.Node) (llir.VirtualRegister, bool) {
	m, ok := f.markedOut.Get(outMark{node: n})
	return m.reg, ok
}

func (f *FirmToLlir) markOut(n *firm.Node, reg llir.VirtualRegister) {
	f.markedOut.ReplaceOrInsert(outMark{node: n, reg: reg})
}

// getPredLlirNode resolves a data operand into the user's block: constants
// are materialized fresh, same-block values are used directly, cross-block
// values enter through the block's input node and mark the definition as
// output-required. A definition that is not lowered yet must live in
// another block; it gets a register reserved for it.
func (f *FirmToLlir) getPredLlirNode(user, def *firm.Node) (llir.Node, error) {
	cur := f.lookupBlock(user.Block())

	if def.Kind() == firm.KindConst {
		return cur.NewMovImmediate(def.Value, llir.WidthOfMode(def.Mode())), nil
	}

	if ln, ok := f.nodeMap[def]; ok {
		if ln.Block() == cur {
			return ln, nil
		}
		rn, ok := ln.(llir.RegisterNode)
		if !ok {
			return nil, &InvariantViolationError{Node: def, Detail: "non-register value crosses a block boundary"}
		}
		in := cur.NewInput(rn.TargetRegister())
		f.markOut(def, in.TargetRegister())
		return in, nil
	}

	// Within a block the traversal is topological, so an unlowered
	// definition cannot share the user's block.
	if def.Block() == user.Block() {
		return nil, &InvariantViolationError{Node: def, Detail: "unlowered same-block operand"}
	}
	reg, ok := f.markedOutReg(def)
	if !ok {
		reg = f.llir.Registers().Next(llir.WidthOfMode(def.Mode()))
		f.markOut(def, reg)
	}
	return cur.NewInput(reg), nil
}

func (f *FirmToLlir) getPredRegisterNode(user, def *firm.Node) (llir.RegisterNode, error) {
	ln, err := f.getPredLlirNode(user, def)
	if err != nil {
		return nil, err
	}
	rn, ok := ln.(llir.RegisterNode)
	if !ok {
		return nil, &InvariantViolationError{Node: def, Detail: "operand produces no register"}
	}
	return rn, nil
}

// getPredSideEffectNode resolves a memory operand: the defining side effect
// if it lives in the user's block, the block's memory input otherwise. The
// cross-block definition becomes an output of its block.
func (f *FirmToLlir) getPredSideEffectNode(user, def *firm.Node) (llir.SideEffect, error) {
	cur := f.lookupBlock(user.Block())

	se, ok := f.nodeMap[def].(llir.SideEffect)
	if !ok {
		return nil, &InvariantViolationError{Node: def, Detail: "memory operand is not a side effect"}
	}
	if se.Block() == cur {
		return se, nil
	}
	se.Block().AddOutput(se)
	return cur.MemoryInput(), nil
}

func (f *FirmToLlir) visitProj(n *firm.Node) error {
	pred := n.Pred(0)

	switch n.Mode() {
	case firm.ModeX:
		// Control projections are handled by their Cond.
		return nil
	case firm.ModeM:
		if pred.Kind() == firm.KindStart {
			f.register(n, f.lookupBlock(n.Block()).MemoryInput())
			return nil
		}
		se, err := f.getPredSideEffectNode(n, pred)
		if err != nil {
			return err
		}
		f.register(n, se)
		return nil
	default:
		if _, ok := f.nodeMap[n]; ok {
			// Parameter projections are bound up front.
			return nil
		}
		if _, ok := f.nodeMap[pred]; ok {
			ln, err := f.getPredLlirNode(n, pred)
			if err != nil {
				return err
			}
			f.register(n, ln)
		}
		return nil
	}
}

var binaryKinds = map[firm.Kind]llir.BinaryKind{
	firm.KindAdd:  llir.BinaryAdd,
	firm.KindSub:  llir.BinarySub,
	firm.KindMul:  llir.BinaryMul,
	firm.KindAnd:  llir.BinaryAnd,
	firm.KindEor:  llir.BinaryXor,
	firm.KindShl:  llir.BinaryShiftLeft,
	firm.KindShr:  llir.BinaryShiftRight,
	firm.KindShrs: llir.BinaryArithShiftRight,
}

func (f *FirmToLlir) visitBinary(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	lhs, err := f.getPredRegisterNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	rhs, err := f.getPredRegisterNode(n, n.Pred(1))
	if err != nil {
		return err
	}

	f.register(n, bb.NewBinary(binaryKinds[n.Kind()], lhs, rhs))
	return nil
}

func (f *FirmToLlir) visitMinus(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	op, err := f.getPredRegisterNode(n, n.Pred(0))
	if err != nil {
		return err
	}

	zero := bb.NewMovImmediate(0, llir.WidthOfMode(n.Mode()))
	f.register(n, bb.NewBinary(llir.BinarySub, zero, op))
	return nil
}

// visitNot aliases the operand when it is a lowered value; the boolean
// inversion is realized at branch time by inverting the predicate, so a Not
// over a comparison has no lowering of its own.
func (f *FirmToLlir) visitNot(n *firm.Node) error {
	op := n.Pred(0)
	if _, ok := f.nodeMap[op]; !ok && op.Kind() != firm.KindConst {
		return nil
	}
	ln, err := f.getPredLlirNode(n, op)
	if err != nil {
		return err
	}
	f.register(n, ln)
	return nil
}

func (f *FirmToLlir) visitConv(n *firm.Node) error {
	op := n.Pred(0)
	if op.Mode() != firm.ModeIs || n.Mode() != firm.ModeLs {
		return &UnsupportedConversionError{From: op.Mode(), To: n.Mode(), Block: n.Block()}
	}

	bb := f.lookupBlock(n.Block())
	src, err := f.getPredRegisterNode(n, op)
	if err != nil {
		return err
	}
	f.register(n, bb.NewMovSignExtend(src))
	return nil
}

// controlTarget returns the block a control-flow node enters.
func (f *FirmToLlir) controlTarget(ctrl *firm.Node) (*firm.Block, error) {
	for _, out := range f.graph.Outs(ctrl) {
		if out.Kind() == firm.KindBlock {
			return out.Block(), nil
		}
	}
	return nil, &InvariantViolationError{Node: ctrl, Detail: "control-flow node reaches no block"}
}

func (f *FirmToLlir) visitJmp(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	target, err := f.controlTarget(n)
	if err != nil {
		return err
	}
	bb.Finish(bb.NewJump(f.lookupBlock(target)))
	return nil
}

func (f *FirmToLlir) visitReturn(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	var value llir.RegisterNode
	if n.PredCount() > 1 {
		var err error
		value, err = f.getPredRegisterNode(n, n.Pred(1))
		if err != nil {
			return err
		}
	}
	bb.Finish(bb.NewReturn(value))
	return nil
}

// branchPredicate walks the selector chain of a Cond: any number of Not
// nodes, each inverting the predicate, ending in a Cmp.
func (f *FirmToLlir) branchPredicate(selector *firm.Node) (llir.Predicate, *firm.Node, error) {
	if selector.Kind() == firm.KindNot {
		p, cmp, err := f.branchPredicate(selector.Pred(0))
		if err != nil {
			return 0, nil, err
		}
		return p.Invert(), cmp, nil
	}
	if selector.Kind() != firm.KindCmp {
		return 0, nil, &InvariantViolationError{Node: selector, Detail: "branch selector is not a comparison"}
	}
	var p llir.Predicate
	switch selector.Relation {
	case firm.RelationEqual:
		p = llir.PredicateEqual
	case firm.RelationLess:
		p = llir.PredicateLessThan
	case firm.RelationLessEqual:
		p = llir.PredicateLessEqual
	case firm.RelationGreater:
		p = llir.PredicateGreaterThan
	case firm.RelationGreaterEqual:
		p = llir.PredicateGreaterEqual
	default:
		return 0, nil, &UnsupportedBranchPredicateError{Relation: selector.Relation, Block: selector.Block()}
	}
	return p, selector, nil
}

// condProjections finds the false and true control projections of a Cond.
func (f *FirmToLlir) condProjections(n *firm.Node) (falseProj, trueProj *firm.Node, err error) {
	for _, out := range f.graph.Outs(n) {
		if out.Kind() != firm.KindProj || out.Mode() != firm.ModeX {
			continue
		}
		switch out.Num {
		case firm.ProjCondFalse:
			falseProj = out
		case firm.ProjCondTrue:
			trueProj = out
		default:
			return nil, nil, &MalformedControlProjectionError{Num: out.Num, Block: out.Block()}
		}
	}
	if falseProj == nil || trueProj == nil {
		return nil, nil, &InvariantViolationError{Node: n, Detail: "condition lacks a control projection"}
	}
	return falseProj, trueProj, nil
}

func (f *FirmToLlir) visitCond(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	predicate, cmp, err := f.branchPredicate(n.Pred(0))
	if err != nil {
		return err
	}
	lhs, err := f.getPredRegisterNode(n, cmp.Pred(0))
	if err != nil {
		return err
	}
	rhs, err := f.getPredRegisterNode(n, cmp.Pred(1))
	if err != nil {
		return err
	}
	llirCmp := bb.NewCmp(lhs, llir.RegisterOperand{Node: rhs})

	return f.finishBranch(n, predicate, llirCmp)
}

// finishBranch resolves the control projections of a Cond and installs the
// branch terminator. Shared between the baseline and the instruction
// selector.
func (f *FirmToLlir) finishBranch(n *firm.Node, predicate llir.Predicate, cmp *llir.CmpInstruction) error {
	bb := f.lookupBlock(n.Block())

	falseProj, trueProj, err := f.condProjections(n)
	if err != nil {
		return err
	}
	trueBlock, err := f.controlTarget(trueProj)
	if err != nil {
		return err
	}
	falseBlock, err := f.controlTarget(falseProj)
	if err != nil {
		return err
	}

	branch := bb.NewBranch(predicate, cmp, f.lookupBlock(trueBlock), f.lookupBlock(falseBlock))
	f.register(n, branch)
	bb.Finish(branch)
	return nil
}

func (f *FirmToLlir) visitLoad(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	mem, err := f.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	addr, err := f.getPredRegisterNode(n, n.Pred(1))
	if err != nil {
		return err
	}

	f.register(n, bb.NewMovLoad(llir.BaseAddress(addr), mem, llir.WidthOfMode(n.LoadMode)))
	return nil
}

func (f *FirmToLlir) visitStore(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	mem, err := f.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	addr, err := f.getPredRegisterNode(n, n.Pred(1))
	if err != nil {
		return err
	}
	value, err := f.getPredRegisterNode(n, n.Pred(2))
	if err != nil {
		return err
	}

	width := llir.WidthOfMode(n.Pred(2).Mode())
	f.register(n, bb.NewMovStore(llir.BaseAddress(addr), value, mem, width))
	return nil
}

func (f *FirmToLlir) visitDivMod(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	mem, err := f.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	dividend, err := f.getPredRegisterNode(n, n.Pred(1))
	if err != nil {
		return err
	}
	divisor, err := f.getPredRegisterNode(n, n.Pred(2))
	if err != nil {
		return err
	}

	kind := llir.DivisionQuotient
	if n.Kind() == firm.KindMod {
		kind = llir.DivisionRemainder
	}
	f.register(n, bb.NewDivision(kind, dividend, divisor, mem))
	return nil
}

func (f *FirmToLlir) visitCall(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	mem, err := f.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}

	// The memory and callee-address predecessors are not arguments.
	var args []llir.RegisterNode
	for i := 2; i < n.PredCount(); i++ {
		arg, err := f.getPredRegisterNode(n, n.Pred(i))
		if err != nil {
			return err
		}
		args = append(args, arg)
	}

	if method, ok := f.program.MethodReferences[n]; ok {
		width := llir.Bit32
		if method.ReturnMode.IsValue() {
			width = llir.WidthOfMode(method.ReturnMode)
		}
		f.register(n, bb.NewCall(method.Name, false, mem, args, width))
		return nil
	}

	// No resolved method: the two-argument form is an allocation call.
	if len(args) != 2 {
		return &InvariantViolationError{Node: n, Detail: "unresolved call is not an allocation"}
	}
	f.register(n, bb.NewCall("", true, mem, args, llir.Bit64))
	return nil
}

func (f *FirmToLlir) visitUnknown(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())
	f.register(n, bb.NewMovImmediate(0, llir.WidthOfMode(n.Mode())))
	return nil
}

// visitPhi lowers a value phi to an input node on its accumulator register.
// The copies feeding the accumulator are emitted by the resolution pass
// once every operand is lowered. A temporaried phi is read through a fresh
// register so the block's own phi copies cannot clobber it before use.
// Memory phis are the block's memory input.
func (f *FirmToLlir) visitPhi(n *firm.Node) error {
	bb := f.lookupBlock(n.Block())

	if n.Mode() == firm.ModeM {
		f.register(n, bb.MemoryInput())
		return nil
	}

	reg, ok := f.markedOutReg(n)
	if !ok {
		reg = f.llir.Registers().Next(llir.WidthOfMode(n.Mode()))
	}
	input := bb.NewInput(reg)
	if f.temporaried[n] {
		tmp := f.llir.Registers().Next(reg.Width)
		f.register(n, bb.NewMovRegisterInto(tmp, input))
	} else {
		f.register(n, input)
	}
	f.phis.ReplaceOrInsert(phiRecord{phi: n, accum: reg})
	return nil
}
