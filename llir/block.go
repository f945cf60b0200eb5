package llir

import (
	"fmt"

	"github.com/google/btree"
)

// ScheduleDependency is a "must follow" constraint between two nodes of the
// same block: After may not be emitted before Before. The scheduler consumes
// these; the lowering produces them where a phi copy overwrites a register
// the block still reads.
type ScheduleDependency struct {
	After  Node
	Before Node
}

// BasicBlock is an ordered collection of LLIR nodes with explicit inputs,
// a memory input, an output set and exactly one terminator.
//
// A block starts out building, becomes finished when its terminator is set
// and is finalized graph-wide once outputs and schedule dependencies are
// closed.
type BasicBlock struct {
	id    int
	graph *Graph

	nodes       []Node
	inputs      []*InputNode
	memoryInput *MemoryInputNode
	outputs     *btree.BTreeG[Node]
	terminator  Terminator

	schedDeps []ScheduleDependency
	schedSeen map[[2]int]bool
}

func newBasicBlock(g *Graph, id int) *BasicBlock {
	return &BasicBlock{
		id:    id,
		graph: g,
		outputs: btree.NewG[Node](8, func(a, b Node) bool {
			return a.ID() < b.ID()
		}),
		schedSeen: make(map[[2]int]bool),
	}
}

// ID returns the block id, monotonic in creation order.
func (b *BasicBlock) ID() int { return b.id }

// Label returns the block's assembly label.
func (b *BasicBlock) Label() string { return fmt.Sprintf(".L%d", b.id) }

// Graph returns the graph owning the block.
func (b *BasicBlock) Graph() *Graph { return b.graph }

// Nodes returns the block's computation nodes in insertion order, which is a
// valid schedule (uses after defs). Inputs, the memory input and the
// terminator are kept separately.
func (b *BasicBlock) Nodes() []Node { return b.nodes }

// Inputs returns the block's input nodes in creation order.
func (b *BasicBlock) Inputs() []*InputNode { return b.inputs }

// MemoryInput returns the block's incoming memory state, creating it on
// first use.
func (b *BasicBlock) MemoryInput() *MemoryInputNode {
	if b.memoryInput == nil {
		b.memoryInput = &MemoryInputNode{nodeBase: b.newBase()}
	}
	return b.memoryInput
}

// HasMemoryInput reports whether the block's memory input was materialized.
func (b *BasicBlock) HasMemoryInput() bool { return b.memoryInput != nil }

// Terminator returns the block's terminator, nil while building.
func (b *BasicBlock) Terminator() Terminator { return b.terminator }

// Finished reports whether the terminator is set.
func (b *BasicBlock) Finished() bool { return b.terminator != nil }

// Finish installs the terminator. A block has exactly one; installing a
// second is a bug in the lowering.
func (b *BasicBlock) Finish(t Terminator) {
	if b.terminator != nil {
		panic(fmt.Sprintf("llir: %s already finished", b.Label()))
	}
	if t.Block() != b {
		panic(fmt.Sprintf("llir: terminator belongs to %s, not %s", t.Block().Label(), b.Label()))
	}
	b.terminator = t
}

// AddOutput marks n as surviving past the block boundary. Outputs form a
// set; adding twice is a no-op.
func (b *BasicBlock) AddOutput(n Node) {
	b.outputs.ReplaceOrInsert(n)
}

// HasOutput reports whether n is in the output set.
func (b *BasicBlock) HasOutput(n Node) bool {
	_, ok := b.outputs.Get(n)
	return ok
}

// Outputs returns the output set in node-id order.
func (b *BasicBlock) Outputs() []Node {
	out := make([]Node, 0, b.outputs.Len())
	b.outputs.Ascend(func(n Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// InputForRegister returns the block's input node for reg, or nil.
func (b *BasicBlock) InputForRegister(reg VirtualRegister) *InputNode {
	for _, in := range b.inputs {
		if in.reg.ID == reg.ID {
			return in
		}
	}
	return nil
}

// NewInput returns the block's input node for reg, creating it if missing.
// A block has at most one input per register.
func (b *BasicBlock) NewInput(reg VirtualRegister) *InputNode {
	if in := b.InputForRegister(reg); in != nil {
		return in
	}
	in := &InputNode{nodeBase: b.newBase(), reg: reg}
	b.inputs = append(b.inputs, in)
	return in
}

// AddScheduleDependency records that after must not be emitted before
// before. Pairs form a set.
func (b *BasicBlock) AddScheduleDependency(after, before Node) {
	key := [2]int{after.ID(), before.ID()}
	if b.schedSeen[key] {
		return
	}
	b.schedSeen[key] = true
	b.schedDeps = append(b.schedDeps, ScheduleDependency{After: after, Before: before})
}

// ScheduleDependencies returns the recorded ordering constraints.
func (b *BasicBlock) ScheduleDependencies() []ScheduleDependency {
	return b.schedDeps
}

func (b *BasicBlock) newBase() nodeBase {
	return nodeBase{id: b.graph.nextNodeID(), block: b}
}

func (b *BasicBlock) append(n Node) {
	b.nodes = append(b.nodes, n)
}

// NewMovImmediate materializes value into a fresh register of width w.
func (b *BasicBlock) NewMovImmediate(value int64, w Width) *MovImmediate {
	return b.NewMovImmediateInto(value, b.graph.Registers().Next(w))
}

// NewMovImmediateInto materializes value into the given register. Phi
// resolution writes predecessor constants into the phi's accumulator this
// way.
func (b *BasicBlock) NewMovImmediateInto(value int64, reg VirtualRegister) *MovImmediate {
	n := &MovImmediate{nodeBase: b.newBase(), Value: value, dst: reg}
	b.append(n)
	return n
}

// NewMovRegisterInto copies src into the given register.
func (b *BasicBlock) NewMovRegisterInto(reg VirtualRegister, src RegisterNode) *MovRegister {
	n := &MovRegister{nodeBase: b.newBase(), Src: src, dst: reg}
	b.append(n)
	return n
}

// NewMovSignExtend widens a 32-bit src to a fresh 64-bit register.
func (b *BasicBlock) NewMovSignExtend(src RegisterNode) *MovSignExtend {
	if src.TargetRegister().Width != Bit32 {
		panic(fmt.Sprintf("llir: movsx source %s is not 32 bit", src.TargetRegister()))
	}
	n := &MovSignExtend{nodeBase: b.newBase(), Src: src, dst: b.graph.Registers().Next(Bit64)}
	b.append(n)
	return n
}

// NewBinary creates a two-operand instruction. The result width follows the
// left operand.
func (b *BasicBlock) NewBinary(kind BinaryKind, lhs, rhs RegisterNode) *BinaryInstruction {
	w := lhs.TargetRegister().Width
	n := &BinaryInstruction{
		nodeBase: b.newBase(),
		Kind:     kind, Lhs: lhs, Rhs: rhs,
		dst: b.graph.Registers().Next(w),
	}
	b.append(n)
	return n
}

// NewMovLoad reads a value of width w from addr.
func (b *BasicBlock) NewMovLoad(addr MemoryLocation, mem SideEffect, w Width) *MovLoad {
	n := &MovLoad{nodeBase: b.newBase(), Addr: addr, mem: mem, dst: b.graph.Registers().Next(w)}
	b.append(n)
	return n
}

// NewMovStore writes value to addr.
func (b *BasicBlock) NewMovStore(addr MemoryLocation, value RegisterNode, mem SideEffect, w Width) *MovStore {
	n := &MovStore{nodeBase: b.newBase(), Addr: addr, Value: value, Width: w, mem: mem}
	b.append(n)
	return n
}

// NewDivision creates a quotient or remainder instruction.
func (b *BasicBlock) NewDivision(kind DivisionKind, dividend, divisor RegisterNode, mem SideEffect) *Division {
	n := &Division{
		nodeBase: b.newBase(),
		Kind:     kind, Dividend: dividend, Divisor: divisor, mem: mem,
		dst: b.graph.Registers().Next(dividend.TargetRegister().Width),
	}
	b.append(n)
	return n
}

// NewCall creates a method call; callee is empty for allocation calls.
func (b *BasicBlock) NewCall(callee string, alloc bool, mem SideEffect, args []RegisterNode, w Width) *CallInstruction {
	n := &CallInstruction{
		nodeBase: b.newBase(),
		Callee:   callee, Alloc: alloc, Args: args, mem: mem,
		dst: b.graph.Registers().Next(w),
	}
	b.append(n)
	return n
}

// NewCmp compares lhs against rhs.
func (b *BasicBlock) NewCmp(lhs RegisterNode, rhs SimpleOperand) *CmpInstruction {
	n := &CmpInstruction{nodeBase: b.newBase(), Lhs: lhs, Rhs: rhs}
	b.append(n)
	return n
}

// NewJump creates a jump terminator. The caller passes it to Finish.
func (b *BasicBlock) NewJump(target *BasicBlock) *Jump {
	return &Jump{nodeBase: b.newBase(), target: target}
}

// NewBranch creates a conditional branch terminator.
func (b *BasicBlock) NewBranch(p Predicate, cmp *CmpInstruction, trueTarget, falseTarget *BasicBlock) *Branch {
	return &Branch{
		nodeBase:  b.newBase(),
		Predicate: p, Cmp: cmp,
		trueTarget: trueTarget, falseTarget: falseTarget,
	}
}

// NewReturn creates a return terminator. value may be nil.
func (b *BasicBlock) NewReturn(value RegisterNode) *ReturnInstruction {
	return &ReturnInstruction{nodeBase: b.newBase(), Value: value}
}
