package llir

import (
	"fmt"
	"strings"
)

// Node is a single LLIR operation. Every node is owned by exactly one basic
// block; its operands are nodes of the same block (cross-block values enter
// through InputNodes, memory through the block's MemoryInputNode).
type Node interface {
	// ID is the node's graph-unique id, monotonic in creation order.
	ID() int
	// Block is the basic block owning the node.
	Block() *BasicBlock
	// Operands are the same-block nodes this node reads.
	Operands() []Node
	// Mnemonic is the instruction name the emitter prints.
	Mnemonic() string

	fmt.Stringer
}

// RegisterNode is a node producing a value in a virtual register.
type RegisterNode interface {
	Node
	TargetRegister() VirtualRegister
}

// SideEffect is a node on the memory chain. MemoryDep is the side effect it
// is ordered after; it is nil only for MemoryInputNode.
type SideEffect interface {
	Node
	MemoryDep() SideEffect
}

// Terminator is the control-flow node ending a block.
type Terminator interface {
	Node
	Targets() []*BasicBlock
}

type nodeBase struct {
	id    int
	block *BasicBlock
}

func (n *nodeBase) ID() int            { return n.id }
func (n *nodeBase) Block() *BasicBlock { return n.block }

// SimpleOperand is a register or immediate instruction operand.
type SimpleOperand interface {
	// Registers lists the register nodes the operand reads, if any.
	Registers() []RegisterNode
	fmt.Stringer
}

// RegisterOperand wraps a register-producing node as an operand.
type RegisterOperand struct {
	Node RegisterNode
}

func (o RegisterOperand) Registers() []RegisterNode { return []RegisterNode{o.Node} }
func (o RegisterOperand) String() string            { return o.Node.TargetRegister().String() }

// ImmediateOperand is a folded immediate operand.
type ImmediateOperand struct {
	Value int64
	Width Width
}

func (o ImmediateOperand) Registers() []RegisterNode { return nil }
func (o ImmediateOperand) String() string            { return fmt.Sprintf("$%d", o.Value) }

// MemoryLocation is an address expression: base register plus constant
// offset. The baseline lowering only produces plain base addresses; the
// instruction selector folds offsets in.
type MemoryLocation struct {
	Base   RegisterNode
	Offset int64
}

// BaseAddress is the address held in a single register.
func BaseAddress(base RegisterNode) MemoryLocation {
	return MemoryLocation{Base: base}
}

// Registers lists the register nodes the address reads.
func (l MemoryLocation) Registers() []RegisterNode { return []RegisterNode{l.Base} }

func (l MemoryLocation) String() string {
	if l.Offset != 0 {
		return fmt.Sprintf("%d(%s)", l.Offset, l.Base.TargetRegister())
	}
	return fmt.Sprintf("(%s)", l.Base.TargetRegister())
}

// Predicate is the condition of a branch.
type Predicate uint8

const (
	PredicateEqual Predicate = iota
	PredicateNotEqual
	PredicateLessThan
	PredicateLessEqual
	PredicateGreaterThan
	PredicateGreaterEqual
)

// Invert flips the predicate to its logical negation.
func (p Predicate) Invert() Predicate {
	switch p {
	case PredicateEqual:
		return PredicateNotEqual
	case PredicateNotEqual:
		return PredicateEqual
	case PredicateLessThan:
		return PredicateGreaterEqual
	case PredicateLessEqual:
		return PredicateGreaterThan
	case PredicateGreaterThan:
		return PredicateLessEqual
	case PredicateGreaterEqual:
		return PredicateLessThan
	}
	panic(fmt.Sprintf("llir: invalid predicate %d", p))
}

func (p Predicate) String() string {
	switch p {
	case PredicateEqual:
		return "eq"
	case PredicateNotEqual:
		return "ne"
	case PredicateLessThan:
		return "lt"
	case PredicateLessEqual:
		return "le"
	case PredicateGreaterThan:
		return "gt"
	case PredicateGreaterEqual:
		return "ge"
	}
	return fmt.Sprintf("Predicate(%d)", uint8(p))
}

// MovImmediate materializes a constant into a register.
type MovImmediate struct {
	nodeBase
	Value int64
	dst   VirtualRegister
}

func (n *MovImmediate) TargetRegister() VirtualRegister { return n.dst }
func (n *MovImmediate) Operands() []Node                { return nil }
func (n *MovImmediate) Mnemonic() string                { return "movi" }
func (n *MovImmediate) String() string {
	return fmt.Sprintf("movi $%d -> %s", n.Value, n.dst)
}

// MovRegister copies one register into another.
type MovRegister struct {
	nodeBase
	Src RegisterNode
	dst VirtualRegister
}

func (n *MovRegister) TargetRegister() VirtualRegister { return n.dst }
func (n *MovRegister) Operands() []Node                { return []Node{n.Src} }
func (n *MovRegister) Mnemonic() string                { return "mov" }
func (n *MovRegister) String() string {
	return fmt.Sprintf("mov %s -> %s", n.Src.TargetRegister(), n.dst)
}

// MovSignExtend widens a 32-bit value to 64 bits.
type MovSignExtend struct {
	nodeBase
	Src RegisterNode
	dst VirtualRegister
}

func (n *MovSignExtend) TargetRegister() VirtualRegister { return n.dst }
func (n *MovSignExtend) Operands() []Node                { return []Node{n.Src} }
func (n *MovSignExtend) Mnemonic() string                { return "movsx" }
func (n *MovSignExtend) String() string {
	return fmt.Sprintf("movsx %s -> %s", n.Src.TargetRegister(), n.dst)
}

// BinaryKind selects the operation of a BinaryInstruction.
type BinaryKind uint8

const (
	BinaryAdd BinaryKind = iota
	BinarySub
	BinaryMul
	BinaryAnd
	BinaryXor
	BinaryShiftLeft
	BinaryShiftRight
	BinaryArithShiftRight
)

var binaryMnemonics = [...]string{
	BinaryAdd:             "add",
	BinarySub:             "sub",
	BinaryMul:             "mul",
	BinaryAnd:             "and",
	BinaryXor:             "xor",
	BinaryShiftLeft:       "shl",
	BinaryShiftRight:      "shr",
	BinaryArithShiftRight: "sar",
}

// BinaryInstruction is a two-operand arithmetic or logic operation.
type BinaryInstruction struct {
	nodeBase
	Kind BinaryKind
	Lhs  RegisterNode
	Rhs  RegisterNode
	dst  VirtualRegister
}

func (n *BinaryInstruction) TargetRegister() VirtualRegister { return n.dst }
func (n *BinaryInstruction) Operands() []Node                { return []Node{n.Lhs, n.Rhs} }
func (n *BinaryInstruction) Mnemonic() string                { return binaryMnemonics[n.Kind] }
func (n *BinaryInstruction) String() string {
	return fmt.Sprintf("%s %s, %s -> %s", n.Mnemonic(),
		n.Lhs.TargetRegister(), n.Rhs.TargetRegister(), n.dst)
}

// MovLoad reads a value from memory.
type MovLoad struct {
	nodeBase
	Addr MemoryLocation
	mem  SideEffect
	dst  VirtualRegister
}

func (n *MovLoad) TargetRegister() VirtualRegister { return n.dst }
func (n *MovLoad) MemoryDep() SideEffect           { return n.mem }
func (n *MovLoad) Mnemonic() string                { return "load" }
func (n *MovLoad) Operands() []Node {
	ops := []Node{n.mem}
	for _, r := range n.Addr.Registers() {
		ops = append(ops, r)
	}
	return ops
}
func (n *MovLoad) String() string {
	return fmt.Sprintf("load %s -> %s", n.Addr, n.dst)
}

// MovStore writes a value to memory.
type MovStore struct {
	nodeBase
	Addr  MemoryLocation
	Value RegisterNode
	Width Width
	mem   SideEffect
}

func (n *MovStore) MemoryDep() SideEffect { return n.mem }
func (n *MovStore) Mnemonic() string      { return "store" }
func (n *MovStore) Operands() []Node {
	ops := []Node{n.mem, n.Value}
	for _, r := range n.Addr.Registers() {
		ops = append(ops, r)
	}
	return ops
}
func (n *MovStore) String() string {
	return fmt.Sprintf("store %s -> %s", n.Value.TargetRegister(), n.Addr)
}

// DivisionKind distinguishes quotient and remainder.
type DivisionKind uint8

const (
	DivisionQuotient DivisionKind = iota
	DivisionRemainder
)

// Division computes quotient or remainder. Division can fault, so it sits on
// the memory chain.
type Division struct {
	nodeBase
	Kind     DivisionKind
	Dividend RegisterNode
	Divisor  RegisterNode
	mem      SideEffect
	dst      VirtualRegister
}

func (n *Division) TargetRegister() VirtualRegister { return n.dst }
func (n *Division) MemoryDep() SideEffect           { return n.mem }
func (n *Division) Operands() []Node                { return []Node{n.mem, n.Dividend, n.Divisor} }
func (n *Division) Mnemonic() string {
	if n.Kind == DivisionRemainder {
		return "mod"
	}
	return "div"
}
func (n *Division) String() string {
	return fmt.Sprintf("%s %s, %s -> %s", n.Mnemonic(),
		n.Dividend.TargetRegister(), n.Divisor.TargetRegister(), n.dst)
}

// CallInstruction calls a method, or the allocator when Alloc is set.
type CallInstruction struct {
	nodeBase
	Callee string
	Alloc  bool
	Args   []RegisterNode
	mem    SideEffect
	dst    VirtualRegister
}

func (n *CallInstruction) TargetRegister() VirtualRegister { return n.dst }
func (n *CallInstruction) MemoryDep() SideEffect           { return n.mem }
func (n *CallInstruction) Mnemonic() string                { return "call" }
func (n *CallInstruction) Operands() []Node {
	ops := []Node{n.mem}
	for _, a := range n.Args {
		ops = append(ops, a)
	}
	return ops
}
func (n *CallInstruction) String() string {
	var args strings.Builder
	for i, a := range n.Args {
		if i > 0 {
			args.WriteString(", ")
		}
		args.WriteString(a.TargetRegister().String())
	}
	callee := n.Callee
	if n.Alloc {
		callee = "<alloc>"
	}
	return fmt.Sprintf("call %s(%s) -> %s", callee, args.String(), n.dst)
}

// InputNode declares that the block consumes a register produced by a
// predecessor block.
type InputNode struct {
	nodeBase
	reg VirtualRegister
}

func (n *InputNode) TargetRegister() VirtualRegister { return n.reg }
func (n *InputNode) Operands() []Node                { return nil }
func (n *InputNode) Mnemonic() string                { return "in" }
func (n *InputNode) String() string {
	return fmt.Sprintf("in %s", n.reg)
}

// MemoryInputNode is the block's incoming memory state, the head of its
// memory chain.
type MemoryInputNode struct {
	nodeBase
}

func (n *MemoryInputNode) MemoryDep() SideEffect { return nil }
func (n *MemoryInputNode) Operands() []Node      { return nil }
func (n *MemoryInputNode) Mnemonic() string      { return "memin" }
func (n *MemoryInputNode) String() string        { return "memin" }

// CmpInstruction compares two operands, setting the flags a Branch consumes.
// It produces no register.
type CmpInstruction struct {
	nodeBase
	Lhs RegisterNode
	Rhs SimpleOperand
}

func (n *CmpInstruction) Mnemonic() string { return "cmp" }
func (n *CmpInstruction) Operands() []Node {
	ops := []Node{n.Lhs}
	for _, r := range n.Rhs.Registers() {
		ops = append(ops, r)
	}
	return ops
}
func (n *CmpInstruction) String() string {
	return fmt.Sprintf("cmp %s, %s", n.Lhs.TargetRegister(), n.Rhs)
}

// Jump transfers control unconditionally.
type Jump struct {
	nodeBase
	target *BasicBlock
}

// Target returns the jump destination.
func (n *Jump) Target() *BasicBlock { return n.target }

// SetTarget redirects the jump. Critical-edge splitting rewrites finished
// terminators through this.
func (n *Jump) SetTarget(b *BasicBlock) { n.target = b }

func (n *Jump) Targets() []*BasicBlock { return []*BasicBlock{n.target} }
func (n *Jump) Operands() []Node       { return nil }
func (n *Jump) Mnemonic() string       { return "jmp" }
func (n *Jump) String() string {
	return fmt.Sprintf("jmp %s", n.target.Label())
}

// Branch transfers control based on a prior comparison.
type Branch struct {
	nodeBase
	Predicate   Predicate
	Cmp         *CmpInstruction
	trueTarget  *BasicBlock
	falseTarget *BasicBlock
}

// TrueTarget returns the block taken when the predicate holds.
func (n *Branch) TrueTarget() *BasicBlock { return n.trueTarget }

// FalseTarget returns the block taken when the predicate fails.
func (n *Branch) FalseTarget() *BasicBlock { return n.falseTarget }

// SetTrueTarget redirects the true edge.
func (n *Branch) SetTrueTarget(b *BasicBlock) { n.trueTarget = b }

// SetFalseTarget redirects the false edge.
func (n *Branch) SetFalseTarget(b *BasicBlock) { n.falseTarget = b }

func (n *Branch) Targets() []*BasicBlock { return []*BasicBlock{n.trueTarget, n.falseTarget} }
func (n *Branch) Operands() []Node       { return []Node{n.Cmp} }
func (n *Branch) Mnemonic() string       { return "b" + n.Predicate.String() }
func (n *Branch) String() string {
	return fmt.Sprintf("b%s %s, %s", n.Predicate, n.trueTarget.Label(), n.falseTarget.Label())
}

// ReturnInstruction leaves the method. Value is nil for void returns.
type ReturnInstruction struct {
	nodeBase
	Value RegisterNode
}

func (n *ReturnInstruction) Targets() []*BasicBlock { return nil }
func (n *ReturnInstruction) Mnemonic() string       { return "ret" }
func (n *ReturnInstruction) Operands() []Node {
	if n.Value == nil {
		return nil
	}
	return []Node{n.Value}
}
func (n *ReturnInstruction) String() string {
	if n.Value == nil {
		return "ret"
	}
	return fmt.Sprintf("ret %s", n.Value.TargetRegister())
}
