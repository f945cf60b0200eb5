package firm

import "fmt"

// Kind identifies the operation of a node in the sea-of-nodes graph.
type Kind uint8

const (
	KindStart Kind = iota
	KindEnd
	KindBlock
	KindConst
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMod
	KindAnd
	KindEor
	KindShl
	KindShr
	KindShrs
	KindMinus
	KindNot
	KindConv
	KindCmp
	KindCond
	KindJmp
	KindReturn
	KindLoad
	KindStore
	KindCall
	KindPhi
	KindProj
	KindAddress
	KindUnknown
)

var kindNames = [...]string{
	KindStart:   "Start",
	KindEnd:     "End",
	KindBlock:   "Block",
	KindConst:   "Const",
	KindAdd:     "Add",
	KindSub:     "Sub",
	KindMul:     "Mul",
	KindDiv:     "Div",
	KindMod:     "Mod",
	KindAnd:     "And",
	KindEor:     "Eor",
	KindShl:     "Shl",
	KindShr:     "Shr",
	KindShrs:    "Shrs",
	KindMinus:   "Minus",
	KindNot:     "Not",
	KindConv:    "Conv",
	KindCmp:     "Cmp",
	KindCond:    "Cond",
	KindJmp:     "Jmp",
	KindReturn:  "Return",
	KindLoad:    "Load",
	KindStore:   "Store",
	KindCall:    "Call",
	KindPhi:     "Phi",
	KindProj:    "Proj",
	KindAddress: "Address",
	KindUnknown: "Unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// KindByName resolves a kind from its canonical name. Used by the graph reader.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Mode is the value category of a node: the width of the value it produces,
// or one of the non-value categories (memory, control, tuple).
type Mode uint8

const (
	// ModeNone marks nodes that produce nothing at all.
	ModeNone Mode = iota
	// ModeBu is an unsigned byte (MiniJava boolean).
	ModeBu
	// ModeIs is a signed 32-bit integer.
	ModeIs
	// ModeLs is a signed 64-bit integer.
	ModeLs
	// ModeP is a 64-bit pointer.
	ModeP
	// ModeM is the memory state threaded between side effects.
	ModeM
	// ModeX is a control-flow edge.
	ModeX
	// ModeT is a tuple, split apart by Proj nodes.
	ModeT
	// ModeB is the internal boolean produced by Cmp.
	ModeB
)

var modeNames = [...]string{
	ModeNone: "None",
	ModeBu:   "Bu",
	ModeIs:   "Is",
	ModeLs:   "Ls",
	ModeP:    "P",
	ModeM:    "M",
	ModeX:    "X",
	ModeT:    "T",
	ModeB:    "b",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ModeByName resolves a mode from its canonical name.
func ModeByName(name string) (Mode, bool) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), true
		}
	}
	return 0, false
}

// IsValue reports whether the mode describes a register-sized value.
func (m Mode) IsValue() bool {
	switch m {
	case ModeBu, ModeIs, ModeLs, ModeP:
		return true
	}
	return false
}

// Relation is the comparison performed by a Cmp node.
type Relation uint8

const (
	RelationEqual Relation = iota
	RelationLess
	RelationLessEqual
	RelationGreater
	RelationGreaterEqual
	// RelationUnordered stands in for relations the backend does not support.
	RelationUnordered
)

var relationNames = [...]string{
	RelationEqual:        "Equal",
	RelationLess:         "Less",
	RelationLessEqual:    "LessEqual",
	RelationGreater:      "Greater",
	RelationGreaterEqual: "GreaterEqual",
	RelationUnordered:    "Unordered",
}

func (r Relation) String() string {
	if int(r) < len(relationNames) {
		return relationNames[r]
	}
	return fmt.Sprintf("Relation(%d)", r)
}

// RelationByName resolves a relation from its canonical name.
func RelationByName(name string) (Relation, bool) {
	for r, n := range relationNames {
		if n == name {
			return Relation(r), true
		}
	}
	return 0, false
}

// Node is a single operation in the sea-of-nodes graph. Predecessor edges
// point from uses to definitions, the reverse of execution order.
type Node struct {
	id    int
	kind  Kind
	mode  Mode
	block *Block
	preds []*Node

	// Value is the constant payload of a Const node.
	Value int64
	// Num selects the tuple element of a Proj node. For control projections
	// off a Cond, 0 is the false edge and 1 the true edge.
	Num int
	// Relation is the comparison of a Cmp node.
	Relation Relation
	// LoadMode is the mode of the value a Load reads.
	LoadMode Mode
	// Ident is the symbol an Address node refers to.
	Ident string
}

// ID returns the node's graph-unique id. Ids are monotonic in creation order
// and are the ordering key for every deterministic iteration in the backend.
func (n *Node) ID() int { return n.id }

// Kind returns the node's operation kind.
func (n *Node) Kind() Kind { return n.kind }

// Mode returns the node's value category.
func (n *Node) Mode() Mode { return n.mode }

// Block returns the block containing this node. For a Block-kind node it
// returns the block the node stands for.
func (n *Node) Block() *Block { return n.block }

// PredCount returns the number of predecessor edges.
func (n *Node) PredCount() int { return len(n.preds) }

// Pred returns the i-th predecessor.
func (n *Node) Pred(i int) *Node { return n.preds[i] }

// Preds returns the predecessor slice. Callers must not mutate it.
func (n *Node) Preds() []*Node { return n.preds }

func (n *Node) String() string {
	return fmt.Sprintf("%s:%d[%s]", n.kind, n.id, n.mode)
}

// Block is a basic block of the source graph. Its predecessors are the
// control-flow nodes (Jmp, control Proj) that enter it.
type Block struct {
	id    int
	graph *Graph
	preds []*Node
	node  *Node
}

// ID returns the block's graph-unique id, drawn from the same counter as
// node ids.
func (b *Block) ID() int { return b.id }

// Graph returns the graph owning this block.
func (b *Block) Graph() *Graph { return b.graph }

// PredCount returns the number of incoming control edges.
func (b *Block) PredCount() int { return len(b.preds) }

// Pred returns the control-flow node entering via edge i.
func (b *Block) Pred(i int) *Node { return b.preds[i] }

// Preds returns the incoming control-flow nodes. Callers must not mutate it.
func (b *Block) Preds() []*Node { return b.preds }

// Node returns the Block-kind node standing for this block in node lists
// (keep-alive edges on End reference blocks through it).
func (b *Block) Node() *Node { return b.node }

func (b *Block) String() string {
	return fmt.Sprintf("Block:%d", b.id)
}
