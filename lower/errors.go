package lower

import (
	"fmt"

	"github.com/Schaback/Compiler/firm"
)

// All lowering failures are compiler-internal: the input graph broke the
// contract, not the user. Every error names the offending node kind and its
// block so the defect is findable in a graph dump.

// UnsupportedNodeKindError reports a source node outside the supported set.
type UnsupportedNodeKindError struct {
	Kind  firm.Kind
	Block *firm.Block
}

func (e *UnsupportedNodeKindError) Error() string {
	return fmt.Sprintf("lowering does not support %s nodes (in %s)", e.Kind, e.Block)
}

// UnsupportedConversionError reports a Conv outside Is -> Ls.
type UnsupportedConversionError struct {
	From  firm.Mode
	To    firm.Mode
	Block *firm.Block
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion %s -> %s (in %s)", e.From, e.To, e.Block)
}

// UnsupportedBranchPredicateError reports a Cond over a relation the branch
// instruction cannot express.
type UnsupportedBranchPredicateError struct {
	Relation firm.Relation
	Block    *firm.Block
}

func (e *UnsupportedBranchPredicateError) Error() string {
	return fmt.Sprintf("unsupported branch predicate %s (in %s)", e.Relation, e.Block)
}

// MalformedControlProjectionError reports a control projection off a Cond
// with a number outside {0, 1}.
type MalformedControlProjectionError struct {
	Num   int
	Block *firm.Block
}

func (e *MalformedControlProjectionError) Error() string {
	return fmt.Sprintf("control projection with num %d (in %s)", e.Num, e.Block)
}

// InvariantViolationError reports a broken assumption of the lowering
// itself, such as a non-register node retrieved across a block boundary.
type InvariantViolationError struct {
	Node   *firm.Node
	Detail string
}

func (e *InvariantViolationError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("lowering invariant violated: %s", e.Detail)
	}
	return fmt.Sprintf("lowering invariant violated at %s (in %s): %s", e.Node, e.Node.Block(), e.Detail)
}
