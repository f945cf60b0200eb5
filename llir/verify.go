package llir

import "fmt"

// Verify checks the structural invariants of a lowered graph. It returns
// every violation found rather than stopping at the first.
//
// Checked:
//   - every operand of a node lives in the node's own block
//   - every finished block has exactly one terminator and every
//     non-start block referenced by a terminator has one
//   - every block input is covered by an output with the same register in
//     a predecessor block, or upstream of one (values may pass through
//     blocks without local defs; liveness is the register allocator's
//     concern)
//   - side-effect chains stay inside their block and are use-after-def
func (g *Graph) Verify() []error {
	var errs []error

	preds := make(map[*BasicBlock][]*BasicBlock)
	for _, b := range g.blocks {
		if b.terminator == nil {
			errs = append(errs, fmt.Errorf("block %s has no terminator", b.Label()))
			continue
		}
		for _, t := range b.terminator.Targets() {
			preds[t] = append(preds[t], b)
		}
	}

	for _, b := range g.blocks {
		for _, n := range b.nodes {
			for _, op := range n.Operands() {
				if op.Block() != b {
					errs = append(errs, fmt.Errorf(
						"block %s: node %s reads %s from block %s",
						b.Label(), n, op, op.Block().Label()))
				}
			}
			if se, ok := n.(SideEffect); ok {
				dep := se.MemoryDep()
				if dep == nil {
					errs = append(errs, fmt.Errorf("block %s: %s has no memory input", b.Label(), n))
					continue
				}
				if dep.Block() != b {
					errs = append(errs, fmt.Errorf(
						"block %s: %s memory input lives in %s", b.Label(), n, dep.Block().Label()))
				}
				if dep.ID() >= n.ID() {
					errs = append(errs, fmt.Errorf(
						"block %s: %s precedes its memory input", b.Label(), n))
				}
			}
		}

		if b.terminator != nil {
			for _, op := range b.terminator.Operands() {
				if op.Block() != b {
					errs = append(errs, fmt.Errorf(
						"block %s: terminator reads %s from block %s",
						b.Label(), op, op.Block().Label()))
				}
			}
		}

		if b != g.startBlock && len(preds[b]) == 0 {
			errs = append(errs, fmt.Errorf("block %s is unreachable", b.Label()))
			continue
		}

		if b == g.startBlock {
			// Start-block inputs are parameters; the calling convention
			// produces them, not a predecessor.
			continue
		}
		for _, in := range b.inputs {
			if !reachesOutput(b, in.TargetRegister(), preds, make(map[*BasicBlock]bool)) {
				errs = append(errs, fmt.Errorf(
					"block %s: input %s not produced by any predecessor",
					b.Label(), in.TargetRegister()))
			}
		}
	}

	return errs
}

func reachesOutput(b *BasicBlock, reg VirtualRegister, preds map[*BasicBlock][]*BasicBlock, seen map[*BasicBlock]bool) bool {
	if seen[b] {
		return false
	}
	seen[b] = true
	for _, p := range preds[b] {
		if outputsRegister(p, reg) || reachesOutput(p, reg, preds, seen) {
			return true
		}
	}
	return false
}

func outputsRegister(b *BasicBlock, reg VirtualRegister) bool {
	found := false
	b.outputs.Ascend(func(n Node) bool {
		if rn, ok := n.(RegisterNode); ok && rn.TargetRegister().ID == reg.ID {
			found = true
			return false
		}
		return true
	})
	return found
}
