package lower

import (
	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/llir"
)

// resolvePhis is the second phase of phi lowering. The main traversal only
// recorded each value phi with its accumulator register; now that every
// operand is lowered, the copies into the accumulators are emitted on the
// predecessor side of each edge. Phis resolve in source-node id order.
func (f *FirmToLlir) resolvePhis() error {
	var rerr error
	f.phis.Ascend(func(rec phiRecord) bool {
		rerr = f.resolvePhi(rec)
		return rerr == nil
	})
	return rerr
}

func (f *FirmToLlir) resolvePhi(rec phiRecord) error {
	phi := rec.phi

	for i := 0; i < phi.PredCount(); i++ {
		operand := phi.Pred(i)
		ctrl := phi.Block().Pred(i)

		var placement *llir.BasicBlock
		if f.isCriticalEdge(phi.Block(), ctrl) {
			var err error
			placement, err = f.insertedBlockOnCriticalEdge(phi.Block(), i, ctrl)
			if err != nil {
				return err
			}
		} else {
			placement = f.lookupBlock(ctrl.Block())
		}

		mov, err := f.emitPhiCopy(placement, rec.accum, operand)
		if err != nil {
			return err
		}
		placement.AddOutput(mov)
		f.phiRegMoves = append(f.phiRegMoves, phiMove{mov: mov, block: placement})
	}
	return nil
}

// emitPhiCopy writes the operand's value into the accumulator register
// inside the placement block. Constants are materialized directly; values
// from other blocks are routed through an input node first.
func (f *FirmToLlir) emitPhiCopy(placement *llir.BasicBlock, accum llir.VirtualRegister, operand *firm.Node) (llir.RegisterNode, error) {
	if operand.Kind() == firm.KindConst {
		return placement.NewMovImmediateInto(operand.Value, accum), nil
	}

	ln, ok := f.nodeMap[operand]
	if !ok {
		return nil, &InvariantViolationError{Node: operand, Detail: "phi operand was not lowered"}
	}
	src, ok := ln.(llir.RegisterNode)
	if !ok {
		return nil, &InvariantViolationError{Node: operand, Detail: "phi operand produces no register"}
	}
	if src.Block() != placement {
		in := placement.NewInput(src.TargetRegister())
		f.markOut(operand, in.TargetRegister())
		src = in
	}
	return placement.NewMovRegisterInto(accum, src), nil
}

// insertedBlockOnCriticalEdge returns the block splitting the critical edge
// (target, predIdx), creating it on first demand. The new block jumps to
// the phi's block and the original tail's terminator is rewritten to enter
// it: a jump directly, a branch on the side its control projection names.
func (f *FirmToLlir) insertedBlockOnCriticalEdge(target *firm.Block, predIdx int, ctrl *firm.Node) (*llir.BasicBlock, error) {
	key := edgeKey{target: target, idx: predIdx}
	if b, ok := f.inserted[key]; ok {
		return b, nil
	}

	b := f.llir.NewBasicBlock()
	b.Finish(b.NewJump(f.lookupBlock(target)))

	tail := f.lookupBlock(ctrl.Block())
	switch t := tail.Terminator().(type) {
	case *llir.Jump:
		t.SetTarget(b)
	case *llir.Branch:
		if ctrl.Kind() != firm.KindProj {
			return nil, &InvariantViolationError{Node: ctrl, Detail: "branch edge without control projection"}
		}
		switch ctrl.Num {
		case firm.ProjCondFalse:
			t.SetFalseTarget(b)
		case firm.ProjCondTrue:
			t.SetTrueTarget(b)
		default:
			return nil, &MalformedControlProjectionError{Num: ctrl.Num, Block: ctrl.Block()}
		}
	default:
		return nil, &InvariantViolationError{Node: ctrl, Detail: "critical edge with unsupported terminator"}
	}

	f.inserted[key] = b
	return b, nil
}
