package lower

import (
	"github.com/Schaback/Compiler/firm"
	"github.com/Schaback/Compiler/llir"
)

// InstructionSelection is the optimizing variant of the lowering. It
// pattern-matches at the visit hooks: address arithmetic folds into the
// memory operand of loads and stores, constant comparison operands fold
// into the compare. Everything else, in particular the phi, critical-edge
// and memory-chain logic, is inherited from the baseline.
type InstructionSelection struct {
	*FirmToLlir
}

// matchAddress folds `ptr = Add(base, Const)` into a base+offset memory
// operand. The traversal still lowers the Add itself, whether or not
// anything else uses it.
func (s *InstructionSelection) matchAddress(user, ptr *firm.Node) (llir.MemoryLocation, error) {
	if ptr.Kind() == firm.KindAdd {
		var base, offset *firm.Node
		switch {
		case ptr.Pred(1).Kind() == firm.KindConst:
			base, offset = ptr.Pred(0), ptr.Pred(1)
		case ptr.Pred(0).Kind() == firm.KindConst:
			base, offset = ptr.Pred(1), ptr.Pred(0)
		}
		if base != nil {
			reg, err := s.getPredRegisterNode(user, base)
			if err != nil {
				return llir.MemoryLocation{}, err
			}
			return llir.MemoryLocation{Base: reg, Offset: offset.Value}, nil
		}
	}

	reg, err := s.getPredRegisterNode(user, ptr)
	if err != nil {
		return llir.MemoryLocation{}, err
	}
	return llir.BaseAddress(reg), nil
}

func (s *InstructionSelection) visitLoad(n *firm.Node) error {
	bb := s.lookupBlock(n.Block())

	mem, err := s.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	addr, err := s.matchAddress(n, n.Pred(1))
	if err != nil {
		return err
	}

	s.register(n, bb.NewMovLoad(addr, mem, llir.WidthOfMode(n.LoadMode)))
	return nil
}

func (s *InstructionSelection) visitStore(n *firm.Node) error {
	bb := s.lookupBlock(n.Block())

	mem, err := s.getPredSideEffectNode(n, n.Pred(0))
	if err != nil {
		return err
	}
	addr, err := s.matchAddress(n, n.Pred(1))
	if err != nil {
		return err
	}
	value, err := s.getPredRegisterNode(n, n.Pred(2))
	if err != nil {
		return err
	}

	width := llir.WidthOfMode(n.Pred(2).Mode())
	s.register(n, bb.NewMovStore(addr, value, mem, width))
	return nil
}

func (s *InstructionSelection) visitCond(n *firm.Node) error {
	bb := s.lookupBlock(n.Block())

	predicate, cmp, err := s.branchPredicate(n.Pred(0))
	if err != nil {
		return err
	}
	lhs, err := s.getPredRegisterNode(n, cmp.Pred(0))
	if err != nil {
		return err
	}

	var rhs llir.SimpleOperand
	if c := cmp.Pred(1); c.Kind() == firm.KindConst {
		rhs = llir.ImmediateOperand{Value: c.Value, Width: llir.WidthOfMode(c.Mode())}
	} else {
		reg, err := s.getPredRegisterNode(n, c)
		if err != nil {
			return err
		}
		rhs = llir.RegisterOperand{Node: reg}
	}

	return s.finishBranch(n, predicate, bb.NewCmp(lhs, rhs))
}
