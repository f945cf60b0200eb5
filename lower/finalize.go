package lower

import (
	"github.com/Schaback/Compiler/llir"
)

// finalize closes the graph: every node marked output-required joins its
// block's output set (in source-node id order), and every phi copy that
// overwrites a register the block still reads gets a schedule dependency on
// each of those reads. Outputs and dependencies are sets; running the
// finalizer again is a no-op.
func (f *FirmToLlir) finalize() error {
	if f.llir.Finalized() {
		return nil
	}

	var merr error
	f.markedOut.Ascend(func(m outMark) bool {
		ln, ok := f.nodeMap[m.node]
		if !ok {
			merr = &InvariantViolationError{Node: m.node, Detail: "output-required node was never lowered"}
			return false
		}
		ln.Block().AddOutput(ln)
		return true
	})
	if merr != nil {
		return merr
	}

	for _, mv := range f.phiRegMoves {
		f.addOverwriteDependencies(mv)
	}

	f.llir.MarkFinalized()
	return nil
}

// addOverwriteDependencies keeps a phi copy behind every use of the input
// register it overwrites. Without the constraint a scheduler could emit the
// copy first and the block would read the new iteration's value.
func (f *FirmToLlir) addOverwriteDependencies(mv phiMove) {
	in := mv.block.InputForRegister(mv.mov.TargetRegister())
	if in == nil {
		return
	}

	for _, n := range mv.block.Nodes() {
		if n == llir.Node(mv.mov) {
			continue
		}
		if consumes(n, in) {
			mv.block.AddScheduleDependency(mv.mov, n)
		}
	}
	if t := mv.block.Terminator(); t != nil && consumes(t, in) {
		mv.block.AddScheduleDependency(mv.mov, t)
	}
}

func consumes(n llir.Node, in *llir.InputNode) bool {
	for _, op := range n.Operands() {
		if op == llir.Node(in) {
			return true
		}
	}
	return false
}
