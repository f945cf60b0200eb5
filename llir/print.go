package llir

import (
	"fmt"
	"io"
	"strings"
)

// WriteTo prints a deterministic listing of the graph: blocks in id order,
// each block label first, then inputs, nodes in schedule order and the
// terminator. This is the traversal the assembly emitter performs.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, b := range g.blocks {
		n, err := fmt.Fprint(w, b.listing())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (g *Graph) String() string {
	var sb strings.Builder
	g.WriteTo(&sb) //nolint:errcheck // strings.Builder does not fail
	return sb.String()
}

func (b *BasicBlock) listing() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.Label())

	if len(b.inputs) > 0 {
		regs := make([]string, len(b.inputs))
		for i, in := range b.inputs {
			regs[i] = in.TargetRegister().String()
		}
		fmt.Fprintf(&sb, "  ; inputs: %s\n", strings.Join(regs, ", "))
	}
	if b.memoryInput != nil {
		fmt.Fprintf(&sb, "  %s\n", b.memoryInput)
	}
	for _, n := range b.nodes {
		fmt.Fprintf(&sb, "  %s\n", n)
	}
	if outs := b.Outputs(); len(outs) > 0 {
		descs := make([]string, len(outs))
		for i, n := range outs {
			if rn, ok := n.(RegisterNode); ok {
				descs[i] = rn.TargetRegister().String()
			} else {
				descs[i] = n.Mnemonic()
			}
		}
		fmt.Fprintf(&sb, "  ; outputs: %s\n", strings.Join(descs, ", "))
	}
	for _, dep := range b.schedDeps {
		fmt.Fprintf(&sb, "  ; schedule: n%d after n%d\n", dep.After.ID(), dep.Before.ID())
	}
	if b.terminator != nil {
		fmt.Fprintf(&sb, "  %s\n", b.terminator)
	}
	return sb.String()
}
