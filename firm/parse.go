package firm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a textual program description and builds its graphs.
//
// The format is line based. A method section starts with a header and runs
// until the next header:
//
//	method bar Is Is -> Is
//	block then t
//	c1 = Const Is value=1
//	cmp = Cmp b @start arg0 arg1 rel=Less
//	ret = Return X @join mem x
//
// The names start, end, mem and argN are implicitly bound to the start
// block, the end block, the initial memory projection and the parameter
// projections. Block predecessors and phi operands may reference nodes
// declared later in the same section; everything else must be declared
// before use.
func Parse(src []byte) (*Program, error) {
	p := &parser{
		program: NewProgram(),
		methods: make(map[string]*Method),
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		p.line++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := p.handleLine(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := p.finishMethod(); err != nil {
		return nil, err
	}
	if err := p.resolveCallees(); err != nil {
		return nil, err
	}
	return p.program, nil
}

type parser struct {
	program *Program
	methods map[string]*Method
	line    int

	// Per-method state, reset by each header. calleeFix is the exception: it
	// spans the whole program and is resolved after the last method.
	builder    *Builder
	blocks     map[string]*Block
	nodes      map[string]*Node
	blockPreds []blockPredFixup
	phiFixups  []phiFixup
	calleeFix  []calleeFixup
}

type blockPredFixup struct {
	block *Block
	names []string
	line  int
}

type phiFixup struct {
	phi  *Node
	idx  int
	name string
	line int
}

type calleeFixup struct {
	call *Node
	name string
	line int
}

func (p *parser) handleLine(fields []string) error {
	switch fields[0] {
	case "method":
		return p.startMethod(fields[1:])
	case "block":
		return p.declareBlock(fields[1:])
	case "keepalive":
		return p.keepAlive(fields[1:])
	default:
		return p.declareNode(fields)
	}
}

func (p *parser) startMethod(fields []string) error {
	if err := p.finishMethod(); err != nil {
		return err
	}
	if len(fields) < 1 {
		return fmt.Errorf("method header needs a name")
	}
	m := &Method{Name: fields[0], ReturnMode: ModeNone}
	rest := fields[1:]
	for i, f := range rest {
		if f == "->" {
			if i != len(rest)-2 {
				return fmt.Errorf("malformed return mode")
			}
			mode, ok := ModeByName(rest[i+1])
			if !ok {
				return fmt.Errorf("unknown mode %q", rest[i+1])
			}
			m.ReturnMode = mode
			rest = rest[:i]
			break
		}
	}
	for _, f := range rest {
		mode, ok := ModeByName(f)
		if !ok {
			return fmt.Errorf("unknown parameter mode %q", f)
		}
		m.ParamModes = append(m.ParamModes, mode)
	}
	if _, dup := p.methods[m.Name]; dup {
		return fmt.Errorf("duplicate method %q", m.Name)
	}
	p.methods[m.Name] = m

	p.builder = NewBuilder(m, p.program)
	p.blocks = map[string]*Block{
		"start": p.builder.StartBlock(),
		"end":   p.builder.EndBlock(),
	}
	p.nodes = map[string]*Node{"mem": p.builder.InitialMem()}
	p.blockPreds = nil
	p.phiFixups = nil
	return nil
}

func (p *parser) finishMethod() error {
	if p.builder == nil {
		return nil
	}
	for _, fix := range p.blockPreds {
		for _, name := range fix.names {
			n, err := p.lookupNode(name)
			if err != nil {
				return fmt.Errorf("line %d: block predecessor: %w", fix.line, err)
			}
			p.builder.AddBlockPred(fix.block, n)
		}
	}
	for _, fix := range p.phiFixups {
		n, err := p.lookupNode(fix.name)
		if err != nil {
			return fmt.Errorf("line %d: phi operand: %w", fix.line, err)
		}
		p.builder.SetPred(fix.phi, fix.idx, n)
	}
	g, err := p.builder.Finish()
	if err != nil {
		return err
	}
	p.program.AddGraph(g)
	p.builder = nil
	return nil
}

func (p *parser) resolveCallees() error {
	for _, fix := range p.calleeFix {
		m, ok := p.methods[fix.name]
		if !ok {
			return fmt.Errorf("line %d: unknown callee %q", fix.line, fix.name)
		}
		p.program.MethodReferences[fix.call] = m
	}
	return nil
}

func (p *parser) declareBlock(fields []string) error {
	if p.builder == nil {
		return fmt.Errorf("block outside method section")
	}
	if len(fields) < 1 {
		return fmt.Errorf("block needs a name")
	}
	name := fields[0]
	if _, dup := p.blocks[name]; dup {
		return fmt.Errorf("duplicate block %q", name)
	}
	blk := p.builder.NewBlock()
	p.blocks[name] = blk
	if len(fields) > 1 {
		p.blockPreds = append(p.blockPreds, blockPredFixup{block: blk, names: fields[1:], line: p.line})
	}
	return nil
}

func (p *parser) keepAlive(fields []string) error {
	if p.builder == nil {
		return fmt.Errorf("keepalive outside method section")
	}
	if len(fields) != 1 {
		return fmt.Errorf("keepalive needs exactly one block name")
	}
	blk, ok := p.blocks[fields[0]]
	if !ok {
		return fmt.Errorf("unknown block %q", fields[0])
	}
	p.builder.KeepAlive(blk)
	return nil
}

func (p *parser) declareNode(fields []string) error {
	if p.builder == nil {
		return fmt.Errorf("node outside method section")
	}
	if len(fields) < 3 || fields[1] != "=" {
		return fmt.Errorf("malformed node line")
	}
	name := fields[0]
	if _, dup := p.nodes[name]; dup {
		return fmt.Errorf("duplicate node %q", name)
	}
	kind, ok := KindByName(fields[2])
	if !ok {
		return fmt.Errorf("unknown kind %q", fields[2])
	}
	rest := fields[3:]

	mode := ModeNone
	if len(rest) > 0 {
		if m, ok := ModeByName(rest[0]); ok {
			mode = m
			rest = rest[1:]
		}
	}

	blk := p.builder.StartBlock()
	var operands []string
	attrs := make(map[string]string)
	for _, f := range rest {
		switch {
		case strings.HasPrefix(f, "@"):
			b, ok := p.blocks[f[1:]]
			if !ok {
				return fmt.Errorf("unknown block %q", f[1:])
			}
			blk = b
		case strings.Contains(f, "="):
			kv := strings.SplitN(f, "=", 2)
			attrs[kv[0]] = kv[1]
		default:
			operands = append(operands, f)
		}
	}

	n, err := p.makeNode(kind, mode, blk, operands, attrs)
	if err != nil {
		return err
	}
	p.nodes[name] = n
	return nil
}

func (p *parser) makeNode(kind Kind, mode Mode, blk *Block, operands []string, attrs map[string]string) (*Node, error) {
	// Phi operands may be forward references; everything else resolves now.
	if kind == KindPhi {
		phi := p.builder.Phi(blk, mode)
		for i, name := range operands {
			p.builder.AddPhiOperand(phi, nil)
			p.phiFixups = append(p.phiFixups, phiFixup{phi: phi, idx: i, name: name, line: p.line})
		}
		return phi, nil
	}

	preds := make([]*Node, 0, len(operands))
	for _, name := range operands {
		n, err := p.lookupNode(name)
		if err != nil {
			return nil, err
		}
		preds = append(preds, n)
	}

	if kind == KindReturn {
		var value *Node
		if len(preds) == 0 {
			return nil, fmt.Errorf("return needs a memory operand")
		}
		if len(preds) > 1 {
			value = preds[1]
		}
		return p.builder.Return(blk, preds[0], value), nil
	}

	n := p.builder.NewNode(kind, mode, blk, preds...)

	for key, val := range attrs {
		switch key {
		case "value":
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q: %v", val, err)
			}
			n.Value = v
		case "num":
			v, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("bad num %q: %v", val, err)
			}
			n.Num = v
		case "rel":
			r, ok := RelationByName(val)
			if !ok {
				return nil, fmt.Errorf("unknown relation %q", val)
			}
			n.Relation = r
		case "loadmode":
			m, ok := ModeByName(val)
			if !ok {
				return nil, fmt.Errorf("unknown mode %q", val)
			}
			n.LoadMode = m
		case "ident":
			n.Ident = val
		case "callee":
			if kind != KindCall {
				return nil, fmt.Errorf("callee attribute on %s node", kind)
			}
			p.calleeFix = append(p.calleeFix, calleeFixup{call: n, name: val, line: p.line})
		default:
			return nil, fmt.Errorf("unknown attribute %q", key)
		}
	}
	// A Const takes its value from the value= attribute, never from operands.
	if kind == KindConst && len(operands) > 0 {
		return nil, fmt.Errorf("const takes no operands, use value=")
	}
	return n, nil
}

func (p *parser) lookupNode(name string) (*Node, error) {
	if n, ok := p.nodes[name]; ok {
		return n, nil
	}
	if strings.HasPrefix(name, "arg") {
		if i, err := strconv.Atoi(name[3:]); err == nil {
			n := p.builder.Param(i)
			p.nodes[name] = n
			return n, nil
		}
	}
	return nil, fmt.Errorf("unknown node %q", name)
}
