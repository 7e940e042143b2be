package sltl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sanctuuary/APE-sub003/taxonomy"
)

type Op int

const (
	OpTrue Op = iota
	OpFalse
	OpTool
	OpIn
	OpOut
	OpNot
	OpAnd
	OpOr
	OpImplies
	OpIff
	OpNext
	OpFinally
	OpGlobally
	OpUntil
	// OpModal is <tool>f: the tool at the current step, f at the next.
	OpModal
)

// Node is a formula AST node. Name and Pred are set on OpTool, OpIn, OpOut
// and OpModal nodes; Pred only after binding.
type Node struct {
	Op   Op
	Pos  int
	Name string
	Pred taxonomy.ID
	Args []*Node
}

func (n *Node) String() string {
	b := &strings.Builder{}
	n.write(b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Op {
	case OpTrue:
		b.WriteString("true")
	case OpFalse:
		b.WriteString("false")
	case OpTool:
		b.WriteString(strconv.Quote(n.Name))
	case OpIn, OpOut:
		if n.Op == OpIn {
			b.WriteString("in(")
		} else {
			b.WriteString("out(")
		}
		b.WriteString(strconv.Quote(n.Name))
		b.WriteByte(')')
	case OpNot, OpNext, OpFinally, OpGlobally:
		b.WriteString(map[Op]string{OpNot: "!", OpNext: "X ", OpFinally: "F ", OpGlobally: "G "}[n.Op])
		n.Args[0].write(b)
	case OpModal:
		b.WriteString("<" + strconv.Quote(n.Name) + ">")
		n.Args[0].write(b)
	default:
		b.WriteByte('(')
		n.Args[0].write(b)
		b.WriteString(map[Op]string{OpAnd: " & ", OpOr: " | ", OpImplies: " -> ", OpIff: " <-> ", OpUntil: " U "}[n.Op])
		n.Args[1].write(b)
		b.WriteByte(')')
	}
}

// Formula is a parsed formula, asserted at the first step of a workflow.
type Formula struct {
	Src  string
	Root *Node
}

func (f *Formula) String() string { return f.Root.String() }

type parser struct {
	toks []Token
	i    int
}

// Parse parses src. Operator precedence from loosest to tightest is
// <->, -> (right associative), |, &, U (right associative), then the
// prefix operators !, X, F, G and <tool>.
func Parse(src string) (*Formula, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.iff()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != TEOF {
		return nil, p.errorf(t, "unexpected %s", t.Type)
	}
	return &Formula{Src: src, Root: root}, nil
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Type != TEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	t := p.next()
	if t.Type != tt {
		return t, p.errorf(t, "expected %s, got %s", tt, t.Type)
	}
	return t, nil
}

func (p *parser) binary(op Op, pos int, l, r *Node) *Node {
	return &Node{Op: op, Pos: pos, Args: []*Node{l, r}}
}

func (p *parser) iff() (*Node, error) {
	l, err := p.implies()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TIff {
		t := p.next()
		r, err := p.implies()
		if err != nil {
			return nil, err
		}
		l = p.binary(OpIff, t.Pos, l, r)
	}
	return l, nil
}

func (p *parser) implies() (*Node, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TImplies {
		return l, nil
	}
	t := p.next()
	r, err := p.implies()
	if err != nil {
		return nil, err
	}
	return p.binary(OpImplies, t.Pos, l, r), nil
}

func (p *parser) or() (*Node, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TOr {
		t := p.next()
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = p.binary(OpOr, t.Pos, l, r)
	}
	return l, nil
}

func (p *parser) and() (*Node, error) {
	l, err := p.until()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TAnd {
		t := p.next()
		r, err := p.until()
		if err != nil {
			return nil, err
		}
		l = p.binary(OpAnd, t.Pos, l, r)
	}
	return l, nil
}

func (p *parser) until() (*Node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TUntil {
		return l, nil
	}
	t := p.next()
	r, err := p.until()
	if err != nil {
		return nil, err
	}
	return p.binary(OpUntil, t.Pos, l, r), nil
}

func (p *parser) unary() (*Node, error) {
	t := p.peek()
	var op Op
	switch t.Type {
	case TNot:
		op = OpNot
	case TNext:
		op = OpNext
	case TFinally:
		op = OpFinally
	case TGlobally:
		op = OpGlobally
	case TLAngle:
		p.next()
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TRAngle); err != nil {
			return nil, err
		}
		arg, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Node{Op: OpModal, Pos: t.Pos, Name: name, Pred: taxonomy.None, Args: []*Node{arg}}, nil
	default:
		return p.atom()
	}
	p.next()
	arg, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &Node{Op: op, Pos: t.Pos, Args: []*Node{arg}}, nil
}

func (p *parser) name() (string, error) {
	t := p.next()
	if t.Type != TName && t.Type != TQuoted {
		return "", p.errorf(t, "expected a name, got %s", t.Type)
	}
	if t.Text == "" {
		return "", p.errorf(t, "empty name")
	}
	return t.Text, nil
}

func (p *parser) atom() (*Node, error) {
	t := p.peek()
	switch t.Type {
	case TTrue:
		p.next()
		return &Node{Op: OpTrue, Pos: t.Pos}, nil
	case TFalse:
		p.next()
		return &Node{Op: OpFalse, Pos: t.Pos}, nil
	case TName, TQuoted:
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		return &Node{Op: OpTool, Pos: t.Pos, Name: name, Pred: taxonomy.None}, nil
	case TIn, TOut:
		p.next()
		if _, err := p.expect(TLParen); err != nil {
			return nil, err
		}
		name, err := p.name()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TRParen); err != nil {
			return nil, err
		}
		op := OpIn
		if t.Type == TOut {
			op = OpOut
		}
		return &Node{Op: op, Pos: t.Pos, Name: name, Pred: taxonomy.None}, nil
	case TLParen:
		p.next()
		n, err := p.iff()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.errorf(t, "unexpected %s", t.Type)
}

// Resolver maps a name to a predicate of the given role.
type Resolver func(name string, role taxonomy.Role) (taxonomy.ID, error)

// Bind resolves every name in f. Tool names resolve to operations, in and
// out arguments to data types.
func (f *Formula) Bind(r Resolver) error {
	var walk func(n *Node) error
	walk = func(n *Node) error {
		switch n.Op {
		case OpTool, OpModal, OpIn, OpOut:
			role := taxonomy.Operation
			if n.Op == OpIn || n.Op == OpOut {
				role = taxonomy.Data
			}
			id, err := r(n.Name, role)
			if err != nil {
				return fmt.Errorf("offset %d: %w", n.Pos, err)
			}
			n.Pred = id
		}
		for _, a := range n.Args {
			if err := walk(a); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(f.Root)
}

// Preds returns the predicates f refers to, after binding.
func (f *Formula) Preds() []taxonomy.ID {
	var res []taxonomy.ID
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Pred != taxonomy.None && n.Name != "" {
			res = append(res, n.Pred)
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(f.Root)
	return res
}
