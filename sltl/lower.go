package sltl

import (
	"fmt"

	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// Env is what lowering needs from an encoder. Steps run from 1 to Length.
type Env interface {
	Length() int
	// Tool is the literal of operation p at the module state of step.
	Tool(p taxonomy.ID, step int) int
	// Used is the literal of type p being an input of step.
	Used(p taxonomy.ID, step int) int
	// Generated is the literal of type p being an output of step.
	Generated(p taxonomy.ID, step int) int
	// True is a literal fixed to true.
	True() int
	Aux() int
	Add(lits ...int) error
}

type lowerKey struct {
	n    *Node
	step int
}

type lowering struct {
	env  Env
	memo map[lowerKey]int
	err  error
}

// Lower adds clauses asserting f at step 1. f must be bound.
func (f *Formula) Lower(env Env) error {
	lw := &lowering{env: env, memo: map[lowerKey]int{}}
	root := lw.lit(f.Root, 1)
	if lw.err != nil {
		return lw.err
	}
	return env.Add(root)
}

func (lw *lowering) add(lits ...int) {
	if lw.err != nil {
		return
	}
	lw.err = lw.env.Add(lits...)
}

func (lw *lowering) and(lits ...int) int {
	switch len(lits) {
	case 0:
		return lw.env.True()
	case 1:
		return lits[0]
	}
	g := lw.env.Aux()
	back := []int{g}
	for _, l := range lits {
		lw.add(-g, l)
		back = append(back, -l)
	}
	lw.add(back...)
	return g
}

func (lw *lowering) or(lits ...int) int {
	switch len(lits) {
	case 0:
		return -lw.env.True()
	case 1:
		return lits[0]
	}
	g := lw.env.Aux()
	fwd := []int{-g}
	for _, l := range lits {
		lw.add(g, -l)
		fwd = append(fwd, l)
	}
	lw.add(fwd...)
	return g
}

func (lw *lowering) iff(a, b int) int {
	g := lw.env.Aux()
	lw.add(-g, -a, b)
	lw.add(-g, a, -b)
	lw.add(g, a, b)
	lw.add(g, -a, -b)
	return g
}

// lit returns a literal equivalent to n holding at step. Step Length+1 is
// the position after the last tool: no tool runs there, X is false there,
// G holds there and F and U fail there.
func (lw *lowering) lit(n *Node, step int) int {
	k := lowerKey{n, step}
	if v, ok := lw.memo[k]; ok {
		return v
	}
	v := lw.build(n, step)
	lw.memo[k] = v
	return v
}

func (lw *lowering) build(n *Node, step int) int {
	last := step > lw.env.Length()
	switch n.Op {
	case OpTool, OpIn, OpOut, OpModal:
		if n.Pred == taxonomy.None {
			if lw.err == nil {
				lw.err = fmt.Errorf("offset %d: unbound name %q", n.Pos, n.Name)
			}
			return -lw.env.True()
		}
		if last {
			return -lw.env.True()
		}
	}
	switch n.Op {
	case OpTrue:
		return lw.env.True()
	case OpFalse:
		return -lw.env.True()
	case OpTool:
		return lw.env.Tool(n.Pred, step)
	case OpIn:
		return lw.env.Used(n.Pred, step)
	case OpOut:
		return lw.env.Generated(n.Pred, step)
	case OpNot:
		return -lw.lit(n.Args[0], step)
	case OpAnd:
		return lw.and(lw.lit(n.Args[0], step), lw.lit(n.Args[1], step))
	case OpOr:
		return lw.or(lw.lit(n.Args[0], step), lw.lit(n.Args[1], step))
	case OpImplies:
		return lw.or(-lw.lit(n.Args[0], step), lw.lit(n.Args[1], step))
	case OpIff:
		return lw.iff(lw.lit(n.Args[0], step), lw.lit(n.Args[1], step))
	case OpNext:
		if last {
			return -lw.env.True()
		}
		return lw.lit(n.Args[0], step+1)
	case OpFinally:
		if last {
			return -lw.env.True()
		}
		return lw.or(lw.lit(n.Args[0], step), lw.lit(n, step+1))
	case OpGlobally:
		if last {
			return lw.env.True()
		}
		return lw.and(lw.lit(n.Args[0], step), lw.lit(n, step+1))
	case OpUntil:
		if last {
			return -lw.env.True()
		}
		hold := lw.and(lw.lit(n.Args[0], step), lw.lit(n, step+1))
		return lw.or(lw.lit(n.Args[1], step), hold)
	case OpModal:
		return lw.and(lw.env.Tool(n.Pred, step), lw.lit(n.Args[0], step+1))
	}
	panic(fmt.Sprintf("sltl: unknown op %d", n.Op))
}
