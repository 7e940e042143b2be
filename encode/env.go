package encode

import (
	"github.com/sanctuuary/APE-sub003/automaton"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// Tool is the literal of operation p at step. Irrelevant predicates are
// false everywhere.
func (e *Encoder) Tool(p taxonomy.ID, step int) int {
	pp := e.tax.Get(p)
	if pp == nil || !pp.Relevant || step < 1 || step > e.Length() {
		return -e.True()
	}
	return e.pred(p, e.mods.At(step))
}

func (e *Encoder) Used(p taxonomy.ID, step int) int {
	if step < 1 || step > e.Length() {
		return -e.True()
	}
	return e.anyOf(e.used, p, step, e.types.Used[step-1])
}

func (e *Encoder) Generated(p taxonomy.ID, step int) int {
	if step < 1 || step > e.Length() {
		return -e.True()
	}
	return e.anyOf(e.generated, p, step, e.types.Memory[step])
}

// anyOf returns a literal equivalent to p holding at some state of b.
func (e *Encoder) anyOf(memo map[stepKey]int, p taxonomy.ID, step int, b *automaton.Block) int {
	k := stepKey{p, step}
	if v, ok := memo[k]; ok {
		return v
	}
	pp := e.tax.Get(p)
	if pp == nil || !pp.Relevant || len(b.States) == 0 {
		memo[k] = -e.True()
		return memo[k]
	}
	lits := make([]int, len(b.States))
	for i, s := range b.States {
		lits[i] = e.pred(p, s)
	}
	v := e.or(lits)
	memo[k] = v
	return v
}

func (e *Encoder) Modules(p taxonomy.ID) []taxonomy.ID {
	return e.tax.ModulesUnder(p)
}

// Connected is true when some input of step to references an output of
// step from.
func (e *Encoder) Connected(from, to int) int {
	k := pairKey{from, to}
	if v, ok := e.connected[k]; ok {
		return v
	}
	if from < 1 || from >= to || to > e.Length() {
		return -e.True()
	}
	var refs []int
	for _, u := range e.types.Used[to-1].States {
		for _, m := range e.types.Memory[from].States {
			refs = append(refs, e.m.Ref(u, m))
		}
	}
	v := e.or(refs)
	e.connected[k] = v
	return v
}

// DependsOn is true when some input of step derives from an output of
// step on.
func (e *Encoder) DependsOn(step, on int) int {
	k := pairKey{step, on}
	if v, ok := e.dependsOn[k]; ok {
		return v
	}
	if on < 1 || on >= step || step > e.Length() {
		return -e.True()
	}
	if err := e.ensureDeps(); err != nil {
		e.setErr(err)
	}
	var deps []int
	for _, u := range e.types.Used[step-1].States {
		for _, n := range e.types.Memory[on].States {
			deps = append(deps, e.m.UDep(u, n))
		}
	}
	v := e.or(deps)
	e.dependsOn[k] = v
	return v
}

// or returns a fresh literal equivalent to the disjunction of lits.
func (e *Encoder) or(lits []int) int {
	switch len(lits) {
	case 0:
		return -e.True()
	case 1:
		return lits[0]
	}
	g := e.m.Aux()
	fwd := []int{-g}
	for _, l := range lits {
		e.setErr(e.Add(g, -l))
		fwd = append(fwd, l)
	}
	e.setErr(e.Add(fwd...))
	return g
}

// setErr keeps the first error raised while building literals for an
// interface that cannot return one. Encode reports it.
func (e *Encoder) setErr(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}
