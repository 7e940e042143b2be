package atom

import (
	"fmt"

	"github.com/sanctuuary/APE-sub003/automaton"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

type Kind int

const (
	// Pred is a predicate asserted at a state.
	Pred Kind = iota
	// Ref is a used state referencing a memory state (or null).
	Ref
	// Dep is a memory state depending on an earlier memory state.
	Dep
	// UDep is a used state depending on an earlier memory state.
	UDep
	// Aux is an encoder-internal variable.
	Aux
)

var kindNames = map[Kind]string{
	Pred: "pred",
	Ref:  "ref",
	Dep:  "dep",
	UDep: "udep",
	Aux:  "aux",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Atom is what a variable stands for.
type Atom struct {
	Kind   Kind
	Pred   taxonomy.ID
	State  *automaton.State
	Target *automaton.State
}

// Describe renders a for humans.
func (a Atom) Describe(t *taxonomy.Taxonomy) string {
	switch a.Kind {
	case Pred:
		name := fmt.Sprint(a.Pred)
		if p := t.Get(a.Pred); p != nil {
			name = p.String()
		}
		return fmt.Sprintf("%s(%s)", name, a.State)
	case Aux:
		return "aux"
	default:
		return fmt.Sprintf("%s(%s,%s)", a.Kind, a.State, a.Target)
	}
}

type predKey struct {
	pred  taxonomy.ID
	state int
}

type pairKey struct {
	kind     Kind
	from, to int
}

// Mapping assigns dense positive variables to atoms. Mapped atoms and
// auxiliaries share one counter so the largest variable equals Size.
type Mapping struct {
	atoms []Atom
	preds map[predKey]int
	pairs map[pairKey]int
	aux   int
}

func NewMapping() *Mapping {
	return &Mapping{
		preds: map[predKey]int{},
		pairs: map[pairKey]int{},
	}
}

func (m *Mapping) add(a Atom) int {
	m.atoms = append(m.atoms, a)
	return len(m.atoms)
}

// Pred returns the variable of predicate p at state s.
func (m *Mapping) Pred(p taxonomy.ID, s *automaton.State) int {
	k := predKey{p, s.Order}
	if v, ok := m.preds[k]; ok {
		return v
	}
	v := m.add(Atom{Kind: Pred, Pred: p, State: s})
	m.preds[k] = v
	return v
}

// Ref returns the variable of used state u referencing target, which is a
// memory state or the null state.
func (m *Mapping) Ref(u, target *automaton.State) int {
	return m.Pair(Ref, u, target)
}

// Dep returns the variable of memory state a depending on memory state b.
func (m *Mapping) Dep(a, b *automaton.State) int {
	return m.Pair(Dep, a, b)
}

// UDep returns the variable of used state u depending on memory state b.
func (m *Mapping) UDep(u, b *automaton.State) int {
	return m.Pair(UDep, u, b)
}

// Pair returns the variable of a binary relation between states.
func (m *Mapping) Pair(k Kind, a, b *automaton.State) int {
	key := pairKey{k, a.Order, b.Order}
	if v, ok := m.pairs[key]; ok {
		return v
	}
	v := m.add(Atom{Kind: k, State: a, Target: b})
	m.pairs[key] = v
	return v
}

// Aux returns a fresh auxiliary variable.
func (m *Mapping) Aux() int {
	m.aux++
	return m.add(Atom{Kind: Aux, Pred: taxonomy.None})
}

// FindPred is Pred without allocation.
func (m *Mapping) FindPred(p taxonomy.ID, s *automaton.State) (int, bool) {
	v, ok := m.preds[predKey{p, s.Order}]
	return v, ok
}

// FindPair is Pair without allocation.
func (m *Mapping) FindPair(k Kind, a, b *automaton.State) (int, bool) {
	v, ok := m.pairs[pairKey{k, a.Order, b.Order}]
	return v, ok
}

// Lookup returns the atom of variable v.
func (m *Mapping) Lookup(v int) (Atom, bool) {
	if v < 0 {
		v = -v
	}
	if v == 0 || v > len(m.atoms) {
		return Atom{}, false
	}
	return m.atoms[v-1], true
}

// Size is the number of variables allocated so far.
func (m *Mapping) Size() int { return len(m.atoms) }

// AuxCount is the number of auxiliary variables allocated so far.
func (m *Mapping) AuxCount() int { return m.aux }

// Reset forgets every variable.
func (m *Mapping) Reset() {
	m.atoms = m.atoms[:0]
	clear(m.preds)
	clear(m.pairs)
	m.aux = 0
}
