package taxonomy

import (
	"fmt"
	"slices"
)

// Module is a concrete tool: a leaf of the operation taxonomy annotated
// with the data instances it consumes and produces. Each entry of Inputs
// and Outputs is a data predicate, usually a helper built by Instance.
type Module struct {
	Pred    ID
	Inputs  []ID
	Outputs []ID
	// Produced holds Outputs with abstract types bound to their artificial
	// leaves. It is set by AddPlainLeaves.
	Produced []ID
}

// Written returns what the tool puts in memory: Produced once plain
// leaves exist, Outputs before.
func (m *Module) Written() []ID {
	if m.Produced != nil {
		return m.Produced
	}
	return m.Outputs
}

// AddModule adds a tool below the given operation categories. Inputs and
// outputs must be data predicates of t.
func (t *Taxonomy) AddModule(iri, label string, ops []ID, inputs, outputs []ID) (*Module, error) {
	if t.opRoot == None {
		return nil, fmt.Errorf("%w: no operation root", ErrUnresolved)
	}
	if len(ops) == 0 {
		ops = []ID{t.opRoot}
	}
	for _, op := range ops {
		p := t.Get(op)
		if p == nil || p.Role != Operation || p.IsAux() {
			return nil, fmt.Errorf("%w: tool %q: operation %d", ErrUnresolved, iri, op)
		}
	}
	for _, io := range [][]ID{inputs, outputs} {
		for _, id := range io {
			p := t.Get(id)
			if p == nil || p.Role != Data || p.Kind == Empty {
				return nil, fmt.Errorf("%w: tool %q: data %d", ErrMalformedTool, iri, id)
			}
		}
	}
	id, err := t.Add(iri, label, ops...)
	if err != nil {
		return nil, err
	}
	m := &Module{Pred: id, Inputs: slices.Clone(inputs), Outputs: slices.Clone(outputs)}
	t.modules = append(t.modules, m)
	t.modOf[id] = m
	return m, nil
}

// Modules returns the tools in insertion order.
func (t *Taxonomy) Modules() []*Module { return slices.Clone(t.modules) }

// Module returns the tool whose leaf predicate is id.
func (t *Taxonomy) Module(id ID) (*Module, bool) {
	m, ok := t.modOf[id]
	return m, ok
}

// ModulesUnder returns the relevant tools at or below the operation
// predicate id.
func (t *Taxonomy) ModulesUnder(id ID) []ID {
	var res []ID
	for _, d := range t.Descendants(id) {
		if _, ok := t.modOf[d]; ok {
			res = append(res, d)
		}
	}
	return res
}

// MaxArity returns the largest input and output counts over relevant tools.
func (t *Taxonomy) MaxArity() (in, out int) {
	for _, m := range t.modules {
		if !t.preds[m.Pred].Relevant {
			continue
		}
		in = max(in, len(m.Inputs))
		out = max(out, len(m.Outputs))
	}
	return in, out
}
