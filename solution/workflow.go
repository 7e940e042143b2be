package solution

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sanctuuary/APE-sub003/atom"
	"github.com/sanctuuary/APE-sub003/automaton"
	"github.com/sanctuuary/APE-sub003/debug"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// ErrMalformedModel reports a model that does not describe a workflow.
var ErrMalformedModel = errors.New("malformed model")

// Data is one piece of data flowing through a workflow: a workflow input
// (Step 0) or an output of a step.
type Data struct {
	Name  string   `json:"name"`
	Step  int      `json:"step"`
	Slot  int      `json:"slot"`
	Types []string `json:"types"`
}

type Step struct {
	Index   int     `json:"index"`
	Tool    string  `json:"tool"`
	ToolID  string  `json:"toolId"`
	Inputs  []*Data `json:"inputs"`
	Outputs []*Data `json:"outputs"`
}

// Edge is data consumed by a step slot. ToStep is Length+1 for the
// workflow outputs.
type Edge struct {
	From   *Data `json:"-"`
	ToStep int   `json:"toStep"`
	ToSlot int   `json:"toSlot"`
}

// Literal is a model literal of the relevant view.
type Literal struct {
	Var  int       `json:"var"`
	Kind atom.Kind `json:"-"`
	Text string    `json:"text"`
}

// Workflow is a decoded model. It is read-only once decoded.
type Workflow struct {
	Index   int     `json:"index"`
	Length  int     `json:"length"`
	Inputs  []*Data `json:"inputs"`
	Steps   []*Step `json:"steps"`
	Outputs []*Data `json:"outputs"`
	Edges   []Edge  `json:"-"`

	// Literals is the relevant view of the model: tools by step, leaf
	// types by state and references to memory.
	Literals []Literal `json:"-"`

	model    []int
	describe func(int) string
}

// Decoder turns models of one encoding into workflows.
type Decoder struct {
	Mapping  *atom.Mapping
	Taxonomy *taxonomy.Taxonomy
	Modules  *automaton.ModuleAutomaton
	Types    *automaton.TypeAutomaton
}

func (dec *Decoder) describe(v int) string {
	a, ok := dec.Mapping.Lookup(v)
	if !ok {
		return fmt.Sprintf("var%d", v)
	}
	s := a.Describe(dec.Taxonomy)
	if v < 0 {
		return "!" + s
	}
	return s
}

// typeName names a leaf type, artificial leaves by the type they stand
// for.
func (dec *Decoder) typeName(id taxonomy.ID) string {
	p := dec.Taxonomy.Get(id)
	if p.Kind == taxonomy.ArtificialLeaf && len(p.Supers) > 0 {
		p = dec.Taxonomy.Get(p.Supers[0])
	}
	return p.Label
}

// Decode is shorthand for a one-off Decoder.
func Decode(index int, model []int, m *atom.Mapping, tax *taxonomy.Taxonomy, mods *automaton.ModuleAutomaton, types *automaton.TypeAutomaton) (*Workflow, error) {
	dec := &Decoder{Mapping: m, Taxonomy: tax, Modules: mods, Types: types}
	return dec.Decode(index, model)
}

// Decode builds workflow number index from model, a list of signed
// literals as returned by the solver.
func (dec *Decoder) Decode(index int, model []int) (*Workflow, error) {
	tax := dec.Taxonomy
	L := dec.Modules.Len()
	wf := &Workflow{
		Index:    index,
		Length:   L,
		Steps:    make([]*Step, L),
		model:    slices.Clone(model),
		describe: dec.describe,
	}
	type ordered struct {
		order int
		lit   Literal
	}
	tools := make([]Literal, L)
	var types, refs []ordered
	typesAt := map[*automaton.State][]taxonomy.ID{}
	refOf := map[*automaton.State][]*automaton.State{}
	for _, l := range model {
		if l <= 0 {
			continue
		}
		a, ok := dec.Mapping.Lookup(l)
		if !ok {
			continue
		}
		lit := Literal{Var: l, Kind: a.Kind, Text: dec.describe(l)}
		switch a.Kind {
		case atom.Pred:
			p := tax.Get(a.Pred)
			if a.State.Kind == automaton.ModuleState {
				if _, ok := tax.Module(a.Pred); !ok {
					continue
				}
				i := a.State.Step - 1
				if wf.Steps[i] != nil {
					return nil, fmt.Errorf("%w: two tools at step %d", ErrMalformedModel, a.State.Step)
				}
				wf.Steps[i] = &Step{Index: a.State.Step, Tool: p.Label, ToolID: p.IRI}
				tools[i] = lit
				continue
			}
			if p.IsAux() || p.Kind == taxonomy.Empty || len(tax.RelevantSubs(a.Pred)) > 0 {
				continue
			}
			typesAt[a.State] = append(typesAt[a.State], a.Pred)
			types = append(types, ordered{a.State.Order, lit})
		case atom.Ref:
			if a.Target.Kind == automaton.NullState {
				continue
			}
			refOf[a.State] = append(refOf[a.State], a.Target)
			refs = append(refs, ordered{a.State.Order, lit})
		}
	}
	for i, s := range wf.Steps {
		if s == nil {
			return nil, fmt.Errorf("%w: no tool at step %d", ErrMalformedModel, i+1)
		}
	}

	data := map[*automaton.State]*Data{}
	newData := func(s *automaton.State, name string) *Data {
		ids := typesAt[s]
		slices.SortFunc(ids, func(a, b taxonomy.ID) int {
			if ra, rb := tax.Get(a).Root, tax.Get(b).Root; ra != rb {
				return int(ra) - int(rb)
			}
			return int(a) - int(b)
		})
		d := &Data{Name: name, Step: s.Step, Slot: s.Slot}
		for _, id := range ids {
			d.Types = append(d.Types, dec.typeName(id))
		}
		data[s] = d
		return d
	}
	for _, s := range dec.Types.Input().States {
		wf.Inputs = append(wf.Inputs, newData(s, fmt.Sprintf("in%d", s.Slot+1)))
	}
	for _, b := range dec.Types.Memory[1:] {
		for _, s := range b.States {
			if len(typesAt[s]) == 0 {
				continue
			}
			d := newData(s, fmt.Sprintf("s%d.out%d", s.Step, s.Slot+1))
			st := wf.Steps[s.Step-1]
			st.Outputs = append(st.Outputs, d)
		}
	}
	for _, b := range dec.Types.UsedBlocks() {
		for _, u := range b.States {
			targets := refOf[u]
			if len(typesAt[u]) == 0 {
				if len(targets) != 0 {
					return nil, fmt.Errorf("%w: empty %s references %v", ErrMalformedModel, u, targets)
				}
				continue
			}
			if len(targets) != 1 {
				return nil, fmt.Errorf("%w: %s has %d incoming edges", ErrMalformedModel, u, len(targets))
			}
			m := targets[0]
			src, ok := data[m]
			if !ok || m.Step >= u.Step {
				return nil, fmt.Errorf("%w: %s references %s", ErrMalformedModel, u, m)
			}
			wf.Edges = append(wf.Edges, Edge{From: src, ToStep: u.Step, ToSlot: u.Slot})
			if u.Step > L {
				wf.Outputs = append(wf.Outputs, src)
			} else {
				st := wf.Steps[u.Step-1]
				st.Inputs = append(st.Inputs, src)
			}
		}
	}
	wf.Literals = tools
	for _, group := range [][]ordered{types, refs} {
		slices.SortStableFunc(group, func(a, b ordered) int { return a.order - b.order })
		for _, o := range group {
			wf.Literals = append(wf.Literals, o.lit)
		}
	}
	if debug.Decode() {
		debug.Logf("decoded workflow %d: %s\n", index, wf)
	}
	return wf, nil
}

// Blocking returns the clause excluding wf from further models: over the
// tool literals only, or over every relevant literal when the same tool
// sequence may come back with a different data flow.
func (wf *Workflow) Blocking(dataFlow bool) []int {
	lits := wf.Literals
	if !dataFlow {
		lits = lits[:wf.Length]
	}
	res := make([]int, len(lits))
	for i, l := range lits {
		res[i] = -l.Var
	}
	return res
}

// Tools returns the tool labels in step order.
func (wf *Workflow) Tools() []string {
	res := make([]string, len(wf.Steps))
	for i, s := range wf.Steps {
		res[i] = s.Tool
	}
	return res
}

func (wf *Workflow) String() string {
	return fmt.Sprintf("%d: %v", wf.Index, wf.Tools())
}

// Dump writes every literal of the model, one per line.
func (wf *Workflow) Dump(w io.Writer) error {
	for _, l := range wf.model {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", l, wf.describe(l)); err != nil {
			return err
		}
	}
	return nil
}
