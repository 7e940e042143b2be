package encode

import (
	"errors"
	"fmt"

	"github.com/sanctuuary/APE-sub003/atom"
	"github.com/sanctuuary/APE-sub003/automaton"
	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/debug"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

var ErrNoRoot = errors.New("taxonomy root unresolved")

// Problem is what gets encoded: a prepared taxonomy, the workflow inputs
// and outputs as data instance predicates, and resolved constraints.
type Problem struct {
	Taxonomy    *taxonomy.Taxonomy
	Inputs      []taxonomy.ID
	Outputs     []taxonomy.ID
	Constraints []constraint.Data
}

// Shape returns the block widths of p.
func (p *Problem) Shape() automaton.Shape {
	in, out := p.Taxonomy.MaxArity()
	return automaton.Shape{
		MaxInputs:       in,
		MaxOutputs:      out,
		WorkflowInputs:  len(p.Inputs),
		WorkflowOutputs: len(p.Outputs),
	}
}

// Check reports setup errors that make p unencodable.
func (p *Problem) Check() error {
	tax := p.Taxonomy
	if tax == nil {
		return fmt.Errorf("%w: no taxonomy", ErrNoRoot)
	}
	root := tax.Get(tax.OperationRoot())
	if root == nil {
		return fmt.Errorf("%w: no operation root", ErrNoRoot)
	}
	if !root.Relevant || len(tax.ModulesUnder(root.ID)) == 0 {
		return fmt.Errorf("%w: no relevant tool below %q", ErrNoRoot, root.IRI)
	}
	for _, io := range [][]taxonomy.ID{p.Inputs, p.Outputs} {
		for _, id := range io {
			pp := tax.Get(id)
			if pp == nil || pp.Role != taxonomy.Data || !pp.Relevant {
				return fmt.Errorf("%w: workflow data %d", taxonomy.ErrUnresolved, id)
			}
		}
	}
	return nil
}

// Stats describes one encoding.
type Stats struct {
	Vars    int
	Clauses int
}

type stepKey struct {
	pred taxonomy.ID
	step int
}

type pairKey struct {
	a, b int
}

// Encoder translates one problem at one workflow length into clauses.
type Encoder struct {
	p     *Problem
	tax   *taxonomy.Taxonomy
	opts  Options
	mods  *automaton.ModuleAutomaton
	types *automaton.TypeAutomaton
	m     *atom.Mapping
	out   cnf.Sink

	clauses int
	tru     int
	deps    bool
	err     error

	moduleLeaves []taxonomy.ID
	dataLeaves   []taxonomy.ID
	byDim        [][]taxonomy.ID
	dims         []taxonomy.ID

	used      map[stepKey]int
	generated map[stepKey]int
	connected map[pairKey]int
	dependsOn map[pairKey]int
}

// New prepares an encoder for workflows of the given length writing to
// out. The taxonomy must be fully prepared: relevance marked and plain
// leaves added.
func New(p *Problem, length int, m *atom.Mapping, out cnf.Sink, opts Options) (*Encoder, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	mods, types, err := automaton.Build(length, p.Shape())
	if err != nil {
		return nil, err
	}
	e := &Encoder{
		p:         p,
		tax:       p.Taxonomy,
		opts:      opts,
		mods:      mods,
		types:     types,
		m:         m,
		out:       out,
		used:      map[stepKey]int{},
		generated: map[stepKey]int{},
		connected: map[pairKey]int{},
		dependsOn: map[pairKey]int{},
	}
	e.moduleLeaves = e.tax.ModulesUnder(e.tax.OperationRoot())
	for _, d := range e.tax.DataRoots() {
		if !e.tax.Get(d).Relevant {
			continue
		}
		leaves := e.tax.Leaves(d)
		e.dims = append(e.dims, d)
		e.byDim = append(e.byDim, leaves)
		e.dataLeaves = append(e.dataLeaves, leaves...)
	}
	return e, nil
}

func (e *Encoder) ModuleStates() *automaton.ModuleAutomaton { return e.mods }

func (e *Encoder) Types() *automaton.TypeAutomaton { return e.types }

func (e *Encoder) Mapping() *atom.Mapping { return e.m }

type family struct {
	name string
	fn   func() error
}

// Encode writes every clause family and the user constraints.
func (e *Encoder) Encode() (Stats, error) {
	families := []family{
		{"taxonomy", e.structure},
		{"exclusion", e.mutex},
		{"mandatory", e.mandatory},
		{"helpers", e.helpers},
		{"references", e.references},
		{"tools", e.toolIO},
		{"boundary", e.boundary},
		{"usage", e.usage},
	}
	if e.opts.Strict || constraint.NeedsDeps(e.p.Constraints) {
		families = append(families, family{"dependencies", e.ensureDeps})
	}
	if e.opts.Strict {
		families = append(families, family{"strict", e.strict})
	}
	families = append(families, family{"constraints", func() error {
		return constraint.Apply(e, e.p.Constraints)
	}})

	for _, f := range families {
		before := e.clauses
		err := f.fn()
		if err == nil {
			err = e.err
		}
		if err != nil {
			return Stats{}, fmt.Errorf("encoding %s: %w", f.name, err)
		}
		if debug.Encode() {
			debug.Logf("encode L=%d %s: %d clauses\n", e.mods.Len(), f.name, e.clauses-before)
		}
	}
	return e.Stats(), nil
}

func (e *Encoder) Stats() Stats {
	return Stats{Vars: e.m.Size(), Clauses: e.clauses}
}

// Add writes a clause. An empty clause is written as a contradicting pair
// of unit clauses over a fresh variable.
func (e *Encoder) Add(lits ...int) error {
	if len(lits) == 0 {
		f := e.m.Aux()
		if err := e.Add(f); err != nil {
			return err
		}
		return e.Add(-f)
	}
	if debug.Clauses() {
		debug.Logf("clause %v\n", lits)
	}
	e.clauses++
	return e.out.Add(lits...)
}

func (e *Encoder) Aux() int { return e.m.Aux() }

func (e *Encoder) Length() int { return e.mods.Len() }

func (e *Encoder) True() int {
	if e.tru == 0 {
		e.tru = e.m.Aux()
		e.setErr(e.Add(e.tru))
	}
	return e.tru
}

func (e *Encoder) pred(p taxonomy.ID, s *automaton.State) int {
	return e.m.Pred(p, s)
}
