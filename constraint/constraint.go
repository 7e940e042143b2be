package constraint

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/sanctuuary/APE-sub003/debug"
	"github.com/sanctuuary/APE-sub003/sltl"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// FormulaID is the id of constraints given as a temporal-logic formula.
const FormulaID = "SLTL"

// Spec is a constraint as users write it.
type Spec struct {
	ID         string   `json:"constraintid" yaml:"constraintid" toml:"constraintid"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Formula    string   `json:"formula,omitempty" yaml:"formula,omitempty" toml:"formula,omitempty"`
}

// Data is a validated constraint with resolved parameters.
type Data struct {
	Index    int
	ID       string
	Params   []taxonomy.ID
	Formula  *sltl.Formula
	template *Template
}

// Env is what clause generators need from an encoder. Steps are 1-based.
type Env interface {
	sltl.Env
	// Modules returns the relevant tools at or below operation p.
	Modules(p taxonomy.ID) []taxonomy.ID
	// Connected is the literal of some output of step from being an
	// input of step to.
	Connected(from, to int) int
	// DependsOn is the literal of some input of step being derived from
	// an output of step on.
	DependsOn(step, on int) int
}

// Resolve validates specs against the taxonomy and marks every referenced
// predicate relevant. The first bad constraint rejects the whole set.
func Resolve(specs []Spec, tax *taxonomy.Taxonomy) ([]Data, error) {
	res := make([]Data, 0, len(specs))
	for i, s := range specs {
		d, err := resolveOne(i, s, tax)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

// ResolveBulk is Resolve for batches loaded from constraint files:
// constraints with an unknown id are logged and skipped.
func ResolveBulk(specs []Spec, tax *taxonomy.Taxonomy, log *slog.Logger) ([]Data, error) {
	if log == nil {
		log = slog.Default()
	}
	res := make([]Data, 0, len(specs))
	for i, s := range specs {
		d, err := resolveOne(i, s, tax)
		var cerr *Error
		if errors.As(err, &cerr) && cerr.Kind == UnknownID {
			log.Warn("skipping constraint", "index", i, "constraint", s.ID, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

func resolveOne(i int, s Spec, tax *taxonomy.Taxonomy) (Data, error) {
	t, ok := Lookup(s.ID)
	if !ok {
		return Data{}, errorf(UnknownID, i, s.ID, "known ids: %s", strings.Join(IDs(), ", "))
	}
	d := Data{Index: i, ID: t.ID, template: t}
	if t.ID == FormulaID {
		src := s.Formula
		if src == "" && len(s.Parameters) == 1 {
			src = s.Parameters[0]
		}
		if strings.TrimSpace(src) == "" {
			return Data{}, errorf(BadFormula, i, s.ID, "no formula")
		}
		f, err := sltl.Parse(src)
		if err != nil {
			return Data{}, errorf(BadFormula, i, s.ID, "%v", err)
		}
		if err := f.Bind(tax.Resolve); err != nil {
			return Data{}, errorf(UnresolvedReference, i, s.ID, "%v", err)
		}
		for _, p := range f.Preds() {
			tax.MarkRelevant(p)
		}
		d.Formula = f
		return d, nil
	}
	if len(s.Parameters) != len(t.Params) {
		return Data{}, errorf(WrongArity, i, s.ID, "got %d, want %d", len(s.Parameters), len(t.Params))
	}
	for j, name := range s.Parameters {
		id, err := tax.Resolve(name, t.Params[j])
		if err != nil {
			return Data{}, errorf(UnresolvedReference, i, s.ID, "parameter %d: %v", j, err)
		}
		d.Params = append(d.Params, id)
	}
	for _, p := range d.Params {
		tax.MarkRelevant(p)
	}
	return d, nil
}

// NeedsDeps reports whether any constraint relies on the dependency
// relation between states.
func NeedsDeps(data []Data) bool {
	return slices.ContainsFunc(data, func(d Data) bool {
		return d.template != nil && d.template.NeedsDeps
	})
}

// Apply adds the clauses of every constraint to env.
func Apply(env Env, data []Data) error {
	for i := range data {
		d := &data[i]
		t := d.template
		if t == nil {
			var ok bool
			if t, ok = Lookup(d.ID); !ok {
				return errorf(UnknownID, d.Index, d.ID, "")
			}
		}
		if debug.Constraints() {
			debug.Logf("constraint %d %s %v\n", d.Index, d.ID, d.Params)
		}
		if err := t.Generate(env, d); err != nil {
			return err
		}
	}
	return nil
}
