package constraint

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

func sampleTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tx := taxonomy.New()
	op, _ := tx.AddRoot("Op", "Op", taxonomy.Operation)
	data, _ := tx.AddRoot("Data", "Data", taxonomy.Data)
	img, _ := tx.Add("Image", "Image", data)
	tx.Add("Table", "Table", data)
	conv, _ := tx.Add("Convert", "Convert", op)
	if _, err := tx.AddModule("crop", "crop", []taxonomy.ID{conv}, []taxonomy.ID{img}, []taxonomy.ID{img}); err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		kind ErrorKind
	}{
		{"unknown", Spec{ID: "use_everything"}, UnknownID},
		{"arity", Spec{ID: "ite_m", Parameters: []string{"crop"}}, WrongArity},
		{"missing", Spec{ID: "use_m", Parameters: []string{"rotate"}}, UnresolvedReference},
		{"role", Spec{ID: "use_m", Parameters: []string{"Image"}}, UnresolvedReference},
		{"formula", Spec{ID: FormulaID, Formula: "F (crop"}, BadFormula},
		{"empty formula", Spec{ID: FormulaID}, BadFormula},
		{"formula name", Spec{ID: FormulaID, Formula: "F rotate"}, UnresolvedReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := sampleTaxonomy(t)
			specs := []Spec{{ID: "use_m", Parameters: []string{"crop"}}, tt.spec}
			_, err := Resolve(specs, tx)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("got %v", err)
			}
			if cerr.Kind != tt.kind || cerr.Index != 1 || cerr.ID != tt.spec.ID {
				t.Errorf("got %+v", cerr)
			}
			if !errors.Is(err, tt.kind.Err()) {
				t.Errorf("errors.Is failed for %v", err)
			}
		})
	}
}

func TestResolveMarksRelevant(t *testing.T) {
	tx := sampleTaxonomy(t)
	data, err := Resolve([]Spec{
		{ID: "use_t", Parameters: []string{"Table"}},
		{ID: FormulaID, Formula: "G !crop"},
	}, tx)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data[1].Formula == nil {
		t.Fatalf("resolved %+v", data)
	}
	for _, name := range []string{"Table", "Data", "crop", "Op"} {
		id, _ := tx.Lookup(name)
		if !tx.Get(id).Relevant {
			t.Errorf("%s not marked relevant", name)
		}
	}
	if NeedsDeps(data) {
		t.Error("use_t does not need dependencies")
	}
}

func TestResolveBulkSkipsUnknown(t *testing.T) {
	tx := sampleTaxonomy(t)
	buf := bytes.NewBuffer(nil)
	log := slog.New(slog.NewTextHandler(buf, nil))
	data, err := ResolveBulk([]Spec{
		{ID: "no_such"},
		{ID: "dep_op", Parameters: []string{"crop", "crop"}},
	}, tx, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 || data[0].ID != "dep_op" || data[0].Index != 1 {
		t.Fatalf("got %+v", data)
	}
	if !strings.Contains(buf.String(), "no_such") {
		t.Errorf("skip not logged: %s", buf.String())
	}
	if !NeedsDeps(data) {
		t.Error("dep_op needs dependencies")
	}
	_, err = ResolveBulk([]Spec{{ID: "use_m", Parameters: []string{}}}, tx, log)
	if !errors.Is(err, ErrWrongArity) {
		t.Errorf("bulk arity: %v", err)
	}
}

func TestTemplatesRegistered(t *testing.T) {
	for _, id := range []string{
		"ite_m", "itn_m", "depend_m", "next_m", "prev_m", "use_m", "nuse_m", "last_m",
		"use_t", "gen_t", "nuse_t", "ngen_t", "use_ite_t", "gen_ite_t", "use_itn_t", "gen_itn_t",
		"operation_input", "operation_output", "connected_op", "not_connected_op",
		"not_repeat_op", "dep_op", "ndep_op", FormulaID,
	} {
		tpl, ok := Lookup(id)
		if !ok {
			t.Errorf("%s missing", id)
			continue
		}
		if tpl.Description == "" {
			t.Errorf("%s has no description", id)
		}
	}
	if len(Templates()) != len(IDs()) {
		t.Error("Templates and IDs disagree")
	}
}

// toolEnv is a three step workflow where only tool atoms are free.
type toolEnv struct {
	f    cnf.Formula
	vars int
	tru  int
}

const steps = 3

func (e *toolEnv) Length() int { return steps }
func (e *toolEnv) Tool(p taxonomy.ID, step int) int {
	return int(p-1)*steps + step
}
func (e *toolEnv) Used(p taxonomy.ID, step int) int { panic("unused") }
func (e *toolEnv) Generated(p taxonomy.ID, step int) int { panic("unused") }
func (e *toolEnv) Modules(p taxonomy.ID) []taxonomy.ID { return []taxonomy.ID{p} }
func (e *toolEnv) Connected(from, to int) int { panic("unused") }
func (e *toolEnv) DependsOn(step, on int) int { panic("unused") }
func (e *toolEnv) Add(lits ...int) error { return e.f.Add(lits...) }
func (e *toolEnv) Aux() int {
	e.vars++
	return e.vars
}
func (e *toolEnv) True() int {
	if e.tru == 0 {
		e.tru = e.Aux()
		e.f.Add(e.tru)
	}
	return e.tru
}

func TestOperationTemplates(t *testing.T) {
	const A, B = taxonomy.ID(1), taxonomy.ID(2)
	// seq[i] is the tool at step i+1: 'a', 'b' or '-'.
	tests := []struct {
		id   string
		want func(seq string) bool
	}{
		{"ite_m", func(s string) bool {
			for i := range s {
				if s[i] == 'a' && strings.IndexByte(s[i+1:], 'b') < 0 {
					return false
				}
			}
			return true
		}},
		{"itn_m", func(s string) bool {
			i := strings.IndexByte(s, 'a')
			return i < 0 || strings.IndexByte(s[i+1:], 'b') < 0
		}},
		{"depend_m", func(s string) bool {
			for i := range s {
				if s[i] == 'a' && strings.IndexByte(s[:i], 'b') < 0 {
					return false
				}
			}
			return true
		}},
		{"next_m", func(s string) bool {
			for i := range s {
				if s[i] == 'a' && (i+1 == len(s) || s[i+1] != 'b') {
					return false
				}
			}
			return true
		}},
		{"prev_m", func(s string) bool {
			for i := range s {
				if s[i] == 'a' && (i == 0 || s[i-1] != 'b') {
					return false
				}
			}
			return true
		}},
		{"use_m", func(s string) bool { return strings.Contains(s, "a") }},
		{"nuse_m", func(s string) bool { return !strings.Contains(s, "a") }},
		{"last_m", func(s string) bool { return strings.IndexByte(s, 'a') == len(s)-1 }},
		{"not_repeat_op", func(s string) bool { return strings.Count(s, "a") <= 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			tpl, _ := Lookup(tt.id)
			env := &toolEnv{vars: 2 * steps}
			d := &Data{ID: tt.id, Params: []taxonomy.ID{A, B}[:len(tpl.Params)]}
			if err := tpl.Generate(env, d); err != nil {
				t.Fatal(err)
			}
			natoms := 2 * steps
			for am := 0; am < 1<<natoms; am++ {
				seq := ""
				valid := true
				for s := 1; s <= steps; s++ {
					a := am&(1<<(env.Tool(A, s)-1)) != 0
					b := am&(1<<(env.Tool(B, s)-1)) != 0
					switch {
					case a && b:
						valid = false
					case a:
						seq += "a"
					case b:
						seq += "b"
					default:
						seq += "-"
					}
				}
				if !valid {
					continue
				}
				sat := false
				for xm := 0; xm < 1<<(env.vars-natoms) && !sat; xm++ {
					full := am | xm<<natoms
					sat = env.f.Eval(func(v int) bool { return full&(1<<(v-1)) != 0 })
				}
				if want := tt.want(seq); sat != want {
					t.Errorf("%s: satisfiable=%v want %v", seq, sat, want)
				}
			}
		})
	}
}

func TestGenerateArity(t *testing.T) {
	tpl, _ := Lookup("ite_m")
	err := tpl.Generate(&toolEnv{}, &Data{ID: "ite_m", Params: []taxonomy.ID{1}})
	if !errors.Is(err, ErrWrongArity) {
		t.Errorf("got %v", err)
	}
	err = Apply(&toolEnv{}, []Data{{ID: "bogus"}})
	if !errors.Is(err, ErrUnknownID) {
		t.Errorf("got %v", err)
	}
}

func ExampleError() {
	err := error(&Error{Kind: WrongArity, Index: 2, ID: "next_m", Msg: "got 1, want 2"})
	fmt.Println(err)
	fmt.Println(errors.Is(err, ErrWrongArity))
	// Output:
	// constraint 2 (next_m): wrong number of parameters: got 1, want 2
	// true
}
