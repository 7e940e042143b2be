package sltl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", `"a"`},
		{"'tool one' & b", `("tool one" & "b")`},
		{"a | b & c", `("a" | ("b" & "c"))`},
		{"a -> b -> c", `("a" -> ("b" -> "c"))`},
		{"a <-> b <-> c", `(("a" <-> "b") <-> "c")`},
		{"!a U b U c", `(!"a" U ("b" U "c"))`},
		{"G (a -> F b)", `G ("a" -> F "b")`},
		{"<a> X in('T')", `<"a">X in("T")`},
		{"out(T) && true || false", `((out("T") & true) | false)`},
		{"~X a", `!X "a"`},
	}
	for _, tt := range tests {
		f, err := Parse(tt.in)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got := f.String(); got != tt.want {
			t.Errorf("%q: got %s want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"a &", 3},
		{"(a", 2},
		{"a b", 2},
		{"in(a", 4},
		{"'open", 0},
		{"a $ b", 2},
		{"<a b", 3},
		{"in()", 3},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: got %v", tt.in, err)
			continue
		}
		if se.Pos != tt.pos {
			t.Errorf("%q: error at %d, want %d (%v)", tt.in, se.Pos, tt.pos, se)
		}
	}
}

var names = map[string]struct {
	id   taxonomy.ID
	role taxonomy.Role
}{
	"a": {1, taxonomy.Operation},
	"b": {2, taxonomy.Operation},
	"T": {3, taxonomy.Data},
}

func resolve(name string, role taxonomy.Role) (taxonomy.ID, error) {
	n, ok := names[name]
	if !ok || n.role != role {
		return taxonomy.None, fmt.Errorf("%w: %s", taxonomy.ErrUnresolved, name)
	}
	return n.id, nil
}

func TestBind(t *testing.T) {
	f, err := Parse("G(a -> in(T))")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Bind(resolve); err != nil {
		t.Fatal(err)
	}
	if got := f.Preds(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("preds %v", got)
	}
	f, _ = Parse("in(a)")
	if err := f.Bind(resolve); !errors.Is(err, taxonomy.ErrUnresolved) {
		t.Errorf("role mismatch: %v", err)
	}
}

type testEnv struct {
	length int
	f      cnf.Formula
	vars   int
	atoms  map[string]int
	tru    int
}

func newTestEnv(length int) *testEnv {
	e := &testEnv{length: length, atoms: map[string]int{}}
	return e
}

func (e *testEnv) atom(kind string, p taxonomy.ID, step int) int {
	k := fmt.Sprintf("%s/%d/%d", kind, p, step)
	if v, ok := e.atoms[k]; ok {
		return v
	}
	e.vars++
	e.atoms[k] = e.vars
	return e.vars
}

func (e *testEnv) Length() int { return e.length }
func (e *testEnv) Tool(p taxonomy.ID, step int) int { return e.atom("tool", p, step) }
func (e *testEnv) Used(p taxonomy.ID, step int) int { return e.atom("in", p, step) }
func (e *testEnv) Generated(p taxonomy.ID, step int) int { return e.atom("out", p, step) }
func (e *testEnv) Add(lits ...int) error { return e.f.Add(lits...) }

func (e *testEnv) Aux() int {
	e.vars++
	return e.vars
}

func (e *testEnv) True() int {
	if e.tru == 0 {
		e.tru = e.Aux()
		e.f.Add(e.tru)
	}
	return e.tru
}

// trace assigns the atoms of a two step workflow.
type trace map[string]bool

func (tr trace) tool(name string, step int) bool {
	return tr[fmt.Sprintf("tool/%d/%d", names[name].id, step)]
}

func TestLowerSemantics(t *testing.T) {
	const L = 2
	tests := []struct {
		formula string
		want    func(tr trace) bool
	}{
		{"a", func(tr trace) bool { return tr.tool("a", 1) }},
		{"X a", func(tr trace) bool { return tr.tool("a", 2) }},
		{"X X a", func(tr trace) bool { return false }},
		{"F a", func(tr trace) bool { return tr.tool("a", 1) || tr.tool("a", 2) }},
		{"G !a", func(tr trace) bool { return !tr.tool("a", 1) && !tr.tool("a", 2) }},
		{"G a", func(tr trace) bool { return tr.tool("a", 1) && tr.tool("a", 2) }},
		{"F !a", func(tr trace) bool { return !tr.tool("a", 1) || !tr.tool("a", 2) }},
		{"!F a", func(tr trace) bool { return !tr.tool("a", 1) && !tr.tool("a", 2) }},
		{"!G a", func(tr trace) bool { return !tr.tool("a", 1) || !tr.tool("a", 2) }},
		{"G (a | b)", func(tr trace) bool {
			return (tr.tool("a", 1) || tr.tool("b", 1)) && (tr.tool("a", 2) || tr.tool("b", 2))
		}},
		{"!a U b", func(tr trace) bool {
			return tr.tool("b", 1) || !tr.tool("a", 1) && tr.tool("b", 2)
		}},
		{"!(a U b)", func(tr trace) bool {
			return !(tr.tool("b", 1) || tr.tool("a", 1) && tr.tool("b", 2))
		}},
		{"G (a -> X b)", func(tr trace) bool {
			return (!tr.tool("a", 1) || tr.tool("b", 2)) && !tr.tool("a", 2)
		}},
		{"a U b", func(tr trace) bool {
			return tr.tool("b", 1) || tr.tool("a", 1) && tr.tool("b", 2)
		}},
		{"<a> b", func(tr trace) bool { return tr.tool("a", 1) && tr.tool("b", 2) }},
		{"a <-> X b", func(tr trace) bool { return tr.tool("a", 1) == tr.tool("b", 2) }},
		{"F(in(T) & b)", func(tr trace) bool {
			in := func(s int) bool { return tr[fmt.Sprintf("in/3/%d", s)] }
			return in(1) && tr.tool("b", 1) || in(2) && tr.tool("b", 2)
		}},
		{"true -> false", func(tr trace) bool { return false }},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			f, err := Parse(tt.formula)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.Bind(resolve); err != nil {
				t.Fatal(err)
			}
			env := newTestEnv(L)
			// allocate every atom first so they occupy the low variables
			for _, n := range []string{"a", "b"} {
				for s := 1; s <= L; s++ {
					env.Tool(names[n].id, s)
				}
			}
			for s := 1; s <= L; s++ {
				env.Used(3, s)
			}
			natoms := env.vars
			if err := f.Lower(env); err != nil {
				t.Fatal(err)
			}
			if env.vars > 22 {
				t.Fatalf("too many variables for brute force: %d", env.vars)
			}
			for am := 0; am < 1<<natoms; am++ {
				tr := trace{}
				for k, v := range env.atoms {
					tr[k] = am&(1<<(v-1)) != 0
				}
				sat := false
				for xm := 0; xm < 1<<(env.vars-natoms) && !sat; xm++ {
					full := am | xm<<natoms
					sat = env.f.Eval(func(v int) bool { return full&(1<<(v-1)) != 0 })
				}
				if want := tt.want(tr); sat != want {
					t.Fatalf("assignment %b: satisfiable=%v want %v", am, sat, want)
				}
			}
		})
	}
}

func TestLowerUnbound(t *testing.T) {
	f, err := Parse("F a")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Lower(newTestEnv(2)); err == nil {
		t.Error("lowering an unbound formula succeeded")
	}
}

func TestTokenString(t *testing.T) {
	if got := TIff.String(); got != "<->" {
		t.Errorf("got %q", got)
	}
	if got := TokenType(99).String(); got != "token(99)" {
		t.Errorf("got %q", got)
	}
}
