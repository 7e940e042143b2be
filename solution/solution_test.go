package solution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sanctuuary/APE-sub003/atom"
	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/encode"
	"github.com/sanctuuary/APE-sub003/format"
	"github.com/sanctuuary/APE-sub003/solve"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

type fixture struct {
	dec    *Decoder
	solver *solve.Solver
}

// chain encodes the X -> Y -> Z domain at length and loads it.
func chain(t *testing.T, length int) *fixture {
	t.Helper()
	tx := taxonomy.New()
	if _, err := tx.AddRoot("Op", "Op", taxonomy.Operation); err != nil {
		t.Fatal(err)
	}
	data, err := tx.AddRoot("Data", "Data", taxonomy.Data)
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]taxonomy.ID{}
	for _, n := range []string{"X", "Y", "Z"} {
		ids[n], _ = tx.Add(n, n, data)
		tx.MarkRelevant(ids[n])
	}
	for _, tl := range [][3]string{{"x2y", "X", "Y"}, {"y2z", "Y", "Z"}} {
		m, err := tx.AddModule(tl[0], tl[0], nil, []taxonomy.ID{ids[tl[1]]}, []taxonomy.ID{ids[tl[2]]})
		if err != nil {
			t.Fatal(err)
		}
		tx.MarkRelevant(m.Pred)
	}
	tx.AddPlainLeaves()
	p := &encode.Problem{
		Taxonomy: tx,
		Inputs:   []taxonomy.ID{ids["X"]},
		Outputs:  []taxonomy.ID{ids["Z"]},
	}
	st := cnf.NewMemStage()
	defer st.Close()
	m := atom.NewMapping()
	e, err := encode.New(p, length, m, st, encode.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	stats, err := e.Encode()
	if err != nil {
		t.Fatal(err)
	}
	r, err := st.Reader(stats.Vars)
	if err != nil {
		t.Fatal(err)
	}
	s, err := solve.Load(r)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		dec:    &Decoder{Mapping: m, Taxonomy: tx, Modules: e.ModuleStates(), Types: e.Types()},
		solver: s,
	}
}

func (f *fixture) next(t *testing.T, index int) *Workflow {
	t.Helper()
	if st := f.solver.Solve(context.Background(), 10*time.Second); st != solve.Sat {
		t.Fatalf("solve: %s", st)
	}
	model, err := f.solver.Model()
	if err != nil {
		t.Fatal(err)
	}
	wf, err := f.dec.Decode(index, model)
	if err != nil {
		t.Fatal(err)
	}
	return wf
}

func TestDecode(t *testing.T) {
	f := chain(t, 2)
	wf := f.next(t, 1)
	if diff := cmp.Diff([]string{"x2y", "y2z"}, wf.Tools()); diff != "" {
		t.Fatalf("tools (-want +got):\n%s", diff)
	}
	in := &Data{Name: "in1", Step: 0, Slot: 0, Types: []string{"X"}}
	y := &Data{Name: "s1.out1", Step: 1, Slot: 0, Types: []string{"Y"}}
	z := &Data{Name: "s2.out1", Step: 2, Slot: 0, Types: []string{"Z"}}
	want := &Workflow{
		Index:  1,
		Length: 2,
		Inputs: []*Data{in},
		Steps: []*Step{
			{Index: 1, Tool: "x2y", ToolID: "x2y", Inputs: []*Data{in}, Outputs: []*Data{y}},
			{Index: 2, Tool: "y2z", ToolID: "y2z", Inputs: []*Data{y}, Outputs: []*Data{z}},
		},
		Outputs: []*Data{z},
		Edges: []Edge{
			{From: in, ToStep: 1, ToSlot: 0},
			{From: y, ToStep: 2, ToSlot: 0},
			{From: z, ToStep: 3, ToSlot: 0},
		},
	}
	opts := []cmp.Option{cmpopts.IgnoreFields(Workflow{}, "Literals"), cmpopts.IgnoreUnexported(Workflow{})}
	if diff := cmp.Diff(want, wf, opts...); diff != "" {
		t.Errorf("workflow (-want +got):\n%s", diff)
	}
}

func TestBlocking(t *testing.T) {
	f := chain(t, 2)
	wf := f.next(t, 1)
	tools := wf.Blocking(false)
	all := wf.Blocking(true)
	if len(tools) != wf.Length {
		t.Fatalf("tool blocking clause has %d literals, want %d", len(tools), wf.Length)
	}
	if len(all) <= len(tools) || !slices.Equal(all[:len(tools)], tools) {
		t.Fatalf("data flow clause %v does not extend %v", all, tools)
	}
	for _, l := range all {
		if l >= 0 {
			t.Fatalf("blocking literal %d is not negative", l)
		}
	}
	if err := f.solver.Add(tools...); err != nil {
		t.Fatal(err)
	}
	if st := f.solver.Solve(context.Background(), 10*time.Second); st != solve.Unsat {
		t.Errorf("after blocking the only tool sequence: %s", st)
	}
}

func TestMalformedModel(t *testing.T) {
	f := chain(t, 2)
	wf := f.next(t, 1)
	// drop the tool at step 2
	model := slices.DeleteFunc(slices.Clone(wf.model), func(l int) bool { return l == wf.Literals[1].Var })
	_, err := f.dec.Decode(2, model)
	if !errors.Is(err, ErrMalformedModel) {
		t.Errorf("got %v, want %v", err, ErrMalformedModel)
	}
}

func TestDump(t *testing.T) {
	f := chain(t, 2)
	wf := f.next(t, 1)
	var b bytes.Buffer
	if err := wf.Dump(&b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != len(wf.model) {
		t.Errorf("dump has %d lines for %d literals", len(lines), len(wf.model))
	}
	for _, l := range wf.Literals {
		if !strings.Contains(b.String(), l.Text) {
			t.Errorf("dump lacks %q", l.Text)
		}
	}
}

func sample() []*Workflow {
	in := &Data{Name: "in1", Types: []string{"X"}}
	y := &Data{Name: "s1.out1", Step: 1, Types: []string{"Y", "PNG"}}
	z := &Data{Name: "s2.out1", Step: 2, Types: []string{"Z"}}
	return []*Workflow{
		{
			Index:  1,
			Length: 2,
			Inputs: []*Data{in},
			Steps: []*Step{
				{Index: 1, Tool: "x2y", Inputs: []*Data{in}, Outputs: []*Data{y}},
				{Index: 2, Tool: "y2z", Inputs: []*Data{y}, Outputs: []*Data{z}},
			},
			Outputs: []*Data{z},
		},
		{
			Index:   2,
			Length:  1,
			Inputs:  []*Data{in},
			Steps:   []*Step{{Index: 1, Tool: "x2z", Inputs: []*Data{in}, Outputs: []*Data{z}}},
			Outputs: []*Data{z},
		},
	}
}

func TestText(t *testing.T) {
	var b bytes.Buffer
	if err := Text(&b, sample()[0], nil); err != nil {
		t.Fatal(err)
	}
	want := `workflow 1 (length 2)
  input  in1 [X]
  1 x2y(in1) -> s1.out1 [Y, PNG]
  2 y2z(s1.out1) -> s2.out1 [Z]
  output s2.out1 [Z]
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	var b bytes.Buffer
	if err := Render(&b, sample(), format.JSONFormat, nil); err != nil {
		t.Fatal(err)
	}
	var got []struct {
		Index int `json:"index"`
		Steps []struct {
			Tool string `json:"tool"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Steps[1].Tool != "y2z" || got[1].Index != 2 {
		t.Errorf("unexpected json: %s", b.String())
	}

	b.Reset()
	if err := Render(&b, nil, format.JSONFormat, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(b.String()) != "[]" {
		t.Errorf("empty render: %q", b.String())
	}

	if err := Render(&b, sample(), format.TOMLFormat, nil); !errors.Is(err, format.ErrBadFormat) {
		t.Errorf("toml render: got %v", err)
	}
}

func TestFilter(t *testing.T) {
	wfs := sample()
	tests := []struct {
		src  string
		want []int
	}{
		{`length <= 1`, []int{2}},
		{`"y2z" in tools`, []int{1}},
		{`"PNG" in types`, []int{1}},
		{`all(outputs, {"Z" in #})`, []int{1, 2}},
		{`index > 5`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := NewFilter(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			got, err := f.Apply(wfs)
			if err != nil {
				t.Fatal(err)
			}
			var idx []int
			for _, wf := range got {
				idx = append(idx, wf.Index)
			}
			if diff := cmp.Diff(tt.want, idx); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}

	for _, src := range []string{`length +`, `tools`, `nosuch > 1`} {
		if _, err := NewFilter(src); !errors.Is(err, ErrBadFilter) {
			t.Errorf("%q: got %v, want %v", src, err, ErrBadFilter)
		}
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	wfs := sample()
	err := WriteAll(context.Background(), dir, wfs, WriteOptions{Format: format.YAMLFormat, Dump: true, Parallel: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, wf := range wfs {
		d, err := os.ReadFile(filepath.Join(dir, FileName(wf.Index, format.YAMLFormat)))
		if err != nil {
			t.Fatal(err)
		}
		var got struct {
			Index int `json:"index"`
		}
		if err := format.Decode(d, format.YAMLFormat, &got); err != nil {
			t.Fatal(err)
		}
		if got.Index != wf.Index {
			t.Errorf("file of workflow %d holds %d", wf.Index, got.Index)
		}
		if _, err := os.Stat(filepath.Join(dir, fmt.Sprintf("workflow%d.dump", wf.Index))); err != nil {
			t.Error(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WriteAll(ctx, t.TempDir(), wfs, WriteOptions{Format: format.TextFormat}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled write: got %v", err)
	}
}
