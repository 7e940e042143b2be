package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/encode"
	"github.com/sanctuuary/APE-sub003/format"
)

const yamlRun = `
solution_length: {min: 1, max: 4}
solutions: 5
timeout_sec: 30
inputs:
  - {Data: [Image], Format: [PNG, JPEG]}
outputs:
  - {Data: [Table]}
constraints:
  - constraintid: use_m
    parameters: [Conversion]
  - constraintid: next_m
    parameters: [{Operation: [crop]}, {Operation: [resize]}]
formulas: ["G !'crop'"]
use_workflow_input: ONE
strict_tool_annotations: true
tool_seq_repeat: true
`

func TestParseYAML(t *testing.T) {
	s, err := Parse([]byte(yamlRun), format.YAMLFormat)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRun(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.MinLength() != 1 || r.MaxLength() != 4 || r.MaxSolutions() != 5 || r.Timeout() != 30*time.Second {
		t.Errorf("got %+v", r)
	}
	if !r.ToolSeqRepeat() {
		t.Error("tool_seq_repeat lost")
	}
	wantIn := []TypeSpec{{"Data": {"Image"}, "Format": {"PNG", "JPEG"}}}
	if diff := cmp.Diff(wantIn, r.Inputs()); diff != "" {
		t.Error(diff)
	}
	wantCs := []constraint.Spec{
		{ID: "use_m", Parameters: []string{"Conversion"}},
		{ID: "next_m", Parameters: []string{"crop", "resize"}},
		{ID: constraint.FormulaID, Formula: "G !'crop'"},
	}
	if diff := cmp.Diff(wantCs, r.Constraints()); diff != "" {
		t.Error(diff)
	}
	wantEnc := encode.Options{UseInputs: encode.UseOne, UseGenerated: encode.UseOne, Strict: true}
	if diff := cmp.Diff(wantEnc, r.Encoding()); diff != "" {
		t.Error(diff)
	}
}

func TestUsageDefaults(t *testing.T) {
	r, err := NewRun(Spec{
		SolutionLength: Length{Min: 1, Max: 2},
		Solutions:      1,
		Outputs:        []TypeSpec{{"Data": {"X"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := encode.Options{UseInputs: encode.UseAll, UseGenerated: encode.UseOne}
	if diff := cmp.Diff(want, r.Encoding()); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestRunIsImmutable(t *testing.T) {
	s, err := Parse([]byte(yamlRun), format.YAMLFormat)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRun(s)
	if err != nil {
		t.Fatal(err)
	}
	s.Inputs[0]["Data"][0] = "Changed"
	in := r.Inputs()
	in[0]["Format"] = nil
	cs := r.Constraints()
	cs[0].Parameters[0] = "Changed"
	if diff := cmp.Diff([]TypeSpec{{"Data": {"Image"}, "Format": {"PNG", "JPEG"}}}, r.Inputs()); diff != "" {
		t.Error(diff)
	}
	if r.Constraints()[0].Parameters[0] != "Conversion" {
		t.Error("constraints shared")
	}
}

func TestNewRunValidation(t *testing.T) {
	ms := func(v int) *int { return &v }
	base := func() Spec {
		return Spec{
			SolutionLength: Length{Min: 1, Max: 2},
			Solutions:      1,
			Outputs:        []TypeSpec{{"Data": {"X"}}},
		}
	}
	tests := []struct {
		name string
		edit func(*Spec)
		ok   bool
	}{
		{"base", func(*Spec) {}, true},
		{"zero timeout", func(s *Spec) { s.TimeoutMS = ms(0) }, true},
		{"min", func(s *Spec) { s.SolutionLength.Min = 0 }, false},
		{"max", func(s *Spec) { s.SolutionLength.Max = 0 }, false},
		{"solutions", func(s *Spec) { s.Solutions = 0 }, false},
		{"negative timeout", func(s *Spec) { s.TimeoutMS = ms(-1) }, false},
		{"two timeouts", func(s *Spec) { s.TimeoutMS, s.TimeoutSec = ms(1), ms(1) }, false},
		{"nothing wanted", func(s *Spec) { s.Outputs = nil }, false},
		{"formula only", func(s *Spec) { s.Outputs, s.Formulas = nil, []string{"F 'a'"} }, true},
		{"empty dimension", func(s *Spec) { s.Outputs[0]["Format"] = nil }, false},
		{"empty data", func(s *Spec) { s.Inputs = []TypeSpec{{}} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.edit(&s)
			r, err := NewRun(s)
			if tt.ok != (err == nil) {
				t.Fatalf("got %v", err)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("not ErrInvalid: %v", err)
			}
			if err == nil && tt.name == "base" && r.Timeout() != DefaultTimeout {
				t.Errorf("timeout %s", r.Timeout())
			}
		})
	}
}

func TestPatch(t *testing.T) {
	doc := []byte(`{"solutions": 1, "solution_length": {"min": 1, "max": 3}}`)
	got, err := Parse(doc, format.JSONFormat,
		[]byte(`{"solutions": 7, "solution_length": {"max": 9}}`),
		[]byte(`[{"op": "add", "path": "/formulas", "value": ["F 'a'"]}]`),
	)
	if err != nil {
		t.Fatal(err)
	}
	want := Spec{SolutionLength: Length{Min: 1, Max: 9}, Solutions: 7, Formulas: []string{"F 'a'"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Error(diff)
	}
	if _, err := Patch(doc, []byte(`{"solutions":`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad patch: %v", err)
	}
}

func TestLoadTOMLAndConstraints(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "run.toml")
	err := os.WriteFile(cfg, []byte(`
solutions = 2
timeout_ms = 1500
constraints_path = "cs.json"
[solution_length]
min = 2
max = 3
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.MinLength() != 2 || r.Timeout() != 1500*time.Millisecond || r.ConstraintsPath() != filepath.Join(dir, "cs.json") {
		t.Errorf("got %+v", r.Spec())
	}
	err = os.WriteFile(r.ConstraintsPath(), []byte(`{"constraints": [{"constraintid": "nuse_m", "parameters": [{"Operation": ["crop"]}]}]}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	got, err := LoadConstraints(r.ConstraintsPath())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]constraint.Spec{{ID: "nuse_m", Parameters: []string{"crop"}}}, got); diff != "" {
		t.Error(diff)
	}
}

func TestSpecRoundTrip(t *testing.T) {
	s, err := Parse([]byte(yamlRun), format.YAMLFormat)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRun(s)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := NewRun(r.Spec())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(r.Spec(), r2.Spec()); diff != "" {
		t.Error(diff)
	}
}
