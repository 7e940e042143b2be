package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/encode"
)

var ErrInvalid = errors.New("invalid run configuration")

// DefaultTimeout applies when a configuration sets no timeout.
const DefaultTimeout = 300 * time.Second

// TypeSpec describes one workflow input or output: for every data
// dimension, the types it may have.
type TypeSpec map[string][]string

func (t TypeSpec) clone() TypeSpec {
	res := make(TypeSpec, len(t))
	for k, v := range t {
		res[k] = slices.Clone(v)
	}
	return res
}

// Dimensions returns the dimension names of t in sorted order.
func (t TypeSpec) Dimensions() []string {
	return slices.Sorted(maps.Keys(t))
}

type Length struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Spec is a run configuration as written in files.
type Spec struct {
	SolutionLength        Length            `json:"solution_length"`
	Solutions             int               `json:"solutions"`
	TimeoutMS             *int              `json:"timeout_ms,omitempty"`
	TimeoutSec            *int              `json:"timeout_sec,omitempty"`
	ToolSeqRepeat         bool              `json:"tool_seq_repeat"`
	Inputs                []TypeSpec        `json:"inputs,omitempty"`
	Outputs               []TypeSpec        `json:"outputs,omitempty"`
	Constraints           []constraint.Spec `json:"constraints,omitempty"`
	ConstraintsPath       string            `json:"constraints_path,omitempty"`
	Formulas              []string          `json:"formulas,omitempty"`
	UseWorkflowInput      *encode.Usage     `json:"use_workflow_input,omitempty"`
	UseGeneratedData      *encode.Usage     `json:"use_all_generated_data,omitempty"`
	NoInputEcho           bool              `json:"no_input_echo"`
	StrictToolAnnotations bool              `json:"strict_tool_annotations"`
	Debug                 bool              `json:"debug_mode"`
}

// Run is a validated run configuration. It is immutable: accessors
// return copies.
type Run struct {
	minLen, maxLen  int
	solutions       int
	timeout         time.Duration
	toolSeqRepeat   bool
	inputs          []TypeSpec
	outputs         []TypeSpec
	constraints     []constraint.Spec
	constraintsPath string
	encoding        encode.Options
	debug           bool
}

// NewRun validates s.
func NewRun(s Spec) (*Run, error) {
	if s.SolutionLength.Min < 1 {
		return nil, fmt.Errorf("%w: minimum length %d < 1", ErrInvalid, s.SolutionLength.Min)
	}
	if s.SolutionLength.Max < s.SolutionLength.Min {
		return nil, fmt.Errorf("%w: maximum length %d < minimum %d", ErrInvalid, s.SolutionLength.Max, s.SolutionLength.Min)
	}
	if s.Solutions < 1 {
		return nil, fmt.Errorf("%w: solutions %d < 1", ErrInvalid, s.Solutions)
	}
	timeout := DefaultTimeout
	switch {
	case s.TimeoutMS != nil && s.TimeoutSec != nil:
		return nil, fmt.Errorf("%w: both timeout_ms and timeout_sec set", ErrInvalid)
	case s.TimeoutMS != nil:
		timeout = time.Duration(*s.TimeoutMS) * time.Millisecond
	case s.TimeoutSec != nil:
		timeout = time.Duration(*s.TimeoutSec) * time.Second
	}
	if timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalid)
	}
	for _, io := range [][]TypeSpec{s.Inputs, s.Outputs} {
		for i, ts := range io {
			if len(ts) == 0 {
				return nil, fmt.Errorf("%w: data %d has no types", ErrInvalid, i)
			}
			for dim, types := range ts {
				if len(types) == 0 {
					return nil, fmt.Errorf("%w: data %d: dimension %q has no types", ErrInvalid, i, dim)
				}
			}
		}
	}
	cs := slices.Clone(s.Constraints)
	for _, f := range s.Formulas {
		cs = append(cs, constraint.Spec{ID: constraint.FormulaID, Formula: f})
	}
	if len(s.Outputs) == 0 && len(cs) == 0 && s.ConstraintsPath == "" {
		return nil, fmt.Errorf("%w: no workflow outputs and no constraints", ErrInvalid)
	}
	r := &Run{
		minLen:          s.SolutionLength.Min,
		maxLen:          s.SolutionLength.Max,
		solutions:       s.Solutions,
		timeout:         timeout,
		toolSeqRepeat:   s.ToolSeqRepeat,
		inputs:          cloneTypes(s.Inputs),
		outputs:         cloneTypes(s.Outputs),
		constraintsPath: s.ConstraintsPath,
		encoding:        encode.DefaultOptions(),
		debug:           s.Debug,
	}
	for _, c := range cs {
		c.Parameters = slices.Clone(c.Parameters)
		r.constraints = append(r.constraints, c)
	}
	if s.UseWorkflowInput != nil {
		r.encoding.UseInputs = *s.UseWorkflowInput
	}
	if s.UseGeneratedData != nil {
		r.encoding.UseGenerated = *s.UseGeneratedData
	}
	r.encoding.NoInputEcho = s.NoInputEcho
	r.encoding.Strict = s.StrictToolAnnotations
	return r, nil
}

func cloneTypes(ts []TypeSpec) []TypeSpec {
	if ts == nil {
		return nil
	}
	res := make([]TypeSpec, len(ts))
	for i, t := range ts {
		res[i] = t.clone()
	}
	return res
}

func (r *Run) MinLength() int { return r.minLen }

func (r *Run) MaxLength() int { return r.maxLen }

func (r *Run) MaxSolutions() int { return r.solutions }

// Timeout is the global budget shared by every length.
func (r *Run) Timeout() time.Duration { return r.timeout }

// ToolSeqRepeat reports whether the same tool sequence may be returned
// again with a different data flow.
func (r *Run) ToolSeqRepeat() bool { return r.toolSeqRepeat }

func (r *Run) Inputs() []TypeSpec { return cloneTypes(r.inputs) }

func (r *Run) Outputs() []TypeSpec { return cloneTypes(r.outputs) }

// Constraints returns the inline constraints, formulas included.
func (r *Run) Constraints() []constraint.Spec {
	res := make([]constraint.Spec, len(r.constraints))
	for i, c := range r.constraints {
		c.Parameters = slices.Clone(c.Parameters)
		res[i] = c
	}
	return res
}

// ConstraintsPath names a bulk constraint file, or is empty.
func (r *Run) ConstraintsPath() string { return r.constraintsPath }

func (r *Run) Encoding() encode.Options { return r.encoding }

func (r *Run) Debug() bool { return r.debug }

// Spec returns a spec that validates to r.
func (r *Run) Spec() Spec {
	ms := int(r.timeout / time.Millisecond)
	in, gen := r.encoding.UseInputs, r.encoding.UseGenerated
	return Spec{
		SolutionLength:        Length{Min: r.minLen, Max: r.maxLen},
		Solutions:             r.solutions,
		TimeoutMS:             &ms,
		ToolSeqRepeat:         r.toolSeqRepeat,
		Inputs:                r.Inputs(),
		Outputs:               r.Outputs(),
		Constraints:           r.Constraints(),
		ConstraintsPath:       r.constraintsPath,
		UseWorkflowInput:      &in,
		UseGeneratedData:      &gen,
		NoInputEcho:           r.encoding.NoInputEcho,
		StrictToolAnnotations: r.encoding.Strict,
		Debug:                 r.debug,
	}
}
