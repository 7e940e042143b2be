package solution

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ErrBadFilter = errors.New("bad filter")

// FilterEnv is what filter expressions see of a workflow.
type FilterEnv struct {
	Index   int        `expr:"index"`
	Length  int        `expr:"length"`
	Tools   []string   `expr:"tools"`
	Inputs  [][]string `expr:"inputs"`
	Outputs [][]string `expr:"outputs"`
	// Types holds every type produced by some step.
	Types []string `expr:"types"`
}

func filterEnv(wf *Workflow) FilterEnv {
	env := FilterEnv{Index: wf.Index, Length: wf.Length, Tools: wf.Tools()}
	for _, d := range wf.Inputs {
		env.Inputs = append(env.Inputs, d.Types)
	}
	for _, d := range wf.Outputs {
		env.Outputs = append(env.Outputs, d.Types)
	}
	for _, s := range wf.Steps {
		for _, d := range s.Outputs {
			env.Types = append(env.Types, d.Types...)
		}
	}
	return env
}

// Filter selects workflows with a boolean expression such as
//
//	length <= 3 && "crop" in tools
type Filter struct {
	src string
	prg *vm.Program
}

func NewFilter(src string) (*Filter, error) {
	prg, err := expr.Compile(src, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadFilter, src, err)
	}
	return &Filter{src: src, prg: prg}, nil
}

func (f *Filter) String() string { return f.src }

func (f *Filter) Match(wf *Workflow) (bool, error) {
	out, err := expr.Run(f.prg, filterEnv(wf))
	if err != nil {
		return false, fmt.Errorf("%w: %q on workflow %d: %w", ErrBadFilter, f.src, wf.Index, err)
	}
	return out.(bool), nil
}

// Apply keeps the matching workflows, in order.
func (f *Filter) Apply(wfs []*Workflow) ([]*Workflow, error) {
	var res []*Workflow
	for _, wf := range wfs {
		ok, err := f.Match(wf)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, wf)
		}
	}
	return res, nil
}
