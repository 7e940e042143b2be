package encode

import (
	"github.com/sanctuuary/APE-sub003/automaton"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// structure links every relevant predicate to its relevant subs at every
// state: a predicate implies one of its subs, a sub implies its parent.
// Operation predicates with nothing below them that are not tools can
// never hold.
func (e *Encoder) structure() error {
	opRoot := e.tax.OperationRoot()
	for _, s := range e.mods.States {
		if err := e.structureAt(opRoot, s, true); err != nil {
			return err
		}
	}
	for _, s := range e.types.States() {
		for _, d := range e.dims {
			if err := e.structureAt(d, s, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) structureAt(root taxonomy.ID, s *automaton.State, ops bool) error {
	for _, id := range e.tax.Descendants(root) {
		subs := e.tax.RelevantSubs(id)
		p := e.pred(id, s)
		if len(subs) == 0 {
			if _, tool := e.tax.Module(id); ops && !tool {
				if err := e.Add(-p); err != nil {
					return err
				}
			}
			continue
		}
		down := []int{-p}
		for _, c := range subs {
			cl := e.pred(c, s)
			down = append(down, cl)
			if err := e.Add(-cl, p); err != nil {
				return err
			}
		}
		if err := e.Add(down...); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) atMostOne(lits []int) error {
	for i := range lits {
		for j := i + 1; j < len(lits); j++ {
			if err := e.Add(-lits[i], -lits[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) preds(ids []taxonomy.ID, s *automaton.State) []int {
	res := make([]int, len(ids))
	for i, id := range ids {
		res[i] = e.pred(id, s)
	}
	return res
}

// mutex allows at most one leaf per dimension at every state.
func (e *Encoder) mutex() error {
	for _, s := range e.mods.States {
		if err := e.atMostOne(e.preds(e.moduleLeaves, s)); err != nil {
			return err
		}
	}
	for _, s := range e.types.States() {
		for _, leaves := range e.byDim {
			if err := e.atMostOne(e.preds(leaves, s)); err != nil {
				return err
			}
		}
	}
	return nil
}

// mandatory makes every step run a tool and every data slot either typed
// in all dimensions or empty.
func (e *Encoder) mandatory() error {
	for _, s := range e.mods.States {
		if err := e.Add(e.preds(e.moduleLeaves, s)...); err != nil {
			return err
		}
	}
	all, empty := e.tax.AllDims(), e.tax.Empty()
	for _, s := range e.types.States() {
		a, z := e.pred(all, s), e.pred(empty, s)
		if err := e.Add(a, z); err != nil {
			return err
		}
		if err := e.Add(-a, -z); err != nil {
			return err
		}
		for _, d := range e.dims {
			if err := e.Add(-z, -e.pred(d, s)); err != nil {
				return err
			}
		}
	}
	return nil
}

// helpers ties every helper predicate to its parts at every state of its
// role.
func (e *Encoder) helpers() error {
	for _, role := range []taxonomy.Role{taxonomy.Operation, taxonomy.Data} {
		states := e.mods.States
		if role == taxonomy.Data {
			states = e.types.States()
		}
		for _, id := range e.tax.AuxPredicates(role) {
			p := e.tax.Get(id)
			for _, s := range states {
				if err := e.link(p, s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Encoder) link(p *taxonomy.Predicate, s *automaton.State) error {
	h := e.pred(p.ID, s)
	parts := e.preds(p.Parts, s)
	switch p.Aux {
	case taxonomy.And:
		back := []int{h}
		for _, c := range parts {
			if err := e.Add(-h, c); err != nil {
				return err
			}
			back = append(back, -c)
		}
		return e.Add(back...)
	case taxonomy.Or:
		fwd := []int{-h}
		for _, c := range parts {
			if err := e.Add(h, -c); err != nil {
				return err
			}
			fwd = append(fwd, c)
		}
		return e.Add(fwd...)
	}
	return nil
}

// references makes every used state reference exactly one earlier memory
// state or null, with equal types, null meaning empty.
func (e *Encoder) references() error {
	empty := e.tax.Empty()
	leaves := append(append([]taxonomy.ID{}, e.dataLeaves...), empty)
	for _, b := range e.types.UsedBlocks() {
		for _, u := range b.States {
			reach := e.types.Reachable(u)
			refs := make([]int, 0, len(reach)+1)
			for _, m := range reach {
				r := e.m.Ref(u, m)
				refs = append(refs, r)
				for _, l := range leaves {
					lu, lm := e.pred(l, u), e.pred(l, m)
					if err := e.Add(-r, -lu, lm); err != nil {
						return err
					}
					if err := e.Add(-r, lu, -lm); err != nil {
						return err
					}
				}
			}
			null := e.m.Ref(u, e.types.Null)
			refs = append(refs, null)
			z := e.pred(empty, u)
			if err := e.Add(-null, z); err != nil {
				return err
			}
			if err := e.Add(-z, null); err != nil {
				return err
			}
			if err := e.Add(refs...); err != nil {
				return err
			}
			if err := e.atMostOne(refs); err != nil {
				return err
			}
		}
	}
	return nil
}

// toolIO forces the declared types of the tool at a step onto the used
// and memory blocks of that step, padding with empty. Abstract output
// types are written as their artificial leaves.
func (e *Encoder) toolIO() error {
	empty := e.tax.Empty()
	for _, id := range e.moduleLeaves {
		mod, _ := e.tax.Module(id)
		for t := 1; t <= e.Length(); t++ {
			tool := e.pred(id, e.mods.At(t))
			blocks := []struct {
				states []*automaton.State
				types  []taxonomy.ID
			}{
				{e.types.Used[t-1].States, mod.Inputs},
				{e.types.Memory[t].States, mod.Written()},
			}
			for _, b := range blocks {
				for j, s := range b.states {
					want := empty
					if j < len(b.types) {
						want = b.types[j]
					}
					if err := e.Add(-tool, e.pred(want, s)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// boundary places the workflow inputs in memory block 0 and the workflow
// outputs in the terminal used block.
func (e *Encoder) boundary() error {
	for i, s := range e.types.Input().States {
		if err := e.Add(e.pred(e.p.Inputs[i], s)); err != nil {
			return err
		}
	}
	for i, s := range e.types.Output.States {
		if err := e.Add(e.pred(e.p.Outputs[i], s)); err != nil {
			return err
		}
	}
	if !e.opts.NoInputEcho {
		return nil
	}
	for _, o := range e.types.Output.States {
		for _, m := range e.types.Input().States {
			if err := e.Add(-e.m.Ref(o, m)); err != nil {
				return err
			}
		}
	}
	return nil
}

// consumers returns the reference variables of every used state that may
// read m.
func (e *Encoder) consumers(m *automaton.State) []int {
	var res []int
	for _, b := range e.types.UsedBlocks() {
		if b.Step <= m.Step {
			continue
		}
		for _, u := range b.States {
			res = append(res, e.m.Ref(u, m))
		}
	}
	return res
}

// usage requires workflow inputs and tool outputs to be consumed.
func (e *Encoder) usage() error {
	in := e.types.Input().States
	switch e.opts.UseInputs {
	case UseAll:
		for _, m := range in {
			if err := e.Add(e.consumers(m)...); err != nil {
				return err
			}
		}
	case UseOne:
		if len(in) > 0 {
			var cl []int
			for _, m := range in {
				cl = append(cl, e.consumers(m)...)
			}
			if err := e.Add(cl...); err != nil {
				return err
			}
		}
	}

	empty := e.tax.Empty()
	var silent []taxonomy.ID
	for _, id := range e.moduleLeaves {
		if mod, _ := e.tax.Module(id); len(mod.Outputs) == 0 {
			silent = append(silent, id)
		}
	}
	for t := 1; t <= e.Length(); t++ {
		mem := e.types.Memory[t].States
		if len(mem) == 0 {
			continue
		}
		switch e.opts.UseGenerated {
		case UseAll:
			for _, m := range mem {
				cl := append([]int{e.pred(empty, m)}, e.consumers(m)...)
				if err := e.Add(cl...); err != nil {
					return err
				}
			}
		case UseOne:
			cl := e.preds(silent, e.mods.At(t))
			for _, m := range mem {
				cl = append(cl, e.consumers(m)...)
			}
			if err := e.Add(cl...); err != nil {
				return err
			}
		}
	}
	return nil
}
