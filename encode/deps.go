package encode

import "github.com/sanctuuary/APE-sub003/automaton"

// ensureDeps encodes the dependency relation once per encoder.
//
// A used state u depends on memory state n when it references n or
// references some k that depends on n. A memory state m of step s
// depends on n when m is not empty and some input of step s depends on
// n.
func (e *Encoder) ensureDeps() error {
	if e.deps {
		return nil
	}
	e.deps = true
	empty := e.tax.Empty()
	for _, b := range e.types.UsedBlocks() {
		if b.Step <= e.Length() {
			for _, m := range e.types.Memory[b.Step].States {
				if err := e.memDeps(m, b, e.pred(empty, m)); err != nil {
					return err
				}
			}
		}
		for _, u := range b.States {
			if err := e.usedDeps(u); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) memDeps(m *automaton.State, inputs *automaton.Block, z int) error {
	for _, n := range e.types.Reachable(m) {
		d := e.m.Dep(m, n)
		if err := e.Add(-d, -z); err != nil {
			return err
		}
		some := []int{-d}
		for _, u := range inputs.States {
			ud := e.m.UDep(u, n)
			some = append(some, ud)
			if err := e.Add(z, -ud, d); err != nil {
				return err
			}
		}
		if err := e.Add(some...); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) usedDeps(u *automaton.State) error {
	reach := e.types.Reachable(u)
	targets := append(reach, e.types.Null)
	for _, n := range reach {
		ud := e.m.UDep(u, n)
		for _, r := range targets {
			ref := e.m.Ref(u, r)
			switch {
			case r == n:
				if err := e.Add(-ref, ud); err != nil {
					return err
				}
			case r.Kind == automaton.MemoryState && r.Step > n.Step:
				dep := e.m.Dep(r, n)
				if err := e.Add(-ref, -dep, ud); err != nil {
					return err
				}
				if err := e.Add(-ud, -ref, dep); err != nil {
					return err
				}
			default:
				if err := e.Add(-ud, -ref); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// strict requires every workflow output to derive from some workflow
// input.
func (e *Encoder) strict() error {
	if err := e.ensureDeps(); err != nil {
		return err
	}
	in := e.types.Input().States
	if len(in) == 0 {
		return nil
	}
	for _, o := range e.types.Output.States {
		cl := make([]int, len(in))
		for i, n := range in {
			cl[i] = e.m.UDep(o, n)
		}
		if err := e.Add(cl...); err != nil {
			return err
		}
	}
	return nil
}
