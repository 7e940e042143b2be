package constraint

import (
	"fmt"
	"slices"

	"github.com/sanctuuary/APE-sub003/taxonomy"
)

const (
	op = taxonomy.Operation
	ty = taxonomy.Data
)

// Template is a parametrized constraint.
type Template struct {
	ID          string
	Description string
	Params      []taxonomy.Role
	// NeedsDeps is set when the clauses use Env.DependsOn.
	NeedsDeps   bool
	gen         func(g *gen, p []taxonomy.ID)
}

// Generate adds the clauses of d to env.
func (t *Template) Generate(env Env, d *Data) error {
	if t.ID == FormulaID {
		if d.Formula == nil {
			return errorf(BadFormula, d.Index, d.ID, "no formula")
		}
		if err := d.Formula.Lower(env); err != nil {
			return errorf(BadFormula, d.Index, d.ID, "%v", err)
		}
		return nil
	}
	if len(d.Params) != len(t.Params) {
		return errorf(WrongArity, d.Index, d.ID, "got %d, want %d", len(d.Params), len(t.Params))
	}
	g := &gen{env: env, L: env.Length()}
	t.gen(g, d.Params)
	if g.err != nil {
		return fmt.Errorf("constraint %d (%s): %w", d.Index, d.ID, g.err)
	}
	return nil
}

var registry = map[string]*Template{}

func register(t *Template) { registry[t.ID] = t }

// Lookup returns the template with the given id.
func Lookup(id string) (*Template, bool) {
	t, ok := registry[id]
	return t, ok
}

// IDs returns the known template ids, sorted.
func IDs() []string {
	res := make([]string, 0, len(registry))
	for id := range registry {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

// Templates returns the known templates sorted by id.
func Templates() []*Template {
	res := make([]*Template, 0, len(registry))
	for _, id := range IDs() {
		res = append(res, registry[id])
	}
	return res
}

// gen accumulates clauses, keeping the first error.
type gen struct {
	env Env
	L   int
	err error
}

func (g *gen) add(lits ...int) {
	if g.err == nil {
		g.err = g.env.Add(lits...)
	}
}

// and returns a literal implying every one of lits.
func (g *gen) and(lits ...int) int {
	w := g.env.Aux()
	back := []int{w}
	for _, l := range lits {
		g.add(-w, l)
		back = append(back, -l)
	}
	g.add(back...)
	return w
}

func (g *gen) tools(p taxonomy.ID, from, to int) []int {
	var res []int
	for t := from; t <= to; t++ {
		res = append(res, g.env.Tool(p, t))
	}
	return res
}

func (g *gen) used(p taxonomy.ID, from, to int) []int {
	var res []int
	for t := from; t <= to; t++ {
		res = append(res, g.env.Used(p, t))
	}
	return res
}

func (g *gen) generated(p taxonomy.ID, from, to int) []int {
	var res []int
	for t := from; t <= to; t++ {
		res = append(res, g.env.Generated(p, t))
	}
	return res
}

// always adds [-a(t), b...] for each step t.
func (g *gen) always(a func(t int) int, b func(t int) []int) {
	for t := 1; t <= g.L; t++ {
		g.add(append([]int{-a(t)}, b(t)...)...)
	}
}

// never adds [-a(t), -b(t2)] for each t < t2.
func (g *gen) never(a, b func(t int) int) {
	for t := 1; t <= g.L; t++ {
		for t2 := t + 1; t2 <= g.L; t2++ {
			g.add(-a(t), -b(t2))
		}
	}
}

func init() {
	register(&Template{
		ID:          "ite_m",
		Description: "If the 1st operation is used, the 2nd operation must be used subsequently.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Tool(p[0], t) },
				func(t int) []int { return g.tools(p[1], t+1, g.L) })
		},
	})
	register(&Template{
		ID:          "itn_m",
		Description: "If the 1st operation is used, the 2nd operation cannot be used subsequently.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.never(func(t int) int { return g.env.Tool(p[0], t) },
				func(t int) int { return g.env.Tool(p[1], t) })
		},
	})
	register(&Template{
		ID:          "depend_m",
		Description: "If the 1st operation is used, the 2nd operation must be used prior to it.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Tool(p[0], t) },
				func(t int) []int { return g.tools(p[1], 1, t-1) })
		},
	})
	register(&Template{
		ID:          "next_m",
		Description: "If the 1st operation is used, the 2nd operation must be used as the next step.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Tool(p[0], t) },
				func(t int) []int { return g.tools(p[1], t+1, min(t+1, g.L)) })
		},
	})
	register(&Template{
		ID:          "prev_m",
		Description: "If the 1st operation is used, the 2nd operation must be used as the previous step.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Tool(p[0], t) },
				func(t int) []int { return g.tools(p[1], max(t-1, 1), t-1) })
		},
	})
	register(&Template{
		ID:          "use_m",
		Description: "Use the operation in the solution.",
		Params:      []taxonomy.Role{op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.add(g.tools(p[0], 1, g.L)...)
		},
	})
	register(&Template{
		ID:          "nuse_m",
		Description: "Do not use the operation in the solution.",
		Params:      []taxonomy.Role{op},
		gen: func(g *gen, p []taxonomy.ID) {
			for t := 1; t <= g.L; t++ {
				g.add(-g.env.Tool(p[0], t))
			}
		},
	})
	register(&Template{
		ID:          "last_m",
		Description: "Use the operation as the last step of the solution, and only there.",
		Params:      []taxonomy.Role{op},
		gen: func(g *gen, p []taxonomy.ID) {
			g.add(g.env.Tool(p[0], g.L))
			for t := 1; t < g.L; t++ {
				g.add(-g.env.Tool(p[0], t))
			}
		},
	})
	register(&Template{
		ID:          "use_t",
		Description: "Use the type as a tool input in the solution.",
		Params:      []taxonomy.Role{ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.add(g.used(p[0], 1, g.L)...)
		},
	})
	register(&Template{
		ID:          "gen_t",
		Description: "Generate the type as a tool output in the solution.",
		Params:      []taxonomy.Role{ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.add(g.generated(p[0], 1, g.L)...)
		},
	})
	register(&Template{
		ID:          "nuse_t",
		Description: "Do not use the type as a tool input in the solution.",
		Params:      []taxonomy.Role{ty},
		gen: func(g *gen, p []taxonomy.ID) {
			for t := 1; t <= g.L; t++ {
				g.add(-g.env.Used(p[0], t))
			}
		},
	})
	register(&Template{
		ID:          "ngen_t",
		Description: "Do not generate the type as a tool output in the solution.",
		Params:      []taxonomy.Role{ty},
		gen: func(g *gen, p []taxonomy.ID) {
			for t := 1; t <= g.L; t++ {
				g.add(-g.env.Generated(p[0], t))
			}
		},
	})
	register(&Template{
		ID:          "use_ite_t",
		Description: "If the 1st type is used, the 2nd type must be used subsequently.",
		Params:      []taxonomy.Role{ty, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Used(p[0], t) },
				func(t int) []int { return g.used(p[1], t+1, g.L) })
		},
	})
	register(&Template{
		ID:          "gen_ite_t",
		Description: "If the 1st type is generated, the 2nd type must be generated subsequently.",
		Params:      []taxonomy.Role{ty, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.always(func(t int) int { return g.env.Generated(p[0], t) },
				func(t int) []int { return g.generated(p[1], t+1, g.L) })
		},
	})
	register(&Template{
		ID:          "use_itn_t",
		Description: "If the 1st type is used, the 2nd type cannot be used subsequently.",
		Params:      []taxonomy.Role{ty, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.never(func(t int) int { return g.env.Used(p[0], t) },
				func(t int) int { return g.env.Used(p[1], t) })
		},
	})
	register(&Template{
		ID:          "gen_itn_t",
		Description: "If the 1st type is generated, the 2nd type cannot be generated subsequently.",
		Params:      []taxonomy.Role{ty, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			g.never(func(t int) int { return g.env.Generated(p[0], t) },
				func(t int) int { return g.env.Generated(p[1], t) })
		},
	})
	register(&Template{
		ID:          "operation_input",
		Description: "Use the operation with an input of the type.",
		Params:      []taxonomy.Role{op, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			var alts []int
			for t := 1; t <= g.L; t++ {
				alts = append(alts, g.and(g.env.Tool(p[0], t), g.env.Used(p[1], t)))
			}
			g.add(alts...)
		},
	})
	register(&Template{
		ID:          "operation_output",
		Description: "Use the operation to generate an output of the type.",
		Params:      []taxonomy.Role{op, ty},
		gen: func(g *gen, p []taxonomy.ID) {
			var alts []int
			for t := 1; t <= g.L; t++ {
				alts = append(alts, g.and(g.env.Tool(p[0], t), g.env.Generated(p[1], t)))
			}
			g.add(alts...)
		},
	})
	register(&Template{
		ID:          "connected_op",
		Description: "The 1st operation must generate an output used as input by the 2nd operation.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			var alts []int
			for t := 1; t <= g.L; t++ {
				for t2 := t + 1; t2 <= g.L; t2++ {
					alts = append(alts, g.and(g.env.Tool(p[0], t), g.env.Tool(p[1], t2), g.env.Connected(t, t2)))
				}
			}
			g.add(alts...)
		},
	})
	register(&Template{
		ID:          "not_connected_op",
		Description: "The 1st operation must never generate an output used as input by the 2nd operation.",
		Params:      []taxonomy.Role{op, op},
		gen: func(g *gen, p []taxonomy.ID) {
			for t := 1; t <= g.L; t++ {
				for t2 := t + 1; t2 <= g.L; t2++ {
					g.add(-g.env.Tool(p[0], t), -g.env.Tool(p[1], t2), -g.env.Connected(t, t2))
				}
			}
		},
	})
	register(&Template{
		ID:          "not_repeat_op",
		Description: "No tool performing the operation may be used more than once.",
		Params:      []taxonomy.Role{op},
		gen: func(g *gen, p []taxonomy.ID) {
			for _, m := range g.env.Modules(p[0]) {
				g.never(func(t int) int { return g.env.Tool(m, t) },
					func(t int) int { return g.env.Tool(m, t) })
			}
		},
	})
	register(&Template{
		ID:          "dep_op",
		Description: "Whenever the 2nd operation is used, it must consume data derived from an earlier use of the 1st operation.",
		Params:      []taxonomy.Role{op, op},
		NeedsDeps:   true,
		gen: func(g *gen, p []taxonomy.ID) {
			for t2 := 1; t2 <= g.L; t2++ {
				cl := []int{-g.env.Tool(p[1], t2)}
				for t := 1; t < t2; t++ {
					cl = append(cl, g.and(g.env.Tool(p[0], t), g.env.DependsOn(t2, t)))
				}
				g.add(cl...)
			}
		},
	})
	register(&Template{
		ID:          "ndep_op",
		Description: "The 2nd operation must never consume data derived from an earlier use of the 1st operation.",
		Params:      []taxonomy.Role{op, op},
		NeedsDeps:   true,
		gen: func(g *gen, p []taxonomy.ID) {
			for t := 1; t <= g.L; t++ {
				for t2 := t + 1; t2 <= g.L; t2++ {
					g.add(-g.env.Tool(p[0], t), -g.env.Tool(p[1], t2), -g.env.DependsOn(t2, t))
				}
			}
		},
	})
	register(&Template{
		ID:          FormulaID,
		Description: "A temporal-logic formula over the workflow steps.",
	})
}
