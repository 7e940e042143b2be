package solve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/sanctuuary/APE-sub003/debug"
)

// ErrInternal reports generated CNF the solver rejects. It is a bug in
// the encoder, never a property of the problem.
var ErrInternal = errors.New("internal solver error")

// Status is the outcome of one solver call.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

func status(r int) Status {
	switch r {
	case 1:
		return Sat
	case -1:
		return Unsat
	default:
		return Unknown
	}
}

// PollInterval is how often a running solve checks for cancellation.
var PollInterval = 5 * time.Millisecond

// Solver holds one loaded problem. It is not safe for concurrent use:
// clauses are added only between calls to Solve.
type Solver struct {
	g    *gini.Gini
	vars int
	last Status
}

// Load reads a DIMACS document.
func Load(r io.Reader) (*Solver, error) {
	g, err := gini.NewDimacs(r)
	if err != nil {
		return nil, fmt.Errorf("%w: loading cnf: %w", ErrInternal, err)
	}
	return &Solver{g: g, vars: int(g.MaxVar())}, nil
}

// Vars is the number of problem variables.
func (s *Solver) Vars() int { return s.vars }

// Solve looks for a model for at most budget. A non-positive budget or a
// done context returns Unknown without starting the solver.
func (s *Solver) Solve(ctx context.Context, budget time.Duration) Status {
	s.last = Unknown
	if budget <= 0 || ctx.Err() != nil {
		return Unknown
	}
	start := time.Now()
	h := s.g.GoSolve()
	timer := time.NewTimer(budget)
	defer timer.Stop()
	tick := time.NewTicker(PollInterval)
	defer tick.Stop()

	res := 0
loop:
	for {
		if r, done := h.Test(); done {
			res = r
			break loop
		}
		select {
		case <-ctx.Done():
			res = h.Stop()
			break loop
		case <-timer.C:
			res = h.Stop()
			break loop
		case <-tick.C:
		}
	}
	s.last = status(res)
	if debug.Solve() {
		debug.Logf("solve vars=%d budget=%s took=%s result=%s\n", s.vars, budget, time.Since(start), s.last)
	}
	return s.last
}

// Value reports the value of variable v in the last model. Variables the
// solver never saw are false.
func (s *Solver) Value(v int) bool {
	if v <= 0 || v > int(s.g.MaxVar()) {
		return false
	}
	return s.g.Value(z.Dimacs2Lit(v))
}

// Model returns the last model as signed literals over 1..Vars.
func (s *Solver) Model() ([]int, error) {
	if s.last != Sat {
		return nil, fmt.Errorf("%w: no model after %s result", ErrInternal, s.last)
	}
	res := make([]int, s.vars)
	for v := 1; v <= s.vars; v++ {
		if s.Value(v) {
			res[v-1] = v
		} else {
			res[v-1] = -v
		}
	}
	if debug.Model() {
		debug.Logf("model %v\n", res)
	}
	return res, nil
}

// Add adds a clause between solves.
func (s *Solver) Add(lits ...int) error {
	if len(lits) == 0 {
		return fmt.Errorf("%w: empty clause", ErrInternal)
	}
	for _, l := range lits {
		if l == 0 {
			return fmt.Errorf("%w: zero literal in %v", ErrInternal, lits)
		}
	}
	for _, l := range lits {
		s.g.Add(z.Dimacs2Lit(l))
	}
	s.g.Add(z.LitNull)
	return nil
}
