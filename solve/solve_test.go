package solve

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func load(t *testing.T, doc string) *Solver {
	t.Helper()
	s, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSolveAndBlock(t *testing.T) {
	// exactly one of 1, 2
	s := load(t, "p cnf 2 3\n1 2 0\n-1 -2 0\n1 -1 0\n")
	ctx := context.Background()
	var models [][]int
	for {
		st := s.Solve(ctx, time.Second)
		if st == Unsat {
			break
		}
		if st != Sat {
			t.Fatalf("status %s", st)
		}
		m, err := s.Model()
		if err != nil {
			t.Fatal(err)
		}
		models = append(models, m)
		block := make([]int, len(m))
		for i, l := range m {
			block[i] = -l
		}
		if err := s.Add(block...); err != nil {
			t.Fatal(err)
		}
		if len(models) > 2 {
			t.Fatalf("blocked model returned again: %v", models)
		}
	}
	if len(models) != 2 {
		t.Fatalf("got %d models", len(models))
	}
	if diff := cmp.Diff(models[0], models[1]); diff == "" {
		t.Error("same model twice")
	}
}

func TestSolveUnsat(t *testing.T) {
	s := load(t, "p cnf 1 2\n1 0\n-1 0\n")
	if st := s.Solve(context.Background(), time.Second); st != Unsat {
		t.Errorf("got %s", st)
	}
	if _, err := s.Model(); !errors.Is(err, ErrInternal) {
		t.Errorf("model after unsat: %v", err)
	}
}

func TestSolveNoBudget(t *testing.T) {
	s := load(t, "p cnf 1 1\n1 0\n")
	if st := s.Solve(context.Background(), 0); st != Unknown {
		t.Errorf("zero budget: %s", st)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if st := s.Solve(ctx, time.Hour); st != Unknown {
		t.Errorf("cancelled: %s", st)
	}
	if st := s.Solve(context.Background(), time.Second); st != Sat {
		t.Errorf("after unknown: %s", st)
	}
	if !s.Value(1) || s.Value(7) {
		t.Error("wrong values")
	}
}

func TestAddErrors(t *testing.T) {
	s := load(t, "p cnf 1 1\n1 0\n")
	if err := s.Add(); !errors.Is(err, ErrInternal) {
		t.Errorf("empty clause: %v", err)
	}
	if err := s.Add(1, 0); !errors.Is(err, ErrInternal) {
		t.Errorf("zero literal: %v", err)
	}
}
