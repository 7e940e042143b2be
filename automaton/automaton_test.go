package automaton

import (
	"errors"
	"testing"
)

func TestBuildShape(t *testing.T) {
	sh := Shape{MaxInputs: 2, MaxOutputs: 3, WorkflowInputs: 1, WorkflowOutputs: 2}
	mods, types, err := Build(4, sh)
	if err != nil {
		t.Fatal(err)
	}
	if mods.Len() != 4 {
		t.Fatalf("module states: %d", mods.Len())
	}
	for i := 1; i <= 4; i++ {
		if mods.At(i).Step != i || mods.At(i).Kind != ModuleState {
			t.Errorf("module state %d: %+v", i, mods.At(i))
		}
	}
	if len(types.Memory) != 5 {
		t.Fatalf("memory blocks: %d", len(types.Memory))
	}
	if w := len(types.Input().States); w != 1 {
		t.Errorf("input block width %d", w)
	}
	for _, b := range types.Memory[1:] {
		if len(b.States) != 3 {
			t.Errorf("memory block %d width %d", b.Step, len(b.States))
		}
	}
	if len(types.Used) != 4 {
		t.Fatalf("used blocks: %d", len(types.Used))
	}
	for _, b := range types.Used {
		if len(b.States) != 2 {
			t.Errorf("used block %d width %d", b.Step, len(b.States))
		}
	}
	if types.Output.Step != 5 || len(types.Output.States) != 2 {
		t.Errorf("output block %+v", types.Output)
	}
	if types.UsedAt(5) != types.Output {
		t.Error("UsedAt(length+1) is not the output block")
	}

	seen := map[int]bool{}
	all := append(types.States(), mods.States...)
	all = append(all, types.Null)
	for _, s := range all {
		if seen[s.Order] {
			t.Errorf("duplicate order %d", s.Order)
		}
		seen[s.Order] = true
	}
}

func TestReachableIsStrictlyEarlier(t *testing.T) {
	_, types, err := Build(3, Shape{MaxInputs: 1, MaxOutputs: 2, WorkflowInputs: 2, WorkflowOutputs: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range types.UsedBlocks() {
		for _, u := range b.States {
			got := types.Reachable(u)
			want := 2 + 2*(u.Step-1)
			if len(got) != want {
				t.Errorf("%s: %d reachable, want %d", u, len(got), want)
			}
			for _, m := range got {
				if m.Step >= u.Step {
					t.Errorf("%s reaches %s", u, m)
				}
			}
		}
	}
}

func TestBuildRejectsBadLength(t *testing.T) {
	for _, l := range []int{0, -2} {
		if _, _, err := Build(l, Shape{}); !errors.Is(err, ErrLength) {
			t.Errorf("length %d: got %v", l, err)
		}
	}
	if _, _, err := Build(1, Shape{MaxInputs: -1}); !errors.Is(err, ErrLength) {
		t.Errorf("negative width: got %v", err)
	}
}

func TestKindString(t *testing.T) {
	if got := UsedState.String(); got != "used" {
		t.Errorf("got %q", got)
	}
	if got := Kind(42).String(); got != "kind(42)" {
		t.Errorf("got %q", got)
	}
}
