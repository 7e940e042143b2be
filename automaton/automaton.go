package automaton

import (
	"errors"
	"fmt"
)

var ErrLength = errors.New("invalid workflow length")

type Kind int

const (
	ModuleState Kind = iota
	MemoryState
	UsedState
	NullState
)

var kindNames = map[Kind]string{
	ModuleState: "module",
	MemoryState: "memory",
	UsedState:   "used",
	NullState:   "null",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is one position of the automaton. Step is 1-based for module and
// used states; memory block 0 holds the workflow inputs and the terminal
// used block sits at step length+1. Order is unique per automaton pair.
type State struct {
	Kind  Kind
	Step  int
	Slot  int
	Order int
}

func (s *State) String() string {
	switch s.Kind {
	case ModuleState:
		return fmt.Sprintf("tool%d", s.Step)
	case MemoryState:
		return fmt.Sprintf("mem%d.%d", s.Step, s.Slot)
	case UsedState:
		return fmt.Sprintf("use%d.%d", s.Step, s.Slot)
	default:
		return "null"
	}
}

type Block struct {
	Kind   Kind
	Step   int
	States []*State
}

// Shape sizes the type blocks.
type Shape struct {
	MaxInputs       int
	MaxOutputs      int
	WorkflowInputs  int
	WorkflowOutputs int
}

type ModuleAutomaton struct {
	States []*State
}

// At returns the module state of step (1-based).
func (m *ModuleAutomaton) At(step int) *State { return m.States[step-1] }

func (m *ModuleAutomaton) Len() int { return len(m.States) }

type TypeAutomaton struct {
	// Memory has one block per step 0..length.
	Memory []*Block
	// Used has one block per step 1..length.
	Used []*Block
	// Output is the used block at step length+1 holding the workflow
	// outputs.
	Output *Block
	Null   *State
}

// Input returns the memory block holding the workflow inputs.
func (t *TypeAutomaton) Input() *Block { return t.Memory[0] }

// UsedAt returns the used block of step, where step length+1 is the
// output block.
func (t *TypeAutomaton) UsedAt(step int) *Block {
	if step == len(t.Used)+1 {
		return t.Output
	}
	return t.Used[step-1]
}

// UsedBlocks returns every used block including the output block.
func (t *TypeAutomaton) UsedBlocks() []*Block {
	res := make([]*Block, 0, len(t.Used)+1)
	res = append(res, t.Used...)
	return append(res, t.Output)
}

// Reachable returns the memory states a used state may reference: those
// created strictly before its step.
func (t *TypeAutomaton) Reachable(u *State) []*State {
	var res []*State
	for _, b := range t.Memory {
		if b.Step >= u.Step {
			break
		}
		res = append(res, b.States...)
	}
	return res
}

// States returns every memory and used state, in order.
func (t *TypeAutomaton) States() []*State {
	var res []*State
	for _, b := range t.Memory {
		res = append(res, b.States...)
	}
	for _, b := range t.UsedBlocks() {
		res = append(res, b.States...)
	}
	return res
}

// Build creates the automata for workflows of the given length.
func Build(length int, sh Shape) (*ModuleAutomaton, *TypeAutomaton, error) {
	if length <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrLength, length)
	}
	if sh.MaxInputs < 0 || sh.MaxOutputs < 0 || sh.WorkflowInputs < 0 || sh.WorkflowOutputs < 0 {
		return nil, nil, fmt.Errorf("%w: negative block width in %+v", ErrLength, sh)
	}
	order := 0
	next := func(k Kind, step, slot int) *State {
		s := &State{Kind: k, Step: step, Slot: slot, Order: order}
		order++
		return s
	}
	block := func(k Kind, step, width int) *Block {
		b := &Block{Kind: k, Step: step, States: make([]*State, width)}
		for i := range b.States {
			b.States[i] = next(k, step, i)
		}
		return b
	}

	mods := &ModuleAutomaton{States: make([]*State, length)}
	for i := range mods.States {
		mods.States[i] = next(ModuleState, i+1, 0)
	}
	types := &TypeAutomaton{}
	types.Memory = append(types.Memory, block(MemoryState, 0, sh.WorkflowInputs))
	for step := 1; step <= length; step++ {
		types.Used = append(types.Used, block(UsedState, step, sh.MaxInputs))
		types.Memory = append(types.Memory, block(MemoryState, step, sh.MaxOutputs))
	}
	types.Output = block(UsedState, length+1, sh.WorkflowOutputs)
	types.Null = next(NullState, 0, 0)
	return mods, types, nil
}
