package encode

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadUsage = errors.New("bad usage mode")

// Usage says how much of some data must be consumed by the workflow.
type Usage int

const (
	UseNone Usage = iota
	UseOne
	UseAll
)

func ParseUsage(v string) (Usage, error) {
	u, ok := map[string]Usage{
		"none": UseNone,
		"one":  UseOne,
		"all":  UseAll,
	}[strings.ToLower(v)]
	if ok {
		return u, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadUsage, v)
}

func (u Usage) String() string {
	d, err := u.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (u Usage) MarshalText() ([]byte, error) {
	switch u {
	case UseNone:
		return []byte("none"), nil
	case UseOne:
		return []byte("one"), nil
	case UseAll:
		return []byte("all"), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadUsage, int(u))
	}
}

func (u *Usage) UnmarshalText(d []byte) error {
	pu, err := ParseUsage(string(d))
	if err != nil {
		return err
	}
	*u = pu
	return nil
}

// Options tune the encoding beyond the problem itself.
type Options struct {
	// UseInputs says how many workflow inputs must be consumed.
	UseInputs Usage
	// UseGenerated says how many tool outputs must be consumed: all of
	// them, or at least one per step.
	UseGenerated Usage
	// NoInputEcho forbids workflow outputs that are workflow inputs.
	NoInputEcho bool
	// Strict encodes the dependency relation unconditionally and
	// requires every workflow output to derive from a workflow input.
	Strict bool
}

// DefaultOptions match the run configuration defaults.
func DefaultOptions() Options {
	return Options{UseInputs: UseAll, UseGenerated: UseOne}
}
