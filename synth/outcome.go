package synth

import (
	"fmt"
	"time"
)

// Outcome is how a run ended.
type Outcome int

const (
	Unknown Outcome = iota
	// Success means the requested number of workflows was found.
	Success
	// Timeout means the global budget ran out first.
	Timeout
	// Unsat means no workflow exists at any length tried.
	Unsat
	// MaxLength means every length up to the maximum was exhausted
	// after finding some, but not enough, workflows.
	MaxLength
)

var outcomeNames = map[Outcome]string{
	Unknown:   "unknown",
	Success:   "success",
	Timeout:   "timeout",
	Unsat:     "unsat",
	MaxLength: "max-length",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(d []byte) error {
	for k, v := range outcomeNames {
		if v == string(d) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", d)
}

// RunContext tracks the global time budget of a run. Every length and
// every solver call draws on the same budget.
type RunContext struct {
	start   time.Time
	timeout time.Duration
}

func NewRunContext(timeout time.Duration) *RunContext {
	return &RunContext{start: time.Now(), timeout: timeout}
}

func (rc *RunContext) Elapsed() time.Duration { return time.Since(rc.start) }

// Remaining is never negative.
func (rc *RunContext) Remaining() time.Duration {
	return max(rc.timeout-rc.Elapsed(), 0)
}

func (rc *RunContext) Expired() bool { return rc.Remaining() == 0 }
