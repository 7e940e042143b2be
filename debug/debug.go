package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Encode      bool
	Clauses     bool
	Solve       bool
	Decode      bool
	Constraints bool
	Model       bool
}

var d *debug

func init() {
	d = &debug{}
	d.Encode = boolEnv("APE_DEBUG_ENCODE")
	d.Clauses = boolEnv("APE_DEBUG_CLAUSES")
	d.Solve = boolEnv("APE_DEBUG_SOLVE")
	d.Decode = boolEnv("APE_DEBUG_DECODE")
	d.Constraints = boolEnv("APE_DEBUG_CONSTRAINTS")
	d.Model = boolEnv("APE_DEBUG_MODEL")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Encode() bool {
	return d.Encode
}
func Clauses() bool {
	return d.Clauses
}
func Solve() bool {
	return d.Solve
}
func Decode() bool {
	return d.Decode
}
func Constraints() bool {
	return d.Constraints
}
func Model() bool {
	return d.Model
}

// Logf writes to stderr. Maps, slices of any and json numbers are
// rendered as indented JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case map[string]any, []any, json.Number:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
