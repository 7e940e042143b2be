// Package debug holds tracing switches read once from the environment.
//
//	APE_DEBUG_ENCODE       encoder progress per clause family
//	APE_DEBUG_CLAUSES      every clause as it is written
//	APE_DEBUG_SOLVE        solver calls and results
//	APE_DEBUG_DECODE       decoded workflows
//	APE_DEBUG_CONSTRAINTS  constraints as they are applied
//	APE_DEBUG_MODEL        raw models returned by the solver
//
// Values are parsed with strconv.ParseBool.
package debug
