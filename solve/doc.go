// Package solve runs generated DIMACS problems through gini.
//
// A Solver is loaded once per workflow length. Each call to Solve runs
// the search in its own goroutine and polls it, stopping it when the
// budget lapses or the context is done, so that the shared time budget of
// a synthesis run is honoured. Blocking clauses are added with Add
// between calls.
package solve
