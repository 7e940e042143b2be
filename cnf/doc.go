// Package cnf writes clauses in DIMACS CNF format.
//
// The problem line of a DIMACS document must state the variable and clause
// counts, which are only known once encoding is done. A [Stage] buffers the
// clause body in a temporary file (or in memory) and prepends the header
// when the document is read back:
//
//	p cnf 3 2
//	1 -2 0
//	2 3 0
package cnf
