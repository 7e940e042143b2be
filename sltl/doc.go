// Package sltl parses temporal-logic formulas over workflow steps and
// lowers them to clauses.
//
// # Syntax
//
//	f := true | false | name | in(name) | out(name)
//	   | !f | X f | F f | G f | <name> f
//	   | f U f | f & f | f | f | f -> f | f <-> f | (f)
//
// A bare or quoted name denotes an operation used at the current step.
// in(T) holds when a tool input at the current step has type T, out(T)
// when a tool output does. <M> f is M at the current step followed by f at
// the next one.
//
// # Semantics
//
// Formulas are evaluated over positions 1..L+1 of a workflow of length L
// and asserted at position 1. Position L+1 follows the last tool: nothing
// is used or produced there and it has no successor, so X is strong.
//
// # Lowering
//
// [Formula.Lower] introduces one auxiliary variable per (node, position)
// pair with biconditional defining clauses, sharing the encoder's variable
// space through [Env].
package sltl
